// Package common defines shared constants and the error taxonomy used across
// the server and client layers of voicegate. Callers should use errors.Is and
// errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Billing input errors.
	ErrInvalidDuration = errors.New("invalid duration")
	ErrProbeFailed     = errors.New("duration probe failed")
)

// AuthErrorKind enumerates the reasons a credential can be rejected.
type AuthErrorKind int

const (
	AuthMissing AuthErrorKind = iota + 1
	AuthMalformed
	AuthInvalidSignature
	AuthExpired
	AuthRevoked
	AuthUnknown
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthMissing:
		return "missing"
	case AuthMalformed:
		return "malformed"
	case AuthInvalidSignature:
		return "invalid signature"
	case AuthExpired:
		return "expired"
	case AuthRevoked:
		return "revoked"
	case AuthUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("AuthErrorKind(%d)", int(k))
	}
}

// AuthError is returned by every token verification and rotation failure.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: token %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth: token %s", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is reports a match against another *AuthError of the same kind, so that
// errors.Is(err, &AuthError{Kind: AuthRevoked}) works.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsAuthKind reports whether err carries an AuthError of the given kind.
func IsAuthKind(err error, kind AuthErrorKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// InsufficientFundsError is returned when a charge exceeds the user's balance.
// No state is mutated when it is returned.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// ProbeError wraps a duration measurement failure. It matches ErrProbeFailed.
type ProbeError struct {
	Err error
}

func (e *ProbeError) Error() string { return fmt.Sprintf("%v: %v", ErrProbeFailed, e.Err) }

func (e *ProbeError) Unwrap() error { return e.Err }

func (e *ProbeError) Is(target error) bool { return target == ErrProbeFailed }

// DownstreamKind distinguishes a remote failure from a timeout.
type DownstreamKind int

const (
	DownstreamUnavailable DownstreamKind = iota + 1
	DownstreamTimeout
)

func (k DownstreamKind) String() string {
	switch k {
	case DownstreamUnavailable:
		return "unavailable"
	case DownstreamTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("DownstreamKind(%d)", int(k))
	}
}

// DownstreamError is returned when the transcription engine fails or times out.
type DownstreamError struct {
	Kind DownstreamKind
	Err  error
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("transcription engine %s: %v", e.Kind, e.Err)
}

func (e *DownstreamError) Unwrap() error { return e.Err }
