package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx response of the gateway.
type APIError struct {
	Status  int
	Message string
	// Cost and Balance are set on 402 Payment Required.
	Cost    int64
	Balance int64
}

func (e *APIError) Error() string {
	if e.Status == http.StatusPaymentRequired {
		return fmt.Sprintf("%s (cost %d, balance %d)", e.Message, e.Cost, e.Balance)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Is makes a 401 match ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}
