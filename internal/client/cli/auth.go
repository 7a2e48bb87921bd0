package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/voicegate/internal/client/client"
	"github.com/dmitrijs2005/voicegate/internal/client/session"
	"github.com/dmitrijs2005/voicegate/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type authCall func(ctx context.Context, email, password string) (*client.AuthResult, error)

// Signup creates an account and stores the returned session.
func (a *App) Signup(ctx context.Context) error {
	return a.authenticate(ctx, a.api.Signup, "Account created")
}

// Login stores a fresh session for existing credentials.
func (a *App) Login(ctx context.Context) error {
	return a.authenticate(ctx, a.api.Login, "Logged in")
}

func (a *App) authenticate(ctx context.Context, call authCall, done string) error {
	if cur, err := a.sessions.Load(); err == nil {
		ok, err := Confirm(a.reader, fmt.Sprintf("Already logged in as %s. Replace the session?", cur.Email), a.out)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := call(ctx, email, string(password))
	if err != nil {
		return err
	}

	sess := &session.Session{
		Email:        res.User.Email,
		AccessToken:  res.Auth.AccessToken,
		RefreshToken: res.Auth.RefreshToken,
		ExpiresAt:    res.Auth.ExpiresAt,
	}
	if err := a.sessions.Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Fprintf(a.out, "%s: %s\n", done, sess.Email)
	return nil
}

// Refresh rotates the stored refresh token.
func (a *App) Refresh(ctx context.Context) error {
	sess, err := a.loadSession()
	if err != nil {
		return err
	}
	if err := a.refresh(ctx, sess); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Session refreshed, valid until %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

// Logout revokes the refresh token and forgets the session. The local
// session is cleared even if the gateway rejects the token.
func (a *App) Logout(ctx context.Context) error {
	sess, err := a.loadSession()
	if err != nil {
		return err
	}

	apiErr := a.api.Logout(ctx, sess.RefreshToken)
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	if apiErr != nil && !errors.Is(apiErr, client.ErrUnauthorized) {
		return apiErr
	}

	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) loadSession() (*session.Session, error) {
	sess, err := a.sessions.Load()
	if errors.Is(err, session.ErrNoSession) {
		return nil, client.ErrNotLoggedIn
	}
	return sess, err
}

// refresh rotates sess in place and saves it. A rejected refresh token
// drops the session.
func (a *App) refresh(ctx context.Context, sess *session.Session) error {
	tokens, err := a.api.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.sessions.Clear()
			return fmt.Errorf("%w: %v", client.ErrNotLoggedIn, err)
		}
		return err
	}

	sess.AccessToken = tokens.AccessToken
	sess.RefreshToken = tokens.RefreshToken
	sess.ExpiresAt = tokens.ExpiresAt
	return a.sessions.Save(sess)
}

// withAccess runs fn with the stored access token, refreshing once on 401.
func (a *App) withAccess(ctx context.Context, fn func(access string) error) error {
	sess, err := a.loadSession()
	if err != nil {
		return err
	}

	err = fn(sess.AccessToken)
	if !errors.Is(err, client.ErrUnauthorized) {
		return err
	}

	if err := a.refresh(ctx, sess); err != nil {
		return err
	}
	return fn(sess.AccessToken)
}
