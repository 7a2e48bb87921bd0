package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/voicegate/internal/client/client"
	"github.com/dmitrijs2005/voicegate/internal/client/config"
	"github.com/dmitrijs2005/voicegate/internal/client/session"
)

var ErrUsage = errors.New("usage error")

// API is the part of the gateway client the commands use.
type API interface {
	Signup(ctx context.Context, email, password string) (*client.AuthResult, error)
	Login(ctx context.Context, email, password string) (*client.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*client.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	Balance(ctx context.Context, accessToken string) (int64, error)
	Transactions(ctx context.Context, accessToken string, limit int) ([]client.Transaction, error)
	Transcribe(ctx context.Context, accessToken, path string) (*client.TranscribeResult, error)
}

// SessionStore persists the token pair between runs.
type SessionStore interface {
	Load() (*session.Session, error)
	Save(s *session.Session) error
	Clear() error
}

type App struct {
	config   *config.Config
	api      API
	sessions SessionStore
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config:   c,
		api:      client.NewClient(c.ServerURL, c.RequestTimeout),
		sessions: session.NewStore(c.SessionFile),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run executes the command named by the first positional argument.
func (a *App) Run(ctx context.Context) error {
	if len(a.config.Args) == 0 {
		a.usage()
		return ErrUsage
	}

	cmd, args := a.config.Args[0], a.config.Args[1:]
	switch cmd {
	case "signup", "register":
		return a.Signup(ctx)
	case "login":
		return a.Login(ctx)
	case "refresh":
		return a.Refresh(ctx)
	case "logout":
		return a.Logout(ctx)
	case "balance":
		return a.Balance(ctx)
	case "transactions", "tx":
		return a.Transactions(ctx, args)
	case "transcribe":
		if len(args) != 1 {
			fmt.Fprintln(a.out, "usage: transcribe FILE")
			return ErrUsage
		}
		return a.Transcribe(ctx, args[0])
	case "help":
		a.usage()
		return nil
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
		a.usage()
		return ErrUsage
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Commands: signup, login, refresh, logout, balance, transactions [N], transcribe FILE")
}
