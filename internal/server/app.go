// Package server initializes and runs the gateway: it opens the database,
// applies migrations, wires the services and serves the public HTTP API
// next to the gRPC health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/config"
	"github.com/dmitrijs2005/voicegate/internal/server/http/handler"
	"github.com/dmitrijs2005/voicegate/internal/server/http/middleware"
	"github.com/dmitrijs2005/voicegate/internal/server/metrics"
	"github.com/dmitrijs2005/voicegate/internal/server/probe"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/voicegate/internal/server/services"
	"github.com/dmitrijs2005/voicegate/internal/server/transcription"
	"github.com/dmitrijs2005/voicegate/internal/server/uploads"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/voicegate/internal/server/grpc"
	httpapi "github.com/dmitrijs2005/voicegate/internal/server/http"
)

const (
	migrationTimeout = time.Minute
	shutdownTimeout  = 15 * time.Second
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *http.Server
	grpcServer *gs.GRPCServer
}

// NewApp opens the database, migrates it and wires every component.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := NewLogger(c.LogBackend)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	mctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()
	if err := rm.RunMigrations(mctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := NewUploadStore(ctx, c)
	if err != nil {
		db.Close()
		return nil, err
	}

	engine, err := transcription.NewClient(transcription.Config{
		Endpoint: c.TranscriptionURL,
		Timeout:  c.TranscriptionTimeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("transcription client: %w", err)
	}

	mt := metrics.NewMetrics()
	tokens := services.NewTokenService(db, rm, c, logger, mt)
	users := services.NewUserService(db, rm, tokens, c, logger)
	billing := services.NewBillingService(db, rm, logger, mt)
	pipeline := services.NewPipeline(tokens, NewProbe(c), billing, engine, logger, mt)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:        handler.NewAuthHandler(users, tokens, logger),
		Voice:       handler.NewVoiceHandler(store, pipeline, c.MaxUploadBytes, logger),
		Billing:     handler.NewBillingHandler(billing),
		Verifier:    tokens,
		RateLimiter: middleware.NewRateLimiter(c.AuthRateLimitPerMinute),
		Metrics:     mt,
		Logger:      logger,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		httpServer: &http.Server{
			Addr:              c.EndpointAddrHTTP,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db),
	}, nil
}

// NewLogger returns the slog (JSON on stdout) or zap production logger.
func NewLogger(backend string) (logging.Logger, error) {
	switch backend {
	case "", config.LogBackendSlog:
		return logging.NewJSONLogger(os.Stdout), nil
	case config.LogBackendZap:
		z, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("zap init: %w", err)
		}
		return logging.NewZapLogger(z), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// NewProbe builds the duration probe selected by ProbeBackend.
func NewProbe(c *config.Config) probe.Probe {
	ff := probe.NewFFProbe(c.FFProbePath, c.ProbeTimeout)
	switch c.ProbeBackend {
	case config.ProbeBackendWAV:
		return probe.NewChain(probe.NewWAVProbe())
	case config.ProbeBackendFFProbe:
		return probe.NewChain(ff)
	default:
		return probe.NewChain(probe.NewWAVProbe(), ff)
	}
}

// NewUploadStore builds the staging store selected by UploadBackend.
func NewUploadStore(ctx context.Context, c *config.Config) (uploads.Store, error) {
	switch c.UploadBackend {
	case "", config.UploadBackendLocal:
		s, err := uploads.NewLocalStore(c.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("upload dir: %w", err)
		}
		return s, nil
	case config.UploadBackendS3:
		s, err := uploads.NewS3Store(ctx, uploads.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", c.UploadBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled or a signal arrives. If
// either server fails the other one is stopped too.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info(gctx, "Starting HTTP server", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(gctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return app.httpServer.Shutdown(sctx)
	})

	g.Go(func() error {
		if err := app.grpcServer.Run(gctx); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close", "error", cerr)
	}
	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
