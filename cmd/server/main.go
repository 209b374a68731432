package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"relay/config"
	"relay/infrastructure"
	"relay/internal/chat"
	"relay/internal/database"
	"relay/internal/user/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	healthInterval  = 30 * time.Second
	pruneInterval   = time.Minute
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("relay stopped")
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log, err := infrastructure.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("close database")
		}
	}()
	if err := db.Migrate(ctx, storage.Schema, &chat.Message{}); err != nil {
		return err
	}

	app, cleanup, err := initializeApp(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer cleanup()

	return serve(ctx, cfg, app, log)
}

func openDatabase(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*database.Database, error) {
	if cfg.Storage == config.StorageMemory {
		return database.OpenSQLite(cfg.SQLitePath, log)
	}
	return database.OpenPostgres(ctx, cfg.DatabaseURL, log)
}

func serve(ctx context.Context, cfg *config.Config, app *App, log logrus.FieldLogger) error {
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.GRPCAddr)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- errors.Wrap(err, "http server")
		}
	}()
	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("grpc health server listening")
		if err := app.Health.GRPC().Serve(lis); err != nil {
			errs <- errors.Wrap(err, "grpc server")
		}
	}()
	go app.Health.Watch(ctx, healthInterval)
	go pruneLimiter(ctx, app)

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveErr = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.Registry.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	app.Health.Shutdown()
	return serveErr
}

func pruneLimiter(ctx context.Context, app *App) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.Server.Limiter().Prune()
		}
	}
}
