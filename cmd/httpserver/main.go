package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moviesearch/bootstrap"
	"moviesearch/httpserver"
	"moviesearch/pkg/config"
	"moviesearch/pkg/logger"
	"moviesearch/pkg/sentry"

	sentrygo "github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

func main() {
	startup := logger.Startup(os.Stderr)

	cfg, err := config.LoadConfig()
	if err != nil {
		startup.Errorw("Cannot load config", "error", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		startup.Errorw("Cannot init logger", "error", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	err = sentrygo.Init(sentrygo.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		AttachStacktrace: true,
	})
	if err != nil {
		log.Errorw("Cannot init sentry", "error", err)
		os.Exit(1)
	}
	defer sentrygo.Flush(sentry.FlushTime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		sentry.Fatal(err)
		log.Errorw("Cannot build services", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	go sweep(ctx, services, log)

	server := httpserver.Default(cfg)
	server.Logger = log
	server.MovieService = services.Movies
	server.ListService = services.Lists

	errChan := make(chan error, 1)
	go func() {
		log.Infow("server started!", "addr", server.Addr, "storage", cfg.Storage.Driver)
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("server stopped with error", "error", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	log.Infow("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}
	log.Infow("Server exited")
}

// sweep drops expired cache entries so memory follows the working set.
func sweep(ctx context.Context, services *bootstrap.Services, log *zap.SugaredLogger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := services.Movies.Sweep(); n > 0 {
				log.Debugw("swept cache", "entries", n, "remaining", services.Movies.Len())
			}
		}
	}
}
