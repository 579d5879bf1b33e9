package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"moviesearch/bootstrap"
	"moviesearch/pkg/config"
	"moviesearch/pkg/logger"
)

func main() {
	term := flag.String("term", "", "first search term, a popular one when empty")
	flag.Parse()

	startup := logger.Startup(os.Stderr)

	cfg, err := config.LoadConfig()
	if err != nil {
		startup.Errorw("Cannot load config", "error", err)
		os.Exit(1)
	}

	// The terminal is the UI, so logs stay quiet unless APP_ENV asks otherwise.
	log := logger.NOOPLogger
	if cfg.AppEnv != "" && cfg.AppEnv != "local" {
		if log, err = logger.New(cfg.AppEnv); err != nil {
			startup.Errorw("Cannot init logger", "error", err)
			os.Exit(1)
		}
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		startup.Errorw("Cannot build services", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	a := newApp(services.Movies, services.Lists, os.Stdout, appOptions{
		Debounce: cfg.Search.Debounce,
		Logger:   log,
	})
	defer a.Close()

	go func() {
		<-ctx.Done()
		os.Stdin.Close()
	}()

	if err := a.Run(ctx, os.Stdin, *term); err != nil {
		startup.Errorw("terminal client stopped", "error", err)
		os.Exit(1)
	}
}
