package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/yunhan0/recall/api"
	"github.com/yunhan0/recall/internal/app"
	"github.com/yunhan0/recall/internal/config"
	"github.com/yunhan0/recall/internal/log"
)

// runServe initializes and starts the HTTP API server.
func runServe(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	defaultAddr := cfg.ServerAddr
	if defaultAddr == "" {
		defaultAddr = api.DefaultAddr
	}
	addr, err := parseServeAddr(defaultAddr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting recall server", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	srv := api.NewServer(api.Deps{
		Pool:      a.Pool,
		Agent:     a.Agent,
		Pipeline:  a.Pipeline,
		Documents: a.Store,
		Entries:   a.Store,
		Quizzes:   a.Store,
		Generator: a.Quizzes,
		Logger:    logger,
	})

	logger.Info("HTTP server ready",
		"addr", addr,
		"api", "/agent/*, /quiz/*",
		"health", "/health, /ready",
	)

	return srv.Run(ctx, addr)
}
