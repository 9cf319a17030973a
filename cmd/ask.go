package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yunhan0/recall/internal/app"
	"github.com/yunhan0/recall/internal/config"
	"github.com/yunhan0/recall/internal/log"
)

// runAsk answers a single question and prints the result.
func runAsk(logger log.Logger) error {
	query := strings.TrimSpace(strings.Join(os.Args[2:], " "))
	if query == "" {
		return fmt.Errorf("usage: recall ask <question>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	result, err := a.Agent.HandleQuery(ctx, query, cfg.TopK)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Citations) > 0 {
		fmt.Printf("\n(grounded on %d passages)\n", len(result.Citations))
	}
	if result.QuizID != nil {
		fmt.Printf("quiz session created: %s\n", *result.QuizID)
	}

	return nil
}
