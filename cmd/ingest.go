package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/yunhan0/recall/internal/app"
	"github.com/yunhan0/recall/internal/config"
	"github.com/yunhan0/recall/internal/log"
)

// runIngest reads the given files and pushes them through the ingestion
// pipeline. Each file becomes one document; re-ingesting a filename
// replaces the previous version.
func runIngest(logger log.Logger) error {
	paths := os.Args[2:]
	if len(paths) == 0 {
		return fmt.Errorf("usage: recall ingest <file>...")
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

	for _, path := range paths {
		data, err := os.ReadFile(path) // #nosec G304 -- user-supplied path is the point of the command
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		doc, err := a.Pipeline.Ingest(ctx, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		fmt.Printf("ingested %s: document %s (%d chunks)\n", path, doc.ID, doc.ChunkCount)
	}

	return nil
}
