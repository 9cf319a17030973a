// Package cmd provides CLI commands for recall.
//
// Commands:
//   - serve: HTTP API server for querying and managing the knowledge base
//   - ingest: one-shot document ingestion from local files
//   - ask: one-shot question answering on the command line
//
// Signal handling and graceful shutdown are implemented for all commands
// via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/yunhan0/recall/internal/log"
)

// Execute is the main entry point for the recall CLI application.
func Execute() error {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "ingest":
		return runIngest(logger)
	case "ask":
		return runAsk(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Recall - Your personal study knowledge base")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  recall serve [addr]      Start HTTP API server (default: 127.0.0.1:3400)")
	fmt.Println("  recall ingest <file>...  Ingest documents (.txt, .md, .pdf)")
	fmt.Println("  recall ask <question>    Ask a question against the knowledge base")
	fmt.Println("  recall --version         Show version information")
	fmt.Println("  recall --help            Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required for the gemini provider")
	fmt.Println("  DATABASE_URL       Optional: overrides postgres_* config settings")
	fmt.Println("  DEBUG              Optional: enable debug logging")
	fmt.Println()
	fmt.Println("Learn more: https://github.com/yunhan0/recall")
}
