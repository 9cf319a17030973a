package cmd

import (
	"fmt"
	"os"

	"github.com/yunhan0/recall/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

func runVersion() {
	fmt.Printf("Recall %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	// Config display is best-effort; version must work without a database.
	cfg, err := config.Load()
	if err == nil {
		fmt.Println("Configuration:")
		fmt.Printf("  Provider: %s\n", cfg.Provider)
		fmt.Printf("  Model: %s\n", cfg.ModelName)
		fmt.Printf("  Embedder: %s (%d dims)\n", cfg.EmbedderModel, cfg.EmbedderDimension)
		fmt.Printf("  Temperature: %.2f\n", cfg.Temperature)
		fmt.Printf("  Max tokens: %d\n", cfg.MaxTokens)
	}

	fmt.Printf("  GEMINI_API_KEY: %s\n", describeAPIKey(os.Getenv("GEMINI_API_KEY")))
}

// describeAPIKey returns a display string that never reveals the full key.
func describeAPIKey(key string) string {
	switch {
	case key == "":
		return "Not set"
	case len(key) < 8:
		return "configured"
	default:
		return fmt.Sprintf("%s...%s (configured)", key[:4], key[len(key)-4:])
	}
}
