// Package backoff retries outbound calls with bounded exponential backoff.
//
// Embedding, language-model, and index calls cross a process boundary and can
// fail transiently (timeouts, rate limits, 5xx). Those calls are retried a
// bounded number of times and treated as terminal failures afterwards.
package backoff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yunhan0/recall/internal/log"
)

// Config configures retry behavior for upstream calls.
type Config struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultConfig returns sensible defaults for LLM and embedding API calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Retryable determines if an error should trigger a retry.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Rate limit errors - always retry
	if containsAny(errStr, "rate limit", "quota exceeded", "429") {
		return true
	}

	// Transient server errors - retry
	if containsAny(errStr, "500", "502", "503", "504", "unavailable") {
		return true
	}

	// Network errors - retry
	if containsAny(errStr, "connection reset", "timeout", "temporary") {
		return true
	}

	return false
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// Do executes fn with exponential backoff retry on retryable errors.
// Non-retryable errors fail immediately. The context is honored between
// attempts, so a cancelled caller never waits out a backoff sleep.
func Do(ctx context.Context, cfg Config, logger log.Logger, op string, fn func(context.Context) error) error {
	var lastErr error
	delay := cfg.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Debug("upstream call succeeded after retry",
					"op", op,
					"attempts", attempt+1,
					"elapsed", time.Since(start),
				)
			}
			return nil
		}

		lastErr = err

		if !Retryable(err) {
			return fmt.Errorf("%s: %w", op, err)
		}

		if attempt == cfg.MaxRetries {
			break
		}

		logger.Debug("retrying after error",
			"op", op,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, cfg.MaxInterval)
		}
	}

	return fmt.Errorf("%s after %d retries (elapsed: %v): %w",
		op, cfg.MaxRetries, time.Since(start), lastErr)
}
