// Package cmd contains the CLI entry points: the API server, the
// website ingester and version/help output.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getdukka/chatseller-api-sub001/internal/config"
	"github.com/getdukka/chatseller-api-sub001/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.1.0"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute routes to the requested command. Designed to be called from
// main() and testable in unit tests.
func Execute() error {
	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "version", "--version", "-v":
		return printVersionInfo()
	case "help", "--help", "-h":
		printHelp()
		return nil
	}

	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := context.Background()
	switch command {
	case "serve":
		if err := checkRequiredEnv(); err != nil {
			return err
		}
		return runServe(ctx, cfg, logger)
	case "ingest":
		return runIngest(ctx, cfg, logger, args)
	case "migrate":
		return runMigrate(cfg, logger)
	default:
		printHelp()
		return fmt.Errorf("unknown command %q", command)
	}
}

// initLogger builds the process logger. DEBUG enables debug level;
// LOG_JSON switches to JSON output for log shippers.
func initLogger() log.Logger {
	return log.New(log.Config{
		Level:     logLevel(),
		JSON:      os.Getenv("LOG_JSON") != "",
		AddSource: false,
	})
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// checkRequiredEnv verifies the primary provider credential is present.
// The secondary provider is optional; without OPENAI_API_KEY the chain
// simply has one backend.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "The conversation engine needs a Gemini API key for its primary model.")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get a key at: https://ai.google.dev/")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}

func printVersionInfo() error {
	fmt.Printf("chatseller v%s\n", AppVersion)
	fmt.Printf("Build: %s\n", BuildTime)
	fmt.Printf("Commit: %s\n", GitCommit)
	return nil
}

func printHelp() {
	fmt.Println("chatseller - conversational sales agent API")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  chatseller serve                      Start the HTTP API (default)")
	fmt.Println("  chatseller ingest -shop ID -site URL  Crawl a merchant site into the knowledge base")
	fmt.Println("  chatseller migrate                    Apply pending database migrations")
	fmt.Println("  chatseller version                    Show version information")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY   Required for serve: primary model credential")
	fmt.Println("  OPENAI_API_KEY   Optional: enables the fallback model")
	fmt.Println("  DATABASE_URL     Optional: overrides the configured PostgreSQL settings")
	fmt.Println("  DEBUG            Optional: debug logging")
	fmt.Println("  LOG_JSON         Optional: JSON log output")
}
