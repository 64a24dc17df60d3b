// Package cmd provides the kbsearch CLI commands.
//
// Commands:
//   - serve: HTTP search API server
//   - index: batch indexing job over all documents
//
// Signal handling and graceful shutdown are implemented for both commands
// via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/quillhq/kbsearch/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point for the kbsearch CLI.
func Execute() error {
	logger := initLogger()

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "index":
		return runIndex(logger)
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

// initLogger builds the process logger. DEBUG in the environment enables
// debug-level output. Logs go to stderr; stdout is reserved for command
// output such as the index summary.
func initLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, cfg)
}

// checkRequiredEnv verifies the environment variables both commands need.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "kbsearch requires a Gemini API key for embeddings.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")

		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}

// runVersion displays version information.
func runVersion() {
	fmt.Printf("kbsearch %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("kbsearch - semantic search over the knowledge base")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  kbsearch serve [addr]  Start the search API server (default: 127.0.0.1:3500)")
	fmt.Println("  kbsearch index         Segment, embed, and index all documents")
	fmt.Println("  kbsearch --version     Show version information")
	fmt.Println("  kbsearch --help        Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key for embeddings")
	fmt.Println("  DATABASE_URL       Optional: overrides postgres_* config settings")
	fmt.Println("  DEBUG              Optional: enable debug logging")
}
