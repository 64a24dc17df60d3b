package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/quillhq/kbsearch/internal/app"
	"github.com/quillhq/kbsearch/internal/config"
	"github.com/quillhq/kbsearch/internal/log"
)

// runIndex runs the batch indexing job over all documents. A file lock
// ensures only one run at a time; a second invocation fails fast instead of
// racing the first over the same chunk rows.
func runIndex(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	lock, err := acquireIndexLock()
	if err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("releasing index lock", "error", unlockErr)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting indexing run", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	summary, err := a.Indexer.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing run failed: %w", err)
	}

	fmt.Printf("Indexing complete in %s\n", summary.Duration.Round(time.Millisecond))
	fmt.Printf("  Documents processed: %d\n", summary.DocumentsProcessed)
	fmt.Printf("  Chunks indexed:      %d\n", summary.ChunksIndexed)
	fmt.Printf("  Documents skipped:   %d\n", summary.DocumentsSkipped)
	if len(summary.SkippedIDs) > 0 {
		fmt.Printf("  Skipped ids:         %s\n", strings.Join(summary.SkippedIDs, ", "))
	}
	return nil
}

// acquireIndexLock takes the single-flight lock for indexing runs.
func acquireIndexLock() (*flock.Flock, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	lockDir := filepath.Join(home, ".kbsearch")
	if err := os.MkdirAll(lockDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(filepath.Join(lockDir, "index.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring index lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another indexing run is in progress (lock: %s)", lock.Path())
	}
	return lock, nil
}
