package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/getdukka/chatseller-api-sub001/db"
	"github.com/getdukka/chatseller-api-sub001/internal/config"
	"github.com/getdukka/chatseller-api-sub001/internal/ingest"
	"github.com/getdukka/chatseller-api-sub001/internal/knowledge"
	"github.com/getdukka/chatseller-api-sub001/internal/log"
)

// runIngest crawls a merchant site into the knowledge base. A file lock
// serializes runs: two crawls upserting the same shop at once would
// interleave partial snapshots.
func runIngest(ctx context.Context, cfg *config.Config, logger log.Logger, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	shopFlag := fs.String("shop", "", "shop UUID to attach documents to")
	siteFlag := fs.String("site", "", "root URL of the merchant website")
	if err := fs.Parse(args); err != nil {
		return err
	}

	shopID, err := uuid.Parse(*shopFlag)
	if err != nil {
		return fmt.Errorf("invalid -shop value %q: %w", *shopFlag, err)
	}
	if *siteFlag == "" {
		return fmt.Errorf("-site is required")
	}

	lock, err := acquireIngestLock()
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release ingest lock", "error", err)
		}
	}()

	if err := db.Migrate(cfg.ConnString(), logger); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return fmt.Errorf("creating connection pool: %w", err)
	}
	defer pool.Close()

	ing := ingest.New(knowledge.NewStore(pool, logger), ingest.Config{
		MaxPages:    cfg.Ingest.MaxPages,
		MaxDepth:    cfg.Ingest.MaxDepth,
		Parallelism: cfg.Ingest.Parallelism,
		Delay:       time.Duration(cfg.Ingest.DelayMS) * time.Millisecond,
	}, logger)

	stored, err := ing.Run(ctx, shopID, *siteFlag)
	if err != nil {
		return fmt.Errorf("crawling %s: %w", *siteFlag, err)
	}

	fmt.Printf("Ingested %d documents for shop %s\n", stored, shopID)
	return nil
}

// acquireIngestLock takes the cross-process ingest lock, failing fast
// when another run holds it.
func acquireIngestLock() (*flock.Flock, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".chatseller")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "ingest.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another ingest run is in progress")
	}
	return lock, nil
}

// runMigrate applies pending migrations and exits.
func runMigrate(cfg *config.Config, logger log.Logger) error {
	if err := db.Migrate(cfg.ConnString(), logger); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	fmt.Println("Migrations applied")
	return nil
}
