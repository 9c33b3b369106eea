// Command sweep reconciles the object store with the key photo records.
//
// Legacy blobs stored before per-user prefixes were introduced are moved
// to users/{username}/keyphotos/{filename}, and with --orphans it reports
// blobs no record references (for example after a failed upload whose
// record write did not complete, or a hard-deleted record).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/testguru/timelines/internal/config"
	"github.com/testguru/timelines/internal/db"
	"github.com/testguru/timelines/internal/logger"
	"github.com/testguru/timelines/internal/repository"
	"github.com/testguru/timelines/internal/storage"
)

var (
	dryRun  bool
	orphans bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "sweep",
		Short:        "Reconcile key photo blobs with their records",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without doing it")
	rootCmd.Flags().BoolVar(&orphans, "orphans", false, "report blobs referenced by no record")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	photoRepo := repository.NewKeyPhotoRepository(database)
	photos, err := photoRepo.AllWithOwner()
	if err != nil {
		return fmt.Errorf("failed to list key photos: %w", err)
	}

	slog.Info("sweep starting", "records", len(photos), "dry_run", dryRun)

	moved := 0
	errored := 0
	for _, photo := range photos {
		// Already in the canonical structure
		if strings.HasPrefix(photo.StoragePath, "users/") {
			continue
		}

		oldPath := photo.StoragePath
		newPath := fmt.Sprintf("users/%s/keyphotos/%s", photo.Username, photo.Filename)

		if dryRun {
			slog.Info("would move blob", "from", oldPath, "to", newPath)
			moved++
			continue
		}

		exists, err := store.Exists(oldPath)
		if err != nil || !exists {
			slog.Error("source blob not found, skipping", "path", oldPath, "photo_id", photo.ID)
			errored++
			continue
		}

		err = store.Copy(oldPath, newPath)
		if err != nil {
			slog.Error("failed to copy blob", "error", err, "from", oldPath, "to", newPath)
			errored++
			continue
		}

		err = store.Delete(oldPath)
		if err != nil {
			slog.Error("failed to delete old blob", "error", err, "path", oldPath)
			errored++
			continue
		}

		err = photoRepo.UpdateStoragePath(photo.ID, newPath, time.Now())
		if err != nil {
			slog.Error("failed to update record", "error", err, "photo_id", photo.ID)
			errored++
			continue
		}

		slog.Info("moved blob", "from", oldPath, "to", newPath)
		moved++
	}

	if orphans {
		err = reportOrphans(store, photos)
		if err != nil {
			return err
		}
	}

	slog.Info("sweep complete", "moved", moved, "errors", errored, "dry_run", dryRun)
	return nil
}

// reportOrphans lists blobs under the users/ prefix that no record
// references. They are reported, never deleted: resolving an orphan is an
// operator decision.
func reportOrphans(store *storage.S3Storage, photos []*repository.KeyPhotoWithOwner) error {
	referenced := make(map[string]bool, len(photos))
	for _, photo := range photos {
		referenced[photo.StoragePath] = true
	}

	keys, err := store.ListKeys("users/")
	if err != nil {
		return fmt.Errorf("failed to list blobs: %w", err)
	}

	count := 0
	for _, key := range keys {
		if !referenced[key] {
			slog.Warn("orphaned blob", "path", key)
			count++
		}
	}

	slog.Info("orphan report complete", "orphans", count, "blobs", len(keys))
	return nil
}
