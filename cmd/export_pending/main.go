package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"chengdumed/internal/config"
	"chengdumed/internal/database"
	"chengdumed/internal/export"
	"chengdumed/internal/logging"
	"chengdumed/internal/services"
)

// export_pending appends every stored inquiry that has not reached the CSV
// export log yet, then exits. Entries are claimed in the store, so it is safe
// to run next to a live server after fixing a broken export path.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(&cfg.Log, cfg.App.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, log)
	_ = log.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	db, err := database.Open(&cfg.Database, log.Named("db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			log.Errorf("Error closing database: %v", closeErr)
		}
	}()

	ctx := context.Background()
	store := database.NewInquiryStore(db)
	if err := store.Initialize(ctx); err != nil {
		return err
	}

	exportLog := export.NewLog(cfg.Export.Path)
	if err := exportLog.Initialize(); err != nil {
		return err
	}

	pending, err := store.CountPendingExports(ctx)
	if err != nil {
		return err
	}
	if pending == 0 {
		fmt.Println("No pending exports.")
		return nil
	}

	exporter := services.NewExporter(store, exportLog, log.Named("exporter"))
	n, err := exporter.Flush(ctx)
	if err != nil {
		return fmt.Errorf("export stopped after %d of %d inquiries: %w", n, pending, err)
	}

	fmt.Printf("Exported %d inquiries to %s\n", n, exportLog.Path())
	return nil
}
