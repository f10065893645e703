package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/config"
	"github.com/Veraticus/sunwise/internal/matcher"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/rebate"
	"github.com/Veraticus/sunwise/internal/service"
	"github.com/Veraticus/sunwise/internal/storage"
	"github.com/Veraticus/sunwise/internal/storage/postgres"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/viper"
)

// loadConfig returns the typed configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Invalid configuration", err)
	}
	return cfg, nil
}

// initStorage opens the configured database and runs migrations.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	var (
		store service.Storage
		err   error
	)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err = postgres.Open(cfg.Database.DSN)
	default:
		store, err = storage.NewSQLiteStorage(cfg.Database.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Database.Driver, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadCatalog returns the stored catalog, falling back to matcher.catalog_path
// when the database has no products yet.
func loadCatalog(ctx context.Context, store service.Catalog, cfg *config.Config) ([]model.Product, error) {
	products, err := store.GetProducts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(products) > 0 {
		return products, nil
	}

	if cfg.Matcher.CatalogPath != "" {
		slog.Info("Catalog is empty; using catalog file", "path", cfg.Matcher.CatalogPath)
		return storage.LoadCatalogFile(cfg.Matcher.CatalogPath)
	}

	return nil, common.NewUserError("The product catalog is empty. Run 'sunwise catalog import <catalog.yaml>' first.", common.ErrNotFound)
}

// newMatcher builds and initializes a matcher. With ephemeral set, the matcher
// starts from the stored learning state but keeps what it learns in memory.
func newMatcher(ctx context.Context, store service.LearningStore, products []model.Product, ephemeral bool) (*matcher.SmartMatcher, error) {
	if ephemeral {
		mem, err := storage.NewMemoryLearningStoreFrom(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("failed to copy learning state: %w", err)
		}
		store = mem
	}

	m := matcher.New(store, products)
	if err := m.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize matcher: %w", err)
	}
	return m, nil
}

// feedbackRecorder returns where decisions are logged, or nil for ephemeral runs.
func feedbackRecorder(store service.Storage, ephemeral bool) service.FeedbackRecorder {
	if ephemeral {
		return nil
	}
	return store
}

// newCalculator builds a rebate calculator from the configured tables.
func newCalculator(cfg *config.Config) (*rebate.Calculator, error) {
	tables := rebate.DefaultTables()
	if cfg.Rebates.TablesPath != "" {
		loaded, err := rebate.LoadTables(cfg.Rebates.TablesPath)
		if err != nil {
			return nil, common.NewUserError("Could not load rebate tables", err)
		}
		tables = loaded
	}
	return rebate.NewCalculator(tables, rebate.WithValidityWindows(cfg.Rebates.EnforceValidityWindows)), nil
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[yellow][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func advance(bar *progressbar.ProgressBar) {
	if err := bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
