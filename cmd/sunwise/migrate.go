package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/sunwise/internal/cli"
	"github.com/Veraticus/sunwise/internal/config"
	"github.com/Veraticus/sunwise/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

SQLite databases are versioned with PRAGMA user_version; Postgres tables are
created or altered to match the current models.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Database.Driver == config.DriverSQLite {
		store, err := storage.NewSQLiteStorage(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = store.Close() }()

		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		if status {
			_, err = fmt.Fprintf(out, "Database: %s\nCurrent version: %d\nLatest version: %d\n",
				cfg.Database.Path, current, storage.ExpectedSchemaVersion)
			return err
		}

		slog.Info("Running database migrations", "database", cfg.Database.Path, "from_version", current)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", storage.ExpectedSchemaVersion)))
		return err
	}

	if status {
		_, err = fmt.Fprintln(out, cli.FormatInfo("Postgres schemas are managed by auto-migration and carry no version"))
		return err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	_, err = fmt.Fprintln(out, cli.FormatSuccess("Postgres schema is up to date"))
	return err
}
