package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/Veraticus/sunwise/internal/storage/postgres"
)

// PostgresDSNEnv names the variable holding the DSN of a disposable test database.
const PostgresDSNEnv = "SUNWISE_TEST_DSN"

// OpenPostgresTestDB connects to the database in SUNWISE_TEST_DSN, migrates it and
// empties every table. The test is skipped when the variable is unset.
func OpenPostgresTestDB(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping postgres integration test", PostgresDSNEnv)
	}

	store, err := postgres.Open(dsn)
	if err != nil {
		t.Fatalf("failed to open postgres test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate postgres test database: %v", err)
	}
	if err := store.DB.Exec("TRUNCATE products, learning_state, feedback_events").Error; err != nil {
		t.Fatalf("failed to reset postgres test database: %v", err)
	}
	return store
}
