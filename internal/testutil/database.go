// Package testutil provides shared test fixtures: a migrated SQLite database
// seeded with a product catalog.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/storage"
	"github.com/Veraticus/sunwise/internal/testutil/catalog"
)

// TestDB is a migrated test database and the products seeded into it.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	Products catalog.Products
	Path     string
}

// SetupTestDB creates a migrated database in a temp dir seeded with products.
// The database is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, catalog.NewBuilder(t).WithResidentialKit().Build())
func SetupTestDB(t *testing.T, products catalog.Products) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sunwise.db")
	store := OpenTestDB(t, path)

	if len(products) > 0 {
		if err := store.SaveProducts(context.Background(), products); err != nil {
			t.Fatalf("failed to seed catalog: %v", err)
		}
	}

	return &TestDB{
		Storage:  store,
		Products: products,
		Path:     path,
		t:        t,
	}
}

// SetupTestDBWithBuilder builds the catalog and seeds a new database with it.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b catalog.Builder) catalog.Builder {
//		return b.WithResidentialKit().WithProduct(catalog.BatteryBYDHVM11)
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(catalog.Builder) catalog.Builder) *TestDB {
	t.Helper()

	builder := catalog.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}
	return SetupTestDB(t, builder.Build())
}

// OpenTestDB opens and migrates the database at path, closing it on cleanup.
// Opening the same path twice simulates a process restart.
func OpenTestDB(t *testing.T, path string) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustGetProduct returns the seeded product with id or fails the test.
func (db *TestDB) MustGetProduct(id catalog.ProductID) model.Product {
	db.t.Helper()
	return db.Products.MustFind(db.t, id)
}
