package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/model"
)

// SaveProducts inserts or replaces catalog products in one transaction.
func (s *SQLiteStorage) SaveProducts(ctx context.Context, products []model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProducts(products); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range products {
		if err := s.saveProductTx(ctx, tx, &products[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}

	for i := range products {
		p := products[i]
		s.cacheProduct(&p)
	}

	return nil
}

func (s *SQLiteStorage) saveProductTx(ctx context.Context, q queryable, p *model.Product) error {
	aliases, err := json.Marshal(p.Aliases)
	if err != nil {
		return fmt.Errorf("failed to encode aliases for %s: %w", p.ID, err)
	}
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return fmt.Errorf("failed to encode specs for %s: %w", p.ID, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO products (id, type, brand, model, regex, aliases, specs, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			brand = excluded.brand,
			model = excluded.model,
			regex = excluded.regex,
			aliases = excluded.aliases,
			specs = excluded.specs,
			updated_at = excluded.updated_at
	`, p.ID, string(p.Type), p.Brand, p.Model, p.Regex, string(aliases), string(specs), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", p.ID, err)
	}
	return nil
}

// GetProducts returns catalog products ordered by id, optionally filtered by type.
func (s *SQLiteStorage) GetProducts(ctx context.Context, productType *model.ProductType) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, type, brand, model, regex, aliases, specs FROM products`
	var args []any
	if productType != nil {
		query += ` WHERE type = ?`
		args = append(args, string(*productType))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	return products, rows.Err()
}

// GetProduct returns a single product, or common.ErrNotFound.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	if p := s.getCachedProduct(id); p != nil {
		return p, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, brand, model, regex, aliases, specs
		FROM products
		WHERE id = ?
	`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	s.cacheProduct(p)
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*model.Product, error) {
	var p model.Product
	var productType string
	var regex, aliases, specs sql.NullString

	if err := row.Scan(&p.ID, &productType, &p.Brand, &p.Model, &regex, &aliases, &specs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	p.Type = model.ProductType(productType)
	p.Regex = regex.String
	if aliases.Valid && aliases.String != "" && aliases.String != "null" {
		if err := json.Unmarshal([]byte(aliases.String), &p.Aliases); err != nil {
			return nil, fmt.Errorf("failed to decode aliases for %s: %w", p.ID, err)
		}
	}
	if specs.Valid && specs.String != "" && specs.String != "null" {
		if err := json.Unmarshal([]byte(specs.String), &p.Specs); err != nil {
			return nil, fmt.Errorf("failed to decode specs for %s: %w", p.ID, err)
		}
	}

	return &p, nil
}

// getCachedProduct retrieves a product from the cache.
func (s *SQLiteStorage) getCachedProduct(id string) *model.Product {
	s.cacheMutex.RLock()

	if time.Now().After(s.cacheExpiry) {
		s.cacheMutex.RUnlock()
		s.cacheMutex.Lock()
		defer s.cacheMutex.Unlock()

		// Double-check after acquiring write lock
		if time.Now().After(s.cacheExpiry) {
			s.productCache = make(map[string]*model.Product)
		}
		return nil
	}

	p := s.productCache[id]
	s.cacheMutex.RUnlock()
	return p
}

// cacheProduct adds a product to the cache.
func (s *SQLiteStorage) cacheProduct(p *model.Product) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.productCache) == 0 {
		s.cacheExpiry = time.Now().Add(5 * time.Minute)
	}
	s.productCache[p.ID] = p
}
