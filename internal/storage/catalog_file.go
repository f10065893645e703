package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/sunwise/internal/model"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout for catalog imports.
type catalogFile struct {
	Products []model.Product `yaml:"products"`
}

// LoadCatalogFile reads and validates a YAML product catalog.
func LoadCatalogFile(path string) ([]model.Product, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line or configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	products, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	slog.Debug("Loaded catalog file", "path", path, "products", len(products))
	return products, nil
}

// ReadCatalog decodes a `products:` list, normalizing ids and types.
func ReadCatalog(r io.Reader) ([]model.Product, error) {
	var doc catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: products", ErrEmptySlice)
		}
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	if len(doc.Products) == 0 {
		return nil, fmt.Errorf("%w: products", ErrEmptySlice)
	}

	for i := range doc.Products {
		p := &doc.Products[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Type = model.ProductType(strings.ToLower(strings.TrimSpace(string(p.Type))))
	}

	if err := validateProducts(doc.Products); err != nil {
		return nil, err
	}
	return doc.Products, nil
}
