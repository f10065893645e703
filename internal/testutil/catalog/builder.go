package catalog

import (
	"testing"

	"github.com/Veraticus/sunwise/internal/model"
)

// Builder provides a fluent interface for assembling test catalogs.
type Builder interface {
	// WithProduct adds a single fixture product.
	WithProduct(id ProductID) Builder

	// WithProducts adds several fixture products.
	WithProducts(ids ...ProductID) Builder

	// WithResidentialKit adds the panel, inverter and battery of a typical quote.
	WithResidentialKit() Builder

	// WithFixture adds every product of a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// WithCustom adds a product that is not a fixture.
	WithCustom(p model.Product) Builder

	// Build returns deep copies of the products in insertion order.
	Build() Products
}

type catalogBuilder struct {
	t     *testing.T
	seen  map[string]struct{}
	items []model.Product
}

// NewBuilder creates a catalog builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &catalogBuilder{t: t, seen: make(map[string]struct{})}
}

func (b *catalogBuilder) WithProduct(id ProductID) Builder {
	b.t.Helper()
	p, ok := fixtures[id]
	if !ok {
		b.t.Fatalf("unknown fixture product %q", id)
	}
	return b.WithCustom(p)
}

func (b *catalogBuilder) WithProducts(ids ...ProductID) Builder {
	b.t.Helper()
	for _, id := range ids {
		b.WithProduct(id)
	}
	return b
}

func (b *catalogBuilder) WithResidentialKit() Builder {
	b.t.Helper()
	return b.WithFixture(ResidentialKit)
}

func (b *catalogBuilder) WithFixture(fixture Fixture) Builder {
	b.t.Helper()
	return b.WithProducts(fixture...)
}

func (b *catalogBuilder) WithCustom(p model.Product) Builder {
	b.t.Helper()
	if p.ID == "" {
		b.t.Fatal("custom product must have an id")
	}
	if _, dup := b.seen[p.ID]; dup {
		return b
	}
	b.seen[p.ID] = struct{}{}
	b.items = append(b.items, p)
	return b
}

func (b *catalogBuilder) Build() Products {
	out := make(Products, len(b.items))
	for i, p := range b.items {
		c := p
		c.Aliases = append([]string(nil), p.Aliases...)
		if p.Specs != nil {
			c.Specs = make(map[string]string, len(p.Specs))
			for k, v := range p.Specs {
				c.Specs[k] = v
			}
		}
		out[i] = c
	}
	return out
}
