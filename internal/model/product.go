// Package model defines the core data structures for the sunwise application.
package model

// ProductType is the catalog category a product belongs to.
type ProductType string

const (
	// ProductTypePanel is a solar PV module.
	ProductTypePanel ProductType = "panel"
	// ProductTypeInverter is a grid or hybrid inverter.
	ProductTypeInverter ProductType = "inverter"
	// ProductTypeBattery is a home battery.
	ProductTypeBattery ProductType = "battery"
)

// IsValid reports whether t is one of the known product types.
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypePanel, ProductTypeInverter, ProductTypeBattery:
		return true
	}
	return false
}

// Product is a catalog entry the matcher looks for in proposal text.
// Seed regex and aliases come from the catalog and are never mutated by learning.
type Product struct {
	Specs   map[string]string `json:"specs,omitempty" yaml:"specs,omitempty"`
	ID      string            `json:"id" yaml:"id"`
	Type    ProductType       `json:"type" yaml:"type"`
	Brand   string            `json:"brand" yaml:"brand"`
	Model   string            `json:"model" yaml:"model"`
	Regex   string            `json:"regex,omitempty" yaml:"regex,omitempty"`
	Aliases []string          `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// DisplayName returns "Brand Model".
func (p Product) DisplayName() string {
	if p.Brand == "" {
		return p.Model
	}
	return p.Brand + " " + p.Model
}
