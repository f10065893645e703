package catalog

import (
	"testing"

	"github.com/Veraticus/sunwise/internal/model"
)

// ProductID is a strongly-typed fixture product id.
type ProductID string

// String returns the id as stored in the catalog.
func (p ProductID) String() string {
	return string(p)
}

// Fixture product ids.
const (
	PanelJinko440       ProductID = "panel-jinko-440"
	PanelQCellsDuo      ProductID = "panel-qcells-duo-415"
	InverterFroniusP5   ProductID = "inverter-fronius-primo-5"
	InverterSungrow5    ProductID = "inverter-sungrow-sg5"
	BatteryTeslaPW2     ProductID = "battery-tesla-pw2"
	BatteryBYDHVM11     ProductID = "battery-byd-hvm-11"
	BatteryAlphaSmile13 ProductID = "battery-alpha-smile-13"
)

var fixtures = map[ProductID]model.Product{
	PanelJinko440: {
		ID: PanelJinko440.String(), Type: model.ProductTypePanel,
		Brand: "Jinko", Model: "JKM440N-54HL4",
		Regex: `JKM\s?440N(?:-\w+)*`,
		Specs: map[string]string{"watts": "440"},
	},
	PanelQCellsDuo: {
		ID: PanelQCellsDuo.String(), Type: model.ProductTypePanel,
		Brand: "Q CELLS", Model: "Q.PEAK DUO ML-G10+ 415",
		Aliases: []string{"Q.PEAK DUO"},
	},
	InverterFroniusP5: {
		ID: InverterFroniusP5.String(), Type: model.ProductTypeInverter,
		Brand: "Fronius", Model: "Primo 5.0-1",
		Aliases: []string{"Primo 5.0-1"},
	},
	InverterSungrow5: {
		ID: InverterSungrow5.String(), Type: model.ProductTypeInverter,
		Brand: "Sungrow", Model: "SG5.0RS",
		Regex: `SG\s?5\.0\s?RS`,
	},
	BatteryTeslaPW2: {
		ID: BatteryTeslaPW2.String(), Type: model.ProductTypeBattery,
		Brand: "Tesla", Model: "Powerwall 2",
		Aliases: []string{"POWERWALL 2"},
		Specs:   map[string]string{"kwh": "13.5"},
	},
	BatteryBYDHVM11: {
		ID: BatteryBYDHVM11.String(), Type: model.ProductTypeBattery,
		Brand: "BYD", Model: "HVM 11.0",
	},
	BatteryAlphaSmile13: {
		ID: BatteryAlphaSmile13.String(), Type: model.ProductTypeBattery,
		Brand: "AlphaESS", Model: "SMILE-B13",
		Aliases: []string{"SMILE B13"},
	},
}

// Fixture is a named group of products.
type Fixture []ProductID

// Predefined fixtures.
var (
	// ResidentialKit is a panel, inverter and battery commonly quoted together.
	ResidentialKit = Fixture{PanelJinko440, InverterFroniusP5, BatteryTeslaPW2}
	// AllProducts is every fixture product.
	AllProducts = Fixture{
		PanelJinko440, PanelQCellsDuo,
		InverterFroniusP5, InverterSungrow5,
		BatteryTeslaPW2, BatteryBYDHVM11, BatteryAlphaSmile13,
	}
)

// Products is a collection of fixture products.
type Products []model.Product

// Find returns the product with id, or nil if it is not in the collection.
func (p Products) Find(id ProductID) *model.Product {
	for i := range p {
		if p[i].ID == id.String() {
			return &p[i]
		}
	}
	return nil
}

// MustFind returns the product with id or fails the test.
func (p Products) MustFind(t *testing.T, id ProductID) model.Product {
	t.Helper()
	product := p.Find(id)
	if product == nil {
		t.Fatalf("product %q not found in test data", id)
	}
	return *product
}

// IDs returns the product ids in order.
func (p Products) IDs() []string {
	ids := make([]string, len(p))
	for i := range p {
		ids[i] = p[i].ID
	}
	return ids
}
