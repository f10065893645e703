package catalog

import (
	"testing"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	products := NewBuilder(t).
		WithResidentialKit().
		WithProduct(BatteryBYDHVM11).
		WithProduct(PanelJinko440).
		WithCustom(model.Product{ID: "panel-custom", Type: model.ProductTypePanel, Brand: "Acme", Model: "A1"}).
		Build()

	assert.Equal(t, []string{
		"panel-jinko-440",
		"inverter-fronius-primo-5",
		"battery-tesla-pw2",
		"battery-byd-hvm-11",
		"panel-custom",
	}, products.IDs(), "duplicates are ignored and order is kept")

	tesla := products.MustFind(t, BatteryTeslaPW2)
	assert.Equal(t, "Tesla Powerwall 2", tesla.DisplayName())
	assert.Nil(t, products.Find(PanelQCellsDuo))
}

func TestBuilder_ReturnsCopies(t *testing.T) {
	first := NewBuilder(t).WithProduct(BatteryTeslaPW2).Build()
	first[0].Aliases[0] = "CHANGED"
	first[0].Specs["kwh"] = "0"

	second := NewBuilder(t).WithProduct(BatteryTeslaPW2).Build()
	assert.Equal(t, []string{"POWERWALL 2"}, second[0].Aliases)
	assert.Equal(t, "13.5", second[0].Specs["kwh"])
}

func TestFixtures_AreValid(t *testing.T) {
	products := NewBuilder(t).WithFixture(AllProducts).Build()
	require.Len(t, products, len(AllProducts))
	for _, p := range products {
		assert.True(t, p.Type.IsValid(), p.ID)
		assert.NotEmpty(t, p.Brand, p.ID)
		assert.NotEmpty(t, p.Model, p.ID)
	}
}
