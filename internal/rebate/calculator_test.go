package rebate

import (
	"testing"
	"time"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalculateSolarRebates_MelbourneScenario(t *testing.T) {
	r := CalculateSolarRebates(model.CalculatorInputs{
		InstallDate: day("2025-01-15"),
		Postcode:    "3000",
		PVDCSizeKW:  6.6,
		STCPriceAUD: 38,
	})

	assert.Empty(t, r.Error)
	assert.Empty(t, r.Warning)
	assert.Equal(t, "VIC", r.State)
	assert.Equal(t, 4, r.Zone)
	assert.Equal(t, 6, r.DeemingYears)
	assert.Equal(t, 60, r.STCs)
	assert.InDelta(t, 2280.0, r.STCValueAUD, 1e-9)
	assert.Zero(t, r.BatteryRebateAUD)
	assert.Zero(t, r.VPPIncentiveAUD)
	assert.InDelta(t, 2280.0, r.TotalRebateAUD, 1e-9)
}

func TestCalculateSolarRebates_FloorsCertificates(t *testing.T) {
	// 6.6 x 1.382 x 6 = 54.7272
	r := CalculateSolarRebates(model.CalculatorInputs{
		InstallDate: day("2025-06-01"),
		Postcode:    "2000",
		PVDCSizeKW:  6.6,
		STCPriceAUD: 40,
	})

	assert.Equal(t, 3, r.Zone)
	assert.Equal(t, 54, r.STCs)
	assert.InDelta(t, 2160.0, r.STCValueAUD, 1e-9)
}

func TestCalculateSolarRebates_InvalidPVSize(t *testing.T) {
	for _, kw := range []float64{0, -1, -0.01} {
		r := CalculateSolarRebates(model.CalculatorInputs{
			InstallDate:        day("2025-01-15"),
			Postcode:           "2000",
			PVDCSizeKW:         kw,
			STCPriceAUD:        38,
			BatteryCapacityKWh: 10,
			VPPProvider:        "agl",
		})

		assert.Equal(t, ErrMsgInvalidPVSize, r.Error)
		assert.Zero(t, r.STCs)
		assert.Zero(t, r.STCValueAUD)
		assert.Zero(t, r.BatteryRebateAUD)
		assert.Zero(t, r.VPPIncentiveAUD)
		assert.Zero(t, r.TotalRebateAUD)
		assert.Equal(t, kw, r.PVDCSizeKW, "inputs are mirrored")
	}
}

func TestCalculateSolarRebates_PostcodeFallback(t *testing.T) {
	tables := DefaultTables()
	tables.PostcodeZones = map[string]int{"3000": 4}
	c := NewCalculator(tables)

	r := c.CalculateSolarRebates(model.CalculatorInputs{
		InstallDate: day("2025-01-15"),
		Postcode:    "9999",
		PVDCSizeKW:  5,
		STCPriceAUD: 38,
	})

	assert.Equal(t, "NSW", r.State)
	assert.Equal(t, 3, r.Zone)
	assert.Equal(t, ZoneFallbackWarning, r.Warning)
}

func TestCalculateSolarRebates_UnmappedState(t *testing.T) {
	tables := DefaultTables()
	tables.PostcodeZones = map[string]int{}
	tables.StateDefaultZones = map[string]int{"VIC": 4}
	c := NewCalculator(tables)

	r := c.CalculateSolarRebates(model.CalculatorInputs{
		InstallDate: day("2025-01-15"),
		Postcode:    "6000",
		PVDCSizeKW:  5,
		STCPriceAUD: 38,
	})

	assert.Equal(t, "WA", r.State)
	assert.Equal(t, DefaultZone, r.Zone)
	assert.NotEmpty(t, r.Warning)
}

func TestCalculateSolarRebates_DeemingCutoff(t *testing.T) {
	r := CalculateSolarRebates(model.CalculatorInputs{
		InstallDate: day("2031-06-01"),
		Postcode:    "3000",
		PVDCSizeKW:  10,
		STCPriceAUD: 38,
	})

	assert.Zero(t, r.DeemingYears)
	assert.Zero(t, r.STCs)
	assert.Zero(t, r.STCValueAUD)
}

func TestCalculateSolarRebates_STCMonotonic(t *testing.T) {
	prev := -1.0
	for kw := 0.5; kw <= 20; kw += 0.37 {
		r := CalculateSolarRebates(model.CalculatorInputs{
			InstallDate: day("2026-03-01"),
			Postcode:    "4000",
			PVDCSizeKW:  kw,
			STCPriceAUD: 37.5,
		})
		require.GreaterOrEqual(t, r.STCValueAUD, prev, "kw=%v", kw)
		prev = r.STCValueAUD
	}
}

func perKWhTables() *Tables {
	tables := DefaultTables()
	tables.BatteryRebates = map[string]model.BatteryRebateRule{
		"nsw": {
			Type:        model.BatteryRebatePerKWh,
			Amount:      115.5,
			MinKWh:      ptr(5.0),
			MaxKWhCap:   ptr(20.0),
			ProgramName: "Test Per kWh",
		},
		"wa": {
			Type:        model.BatteryRebateFlat,
			Amount:      1300,
			ProgramName: "Test Flat",
		},
	}
	return tables
}

func TestCalculateSolarRebates_BatteryRules(t *testing.T) {
	c := NewCalculator(perKWhTables())

	tests := []struct {
		name     string
		postcode string
		wantName string
		capacity float64
		want     float64
	}{
		{name: "below minimum gets nothing", postcode: "2000", capacity: 4.9, want: 0, wantName: "Test Per kWh"},
		{name: "at minimum", postcode: "2000", capacity: 5, want: 578, wantName: "Test Per kWh"},
		{name: "within range", postcode: "2000", capacity: 13.5, want: 1559, wantName: "Test Per kWh"},
		{name: "clamped to cap", postcode: "2000", capacity: 40, want: 2310, wantName: "Test Per kWh"},
		{name: "no battery", postcode: "2000", capacity: 0, want: 0, wantName: "Test Per kWh"},
		{name: "flat ignores capacity", postcode: "6000", capacity: 2, want: 1300, wantName: "Test Flat"},
		{name: "no program in state", postcode: "3000", capacity: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.CalculateSolarRebates(model.CalculatorInputs{
				InstallDate:        day("2025-01-15"),
				Postcode:           tt.postcode,
				PVDCSizeKW:         6.6,
				STCPriceAUD:        38,
				BatteryCapacityKWh: tt.capacity,
			})
			assert.InDelta(t, tt.want, r.BatteryRebateAUD, 1e-9)
			assert.InDelta(t, tt.want, r.BatteryProgram.AmountAUD, 1e-9)
			assert.Equal(t, tt.wantName, r.BatteryProgram.Name)
			assert.InDelta(t, r.STCValueAUD+r.BatteryRebateAUD+r.VPPIncentiveAUD, r.TotalRebateAUD, 1e-9)
		})
	}
}

func TestCalculateSolarRebates_VPP(t *testing.T) {
	tests := []struct {
		name           string
		postcode       string
		provider       string
		wantConditions string
		want           float64
	}{
		{name: "no provider", postcode: "2000", provider: "", want: 0},
		{name: "case insensitive", postcode: "2000", provider: "REPOSIT", want: 300, wantConditions: "Reposit box installed with battery"},
		{name: "unknown provider", postcode: "2000", provider: "nobody", want: 0, wantConditions: ConditionProviderNotFound},
		{name: "state restricted", postcode: "6000", provider: "reposit", want: 0, wantConditions: "Not available in WA"},
		{name: "no state limits", postcode: "6000", provider: "EnergyAustralia", want: 100, wantConditions: "Event participation credits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CalculateSolarRebates(model.CalculatorInputs{
				InstallDate: day("2025-01-15"),
				Postcode:    tt.postcode,
				PVDCSizeKW:  6.6,
				STCPriceAUD: 38,
				VPPProvider: tt.provider,
			})
			assert.InDelta(t, tt.want, r.VPPIncentiveAUD, 1e-9)
			assert.Equal(t, tt.wantConditions, r.VPP.Conditions)
		})
	}
}

func TestCalculateSolarRebates_TotalSumsRoundedParts(t *testing.T) {
	tables := DefaultTables()
	tables.BatteryRebates = map[string]model.BatteryRebateRule{
		"vic": {Type: model.BatteryRebatePerKWh, Amount: 100.25, ProgramName: "Odd"},
	}
	tables.VPPIncentives = map[string]model.VPPIncentive{
		"odd": {Name: "Odd VPP", AmountAUD: 99.5},
	}
	c := NewCalculator(tables)

	r := c.CalculateSolarRebates(model.CalculatorInputs{
		InstallDate:        day("2025-01-15"),
		Postcode:           "3000",
		PVDCSizeKW:         6.6,
		STCPriceAUD:        37.55,
		BatteryCapacityKWh: 2,
		VPPProvider:        "odd",
	})

	// 60 x 37.55 = 2253; 2 x 100.25 = 200.5 -> 201; 99.5 -> 100
	assert.InDelta(t, 2253.0, r.STCValueAUD, 1e-9)
	assert.InDelta(t, 201.0, r.BatteryRebateAUD, 1e-9)
	assert.InDelta(t, 100.0, r.VPPIncentiveAUD, 1e-9)
	assert.InDelta(t, 2554.0, r.TotalRebateAUD, 1e-9)
}

func TestNewCalculator_CopiesTables(t *testing.T) {
	tables := DefaultTables()
	tables.BatteryRebates = map[string]model.BatteryRebateRule{
		" VIC ": {Type: model.BatteryRebateFlat, Amount: 500, ProgramName: "Mixed case"},
	}
	tables.VPPIncentives = map[string]model.VPPIncentive{
		"Odd": {Name: "Odd VPP", AmountAUD: 50},
	}
	tables.StateDefaultZones = map[string]int{"vic": 4}

	c := NewCalculator(tables)

	assert.Contains(t, tables.BatteryRebates, " VIC ")
	assert.Contains(t, tables.VPPIncentives, "Odd")
	assert.Contains(t, tables.StateDefaultZones, "vic")
	assert.NotContains(t, tables.BatteryRebates, "vic")

	// Later edits by the caller do not reach the calculator.
	tables.ZoneMultipliers[4] = 100

	r := c.CalculateSolarRebates(model.CalculatorInputs{
		InstallDate:        day("2025-03-01"),
		Postcode:           "3000",
		PVDCSizeKW:         6.6,
		STCPriceAUD:        38,
		BatteryCapacityKWh: 10,
		VPPProvider:        "ODD",
	})
	assert.Equal(t, 60, r.STCs)
	assert.InDelta(t, 500.0, r.BatteryRebateAUD, 1e-9)
	assert.InDelta(t, 50.0, r.VPPIncentiveAUD, 1e-9)
}

func TestCalculateSolarRebates_ValidityWindows(t *testing.T) {
	inputs := model.CalculatorInputs{
		InstallDate:        day("2025-03-01"),
		Postcode:           "3000",
		PVDCSizeKW:         6.6,
		STCPriceAUD:        38,
		BatteryCapacityKWh: 10,
	}

	// The built-in VIC rule expired at the end of 2024.
	unfiltered := CalculateSolarRebates(inputs)
	assert.InDelta(t, 2950.0, unfiltered.BatteryRebateAUD, 1e-9)

	filtered := NewCalculator(DefaultTables(), WithValidityWindows(true)).CalculateSolarRebates(inputs)
	assert.Zero(t, filtered.BatteryRebateAUD)
	assert.Equal(t, ConditionNotActive, filtered.BatteryProgram.Basis)
}

func TestActiveOn(t *testing.T) {
	from := day("2025-01-01")
	to := day("2025-12-31")

	assert.True(t, activeOn(day("2025-01-01"), &from, &to))
	assert.True(t, activeOn(day("2025-12-31").Add(23*time.Hour), &from, &to))
	assert.False(t, activeOn(day("2024-12-31"), &from, &to))
	assert.False(t, activeOn(day("2026-01-01"), &from, &to))
	assert.True(t, activeOn(day("1999-01-01"), nil, nil))
}
