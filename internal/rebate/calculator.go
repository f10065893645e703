package rebate

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/shopspring/decimal"
)

// Result messages.
const (
	ErrMsgInvalidPVSize       = "Invalid PV size"
	ConditionProviderNotFound = "Provider not found"
	ConditionNotActive        = "Not active on install date"
)

// Calculator computes rebate estimates over a fixed set of reference tables.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	tables                 *Tables
	enforceValidityWindows bool
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithValidityWindows makes battery and VPP rules apply only when the install date
// falls inside their effective_from/expires_on window.
func WithValidityWindows(enabled bool) Option {
	return func(c *Calculator) {
		c.enforceValidityWindows = enabled
	}
}

// NewCalculator creates a calculator over its own copy of tables. A nil tables
// argument uses DefaultTables.
func NewCalculator(tables *Tables, opts ...Option) *Calculator {
	if tables == nil {
		tables = DefaultTables()
	}

	c := &Calculator{tables: tables.normalized()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tables returns the reference data the calculator uses.
func (c *Calculator) Tables() *Tables {
	return c.tables
}

var defaultCalculator = NewCalculator(DefaultTables())

// CalculateSolarRebates estimates rebates using the built-in reference tables.
func CalculateSolarRebates(inputs model.CalculatorInputs) model.CalculatorResults {
	return defaultCalculator.CalculateSolarRebates(inputs)
}

// CalculateSolarRebates estimates the STC, battery program and VPP components for
// inputs. It never fails: anomalies are reported in Warning, Error or Conditions.
func (c *Calculator) CalculateSolarRebates(inputs model.CalculatorInputs) model.CalculatorResults {
	results := model.CalculatorResults{
		InstallDate:        inputs.InstallDate,
		Postcode:           inputs.Postcode,
		VPPProvider:        inputs.VPPProvider,
		PVDCSizeKW:         inputs.PVDCSizeKW,
		STCPriceAUD:        inputs.STCPriceAUD,
		BatteryCapacityKWh: inputs.BatteryCapacityKWh,
	}

	if inputs.PVDCSizeKW <= 0 {
		results.Error = ErrMsgInvalidPVSize
		return results
	}

	results.State = StateFromPostcode(inputs.Postcode)

	zone, fellBack := c.tables.ZoneFor(inputs.Postcode, results.State)
	results.Zone = zone
	if fellBack {
		results.Warning = ZoneFallbackWarning
	}

	results.DeemingYears = DeemingYears(inputs.InstallDate)

	raw := decimal.NewFromFloat(inputs.PVDCSizeKW).
		Mul(decimal.NewFromFloat(c.tables.ZoneMultipliers[zone])).
		Mul(decimal.NewFromInt(int64(results.DeemingYears)))
	stcs := raw.Floor()
	results.STCs = int(stcs.IntPart())

	stcValue := stcs.Mul(decimal.NewFromFloat(inputs.STCPriceAUD)).Round(0)
	battery, program := c.batteryRebate(results.State, inputs)
	vpp, vppResult := c.vppIncentive(results.State, inputs)

	results.STCValueAUD = stcValue.InexactFloat64()
	results.BatteryRebateAUD = battery.InexactFloat64()
	results.BatteryProgram = program
	results.VPPIncentiveAUD = vpp.InexactFloat64()
	results.VPP = vppResult
	results.TotalRebateAUD = stcValue.Add(battery).Add(vpp).InexactFloat64()

	return results
}

// batteryRebate returns the rounded battery program amount.
func (c *Calculator) batteryRebate(state string, inputs model.CalculatorInputs) (decimal.Decimal, model.BatteryProgramResult) {
	rule, ok := c.tables.BatteryRebates[strings.ToLower(state)]
	if !ok {
		return decimal.Zero, model.BatteryProgramResult{Basis: "No state battery program"}
	}

	program := model.BatteryProgramResult{
		Name: rule.ProgramName,
		Type: string(rule.Type),
	}

	if c.enforceValidityWindows && !activeOn(inputs.InstallDate, rule.EffectiveFrom, rule.ExpiresOn) {
		program.Basis = ConditionNotActive
		return decimal.Zero, program
	}
	if inputs.BatteryCapacityKWh <= 0 {
		program.Basis = "No battery"
		return decimal.Zero, program
	}

	amount := decimal.NewFromFloat(rule.Amount)

	switch rule.Type {
	case model.BatteryRebateFlat:
		program.Basis = "Flat rebate"
	case model.BatteryRebatePerKWh:
		eligible := decimal.NewFromFloat(inputs.BatteryCapacityKWh)
		switch {
		case rule.MinKWh != nil && inputs.BatteryCapacityKWh < *rule.MinKWh:
			program.Basis = fmt.Sprintf("Below minimum %g kWh", *rule.MinKWh)
			return decimal.Zero, program
		case rule.MaxKWhCap != nil && inputs.BatteryCapacityKWh > *rule.MaxKWhCap:
			eligible = decimal.NewFromFloat(*rule.MaxKWhCap)
		}
		amount = eligible.Mul(amount)
		program.Basis = fmt.Sprintf("%s kWh x $%s/kWh", eligible.String(), decimal.NewFromFloat(rule.Amount).String())
	default:
		program.Basis = "Unknown program type"
		return decimal.Zero, program
	}

	rounded := amount.Round(0)
	program.AmountAUD = rounded.InexactFloat64()
	return rounded, program
}

// vppIncentive returns the rounded VPP sign-up incentive.
func (c *Calculator) vppIncentive(state string, inputs model.CalculatorInputs) (decimal.Decimal, model.VPPResult) {
	provider := strings.TrimSpace(inputs.VPPProvider)
	if provider == "" {
		return decimal.Zero, model.VPPResult{}
	}

	incentive, ok := c.tables.VPPIncentives[strings.ToLower(provider)]
	if !ok {
		return decimal.Zero, model.VPPResult{Provider: provider, Conditions: ConditionProviderNotFound}
	}

	result := model.VPPResult{Provider: incentive.Name, Conditions: incentive.Conditions}
	if result.Provider == "" {
		result.Provider = provider
	}

	if len(incentive.StateLimits) > 0 && !containsFold(incentive.StateLimits, state) {
		result.Conditions = fmt.Sprintf("Not available in %s", state)
		return decimal.Zero, result
	}
	if c.enforceValidityWindows && !activeOn(inputs.InstallDate, incentive.EffectiveFrom, incentive.ExpiresOn) {
		result.Conditions = ConditionNotActive
		return decimal.Zero, result
	}

	amount := decimal.NewFromFloat(incentive.AmountAUD).Round(0)
	result.AmountAUD = amount.InexactFloat64()
	return amount, result
}

// activeOn reports whether day falls inside the inclusive [from, to] window.
// Open-ended bounds are unbounded.
func activeOn(day time.Time, from, to *time.Time) bool {
	d := dateOnly(day)
	if from != nil && d.Before(dateOnly(*from)) {
		return false
	}
	if to != nil && d.After(dateOnly(*to)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
