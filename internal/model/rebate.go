package model

import "time"

// BatteryRebateType is how a state battery program computes its payment.
type BatteryRebateType string

const (
	// BatteryRebateFlat pays a fixed amount regardless of capacity.
	BatteryRebateFlat BatteryRebateType = "flat"
	// BatteryRebatePerKWh pays per eligible kWh of capacity.
	BatteryRebatePerKWh BatteryRebateType = "per_kwh"
)

// BatteryRebateRule describes a state battery program.
type BatteryRebateRule struct {
	EffectiveFrom *time.Time        `json:"effective_from,omitempty" yaml:"effective_from,omitempty"`
	ExpiresOn     *time.Time        `json:"expires_on,omitempty" yaml:"expires_on,omitempty"`
	MinKWh        *float64          `json:"min_kwh,omitempty" yaml:"min_kwh,omitempty"`
	MaxKWhCap     *float64          `json:"max_kwh_cap,omitempty" yaml:"max_kwh_cap,omitempty"`
	Type          BatteryRebateType `json:"type" yaml:"type"`
	ProgramName   string            `json:"program_name" yaml:"program_name"`
	Amount        float64           `json:"amount" yaml:"amount"`
}

// VPPIncentive describes a virtual power plant sign-up incentive.
type VPPIncentive struct {
	EffectiveFrom   *time.Time `json:"effective_from,omitempty" yaml:"effective_from,omitempty"`
	ExpiresOn       *time.Time `json:"expires_on,omitempty" yaml:"expires_on,omitempty"`
	Name            string     `json:"name" yaml:"name"`
	Conditions      string     `json:"conditions" yaml:"conditions"`
	StateLimits     []string   `json:"state_limits,omitempty" yaml:"state_limits,omitempty"`
	AmountAUD       float64    `json:"amount_aud" yaml:"amount_aud"`
	MinBatteryKWh   float64    `json:"min_battery_kwh" yaml:"min_battery_kwh"`
	BatteryRequired bool       `json:"battery_required" yaml:"battery_required"`
}

// CalculatorInputs are the household parameters a rebate estimate is computed from.
type CalculatorInputs struct {
	InstallDate        time.Time `json:"install_date" yaml:"install_date"`
	Postcode           string    `json:"postcode" yaml:"postcode"`
	VPPProvider        string    `json:"vpp_provider,omitempty" yaml:"vpp_provider,omitempty"`
	PVDCSizeKW         float64   `json:"pv_dc_size_kw" yaml:"pv_dc_size_kw"`
	STCPriceAUD        float64   `json:"stc_price_aud" yaml:"stc_price_aud"`
	BatteryCapacityKWh float64   `json:"battery_capacity_kwh" yaml:"battery_capacity_kwh"`
}

// BatteryProgramResult is the battery program component of a rebate estimate.
type BatteryProgramResult struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Basis     string  `json:"basis"`
	AmountAUD float64 `json:"amount_aud"`
}

// VPPResult is the VPP component of a rebate estimate.
type VPPResult struct {
	Provider   string  `json:"provider"`
	Conditions string  `json:"conditions"`
	AmountAUD  float64 `json:"amount_aud"`
}

// CalculatorResults is a complete rebate breakdown. Monetary fields are whole dollars.
type CalculatorResults struct {
	InstallDate        time.Time            `json:"install_date"`
	VPP                VPPResult            `json:"vpp"`
	BatteryProgram     BatteryProgramResult `json:"battery_program"`
	Postcode           string               `json:"postcode"`
	VPPProvider        string               `json:"vpp_provider,omitempty"`
	State              string               `json:"state"`
	Warning            string               `json:"warning,omitempty"`
	Error              string               `json:"error,omitempty"`
	PVDCSizeKW         float64              `json:"pv_dc_size_kw"`
	STCPriceAUD        float64              `json:"stc_price_aud"`
	BatteryCapacityKWh float64              `json:"battery_capacity_kwh"`
	Zone               int                  `json:"zone"`
	DeemingYears       int                  `json:"deeming_years"`
	STCs               int                  `json:"stcs"`
	STCValueAUD        float64              `json:"stc_value_aud"`
	BatteryRebateAUD   float64              `json:"battery_rebate_aud"`
	VPPIncentiveAUD    float64              `json:"vpp_incentive_aud"`
	TotalRebateAUD     float64              `json:"total_rebate_aud"`
}
