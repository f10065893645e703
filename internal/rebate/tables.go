// Package rebate estimates Australian solar and battery rebates: STCs, state battery
// programs and VPP sign-up incentives.
package rebate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/sunwise/internal/model"
)

// ErrInvalidTables indicates reference data that the calculator cannot use.
var ErrInvalidTables = errors.New("invalid rebate reference tables")

// Tables is the read-only reference data behind a rebate estimate.
// Battery and VPP keys are lowercase; state keys are uppercase.
type Tables struct {
	ZoneMultipliers   map[int]float64                    `json:"zone_multipliers" yaml:"zone_multipliers"`
	PostcodeZones     map[string]int                     `json:"postcode_zones" yaml:"postcode_zones"`
	StateDefaultZones map[string]int                     `json:"state_default_zones" yaml:"state_default_zones"`
	BatteryRebates    map[string]model.BatteryRebateRule `json:"battery_rebates" yaml:"battery_rebates"`
	VPPIncentives     map[string]model.VPPIncentive      `json:"vpp_incentives" yaml:"vpp_incentives"`
}

func ptr[T any](v T) *T { return &v }

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// DefaultTables returns the built-in reference data.
func DefaultTables() *Tables {
	return &Tables{
		ZoneMultipliers: map[int]float64{
			1: 1.622,
			2: 1.185,
			3: 1.382,
			4: 1.536,
		},
		PostcodeZones: map[string]int{
			"0800": 1, // Darwin
			"0870": 1, // Alice Springs
			"2000": 3, // Sydney
			"2300": 3, // Newcastle
			"2600": 3, // Canberra
			"2880": 2, // Broken Hill
			"3000": 4, // Melbourne
			"3220": 4, // Geelong
			"4000": 3, // Brisbane
			"4870": 3, // Cairns
			"5000": 3, // Adelaide
			"6000": 3, // Perth
			"6430": 2, // Kalgoorlie
			"7000": 4, // Hobart
		},
		StateDefaultZones: map[string]int{
			"NSW": 3,
			"VIC": 4,
			"QLD": 3,
			"SA":  3,
			"WA":  3,
			"TAS": 4,
			"NT":  1,
			"ACT": 3,
		},
		BatteryRebates: map[string]model.BatteryRebateRule{
			"nsw": {
				Type:          model.BatteryRebatePerKWh,
				Amount:        115,
				MinKWh:        ptr(2.0),
				MaxKWhCap:     ptr(28.0),
				ProgramName:   "NSW Peak Demand Reduction Scheme",
				EffectiveFrom: date(2024, time.November, 1),
				ExpiresOn:     date(2030, time.December, 31),
			},
			"vic": {
				Type:          model.BatteryRebateFlat,
				Amount:        2950,
				ProgramName:   "Solar Victoria Battery Rebate",
				EffectiveFrom: date(2022, time.July, 1),
				ExpiresOn:     date(2024, time.December, 31),
			},
			"wa": {
				Type:          model.BatteryRebateFlat,
				Amount:        1300,
				ProgramName:   "WA Residential Battery Scheme",
				EffectiveFrom: date(2025, time.July, 1),
				ExpiresOn:     date(2026, time.June, 30),
			},
			"act": {
				Type:          model.BatteryRebatePerKWh,
				Amount:        100,
				MinKWh:        ptr(5.0),
				MaxKWhCap:     ptr(10.0),
				ProgramName:   "ACT Sustainable Household Scheme",
				EffectiveFrom: date(2023, time.January, 1),
				ExpiresOn:     date(2027, time.June, 30),
			},
		},
		VPPIncentives: map[string]model.VPPIncentive{
			"agl": {
				Name:            "AGL Virtual Power Plant",
				AmountAUD:       280,
				Conditions:      "Requires compatible battery and AGL electricity plan",
				StateLimits:     []string{"NSW", "VIC", "SA", "QLD"},
				BatteryRequired: true,
				MinBatteryKWh:   5,
				EffectiveFrom:   date(2024, time.January, 1),
				ExpiresOn:       date(2026, time.December, 31),
			},
			"origin": {
				Name:            "Origin Loop",
				AmountAUD:       150,
				Conditions:      "Bill credits paid over 12 months",
				StateLimits:     []string{"NSW", "VIC", "SA", "QLD", "ACT"},
				BatteryRequired: true,
				MinBatteryKWh:   6.5,
				EffectiveFrom:   date(2024, time.March, 1),
				ExpiresOn:       date(2026, time.June, 30),
			},
			"reposit": {
				Name:            "Reposit GridCredits",
				AmountAUD:       300,
				Conditions:      "Reposit box installed with battery",
				StateLimits:     []string{"NSW", "VIC", "SA"},
				BatteryRequired: true,
				MinBatteryKWh:   5,
				EffectiveFrom:   date(2024, time.July, 1),
				ExpiresOn:       date(2026, time.December, 31),
			},
			"energyaustralia": {
				Name:            "EnergyAustralia PowerResponse",
				AmountAUD:       100,
				Conditions:      "Event participation credits",
				BatteryRequired: false,
				EffectiveFrom:   date(2024, time.January, 1),
				ExpiresOn:       date(2026, time.December, 31),
			},
		},
	}
}

// normalized returns a copy of t with map keys in the case the calculator looks
// them up with. t itself is left untouched.
func (t *Tables) normalized() *Tables {
	c := &Tables{
		ZoneMultipliers:   make(map[int]float64, len(t.ZoneMultipliers)),
		PostcodeZones:     make(map[string]int, len(t.PostcodeZones)),
		StateDefaultZones: make(map[string]int, len(t.StateDefaultZones)),
		BatteryRebates:    make(map[string]model.BatteryRebateRule, len(t.BatteryRebates)),
		VPPIncentives:     make(map[string]model.VPPIncentive, len(t.VPPIncentives)),
	}
	for zone, mult := range t.ZoneMultipliers {
		c.ZoneMultipliers[zone] = mult
	}
	for postcode, zone := range t.PostcodeZones {
		c.PostcodeZones[strings.TrimSpace(postcode)] = zone
	}
	for state, zone := range t.StateDefaultZones {
		c.StateDefaultZones[strings.ToUpper(strings.TrimSpace(state))] = zone
	}
	for key, rule := range t.BatteryRebates {
		c.BatteryRebates[strings.ToLower(strings.TrimSpace(key))] = rule
	}
	for key, vpp := range t.VPPIncentives {
		c.VPPIncentives[strings.ToLower(strings.TrimSpace(key))] = vpp
	}
	return c
}

// Validate checks the cross-table invariants.
func (t *Tables) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil tables", ErrInvalidTables)
	}
	if len(t.ZoneMultipliers) == 0 {
		return fmt.Errorf("%w: no zone multipliers", ErrInvalidTables)
	}
	for zone, mult := range t.ZoneMultipliers {
		if mult <= 0 {
			return fmt.Errorf("%w: zone %d multiplier must be positive", ErrInvalidTables, zone)
		}
	}

	for _, postcode := range sortedKeys(t.PostcodeZones) {
		zone := t.PostcodeZones[postcode]
		if _, ok := t.ZoneMultipliers[zone]; !ok {
			return fmt.Errorf("%w: postcode %s references unknown zone %d", ErrInvalidTables, postcode, zone)
		}
	}
	for _, state := range sortedKeys(t.StateDefaultZones) {
		zone := t.StateDefaultZones[state]
		if _, ok := t.ZoneMultipliers[zone]; !ok {
			return fmt.Errorf("%w: state %s references unknown zone %d", ErrInvalidTables, state, zone)
		}
	}

	for _, key := range sortedKeys(t.BatteryRebates) {
		rule := t.BatteryRebates[key]
		if rule.Type != model.BatteryRebateFlat && rule.Type != model.BatteryRebatePerKWh {
			return fmt.Errorf("%w: battery rebate %s has unknown type %q", ErrInvalidTables, key, rule.Type)
		}
		if rule.Amount < 0 {
			return fmt.Errorf("%w: battery rebate %s has negative amount", ErrInvalidTables, key)
		}
	}
	for _, key := range sortedKeys(t.VPPIncentives) {
		if t.VPPIncentives[key].AmountAUD < 0 {
			return fmt.Errorf("%w: vpp incentive %s has negative amount", ErrInvalidTables, key)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
