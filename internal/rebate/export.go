package rebate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// ErrScenarioMismatch indicates scenarios and results of different lengths.
var ErrScenarioMismatch = errors.New("scenario and result counts differ")

// Scenario is a named set of calculator inputs.
type Scenario struct {
	Name   string                 `yaml:"name"`
	Inputs model.CalculatorInputs `yaml:",inline"`
}

// ReadScenarios decodes a YAML list of scenarios.
func ReadScenarios(r io.Reader) ([]Scenario, error) {
	var doc struct {
		Scenarios []Scenario `yaml:"scenarios"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}
	for i := range doc.Scenarios {
		if doc.Scenarios[i].Name == "" {
			doc.Scenarios[i].Name = fmt.Sprintf("Scenario %d", i+1)
		}
	}
	return doc.Scenarios, nil
}

const scenarioSheet = "Scenarios"

var scenarioHeaders = []string{
	"Scenario",
	"Install Date",
	"Postcode",
	"State",
	"Zone",
	"PV (kW)",
	"Battery (kWh)",
	"VPP",
	"Deeming Years",
	"STCs",
	"STC Value",
	"Battery Rebate",
	"VPP Incentive",
	"Total Rebate",
	"Notes",
}

// ExportScenariosXLSX writes one workbook row per scenario result to w.
func ExportScenariosXLSX(w io.Writer, scenarios []Scenario, results []model.CalculatorResults) error {
	if len(scenarios) != len(results) {
		return fmt.Errorf("%w: %d scenarios, %d results", ErrScenarioMismatch, len(scenarios), len(results))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", scenarioSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range scenarioHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(scenarioSheet, cell, h)
	}

	for i, r := range results {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(scenarioSheet, cell, v)
		}

		write(1, scenarios[i].Name)
		if !r.InstallDate.IsZero() {
			write(2, r.InstallDate.Format("2006-01-02"))
		}
		write(3, r.Postcode)
		write(4, r.State)
		write(5, r.Zone)
		write(6, r.PVDCSizeKW)
		write(7, r.BatteryCapacityKWh)
		write(8, r.VPP.Provider)
		write(9, r.DeemingYears)
		write(10, r.STCs)
		write(11, r.STCValueAUD)
		write(12, r.BatteryRebateAUD)
		write(13, r.VPPIncentiveAUD)
		write(14, r.TotalRebateAUD)
		write(15, resultNotes(r))
	}

	_ = f.SetColWidth(scenarioSheet, "A", "A", 24)
	_ = f.SetColWidth(scenarioSheet, "B", "B", 14)
	_ = f.SetColWidth(scenarioSheet, "K", "N", 14)
	_ = f.SetColWidth(scenarioSheet, "O", "O", 48)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	slog.Info("Exported rebate scenarios", "rows", len(results))
	return nil
}

func resultNotes(r model.CalculatorResults) string {
	notes := r.Error
	for _, s := range []string{r.Warning, r.VPP.Conditions} {
		if s == "" {
			continue
		}
		if notes != "" {
			notes += "; "
		}
		notes += s
	}
	return notes
}
