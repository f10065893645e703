package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/sunwise/internal/cli"
	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/rebate"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func rebateCmd() *cobra.Command {
	var (
		installDate string
		postcode    string
		vppProvider string
		pvKW        float64
		stcPrice    float64
		batteryKWh  float64
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "rebate",
		Short: "Estimate solar, battery and VPP rebates",
		Long: `Estimate the STC value, state battery rebate and VPP sign-up incentive for a
household installation. The STC price defaults to rebates.stc_price_aud from config.`,
		Example: `  sunwise rebate --postcode 3000 --pv-kw 6.6 --install-date 2025-03-01
  sunwise rebate --postcode 2000 --pv-kw 10 --battery-kwh 13.5 --vpp agl --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			calc, err := newCalculator(cfg)
			if err != nil {
				return err
			}

			date, err := parseInstallDate(installDate)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("stc-price") {
				stcPrice = cfg.Rebates.STCPriceAUD
			}

			results := calc.CalculateSolarRebates(model.CalculatorInputs{
				InstallDate:        date,
				Postcode:           postcode,
				PVDCSizeKW:         pvKW,
				STCPriceAUD:        stcPrice,
				BatteryCapacityKWh: batteryKWh,
				VPPProvider:        vppProvider,
			})

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			_, err = fmt.Fprintln(out, cli.RenderRebateResults(results))
			return err
		},
	}

	cmd.Flags().StringVar(&installDate, "install-date", "", "installation date (format: 2006-01-02, default: today)")
	cmd.Flags().StringVar(&postcode, "postcode", "", "4-digit Australian postcode")
	cmd.Flags().Float64Var(&pvKW, "pv-kw", 0, "PV array DC size in kW")
	cmd.Flags().Float64Var(&stcPrice, "stc-price", 0, "STC price in AUD")
	cmd.Flags().Float64Var(&batteryKWh, "battery-kwh", 0, "battery usable capacity in kWh")
	cmd.Flags().StringVar(&vppProvider, "vpp", "", "VPP provider key, e.g. agl or origin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	_ = cmd.MarkFlagRequired("postcode")
	_ = cmd.MarkFlagRequired("pv-kw")

	cmd.AddCommand(rebateExportCmd())

	return cmd
}

func parseInstallDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("Invalid install date %q; use YYYY-MM-DD", value), err)
	}
	return date, nil
}

func rebateExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <scenarios.yaml>",
		Short: "Calculate a batch of scenarios into an XLSX workbook",
		Long: `Read a YAML file with a top-level "scenarios" list, estimate rebates for each
and write one spreadsheet row per scenario. Scenarios without stc_price_aud use
the configured STC price.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			calc, err := newCalculator(cfg)
			if err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open scenarios: %w", err)
			}
			defer func() { _ = in.Close() }()

			scenarios, err := rebate.ReadScenarios(in)
			if err != nil {
				return err
			}
			if len(scenarios) == 0 {
				return common.NewUserError("No scenarios found in "+args[0], common.ErrNotFound)
			}

			if outPath == "" {
				base := filepath.Base(args[0])
				outPath = base[:len(base)-len(filepath.Ext(base))] + ".xlsx"
			}

			bar := newProgressBar(cmd.ErrOrStderr(), len(scenarios), "Calculating scenarios...")
			results := make([]model.CalculatorResults, len(scenarios))
			for i := range scenarios {
				if scenarios[i].Inputs.STCPriceAUD == 0 {
					scenarios[i].Inputs.STCPriceAUD = cfg.Rebates.STCPriceAUD
				}
				results[i] = calc.CalculateSolarRebates(scenarios[i].Inputs)
				advance(bar)
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			if err := rebate.ExportScenariosXLSX(out, scenarios, results); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", outPath, err)
			}

			slog.Debug("Scenario export complete", "path", outPath, "scenarios", len(scenarios))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Wrote %d scenarios to %s", len(scenarios), outPath)))
			return err
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output workbook (default: <scenarios>.xlsx)")

	return cmd
}
