package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// FormatAUD renders whole dollars with thousands separators, e.g. "$2,280".
func FormatAUD(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(0)
	digits := d.Abs().String()

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if d.IsNegative() {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// RenderRebateResults formats a rebate breakdown for the terminal.
func RenderRebateResults(r model.CalculatorResults) string {
	if r.Error != "" {
		return FormatError(r.Error)
	}

	label := func(s string) string { return SubtleStyle.Render(fmt.Sprintf("%-18s", s)) }
	lines := []string{
		label("Location") + fmt.Sprintf("%s %s (zone %d)", r.Postcode, r.State, r.Zone),
		label("System") + fmt.Sprintf("%g kW PV", r.PVDCSizeKW),
		label("Deeming years") + fmt.Sprintf("%d", r.DeemingYears),
		label("STCs") + fmt.Sprintf("%d x %s", r.STCs, decimal.NewFromFloat(r.STCPriceAUD).StringFixed(2)) +
			"  " + AmountStyle.Render(FormatAUD(r.STCValueAUD)),
	}

	battery := label(BatteryIcon+" Battery") + AmountStyle.Render(FormatAUD(r.BatteryRebateAUD))
	if r.BatteryProgram.Name != "" || r.BatteryProgram.Basis != "" {
		battery += SubtleStyle.Render("  " + strings.TrimSpace(r.BatteryProgram.Name+" "+bracket(r.BatteryProgram.Basis)))
	}
	lines = append(lines, battery)

	vpp := label(BoltIcon+" VPP") + AmountStyle.Render(FormatAUD(r.VPPIncentiveAUD))
	if r.VPP.Provider != "" {
		vpp += SubtleStyle.Render("  " + strings.TrimSpace(r.VPP.Provider+" "+bracket(r.VPP.Conditions)))
	}
	lines = append(lines, vpp)

	lines = append(lines, "", BoldStyle.Render(fmt.Sprintf("%-18s", "Total rebate"))+AmountStyle.Render(FormatAUD(r.TotalRebateAUD)))
	if r.Warning != "" {
		lines = append(lines, "", FormatWarning(r.Warning))
	}

	return RenderBox(SunIcon+" Rebate estimate", strings.Join(lines, "\n"))
}

func bracket(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}

// RenderHits formats ranked matches as a table. Hits at or above their brand's
// auto-accept threshold are marked.
func RenderHits(hits []model.MatchHit, threshold func(brand string) float64) string {
	if len(hits) == 0 {
		return FormatInfo("No products found")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		TableCellStyle.Width(10).Render("Score"),
		TableCellStyle.Width(10).Render("Type"),
		TableCellStyle.Width(32).Render("Product"),
		TableCellStyle.Width(24).Render("Matched"),
		TableCellStyle.Render("Evidence"),
	)

	rows := []string{TableHeaderStyle.Render(header)}
	for _, h := range hits {
		score := fmt.Sprintf("%.2f", h.Score)
		if threshold != nil && h.Score >= threshold(h.Product.Brand) {
			score = SuccessStyle.Render(score + " " + SuccessIcon)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			TableCellStyle.Width(10).Render(score),
			TableCellStyle.Width(10).Render(string(h.Product.Type)),
			TableCellStyle.Width(32).Render(truncate(h.Product.DisplayName(), 30)),
			TableCellStyle.Width(24).Render(truncate(h.Raw, 22)),
			TableCellStyle.Render(SubtleStyle.Render(DescribeEvidence(h.Evidence))),
		))
	}
	return strings.Join(rows, "\n")
}

// DescribeEvidence summarizes the features that fired for a hit.
func DescribeEvidence(ev model.Evidence) string {
	var parts []string
	if ev.RegexHit {
		parts = append(parts, "regex")
	}
	if ev.AliasHit {
		parts = append(parts, "alias")
	}
	if ev.SectionBoost > 0 {
		parts = append(parts, "section")
	}
	if ev.QtyBoost > 0 {
		parts = append(parts, "qty")
	}
	if ev.BrandNearby {
		parts = append(parts, "brand")
	}
	if ev.SpecNearby {
		parts = append(parts, "spec")
	}
	if ev.OCRRiskPenalty > 0 {
		parts = append(parts, fmt.Sprintf("ocr-%.2f", ev.OCRRiskPenalty))
	}
	return strings.Join(parts, " ")
}

// RenderLearningState formats weights, thresholds and learned rules.
func RenderLearningState(state *model.LearningState) string {
	w := state.Weights
	var b strings.Builder

	b.WriteString(BoldStyle.Render("Weights") + "\n")
	fmt.Fprintf(&b, "  regex %.3f  alias %.3f  section %.3f  qty %.3f\n", w.Regex, w.Alias, w.Section, w.Qty)
	fmt.Fprintf(&b, "  brand %.3f  spec %.3f  ocr penalty %.3f\n", w.Brand, w.Spec, w.OCRPenalty)

	b.WriteString("\n" + BoldStyle.Render("Brand thresholds") + "\n")
	if len(state.BrandThresholds) == 0 {
		b.WriteString(SubtleStyle.Render("  none learned") + "\n")
	}
	for _, brand := range sortedKeys(state.BrandThresholds) {
		fmt.Fprintf(&b, "  %-20s %.2f\n", brand, state.BrandThresholds[brand])
	}

	b.WriteString("\n" + BoldStyle.Render("Learned rules") + "\n")
	ids := make(map[string]bool)
	for id := range state.Aliases {
		ids[id] = true
	}
	for id := range state.Regexes {
		ids[id] = true
	}
	if len(ids) == 0 {
		b.WriteString(SubtleStyle.Render("  none learned") + "\n")
	}
	for _, id := range sortedKeys(ids) {
		fmt.Fprintf(&b, "  %s\n", id)
		if re := state.Regexes[id]; re != "" {
			fmt.Fprintf(&b, "    regex:   %s\n", re)
		}
		if aliases := state.Aliases[id]; len(aliases) > 0 {
			fmt.Fprintf(&b, "    aliases: %s\n", strings.Join(aliases, ", "))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
