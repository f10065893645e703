package matcher

import (
	"math"
	"regexp"
	"strings"

	"github.com/Veraticus/sunwise/internal/model"
)

// Evidence constants.
const (
	DefaultWindowRadius = 150
	SectionReach        = 1500
	SectionBoostValue   = 0.25
	QtyBoostValue       = 0.20
	MaxOCRRiskPenalty   = 0.25
)

// DefaultSectionAnchors are headings that introduce the equipment list of a quote.
var DefaultSectionAnchors = []string{
	"QUOTATION",
	"SYSTEM COMPONENTS",
	"EQUIPMENT",
	"PROPOSED SYSTEM",
	"BILL OF MATERIALS",
	"INSTALLATION DETAILS",
}

var (
	qtyPattern = regexp.MustCompile(`\b\d{1,3}\s?(?:X|PCS|PIECES|PANELS|MODULES|UNITS|NOS)\b|\bQTY\.?\s?:?\s?\d{1,3}\b|\bX\s?\d{1,3}\b`)

	specPatterns = map[model.ProductType]*regexp.Regexp{
		model.ProductTypePanel:    regexp.MustCompile(`\b\d{3}\s?WP?\b`),
		model.ProductTypeInverter: regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?\s?KW\b`),
		model.ProductTypeBattery:  regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?\s?KWH\b`),
	}
)

// window returns the text within radius bytes either side of [start, end).
func window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// sectionBoost is SectionBoostValue when an anchor heading precedes at within SectionReach.
func sectionBoost(text string, at int, anchors []string) float64 {
	before := text[:at]
	for _, anchor := range anchors {
		idx := strings.LastIndex(before, anchor)
		if idx >= 0 && at-idx <= SectionReach {
			return SectionBoostValue
		}
	}
	return 0
}

// ocrRiskPenalty grows with characters OCR commonly confuses and with separator density.
func ocrRiskPenalty(raw string) float64 {
	ambiguous := strings.Count(raw, "O") + strings.Count(raw, "0") +
		strings.Count(raw, "I") + strings.Count(raw, "1")
	separators := strings.Count(raw, "-") + strings.Count(raw, "/")
	return math.Min(MaxOCRRiskPenalty, 0.03*float64(ambiguous)+0.02*float64(separators))
}

// collectEvidence computes the feature vector for a match of product at [start, end).
func (m *SmartMatcher) collectEvidence(text string, start, end int, product *model.Product, regexHit bool) model.Evidence {
	win := window(text, start, end, m.windowRadius)
	raw := text[start:end]

	ev := model.Evidence{
		RegexHit:       regexHit,
		AliasHit:       !regexHit,
		SectionBoost:   sectionBoost(text, start, m.sectionAnchors),
		OCRRiskPenalty: ocrRiskPenalty(raw),
	}
	if qtyPattern.MatchString(win) {
		ev.QtyBoost = QtyBoostValue
	}
	if brand := strings.ToUpper(strings.TrimSpace(product.Brand)); brand != "" {
		ev.BrandNearby = strings.Contains(win, brand)
	}
	if re, ok := specPatterns[product.Type]; ok {
		ev.SpecNearby = re.MatchString(win)
	}
	return ev
}

// Score combines evidence with weights and clamps the result to [0, 1].
func Score(ev model.Evidence, w model.Weights) float64 {
	s := boolToFloat(ev.RegexHit)*w.Regex +
		boolToFloat(ev.AliasHit)*w.Alias +
		ev.SectionBoost*w.Section +
		ev.QtyBoost*w.Qty +
		boolToFloat(ev.BrandNearby)*w.Brand +
		boolToFloat(ev.SpecNearby)*w.Spec -
		ev.OCRRiskPenalty*w.OCRPenalty
	return clamp(s, 0, 1)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
