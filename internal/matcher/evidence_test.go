package matcher

import (
	"strings"
	"testing"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "uppercase", in: "jinko tiger", want: "JINKO TIGER"},
		{name: "line break split", in: "JKM440N-\n54HL4", want: "JKM440N-54HL4"},
		{name: "line break split with spaces", in: "JKM440N- \r\n   54HL4", want: "JKM440N-54HL4"},
		{name: "en dash", in: "Primo 5.0–1", want: "PRIMO 5.0-1"},
		{name: "em dash and minus", in: "A—B−C", want: "A-B-C"},
		{name: "collapse whitespace", in: "  a \t\n b  ", want: "A B"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestOCRRiskPenalty(t *testing.T) {
	assert.Zero(t, ocrRiskPenalty("ABC"))
	assert.InDelta(t, 0.16, ocrRiskPenalty("O0I1-/"), 1e-9)
	assert.InDelta(t, MaxOCRRiskPenalty, ocrRiskPenalty("OOOOOOOOOO"), 1e-9)
}

func TestSectionBoost(t *testing.T) {
	anchors := DefaultSectionAnchors

	text := "QUOTATION ITEM"
	assert.InDelta(t, SectionBoostValue, sectionBoost(text, strings.Index(text, "ITEM"), anchors), 1e-9)

	far := "QUOTATION " + strings.Repeat("X", SectionReach) + " ITEM"
	assert.Zero(t, sectionBoost(far, strings.Index(far, "ITEM"), anchors))

	after := "ITEM EQUIPMENT"
	assert.Zero(t, sectionBoost(after, 0, anchors))
}

func TestWindow(t *testing.T) {
	text := "0123456789"
	assert.Equal(t, "234567", window(text, 4, 6, 2))
	assert.Equal(t, "012", window(text, 0, 1, 2))
	assert.Equal(t, text, window(text, 5, 5, 100))
}

func TestScore(t *testing.T) {
	w := model.DefaultWeights()

	tests := []struct {
		name string
		ev   model.Evidence
		want float64
	}{
		{name: "nothing", ev: model.Evidence{}, want: 0},
		{name: "regex only", ev: model.Evidence{RegexHit: true}, want: 0.45},
		{name: "alias with context", ev: model.Evidence{AliasHit: true, BrandNearby: true, SpecNearby: true}, want: 0.50},
		{
			name: "all features",
			ev: model.Evidence{
				RegexHit: true, BrandNearby: true, SpecNearby: true,
				SectionBoost: 0.25, QtyBoost: 0.20, OCRRiskPenalty: 0.1,
			},
			want: 0.45 + 0.05 + 0.03 + 0.10 + 0.10 - 0.015,
		},
		{name: "penalty alone clamps to zero", ev: model.Evidence{OCRRiskPenalty: 0.25}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.ev, w), 1e-9)
		})
	}

	maxed := model.Weights{Regex: 0.8, Alias: 0.8, Section: 0.8, Qty: 0.8, Brand: 0.8, Spec: 0.8, OCRPenalty: 0.01}
	assert.InDelta(t, 1.0, Score(model.Evidence{RegexHit: true, AliasHit: true, BrandNearby: true}, maxed), 1e-9)
}

func TestUpdateWeights(t *testing.T) {
	ev := model.Evidence{RegexHit: true, BrandNearby: true, QtyBoost: 0.2, OCRRiskPenalty: 0.1}

	up := UpdateWeights(model.DefaultWeights(), ev, true)
	assert.InDelta(t, 0.53, up.Regex, 1e-9)
	assert.InDelta(t, 0.30, up.Alias, 1e-9)
	assert.InDelta(t, 0.20, up.Section, 1e-9)
	assert.InDelta(t, 0.166, up.Qty, 1e-9)
	assert.InDelta(t, 0.18, up.Brand, 1e-9)
	assert.InDelta(t, 0.10, up.Spec, 1e-9)
	assert.InDelta(t, 0.158, up.OCRPenalty, 1e-9)

	down := UpdateWeights(model.DefaultWeights(), ev, false)
	assert.InDelta(t, 0.37, down.Regex, 1e-9)
	assert.InDelta(t, 0.02, down.Brand, 1e-9)
	assert.InDelta(t, 0.142, down.OCRPenalty, 1e-9)

	w := model.DefaultWeights()
	for i := 0; i < 50; i++ {
		w = UpdateWeights(w, ev, true)
	}
	assert.InDelta(t, MaxWeight, w.Regex, 1e-9)
	assert.InDelta(t, MaxWeight, w.Brand, 1e-9)

	for i := 0; i < 100; i++ {
		w = UpdateWeights(w, ev, false)
	}
	assert.InDelta(t, MinWeight, w.Regex, 1e-9)
	assert.InDelta(t, MinWeight, w.Brand, 1e-9)
	assert.InDelta(t, MinWeight, w.OCRPenalty, 1e-9)
}
