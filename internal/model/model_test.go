package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductType_IsValid(t *testing.T) {
	tests := []struct {
		typ  ProductType
		want bool
	}{
		{ProductTypePanel, true},
		{ProductTypeInverter, true},
		{ProductTypeBattery, true},
		{"Panel", false},
		{"heat-pump", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.IsValid())
		})
	}
}

func TestProduct_DisplayName(t *testing.T) {
	assert.Equal(t, "Tesla Powerwall 2", Product{Brand: "Tesla", Model: "Powerwall 2"}.DisplayName())
	assert.Equal(t, "Powerwall 2", Product{Model: "Powerwall 2"}.DisplayName())
}

func TestLearningState_Clone(t *testing.T) {
	original := NewLearningState()
	original.Aliases["battery-tesla-pw2"] = []string{"POWERWALL 2"}
	original.Regexes["battery-tesla-pw2"] = `\bPOWERWALL[-/\s]?2\b`
	original.BrandThresholds["TESLA"] = 0.74

	clone := original.Clone()
	assert.Equal(t, original, clone)

	clone.Aliases["battery-tesla-pw2"][0] = "PW2"
	clone.Aliases["battery-byd-hvm-11"] = []string{"HVM 11.0"}
	clone.Regexes["battery-tesla-pw2"] = "changed"
	clone.BrandThresholds["TESLA"] = 0.9
	clone.Weights.Regex = 0.8

	assert.Equal(t, []string{"POWERWALL 2"}, original.Aliases["battery-tesla-pw2"])
	assert.NotContains(t, original.Aliases, "battery-byd-hvm-11")
	assert.Equal(t, `\bPOWERWALL[-/\s]?2\b`, original.Regexes["battery-tesla-pw2"])
	assert.InDelta(t, 0.74, original.BrandThresholds["TESLA"], 1e-9)
	assert.Equal(t, DefaultWeights(), original.Weights)
}

func TestNewFeedbackEvent(t *testing.T) {
	hit := MatchHit{
		Product:   Product{ID: "battery-tesla-pw2", Brand: "Tesla", Model: "Powerwall 2"},
		ProductID: "battery-tesla-pw2",
		Raw:       "POWERWALL 2",
		Score:     0.62,
		Evidence:  Evidence{AliasHit: true, SectionBoost: 0.25},
	}

	tests := []struct {
		name      string
		kind      FeedbackKind
		trueID    string
		token     string
		wantToken string
		wantTrue  string
	}{
		{name: "confirm uses the matched text", kind: FeedbackConfirm, wantToken: "POWERWALL 2"},
		{name: "confirm ignores a true product", kind: FeedbackConfirm, trueID: "battery-byd-hvm-11", wantToken: "POWERWALL 2"},
		{name: "correction with a seen token", kind: FeedbackCorrect, trueID: "battery-byd-hvm-11", token: "HVM 11.0", wantToken: "HVM 11.0", wantTrue: "battery-byd-hvm-11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewFeedbackEvent(tt.kind, hit, tt.trueID, tt.token, "quote.txt")
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, "battery-tesla-pw2", e.ProductID)
			assert.Equal(t, tt.wantTrue, e.TrueProductID)
			assert.Equal(t, tt.wantToken, e.RawToken)
			assert.Equal(t, "Tesla", e.Brand)
			assert.Equal(t, "quote.txt", e.Source)
			assert.Equal(t, hit.Evidence, e.Evidence)
			assert.InDelta(t, 0.62, e.Score, 1e-9)
			assert.Empty(t, e.ID)
			assert.True(t, e.CreatedAt.IsZero())
		})
	}
}
