package postgres

import (
	"testing"
	"time"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearningStateRows(t *testing.T) {
	state := model.NewLearningState()
	state.Weights.Alias = 0.42
	state.Aliases["p1"] = []string{"A", "B"}
	state.Regexes["p1"] = `\bA\b`
	state.BrandThresholds["TESLA"] = 0.8

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	rows, err := encodeLearningState(state, now)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, now, r.UpdatedAt)
	}

	decoded, err := decodeLearningState(rows)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecodeLearningState_Defaults(t *testing.T) {
	decoded, err := decodeLearningState([]learningStateRow{
		{Key: model.KeyAliases, Value: []byte("null")},
		{Key: "unrelated", Value: []byte("{")},
	})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWeights(), decoded.Weights)
	assert.NotNil(t, decoded.Aliases)
	assert.NotNil(t, decoded.Regexes)
	assert.NotNil(t, decoded.BrandThresholds)
}

func TestDecodeLearningState_Corrupt(t *testing.T) {
	_, err := decodeLearningState([]learningStateRow{{Key: model.KeyWeights, Value: []byte("{bad")}})
	assert.ErrorIs(t, err, common.ErrDatabaseCorrupted)
}

func TestProductRow(t *testing.T) {
	p := model.Product{
		ID:      "battery-tesla-pw3",
		Type:    model.ProductTypeBattery,
		Brand:   "Tesla",
		Model:   "Powerwall 3",
		Aliases: []string{"PW3"},
		Specs:   map[string]string{"kwh": "13.5"},
	}

	row, err := toProductRow(p)
	require.NoError(t, err)
	assert.Equal(t, "battery", row.Type)

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, p, back)

	row.Aliases = []byte("not json")
	_, err = row.toModel()
	assert.ErrorIs(t, err, common.ErrDatabaseCorrupted)
}

func TestFeedbackRow(t *testing.T) {
	e := &model.FeedbackEvent{
		ID:            "7a1b",
		Kind:          model.FeedbackCorrect,
		ProductID:     "p1",
		TrueProductID: "p2",
		Brand:         "Jinko",
		RawToken:      "JKM440N",
		Source:        "quote.pdf",
		Score:         0.61,
		Evidence:      model.Evidence{AliasHit: true, QtyBoost: 0.2},
		CreatedAt:     time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC),
	}

	row, err := toFeedbackRow(e)
	require.NoError(t, err)

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, *e, back)
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
