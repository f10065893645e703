package matcher_test

import (
	"context"
	"testing"

	"github.com/Veraticus/sunwise/internal/matcher"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/testutil"
	"github.com/Veraticus/sunwise/internal/testutil/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ocrQuote = `PROPOSED SYSTEM
16 x JKM 440N-54HL4 440W
1 x POWERWALL 2 13.5kWh`

func TestSmartMatcher_LearningSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDBWithBuilder(t, func(b catalog.Builder) catalog.Builder {
		return b.WithResidentialKit().WithProduct(catalog.BatteryBYDHVM11)
	})

	first := matcher.New(db.Storage, db.Products)
	require.NoError(t, first.Init(ctx))

	hits, err := first.Match(ctx, ocrQuote)
	require.NoError(t, err)

	var tesla model.MatchHit
	for _, h := range hits {
		if h.ProductID == catalog.BatteryTeslaPW2.String() {
			tesla = h
		}
	}
	require.NotEmpty(t, tesla.ProductID, "expected a Powerwall hit")

	byd := db.MustGetProduct(catalog.BatteryBYDHVM11)
	require.NoError(t, first.LearnCorrection(ctx, tesla, byd, "HVM 11.0"))

	// A second process opening the same database sees the learned state.
	reopened := testutil.OpenTestDB(t, db.Path)
	second := matcher.New(reopened, db.Products)
	require.NoError(t, second.Init(ctx))

	assert.Equal(t, first.State(), second.State())
	assert.InDelta(t, 0.77, second.AutoAcceptThreshold("Tesla"), 1e-9)
	assert.Contains(t, second.Aliases(byd.ID), "HVM 11.0")

	hits, err = second.Match(ctx, "Battery: BYD HVM-11.0 stack")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, byd.ID, hits[0].ProductID)
	assert.True(t, hits[0].Evidence.RegexHit, "the learned regex matches the hyphenated spelling")
}
