package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLearningStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLearningStore()

	initial, err := store.LoadLearningState(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultWeights(), initial.Weights)

	initial.Aliases["p"] = []string{"A"}
	require.NoError(t, store.SaveLearningState(ctx, initial))
	assert.Equal(t, 1, store.Saves())

	// Mutating the caller's copy must not leak into the store.
	initial.Aliases["p"] = append(initial.Aliases["p"], "B")

	loaded, err := store.LoadLearningState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, loaded.Aliases["p"])
}

func TestNewMemoryLearningStoreFrom(t *testing.T) {
	ctx := context.Background()
	source := NewMemoryLearningStore()

	state := model.NewLearningState()
	state.BrandThresholds["JINKO"] = 0.74
	state.Aliases["panel-jinko-440"] = []string{"JKM440N"}
	require.NoError(t, source.SaveLearningState(ctx, state))

	store, err := NewMemoryLearningStoreFrom(ctx, source)
	require.NoError(t, err)

	loaded, err := store.LoadLearningState(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.74, loaded.BrandThresholds["JINKO"], 1e-9)
	assert.Equal(t, []string{"JKM440N"}, loaded.Aliases["panel-jinko-440"])

	loaded.BrandThresholds["JINKO"] = 0.73
	require.NoError(t, store.SaveLearningState(ctx, loaded))
	assert.Equal(t, 1, store.Saves())

	unchanged, err := source.LoadLearningState(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.74, unchanged.BrandThresholds["JINKO"], 1e-9)
	assert.Equal(t, 1, source.Saves())

	_, err = NewMemoryLearningStoreFrom(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)
}
