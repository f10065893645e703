package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/service"
)

var _ service.LearningStore = (*MemoryLearningStore)(nil)

// MemoryLearningStore keeps learning state in process memory.
// It is used by tests and by --ephemeral CLI runs.
type MemoryLearningStore struct {
	state *model.LearningState
	saves int
	mu    sync.Mutex
}

// NewMemoryLearningStore creates an empty in-memory store.
func NewMemoryLearningStore() *MemoryLearningStore {
	return &MemoryLearningStore{}
}

// NewMemoryLearningStoreFrom creates an in-memory store that starts from the
// state currently held by source. Later saves never reach source.
func NewMemoryLearningStoreFrom(ctx context.Context, source service.LearningStore) (*MemoryLearningStore, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source store", ErrNilParameter)
	}
	state, err := source.LoadLearningState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load learning state: %w", err)
	}
	return &MemoryLearningStore{state: state.Clone()}, nil
}

// LoadLearningState returns a copy of the stored state, or defaults.
func (m *MemoryLearningStore) LoadLearningState(ctx context.Context) (*model.LearningState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return model.NewLearningState(), nil
	}
	return m.state.Clone(), nil
}

// SaveLearningState replaces the stored state with a copy of state.
func (m *MemoryLearningStore) SaveLearningState(ctx context.Context, state *model.LearningState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLearningState(state); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state.Clone()
	m.saves++
	return nil
}

// Saves returns how many times state has been persisted.
func (m *MemoryLearningStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
