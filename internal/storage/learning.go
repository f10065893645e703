package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/mattn/go-sqlite3"
)

// LoadLearningState reads all four learning keys, defaulting any that are missing.
func (s *SQLiteStorage) LoadLearningState(ctx context.Context) (*model.LearningState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	state := model.NewLearningState()

	targets := []struct {
		dest any
		key  string
	}{
		{key: model.KeyWeights, dest: &state.Weights},
		{key: model.KeyAliases, dest: &state.Aliases},
		{key: model.KeyRegexes, dest: &state.Regexes},
		{key: model.KeyBrandThresholds, dest: &state.BrandThresholds},
	}

	for _, target := range targets {
		if _, err := s.getJSON(ctx, s.db, target.key, target.dest); err != nil {
			return nil, err
		}
	}

	// A stored JSON null decodes to a nil map.
	if state.Aliases == nil {
		state.Aliases = make(model.AliasMap)
	}
	if state.Regexes == nil {
		state.Regexes = make(model.RegexMap)
	}
	if state.BrandThresholds == nil {
		state.BrandThresholds = make(model.BrandThresholds)
	}

	return state, nil
}

// SaveLearningState writes all four learning keys in a single transaction.
func (s *SQLiteStorage) SaveLearningState(ctx context.Context, state *model.LearningState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLearningState(state); err != nil {
		return err
	}

	values := map[string]any{
		model.KeyWeights:         state.Weights,
		model.KeyAliases:         state.Aliases,
		model.KeyRegexes:         state.Regexes,
		model.KeyBrandThresholds: state.BrandThresholds,
	}

	return common.WithRetry(ctx, func() error {
		return classifyBusy(s.saveLearningStateOnce(ctx, values))
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond})
}

func (s *SQLiteStorage) saveLearningStateOnce(ctx context.Context, values map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range []string{model.KeyWeights, model.KeyAliases, model.KeyRegexes, model.KeyBrandThresholds} {
		if err := s.setJSON(ctx, tx, key, values[key]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit learning state: %w", err)
	}
	return nil
}

// getJSON decodes the value stored under key into dest. It reports whether the key existed.
func (s *SQLiteStorage) getJSON(ctx context.Context, q queryable, key string, dest any) (bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM learning_state WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("%w: %s: %w", common.ErrDatabaseCorrupted, key, err)
	}
	return true, nil
}

func (s *SQLiteStorage) setJSON(ctx context.Context, q queryable, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO learning_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(raw), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// classifyBusy marks SQLITE_BUSY and SQLITE_LOCKED errors as retryable.
func classifyBusy(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrBusy, err), Retryable: true}
	}
	return err
}
