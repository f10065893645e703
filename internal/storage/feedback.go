package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/google/uuid"
)

// RecordFeedback appends a confirm or correct decision to the audit trail.
// Missing IDs and timestamps are filled in.
func (s *SQLiteStorage) RecordFeedback(ctx context.Context, event *model.FeedbackEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFeedback(event); err != nil {
		return err
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	evidence, err := json.Marshal(event.Evidence)
	if err != nil {
		return fmt.Errorf("failed to encode evidence: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feedback_events (
			id, kind, product_id, true_product_id, brand, raw_token, source, score, evidence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, string(event.Kind), event.ProductID, nullIfEmpty(event.TrueProductID), event.Brand,
		event.RawToken, nullIfEmpty(event.Source), event.Score, string(evidence), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	return nil
}

// GetFeedback returns the most recent feedback events, newest first.
// A non-positive limit returns every event.
func (s *SQLiteStorage) GetFeedback(ctx context.Context, limit int) ([]model.FeedbackEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, kind, product_id, COALESCE(true_product_id, ''), brand, raw_token,
			COALESCE(source, ''), score, COALESCE(evidence, '{}'), created_at
		FROM feedback_events
		ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.FeedbackEvent
	for rows.Next() {
		var (
			event    model.FeedbackEvent
			kind     string
			evidence string
		)
		if err := rows.Scan(&event.ID, &kind, &event.ProductID, &event.TrueProductID, &event.Brand,
			&event.RawToken, &event.Source, &event.Score, &evidence, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		event.Kind = model.FeedbackKind(kind)
		if err := json.Unmarshal([]byte(evidence), &event.Evidence); err != nil {
			return nil, fmt.Errorf("failed to decode evidence for %s: %w", event.ID, err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
