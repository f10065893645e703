// Package postgres stores the catalog, learning state and feedback log in
// PostgreSQL through gorm, for installs that share one learned model.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/service"
	"github.com/Veraticus/sunwise/internal/storage"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ service.Storage = (*Store)(nil)

// Store implements service.Storage on PostgreSQL.
type Store struct {
	DB *gorm.DB
}

// Open connects to dsn. Call Migrate before first use.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: database.dsn", common.ErrMissingConfig)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an existing gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(&productRow{}, &learningStateRow{}, &feedbackRow{}); err != nil {
		return fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ---- Learning state ----

type learningStateRow struct {
	UpdatedAt time.Time
	Key       string `gorm:"column:key;primaryKey"`
	Value     []byte `gorm:"column:value;not null"`
}

func (learningStateRow) TableName() string {
	return "learning_state"
}

// LoadLearningState reads the four learning keys, defaulting any that are missing.
func (s *Store) LoadLearningState(ctx context.Context) (*model.LearningState, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []learningStateRow
	keys := []string{model.KeyWeights, model.KeyAliases, model.KeyRegexes, model.KeyBrandThresholds}
	if err := s.DB.WithContext(ctx).Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query learning_state: %w", err)
	}

	return decodeLearningState(rows)
}

// SaveLearningState upserts all four learning keys in one transaction.
func (s *Store) SaveLearningState(ctx context.Context, state *model.LearningState) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if state == nil {
		return fmt.Errorf("%w: learning state", storage.ErrNilParameter)
	}

	rows, err := encodeLearningState(state, time.Now())
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&rows[i]).Error; err != nil {
				return fmt.Errorf("failed to upsert %s: %w", rows[i].Key, err)
			}
		}
		return nil
	})
}

func encodeLearningState(state *model.LearningState, now time.Time) ([]learningStateRow, error) {
	values := []struct {
		value any
		key   string
	}{
		{key: model.KeyWeights, value: state.Weights},
		{key: model.KeyAliases, value: state.Aliases},
		{key: model.KeyRegexes, value: state.Regexes},
		{key: model.KeyBrandThresholds, value: state.BrandThresholds},
	}

	rows := make([]learningStateRow, 0, len(values))
	for _, v := range values {
		raw, err := json.Marshal(v.value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", v.key, err)
		}
		rows = append(rows, learningStateRow{Key: v.key, Value: raw, UpdatedAt: now})
	}
	return rows, nil
}

func decodeLearningState(rows []learningStateRow) (*model.LearningState, error) {
	state := model.NewLearningState()
	for _, row := range rows {
		var dest any
		switch row.Key {
		case model.KeyWeights:
			dest = &state.Weights
		case model.KeyAliases:
			dest = &state.Aliases
		case model.KeyRegexes:
			dest = &state.Regexes
		case model.KeyBrandThresholds:
			dest = &state.BrandThresholds
		default:
			continue
		}
		if err := json.Unmarshal(row.Value, dest); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", common.ErrDatabaseCorrupted, row.Key, err)
		}
	}

	// A stored JSON null leaves a nil map behind.
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

// ---- Catalog ----

type productRow struct {
	UpdatedAt time.Time
	ID        string `gorm:"column:id;primaryKey"`
	Type      string `gorm:"column:type;not null;index"`
	Brand     string `gorm:"column:brand;not null;index"`
	Model     string `gorm:"column:model;not null"`
	Regex     string `gorm:"column:regex"`
	Aliases   []byte `gorm:"column:aliases"`
	Specs     []byte `gorm:"column:specs"`
}

func (productRow) TableName() string {
	return "products"
}

func toProductRow(p model.Product) (productRow, error) {
	aliases, err := json.Marshal(p.Aliases)
	if err != nil {
		return productRow{}, fmt.Errorf("failed to encode aliases for %s: %w", p.ID, err)
	}
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return productRow{}, fmt.Errorf("failed to encode specs for %s: %w", p.ID, err)
	}
	return productRow{
		ID:      p.ID,
		Type:    string(p.Type),
		Brand:   p.Brand,
		Model:   p.Model,
		Regex:   p.Regex,
		Aliases: aliases,
		Specs:   specs,
	}, nil
}

func (r productRow) toModel() (model.Product, error) {
	p := model.Product{
		ID:    r.ID,
		Type:  model.ProductType(r.Type),
		Brand: r.Brand,
		Model: r.Model,
		Regex: r.Regex,
	}
	if len(r.Aliases) > 0 {
		if err := json.Unmarshal(r.Aliases, &p.Aliases); err != nil {
			return p, fmt.Errorf("%w: aliases for %s: %w", common.ErrDatabaseCorrupted, r.ID, err)
		}
	}
	if len(r.Specs) > 0 {
		if err := json.Unmarshal(r.Specs, &p.Specs); err != nil {
			return p, fmt.Errorf("%w: specs for %s: %w", common.ErrDatabaseCorrupted, r.ID, err)
		}
	}
	return p, nil
}

// SaveProducts upserts catalog products in one transaction.
func (s *Store) SaveProducts(ctx context.Context, products []model.Product) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := storage.ValidateProducts(products); err != nil {
		return err
	}

	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		row, err := toProductRow(p)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to upsert products: %w", err)
		}
		return nil
	})
}

// GetProducts lists products ordered by id, optionally filtered by type.
func (s *Store) GetProducts(ctx context.Context, productType *model.ProductType) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := s.DB.WithContext(ctx).Order("id")
	if productType != nil {
		q = q.Where("type = ?", string(*productType))
	}

	var rows []productRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct returns one product by id.
func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row productRow
	err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ---- Feedback ----

type feedbackRow struct {
	CreatedAt     time.Time `gorm:"column:created_at;not null;index"`
	ID            string    `gorm:"column:id;primaryKey"`
	Kind          string    `gorm:"column:kind;not null"`
	ProductID     string    `gorm:"column:product_id;not null;index"`
	TrueProductID string    `gorm:"column:true_product_id"`
	Brand         string    `gorm:"column:brand"`
	RawToken      string    `gorm:"column:raw_token;not null"`
	Source        string    `gorm:"column:source"`
	Evidence      []byte    `gorm:"column:evidence"`
	Score         float64   `gorm:"column:score"`
}

func (feedbackRow) TableName() string {
	return "feedback_events"
}

func toFeedbackRow(e *model.FeedbackEvent) (feedbackRow, error) {
	evidence, err := json.Marshal(e.Evidence)
	if err != nil {
		return feedbackRow{}, fmt.Errorf("failed to encode evidence: %w", err)
	}
	return feedbackRow{
		ID:            e.ID,
		Kind:          string(e.Kind),
		ProductID:     e.ProductID,
		TrueProductID: e.TrueProductID,
		Brand:         e.Brand,
		RawToken:      e.RawToken,
		Source:        e.Source,
		Score:         e.Score,
		Evidence:      evidence,
		CreatedAt:     e.CreatedAt,
	}, nil
}

func (r feedbackRow) toModel() (model.FeedbackEvent, error) {
	e := model.FeedbackEvent{
		ID:            r.ID,
		Kind:          model.FeedbackKind(r.Kind),
		ProductID:     r.ProductID,
		TrueProductID: r.TrueProductID,
		Brand:         r.Brand,
		RawToken:      r.RawToken,
		Source:        r.Source,
		Score:         r.Score,
		CreatedAt:     r.CreatedAt,
	}
	if len(r.Evidence) > 0 {
		if err := json.Unmarshal(r.Evidence, &e.Evidence); err != nil {
			return e, fmt.Errorf("%w: evidence for %s: %w", common.ErrDatabaseCorrupted, r.ID, err)
		}
	}
	return e, nil
}

// RecordFeedback appends a feedback event, filling in its id and timestamp.
func (s *Store) RecordFeedback(ctx context.Context, event *model.FeedbackEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := storage.ValidateFeedback(event); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	row, err := toFeedbackRow(event)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save feedback event: %w", err)
	}
	return nil
}

// GetFeedback returns recent feedback, newest first. A non-positive limit returns all.
func (s *Store) GetFeedback(ctx context.Context, limit int) ([]model.FeedbackEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := s.DB.WithContext(ctx).Order("created_at DESC").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []feedbackRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query feedback_events: %w", err)
	}

	events := make([]model.FeedbackEvent, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
