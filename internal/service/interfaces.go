// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/sunwise/internal/model"
)

// LearningStore persists the matcher's learned state.
// Loads return defaults for any key that has never been written.
type LearningStore interface {
	LoadLearningState(ctx context.Context) (*model.LearningState, error)
	SaveLearningState(ctx context.Context, state *model.LearningState) error
}

// Catalog provides the products the matcher searches for.
type Catalog interface {
	SaveProducts(ctx context.Context, products []model.Product) error
	GetProducts(ctx context.Context, productType *model.ProductType) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

// FeedbackRecorder keeps an audit trail of confirm and correct decisions.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, event *model.FeedbackEvent) error
	GetFeedback(ctx context.Context, limit int) ([]model.FeedbackEvent, error)
}

// Storage is the full persistence layer used by the CLI.
type Storage interface {
	LearningStore
	Catalog
	FeedbackRecorder

	Migrate(ctx context.Context) error
	Close() error
}
