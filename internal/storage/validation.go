// Package storage provides the data persistence layer for the sunwise application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrEmptySlice      = errors.New("slice cannot be empty")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidFeedback = errors.New("invalid feedback event")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateProducts validates a slice of products.
func validateProducts(products []model.Product) error {
	if products == nil {
		return fmt.Errorf("%w: products", ErrNilParameter)
	}
	if len(products) == 0 {
		return fmt.Errorf("%w: products", ErrEmptySlice)
	}

	seen := make(map[string]bool, len(products))
	for i := range products {
		if err := validateProduct(&products[i]); err != nil {
			return fmt.Errorf("product at index %d: %w", i, err)
		}
		if seen[products[i].ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidProduct, products[i].ID)
		}
		seen[products[i].ID] = true
	}
	return nil
}

// validateProduct validates a single product, including its seed regex.
func validateProduct(p *model.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product", ErrNilParameter)
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProduct)
	}
	if !p.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidProduct, p.Type)
	}
	if strings.TrimSpace(p.Brand) == "" {
		return fmt.Errorf("%w: missing brand", ErrInvalidProduct)
	}
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("%w: missing model", ErrInvalidProduct)
	}
	if p.Regex != "" {
		if _, err := common.CompileFold(p.Regex); err != nil {
			return fmt.Errorf("%w: bad regex %q: %w", ErrInvalidProduct, p.Regex, err)
		}
	}
	return nil
}

// validateFeedback validates a feedback event.
func validateFeedback(event *model.FeedbackEvent) error {
	if event == nil {
		return fmt.Errorf("%w: feedback event", ErrNilParameter)
	}
	if strings.TrimSpace(event.ProductID) == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidFeedback)
	}
	if strings.TrimSpace(event.RawToken) == "" {
		return fmt.Errorf("%w: missing raw token", ErrInvalidFeedback)
	}

	switch event.Kind {
	case model.FeedbackConfirm:
	case model.FeedbackCorrect:
		if strings.TrimSpace(event.TrueProductID) == "" {
			return fmt.Errorf("%w: correction without true product id", ErrInvalidFeedback)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidFeedback, event.Kind)
	}

	if event.Score < 0 || event.Score > 1 {
		return fmt.Errorf("%w: score must be between 0 and 1", ErrInvalidFeedback)
	}
	return nil
}

// validateLearningState ensures a state can be persisted.
func validateLearningState(state *model.LearningState) error {
	if state == nil {
		return fmt.Errorf("%w: learning state", ErrNilParameter)
	}
	return nil
}

// ValidateProducts applies catalog validation for stores outside this package.
func ValidateProducts(products []model.Product) error {
	return validateProducts(products)
}

// ValidateFeedback applies feedback validation for stores outside this package.
func ValidateFeedback(event *model.FeedbackEvent) error {
	return validateFeedback(event)
}
