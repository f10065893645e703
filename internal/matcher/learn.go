package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/Veraticus/sunwise/internal/model"
)

// Auto-accept threshold constants.
const (
	DefaultThreshold = 0.75
	MinThreshold     = 0.65
	MaxThreshold     = 0.90
	ConfirmStep      = 0.01
	CorrectionStep   = 0.02
)

// AutoAcceptThreshold returns the score above which hits for brand may be accepted
// without asking the user.
func (m *SmartMatcher) AutoAcceptThreshold(brand string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.thresholdLocked(brandKey(brand))
}

func (m *SmartMatcher) thresholdLocked(key string) float64 {
	if m.state == nil {
		return DefaultThreshold
	}
	if th, ok := m.state.BrandThresholds[key]; ok {
		return th
	}
	return DefaultThreshold
}

func brandKey(brand string) string {
	return strings.ToUpper(strings.TrimSpace(brand))
}

// LearnConfirm records that hit was correct for seenRawToken. The token becomes an
// alias and the product's learned regex, its OCR variants are added as aliases, the
// weights move toward the hit's evidence and the brand threshold eases.
//
// In-memory state is always updated. A persistence failure is logged and returned.
func (m *SmartMatcher) LearnConfirm(ctx context.Context, hit model.MatchHit, seenRawToken string) error {
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	product, ok := m.products[hit.ProductID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownProduct, hit.ProductID)
	}

	token := feedbackToken(seenRawToken, hit.Raw)
	if token != "" {
		m.addAliasLocked(product.ID, token)
		m.state.Regexes[product.ID] = GenerateRegexFromModel(token)
		for _, variant := range FuzzAliases(token) {
			m.addAliasLocked(product.ID, variant)
		}
	}

	m.state.Weights = UpdateWeights(m.state.Weights, hit.Evidence, true)

	key := brandKey(product.Brand)
	m.state.BrandThresholds[key] = math.Max(MinThreshold, m.thresholdLocked(key)-ConfirmStep)

	snapshot := m.state.Clone()
	m.mu.Unlock()

	slog.Debug("Learned confirmation",
		"product_id", product.ID,
		"token", token,
		"threshold", snapshot.BrandThresholds[key])
	return m.persist(ctx, snapshot, product.ID)
}

// LearnCorrection records that falseHit was wrong and seenRawToken actually names
// trueProduct. The false hit's brand threshold tightens, the token is learned under
// the true product, and the weights move away from the false hit's evidence.
//
// In-memory state is always updated. A persistence failure is logged and returned.
func (m *SmartMatcher) LearnCorrection(ctx context.Context, falseHit model.MatchHit, trueProduct model.Product, seenRawToken string) error {
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	truth, ok := m.products[trueProduct.ID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownProduct, trueProduct.ID)
	}

	falseBrand := falseHit.Product.Brand
	if p, ok := m.products[falseHit.ProductID]; ok {
		falseBrand = p.Brand
	}
	key := brandKey(falseBrand)
	m.state.BrandThresholds[key] = math.Min(MaxThreshold, m.thresholdLocked(key)+CorrectionStep)

	token := feedbackToken(seenRawToken, falseHit.Raw)
	if token != "" {
		m.addAliasLocked(truth.ID, token)
		m.state.Regexes[truth.ID] = GenerateRegexFromModel(token)
	}

	m.state.Weights = UpdateWeights(m.state.Weights, falseHit.Evidence, false)

	snapshot := m.state.Clone()
	m.mu.Unlock()

	slog.Debug("Learned correction",
		"false_product_id", falseHit.ProductID,
		"true_product_id", truth.ID,
		"token", token,
		"threshold", snapshot.BrandThresholds[key])
	return m.persist(ctx, snapshot, truth.ID)
}

func (m *SmartMatcher) persist(ctx context.Context, snapshot *model.LearningState, productID string) error {
	if err := m.store.SaveLearningState(ctx, snapshot); err != nil {
		slog.Warn("Failed to persist learning state; feedback kept for this session only",
			"product_id", productID,
			"error", err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

// addAliasLocked appends alias unless the product already has it.
func (m *SmartMatcher) addAliasLocked(productID, alias string) {
	if slices.Contains(m.state.Aliases[productID], alias) {
		return
	}
	m.state.Aliases[productID] = append(m.state.Aliases[productID], alias)
}

// feedbackToken prefers what the user saw and falls back to the matched text.
func feedbackToken(seen, raw string) string {
	if t := normalizeToken(seen); t != "" {
		return t
	}
	return normalizeToken(raw)
}
