// Package matcher finds catalog products in OCR'd proposal text and learns from
// user confirmations and corrections.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/service"
)

var (
	// ErrNotInitialized is returned when the matcher is used before Init.
	ErrNotInitialized = errors.New("matcher not initialized")
	// ErrUnknownProduct is returned when feedback names a product outside the catalog.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrNilStore is returned by Init when no learning store was provided.
	ErrNilStore = errors.New("learning store is nil")
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("context cannot be nil")
	// ErrPersistFailed wraps store failures after feedback was applied in memory.
	ErrPersistFailed = errors.New("failed to persist learning state")
)

// Option configures a SmartMatcher.
type Option func(*SmartMatcher)

// WithWindowRadius sets how many characters either side of a match are searched for context.
func WithWindowRadius(radius int) Option {
	return func(m *SmartMatcher) {
		if radius > 0 {
			m.windowRadius = radius
		}
	}
}

// WithSectionAnchors replaces the headings that earn a section boost.
func WithSectionAnchors(anchors []string) Option {
	return func(m *SmartMatcher) {
		m.sectionAnchors = make([]string, 0, len(anchors))
		for _, a := range anchors {
			if a = strings.ToUpper(strings.TrimSpace(a)); a != "" {
				m.sectionAnchors = append(m.sectionAnchors, a)
			}
		}
	}
}

// SmartMatcher scores product mentions and adapts its rules from feedback.
// It is safe for concurrent use once initialized.
type SmartMatcher struct {
	store          service.LearningStore
	state          *model.LearningState
	products       map[string]*model.Product
	compiled       map[string]*regexp.Regexp
	order          []string
	sectionAnchors []string
	windowRadius   int
	mu             sync.RWMutex
}

// New creates a matcher for products backed by store. Init must be called before use.
func New(store service.LearningStore, products []model.Product, opts ...Option) *SmartMatcher {
	m := &SmartMatcher{
		store:          store,
		products:       make(map[string]*model.Product, len(products)),
		compiled:       make(map[string]*regexp.Regexp),
		sectionAnchors: append([]string(nil), DefaultSectionAnchors...),
		windowRadius:   DefaultWindowRadius,
	}
	for i := range products {
		p := products[i]
		if _, dup := m.products[p.ID]; dup {
			slog.Warn("Duplicate product id in catalog; keeping first", "product_id", p.ID)
			continue
		}
		m.products[p.ID] = &p
		m.order = append(m.order, p.ID)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init loads learned state and compiles every seed and learned pattern.
// Failure to read the store is fatal: the matcher stays uninitialized.
func (m *SmartMatcher) Init(ctx context.Context) error {
	if m.store == nil {
		return ErrNilStore
	}

	state, err := m.store.LoadLearningState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load learning state: %w", err)
	}
	if state == nil {
		state = model.NewLearningState()
	}
	fillDefaults(state)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state
	for _, id := range m.order {
		p := m.products[id]
		if p.Regex != "" {
			m.compileLocked(p.Regex, id)
		}
		if learned := state.Regexes[id]; learned != "" {
			m.compileLocked(learned, id)
		}
	}

	slog.Debug("Matcher initialized",
		"products", len(m.products),
		"learned_aliases", len(state.Aliases),
		"learned_regexes", len(state.Regexes))
	return nil
}

func fillDefaults(state *model.LearningState) {
	if state.Aliases == nil {
		state.Aliases = make(model.AliasMap)
	}
	if state.Regexes == nil {
		state.Regexes = make(model.RegexMap)
	}
	if state.BrandThresholds == nil {
		state.BrandThresholds = make(model.BrandThresholds)
	}
}

// compileLocked returns the compiled case-insensitive pattern, caching it.
// Invalid patterns are logged once and cached as nil.
func (m *SmartMatcher) compileLocked(pattern, productID string) *regexp.Regexp {
	if re, ok := m.compiled[pattern]; ok {
		return re
	}
	re, err := common.CompileFold(pattern)
	if err != nil {
		slog.Warn("Skipping invalid product pattern",
			"product_id", productID,
			"pattern", pattern,
			"error", err)
		re = nil
	}
	m.compiled[pattern] = re
	return re
}

// Match returns the best hit per product found in text, highest score first.
func (m *SmartMatcher) Match(ctx context.Context, text string) ([]model.MatchHit, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Write lock: alias and learned patterns are compiled lazily into the cache.
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil, ErrNotInitialized
	}

	norm := Normalize(text)
	hits := []model.MatchHit{}
	if norm == "" {
		return hits, nil
	}

	for _, id := range m.order {
		p := m.products[id]
		best, ok := m.regexPass(norm, p)
		if !ok {
			best, ok = m.aliasPass(norm, p)
		}
		if ok {
			hits = append(hits, best)
		}
	}

	sortHits(hits)
	return hits, nil
}

func (m *SmartMatcher) regexPass(text string, p *model.Product) (model.MatchHit, bool) {
	var patterns []string
	if p.Regex != "" {
		patterns = append(patterns, p.Regex)
	}
	if learned := m.state.Regexes[p.ID]; learned != "" && learned != p.Regex {
		patterns = append(patterns, learned)
	}
	return m.scan(text, p, patterns, true)
}

func (m *SmartMatcher) aliasPass(text string, p *model.Product) (model.MatchHit, bool) {
	seen := make(map[string]bool)
	var patterns []string
	for _, alias := range append(append([]string(nil), p.Aliases...), m.state.Aliases[p.ID]...) {
		pattern := aliasPattern(alias)
		if pattern == "" || seen[pattern] {
			continue
		}
		seen[pattern] = true
		patterns = append(patterns, pattern)
	}
	return m.scan(text, p, patterns, false)
}

// scan evaluates every non-overlapping match of each pattern and keeps the best.
func (m *SmartMatcher) scan(text string, p *model.Product, patterns []string, regexHit bool) (model.MatchHit, bool) {
	var best model.MatchHit
	found := false

	for _, pattern := range patterns {
		re := m.compileLocked(pattern, p.ID)
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			ev := m.collectEvidence(text, loc[0], loc[1], p, regexHit)
			score := Score(ev, m.state.Weights)
			if score <= 0 {
				continue
			}
			if !found || score > best.Score || (score == best.Score && loc[0] < best.At) {
				best = model.MatchHit{
					Product:   *p,
					ProductID: p.ID,
					Raw:       text[loc[0]:loc[1]],
					Evidence:  ev,
					Score:     score,
					At:        loc[0],
				}
				found = true
			}
		}
	}
	return best, found
}

func sortHits(hits []model.MatchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].At != hits[j].At {
			return hits[i].At < hits[j].At
		}
		return hits[i].ProductID < hits[j].ProductID
	})
}

// Initialized reports whether Init has completed.
func (m *SmartMatcher) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != nil
}

// Products returns the catalog in the order it was supplied.
func (m *SmartMatcher) Products() []model.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Product, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.products[id])
	}
	return out
}

// Product looks up a catalog product by id.
func (m *SmartMatcher) Product(id string) (model.Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return model.Product{}, false
	}
	return *p, true
}

// Weights returns the current scoring weights.
func (m *SmartMatcher) Weights() model.Weights {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return model.DefaultWeights()
	}
	return m.state.Weights
}

// Aliases returns the learned aliases for a product.
func (m *SmartMatcher) Aliases(productID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil
	}
	return append([]string(nil), m.state.Aliases[productID]...)
}

// LearnedRegex returns the most recently learned pattern for a product.
func (m *SmartMatcher) LearnedRegex(productID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return ""
	}
	return m.state.Regexes[productID]
}

// State returns a snapshot of everything learned so far.
func (m *SmartMatcher) State() *model.LearningState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return model.NewLearningState()
	}
	return m.state.Clone()
}
