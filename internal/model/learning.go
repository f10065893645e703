package model

import "time"

// Learning state storage keys.
const (
	KeyWeights         = "mm.weights"
	KeyAliases         = "mm.aliases"
	KeyRegexes         = "mm.regexes"
	KeyBrandThresholds = "mm.brandThresholds"
)

// Weights are the scoring coefficients for each evidence feature.
type Weights struct {
	Regex      float64 `json:"regex"`
	Alias      float64 `json:"alias"`
	Section    float64 `json:"section"`
	Qty        float64 `json:"qty"`
	Brand      float64 `json:"brand"`
	Spec       float64 `json:"spec"`
	OCRPenalty float64 `json:"ocrPenalty"`
}

// DefaultWeights returns the weights used before any feedback has been learned.
func DefaultWeights() Weights {
	return Weights{
		Regex:      0.45,
		Alias:      0.30,
		Section:    0.20,
		Qty:        0.15,
		Brand:      0.10,
		Spec:       0.10,
		OCRPenalty: 0.15,
	}
}

// AliasMap maps product IDs to learned, uppercase aliases.
type AliasMap map[string][]string

// RegexMap maps product IDs to the most recently learned regex.
type RegexMap map[string]string

// BrandThresholds maps brands to their auto-accept confidence threshold.
type BrandThresholds map[string]float64

// LearningState is everything the matcher learns from user feedback.
type LearningState struct {
	Aliases         AliasMap        `json:"aliases"`
	Regexes         RegexMap        `json:"regexes"`
	BrandThresholds BrandThresholds `json:"brandThresholds"`
	Weights         Weights         `json:"weights"`
}

// NewLearningState returns an empty state with default weights.
func NewLearningState() *LearningState {
	return &LearningState{
		Weights:         DefaultWeights(),
		Aliases:         make(AliasMap),
		Regexes:         make(RegexMap),
		BrandThresholds: make(BrandThresholds),
	}
}

// Clone returns a deep copy so callers can persist a snapshot while the original keeps changing.
func (s *LearningState) Clone() *LearningState {
	c := &LearningState{
		Weights:         s.Weights,
		Aliases:         make(AliasMap, len(s.Aliases)),
		Regexes:         make(RegexMap, len(s.Regexes)),
		BrandThresholds: make(BrandThresholds, len(s.BrandThresholds)),
	}
	for id, aliases := range s.Aliases {
		c.Aliases[id] = append([]string(nil), aliases...)
	}
	for id, re := range s.Regexes {
		c.Regexes[id] = re
	}
	for brand, th := range s.BrandThresholds {
		c.BrandThresholds[brand] = th
	}
	return c
}

// FeedbackKind distinguishes confirmations from corrections.
type FeedbackKind string

const (
	// FeedbackConfirm records that a hit was accepted.
	FeedbackConfirm FeedbackKind = "confirm"
	// FeedbackCorrect records that a hit was wrong and names the right product.
	FeedbackCorrect FeedbackKind = "correct"
)

// FeedbackEvent is an audit record of one confirm or correct decision.
type FeedbackEvent struct {
	CreatedAt     time.Time    `json:"created_at"`
	ID            string       `json:"id"`
	Kind          FeedbackKind `json:"kind"`
	ProductID     string       `json:"product_id"`
	TrueProductID string       `json:"true_product_id,omitempty"`
	Brand         string       `json:"brand"`
	RawToken      string       `json:"raw_token"`
	Source        string       `json:"source,omitempty"`
	Evidence      Evidence     `json:"evidence"`
	Score         float64      `json:"score"`
}

// NewFeedbackEvent builds the audit record for a decision on hit.
// trueProductID is only meaningful for corrections. ID and CreatedAt are left to the recorder.
func NewFeedbackEvent(kind FeedbackKind, hit MatchHit, trueProductID, rawToken, source string) *FeedbackEvent {
	if rawToken == "" {
		rawToken = hit.Raw
	}
	e := &FeedbackEvent{
		Kind:      kind,
		ProductID: hit.ProductID,
		Brand:     hit.Product.Brand,
		RawToken:  rawToken,
		Source:    source,
		Evidence:  hit.Evidence,
		Score:     hit.Score,
	}
	if kind == FeedbackCorrect {
		e.TrueProductID = trueProductID
	}
	return e
}
