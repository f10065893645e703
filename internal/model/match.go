package model

// Evidence is the feature breakdown behind a match score.
type Evidence struct {
	RegexHit       bool    `json:"regex_hit"`
	AliasHit       bool    `json:"alias_hit"`
	BrandNearby    bool    `json:"brand_nearby"`
	SpecNearby     bool    `json:"spec_nearby"`
	SectionBoost   float64 `json:"section_boost"`
	QtyBoost       float64 `json:"qty_boost"`
	OCRRiskPenalty float64 `json:"ocr_risk_penalty"`
}

// MatchHit is a scored occurrence of a product in document text.
type MatchHit struct {
	Product   Product  `json:"product"`
	ProductID string   `json:"product_id"`
	Raw       string   `json:"raw"`
	Evidence  Evidence `json:"evidence"`
	Score     float64  `json:"score"`
	At        int      `json:"at"`
}
