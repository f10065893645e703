package matcher

import "github.com/Veraticus/sunwise/internal/model"

// Online learning constants.
const (
	LearningRate = 0.08
	MinWeight    = 0.01
	MaxWeight    = 0.8
)

// UpdateWeights nudges each weight by ±LearningRate times the feature value that
// produced ev, then clamps every weight to [MinWeight, MaxWeight]. Every feature,
// the OCR penalty included, moves in the direction of the feedback.
func UpdateWeights(w model.Weights, ev model.Evidence, positive bool) model.Weights {
	step := LearningRate
	if !positive {
		step = -LearningRate
	}

	w.Regex = clamp(w.Regex+step*boolToFloat(ev.RegexHit), MinWeight, MaxWeight)
	w.Alias = clamp(w.Alias+step*boolToFloat(ev.AliasHit), MinWeight, MaxWeight)
	w.Section = clamp(w.Section+step*ev.SectionBoost, MinWeight, MaxWeight)
	w.Qty = clamp(w.Qty+step*ev.QtyBoost, MinWeight, MaxWeight)
	w.Brand = clamp(w.Brand+step*boolToFloat(ev.BrandNearby), MinWeight, MaxWeight)
	w.Spec = clamp(w.Spec+step*boolToFloat(ev.SpecNearby), MinWeight, MaxWeight)
	w.OCRPenalty = clamp(w.OCRPenalty+step*ev.OCRRiskPenalty, MinWeight, MaxWeight)
	return w
}
