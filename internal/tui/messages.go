package tui

import "github.com/Veraticus/sunwise/internal/model"

// learnedMsg reports the outcome of a confirm or correct on the hit at index.
type learnedMsg struct {
	err         error
	recordErr   error
	kind        model.FeedbackKind
	trueProduct string
	index       int
}
