package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/sunwise/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrNoLearner is returned when the review screen is started without a matcher.
var ErrNoLearner = errors.New("learner is required")

// RunReview shows the review screen until the user quits and returns what was decided.
func RunReview(ctx context.Context, learner Learner, hits []model.MatchHit, opts ...Option) (Summary, error) {
	if learner == nil {
		return Summary{}, ErrNoLearner
	}

	m := NewModel(ctx, learner, hits, opts...)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return m.Summary(), fmt.Errorf("review screen failed: %w", err)
	}
	return m.Summary(), nil
}
