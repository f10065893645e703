package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Veraticus/sunwise/internal/matcher"
	"github.com/Veraticus/sunwise/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type correction struct {
	falseID string
	trueID  string
}

type fakeLearner struct {
	err         error
	products    map[string]model.Product
	confirmed   []string
	corrections []correction
}

func (f *fakeLearner) LearnConfirm(_ context.Context, hit model.MatchHit, _ string) error {
	if f.err != nil && !errors.Is(f.err, matcher.ErrPersistFailed) {
		return f.err
	}
	f.confirmed = append(f.confirmed, hit.ProductID)
	return f.err
}

func (f *fakeLearner) LearnCorrection(_ context.Context, falseHit model.MatchHit, trueProduct model.Product, _ string) error {
	if f.err != nil && !errors.Is(f.err, matcher.ErrPersistFailed) {
		return f.err
	}
	f.corrections = append(f.corrections, correction{falseID: falseHit.ProductID, trueID: trueProduct.ID})
	return f.err
}

func (f *fakeLearner) Product(id string) (model.Product, bool) {
	p, ok := f.products[id]
	return p, ok
}

func (f *fakeLearner) AutoAcceptThreshold(string) float64 {
	return matcher.DefaultThreshold
}

type fakeRecorder struct {
	err    error
	events []model.FeedbackEvent
}

func (f *fakeRecorder) RecordFeedback(_ context.Context, event *model.FeedbackEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeRecorder) GetFeedback(_ context.Context, _ int) ([]model.FeedbackEvent, error) {
	return f.events, nil
}

var (
	jinko  = model.Product{ID: "panel-jinko-440", Type: model.ProductTypePanel, Brand: "Jinko", Model: "JKM440N-54HL4"}
	tesla  = model.Product{ID: "battery-tesla-pw2", Type: model.ProductTypeBattery, Brand: "Tesla", Model: "Powerwall 2"}
	byd    = model.Product{ID: "battery-byd-hvm-11", Type: model.ProductTypeBattery, Brand: "BYD", Model: "HVM 11.0"}
	fronis = model.Product{ID: "inverter-fronius-primo-5", Type: model.ProductTypeInverter, Brand: "Fronius", Model: "Primo 5.0-1"}
)

func testHits() []model.MatchHit {
	return []model.MatchHit{
		{Product: jinko, ProductID: jinko.ID, Raw: "JKM440N-54HL4", Score: 0.8, At: 30},
		{Product: tesla, ProductID: tesla.ID, Raw: "POWERWALL 2", Score: 0.55, At: 90},
		{Product: fronis, ProductID: fronis.ID, Raw: "PRIMO 5.0-1", Score: 0.5, At: 60},
	}
}

func newFakes() (*fakeLearner, *fakeRecorder) {
	learner := &fakeLearner{products: map[string]model.Product{
		jinko.ID: jinko, tesla.ID: tesla, byd.ID: byd, fronis.ID: fronis,
	}}
	return learner, &fakeRecorder{}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and runs any learning command it returns synchronously.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd == nil {
		return m
	}
	if out, ok := cmd().(learnedMsg); ok {
		updated, _ = m.Update(out)
		m = updated.(Model)
	}
	return m
}

func TestModel_Navigation(t *testing.T) {
	learner, _ := newFakes()
	m := NewModel(context.Background(), learner, testHits())

	tests := []struct {
		msg  tea.Msg
		name string
		want int
	}{
		{name: "up at top stays", msg: tea.KeyMsg{Type: tea.KeyUp}, want: 0},
		{name: "down", msg: keyRunes("j"), want: 1},
		{name: "down arrow", msg: tea.KeyMsg{Type: tea.KeyDown}, want: 2},
		{name: "down at bottom stays", msg: keyRunes("j"), want: 2},
		{name: "home", msg: keyRunes("g"), want: 0},
		{name: "end", msg: keyRunes("G"), want: 2},
		{name: "up", msg: keyRunes("k"), want: 1},
	}
	for _, tt := range tests {
		m = press(t, m, tt.msg)
		assert.Equal(t, tt.want, m.Cursor(), tt.name)
	}
}

func TestModel_Confirm(t *testing.T) {
	learner, recorder := newFakes()
	m := NewModel(context.Background(), learner, testHits(), WithRecorder(recorder), WithSource("quote.txt"))

	m = press(t, m, keyRunes("y"))

	assert.Equal(t, []string{jinko.ID}, learner.confirmed)
	require.Len(t, recorder.events, 1)
	event := recorder.events[0]
	assert.Equal(t, model.FeedbackConfirm, event.Kind)
	assert.Equal(t, jinko.ID, event.ProductID)
	assert.Equal(t, "Jinko", event.Brand)
	assert.Equal(t, "JKM440N-54HL4", event.RawToken)
	assert.Equal(t, "quote.txt", event.Source)
	assert.Empty(t, event.TrueProductID)

	assert.Contains(t, m.Status(), "Confirmed Jinko JKM440N-54HL4")
	assert.Equal(t, 1, m.Cursor(), "cursor advances to the next unreviewed hit")
	assert.Equal(t, Summary{Confirmed: 1, Skipped: 2}, m.Summary())

	m = press(t, m, keyRunes("k"))
	m = press(t, m, keyRunes("y"))
	assert.Len(t, learner.confirmed, 1, "a reviewed hit cannot be confirmed twice")
	assert.Contains(t, m.Status(), "already been reviewed")
}

func TestModel_Correct(t *testing.T) {
	learner, recorder := newFakes()
	m := NewModel(context.Background(), learner, testHits(), WithRecorder(recorder))

	m = press(t, m, keyRunes("j"))
	m = press(t, m, keyRunes("c"))
	require.Equal(t, StateCorrect, m.CurrentState())

	// Keys are typed into the input while correcting.
	m = press(t, m, keyRunes("battery-byd-hvm-11"))
	assert.Empty(t, learner.confirmed)
	assert.Equal(t, StateCorrect, m.CurrentState())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateBrowse, m.CurrentState())
	assert.Equal(t, []correction{{falseID: tesla.ID, trueID: byd.ID}}, learner.corrections)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, model.FeedbackCorrect, recorder.events[0].Kind)
	assert.Equal(t, tesla.ID, recorder.events[0].ProductID)
	assert.Equal(t, byd.ID, recorder.events[0].TrueProductID)

	assert.Equal(t, Summary{Corrected: 1, Skipped: 2}, m.Summary())
	assert.Equal(t, 2, m.Cursor())
	m = press(t, m, keyRunes("k"))
	assert.Contains(t, m.View(), "corrected to battery-byd-hvm-11")
}

func TestModel_CorrectRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		typed  string
		status string
	}{
		{name: "empty", typed: "", status: "Enter the id"},
		{name: "unknown product", typed: "battery-nope", status: `Unknown product "battery-nope"`},
		{name: "same product", typed: jinko.ID, status: "That is the matched product"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			learner, _ := newFakes()
			m := NewModel(context.Background(), learner, testHits())
			m = press(t, m, keyRunes("c"))
			if tt.typed != "" {
				m = press(t, m, keyRunes(tt.typed))
			}
			m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

			assert.Equal(t, StateCorrect, m.CurrentState())
			assert.Contains(t, m.Status(), tt.status)
			assert.Empty(t, learner.corrections)
		})
	}
}

func TestModel_CorrectCancel(t *testing.T) {
	learner, _ := newFakes()
	m := NewModel(context.Background(), learner, testHits())

	m = press(t, m, keyRunes("c"))
	m = press(t, m, keyRunes("battery"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, StateBrowse, m.CurrentState())
	assert.Empty(t, learner.corrections)
	assert.Equal(t, 0, m.Cursor())
}

func TestModel_LearningErrors(t *testing.T) {
	tests := []struct {
		err         error
		name        string
		status      string
		want        Summary
		wantRecords int
	}{
		{
			name:        "persistence failure keeps the decision",
			err:         fmt.Errorf("%w: disk full", matcher.ErrPersistFailed),
			status:      "kept for this session only",
			want:        Summary{Confirmed: 1, Unsaved: 1, Skipped: 2},
			wantRecords: 1,
		},
		{
			name:   "rejected feedback leaves the hit open",
			err:    fmt.Errorf("%w: %s", matcher.ErrUnknownProduct, jinko.ID),
			status: "Could not learn",
			want:   Summary{Skipped: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			learner, recorder := newFakes()
			learner.err = tt.err
			m := NewModel(context.Background(), learner, testHits(), WithRecorder(recorder))

			m = press(t, m, keyRunes("y"))

			assert.Contains(t, m.Status(), tt.status)
			assert.Equal(t, tt.want, m.Summary())
			assert.Len(t, recorder.events, tt.wantRecords)
		})
	}
}

func TestModel_RecorderFailure(t *testing.T) {
	learner, recorder := newFakes()
	recorder.err = errors.New("feedback table locked")
	m := NewModel(context.Background(), learner, testHits(), WithRecorder(recorder))

	m = press(t, m, keyRunes("y"))

	assert.Equal(t, Summary{Confirmed: 1, Skipped: 2}, m.Summary())
	assert.Contains(t, m.Status(), "feedback log not updated")
}

func TestModel_PendingBlocksRepeat(t *testing.T) {
	learner, _ := newFakes()
	m := NewModel(context.Background(), learner, testHits())

	updated, cmd := m.Update(keyRunes("y"))
	require.NotNil(t, cmd)
	m = updated.(Model)

	updated, cmd = m.Update(keyRunes("y"))
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.Contains(t, m.Status(), "Still saving")
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		name string
	}{
		{name: "q", msg: keyRunes("q")},
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			learner, _ := newFakes()
			m := NewModel(context.Background(), learner, testHits())
			updated, cmd := m.Update(tt.msg)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, updated.View())
		})
	}
}

func TestModel_View(t *testing.T) {
	learner, _ := newFakes()

	empty := NewModel(context.Background(), learner, nil)
	assert.Contains(t, empty.View(), "No catalog products found")
	updated, cmd := empty.Update(keyRunes("y"))
	assert.Nil(t, cmd)
	assert.Equal(t, Summary{}, updated.(Model).Summary())

	m := NewModel(context.Background(), learner, testHits(), WithSource("quote.txt"))
	updated, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := updated.View()
	assert.Contains(t, view, "quote.txt")
	assert.Contains(t, view, "Jinko JKM440N-54HL4")
	assert.Contains(t, view, "Tesla Powerwall 2")
	assert.Contains(t, view, "0.75")
	assert.Contains(t, view, "3 to review")
}

func TestRunReview_NoLearner(t *testing.T) {
	_, err := RunReview(context.Background(), nil, testHits())
	assert.ErrorIs(t, err, ErrNoLearner)
}

func TestKeyMap_Help(t *testing.T) {
	keys := DefaultKeyMap()
	assert.Len(t, keys.ShortHelp(), 4)
	assert.Len(t, keys.FullHelp(), 3)
}
