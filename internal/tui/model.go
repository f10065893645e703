// Package tui provides the interactive review screen where matched products are
// confirmed or corrected.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/sunwise/internal/matcher"
	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/service"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// State represents the current input mode.
type State int

const (
	// StateBrowse moves between hits and accepts confirm/correct keys.
	StateBrowse State = iota
	// StateCorrect is collecting the true product id for the selected hit.
	StateCorrect
)

// decision is what the user did with one hit.
type decision struct {
	err         error
	kind        model.FeedbackKind
	trueProduct string
	pending     bool
}

func (d decision) done() bool {
	return d.kind != "" && !d.pending
}

// Summary counts review outcomes.
type Summary struct {
	Confirmed int
	Corrected int
	Unsaved   int
	Skipped   int
}

// Model is the review screen state.
type Model struct {
	ctx       context.Context
	learner   Learner
	recorder  service.FeedbackRecorder
	keys      KeyMap
	help      help.Model
	input     textinput.Model
	source    string
	status    string
	hits      []model.MatchHit
	decisions []decision
	cursor    int
	width     int
	height    int
	state     State
	statusErr bool
	quitting  bool
}

// NewModel creates a review screen over hits.
func NewModel(ctx context.Context, learner Learner, hits []model.MatchHit, opts ...Option) Model {
	cfg := defaultConfig()
	cfg.Learner = learner
	cfg.Hits = hits
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(ctx, cfg)
}

func newModel(ctx context.Context, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "true product id"
	input.Prompt = "› "
	input.CharLimit = 128
	input.Cursor.SetMode(cursor.CursorStatic)

	h := help.New()
	h.ShowAll = cfg.ShowHelp
	h.Width = cfg.Width

	return Model{
		ctx:       ctx,
		learner:   cfg.Learner,
		recorder:  cfg.Recorder,
		keys:      cfg.Keys,
		help:      h,
		input:     input,
		source:    cfg.Source,
		hits:      cfg.Hits,
		decisions: make([]decision, len(cfg.Hits)),
		width:     cfg.Width,
		height:    cfg.Height,
		state:     StateBrowse,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case learnedMsg:
		m.handleLearned(msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.state == StateCorrect {
			return m.updateCorrect(msg)
		}
		return m.updateBrowse(msg)
	}

	if m.state == StateCorrect {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.hits)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		if len(m.hits) > 0 {
			m.cursor = len(m.hits) - 1
		}
	case key.Matches(msg, m.keys.Confirm):
		if !m.actionable() {
			return m, nil
		}
		m.decisions[m.cursor].pending = true
		m.setStatus("Confirming "+m.hits[m.cursor].Product.DisplayName()+"...", false)
		return m, m.confirmCmd(m.cursor)
	case key.Matches(msg, m.keys.Correct):
		if !m.actionable() {
			return m, nil
		}
		m.state = StateCorrect
		m.input.Reset()
		m.setStatus("", false)
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) updateCorrect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = StateBrowse
		m.input.Blur()
		m.setStatus("Correction canceled", false)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		id := strings.TrimSpace(m.input.Value())
		if id == "" {
			m.setStatus("Enter the id of the product that was actually quoted", true)
			return m, nil
		}
		hit := m.hits[m.cursor]
		if id == hit.ProductID {
			m.setStatus("That is the matched product; press Esc then y to confirm it", true)
			return m, nil
		}
		truth, ok := m.learner.Product(id)
		if !ok {
			m.setStatus(fmt.Sprintf("Unknown product %q", id), true)
			return m, nil
		}
		m.state = StateBrowse
		m.input.Blur()
		m.decisions[m.cursor].pending = true
		m.setStatus("Correcting to "+truth.DisplayName()+"...", false)
		return m, m.correctCmd(m.cursor, truth)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// actionable reports whether the selected hit can still be confirmed or corrected.
func (m *Model) actionable() bool {
	if len(m.hits) == 0 {
		return false
	}
	d := m.decisions[m.cursor]
	if d.pending {
		m.setStatus("Still saving the previous decision for this hit", true)
		return false
	}
	if d.done() {
		m.setStatus("This hit has already been reviewed", true)
		return false
	}
	return true
}

func (m Model) confirmCmd(index int) tea.Cmd {
	ctx, learner, recorder, source := m.ctx, m.learner, m.recorder, m.source
	hit := m.hits[index]
	return func() tea.Msg {
		err := learner.LearnConfirm(ctx, hit, "")
		msg := learnedMsg{index: index, kind: model.FeedbackConfirm, err: err}
		if applied(err) {
			msg.recordErr = record(ctx, recorder, model.NewFeedbackEvent(model.FeedbackConfirm, hit, "", "", source))
		}
		return msg
	}
}

func (m Model) correctCmd(index int, truth model.Product) tea.Cmd {
	ctx, learner, recorder, source := m.ctx, m.learner, m.recorder, m.source
	hit := m.hits[index]
	return func() tea.Msg {
		err := learner.LearnCorrection(ctx, hit, truth, "")
		msg := learnedMsg{index: index, kind: model.FeedbackCorrect, trueProduct: truth.ID, err: err}
		if applied(err) {
			msg.recordErr = record(ctx, recorder, model.NewFeedbackEvent(model.FeedbackCorrect, hit, truth.ID, "", source))
		}
		return msg
	}
}

// applied reports whether the learner changed its state despite err.
func applied(err error) bool {
	return err == nil || errors.Is(err, matcher.ErrPersistFailed)
}

func record(ctx context.Context, recorder service.FeedbackRecorder, event *model.FeedbackEvent) error {
	if recorder == nil {
		return nil
	}
	if err := recorder.RecordFeedback(ctx, event); err != nil {
		slog.Warn("Failed to record feedback event", "product_id", event.ProductID, "error", err)
		return err
	}
	return nil
}

func (m *Model) handleLearned(msg learnedMsg) {
	if msg.index < 0 || msg.index >= len(m.decisions) {
		return
	}
	d := &m.decisions[msg.index]
	d.pending = false

	if !applied(msg.err) {
		m.setStatus("Could not learn: "+msg.err.Error(), true)
		return
	}

	d.kind = msg.kind
	d.trueProduct = msg.trueProduct
	d.err = msg.err

	hit := m.hits[msg.index]
	var text string
	if msg.kind == model.FeedbackCorrect {
		text = fmt.Sprintf("Corrected %s → %s", hit.ProductID, msg.trueProduct)
	} else {
		text = "Confirmed " + hit.Product.DisplayName()
	}
	switch {
	case msg.err != nil:
		m.setStatus(text+" (kept for this session only: "+msg.err.Error()+")", true)
	case msg.recordErr != nil:
		m.setStatus(text+" (feedback log not updated: "+msg.recordErr.Error()+")", true)
	default:
		m.setStatus(text, false)
	}

	if msg.index == m.cursor {
		m.advance()
	}
}

// advance moves the cursor to the next hit still awaiting review, if any.
func (m *Model) advance() {
	for i := m.cursor + 1; i < len(m.hits); i++ {
		if !m.decisions[i].done() && !m.decisions[i].pending {
			m.cursor = i
			return
		}
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// Cursor returns the index of the selected hit.
func (m Model) Cursor() int {
	return m.cursor
}

// CurrentState returns the input mode.
func (m Model) CurrentState() State {
	return m.state
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// Summary counts what happened to each hit.
func (m Model) Summary() Summary {
	var s Summary
	for _, d := range m.decisions {
		switch {
		case !d.done():
			s.Skipped++
			continue
		case d.kind == model.FeedbackConfirm:
			s.Confirmed++
		case d.kind == model.FeedbackCorrect:
			s.Corrected++
		}
		if d.err != nil {
			s.Unsaved++
		}
	}
	return s
}
