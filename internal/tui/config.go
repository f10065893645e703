package tui

import (
	"context"

	"github.com/Veraticus/sunwise/internal/model"
	"github.com/Veraticus/sunwise/internal/service"
)

// Learner is the part of the matcher the review screen drives.
type Learner interface {
	LearnConfirm(ctx context.Context, hit model.MatchHit, seenRawToken string) error
	LearnCorrection(ctx context.Context, falseHit model.MatchHit, trueProduct model.Product, seenRawToken string) error
	Product(id string) (model.Product, bool)
	AutoAcceptThreshold(brand string) float64
}

// Config holds review screen configuration.
type Config struct {
	Learner  Learner
	Recorder service.FeedbackRecorder
	Keys     KeyMap
	Source   string
	Hits     []model.MatchHit
	Width    int
	Height   int
	ShowHelp bool
}

// Option is a functional option for configuring the review screen.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Keys:   DefaultKeyMap(),
		Width:  80,
		Height: 24,
	}
}

// WithRecorder records an audit event for every decision.
func WithRecorder(recorder service.FeedbackRecorder) Option {
	return func(c *Config) {
		c.Recorder = recorder
	}
}

// WithSource names the document the hits came from.
func WithSource(source string) Option {
	return func(c *Config) {
		c.Source = source
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(c *Config) {
		c.Keys = keys
	}
}

// WithFullHelp starts with the full help view open.
func WithFullHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}
