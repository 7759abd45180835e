package game

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/liarsdice/internal/dice"
	"github.com/lox/liarsdice/internal/randutil"
)

// Option configures a Game during creation.
type Option func(*config)

type config struct {
	rules     Rules
	source    dice.Source
	clock     quartz.Clock
	logger    *log.Logger
	publisher Publisher
	recorder  Recorder
}

func defaultConfig() *config {
	return &config{
		rules: DefaultRules(),
		clock: quartz.NewReal(),
	}
}

// WithRules overrides DefaultRules.
func WithRules(r Rules) Option {
	return func(c *config) {
		c.rules = r
	}
}

// WithSource sets the randomness used for every roll in the game. The source is
// only used while the game's write lock is held, so it need not be safe for
// concurrent use. Defaults to randutil.NewSecure.
func WithSource(src dice.Source) Option {
	return func(c *config) {
		c.source = src
	}
}

// WithClock sets the clock used to stamp moves and views.
func WithClock(clock quartz.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(logger *log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithPublisher sets where updates are sent after every state change.
func WithPublisher(p Publisher) Option {
	return func(c *config) {
		c.publisher = p
	}
}

// WithRecorder sets where moves and results are persisted.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		c.recorder = r
	}
}

func (c *config) finish() {
	if c.source == nil {
		c.source = randutil.NewSecure()
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
