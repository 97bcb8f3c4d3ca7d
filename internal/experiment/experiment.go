package experiment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/takosim/internal/config"
	"github.com/san-kum/takosim/internal/feedback"
	"github.com/san-kum/takosim/internal/input"
	"github.com/san-kum/takosim/internal/sim"
)

var ErrNotSetup = errors.New("experiment not setup")

// Experiment is one configured session ready to run headless.
type Experiment struct {
	cfg      *config.Config
	session  *sim.Session
	runner   *sim.Runner
	provider input.Provider
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup builds the session, input and metrics. sink and log may be nil.
func (e *Experiment) Setup(reg *Registry, sink feedback.Sink, log *zap.Logger) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	opts := e.cfg.SessionOptions()
	opts.Sink = sink
	opts.Logger = log

	s, err := sim.NewSession(opts)
	if err != nil {
		return err
	}
	p, err := e.cfg.Provider(0)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	e.session = s
	e.provider = p
	e.runner = sim.NewRunner(s)
	for _, m := range reg.DefaultMetrics(e.cfg) {
		e.runner.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.runner == nil {
		return nil, ErrNotSetup
	}
	return e.runner.Run(ctx, e.provider, e.cfg.Run)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Runner returns the underlying runner for adding observers.
func (e *Experiment) Runner() *sim.Runner { return e.runner }

func (e *Experiment) Session() *sim.Session { return e.session }
