package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/takosim/internal/input"
)

// Ensemble runs independent sessions, one per seed, in parallel. Each run
// gets its own session, provider and metric set.
type Ensemble struct {
	opts      Options
	numRuns   int
	seedStart uint64
	limit     int

	provider func(seed uint64) input.Provider
	metrics  func() []Metric
}

func NewEnsemble(opts Options, numRuns int, seedStart uint64, provider func(seed uint64) input.Provider) *Ensemble {
	return &Ensemble{
		opts:      opts,
		numRuns:   numRuns,
		seedStart: seedStart,
		provider:  provider,
	}
}

// WithMetrics sets the factory used to build fresh metrics for every run.
func (e *Ensemble) WithMetrics(fn func() []Metric) *Ensemble {
	e.metrics = fn
	return e
}

// WithLimit caps the number of concurrently running sessions; zero means no cap.
func (e *Ensemble) WithLimit(n int) *Ensemble {
	e.limit = n
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run", ErrInvalidConfig)
	}
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			seed := e.seedStart + uint64(i)
			opts := e.opts
			opts.ID = e.opts.ID + i
			opts.Seed = seed

			s, err := NewSession(opts)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			r := NewRunner(s)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					r.AddMetric(m)
				}
			}
			res, err := r.Run(ctx, e.provider(seed), cfg)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
