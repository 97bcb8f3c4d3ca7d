package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/takosim/internal/input"
)

func TestEnsembleRun(t *testing.T) {
	opts := DefaultOptions()
	opts.Resolution = 8
	provider := func(seed uint64) input.Provider {
		syn := input.DefaultSynthetic()
		syn.Seed = seed
		syn.Duration = 3
		return syn.Provider()
	}

	e := NewEnsemble(opts, 4, 10, provider).
		WithLimit(2).
		WithMetrics(func() []Metric { return []Metric{&countMetric{}} })

	cfg := Config{Dt: 1.0 / 60, Duration: 3, RecordEvery: 10}
	results, err := e.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, res := range results {
		if res == nil {
			t.Fatalf("result %d missing", i)
		}
		if res.Metrics["count"] != float64(res.StepsTaken) {
			t.Errorf("run %d: metric saw %v steps, runner took %d", i, res.Metrics["count"], res.StepsTaken)
		}
	}

	again, err := NewEnsemble(opts, 1, 10, provider).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	a, b := results[0].Samples, again[0].Samples
	if len(a) != len(b) || a[len(a)-1] != b[len(b)-1] {
		t.Error("same seed should reproduce the same run")
	}
}

func TestEnsembleNoRuns(t *testing.T) {
	_, err := NewEnsemble(DefaultOptions(), 0, 0, nil).Run(context.Background(), DefaultConfig())
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
