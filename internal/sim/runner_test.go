package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/input"
	"github.com/san-kum/takosim/internal/lifecycle"
)

type countMetric struct{ n int }

func (c *countMetric) Name() string     { return "count" }
func (c *countMetric) Observe(_ Sample) { c.n++ }
func (c *countMetric) Value() float64   { return float64(c.n) }
func (c *countMetric) Reset()           { c.n = 0 }

func testSession(t *testing.T) *Session {
	t.Helper()
	opts := DefaultOptions()
	opts.Resolution = 8
	s, err := NewSession(opts)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func spin(rate float64) input.Frame {
	f := input.Still(input.DefaultPanTemperature)
	f.AngularVelocity = mgl64.Vec3{0, rate, 0}
	return f
}

func TestRunnerInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1}},
		{"negative dt", Config{Dt: -0.1, Duration: 1}},
		{"negative duration", Config{Dt: 0.1, Duration: -1}},
		{"negative max dt", Config{Dt: 0.1, Duration: 1, MaxDt: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(testSession(t))
			_, err := r.Run(context.Background(), input.Constant(spin(6), 1), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRunnerDuration(t *testing.T) {
	r := NewRunner(testSession(t))
	m := &countMetric{}
	r.AddMetric(m)

	cfg := Config{Dt: 0.1, Duration: 1.0, RecordEvery: 1}
	res, err := r.Run(context.Background(), input.Constant(spin(0), 100), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", res.StepsTaken)
	}
	if len(res.Samples) != 11 {
		t.Errorf("expected 11 samples, got %d", len(res.Samples))
	}
	if res.Metrics["count"] != 10 {
		t.Errorf("expected metric to observe 10 steps, got %v", res.Metrics["count"])
	}
	if math.Abs(res.Duration-1.0) > 1e-9 {
		t.Errorf("expected duration 1, got %f", res.Duration)
	}
}

func TestRunnerRecordEvery(t *testing.T) {
	r := NewRunner(testSession(t))
	cfg := Config{Dt: 0.1, Duration: 1.0, RecordEvery: 4}
	res, err := r.Run(context.Background(), input.Constant(spin(0), 100), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// initial, ticks 1, 5, 9, and the final tick
	if len(res.Samples) != 5 {
		t.Errorf("expected 5 samples, got %d", len(res.Samples))
	}
	if last := res.Samples[len(res.Samples)-1]; last.Step != 10 {
		t.Errorf("expected final sample at step 10, got %d", last.Step)
	}
}

func TestRunnerStopsWhenInputEnds(t *testing.T) {
	r := NewRunner(testSession(t))
	cfg := Config{Dt: 0.1, Duration: 0, RecordEvery: 1}
	res, err := r.Run(context.Background(), input.Constant(spin(0), 0.55), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.StepsTaken != 6 {
		t.Errorf("expected 6 steps, got %d", res.StepsTaken)
	}
}

func TestRunnerCancel(t *testing.T) {
	r := NewRunner(testSession(t))
	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	r.AddObserver(ObserverFunc(func(Sample) {
		steps++
		if steps == 5 {
			cancel()
		}
	}))

	res, err := r.Run(ctx, input.Constant(spin(0), 100), Config{Dt: 0.1, Duration: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.StepsTaken != 5 {
		t.Errorf("expected partial result with 5 steps, got %+v", res)
	}
}

func TestRunnerStopOnFinish(t *testing.T) {
	r := NewRunner(testSession(t))
	res, err := r.Run(context.Background(), input.Constant(spin(6), 100), DefaultConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Final != lifecycle.Finished {
		t.Fatalf("expected Finished, got %v", res.Final)
	}
	if res.Score == nil {
		t.Fatal("expected a score")
	}
	if res.Duration > 5 {
		t.Errorf("expected to stop soon after serving, ran %f s", res.Duration)
	}
}

func TestRunnerInvalidState(t *testing.T) {
	r := NewRunner(testSession(t))
	bad := spin(math.NaN())
	res, err := r.Run(context.Background(), input.Constant(bad, 10), Config{Dt: 0.1, Duration: 1, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %d", len(res.Errors))
	}
	if !errors.Is(res.Errors[0], ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", res.Errors[0])
	}
	var simErr SimError
	if !errors.As(res.Errors[0], &simErr) || simErr.Step != 0 {
		t.Errorf("expected SimError at step 0, got %v", res.Errors[0])
	}
}

func TestRunnerStepGuards(t *testing.T) {
	r := NewRunner(testSession(t))
	r.SetConfig(Config{Dt: 1.0 / 60, MaxDt: 0.1})

	if _, ok := r.Step(0, spin(6)); ok {
		t.Error("zero dt should be skipped")
	}
	if _, ok := r.Step(-0.5, spin(6)); ok {
		t.Error("negative dt should be skipped")
	}
	if _, ok := r.Step(math.NaN(), spin(6)); ok {
		t.Error("NaN dt should be skipped")
	}
	if r.skipped != 3 {
		t.Errorf("expected 3 skipped, got %d", r.skipped)
	}

	s, ok := r.Step(2.0, spin(6))
	if !ok {
		t.Fatal("expected tick")
	}
	if s.Time != 0.1 {
		t.Errorf("expected dt clamped to 0.1, time is %f", s.Time)
	}
}
