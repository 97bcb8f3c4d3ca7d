package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/takosim/internal/input"
	"github.com/san-kum/takosim/internal/lifecycle"
)

// Runner drives a Session from an input provider with a fixed or
// caller-supplied clock.
type Runner struct {
	session   *Session
	metrics   []Metric
	observers []Observer
	cfg       Config
	skipped   int
}

func NewRunner(s *Session) *Runner {
	return &Runner{
		session:   s,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		cfg:       DefaultConfig(),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Session() *Session { return r.session }

// Step advances the session by one tick of wall-clock dt. Non-positive dt is
// skipped and dt above MaxDt is clamped. Reports whether a tick ran.
func (r *Runner) Step(dt float64, f input.Frame) (Sample, bool) {
	if dt <= 0 || math.IsNaN(dt) {
		r.skipped++
		return r.session.Sample(), false
	}
	if r.cfg.MaxDt > 0 && dt > r.cfg.MaxDt {
		dt = r.cfg.MaxDt
	}
	s := r.session.Tick(dt, f)
	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, obs := range r.observers {
		obs.OnStep(s)
	}
	return s, true
}

// SetConfig sets the clamp used by Step outside of Run.
func (r *Runner) SetConfig(cfg Config) { r.cfg = cfg }

func (r *Runner) Run(ctx context.Context, src input.Provider, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	r.cfg = cfg
	r.skipped = 0
	every := cfg.RecordEvery
	if every < 1 {
		every = 1
	}

	capacity := 1024
	if cfg.Duration > 0 {
		capacity = int(cfg.Duration/cfg.Dt)/every + 2
	}
	result := &Result{
		Samples: make([]Sample, 0, capacity),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	log := r.session.log
	log.Info("run started",
		zap.String("shaper", r.session.shaper.Name()),
		zap.Float64("dt", cfg.Dt),
		zap.Float64("duration", cfg.Duration))

	sess := r.session
	start := sess.Time()
	result.Samples = append(result.Samples, sess.Sample())
	last := sess.Sample()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			r.finish(result, last, start)
			return result, ctx.Err()
		default:
		}

		elapsed := sess.Time() - start
		if cfg.Duration > 0 && elapsed >= cfg.Duration-cfg.Dt*1e-6 {
			break
		}
		f, ok := src.Next(elapsed, cfg.Dt)
		if !ok {
			break
		}

		s, ticked := r.Step(cfg.Dt, f)
		if !ticked {
			continue
		}
		last = s
		result.StepsTaken++

		if cfg.ValidateState && !s.IsValid() {
			result.Errors = append(result.Errors, SimError{
				Step:    i,
				Time:    s.Time,
				Message: "invalid state (NaN/Inf)",
				Wrapped: ErrInvalidState,
			})
			log.Warn("invalid state", zap.Int("step", i), zap.Float64("t", s.Time))
			break
		}

		if i%every == 0 {
			result.Samples = append(result.Samples, s)
		}
		if cfg.StopOnFinish && s.State == lifecycle.Finished {
			break
		}
	}

	r.finish(result, last, start)
	log.Info("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Stringer("state", result.Final),
		zap.Float64("cook", last.Cook))
	return result, nil
}

func (r *Runner) finish(result *Result, last Sample, start float64) {
	if n := len(result.Samples); n == 0 || result.Samples[n-1].Step != last.Step {
		result.Samples = append(result.Samples, last)
	}
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Events = append(result.Events, r.session.Events()...)
	result.Final = r.session.State()
	result.Duration = r.session.Time() - start
	result.Skipped = r.skipped
	if score, ok := r.session.Score(); ok {
		result.Score = &score
		result.Comment = lifecycle.Comment(score)
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("%w: duration must be non-negative, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.MaxDt < 0 {
		return fmt.Errorf("%w: max dt must be non-negative, got %f", ErrInvalidConfig, cfg.MaxDt)
	}
	return nil
}
