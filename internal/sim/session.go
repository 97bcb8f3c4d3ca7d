package sim

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/san-kum/takosim/internal/ball"
	"github.com/san-kum/takosim/internal/feedback"
	"github.com/san-kum/takosim/internal/heat"
	"github.com/san-kum/takosim/internal/input"
	"github.com/san-kum/takosim/internal/lifecycle"
	"github.com/san-kum/takosim/internal/logger"
	"github.com/san-kum/takosim/internal/mesh"
	"github.com/san-kum/takosim/internal/shaping"
	"github.com/san-kum/takosim/internal/softbody"
)

// Options configures a Session.
type Options struct {
	ID         int
	Resolution int
	Radius     float64
	Gravity    mgl64.Vec3
	Seed       uint64

	Shaper  string
	Shaping shaping.Params
	Solver  softbody.Params
	Heat    heat.Params
	Phases  lifecycle.PhaseRules

	// Sink receives every feedback event in addition to the session's own
	// recorder. Scores receives the final score.
	Sink   feedback.Sink
	Scores feedback.ScoreSink
	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Resolution: 32,
		Radius:     1,
		Gravity:    mgl64.Vec3{0, -9.81, 0},
		Seed:       1,
		Shaper:     "reference",
		Shaping:    shaping.DefaultParams(),
		Solver:     softbody.DefaultParams(),
		Heat:       heat.DefaultParams(),
		Phases:     lifecycle.DefaultPhaseRules(),
	}
}

func (o Options) Validate() error {
	switch {
	case o.Radius <= 0:
		return fmt.Errorf("%w: radius must be positive, got %f", ErrInvalidConfig, o.Radius)
	case o.Solver.Mass <= 0:
		return fmt.Errorf("%w: solver mass must be positive, got %f", ErrInvalidConfig, o.Solver.Mass)
	case o.Solver.Damping < 0 || o.Solver.Damping >= 1:
		return fmt.Errorf("%w: solver damping must be in [0,1), got %f", ErrInvalidConfig, o.Solver.Damping)
	case o.Solver.Stiffness < 0:
		return fmt.Errorf("%w: solver stiffness must be non-negative", ErrInvalidConfig)
	case o.Shaping.TargetGyroMag <= 0:
		return fmt.Errorf("%w: target gyro magnitude must be positive", ErrInvalidConfig)
	case o.Heat.IdealTemperature*1.5 <= o.Heat.AmbientTemperature:
		return fmt.Errorf("%w: ideal temperature too low for ambient %f", ErrInvalidConfig, o.Heat.AmbientTemperature)
	case o.Phases.PourRate <= 0:
		return fmt.Errorf("%w: pour rate must be positive", ErrInvalidConfig)
	}
	return nil
}

// Session owns one ball and every component acting on it. It is not safe
// for concurrent use.
type Session struct {
	opts Options
	mesh *mesh.Mesh
	log  *zap.Logger

	ball    *ball.Ball
	solver  *softbody.Solver
	heat    *heat.Simulation
	shaper  shaping.Shaper
	machine *lifecycle.Machine
	deriver *lifecycle.PhaseDeriver

	rec  *feedback.Recorder
	sink feedback.Sink

	step  int
	time  float64
	shape shaping.State
}

func NewSession(opts Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m, err := mesh.Sphere(opts.Resolution, opts.Radius)
	if err != nil {
		if errors.Is(err, mesh.ErrResolution) {
			return nil, fmt.Errorf("%w: %v", ErrMeshTooSmall, err)
		}
		return nil, err
	}

	s := &Session{
		opts: opts,
		mesh: m,
		log:  opts.Logger,
		rec:  &feedback.Recorder{},
	}
	if s.log == nil {
		s.log = logger.Named("session")
	}
	s.log = s.log.With(zap.Int("ball", opts.ID))

	// events are stamped with the session clock before fan-out
	out := feedback.Sink(s.rec)
	if opts.Sink != nil {
		out = feedback.Multi{s.rec, opts.Sink}
	}
	s.sink = feedback.SinkFunc(func(e feedback.Event) {
		e.Time = s.time
		out.Emit(e)
	})

	scores := opts.Scores
	if scores == nil {
		scores = feedback.DiscardScore
	}

	s.ball = ball.New(opts.ID, m.Positions)
	s.solver = softbody.New(s.ball, opts.Solver, opts.Seed)
	s.heat = heat.New(s.ball, opts.Heat)
	s.shaper, err = shaping.New(opts.Shaper, opts.Shaping, s.sink)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownShaper, err)
	}
	s.machine = lifecycle.NewMachine(s.ball, s.sink, feedback.ScoreFunc(func(score int) {
		s.log.Info("served", zap.Int("score", score), zap.Float64("t", s.time))
		scores.ReportScore(score)
	}))
	s.deriver = lifecycle.NewPhaseDeriver(opts.Phases)
	s.shape = s.shaper.State()
	return s, nil
}

// Tick advances the session by dt using one frame of input. A non-positive
// dt leaves the session untouched.
func (s *Session) Tick(dt float64, f input.Frame) Sample {
	if dt <= 0 {
		return s.Sample()
	}
	b := s.ball

	b.AngularVelocity = f.AngularVelocity
	b.IsInHole = f.InHole
	tilt := f.Tilt
	if tilt.Len() == 0 {
		tilt = mgl64.QuatIdent()
	}
	b.Tilt(tilt)

	if f.Jiggle > 0 {
		s.solver.TriggerJiggle(f.Jiggle)
		s.sink.Emit(feedback.Event{Kind: feedback.Jiggle, Value: f.Jiggle})
	}

	s.shape = s.shaper.Update(dt, f.AngularVelocity)
	b.ShapingQuality = 1 - s.shape.Progress

	s.solver.SetShapeBias(s.shape.Progress)
	s.solver.Update(dt, f.Accel, s.opts.Gravity)

	s.heat.Update(dt, f.PanTemperature)

	phase := f.Phase
	if phase < 0 {
		phase = s.deriver.Update(dt, s.machine.State(), s.shape.Progress)
	}
	before := s.machine.State()
	if s.machine.Update(phase) {
		s.log.Debug("transition",
			zap.Stringer("from", before),
			zap.Stringer("to", s.machine.State()),
			zap.Float64("t", s.time+dt),
			zap.Float64("cook", b.CookLevel),
			zap.Float64("progress", s.shape.Progress))
	}

	s.step++
	s.time += dt
	return s.Sample()
}

// Sample captures the current observable state.
func (s *Session) Sample() Sample {
	st := s.shape
	return Sample{
		Step:        s.step,
		Time:        s.time,
		State:       s.machine.State(),
		Spin:        s.ball.AngularVelocity.Len(),
		Cook:        s.ball.CookLevel,
		Facets:      s.ball.SurfaceCookLevels,
		Progress:    st.Progress,
		Mastery:     st.Mastery,
		Pulse:       st.Pulse,
		Combo:       st.Combo,
		Harmony:     st.Harmony,
		Pressure:    st.Pressure,
		Quality:     s.ball.ShapingQuality,
		P:           st.P,
		I:           st.I,
		D:           st.D,
		Deformation: s.solver.MaxDisplacement(),
	}
}

func (s *Session) Ball() *ball.Ball         { return s.ball }
func (s *Session) Mesh() *mesh.Mesh         { return s.mesh }
func (s *Session) Shaper() shaping.Shaper   { return s.shaper }
func (s *Session) Heat() *heat.Simulation   { return s.heat }
func (s *Session) Solver() *softbody.Solver { return s.solver }
func (s *Session) State() lifecycle.State   { return s.machine.State() }
func (s *Session) Events() []feedback.Event { return s.rec.Events }
func (s *Session) Time() float64            { return s.time }
func (s *Session) Options() Options         { return s.opts }

// Score returns the final score once the ball has been served.
func (s *Session) Score() (lifecycle.Score, bool) { return s.machine.Score() }

// Reset starts a new ball on the same mesh.
func (s *Session) Reset() {
	s.ball.Reset()
	s.solver.Reset()
	s.shaper.Reset()
	s.machine.Reset()
	s.deriver.Reset()
	s.rec.Reset()
	s.step = 0
	s.time = 0
	s.shape = s.shaper.State()
}
