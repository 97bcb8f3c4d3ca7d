// Package lifecycle sequences a ball from raw batter to a served, scored
// takoyaki.
//
// The [Machine] moves strictly forward through Raw, Cooking, Turned and
// Finished. It is driven by an integer phase signal, either supplied by the
// input layer or produced by a [PhaseDeriver] from the session's own state.
package lifecycle

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/ball"
	"github.com/san-kum/takosim/internal/feedback"
)

type State int

const (
	Raw State = iota
	Cooking
	Turned
	Finished
)

var stateNames = [...]string{"raw", "cooking", "turned", "finished"}

func (s State) String() string {
	if s < Raw || s > Finished {
		return "unknown"
	}
	return stateNames[s]
}

// Phase is the signal value that requests entry into s.
func (s State) Phase() int { return int(s) }

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for i, n := range stateNames {
		if n == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownState, b)
}

var ErrUnknownState = errors.New("lifecycle: unknown state")

var flipAxis = mgl64.Vec3{1, 0, 0}

type Machine struct {
	ball   *ball.Ball
	sink   feedback.Sink
	scores feedback.ScoreSink

	state    State
	score    Score
	hasScore bool
}

// NewMachine creates a machine and enters Raw. Nil sinks discard.
func NewMachine(b *ball.Ball, sink feedback.Sink, scores feedback.ScoreSink) *Machine {
	if sink == nil {
		sink = feedback.Discard
	}
	if scores == nil {
		scores = feedback.DiscardScore
	}
	m := &Machine{ball: b, sink: sink, scores: scores}
	m.enter(Raw)
	return m
}

func (m *Machine) State() State { return m.state }

// Score returns the final score once Finished has been entered.
func (m *Machine) Score() (Score, bool) { return m.score, m.hasScore }

// Update applies a phase signal. Only the phase that names the next state
// advances the machine; anything else is ignored. Reports whether a
// transition happened.
func (m *Machine) Update(phase int) bool {
	if m.state == Finished || phase != int(m.state)+1 {
		return false
	}
	m.enter(m.state + 1)
	return true
}

// Reset returns the machine to Raw, re-running its entry action.
func (m *Machine) Reset() {
	m.score, m.hasScore = Score{}, false
	m.enter(Raw)
}

func (m *Machine) enter(s State) {
	m.state = s
	b := m.ball

	switch s {
	case Raw:
		b.BatterLevel = 1.0
		b.CookLevel = 0
		b.Rotation = mgl64.QuatIdent()
		b.BaseRotation = mgl64.QuatIdent()
	case Cooking:
		m.sink.Emit(feedback.Event{Kind: feedback.EnterCooking})
	case Turned:
		b.BaseRotation = mgl64.QuatRotate(math.Pi, flipAxis).Mul(b.BaseRotation).Normalize()
		b.Rotation = b.BaseRotation
		m.sink.Emit(feedback.Event{Kind: feedback.EnterTurned})
	case Finished:
		m.score = ComputeScore(b.CookLevel, b.ShapingQuality)
		m.hasScore = true
		m.sink.Emit(feedback.Event{Kind: feedback.EnterFinished, Value: float64(m.score.Final)})
		m.scores.ReportScore(m.score.Final)
	}
}

// Snapshot is the serializable machine state.
type Snapshot struct {
	State State  `json:"state"`
	Score *Score `json:"score,omitempty"`
}

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{State: m.state}
	if m.hasScore {
		sc := m.score
		s.Score = &sc
	}
	return s
}

// Restore sets the machine state without running entry actions; the ball is
// restored separately.
func (m *Machine) Restore(s Snapshot) error {
	if s.State < Raw || s.State > Finished {
		return fmt.Errorf("%w: %d", ErrUnknownState, s.State)
	}
	m.state = s.State
	m.score, m.hasScore = Score{}, false
	if s.Score != nil {
		m.score, m.hasScore = *s.Score, true
	}
	return nil
}
