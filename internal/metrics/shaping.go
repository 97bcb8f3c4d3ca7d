package metrics

import (
	"github.com/san-kum/takosim/internal/sim"
)

// MaxCombo is the longest perfect-rotation streak.
type MaxCombo struct {
	best int
}

func NewMaxCombo() *MaxCombo { return &MaxCombo{} }

func (m *MaxCombo) Name() string { return "max_combo" }

func (m *MaxCombo) Observe(s sim.Sample) {
	if s.Combo > m.best {
		m.best = s.Combo
	}
}

func (m *MaxCombo) Value() float64 { return float64(m.best) }
func (m *MaxCombo) Reset()         { m.best = 0 }

// TimeAbove accumulates the seconds a sampled field stays above a threshold.
// Time is measured between consecutive observations.
type TimeAbove struct {
	name      string
	field     func(sim.Sample) float64
	threshold float64

	total float64
	last  float64
	seen  bool
}

func NewTimeAbove(name string, field func(sim.Sample) float64, threshold float64) *TimeAbove {
	return &TimeAbove{name: name, field: field, threshold: threshold}
}

// NewPerfectTime counts time spent in perfect harmony.
func NewPerfectTime() *TimeAbove {
	return NewTimeAbove("perfect_time", func(s sim.Sample) float64 { return s.Harmony }, 0.85)
}

func (m *TimeAbove) Name() string { return m.name }

func (m *TimeAbove) Observe(s sim.Sample) {
	if m.seen && m.field(s) > m.threshold {
		m.total += s.Time - m.last
	}
	m.last = s.Time
	m.seen = true
}

func (m *TimeAbove) Value() float64 { return m.total }

func (m *TimeAbove) Reset() {
	m.total = 0
	m.last = 0
	m.seen = false
}
