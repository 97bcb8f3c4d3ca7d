package metrics

import (
	"math"

	"github.com/san-kum/takosim/internal/sim"
)

// Stability is the fraction of ticks whose spin stayed within threshold of
// the target cadence.
type Stability struct {
	name       string
	target     float64
	threshold  float64
	violations int
	samples    int
}

// NewStability counts a tick as stable when |spin - target| <= threshold,
// with target the desired gyro magnitude in rad/s.
func NewStability(target, threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		target:    target,
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x sim.Sample) {
	s.samples++
	if math.Abs(x.Spin-s.target) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
