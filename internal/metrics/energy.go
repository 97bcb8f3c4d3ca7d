package metrics

import (
	"math"

	"github.com/san-kum/takosim/internal/sim"
)

// Strain is the mean spring energy stored in the most displaced vertex,
// 0.5*k*d^2.
type Strain struct {
	name      string
	stiffness float64
	samples   int
	total     float64
}

func NewStrain(stiffness float64) *Strain {
	return &Strain{
		name:      "strain",
		stiffness: stiffness,
	}
}

func (e *Strain) Name() string { return e.name }

func (e *Strain) Observe(s sim.Sample) {
	d := s.Deformation
	e.total += 0.5 * e.stiffness * d * d
	e.samples++
}

func (e *Strain) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Strain) Reset() {
	e.total = 0
	e.samples = 0
}

// PeakDeformation tracks the largest vertex displacement seen.
type PeakDeformation struct {
	name string
	peak float64
}

func NewPeakDeformation() *PeakDeformation {
	return &PeakDeformation{name: "peak_deformation"}
}

func (p *PeakDeformation) Name() string { return p.name }

func (p *PeakDeformation) Observe(s sim.Sample) {
	p.peak = math.Max(p.peak, s.Deformation)
}

func (p *PeakDeformation) Value() float64 { return p.peak }

func (p *PeakDeformation) Reset() { p.peak = 0 }
