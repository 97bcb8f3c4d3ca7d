// Package heat models directional cooking of a ball on a hot pan.
//
// The ball surface is split into six facets. Each tick the facet facing the
// pan (in the ball's local frame) heats toward the pan temperature while the
// others cool toward ambient air, then heat is conducted toward the mean.
package heat

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/ball"
)

type Params struct {
	ThermalConductivity float64 `yaml:"thermal_conductivity" json:"thermal_conductivity"`
	SurfaceHeatTransfer float64 `yaml:"surface_heat_transfer" json:"surface_heat_transfer"`
	AirCoolingRate      float64 `yaml:"air_cooling_rate" json:"air_cooling_rate"`
	IdealTemperature    float64 `yaml:"ideal_temperature" json:"ideal_temperature"`
	AmbientTemperature  float64 `yaml:"ambient_temperature" json:"ambient_temperature"`
}

func DefaultParams() Params {
	return Params{
		ThermalConductivity: 0.4,
		SurfaceHeatTransfer: 2.5,
		AirCoolingRate:      0.5,
		IdealTemperature:    180,
		AmbientTemperature:  25,
	}
}

const (
	// contactThreshold is the minimum facet alignment with local down that
	// counts as touching the pan.
	contactThreshold = 0.5
	rateScale        = 0.01
)

var worldDown = mgl64.Vec3{0, -1, 0}

type Simulation struct {
	params Params
	ball   *ball.Ball
}

func New(b *ball.Ball, params Params) *Simulation {
	return &Simulation{params: params, ball: b}
}

func (s *Simulation) Params() Params { return s.params }

// Update advances all six facets by dt with the pan at panTemperature.
func (s *Simulation) Update(dt, panTemperature float64) {
	localDown := s.ball.LocalDirection(worldDown)
	p := s.params

	for i := 0; i < ball.NumFacets; i++ {
		alignment := localDown.Dot(ball.Facet(i).Direction())

		external := p.AmbientTemperature
		rate := p.AirCoolingRate
		if s.ball.IsInHole && alignment > contactThreshold {
			external = panTemperature
			rate = p.SurfaceHeatTransfer * (alignment - contactThreshold) * 2
		}

		temp := s.LevelToTemp(s.ball.SurfaceCookLevels[i])
		temp += (external - temp) * rate * dt * rateScale
		s.ball.SurfaceCookLevels[i] = math.Max(0, s.TempToLevel(temp))
	}

	mean := s.ball.MeanFacetLevel()
	for i := range s.ball.SurfaceCookLevels {
		s.ball.SurfaceCookLevels[i] += (mean - s.ball.SurfaceCookLevels[i]) * p.ThermalConductivity * dt
	}
	s.ball.CookLevel = mean
}

// LevelToTemp maps a cook level to a pseudo temperature. Level 0 is ambient
// and level 1 is 1.5x the ideal temperature; levels outside [0,1] extrapolate.
func (s *Simulation) LevelToTemp(level float64) float64 {
	lo, hi := s.params.AmbientTemperature, s.params.IdealTemperature*1.5
	return lo + (hi-lo)*level
}

func (s *Simulation) TempToLevel(temp float64) float64 {
	lo, hi := s.params.AmbientTemperature, s.params.IdealTemperature*1.5
	if hi == lo {
		return 0
	}
	return (temp - lo) / (hi - lo)
}

// FacetTemperature returns the pseudo temperature of facet f for display.
func (s *Simulation) FacetTemperature(f ball.Facet) float64 {
	if f < 0 || int(f) >= ball.NumFacets {
		return s.params.AmbientTemperature
	}
	return s.LevelToTemp(s.ball.SurfaceCookLevels[f])
}

// ContactFacet returns the facet most aligned with world down.
func (s *Simulation) ContactFacet() ball.Facet {
	localDown := s.ball.LocalDirection(worldDown)
	best, bestDot := ball.Up, math.Inf(-1)
	for i := 0; i < ball.NumFacets; i++ {
		if d := localDown.Dot(ball.Facet(i).Direction()); d > bestDot {
			best, bestDot = ball.Facet(i), d
		}
	}
	return best
}
