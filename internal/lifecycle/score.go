package lifecycle

import "math"

const (
	cookWeight      = 60
	shapeWeight     = 40
	undercookedAt   = 0.5
	undercookedCost = 50
)

// Score is the breakdown computed when a ball is served.
type Score struct {
	CookLevel float64 `json:"cook_level"`
	Quality   float64 `json:"quality"`

	Cook  float64 `json:"cook"`
	Shape float64 `json:"shape"`
	// Total is the clamped sum before the undercooked penalty.
	Total       float64 `json:"total"`
	Undercooked bool    `json:"undercooked"`
	Final       int     `json:"final"`
}

// ComputeScore rates a ball from its cook level and shaping quality.
func ComputeScore(cookLevel, quality float64) Score {
	s := Score{
		CookLevel: cookLevel,
		Quality:   quality,
		Cook:      100 - math.Abs(cookLevel-1)*cookWeight,
		Shape:     quality * shapeWeight,
	}
	s.Total = clamp(s.Cook+s.Shape, 0, 100)

	final := s.Total
	if cookLevel < undercookedAt {
		s.Undercooked = true
		final = clamp(final-undercookedCost, 0, 100)
	}
	s.Final = int(math.Round(final))
	return s
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
