package shaping

import "math"

// sineTable provides precomputed sin values with linear interpolation.
type sineTable struct {
	sin   []float64
	n     int
	scale float64
}

// 4096 entries keep the interpolation error below 3e-7.
var defaultSineTable = newSineTable(4096)

func newSineTable(n int) *sineTable {
	t := &sineTable{
		sin:   make([]float64, n+1),
		n:     n,
		scale: float64(n) / (2 * math.Pi),
	}
	for i := 0; i <= n; i++ {
		t.sin[i] = math.Sin(float64(i) * 2 * math.Pi / float64(n))
	}
	return t
}

// Sin returns approximate sin(x) for any finite x.
func (t *sineTable) Sin(x float64) float64 {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}

	idx := x * t.scale
	i := int(idx)
	if i >= t.n {
		i = t.n - 1
	}
	frac := idx - float64(i)

	// the extra trailing entry removes the wraparound modulo
	return t.sin[i] + (t.sin[i+1]-t.sin[i])*frac
}
