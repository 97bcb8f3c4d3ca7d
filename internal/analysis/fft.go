package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT transforms a real series of any length.
func FFT(data []float64) []complex128 {
	if len(data) == 0 {
		return nil
	}
	return fft.FFTReal(data)
}

// PowerSpectrum returns the magnitudes of the non-negative frequency bins.
func PowerSpectrum(data []float64) []float64 {
	out := FFT(data)
	ps := make([]float64, len(out)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(out[i])
	}

	return ps
}

type Spectrum struct {
	Freqs []float64
	Power []float64
	// Mean is the DC level removed before the transform.
	Mean float64
}

// CadenceSpectrum removes the mean from a series sampled every dt seconds,
// applies a Hann window and returns its spectrum in Hz.
func CadenceSpectrum(series []float64, dt float64) Spectrum {
	n := len(series)
	if n < 2 || dt <= 0 {
		return Spectrum{}
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range series {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * w
	}

	ps := PowerSpectrum(windowed)
	freqs := make([]float64, len(ps))
	for i := range freqs {
		freqs[i] = float64(i) / (float64(n) * dt)
	}
	return Spectrum{Freqs: freqs, Power: ps, Mean: mean}
}

// Dominant returns the frequency of the strongest non-DC bin and its share of
// the total power. ok is false for an empty or flat spectrum.
func (s Spectrum) Dominant() (hz, share float64, ok bool) {
	best, total := -1, 0.0
	for i := 1; i < len(s.Power); i++ {
		total += s.Power[i]
		if best < 0 || s.Power[i] > s.Power[best] {
			best = i
		}
	}
	if best < 0 || total == 0 {
		return 0, 0, false
	}
	return s.Freqs[best], s.Power[best] / total, true
}
