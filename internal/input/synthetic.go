package input

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// Synthetic imitates a player turning the ball around a target cadence.
type Synthetic struct {
	// Cadence is the mean spin rate in rad/s.
	Cadence float64 `yaml:"cadence" json:"cadence"`
	// Noise is the standard deviation of per-tick spin jitter.
	Noise float64 `yaml:"noise" json:"noise"`
	// Drift slowly swings the cadence by this amplitude over DriftPeriod.
	Drift       float64 `yaml:"drift" json:"drift"`
	DriftPeriod float64 `yaml:"drift_period" json:"drift_period"`
	// Wander is the peak tilt in degrees.
	Wander         float64 `yaml:"wander" json:"wander"`
	PanTemperature float64 `yaml:"pan_temperature" json:"pan_temperature"`
	Duration       float64 `yaml:"duration" json:"duration"`
	// JiggleEvery emits a jiggle of JiggleStrength every so many seconds.
	JiggleEvery    float64 `yaml:"jiggle_every" json:"jiggle_every"`
	JiggleStrength float64 `yaml:"jiggle_strength" json:"jiggle_strength"`
	Seed           uint64  `yaml:"seed" json:"seed"`
}

func DefaultSynthetic() Synthetic {
	return Synthetic{
		Cadence:        6.0,
		Noise:          0.3,
		Drift:          0.5,
		DriftPeriod:    8,
		Wander:         8,
		PanTemperature: DefaultPanTemperature,
		Duration:       60,
		JiggleEvery:    5,
		JiggleStrength: 0.2,
		Seed:           1,
	}
}

// Provider starts a playback. Two playbacks with the same seed are identical.
func (s Synthetic) Provider() *SyntheticProvider {
	return &SyntheticProvider{
		cfg:        s,
		rng:        rand.New(rand.NewPCG(s.Seed, s.Seed*2654435761+1)),
		nextJiggle: s.JiggleEvery,
	}
}

type SyntheticProvider struct {
	cfg        Synthetic
	rng        *rand.Rand
	nextJiggle float64
}

func (p *SyntheticProvider) Next(t, dt float64) (Frame, bool) {
	c := p.cfg
	if t >= c.Duration {
		return Frame{}, false
	}

	mag := c.Cadence + c.Noise*p.rng.NormFloat64()
	if c.DriftPeriod > 0 {
		mag += c.Drift * math.Sin(2*math.Pi*t/c.DriftPeriod)
	}
	mag = math.Max(0, mag)

	// precess the spin axis slightly around +Y
	phase := 0.3 * t
	axis := mgl64.Vec3{0.15 * math.Cos(phase), 1, 0.15 * math.Sin(phase)}.Normalize()

	f := Still(c.PanTemperature)
	f.AngularVelocity = axis.Mul(mag)
	f.Tilt = TiltFromDegrees(c.Wander*math.Sin(0.7*t), c.Wander*math.Cos(0.5*t))

	if c.JiggleEvery > 0 && t >= p.nextJiggle {
		f.Jiggle = c.JiggleStrength
		p.nextJiggle += c.JiggleEvery
	}
	return f, true
}
