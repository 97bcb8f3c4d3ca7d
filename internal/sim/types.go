package sim

import (
	"math"

	"github.com/san-kum/takosim/internal/ball"
	"github.com/san-kum/takosim/internal/feedback"
	"github.com/san-kum/takosim/internal/lifecycle"
)

// Sample is the recorded outcome of one tick.
type Sample struct {
	Step  int             `json:"step"`
	Time  float64         `json:"time"`
	State lifecycle.State `json:"state"`

	Spin   float64                 `json:"spin"`
	Cook   float64                 `json:"cook"`
	Facets [ball.NumFacets]float64 `json:"facets"`

	Progress float64 `json:"progress"`
	Mastery  float64 `json:"mastery"`
	Pulse    float64 `json:"pulse"`
	Combo    int     `json:"combo"`
	Harmony  float64 `json:"harmony"`
	Pressure float64 `json:"pressure"`
	Quality  float64 `json:"quality"`

	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`

	Deformation float64 `json:"deformation"`
}

// IsValid reports whether every numeric field is finite.
func (s Sample) IsValid() bool {
	vals := []float64{s.Spin, s.Cook, s.Progress, s.Mastery, s.Pulse, s.Harmony, s.Pressure, s.Quality, s.P, s.I, s.D, s.Deformation}
	vals = append(vals, s.Facets[:]...)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Sample)

func (f ObserverFunc) OnStep(s Sample) { f(s) }

type Config struct {
	Dt float64 `yaml:"dt" json:"dt"`
	// Duration stops the run after this many seconds; zero runs until the
	// input ends.
	Duration float64 `yaml:"duration" json:"duration"`
	// MaxDt clamps a single tick.
	MaxDt float64 `yaml:"max_dt" json:"max_dt"`
	// RecordEvery keeps one sample in N; the final tick is always kept.
	RecordEvery   int  `yaml:"record_every" json:"record_every"`
	StopOnFinish  bool `yaml:"stop_on_finish" json:"stop_on_finish"`
	ValidateState bool `yaml:"validate_state" json:"validate_state"`
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0 / 60,
		Duration:      120,
		MaxDt:         0.1,
		RecordEvery:   1,
		StopOnFinish:  true,
		ValidateState: true,
	}
}

type Result struct {
	Samples    []Sample           `json:"samples"`
	Events     []feedback.Event   `json:"events"`
	Metrics    map[string]float64 `json:"metrics"`
	Score      *lifecycle.Score   `json:"score,omitempty"`
	Comment    string             `json:"comment,omitempty"`
	Final      lifecycle.State    `json:"final_state"`
	StepsTaken int                `json:"steps_taken"`
	Skipped    int                `json:"skipped"`
	Duration   float64            `json:"duration"`
	Errors     []error            `json:"-"`
}

// Series extracts one field from the recorded samples.
func (r *Result) Series(field func(Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = field(s)
	}
	return out
}

func (r *Result) Times() []float64 {
	return r.Series(func(s Sample) float64 { return s.Time })
}
