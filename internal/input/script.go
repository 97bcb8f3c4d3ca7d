package input

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScript = errors.New("input: invalid script")

// Script is a scripted input sequence loaded from YAML.
//
//	name: steady
//	pan_temperature: 180
//	segments:
//	  - duration: 2
//	  - duration: 20
//	    spin: 6
//	    wobble: 0.4
//	    wobble_hz: 1.5
//	    jiggle: 0.3
type Script struct {
	Name           string    `yaml:"name"`
	Description    string    `yaml:"description"`
	PanTemperature float64   `yaml:"pan_temperature"`
	Segments       []Segment `yaml:"segments"`
}

// Segment holds one stretch of steady input. Zero values mean: no spin,
// spin about +Y, no tilt, the script's pan temperature, seated in the hole,
// derived phase.
type Segment struct {
	Duration float64   `yaml:"duration"`
	Spin     float64   `yaml:"spin"`
	Axis     []float64 `yaml:"axis"`
	Wobble   float64   `yaml:"wobble"`
	WobbleHz float64   `yaml:"wobble_hz"`
	// TiltDeg is [about X, about Z] in degrees.
	TiltDeg []float64 `yaml:"tilt_deg"`
	Accel   []float64 `yaml:"accel"`
	PanTemp *float64  `yaml:"pan_temperature"`
	InHole  *bool     `yaml:"in_hole"`
	Phase   *int      `yaml:"phase"`
	Jiggle  float64   `yaml:"jiggle"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if s.PanTemperature == 0 {
		s.PanTemperature = DefaultPanTemperature
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if len(s.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalidScript)
	}
	for i := range s.Segments {
		seg := &s.Segments[i]
		if seg.Duration <= 0 {
			return fmt.Errorf("%w: segment %d: duration must be positive", ErrInvalidScript, i+1)
		}
		if seg.Axis != nil && len(seg.Axis) != 3 {
			return fmt.Errorf("%w: segment %d: axis needs 3 components", ErrInvalidScript, i+1)
		}
		if seg.Axis != nil && seg.spinAxis() == (mgl64.Vec3{}) {
			return fmt.Errorf("%w: segment %d: zero spin axis", ErrInvalidScript, i+1)
		}
		if seg.Accel != nil && len(seg.Accel) != 3 {
			return fmt.Errorf("%w: segment %d: accel needs 3 components", ErrInvalidScript, i+1)
		}
		if seg.TiltDeg != nil && len(seg.TiltDeg) != 2 {
			return fmt.Errorf("%w: segment %d: tilt_deg needs 2 components", ErrInvalidScript, i+1)
		}
		if seg.Phase != nil && (*seg.Phase < DerivePhase || *seg.Phase > 3) {
			return fmt.Errorf("%w: segment %d: phase %d", ErrInvalidScript, i+1, *seg.Phase)
		}
	}
	return nil
}

// Duration is the total scripted time.
func (s *Script) Duration() float64 {
	total := 0.0
	for _, seg := range s.Segments {
		total += seg.Duration
	}
	return total
}

// Provider returns a fresh playback of the script.
func (s *Script) Provider() *ScriptProvider {
	return &ScriptProvider{script: s, lastSeg: -1}
}

type ScriptProvider struct {
	script  *Script
	lastSeg int
}

func (p *ScriptProvider) Next(t, dt float64) (Frame, bool) {
	start := 0.0
	for i := range p.script.Segments {
		seg := &p.script.Segments[i]
		if t < start+seg.Duration {
			f := seg.frame(t-start, p.script.PanTemperature)
			if i != p.lastSeg {
				p.lastSeg = i
			} else {
				f.Jiggle = 0
			}
			return f, true
		}
		start += seg.Duration
	}
	return Frame{}, false
}

func (seg *Segment) frame(local, defaultTemp float64) Frame {
	axis := seg.spinAxis()
	if axis == (mgl64.Vec3{}) {
		axis = mgl64.Vec3{0, 1, 0}
	}
	mag := seg.Spin
	if seg.Wobble != 0 && seg.WobbleHz > 0 {
		mag += seg.Wobble * math.Sin(2*math.Pi*seg.WobbleHz*local)
	}

	f := Still(defaultTemp)
	f.AngularVelocity = axis.Mul(mag)
	f.Jiggle = seg.Jiggle

	if len(seg.TiltDeg) == 2 {
		f.Tilt = TiltFromDegrees(seg.TiltDeg[0], seg.TiltDeg[1])
	}
	if len(seg.Accel) == 3 {
		f.Accel = mgl64.Vec3{seg.Accel[0], seg.Accel[1], seg.Accel[2]}
	}
	if seg.PanTemp != nil {
		f.PanTemperature = *seg.PanTemp
	}
	if seg.InHole != nil {
		f.InHole = *seg.InHole
	}
	if seg.Phase != nil {
		f.Phase = *seg.Phase
	}
	return f
}

// spinAxis returns the normalized axis, +Y when unset, or zero when the
// configured axis is degenerate.
func (seg *Segment) spinAxis() mgl64.Vec3 {
	if len(seg.Axis) != 3 {
		return mgl64.Vec3{0, 1, 0}
	}
	a := mgl64.Vec3{seg.Axis[0], seg.Axis[1], seg.Axis[2]}
	l := a.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return a.Mul(1 / l)
}
