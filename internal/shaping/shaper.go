// Package shaping scores how steadily the player turns the ball and converts
// that into shaping pressure.
//
// A PID loop tracks the angular speed against a target cadence. The closer
// the speed, the higher the harmony, which drives mastery, combos and the
// progress of the dough from a shapeless blob (progress 1) to a sphere
// (progress 0).
//
// Two implementations are registered: "reference" follows the algorithm
// literally through a [control.PID], "fast" inlines the controller and uses a
// sine lookup table for the rhythm pulse. They agree exactly on progress,
// mastery and combo.
package shaping

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/feedback"
)

// Shaper is the skill-assessment loop driven once per tick.
type Shaper interface {
	Name() string
	Update(dt float64, angularVelocity mgl64.Vec3) State
	State() State
	Reset()
	Snapshot() Snapshot
	Restore(Snapshot)
}

// State is the observable output of a Shaper.
type State struct {
	Progress float64 `json:"progress"`
	Mastery  float64 `json:"mastery"`
	Pulse    float64 `json:"pulse"`
	Combo    int     `json:"combo"`
	Harmony  float64 `json:"harmony"`
	Pressure float64 `json:"pressure"`
	Perfect  bool    `json:"perfect"`
	Active   bool    `json:"active"`

	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
}

func initialState() State {
	return State{Progress: 1}
}

type Params struct {
	TargetGyroMag float64 `yaml:"target_gyro_mag" json:"target_gyro_mag"`
	Kp            float64 `yaml:"kp" json:"kp"`
	Ki            float64 `yaml:"ki" json:"ki"`
	Kd            float64 `yaml:"kd" json:"kd"`
	IntegralLimit float64 `yaml:"integral_limit" json:"integral_limit"`
}

func DefaultParams() Params {
	return Params{
		TargetGyroMag: 6.0,
		Kp:            1.2,
		Ki:            0.3,
		Kd:            0.15,
		IntegralLimit: 1,
	}
}

const (
	shapingSpeed = 0.4

	// activeThreshold is the angular speed below which the ball counts as idle.
	activeThreshold = 2.0
	tickThreshold   = 1.0
	pulsePeak       = 0.9

	perfectHarmony = 0.85
	comboBreak     = 0.5
	comboHold      = 0.5

	masteryGain  = 0.5
	masteryDecay = 0.2
	idleDecay    = 1.0
	idleRelax    = 0.05
)

// Snapshot is the full internal memory of a Shaper.
type Snapshot struct {
	State          State   `json:"state"`
	PulseTimer     float64 `json:"pulse_timer"`
	StabilityTimer float64 `json:"stability_timer"`
	Integral       float64 `json:"integral"`
	LastError      float64 `json:"last_error"`
}

type Factory func(p Params, sink feedback.Sink) Shaper

var registry = map[string]Factory{
	"reference": func(p Params, sink feedback.Sink) Shaper { return NewReference(p, sink) },
	"fast":      func(p Params, sink feedback.Sink) Shaper { return NewFast(p, sink) },
}

// ErrUnknown is returned by New for names that are not registered.
var ErrUnknown = errors.New("shaping: unknown shaper")

// New constructs the named shaper. A nil sink discards events.
func New(name string, p Params, sink feedback.Sink) (Shaper, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknown, name, Names())
	}
	if sink == nil {
		sink = feedback.Discard
	}
	return f(p, sink), nil
}

// Names lists registered shapers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
