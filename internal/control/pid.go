package control

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownParam is returned by SetParam for names the controller does not expose.
var ErrUnknownParam = errors.New("control: unknown parameter")

type PID struct {
	Kp float64
	Ki float64
	Kd float64

	// IntegralLimit bounds the accumulated integral to ±IntegralLimit.
	// Zero leaves the integral unbounded.
	IntegralLimit float64

	integral  float64
	lastError float64

	p, i, d float64
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp: kp,
		Ki: ki,
		Kd: kd,
	}
}

// WithIntegralLimit sets the anti-windup clamp and returns the controller.
func (c *PID) WithIntegralLimit(limit float64) *PID {
	c.IntegralLimit = math.Abs(limit)
	return c
}

// Update advances the controller by dt and returns the control output.
// A non-positive dt yields 0 and leaves the controller untouched.
func (c *PID) Update(setPoint, actual, dt float64) float64 {
	if dt <= 0 {
		return 0
	}

	err := setPoint - actual
	c.integral += err * dt
	if c.IntegralLimit > 0 {
		c.integral = math.Max(-c.IntegralLimit, math.Min(c.IntegralLimit, c.integral))
	}
	derivative := (err - c.lastError) / dt
	c.lastError = err

	c.p = c.Kp * err
	c.i = c.Ki * c.integral
	c.d = c.Kd * derivative

	return c.p + c.i + c.d
}

// Reset clears integral and derivative state
func (c *PID) Reset() {
	c.integral = 0
	c.lastError = 0
	c.p, c.i, c.d = 0, 0, 0
}

// Terms returns the proportional, integral and derivative contributions of
// the last Update.
func (c *PID) Terms() (p, i, d float64) {
	return c.p, c.i, c.d
}

// Integral returns the accumulated error integral.
func (c *PID) Integral() float64 { return c.integral }

// GetParams returns tunable parameters for live adjustment
func (c *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":            c.Kp,
		"Ki":            c.Ki,
		"Kd":            c.Kd,
		"IntegralLimit": c.IntegralLimit,
	}
}

// SetParam adjusts a PID parameter
func (c *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		c.Kp = value
	case "Ki":
		c.Ki = value
	case "Kd":
		c.Kd = value
	case "IntegralLimit":
		c.IntegralLimit = math.Abs(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}

// PIDState is the serializable memory of a PID controller.
type PIDState struct {
	Integral  float64 `json:"integral" yaml:"integral"`
	LastError float64 `json:"last_error" yaml:"last_error"`
	P         float64 `json:"p" yaml:"p"`
	I         float64 `json:"i" yaml:"i"`
	D         float64 `json:"d" yaml:"d"`
}

func (c *PID) State() PIDState {
	return PIDState{Integral: c.integral, LastError: c.lastError, P: c.p, I: c.i, D: c.d}
}

func (c *PID) Restore(s PIDState) {
	c.integral = s.Integral
	c.lastError = s.LastError
	c.p, c.i, c.d = s.P, s.I, s.D
}
