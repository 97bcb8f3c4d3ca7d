// Package input supplies per-tick motion samples to a session.
//
// Device plumbing lives outside the simulation. A [Provider] hands the driver
// one [Frame] per tick: the gyro reading, the player's tilt of the pan, linear
// acceleration and the state of the stove.
package input

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DerivePhase asks the session to derive the lifecycle phase itself.
	DerivePhase = -1

	DefaultPanTemperature = 180.0
)

// Frame is one tick of input.
type Frame struct {
	AngularVelocity mgl64.Vec3
	// Tilt is composed on top of the ball's base pose.
	Tilt mgl64.Quat
	// Accel is the world-space linear acceleration of the ball.
	Accel mgl64.Vec3

	PanTemperature float64
	InHole         bool

	// Phase is an explicit lifecycle phase, or DerivePhase.
	Phase int
	// Jiggle is an impulse strength applied this tick; zero for none.
	Jiggle float64
}

// Still returns a motionless frame with the ball seated over a pan at temp.
func Still(temp float64) Frame {
	return Frame{
		Tilt:           mgl64.QuatIdent(),
		PanTemperature: temp,
		InHole:         true,
		Phase:          DerivePhase,
	}
}

// Provider produces input frames. Next reports false once the provider is
// exhausted.
type Provider interface {
	Next(t, dt float64) (Frame, bool)
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func(t, dt float64) (Frame, bool)

func (f ProviderFunc) Next(t, dt float64) (Frame, bool) { return f(t, dt) }

// Constant yields the same frame until duration seconds have elapsed.
func Constant(f Frame, duration float64) Provider {
	return ProviderFunc(func(t, _ float64) (Frame, bool) {
		if t >= duration {
			return Frame{}, false
		}
		return f, true
	})
}

// TiltFromDegrees builds a tilt from rotations about world X then Z.
func TiltFromDegrees(x, z float64) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(x), mgl64.Vec3{1, 0, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(z), mgl64.Vec3{0, 0, 1})
	return qz.Mul(qx)
}
