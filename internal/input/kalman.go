package input

import "github.com/go-gl/mathgl/mgl64"

// Kalman1D is a scalar random-walk Kalman filter.
type Kalman1D struct {
	Q, R float64
	X, P float64
}

func NewKalman1D(q, r, x0 float64) Kalman1D {
	return Kalman1D{Q: q, R: r, X: x0, P: 1}
}

func (k *Kalman1D) Update(z float64) float64 {
	k.P += k.Q
	gain := k.P / (k.P + k.R)
	k.X += gain * (z - k.X)
	k.P *= 1 - gain
	return k.X
}

const (
	DefaultKalmanQ = 0.01
	DefaultKalmanR = 0.1
)

// Kalman wraps a provider and smooths its angular velocity per axis.
type Kalman struct {
	src     Provider
	x, y, z Kalman1D
}

func NewKalman(src Provider, q, r float64) *Kalman {
	return &Kalman{
		src: src,
		x:   NewKalman1D(q, r, 0),
		y:   NewKalman1D(q, r, 0),
		z:   NewKalman1D(q, r, 0),
	}
}

func (k *Kalman) Next(t, dt float64) (Frame, bool) {
	f, ok := k.src.Next(t, dt)
	if !ok {
		return f, false
	}
	w := f.AngularVelocity
	f.AngularVelocity = mgl64.Vec3{k.x.Update(w[0]), k.y.Update(w[1]), k.z.Update(w[2])}
	return f, true
}
