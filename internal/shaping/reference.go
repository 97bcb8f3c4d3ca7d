package shaping

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/control"
	"github.com/san-kum/takosim/internal/feedback"
)

// Reference is the normative Shaper.
type Reference struct {
	params Params
	pid    *control.PID
	sink   feedback.Sink

	st             State
	pulseTimer     float64
	stabilityTimer float64
}

func NewReference(p Params, sink feedback.Sink) *Reference {
	if sink == nil {
		sink = feedback.Discard
	}
	return &Reference{
		params: p,
		pid:    control.NewPID(p.Kp, p.Ki, p.Kd).WithIntegralLimit(p.IntegralLimit),
		sink:   sink,
		st:     initialState(),
	}
}

func (r *Reference) Name() string { return "reference" }

func (r *Reference) State() State { return r.st }

// PID exposes the controller for live tuning.
func (r *Reference) PID() *control.PID { return r.pid }

func (r *Reference) Update(dt float64, angularVelocity mgl64.Vec3) State {
	if dt <= 0 {
		return r.st
	}
	target := r.params.TargetGyroMag
	mag := angularVelocity.Len()
	out := r.pid.Update(target, mag, dt)

	r.pulseTimer += dt * (target / math.Pi)
	last := r.st.Pulse
	r.st.Pulse = math.Abs(math.Sin(r.pulseTimer))
	if r.st.Pulse > pulsePeak && last <= pulsePeak && mag > tickThreshold {
		r.sink.Emit(feedback.Event{Kind: feedback.Tick, Value: r.st.Pulse})
	}

	r.st.Active = mag > activeThreshold
	if r.st.Active {
		harmony := clamp01(1 - math.Abs(out)/target)
		r.st.Harmony = harmony
		r.st.Perfect = harmony > perfectHarmony

		if r.st.Perfect {
			r.stabilityTimer += dt
			if r.stabilityTimer > comboHold {
				r.st.Combo++
				r.stabilityTimer = 0
				r.sink.Emit(feedback.Event{Kind: feedback.Perfect, Combo: r.st.Combo})
			}
			r.st.Mastery = math.Min(1, r.st.Mastery+dt*masteryGain)
		} else {
			r.stabilityTimer = 0
			if harmony < comboBreak {
				r.st.Combo = 0
			}
			r.st.Mastery = math.Max(0, r.st.Mastery-dt*masteryDecay)
		}

		r.st.Pressure = harmony * (1 + r.st.Mastery*2)
		r.st.Progress = math.Max(0, r.st.Progress-r.st.Pressure*shapingSpeed*dt)
	} else {
		r.st.Harmony = 0
		r.st.Pressure = 0
		r.st.Perfect = false
		r.st.Combo = 0
		r.st.Mastery = math.Max(0, r.st.Mastery-dt*idleDecay)
		r.st.Progress = math.Min(1, r.st.Progress+dt*idleRelax)
	}

	r.st.P, r.st.I, r.st.D = r.pid.Terms()
	return r.st
}

func (r *Reference) Reset() {
	r.pid.Reset()
	r.st = initialState()
	r.pulseTimer = 0
	r.stabilityTimer = 0
}

func (r *Reference) Snapshot() Snapshot {
	ps := r.pid.State()
	return Snapshot{
		State:          r.st,
		PulseTimer:     r.pulseTimer,
		StabilityTimer: r.stabilityTimer,
		Integral:       ps.Integral,
		LastError:      ps.LastError,
	}
}

func (r *Reference) Restore(s Snapshot) {
	r.st = s.State
	r.pulseTimer = s.PulseTimer
	r.stabilityTimer = s.StabilityTimer
	r.pid.Restore(control.PIDState{
		Integral:  s.Integral,
		LastError: s.LastError,
		P:         s.State.P,
		I:         s.State.I,
		D:         s.State.D,
	})
}
