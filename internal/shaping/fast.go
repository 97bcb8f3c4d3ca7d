package shaping

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/feedback"
)

// Fast is an allocation-free Shaper with the controller inlined and the
// pulse read from a sine table. Ticks may differ from Reference by a frame
// when the pulse lands within table error of the peak threshold.
type Fast struct {
	target    float64
	pulseRate float64
	kp, ki    float64
	kd, limit float64

	sink  feedback.Sink
	table *sineTable

	st             State
	pulseTimer     float64
	stabilityTimer float64
	integral       float64
	lastError      float64
}

func NewFast(p Params, sink feedback.Sink) *Fast {
	if sink == nil {
		sink = feedback.Discard
	}
	return &Fast{
		target:    p.TargetGyroMag,
		pulseRate: p.TargetGyroMag / math.Pi,
		kp:        p.Kp,
		ki:        p.Ki,
		kd:        p.Kd,
		limit:     math.Abs(p.IntegralLimit),
		sink:      sink,
		table:     defaultSineTable,
		st:        initialState(),
	}
}

func (f *Fast) Name() string { return "fast" }

func (f *Fast) State() State { return f.st }

func (f *Fast) Update(dt float64, w mgl64.Vec3) State {
	if dt <= 0 {
		return f.st
	}
	mag := w.Len()

	e := f.target - mag
	f.integral += e * dt
	if f.limit > 0 {
		f.integral = math.Max(-f.limit, math.Min(f.limit, f.integral))
	}
	derivative := (e - f.lastError) / dt
	f.lastError = e
	p := f.kp * e
	i := f.ki * f.integral
	d := f.kd * derivative
	out := p + i + d

	f.pulseTimer += dt * f.pulseRate
	last := f.st.Pulse
	f.st.Pulse = math.Abs(f.table.Sin(f.pulseTimer))
	if f.st.Pulse > pulsePeak && last <= pulsePeak && mag > tickThreshold {
		f.sink.Emit(feedback.Event{Kind: feedback.Tick, Value: f.st.Pulse})
	}

	st := &f.st
	st.Active = mag > activeThreshold
	if !st.Active {
		st.Harmony, st.Pressure, st.Perfect = 0, 0, false
		st.Combo = 0
		st.Mastery = math.Max(0, st.Mastery-dt*idleDecay)
		st.Progress = math.Min(1, st.Progress+dt*idleRelax)
		st.P, st.I, st.D = p, i, d
		return *st
	}

	harmony := clamp01(1 - math.Abs(out)/f.target)
	st.Harmony = harmony
	st.Perfect = harmony > perfectHarmony
	if st.Perfect {
		f.stabilityTimer += dt
		if f.stabilityTimer > comboHold {
			st.Combo++
			f.stabilityTimer = 0
			f.sink.Emit(feedback.Event{Kind: feedback.Perfect, Combo: st.Combo})
		}
		st.Mastery = math.Min(1, st.Mastery+dt*masteryGain)
	} else {
		f.stabilityTimer = 0
		if harmony < comboBreak {
			st.Combo = 0
		}
		st.Mastery = math.Max(0, st.Mastery-dt*masteryDecay)
	}
	st.Pressure = harmony * (1 + st.Mastery*2)
	st.Progress = math.Max(0, st.Progress-st.Pressure*shapingSpeed*dt)
	st.P, st.I, st.D = p, i, d
	return *st
}

func (f *Fast) Reset() {
	f.st = initialState()
	f.pulseTimer = 0
	f.stabilityTimer = 0
	f.integral = 0
	f.lastError = 0
}

func (f *Fast) Snapshot() Snapshot {
	return Snapshot{
		State:          f.st,
		PulseTimer:     f.pulseTimer,
		StabilityTimer: f.stabilityTimer,
		Integral:       f.integral,
		LastError:      f.lastError,
	}
}

func (f *Fast) Restore(s Snapshot) {
	f.st = s.State
	f.pulseTimer = s.PulseTimer
	f.stabilityTimer = s.StabilityTimer
	f.integral = s.Integral
	f.lastError = s.LastError
}
