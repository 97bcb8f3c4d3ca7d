// Package feedback carries discrete signals out of the simulation core.
//
// The core never plays sounds or vibrates a device. It emits [Event] values
// into a [Sink] and reports the final score to a [ScoreSink]; collaborators
// decide how to render them.
package feedback

import (
	"go.uber.org/zap"
)

type Kind int

const (
	// Tick marks a rhythm pulse crossing while the ball is turning.
	Tick Kind = iota
	// Perfect marks a combo increment.
	Perfect
	EnterCooking
	EnterTurned
	EnterFinished
	Jiggle
)

var kindNames = [...]string{"tick", "perfect", "enter-cooking", "enter-turned", "enter-finished", "jiggle"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	if v, ok := ParseKind(string(b)); ok {
		*k = v
	}
	return nil
}

type Event struct {
	Kind Kind `json:"kind"`
	// Time is the session clock in seconds, stamped by the driver.
	Time float64 `json:"time"`
	// Value is kind specific: jiggle strength, final score, pulse level.
	Value float64 `json:"value,omitempty"`
	Combo int     `json:"combo,omitempty"`
}

type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans an event out to every sink in order.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Recorder keeps every event it receives.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(e Event) {
	r.Events = append(r.Events, e)
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() { r.Events = r.Events[:0] }

// LogSink writes events to a zap logger. Ticks are frequent and go to debug;
// everything else is info.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Emit(e Event) {
	fields := []zap.Field{
		zap.Stringer("kind", e.Kind),
		zap.Float64("t", e.Time),
	}
	if e.Value != 0 {
		fields = append(fields, zap.Float64("value", e.Value))
	}
	if e.Combo != 0 {
		fields = append(fields, zap.Int("combo", e.Combo))
	}
	if e.Kind == Tick {
		s.log.Debug("feedback", fields...)
		return
	}
	s.log.Info("feedback", fields...)
}

// ScoreSink receives the final integer score once per session.
type ScoreSink interface {
	ReportScore(score int)
}

type ScoreFunc func(score int)

func (f ScoreFunc) ReportScore(score int) { f(score) }

// DiscardScore ignores the score.
var DiscardScore ScoreSink = ScoreFunc(func(int) {})
