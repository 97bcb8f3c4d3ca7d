package feedback

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestKindNames(t *testing.T) {
	for k := Tick; k <= Jiggle; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("kind %d did not survive String/ParseKind", k)
		}
	}
	if Kind(42).String() != "unknown" {
		t.Error("out of range kind should be unknown")
	}
	if _, ok := ParseKind("boom"); ok {
		t.Error("unknown name should not parse")
	}
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(Event{Kind: EnterTurned, Time: 1.5})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"kind":"enter-turned","time":1.5}` {
		t.Errorf("unexpected encoding %s", data)
	}
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatal(err)
	}
	if e.Kind != EnterTurned {
		t.Errorf("expected enter-turned, got %s", e.Kind)
	}
}

func TestMultiAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	calls := 0
	m := Multi{a, b, SinkFunc(func(Event) { calls++ }), Discard}

	m.Emit(Event{Kind: Tick})
	m.Emit(Event{Kind: Perfect, Combo: 1})
	m.Emit(Event{Kind: Tick})

	if len(a.Events) != 3 || len(b.Events) != 3 || calls != 3 {
		t.Fatalf("fan-out mismatch: %d %d %d", len(a.Events), len(b.Events), calls)
	}
	if a.Count(Tick) != 2 || a.Count(Perfect) != 1 {
		t.Errorf("unexpected counts tick=%d perfect=%d", a.Count(Tick), a.Count(Perfect))
	}
	a.Reset()
	if len(a.Events) != 0 {
		t.Error("reset should clear events")
	}
}

func TestLogSinkLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewLogSink(zap.New(core))

	s.Emit(Event{Kind: Tick, Time: 0.1})
	s.Emit(Event{Kind: EnterFinished, Time: 9, Value: 87})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Error("ticks should log at debug")
	}
	if entries[1].Level != zapcore.InfoLevel {
		t.Error("transitions should log at info")
	}
	if entries[1].ContextMap()["value"] != 87.0 {
		t.Errorf("missing value field: %v", entries[1].ContextMap())
	}
}

func TestScoreFunc(t *testing.T) {
	got := -1
	var sink ScoreSink = ScoreFunc(func(s int) { got = s })
	sink.ReportScore(73)
	if got != 73 {
		t.Errorf("expected 73, got %d", got)
	}
	DiscardScore.ReportScore(1)
	NewLogSink(nil).Emit(Event{Kind: Jiggle})
}
