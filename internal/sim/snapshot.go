package sim

import (
	"fmt"

	"github.com/san-kum/takosim/internal/ball"
	"github.com/san-kum/takosim/internal/lifecycle"
	"github.com/san-kum/takosim/internal/shaping"
	"github.com/san-kum/takosim/internal/softbody"
)

const snapshotVersion = 1

// Snapshot is everything needed to resume a session bit for bit.
type Snapshot struct {
	Version    int     `json:"version"`
	Resolution int     `json:"resolution"`
	Shaper     string  `json:"shaper"`
	Step       int     `json:"step"`
	Time       float64 `json:"time"`

	Ball    ball.Snapshot      `json:"ball"`
	Solver  softbody.Snapshot  `json:"solver"`
	Shaping shaping.Snapshot   `json:"shaping"`
	Machine lifecycle.Snapshot `json:"machine"`
	Pour    float64            `json:"pour"`
}

func (s *Session) Snapshot() (*Snapshot, error) {
	solver, err := s.solver.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot solver: %w", err)
	}
	return &Snapshot{
		Version:    snapshotVersion,
		Resolution: s.opts.Resolution,
		Shaper:     s.shaper.Name(),
		Step:       s.step,
		Time:       s.time,
		Ball:       s.ball.Snapshot(),
		Solver:     solver,
		Shaping:    s.shaper.Snapshot(),
		Machine:    s.machine.Snapshot(),
		Pour:       s.deriver.Pour(),
	}, nil
}

// Restore loads a snapshot into a session built with the same resolution and
// shaper. Recorded events are cleared.
func (s *Session) Restore(snap *Snapshot) error {
	switch {
	case snap == nil:
		return fmt.Errorf("%w: nil snapshot", ErrSnapshotMismatch)
	case snap.Version != snapshotVersion:
		return fmt.Errorf("%w: version %d, want %d", ErrSnapshotMismatch, snap.Version, snapshotVersion)
	case snap.Shaper != s.shaper.Name():
		return fmt.Errorf("%w: shaper %q, session uses %q", ErrSnapshotMismatch, snap.Shaper, s.shaper.Name())
	case snap.Resolution != s.opts.Resolution:
		return fmt.Errorf("%w: resolution %d, session uses %d", ErrSnapshotMismatch, snap.Resolution, s.opts.Resolution)
	}

	if err := s.ball.Restore(snap.Ball); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotMismatch, err)
	}
	if err := s.solver.Restore(snap.Solver); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotMismatch, err)
	}
	if err := s.machine.Restore(snap.Machine); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotMismatch, err)
	}
	s.shaper.Restore(snap.Shaping)
	s.deriver.SetPour(snap.Pour)
	s.step = snap.Step
	s.time = snap.Time
	s.shape = s.shaper.State()
	s.rec.Reset()
	return nil
}
