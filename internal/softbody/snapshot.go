package softbody

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrVertexCount = errors.New("softbody: snapshot vertex count mismatch")

type Snapshot struct {
	Positions  []mgl64.Vec3 `json:"positions"`
	Velocities []mgl64.Vec3 `json:"velocities"`
	Bias       float64      `json:"bias"`
	RNG        []byte       `json:"rng"`
}

func (s *Solver) Snapshot() (Snapshot, error) {
	rng, err := s.src.MarshalBinary()
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal rng: %w", err)
	}
	snap := Snapshot{
		Positions:  make([]mgl64.Vec3, len(s.verts)),
		Velocities: make([]mgl64.Vec3, len(s.verts)),
		Bias:       s.bias,
		RNG:        rng,
	}
	for i, v := range s.verts {
		snap.Positions[i] = v.Position
		snap.Velocities[i] = v.Velocity
	}
	return snap, nil
}

func (s *Solver) Restore(snap Snapshot) error {
	if len(snap.Positions) != len(s.verts) || len(snap.Velocities) != len(s.verts) {
		return fmt.Errorf("%w: have %d, snapshot %d", ErrVertexCount, len(s.verts), len(snap.Positions))
	}
	if err := s.src.UnmarshalBinary(snap.RNG); err != nil {
		return fmt.Errorf("unmarshal rng: %w", err)
	}
	for i := range s.verts {
		s.verts[i].Position = snap.Positions[i]
		s.verts[i].Velocity = snap.Velocities[i]
		s.ball.DeformedVertices[i] = snap.Positions[i]
	}
	s.bias = snap.Bias
	return nil
}
