package ball

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrVertexCount is returned when a snapshot does not match the ball's mesh.
var ErrVertexCount = errors.New("ball: snapshot vertex count mismatch")

// Snapshot is a deep copy of every numeric field of a Ball.
type Snapshot struct {
	ID               int                `json:"id"`
	Position         mgl64.Vec3         `json:"position"`
	Rotation         mgl64.Quat         `json:"rotation"`
	BaseRotation     mgl64.Quat         `json:"base_rotation"`
	Velocity         mgl64.Vec3         `json:"velocity"`
	AngularVelocity  mgl64.Vec3         `json:"angular_velocity"`
	BaseVertices     []mgl64.Vec3       `json:"base_vertices"`
	DeformedVertices []mgl64.Vec3       `json:"deformed_vertices"`
	CookLevel        float64            `json:"cook_level"`
	BatterLevel      float64            `json:"batter_level"`
	SurfaceCook      [NumFacets]float64 `json:"surface_cook_levels"`
	ShapingQuality   float64            `json:"shaping_quality"`
	IsInHole         bool               `json:"is_in_hole"`
	HoleIndex        int                `json:"hole_index"`
}

func (b *Ball) Snapshot() Snapshot {
	s := Snapshot{
		ID:               b.ID,
		Position:         b.Position,
		Rotation:         b.Rotation,
		BaseRotation:     b.BaseRotation,
		Velocity:         b.Velocity,
		AngularVelocity:  b.AngularVelocity,
		BaseVertices:     make([]mgl64.Vec3, len(b.BaseVertices)),
		DeformedVertices: make([]mgl64.Vec3, len(b.DeformedVertices)),
		CookLevel:        b.CookLevel,
		BatterLevel:      b.BatterLevel,
		SurfaceCook:      b.SurfaceCookLevels,
		ShapingQuality:   b.ShapingQuality,
		IsInHole:         b.IsInHole,
		HoleIndex:        b.HoleIndex,
	}
	copy(s.BaseVertices, b.BaseVertices)
	copy(s.DeformedVertices, b.DeformedVertices)
	return s
}

// Restore overwrites the ball with a snapshot taken from a ball of the same
// vertex count.
func (b *Ball) Restore(s Snapshot) error {
	if len(s.BaseVertices) != len(b.BaseVertices) || len(s.DeformedVertices) != len(b.DeformedVertices) {
		return fmt.Errorf("%w: have %d, snapshot %d", ErrVertexCount, len(b.BaseVertices), len(s.BaseVertices))
	}
	b.ID = s.ID
	b.Position = s.Position
	b.Rotation = s.Rotation
	b.BaseRotation = s.BaseRotation
	b.Velocity = s.Velocity
	b.AngularVelocity = s.AngularVelocity
	copy(b.BaseVertices, s.BaseVertices)
	copy(b.DeformedVertices, s.DeformedVertices)
	b.CookLevel = s.CookLevel
	b.BatterLevel = s.BatterLevel
	b.SurfaceCookLevels = s.SurfaceCook
	b.ShapingQuality = s.ShapingQuality
	b.IsInHole = s.IsInHole
	b.HoleIndex = s.HoleIndex
	return nil
}
