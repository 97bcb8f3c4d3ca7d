// Package ball holds the mutable physical and cooking state of a single takoyaki.
//
// A [Ball] is owned by exactly one session driver. Each simulation component
// writes a disjoint set of fields during a tick:
//
//   - softbody: DeformedVertices
//   - heat: CookLevel, SurfaceCookLevels
//   - lifecycle: Rotation, BaseRotation, BatterLevel on transitions
//
// Everything else is advanced by the driver from input.
package ball

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Facet identifies one of the six axis-aligned heating zones.
type Facet int

const (
	Up Facet = iota
	Down
	Left
	Right
	Forward
	Back
)

// NumFacets is the fixed number of directional heating zones.
const NumFacets = 6

var facetNames = [NumFacets]string{"up", "down", "left", "right", "forward", "back"}

func (f Facet) String() string {
	if f < 0 || int(f) >= NumFacets {
		return "unknown"
	}
	return facetNames[f]
}

// Direction returns the local-space unit normal of the facet.
func (f Facet) Direction() mgl64.Vec3 {
	switch f {
	case Up:
		return mgl64.Vec3{0, 1, 0}
	case Down:
		return mgl64.Vec3{0, -1, 0}
	case Left:
		return mgl64.Vec3{-1, 0, 0}
	case Right:
		return mgl64.Vec3{1, 0, 0}
	case Forward:
		return mgl64.Vec3{0, 0, 1}
	case Back:
		return mgl64.Vec3{0, 0, -1}
	}
	return mgl64.Vec3{}
}

// Ball is the shared aggregate for one gameplay session.
type Ball struct {
	ID int

	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	// BaseRotation is the resting pose set by lifecycle transitions.
	// Input tilt is composed on top of it each tick.
	BaseRotation mgl64.Quat

	BaseVertices     []mgl64.Vec3
	DeformedVertices []mgl64.Vec3

	CookLevel         float64
	BatterLevel       float64
	SurfaceCookLevels [NumFacets]float64
	ShapingQuality    float64

	IsInHole  bool
	HoleIndex int
}

// New creates a ball with the given rest mesh. The vertices are copied.
func New(id int, base []mgl64.Vec3) *Ball {
	b := &Ball{
		ID:               id,
		Rotation:         mgl64.QuatIdent(),
		BaseRotation:     mgl64.QuatIdent(),
		BaseVertices:     make([]mgl64.Vec3, len(base)),
		DeformedVertices: make([]mgl64.Vec3, len(base)),
		HoleIndex:        -1,
	}
	copy(b.BaseVertices, base)
	copy(b.DeformedVertices, base)
	return b
}

// VertexCount returns the mesh resolution the ball was built with.
func (b *Ball) VertexCount() int { return len(b.BaseVertices) }

// Reset restores the raw initial state for a session restart. The rest mesh
// is kept.
func (b *Ball) Reset() {
	b.Position = mgl64.Vec3{}
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
	b.Rotation = mgl64.QuatIdent()
	b.BaseRotation = mgl64.QuatIdent()
	copy(b.DeformedVertices, b.BaseVertices)
	b.CookLevel = 0
	b.BatterLevel = 0
	b.SurfaceCookLevels = [NumFacets]float64{}
	b.ShapingQuality = 0
}

// Tilt sets the rigid orientation to tilt applied on top of the base pose.
func (b *Ball) Tilt(tilt mgl64.Quat) {
	b.Rotation = tilt.Mul(b.BaseRotation).Normalize()
}

// LocalDirection transforms a world-space direction into the ball's local frame.
func (b *Ball) LocalDirection(world mgl64.Vec3) mgl64.Vec3 {
	return b.Rotation.Inverse().Rotate(world)
}

// MeanFacetLevel returns the average of the six facet cook levels.
func (b *Ball) MeanFacetLevel() float64 {
	sum := 0.0
	for _, l := range b.SurfaceCookLevels {
		sum += l
	}
	return sum / NumFacets
}
