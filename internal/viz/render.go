package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/ball"
	"github.com/san-kum/takosim/internal/mesh"
)

// Camera looks at the origin from +Z after applying yaw and pitch.
type Camera struct {
	Yaw, Pitch float64
	Zoom       float64
	Distance   float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: 0.35, Zoom: 1.0, Distance: 4}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+dPitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(4, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.25, c.Zoom/1.2) }

func (c *Camera) rotation() mgl64.Quat {
	return mgl64.QuatRotate(c.Pitch, mgl64.Vec3{1, 0, 0}).Mul(mgl64.QuatRotate(c.Yaw, mgl64.Vec3{0, 1, 0}))
}

// Project converts a world point to dot coordinates on a sw x sh surface.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	return c.project(c.rotation(), p, sw, sh)
}

func (c *Camera) project(rot mgl64.Quat, p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	v := rot.Rotate(p).Mul(c.Zoom)
	if v.Z() >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - v.Z())
	pScale := float64(min(sw, sh)) / 3.0
	sx := int(v.X()*scale*pScale) + sw/2
	sy := int(-v.Y()*scale*pScale) + sh/2
	return sx, sy, v.Z(), sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// facetFor picks the heating zone a local direction falls in.
func facetFor(n mgl64.Vec3) ball.Facet {
	best, bestDot := ball.Up, math.Inf(-1)
	for f := ball.Facet(0); f < ball.NumFacets; f++ {
		if d := n.Dot(f.Direction()); d > bestDot {
			best, bestDot = f, d
		}
	}
	return best
}

// DrawBall draws the deformed mesh as a wireframe in its current pose.
// Edges on the far side are culled and every edge is shaded with the cook
// level of the facets it touches.
func DrawBall(c *Canvas, cam *Camera, b *ball.Ball, m *mesh.Mesh) {
	if c == nil || cam == nil || b == nil || m == nil {
		return
	}
	sw, sh := c.SubSize()
	view := cam.rotation()
	pose := view.Mul(b.Rotation)

	n := len(b.DeformedVertices)
	xs := make([]int, n)
	ys := make([]int, n)
	front := make([]bool, n)
	shade := make([]float64, n)
	for i, v := range b.DeformedVertices {
		xs[i], ys[i], _, _ = cam.project(view, b.Rotation.Rotate(v), sw, sh)
		if i < len(m.Normals) {
			front[i] = pose.Rotate(m.Normals[i]).Z() > -0.05
			shade[i] = b.SurfaceCookLevels[facetFor(m.Normals[i])]
		}
	}

	edge := func(i, j uint32) {
		if int(i) >= n || int(j) >= n || !(front[i] || front[j]) {
			return
		}
		c.DrawLine(xs[i], ys[i], xs[j], ys[j], math.Max(shade[i], shade[j]))
	}
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		edge(i0, i1)
		edge(i1, i2)
		edge(i2, i0)
	}
}
