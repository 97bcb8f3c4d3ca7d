// Package mesh generates the rest geometry a ball is built from.
package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MinResolution is the smallest resolution that yields a closed sphere.
const MinResolution = 4

var ErrResolution = errors.New("mesh: resolution too small")

type Mesh struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	UVs       []mgl64.Vec2
	Indices   []uint32
}

// Sphere builds a UV sphere with resolution/2 latitude bands and resolution
// longitude segments. Seam and pole vertices are duplicated so UVs stay
// continuous, giving (res/2+1)*(res+1) vertices.
func Sphere(resolution int, radius float64) (*Mesh, error) {
	if resolution < MinResolution {
		return nil, fmt.Errorf("%w: %d < %d", ErrResolution, resolution, MinResolution)
	}
	latSegments := resolution / 2
	lonSegments := resolution
	stride := lonSegments + 1
	n := (latSegments + 1) * stride

	m := &Mesh{
		Positions: make([]mgl64.Vec3, 0, n),
		Normals:   make([]mgl64.Vec3, 0, n),
		UVs:       make([]mgl64.Vec2, 0, n),
		Indices:   make([]uint32, 0, latSegments*lonSegments*6),
	}

	for y := 0; y <= latSegments; y++ {
		v := float64(y) / float64(latSegments)
		lat := (v - 0.5) * math.Pi
		sinLat, cosLat := math.Sincos(lat)

		for x := 0; x <= lonSegments; x++ {
			u := float64(x) / float64(lonSegments)
			sinLon, cosLon := math.Sincos(u * 2 * math.Pi)

			normal := mgl64.Vec3{cosLon * cosLat, sinLat, sinLon * cosLat}
			m.Positions = append(m.Positions, normal.Mul(radius))
			m.Normals = append(m.Normals, normal)
			m.UVs = append(m.UVs, mgl64.Vec2{u, v})
		}
	}

	for y := 0; y < latSegments; y++ {
		for x := 0; x < lonSegments; x++ {
			v0 := uint32(y*stride + x)
			v1 := v0 + 1
			v2 := uint32((y+1)*stride + x)
			v3 := v2 + 1
			m.Indices = append(m.Indices, v0, v2, v1, v1, v2, v3)
		}
	}
	return m, nil
}

func (m *Mesh) VertexCount() int { return len(m.Positions) }

func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// WriteOBJ writes positions as a Wavefront OBJ using the mesh's triangles.
// positions must be index aligned with the mesh, e.g. a deformed copy.
func (m *Mesh) WriteOBJ(w io.Writer, positions []mgl64.Vec3) error {
	if len(positions) != len(m.Positions) {
		return fmt.Errorf("mesh: %d positions for %d vertices", len(positions), len(m.Positions))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "o takoyaki")
	for _, p := range positions {
		fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", p[0], p[1], p[2])
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(bw, "vt %.6f %.6f\n", uv[0], uv[1])
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i]+1, m.Indices[i+1]+1, m.Indices[i+2]+1
		fmt.Fprintf(bw, "f %d/%d %d/%d %d/%d\n", a, a, b, b, c, c)
	}
	return bw.Flush()
}
