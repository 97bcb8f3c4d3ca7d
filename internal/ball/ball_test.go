package ball

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testMesh() []mgl64.Vec3 {
	return []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {-1, 0, 0}}
}

func TestNew(t *testing.T) {
	base := testMesh()
	b := New(7, base)

	if b.VertexCount() != 4 {
		t.Fatalf("expected 4 vertices, got %d", b.VertexCount())
	}
	if len(b.DeformedVertices) != len(b.BaseVertices) {
		t.Error("deformed and base arrays must have the same length")
	}
	if b.HoleIndex != -1 {
		t.Errorf("expected hole index -1, got %d", b.HoleIndex)
	}

	base[0] = mgl64.Vec3{9, 9, 9}
	if b.BaseVertices[0] == base[0] {
		t.Error("New must copy the rest mesh")
	}
}

func TestReset(t *testing.T) {
	b := New(1, testMesh())
	b.CookLevel = 1.4
	b.BatterLevel = 1
	b.SurfaceCookLevels[Down] = 0.9
	b.ShapingQuality = 0.5
	b.Rotation = mgl64.QuatRotate(1, mgl64.Vec3{0, 1, 0})
	b.DeformedVertices[2] = mgl64.Vec3{0, 0, 2}

	b.Reset()

	if b.CookLevel != 0 || b.BatterLevel != 0 || b.ShapingQuality != 0 {
		t.Error("cooking fields should be zeroed")
	}
	for i, l := range b.SurfaceCookLevels {
		if l != 0 {
			t.Errorf("facet %d not reset: %f", i, l)
		}
	}
	if !b.Rotation.ApproxEqual(mgl64.QuatIdent()) {
		t.Errorf("rotation should be identity, got %v", b.Rotation)
	}
	if b.DeformedVertices[2] != b.BaseVertices[2] {
		t.Error("deformed vertices should match base after reset")
	}
}

func TestFacetDirections(t *testing.T) {
	for f := Up; f <= Back; f++ {
		d := f.Direction()
		if math.Abs(d.Len()-1) > 1e-12 {
			t.Errorf("%s direction not unit: %v", f, d)
		}
	}
	if Down.String() != "down" {
		t.Errorf("unexpected name %q", Down.String())
	}
	if Facet(9).String() != "unknown" {
		t.Error("out of range facet should be unknown")
	}
}

func TestLocalDirectionAfterFlip(t *testing.T) {
	b := New(0, testMesh())
	b.BaseRotation = mgl64.QuatRotate(math.Pi, mgl64.Vec3{1, 0, 0})
	b.Tilt(mgl64.QuatIdent())

	down := b.LocalDirection(mgl64.Vec3{0, -1, 0})
	if d := down.Sub(mgl64.Vec3{0, 1, 0}).Len(); d > 1e-9 {
		t.Errorf("after a flip world-down should be local up, got %v", down)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	b := New(3, testMesh())
	b.CookLevel = 0.123456789
	b.SurfaceCookLevels = [NumFacets]float64{0.1, 0.2, 0.3, 0.4, 0.5, 1.0 / 3}
	b.DeformedVertices[1] = mgl64.Vec3{0.1, 1.0 / 7, -0.3}
	b.Rotation = mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1})
	b.IsInHole = true

	data, err := json.Marshal(b.Snapshot())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	c := New(0, testMesh())
	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if c.CookLevel != b.CookLevel || c.SurfaceCookLevels != b.SurfaceCookLevels {
		t.Error("cook state not restored bit-identically")
	}
	if c.DeformedVertices[1] != b.DeformedVertices[1] {
		t.Errorf("vertex mismatch: %v vs %v", c.DeformedVertices[1], b.DeformedVertices[1])
	}
	if c.Rotation != b.Rotation || !c.IsInHole || c.ID != 3 {
		t.Error("pose or flags not restored")
	}
}

func TestRestoreVertexMismatch(t *testing.T) {
	b := New(0, testMesh())
	small := New(0, testMesh()[:2])

	err := small.Restore(b.Snapshot())
	if !errors.Is(err, ErrVertexCount) {
		t.Errorf("expected ErrVertexCount, got %v", err)
	}
}
