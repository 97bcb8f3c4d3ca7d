package softbody

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/ball"
)

func octahedron() []mgl64.Vec3 {
	return []mgl64.Vec3{
		{0.5, 0, 0}, {-0.5, 0, 0},
		{0, 0.5, 0}, {0, -0.5, 0},
		{0, 0, 0.5}, {0, 0, -0.5},
	}
}

const dt = 1.0 / 60

func TestConvergesToRest(t *testing.T) {
	b := ball.New(0, octahedron())
	s := New(b, DefaultParams(), 1)

	s.TriggerJiggle(2)
	s.Update(dt, mgl64.Vec3{}, mgl64.Vec3{})
	if s.MaxDisplacement() == 0 {
		t.Fatal("jiggle should displace vertices")
	}

	for i := 0; i < 20000; i++ {
		s.Update(dt, mgl64.Vec3{}, mgl64.Vec3{})
	}

	if d := s.MaxDisplacement(); d > 1e-6 {
		t.Errorf("expected convergence to rest, max displacement %g", d)
	}
	for i, v := range b.DeformedVertices {
		if !v.ApproxEqualThreshold(b.BaseVertices[i], 1e-6) {
			t.Errorf("vertex %d: deformed %v, rest %v", i, v, b.BaseVertices[i])
		}
	}
}

func TestDisplacementCap(t *testing.T) {
	b := ball.New(0, octahedron())
	s := New(b, DefaultParams(), 1)

	gravity := mgl64.Vec3{0, -9.81, 0}
	for i := 0; i < 600; i++ {
		s.Update(dt, mgl64.Vec3{}, gravity)
		for j, v := range s.Vertices() {
			if d := v.Position.Sub(v.Rest).Len(); d > 0.3+1e-9 {
				t.Fatalf("tick %d vertex %d: displacement %f exceeds cap", i, j, d)
			}
		}
	}

	// gravity sags every vertex along local -y
	for _, v := range s.Vertices() {
		if v.Position[1] >= v.Rest[1] {
			t.Errorf("vertex should sag under gravity: pos %v rest %v", v.Position, v.Rest)
		}
	}
}

func TestGravityInLocalFrame(t *testing.T) {
	b := ball.New(0, octahedron())
	b.Rotation = mgl64.QuatRotate(math.Pi, mgl64.Vec3{1, 0, 0})
	s := New(b, DefaultParams(), 1)

	for i := 0; i < 60; i++ {
		s.Update(dt, mgl64.Vec3{}, mgl64.Vec3{0, -9.81, 0})
	}
	// upside down, world gravity pulls toward local +y
	v := s.Vertices()[0]
	if v.Position[1] <= v.Rest[1] {
		t.Errorf("flipped ball should deform toward local +y, got %v", v.Position)
	}
}

func TestUncappedSolver(t *testing.T) {
	b := ball.New(0, octahedron())
	p := DefaultParams()
	p.MaxDisplacement = 0
	s := New(b, p, 1)

	for i := 0; i < 20000; i++ {
		s.Update(dt, mgl64.Vec3{}, mgl64.Vec3{0, -7, 0})
	}
	// equilibrium: k*x = g*influence -> x = 2
	want := 7 * p.GravityInfluence / p.Stiffness
	if d := s.MaxDisplacement(); math.Abs(d-want) > 1e-4 {
		t.Errorf("expected equilibrium displacement %f, got %f", want, d)
	}
}

func TestShapeBiasTarget(t *testing.T) {
	b := ball.New(0, octahedron())
	s := New(b, DefaultParams(), 1)

	rest := mgl64.Vec3{1, 1, 1}
	if s.Target(rest) != rest {
		t.Error("zero bias must target the rest position")
	}

	s.SetShapeBias(3)
	if s.ShapeBias() != 1 {
		t.Fatalf("bias should clamp to 1, got %f", s.ShapeBias())
	}
	got := s.Target(rest)
	want := mgl64.Vec3{1.15, 0.65, 1.15}
	if !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("expected %v, got %v", want, got)
	}

	s.SetShapeBias(-1)
	if s.ShapeBias() != 0 {
		t.Errorf("bias should clamp to 0, got %f", s.ShapeBias())
	}
}

func TestNonPositiveDt(t *testing.T) {
	b := ball.New(0, octahedron())
	s := New(b, DefaultParams(), 1)
	s.Update(0, mgl64.Vec3{5, 5, 5}, mgl64.Vec3{0, -9.81, 0})
	s.Update(-1, mgl64.Vec3{5, 5, 5}, mgl64.Vec3{0, -9.81, 0})
	if s.MaxDisplacement() != 0 || s.KineticEnergy() != 0 {
		t.Error("non-positive dt must not move the mesh")
	}
}

func TestJiggleSkipsOrigin(t *testing.T) {
	b := ball.New(0, []mgl64.Vec3{{}, {1, 0, 0}})
	s := New(b, DefaultParams(), 1)
	s.TriggerJiggle(1)

	v := s.Vertices()
	if v[0].Velocity != (mgl64.Vec3{}) {
		t.Error("zero-length vertex should get no impulse")
	}
	speed := v[1].Velocity.Len()
	if speed < 0.5 || speed > 2.0 {
		t.Errorf("impulse %f outside noise range", speed)
	}
	if v[1].Velocity[1] != 0 || v[1].Velocity[2] != 0 {
		t.Error("impulse should be radial")
	}
}

func TestJiggleDeterministic(t *testing.T) {
	run := func() []Vertex {
		s := New(ball.New(0, octahedron()), DefaultParams(), 42)
		s.TriggerJiggle(1)
		s.TriggerJiggle(1)
		return s.Vertices()
	}
	a, b := run(), run()
	for i := range a {
		if a[i].Velocity != b[i].Velocity {
			t.Fatalf("vertex %d differs with equal seeds", i)
		}
	}
}

func TestSnapshotResume(t *testing.T) {
	b1 := ball.New(0, octahedron())
	s1 := New(b1, DefaultParams(), 7)
	s1.SetShapeBias(0.8)
	s1.TriggerJiggle(1)
	for i := 0; i < 30; i++ {
		s1.Update(dt, mgl64.Vec3{0.3, 0, 0}, mgl64.Vec3{0, -9.81, 0})
	}

	snap, err := s1.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	b2 := ball.New(0, octahedron())
	s2 := New(b2, DefaultParams(), 999)
	if err := s2.Restore(decoded); err != nil {
		t.Fatalf("restore: %v", err)
	}

	// a jiggle after resume consumes the restored random stream
	s1.TriggerJiggle(1)
	s2.TriggerJiggle(1)
	for i := 0; i < 30; i++ {
		s1.Update(dt, mgl64.Vec3{}, mgl64.Vec3{0, -9.81, 0})
		s2.Update(dt, mgl64.Vec3{}, mgl64.Vec3{0, -9.81, 0})
	}
	for i := range b1.DeformedVertices {
		if b1.DeformedVertices[i] != b2.DeformedVertices[i] {
			t.Fatalf("vertex %d diverged after resume: %v vs %v", i, b1.DeformedVertices[i], b2.DeformedVertices[i])
		}
	}
}

func TestRestoreMismatch(t *testing.T) {
	s := New(ball.New(0, octahedron()), DefaultParams(), 1)
	snap, _ := s.Snapshot()
	small := New(ball.New(0, octahedron()[:3]), DefaultParams(), 1)
	if err := small.Restore(snap); !errors.Is(err, ErrVertexCount) {
		t.Errorf("expected ErrVertexCount, got %v", err)
	}
}

func TestReset(t *testing.T) {
	b := ball.New(0, octahedron())
	s := New(b, DefaultParams(), 1)
	s.SetShapeBias(1)
	s.Update(dt, mgl64.Vec3{}, mgl64.Vec3{0, -9.81, 0})
	s.Reset()
	if s.MaxDisplacement() != 0 || s.ShapeBias() != 0 {
		t.Error("reset should return to rest")
	}
	if b.DeformedVertices[3] != b.BaseVertices[3] {
		t.Error("reset should rewrite the ball mesh")
	}
}
