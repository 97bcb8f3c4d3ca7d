package heat

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/ball"
)

const dt = 1.0 / 60

func newBall(inHole bool) *ball.Ball {
	b := ball.New(0, []mgl64.Vec3{{0, 0.5, 0}})
	b.IsInHole = inHole
	return b
}

func TestContactHeatingMonotonic(t *testing.T) {
	b := newBall(true)
	s := New(b, DefaultParams())

	prev := b.CookLevel
	for i := 0; i < 600; i++ {
		s.Update(dt, 180)
		if b.CookLevel < prev {
			t.Fatalf("tick %d: cook level fell from %f to %f", i, prev, b.CookLevel)
		}
		prev = b.CookLevel
	}
	if b.CookLevel <= 0 {
		t.Fatal("ball in hole should cook")
	}

	down := b.SurfaceCookLevels[ball.Down]
	for f := ball.Up; f <= ball.Back; f++ {
		if f != ball.Down && b.SurfaceCookLevels[f] >= down {
			t.Errorf("facet %s (%f) should be cooler than the contact facet (%f)", f, b.SurfaceCookLevels[f], down)
		}
	}
}

func TestNoContactOutOfHole(t *testing.T) {
	b := newBall(false)
	s := New(b, DefaultParams())

	for i := 0; i < 300; i++ {
		s.Update(dt, 250)
	}
	if b.CookLevel != 0 {
		t.Errorf("ball out of hole should not cook, got %f", b.CookLevel)
	}
}

func TestAirCoolingNeverNegative(t *testing.T) {
	b := newBall(false)
	b.SurfaceCookLevels = [ball.NumFacets]float64{0.8, 0.001, 0, 0.4, 0.2, 0}
	s := New(b, DefaultParams())

	start := b.MeanFacetLevel()
	for i := 0; i < 3000; i++ {
		s.Update(dt, 180)
		for f, l := range b.SurfaceCookLevels {
			if l < 0 {
				t.Fatalf("facet %d went negative: %f", f, l)
			}
		}
	}
	if b.CookLevel >= start {
		t.Errorf("air should cool the ball: start %f, now %f", start, b.CookLevel)
	}
}

func TestConductionConvergesToMean(t *testing.T) {
	b := newBall(false)
	b.SurfaceCookLevels = [ball.NumFacets]float64{1.2, 0, 0.3, 0.9, 0, 0.6}
	p := DefaultParams()
	p.AirCoolingRate = 0
	s := New(b, p)

	mean := b.MeanFacetLevel()
	for i := 0; i < 6000; i++ {
		s.Update(dt, 180)
	}
	for f, l := range b.SurfaceCookLevels {
		if math.Abs(l-mean) > 1e-6 {
			t.Errorf("facet %d: %f, expected mean %f", f, l, mean)
		}
	}
	if math.Abs(b.CookLevel-mean) > 1e-9 {
		t.Errorf("cook level %f should equal the conserved mean %f", b.CookLevel, mean)
	}
}

func TestFlippedBallCooksUpFacet(t *testing.T) {
	b := newBall(true)
	b.Rotation = mgl64.QuatRotate(math.Pi, mgl64.Vec3{1, 0, 0})
	s := New(b, DefaultParams())

	if f := s.ContactFacet(); f != ball.Up {
		t.Fatalf("flipped ball should rest on its up facet, got %s", f)
	}
	for i := 0; i < 120; i++ {
		s.Update(dt, 180)
	}
	if b.SurfaceCookLevels[ball.Up] <= b.SurfaceCookLevels[ball.Down] {
		t.Error("up facet should be hotter after a flip")
	}
}

func TestBurntReachable(t *testing.T) {
	b := newBall(true)
	s := New(b, DefaultParams())
	for i := 0; i < 60*600; i++ {
		s.Update(dt, 800)
	}
	if b.SurfaceCookLevels[ball.Down] <= 1 {
		t.Errorf("hot pan should burn the contact facet, got %f", b.SurfaceCookLevels[ball.Down])
	}
}

func TestLevelTempMapping(t *testing.T) {
	s := New(newBall(false), DefaultParams())
	tests := []struct {
		level, temp float64
	}{
		{0, 25},
		{1, 270},
		{2, 515},
	}
	for _, tt := range tests {
		if got := s.LevelToTemp(tt.level); math.Abs(got-tt.temp) > 1e-9 {
			t.Errorf("LevelToTemp(%v) = %v, want %v", tt.level, got, tt.temp)
		}
		if got := s.TempToLevel(tt.temp); math.Abs(got-tt.level) > 1e-9 {
			t.Errorf("TempToLevel(%v) = %v, want %v", tt.temp, got, tt.level)
		}
	}
	if s.FacetTemperature(ball.Facet(12)) != 25 {
		t.Error("unknown facet should report ambient")
	}
}
