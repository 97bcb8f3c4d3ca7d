// Package softbody deforms a ball's mesh with per-vertex damped springs.
//
// Each vertex is pulled toward a target derived from its rest position. The
// target sags and spreads while the dough is unshaped and becomes the rest
// sphere once shaping is complete. Gravity and the ball's linear
// acceleration are applied in the ball's local frame so a rotating ball
// deforms consistently.
package softbody

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/takosim/internal/ball"
)

type Params struct {
	Stiffness        float64 `yaml:"stiffness" json:"stiffness"`
	Damping          float64 `yaml:"damping" json:"damping"`
	Mass             float64 `yaml:"mass" json:"mass"`
	GravityInfluence float64 `yaml:"gravity_influence" json:"gravity_influence"`
	// MaxDisplacement caps |pos - target|. Zero disables the cap.
	MaxDisplacement float64 `yaml:"max_displacement" json:"max_displacement"`
	SagAmount       float64 `yaml:"sag_amount" json:"sag_amount"`
	SpreadAmount    float64 `yaml:"spread_amount" json:"spread_amount"`
}

func DefaultParams() Params {
	return Params{
		Stiffness:        3.5,
		Damping:          0.4,
		Mass:             0.8,
		GravityInfluence: 1.0,
		MaxDisplacement:  0.3,
		SagAmount:        0.35,
		SpreadAmount:     0.15,
	}
}

// capVelocityScale is applied to a vertex's velocity when it hits the
// displacement cap.
const capVelocityScale = 0.1

type Vertex struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Rest     mgl64.Vec3
}

type Solver struct {
	params Params
	ball   *ball.Ball
	verts  []Vertex
	bias   float64

	src *rand.PCG
	rng *rand.Rand
}

// New builds a solver over the ball's rest mesh. seed drives the jiggle noise.
func New(b *ball.Ball, params Params, seed uint64) *Solver {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	s := &Solver{
		params: params,
		ball:   b,
		verts:  make([]Vertex, len(b.BaseVertices)),
		src:    src,
		rng:    rand.New(src),
	}
	for i, p := range b.BaseVertices {
		s.verts[i] = Vertex{Position: p, Rest: p}
	}
	return s
}

func (s *Solver) Params() Params { return s.params }

// SetShapeBias sets how unshaped the dough is, 0 (sphere) to 1 (blob).
func (s *Solver) SetShapeBias(b float64) {
	s.bias = math.Max(0, math.Min(1, b))
}

func (s *Solver) ShapeBias() float64 { return s.bias }

// Target returns the spring anchor for a rest position under the current bias.
func (s *Solver) Target(rest mgl64.Vec3) mgl64.Vec3 {
	if s.bias == 0 {
		return rest
	}
	spread := 1 + s.params.SpreadAmount*s.bias
	sag := 1 - s.params.SagAmount*s.bias
	return mgl64.Vec3{rest[0] * spread, rest[1] * sag, rest[2] * spread}
}

// Update integrates every vertex by dt and writes the result to the ball's
// deformed mesh. worldAccel and worldGravity are given in world space.
func (s *Solver) Update(dt float64, worldAccel, worldGravity mgl64.Vec3) {
	if dt <= 0 {
		return
	}

	inv := s.ball.Rotation.Inverse()
	localGravity := inv.Rotate(worldGravity)
	localAccel := inv.Rotate(worldAccel)

	mass := s.params.Mass
	if mass <= 0 {
		mass = 1
	}
	decay := math.Pow(1-s.params.Damping, dt*60)
	external := localGravity.Mul(s.params.GravityInfluence).Sub(localAccel.Mul(mass))
	limit := s.params.MaxDisplacement

	for i := range s.verts {
		v := &s.verts[i]
		target := s.Target(v.Rest)

		spring := v.Position.Sub(target).Mul(-s.params.Stiffness)
		acc := spring.Add(external).Mul(1 / mass)

		v.Velocity = v.Velocity.Add(acc.Mul(dt)).Mul(decay)
		v.Position = v.Position.Add(v.Velocity.Mul(dt))

		if limit > 0 {
			disp := v.Position.Sub(target)
			if d := disp.Len(); d > limit {
				v.Position = target.Add(disp.Mul(limit / d))
				v.Velocity = v.Velocity.Mul(capVelocityScale)
			}
		}

		s.ball.DeformedVertices[i] = v.Position
	}
}

// TriggerJiggle adds an outward impulse of random magnitude to every vertex.
func (s *Solver) TriggerJiggle(strength float64) {
	for i := range s.verts {
		v := &s.verts[i]
		noise := s.rng.Float64()*1.5 + 0.5
		l := v.Position.Len()
		if l == 0 {
			continue
		}
		v.Velocity = v.Velocity.Add(v.Position.Mul(strength * noise / l))
	}
}

// Vertices exposes the solver state. Callers must not modify it.
func (s *Solver) Vertices() []Vertex { return s.verts }

// Reset returns every vertex to rest and clears the bias.
func (s *Solver) Reset() {
	for i := range s.verts {
		s.verts[i].Position = s.verts[i].Rest
		s.verts[i].Velocity = mgl64.Vec3{}
		s.ball.DeformedVertices[i] = s.verts[i].Rest
	}
	s.bias = 0
}

// MaxDisplacement returns the largest distance of any vertex from its rest
// position.
func (s *Solver) MaxDisplacement() float64 {
	m := 0.0
	for _, v := range s.verts {
		m = math.Max(m, v.Position.Sub(v.Rest).Len())
	}
	return m
}

// KineticEnergy returns the summed vertex kinetic energy.
func (s *Solver) KineticEnergy() float64 {
	e := 0.0
	for _, v := range s.verts {
		e += 0.5 * s.params.Mass * v.Velocity.Dot(v.Velocity)
	}
	return e
}
