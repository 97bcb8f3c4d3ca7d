package sim_test

import (
	"context"
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/takosim/internal/feedback"
	"github.com/san-kum/takosim/internal/input"
	"github.com/san-kum/takosim/internal/lifecycle"
	"github.com/san-kum/takosim/internal/sim"
)

const dt = 1.0 / 60

func spinning(rate float64) input.Frame {
	f := input.Still(input.DefaultPanTemperature)
	f.AngularVelocity = mgl64.Vec3{0, rate, 0}
	return f
}

// wobbly spins with a jiggle every two seconds; it depends only on t.
func wobbly() input.Provider {
	return input.ProviderFunc(func(t, _ float64) (input.Frame, bool) {
		f := spinning(5.5)
		f.Tilt = input.TiltFromDegrees(10*t, 0)
		f.Accel = mgl64.Vec3{0.5, 0, 0}
		if int(t/dt)%120 == 0 {
			f.Jiggle = 0.3
		}
		return f, true
	})
}

func newSession(mod func(*sim.Options)) *sim.Session {
	opts := sim.DefaultOptions()
	opts.Resolution = 8
	if mod != nil {
		mod(&opts)
	}
	s, err := sim.NewSession(opts)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func tickN(s *sim.Session, p input.Provider, n int) sim.Sample {
	var last sim.Sample
	for i := 0; i < n; i++ {
		f, ok := p.Next(s.Time(), dt)
		Expect(ok).To(BeTrue())
		last = s.Tick(dt, f)
	}
	return last
}

var _ = Describe("Session", func() {
	Describe("construction", func() {
		It("rejects a non-positive radius", func() {
			opts := sim.DefaultOptions()
			opts.Radius = 0
			_, err := sim.NewSession(opts)
			Expect(err).To(MatchError(sim.ErrInvalidConfig))
		})

		It("rejects a tiny mesh", func() {
			opts := sim.DefaultOptions()
			opts.Resolution = 2
			_, err := sim.NewSession(opts)
			Expect(err).To(MatchError(sim.ErrMeshTooSmall))
		})

		It("rejects an unknown shaper", func() {
			opts := sim.DefaultOptions()
			opts.Shaper = "bogus"
			_, err := sim.NewSession(opts)
			Expect(err).To(MatchError(sim.ErrUnknownShaper))
		})

		It("starts raw", func() {
			s := newSession(nil)
			Expect(s.State()).To(Equal(lifecycle.Raw))
			Expect(s.Ball().BatterLevel).To(Equal(1.0))
			Expect(s.Ball().CookLevel).To(BeZero())
			Expect(s.Ball().DeformedVertices).To(HaveLen(len(s.Mesh().Positions)))
		})
	})

	It("ignores a non-positive dt", func() {
		s := newSession(nil)
		before := s.Sample()
		after := s.Tick(0, spinning(6))
		Expect(after).To(Equal(before))
		after = s.Tick(-1, spinning(6))
		Expect(after).To(Equal(before))
	})

	It("treats a zero tilt as identity", func() {
		s := newSession(nil)
		f := spinning(6)
		f.Tilt = mgl64.Quat{}
		s.Tick(dt, f)
		Expect(s.Ball().Rotation.ApproxEqual(mgl64.QuatIdent())).To(BeTrue())
	})

	It("is deterministic for a seed", func() {
		a := newSession(nil)
		b := newSession(nil)
		pa, pb := wobbly(), wobbly()
		for i := 0; i < 600; i++ {
			fa, _ := pa.Next(a.Time(), dt)
			fb, _ := pb.Next(b.Time(), dt)
			Expect(a.Tick(dt, fa)).To(Equal(b.Tick(dt, fb)))
		}
		Expect(a.Ball().DeformedVertices).To(Equal(b.Ball().DeformedVertices))
	})

	It("stamps events with the session clock", func() {
		s := newSession(nil)
		tickN(s, input.Constant(spinning(6), 100), 120)
		events := s.Events()
		Expect(events).NotTo(BeEmpty())
		for _, e := range events {
			Expect(e.Time).To(BeNumerically(">=", 0))
			Expect(e.Time).To(BeNumerically("<=", s.Time()))
		}
	})

	It("forwards events to the injected sink", func() {
		rec := &feedback.Recorder{}
		s := newSession(func(o *sim.Options) { o.Sink = rec })
		tickN(s, wobbly(), 240)
		Expect(rec.Events).To(Equal(s.Events()))
		Expect(rec.Count(feedback.Jiggle)).To(BeNumerically(">=", 1))
	})

	It("follows an explicit phase over the derived one", func() {
		s := newSession(nil)
		f := spinning(0)
		f.Phase = 1
		s.Tick(dt, f)
		Expect(s.State()).To(Equal(lifecycle.Cooking))
	})

	Describe("snapshots", func() {
		It("resumes bit for bit after a JSON round trip", func() {
			a := newSession(nil)
			p := wobbly()
			tickN(a, p, 300)

			snap, err := a.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			data, err := json.Marshal(snap)
			Expect(err).NotTo(HaveOccurred())

			var decoded sim.Snapshot
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())
			b := newSession(func(o *sim.Options) { o.Seed = 99 })
			Expect(b.Restore(&decoded)).To(Succeed())
			Expect(b.Sample()).To(Equal(a.Sample()))

			for i := 0; i < 300; i++ {
				fa, _ := p.Next(a.Time(), dt)
				fb, _ := p.Next(b.Time(), dt)
				Expect(b.Tick(dt, fb)).To(Equal(a.Tick(dt, fa)))
			}
			Expect(b.Ball().DeformedVertices).To(Equal(a.Ball().DeformedVertices))
		})

		It("refuses a snapshot from another shaper", func() {
			a := newSession(nil)
			snap, err := a.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			b := newSession(func(o *sim.Options) { o.Shaper = "fast" })
			Expect(b.Restore(snap)).To(MatchError(sim.ErrSnapshotMismatch))
		})

		It("refuses a snapshot from another mesh", func() {
			a := newSession(nil)
			snap, err := a.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			b := newSession(func(o *sim.Options) { o.Resolution = 12 })
			Expect(b.Restore(snap)).To(MatchError(sim.ErrSnapshotMismatch))
			Expect(b.Restore(nil)).To(MatchError(sim.ErrSnapshotMismatch))
		})
	})

	It("serves a ball when spun steadily", func() {
		var served []int
		s := newSession(func(o *sim.Options) {
			o.Scores = feedback.ScoreFunc(func(v int) { served = append(served, v) })
		})
		r := sim.NewRunner(s)
		res, err := r.Run(context.Background(), input.Constant(spinning(6), 60), sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Final).To(Equal(lifecycle.Finished))
		Expect(res.Score).NotTo(BeNil())
		Expect(served).To(Equal([]int{res.Score.Final}))
		Expect(res.Comment).NotTo(BeEmpty())
		Expect(res.Duration).To(BeNumerically("<", 60))

		kinds := map[feedback.Kind]int{}
		for _, e := range res.Events {
			kinds[e.Kind]++
		}
		Expect(kinds[feedback.EnterCooking]).To(Equal(1))
		Expect(kinds[feedback.EnterTurned]).To(Equal(1))
		Expect(kinds[feedback.EnterFinished]).To(Equal(1))
	})

	It("starts over on reset", func() {
		s := newSession(nil)
		tickN(s, wobbly(), 200)
		s.Reset()
		Expect(s.Time()).To(BeZero())
		Expect(s.State()).To(Equal(lifecycle.Raw))
		Expect(s.Events()).To(BeEmpty())
		Expect(s.Sample().Progress).To(Equal(1.0))
	})
})
