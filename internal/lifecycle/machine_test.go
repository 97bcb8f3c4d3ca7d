package lifecycle_test

import (
	"encoding/json"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/takosim/internal/ball"
	"github.com/san-kum/takosim/internal/feedback"
	"github.com/san-kum/takosim/internal/lifecycle"
)

var _ = Describe("Machine", func() {
	var (
		b      *ball.Ball
		rec    *feedback.Recorder
		scores []int
		m      *lifecycle.Machine
	)

	BeforeEach(func() {
		b = ball.New(0, []mgl64.Vec3{{0, 1, 0}})
		b.CookLevel = 0.7
		b.Rotation = mgl64.QuatRotate(1, mgl64.Vec3{0, 0, 1})
		rec = &feedback.Recorder{}
		scores = nil
		m = lifecycle.NewMachine(b, rec, feedback.ScoreFunc(func(s int) { scores = append(scores, s) }))
	})

	It("enters Raw with fresh batter", func() {
		Expect(m.State()).To(Equal(lifecycle.Raw))
		Expect(b.BatterLevel).To(Equal(1.0))
		Expect(b.CookLevel).To(BeZero())
		Expect(b.Rotation.ApproxEqual(mgl64.QuatIdent())).To(BeTrue())
	})

	It("walks the full sequence", func() {
		transitions := 0
		for _, phase := range []int{0, 1, 2, 3} {
			if m.Update(phase) {
				transitions++
			}
		}
		Expect(transitions).To(Equal(3))
		Expect(m.State()).To(Equal(lifecycle.Finished))
		Expect(rec.Count(feedback.EnterCooking)).To(Equal(1))
		Expect(rec.Count(feedback.EnterTurned)).To(Equal(1))
		Expect(rec.Count(feedback.EnterFinished)).To(Equal(1))
		Expect(scores).To(HaveLen(1))
	})

	It("ignores skipped and regressing phases", func() {
		transitions := 0
		for _, phase := range []int{0, 3, 1, 2} {
			if m.Update(phase) {
				transitions++
			}
		}
		// 2 arrives while Cooking, so it is applied
		Expect(transitions).To(Equal(2))

		m2 := lifecycle.NewMachine(ball.New(0, nil), nil, nil)
		Expect(m2.Update(3)).To(BeFalse())
		Expect(m2.Update(1)).To(BeTrue())
		Expect(m2.Update(0)).To(BeFalse())
		Expect(m2.Update(-4)).To(BeFalse())
		Expect(m2.Update(1)).To(BeFalse())
		Expect(m2.State()).To(Equal(lifecycle.Cooking))
	})

	It("moves at most one state per call", func() {
		Expect(m.Update(2)).To(BeFalse())
		Expect(m.Update(1)).To(BeTrue())
		Expect(m.State()).To(Equal(lifecycle.Cooking))
	})

	It("flips the ball when turned", func() {
		m.Update(1)
		m.Update(2)
		flip := mgl64.QuatRotate(math.Pi, mgl64.Vec3{1, 0, 0})
		Expect(b.BaseRotation.ApproxEqual(flip)).To(BeTrue())
		Expect(b.Rotation.ApproxEqual(flip)).To(BeTrue())

		up := b.Rotation.Rotate(mgl64.Vec3{0, 1, 0})
		Expect(up.Sub(mgl64.Vec3{0, -1, 0}).Len()).To(BeNumerically("<", 1e-9))
	})

	It("stays finished", func() {
		for _, p := range []int{1, 2, 3} {
			m.Update(p)
		}
		for p := -1; p < 6; p++ {
			Expect(m.Update(p)).To(BeFalse())
		}
		Expect(scores).To(HaveLen(1))
	})

	It("scores on entering Finished", func() {
		m.Update(1)
		m.Update(2)
		b.CookLevel = 1.0
		b.ShapingQuality = 1.0
		m.Update(3)

		Expect(scores).To(Equal([]int{100}))
		s, ok := m.Score()
		Expect(ok).To(BeTrue())
		Expect(s.Final).To(Equal(100))
		Expect(lifecycle.Comment(s)).To(Equal("..."))

		events := rec.Events
		Expect(events[len(events)-1].Kind).To(Equal(feedback.EnterFinished))
		Expect(events[len(events)-1].Value).To(Equal(100.0))
	})

	It("resets to Raw", func() {
		m.Update(1)
		m.Update(2)
		m.Reset()
		Expect(m.State()).To(Equal(lifecycle.Raw))
		_, ok := m.Score()
		Expect(ok).To(BeFalse())
		Expect(b.BaseRotation.ApproxEqual(mgl64.QuatIdent())).To(BeTrue())
	})

	It("round-trips through a snapshot", func() {
		for _, p := range []int{1, 2, 3} {
			m.Update(p)
		}
		data, err := json.Marshal(m.Snapshot())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"state":"finished"`))

		var snap lifecycle.Snapshot
		Expect(json.Unmarshal(data, &snap)).To(Succeed())

		m2 := lifecycle.NewMachine(ball.New(0, nil), nil, nil)
		Expect(m2.Restore(snap)).To(Succeed())
		Expect(m2.State()).To(Equal(lifecycle.Finished))
		s1, _ := m.Score()
		s2, ok := m2.Score()
		Expect(ok).To(BeTrue())
		Expect(s2).To(Equal(s1))
	})

	It("rejects unknown states", func() {
		Expect(m.Restore(lifecycle.Snapshot{State: 9})).To(MatchError(lifecycle.ErrUnknownState))
		var s lifecycle.State
		Expect(s.UnmarshalText([]byte("fried"))).To(MatchError(lifecycle.ErrUnknownState))
	})
})
