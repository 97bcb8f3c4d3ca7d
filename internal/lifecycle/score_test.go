package lifecycle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/takosim/internal/lifecycle"
)

var _ = Describe("ComputeScore", func() {
	DescribeTable("final score",
		func(cook, quality float64, want int, undercooked bool) {
			s := lifecycle.ComputeScore(cook, quality)
			Expect(s.Final).To(Equal(want))
			Expect(s.Undercooked).To(Equal(undercooked))
			Expect(s.Final).To(BeNumerically(">=", 0))
			Expect(s.Final).To(BeNumerically("<=", 100))
		},
		Entry("perfect", 1.0, 1.0, 100, false),
		Entry("perfect cook, no shape", 1.0, 0.0, 100, false),
		Entry("undercooked penalty", 0.4, 1.0, 50, true),
		Entry("raw", 0.0, 0.0, 0, true),
		Entry("burnt", 2.0, 0.5, 60, false),
		Entry("charcoal", 3.0, 0.0, 0, false),
		Entry("rounds", 0.99, 0.0, 99, false),
		Entry("just cooked enough", 0.5, 0.0, 70, false),
	)

	It("keeps the breakdown", func() {
		s := lifecycle.ComputeScore(0.8, 0.25)
		Expect(s.Cook).To(BeNumerically("~", 88, 1e-9))
		Expect(s.Shape).To(BeNumerically("~", 10, 1e-9))
		Expect(s.Total).To(BeNumerically("~", 98, 1e-9))
		Expect(s.Final).To(Equal(98))
	})
})

var _ = Describe("Comment", func() {
	DescribeTable("verdicts",
		func(cook, quality float64, want string) {
			Expect(lifecycle.Comment(lifecycle.ComputeScore(cook, quality))).To(Equal(want))
		},
		Entry("silent approval", 1.0, 1.0, "..."),
		Entry("burnt", 1.5, 0.0, "The burn... I will not make excuses."),
		Entry("underdone", 0.6, 0.0, "The heat is insufficient."),
		Entry("tragedy", 1.2, 0.1, "This is not a sphere. It is a tragedy."),
	)

	It("falls back on the total", func() {
		Expect(lifecycle.Comment(lifecycle.Score{CookLevel: 1, Quality: 0.9, Final: 85})).
			To(Equal("Polite movement. It tastes good before eating."))
		Expect(lifecycle.Comment(lifecycle.Score{CookLevel: 1, Quality: 0.9, Final: 60})).
			To(Equal("Continue training."))
	})
})

var _ = Describe("PhaseDeriver", func() {
	var d *lifecycle.PhaseDeriver

	BeforeEach(func() {
		d = lifecycle.NewPhaseDeriver(lifecycle.DefaultPhaseRules())
	})

	It("pours for two seconds before cooking", func() {
		dt := 0.1
		phase := 0
		ticks := 0
		for phase == 0 && ticks < 100 {
			phase = d.Update(dt, lifecycle.Raw, 1)
			ticks++
		}
		Expect(phase).To(Equal(1))
		Expect(ticks).To(BeNumerically("~", 20, 1))
		Expect(d.Pour()).To(Equal(1.0))
	})

	It("turns once half shaped", func() {
		Expect(d.Update(0.1, lifecycle.Cooking, 0.6)).To(Equal(1))
		Expect(d.Update(0.1, lifecycle.Cooking, 0.5)).To(Equal(1))
		Expect(d.Update(0.1, lifecycle.Cooking, 0.49)).To(Equal(2))
	})

	It("serves a fully shaped ball", func() {
		Expect(d.Update(0.1, lifecycle.Turned, 0.01)).To(Equal(2))
		Expect(d.Update(0.1, lifecycle.Turned, 0)).To(Equal(3))
		Expect(d.Update(0.1, lifecycle.Finished, 0)).To(Equal(3))
	})

	It("ignores non-positive dt while pouring", func() {
		d.Update(-5, lifecycle.Raw, 1)
		Expect(d.Pour()).To(BeZero())
		d.SetPour(0.99)
		d.Reset()
		Expect(d.Pour()).To(BeZero())
	})

	It("honors custom rules", func() {
		d = lifecycle.NewPhaseDeriver(lifecycle.PhaseRules{PourRate: 10, TurnBelow: 0.9, FinishAt: 0.2})
		Expect(d.Update(0.1, lifecycle.Raw, 1)).To(Equal(1))
		Expect(d.Update(0.1, lifecycle.Cooking, 0.85)).To(Equal(2))
		Expect(d.Update(0.1, lifecycle.Turned, 0.2)).To(Equal(3))
	})
})
