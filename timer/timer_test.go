package timer

import (
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/framesync/hooking"
)

type positionLog struct {
	positions []string
}

func (l *positionLog) Func(ctx hooking.HookCtx) {
	l.positions = append(l.positions, ctx.Pos.Name)
}

var _ = Describe("Timer", func() {
	var (
		t      *Timer
		events *positionLog
	)

	BeforeEach(func() {
		t = MakeBuilder().
			WithInterval(1.0).
			WithRepeatCount(3).
			WithLogger(log.New(GinkgoWriter, "", 0)).
			Build("T")
		events = &positionLog{}
		t.AcceptHook(events)
	})

	It("should be stopped when built", func() {
		Expect(t.State()).To(Equal(Stopped))
		Expect(t.CurrentCount()).To(Equal(uint32(0)))
		Expect(t.CanAcceptApplicationPause()).To(BeTrue())
		Expect(t.ID()).NotTo(BeEmpty())
	})

	It("should panic if the interval is not positive", func() {
		Expect(func() { MakeBuilder().WithInterval(0).Build("bad") }).To(Panic())
	})

	It("should reject a non-positive interval", func() {
		Expect(t.SetInterval(-1)).To(MatchError(ErrInvalidInterval))
		Expect(t.Interval()).To(Equal(1.0))
	})

	Context("state machine", func() {
		It("should start only once", func() {
			Expect(t.Start()).To(Succeed())
			Expect(t.Start()).To(Succeed())

			Expect(t.State()).To(Equal(Running))
			Expect(events.positions).To(Equal([]string{"TimerStarted"}))
		})

		It("should pause and resume", func() {
			Expect(t.Start()).To(Succeed())
			Expect(t.Pause(false)).To(Succeed())
			Expect(t.State()).To(Equal(Paused))

			Expect(t.Pause(false)).To(Succeed())
			Expect(t.Resume()).To(Succeed())
			Expect(t.Resume()).To(Succeed())

			Expect(t.State()).To(Equal(Running))
			Expect(events.positions).To(Equal([]string{
				"TimerStarted", "TimerPaused", "TimerResumed",
			}))
		})

		It("should not pause a stopped timer", func() {
			Expect(t.Pause(false)).To(Succeed())

			Expect(t.State()).To(Equal(Stopped))
			Expect(events.positions).To(BeEmpty())
		})

		It("should keep the count when stopped", func() {
			Expect(t.Start()).To(Succeed())
			t.Tick(1.5)
			Expect(t.Stop()).To(Succeed())
			Expect(t.Stop()).To(Succeed())

			Expect(t.State()).To(Equal(Stopped))
			Expect(t.CurrentCount()).To(Equal(uint32(1)))
			Expect(t.Elapsed()).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("should clear the count when reset", func() {
			Expect(t.Start()).To(Succeed())
			t.Tick(1.5)
			Expect(t.Reset()).To(Succeed())

			Expect(t.State()).To(Equal(Stopped))
			Expect(t.CurrentCount()).To(Equal(uint32(0)))
			Expect(t.Elapsed()).To(Equal(0.0))
			Expect(events.positions).To(Equal([]string{
				"TimerStarted", "TimerTicking", "TimerStopped", "TimerReset",
			}))
		})

		It("should resume from a paused state by starting", func() {
			Expect(t.Start()).To(Succeed())
			Expect(t.Pause(false)).To(Succeed())
			Expect(t.Start()).To(Succeed())

			Expect(t.State()).To(Equal(Running))
		})
	})

	Context("ticking", func() {
		var (
			counts          []uint32
			completedCounts []uint32
		)

		BeforeEach(func() {
			counts = nil
			completedCounts = nil

			t.OnTicking(func(t *Timer, count uint32) {
				Expect(t.CurrentCount()).To(Equal(count))
				counts = append(counts, count)
			})
			t.OnCompleted(func(t *Timer) {
				completedCounts = append(completedCounts, t.CurrentCount())
			})
		})

		It("should not tick when not running", func() {
			t.Tick(5)

			Expect(counts).To(BeEmpty())
			Expect(t.Elapsed()).To(Equal(0.0))
		})

		It("should tick once per elapsed interval", func() {
			Expect(t.Start()).To(Succeed())

			for i := 0; i < 5; i++ {
				t.Tick(0.4)
			}

			Expect(counts).To(Equal([]uint32{1, 2}))
			Expect(completedCounts).To(BeEmpty())
			Expect(t.State()).To(Equal(Running))
		})

		It("should reset before completing", func() {
			Expect(t.Start()).To(Succeed())

			for i := 0; i < 8; i++ {
				t.Tick(0.4)
			}

			Expect(counts).To(Equal([]uint32{1, 2, 3}))
			Expect(completedCounts).To(Equal([]uint32{0}))
			Expect(t.State()).To(Equal(Stopped))
			Expect(t.CurrentCount()).To(Equal(uint32(0)))
			Expect(events.positions[len(events.positions)-3:]).To(Equal([]string{
				"TimerStopped", "TimerReset", "TimerCompleted",
			}))
		})

		It("should carry the remainder across ticks", func() {
			Expect(t.Start()).To(Succeed())

			t.Tick(0.7)
			t.Tick(0.7)

			Expect(counts).To(Equal([]uint32{1}))
			Expect(t.Elapsed()).To(BeNumerically("~", 0.4, 1e-9))
		})

		It("should raise one tick per interval of a long frame", func() {
			t.SetRepeatCount(0)
			Expect(t.Start()).To(Succeed())

			t.Tick(3.5)

			Expect(counts).To(Equal([]uint32{1, 2, 3}))
			Expect(completedCounts).To(BeEmpty())
			Expect(t.Elapsed()).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("should stop ticking within a frame when a hook stops it", func() {
			t.SetRepeatCount(0)
			t.OnTicking(func(t *Timer, _ uint32) {
				Expect(t.Stop()).To(Succeed())
			})
			Expect(t.Start()).To(Succeed())

			t.Tick(3.5)

			Expect(counts).To(Equal([]uint32{1}))
		})

		It("should report the carried time to ticking hooks", func() {
			t.SetRepeatCount(0)
			var seen []float64
			t.OnTicking(func(t *Timer, _ uint32) {
				seen = append(seen, t.Elapsed())
			})
			Expect(t.Start()).To(Succeed())

			t.Tick(2.25)

			Expect(seen).To(HaveLen(2))
			Expect(seen[0]).To(BeNumerically("~", 1.25, 1e-9))
			Expect(seen[1]).To(BeNumerically("~", 0.25, 1e-9))
		})

		It("should report zero elapsed time to completed hooks", func() {
			var seen []float64
			t.OnCompleted(func(t *Timer) {
				seen = append(seen, t.Elapsed())
			})
			Expect(t.Start()).To(Succeed())

			t.Tick(3.5)

			Expect(seen).To(Equal([]float64{0}))
		})

		It("should not tick on an empty frame with a tiny interval", func() {
			t.SetRepeatCount(0)
			Expect(t.SetInterval(1e-10)).To(Succeed())
			Expect(t.Start()).To(Succeed())

			t.Tick(0)

			Expect(counts).To(BeEmpty())
			Expect(t.State()).To(Equal(Running))
		})

		It("should tick a tiny interval by the elapsed amount", func() {
			t.SetRepeatCount(0)
			Expect(t.SetInterval(1e-10)).To(Succeed())
			Expect(t.Start()).To(Succeed())

			t.Tick(5e-10)

			Expect(counts).To(HaveLen(5))
		})

		It("should ignore negative deltas", func() {
			Expect(t.Start()).To(Succeed())

			t.Tick(0.5)
			t.Tick(-0.5)

			Expect(t.Elapsed()).To(Equal(0.5))
		})

		It("should keep calling hooks after one panics", func() {
			t.AcceptHook(hooking.NewHookFunc(func(ctx hooking.HookCtx) {
				if ctx.Pos == HookPosTicking {
					panic("boom")
				}
			}))
			var after []uint32
			t.OnTicking(func(_ *Timer, count uint32) {
				after = append(after, count)
			})
			Expect(t.Start()).To(Succeed())

			t.Tick(1)

			Expect(counts).To(Equal([]uint32{1}))
			Expect(after).To(Equal([]uint32{1}))
		})
	})

	Context("application pause", func() {
		It("should ignore application pauses when immune", func() {
			t = MakeBuilder().WithApplicationPauseImmunity().Build("immune")
			events = &positionLog{}
			t.AcceptHook(events)
			Expect(t.Start()).To(Succeed())

			Expect(t.Pause(true)).To(Succeed())

			Expect(t.State()).To(Equal(Running))
			Expect(events.positions).To(Equal([]string{"TimerStarted"}))
		})

		It("should pause for application pauses by default", func() {
			Expect(t.Start()).To(Succeed())

			Expect(t.Pause(true)).To(Succeed())

			Expect(t.State()).To(Equal(Paused))
		})

		It("should honor explicit pauses when immune", func() {
			t = MakeBuilder().WithApplicationPauseImmunity().Build("immune")
			Expect(t.Start()).To(Succeed())

			Expect(t.Pause(false)).To(Succeed())

			Expect(t.State()).To(Equal(Paused))
		})
	})

	Context("disposal", func() {
		It("should refuse operations after dispose", func() {
			Expect(t.Start()).To(Succeed())
			t.Dispose()
			t.Dispose()

			Expect(t.IsDisposed()).To(BeTrue())
			Expect(t.State()).To(Equal(Stopped))
			Expect(t.Start()).To(MatchError(ErrDisposed))
			Expect(t.Stop()).To(MatchError(ErrDisposed))
			Expect(t.Pause(false)).To(MatchError(ErrDisposed))
			Expect(t.Resume()).To(MatchError(ErrDisposed))
			Expect(t.Reset()).To(MatchError(ErrDisposed))
		})
	})
})
