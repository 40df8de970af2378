package timer

import (
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/framesync/frame"
)

var _ = Describe("Group", func() {
	var (
		g *Group
	)

	newBuilder := func() Builder {
		return MakeBuilder().
			WithRegistry(g).
			WithLogger(log.New(GinkgoWriter, "", 0))
	}

	BeforeEach(func() {
		g = NewGroup(log.New(GinkgoWriter, "", 0))
	})

	It("should own the timers registered with it", func() {
		t1 := newBuilder().Build("t1")
		t2 := newBuilder().Build("t2")

		Expect(g.Count()).To(Equal(2))
		Expect(g.Contains(t1)).To(BeTrue())
		Expect(g.Find("t2")).To(BeIdenticalTo(t2))
		Expect(g.Find("none")).To(BeNil())
		Expect(g.Timers()).To(Equal([]*Timer{t1, t2}))
	})

	It("should ignore adding a member twice", func() {
		t1 := newBuilder().Build("t1")
		g.Add(t1)

		Expect(g.Count()).To(Equal(1))
	})

	It("should remove disposed timers before the next frame", func() {
		t1 := newBuilder().Build("t1")
		t2 := newBuilder().Build("t2")
		Expect(g.StartAll()).To(Succeed())

		t1.Dispose()
		g.Tick(frame.Delta{Scaled: 1, Unscaled: 1})

		Expect(g.Contains(t1)).To(BeFalse())
		Expect(t1.CurrentCount()).To(Equal(uint32(0)))
		Expect(t2.CurrentCount()).To(Equal(uint32(1)))
		Expect(t1.Start()).To(MatchError(ErrDisposed))
	})

	It("should not visit timers removed during an iteration", func() {
		t1 := newBuilder().Build("t1")
		t2 := newBuilder().Build("t2")
		Expect(g.StartAll()).To(Succeed())

		t1.OnTicking(func(*Timer, uint32) { t2.Dispose() })
		g.Tick(frame.Delta{Scaled: 1, Unscaled: 1})

		Expect(t2.CurrentCount()).To(Equal(uint32(0)))
		Expect(g.Count()).To(Equal(1))
	})

	It("should not visit timers added during an iteration", func() {
		t1 := newBuilder().Build("t1")
		var t2 *Timer
		Expect(g.StartAll()).To(Succeed())

		t1.OnTicking(func(*Timer, uint32) {
			if t2 == nil {
				t2 = newBuilder().Build("t2")
				Expect(t2.Start()).To(Succeed())
			}
		})
		g.Tick(frame.Delta{Scaled: 1, Unscaled: 1})

		Expect(g.Contains(t2)).To(BeTrue())
		Expect(t2.CurrentCount()).To(Equal(uint32(0)))

		g.Tick(frame.Delta{Scaled: 1, Unscaled: 1})
		Expect(t2.CurrentCount()).To(Equal(uint32(1)))
	})

	It("should use the unscaled delta for timers that ignore the time scale", func() {
		scaled := newBuilder().Build("scaled")
		unscaled := newBuilder().WithIgnoreTimeScale().Build("unscaled")
		Expect(g.StartAll()).To(Succeed())

		g.Tick(frame.Delta{Scaled: 0.5, Unscaled: 1})

		Expect(scaled.CurrentCount()).To(Equal(uint32(0)))
		Expect(unscaled.CurrentCount()).To(Equal(uint32(1)))
	})

	It("should keep ticking other timers when one panics", func() {
		t1 := newBuilder().Build("t1")
		t2 := newBuilder().Build("t2")
		Expect(g.StartAll()).To(Succeed())
		t1.HookableBase = nil

		Expect(func() {
			g.Tick(frame.Delta{Scaled: 1, Unscaled: 1})
		}).NotTo(Panic())
		Expect(t2.CurrentCount()).To(Equal(uint32(1)))
	})

	It("should broadcast state changes", func() {
		t1 := newBuilder().Build("t1")
		t2 := newBuilder().WithApplicationPauseImmunity().Build("t2")

		Expect(g.StartAll()).To(Succeed())
		g.ApplicationPaused(true)

		Expect(t1.State()).To(Equal(Paused))
		Expect(t2.State()).To(Equal(Running))

		g.ApplicationPaused(false)
		Expect(t1.State()).To(Equal(Running))

		Expect(g.PauseAll(false)).To(Succeed())
		Expect(t2.State()).To(Equal(Paused))

		Expect(g.ResumeAll()).To(Succeed())
		g.Tick(frame.Delta{Scaled: 1.5, Unscaled: 1.5})

		Expect(g.StopAll()).To(Succeed())
		Expect(t1.State()).To(Equal(Stopped))
		Expect(t1.CurrentCount()).To(Equal(uint32(1)))

		Expect(g.ResetAll()).To(Succeed())
		Expect(t1.CurrentCount()).To(Equal(uint32(0)))
	})

	It("should clear all members", func() {
		newBuilder().Build("t1")
		newBuilder().Build("t2")

		g.Clear()

		Expect(g.Count()).To(Equal(0))
	})
})
