package frame

import (
	"context"
	"errors"
	"log"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/framesync/hooking"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Driver", func() {
	var (
		mockCtrl *gomock.Controller
		clock    *MockClock
		d        *Driver
		t0       time.Time
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = NewMockClock(mockCtrl)
		t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		d = MakeBuilder().
			WithClock(clock).
			WithTimeScale(2).
			WithLogger(log.New(GinkgoWriter, "", 0)).
			Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic on a non-positive frame rate", func() {
		Expect(func() { MakeBuilder().WithTargetFPS(0).Build() }).To(Panic())
	})

	It("should start with a zero delta", func() {
		tickable := NewMockTickable(mockCtrl)
		d.RegisterTickable(tickable)

		clock.EXPECT().Now().Return(t0)
		tickable.EXPECT().Tick(Delta{})

		Expect(d.Step()).To(Succeed())
		Expect(d.FrameCount()).To(Equal(uint64(1)))
		Expect(d.Now()).To(Equal(0.0))
	})

	It("should scale the delta", func() {
		tickable := NewMockTickable(mockCtrl)
		d.RegisterTickable(tickable)

		clock.EXPECT().Now().Return(t0)
		clock.EXPECT().Now().Return(t0.Add(250 * time.Millisecond))
		tickable.EXPECT().Tick(Delta{})
		tickable.EXPECT().Tick(Delta{Scaled: 0.5, Unscaled: 0.25})

		Expect(d.Step()).To(Succeed())
		Expect(d.Step()).To(Succeed())
		Expect(d.Now()).To(BeNumerically("~", 0.5, 1e-9))
	})

	It("should apply a new time scale from the next frame", func() {
		tickable := NewMockTickable(mockCtrl)
		d.RegisterTickable(tickable)

		clock.EXPECT().Now().Return(t0)
		clock.EXPECT().Now().Return(t0.Add(time.Second))
		tickable.EXPECT().Tick(Delta{})
		tickable.EXPECT().Tick(Delta{Scaled: 0, Unscaled: 1})

		Expect(d.Step()).To(Succeed())
		Expect(d.SetTimeScale(0)).To(Succeed())
		Expect(d.Step()).To(Succeed())
	})

	It("should reject a negative time scale", func() {
		err := d.SetTimeScale(-1)

		Expect(errors.Is(err, ErrInvalidTimeScale)).To(BeTrue())
		Expect(d.TimeScale()).To(Equal(2.0))
	})

	It("should run queued work, synchronize, then tick", func() {
		var order []string
		obj := NewMockSynchronizable(mockCtrl)
		tickable := NewMockTickable(mockCtrl)
		d.Synchronizer().Add(obj)
		d.RegisterTickable(tickable)

		clock.EXPECT().Now().Return(t0)
		obj.EXPECT().Synchronize().DoAndReturn(func() error {
			order = append(order, "synchronize")
			return nil
		})
		tickable.EXPECT().Tick(gomock.Any()).Do(func(Delta) {
			order = append(order, "tick")
		})
		d.Invoker().Invoke(func() { order = append(order, "invoke") })
		d.AcceptHook(hooking.NewHookFunc(func(ctx hooking.HookCtx) {
			order = append(order, ctx.Pos.Name)
		}))

		Expect(d.Step()).To(Succeed())
		Expect(order).To(Equal([]string{
			"BeforeFrame", "invoke", "synchronize", "tick", "AfterFrame",
		}))
	})

	It("should tick even if synchronization fails", func() {
		errSync := errors.New("sync failed")
		obj := NewMockSynchronizable(mockCtrl)
		tickable := NewMockTickable(mockCtrl)
		d.Synchronizer().Add(obj)
		d.RegisterTickable(tickable)

		clock.EXPECT().Now().Return(t0)
		obj.EXPECT().Synchronize().Return(errSync)
		tickable.EXPECT().Tick(gomock.Any())

		err := d.Step()

		Expect(errors.Is(err, errSync)).To(BeTrue())
	})

	It("should pass the frame info to hooks", func() {
		var infos []Info
		d.AcceptHook(hooking.NewHookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosAfterFrame {
				infos = append(infos, ctx.Item.(Info))
			}
		}))

		clock.EXPECT().Now().Return(t0)
		clock.EXPECT().Now().Return(t0.Add(time.Second))

		Expect(d.Step()).To(Succeed())
		Expect(d.Step()).To(Succeed())

		Expect(infos).To(HaveLen(2))
		Expect(infos[1].Number).To(Equal(uint64(2)))
		Expect(infos[1].Delta.Unscaled).To(Equal(1.0))
		Expect(infos[1].Time).To(Equal(2.0))
	})

	It("should forward application pauses on the next frame", func() {
		listener := NewMockLifecycleListener(mockCtrl)
		d.RegisterLifecycleListener(listener)

		d.SetApplicationPaused(true)
		d.SetApplicationPaused(true)
		Expect(d.IsApplicationPaused()).To(BeTrue())

		clock.EXPECT().Now().Return(t0).Times(2)
		listener.EXPECT().ApplicationPaused(true).Times(1)
		Expect(d.Step()).To(Succeed())

		d.SetApplicationPaused(false)
		listener.EXPECT().ApplicationPaused(false).Times(1)
		Expect(d.Step()).To(Succeed())
	})

	Context("when running", func() {
		BeforeEach(func() {
			d = MakeBuilder().
				WithTargetFPS(1000).
				WithMaxFrames(5).
				WithLogger(log.New(GinkgoWriter, "", 0)).
				Build()
		})

		It("should stop after the max number of frames", func() {
			Expect(d.Run(context.Background())).To(Succeed())
			Expect(d.FrameCount()).To(Equal(uint64(5)))
		})

		It("should stop when the context is done", func() {
			d = MakeBuilder().WithTargetFPS(1000).Build()
			ctx, cancel := context.WithCancel(context.Background())
			d.AcceptHook(hooking.NewHookFunc(func(hctx hooking.HookCtx) {
				if hctx.Pos == HookPosAfterFrame &&
					hctx.Item.(Info).Number == 3 {
					cancel()
				}
			}))

			err := d.Run(ctx)

			Expect(err).To(MatchError(context.Canceled))
			Expect(d.FrameCount()).To(BeNumerically(">=", 3))
		})

		It("should return the first failing frame", func() {
			errSync := errors.New("sync failed")
			obj := NewMockSynchronizable(mockCtrl)
			d.Synchronizer().Add(obj)

			obj.EXPECT().Synchronize().Return(nil)
			obj.EXPECT().Synchronize().Return(errSync)

			err := d.Run(context.Background())

			Expect(errors.Is(err, errSync)).To(BeTrue())
			Expect(d.FrameCount()).To(Equal(uint64(2)))
		})

		It("should not run frames while paused", func() {
			d.Pause()
			Expect(d.IsPaused()).To(BeTrue())

			ctx, cancel := context.WithTimeout(
				context.Background(), 20*time.Millisecond)
			defer cancel()

			err := d.Run(ctx)

			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(d.FrameCount()).To(Equal(uint64(0)))

			d.Continue()
			Expect(d.IsPaused()).To(BeFalse())
			Expect(d.Run(context.Background())).To(Succeed())
			Expect(d.FrameCount()).To(Equal(uint64(5)))
		})
	})
})

var _ = Describe("Driver.Do", func() {
	var d *Driver

	BeforeEach(func() {
		d = MakeBuilder().
			WithTargetFPS(1000).
			WithLogger(log.New(GinkgoWriter, "", 0)).
			Build()
	})

	It("should run the function in the next frame", func() {
		done := make(chan error)
		ran := false

		go func() {
			done <- d.Do(context.Background(), func() { ran = true })
		}()

		Eventually(d.Invoker().Len).Should(Equal(1))
		Expect(d.Step()).To(Succeed())

		Eventually(done).Should(Receive(BeNil()))
		Expect(ran).To(BeTrue())
	})

	It("should run the function right away when paused", func() {
		d.Pause()
		defer d.Continue()

		ran := false
		err := d.Do(context.Background(), func() { ran = true })

		Expect(err).ToNot(HaveOccurred())
		Expect(ran).To(BeTrue())
		Expect(d.Invoker().Len()).To(Equal(0))
	})

	It("should give up when the context is done", func() {
		ctx, cancel := context.WithTimeout(
			context.Background(), 10*time.Millisecond)
		defer cancel()

		err := d.Do(ctx, func() {})

		Expect(err).To(MatchError(context.DeadlineExceeded))
	})
})
