package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/sarchlab/framesync/config"
	"github.com/sarchlab/framesync/datarecording"
	"github.com/sarchlab/framesync/event"
	"github.com/sarchlab/framesync/frame"
	"github.com/sarchlab/framesync/hooking"
	"github.com/sarchlab/framesync/monitoring"
	"github.com/sarchlab/framesync/timer"
	"github.com/sarchlab/framesync/tracing"
)

const (
	eventWork          event.Type = "work"
	eventCountdownDone event.Type = "countdown-done"
)

// produceInterval is how often each producer dispatches a work event.
const produceInterval = 10 * time.Millisecond

// demo is a workload made of producer goroutines dispatching events and a
// few timers, all synchronized by one driver.
type demo struct {
	cfg       config.Config
	producers int
	logger    *log.Logger
	out       io.Writer

	driver     *frame.Driver
	group      *timer.Group
	dispatcher *event.ThreadDispatcher

	monitor  *monitoring.Monitor
	recorder datarecording.DataRecorder
	exec     *datarecording.ExecRecorder

	dispatched  uint64
	delivered   uint64
	completions uint64
	wallSeconds uint32

	lock sync.Mutex
}

func newDemo(
	cfg config.Config,
	producers int,
	logger *log.Logger,
	out io.Writer,
) *demo {
	driver := frame.MakeBuilder().
		WithTargetFPS(cfg.TargetFPS).
		WithTimeScale(cfg.TimeScale).
		WithMaxFrames(cfg.MaxFrames).
		WithLogger(logger).
		Build()

	group := timer.NewGroup(logger)
	driver.RegisterTickable(group)
	driver.RegisterLifecycleListener(group)

	dispatcher := event.MakeBuilder().
		WithRegistry(driver.Synchronizer()).
		WithFailurePolicy(cfg.FailurePolicy).
		WithLogger(logger).
		Build("demo")

	d := &demo{
		cfg:        cfg,
		producers:  producers,
		logger:     logger,
		out:        out,
		driver:     driver,
		group:      group,
		dispatcher: dispatcher,
	}

	d.setupListeners()
	d.setupTimers()

	return d
}

func (d *demo) setupListeners() {
	mustSucceed(d.dispatcher.AddEventListener(eventWork,
		event.NewListenerFunc(func(*event.Event) error {
			d.delivered++
			return nil
		})))

	mustSucceed(d.dispatcher.AddEventListener(eventCountdownDone,
		event.NewListenerFunc(func(e *event.Event) error {
			d.completions++
			fmt.Fprintf(d.out, "frame %d: %s completed %d times\n",
				d.driver.FrameCount(),
				e.Source.(*timer.Timer).Name(),
				d.completions)

			return nil
		})))
}

func (d *demo) setupTimers() {
	heartbeat := d.newTimer().
		WithInterval(1).
		Build("heartbeat")
	heartbeat.OnTicking(func(_ *timer.Timer, count uint32) {
		fmt.Fprintf(d.out, "heartbeat %d: frame %d, %d events delivered\n",
			count, d.driver.FrameCount(), d.delivered)
	})

	countdown := d.newTimer().
		WithInterval(0.25).
		WithRepeatCount(8).
		Build("countdown")
	countdown.OnCompleted(func(t *timer.Timer) {
		mustSucceed(d.dispatcher.DispatchEvent(
			event.NewEventFrom(eventCountdownDone, t, nil)))
		mustSucceed(t.Start())
	})

	wallClock := d.newTimer().
		WithInterval(1).
		WithIgnoreTimeScale().
		Build("wall-clock")
	wallClock.OnTicking(func(_ *timer.Timer, count uint32) {
		d.wallSeconds = count
	})

	d.newTimer().
		WithInterval(5).
		WithApplicationPauseImmunity().
		Build("watchdog")

	mustSucceed(d.group.StartAll())
}

func (d *demo) newTimer() timer.Builder {
	return timer.MakeBuilder().
		WithRegistry(d.group).
		WithLogger(d.logger)
}

// enableMonitor starts the monitoring server.
func (d *demo) enableMonitor(port int, openBrowser bool, assetDir string) {
	d.monitor = monitoring.NewMonitor().
		WithPortNumber(port).
		WithAssetDir(assetDir)
	if openBrowser {
		d.monitor = d.monitor.WithBrowser()
	}

	d.monitor.RegisterDriver(d.driver)
	d.monitor.RegisterTimerGroup(d.group)
	d.monitor.RegisterDispatcher(d.dispatcher)

	if d.cfg.MaxFrames > 0 {
		bar := d.monitor.CreateProgressBar("Frames", d.cfg.MaxFrames)
		d.driver.AcceptHook(hooking.NewHookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == frame.HookPosAfterFrame {
				bar.IncrementFinished(1)
			}
		}))
	}

	d.monitor.StartServer()
}

// enableRecording records the frames, deliveries and timer transitions into
// a SQLite database.
func (d *demo) enableRecording(path string) {
	d.recorder = datarecording.New(path)

	d.exec = datarecording.NewExecRecorder(d.recorder)
	d.exec.Start()
	d.exec.Set("Target FPS", strconv.FormatFloat(d.cfg.TargetFPS, 'f', -1, 64))
	d.exec.Set("Time Scale", strconv.FormatFloat(d.cfg.TimeScale, 'f', -1, 64))
	d.exec.Set("Failure Policy", d.cfg.FailurePolicy.String())

	tracing.NewFrameTracer(d.recorder).Trace(d.driver)
	tracing.NewDeliveryTracer(d.recorder, d.driver).Trace(d.dispatcher)
	tracing.NewTimerTracer(d.recorder, d.driver).TraceGroup(d.group)
}

// run runs frames until ctx is done or the frame limit is reached. An
// interrupted run is not an error.
func (d *demo) run(ctx context.Context) error {
	produceCtx, stopProducers := context.WithCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < d.producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.produce(produceCtx, id)
		}(i)
	}

	err := d.driver.Run(ctx)

	stopProducers()
	wg.Wait()

	d.finish()

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (d *demo) produce(ctx context.Context, id int) {
	ticker := time.NewTicker(produceInterval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		e := event.NewEventFrom(eventWork, id, n)
		if err := d.dispatcher.DispatchEvent(e); err != nil {
			d.logger.Printf("producer %d: %v", id, err)
			return
		}

		d.lock.Lock()
		d.dispatched++
		d.lock.Unlock()
	}
}

func (d *demo) finish() {
	d.dispatcher.Dispose()

	if d.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := d.monitor.StopServer(ctx); err != nil {
			d.logger.Printf("stopping monitor: %v", err)
		}
	}

	if d.recorder != nil {
		d.exec.End()

		if err := d.recorder.Close(); err != nil {
			d.logger.Printf("closing recording: %v", err)
		}
	}

	fmt.Fprintf(d.out,
		"%d frames, %.3f s scaled, %d s wall clock, "+
			"%d events dispatched, %d delivered, %d countdowns\n",
		d.driver.FrameCount(), d.driver.Now(), d.wallSeconds,
		d.dispatchedCount(), d.delivered, d.completions)
}

func (d *demo) dispatchedCount() uint64 {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.dispatched
}

func mustSucceed(err error) {
	if err != nil {
		log.Panic(err)
	}
}
