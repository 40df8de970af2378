package frame

// Delta is the time step of one frame, in seconds.
type Delta struct {
	// Scaled is the elapsed time multiplied by the driver's time scale.
	Scaled float64

	// Unscaled is the elapsed wall-clock time.
	Unscaled float64
}

// A Tickable is advanced once per frame.
type Tickable interface {
	Tick(delta Delta)
}

// A LifecycleListener is notified when the host application is suspended or
// resumed.
type LifecycleListener interface {
	ApplicationPaused(paused bool)
}
