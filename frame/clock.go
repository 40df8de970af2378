// Package frame drives dispatchers and timers one frame at a time on a single
// owning goroutine.
package frame

import "time"

// A Clock tells the wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the time from the operating system.
type SystemClock struct{}

// Now returns the current time with a monotonic reading.
func (SystemClock) Now() time.Time {
	return time.Now()
}
