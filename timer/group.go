package timer

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/framesync/frame"
)

// A Group holds timers and ticks all of them once per frame. Changes to the
// membership made while the group is iterating take effect in the next
// iteration. A Group must only be used from the goroutine that ticks it.
type Group struct {
	logger  *log.Logger
	timers  []*Timer
	members map[*Timer]bool
}

// NewGroup creates an empty group. A nil logger means the standard logger.
func NewGroup(logger *log.Logger) *Group {
	if logger == nil {
		logger = log.Default()
	}

	return &Group{
		logger:  logger,
		members: make(map[*Timer]bool),
	}
}

// Add adds a timer to the group. Adding a member again has no effect.
func (g *Group) Add(t *Timer) {
	if t == nil {
		log.Panic("timer: cannot add a nil timer to a group")
	}

	if g.members[t] {
		return
	}

	g.members[t] = true
	g.timers = append(g.timers, t)
}

// Remove removes a timer from the group. It returns false if the timer was
// not a member.
func (g *Group) Remove(t *Timer) bool {
	if !g.members[t] {
		return false
	}

	delete(g.members, t)

	kept := make([]*Timer, 0, len(g.timers))
	for _, member := range g.timers {
		if member != t {
			kept = append(kept, member)
		}
	}
	g.timers = kept

	return true
}

// Contains tells if the timer is a member of the group.
func (g *Group) Contains(t *Timer) bool {
	return g.members[t]
}

// Count returns the number of timers in the group.
func (g *Group) Count() int {
	return len(g.timers)
}

// Clear removes all the timers from the group.
func (g *Group) Clear() {
	g.timers = nil
	g.members = make(map[*Timer]bool)
}

// Timers returns the members in the order they were added.
func (g *Group) Timers() []*Timer {
	timers := make([]*Timer, len(g.timers))
	copy(timers, g.timers)

	return timers
}

// Find returns the first member with the given name, or nil.
func (g *Group) Find(name string) *Timer {
	for _, t := range g.timers {
		if t.Name() == name {
			return t
		}
	}

	return nil
}

// ForEach calls f with every member. Timers removed during the iteration are
// skipped and timers added during the iteration are not visited.
func (g *Group) ForEach(f func(t *Timer)) {
	for _, t := range g.Timers() {
		if !g.members[t] {
			continue
		}

		f(t)
	}
}

func (g *Group) forEachWithErr(f func(t *Timer) error) error {
	var errs []error

	g.ForEach(func(t *Timer) {
		if err := f(t); err != nil {
			errs = append(errs, err)
		}
	})

	return errors.Join(errs...)
}

// StartAll starts every member.
func (g *Group) StartAll() error {
	return g.forEachWithErr((*Timer).Start)
}

// PauseAll pauses every member.
func (g *Group) PauseAll(causedByApplicationPause bool) error {
	return g.forEachWithErr(func(t *Timer) error {
		return t.Pause(causedByApplicationPause)
	})
}

// ResumeAll resumes every member.
func (g *Group) ResumeAll() error {
	return g.forEachWithErr((*Timer).Resume)
}

// StopAll stops every member.
func (g *Group) StopAll() error {
	return g.forEachWithErr((*Timer).Stop)
}

// ResetAll resets every member.
func (g *Group) ResetAll() error {
	return g.forEachWithErr((*Timer).Reset)
}

// Tick advances every member by one frame. Timers that ignore the time scale
// get the unscaled delta. A panic while ticking one timer is logged and does
// not stop the other timers from ticking.
func (g *Group) Tick(delta frame.Delta) {
	g.ForEach(func(t *Timer) {
		d := delta.Scaled
		if t.IgnoreTimeScale() {
			d = delta.Unscaled
		}

		if err := tickRecovered(t, d); err != nil {
			g.logger.Printf("timer %s: %v", t.Name(), err)
		}
	})
}

func tickRecovered(t *Timer, d float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked while ticking: %v", r)
		}
	}()

	t.Tick(d)

	return nil
}

// ApplicationPaused pauses the members when the application is suspended and
// resumes them when it comes back.
func (g *Group) ApplicationPaused(paused bool) {
	var err error
	if paused {
		err = g.PauseAll(true)
	} else {
		err = g.ResumeAll()
	}

	if err != nil {
		g.logger.Printf("timer group: %v", err)
	}
}
