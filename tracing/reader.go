package tracing

import (
	"context"
	"errors"
	"sort"

	"github.com/sarchlab/framesync/datarecording"
	"github.com/sarchlab/framesync/timer"
)

// Deliveries reads the rows written by a DeliveryTracer.
func Deliveries(
	ctx context.Context,
	r *datarecording.Reader,
	f datarecording.Filter,
) ([]DeliveryEntry, error) {
	return datarecording.Read[DeliveryEntry](ctx, r, DeliveryTable, f)
}

// TimerTransitions reads the rows written by a TimerTracer.
func TimerTransitions(
	ctx context.Context,
	r *datarecording.Reader,
	f datarecording.Filter,
) ([]TimerEntry, error) {
	return datarecording.Read[TimerEntry](ctx, r, TimerTable, f)
}

// Frames reads the rows written by a FrameTracer.
func Frames(
	ctx context.Context,
	r *datarecording.Reader,
	f datarecording.Filter,
) ([]FrameEntry, error) {
	return datarecording.Read[FrameEntry](ctx, r, FrameTable, f)
}

// TimerCompletions is how many times a timer completed.
type TimerCompletions struct {
	Name  string
	Count int
}

// Summary condenses a recording. Tables that were not recorded leave their
// part of the summary empty.
type Summary struct {
	Frames     int
	LastFrame  FrameEntry
	Deliveries int

	// Failures holds the listener failures, most recent last.
	Failures []DeliveryEntry

	// Completions is sorted by timer name.
	Completions []TimerCompletions
}

// TotalCompletions returns the number of completions of all timers.
func (s Summary) TotalCompletions() int {
	total := 0
	for _, c := range s.Completions {
		total += c.Count
	}

	return total
}

// Summarize reads the tables written by the tracers of this package.
func Summarize(
	ctx context.Context,
	r *datarecording.Reader,
) (Summary, error) {
	s := Summary{}

	if err := s.readFrames(ctx, r); err != nil {
		return s, err
	}

	if err := s.readDeliveries(ctx, r); err != nil {
		return s, err
	}

	if err := s.readCompletions(ctx, r); err != nil {
		return s, err
	}

	return s, nil
}

func (s *Summary) readFrames(
	ctx context.Context,
	r *datarecording.Reader,
) error {
	last, err := Frames(ctx, r,
		datarecording.Filter{OrderBy: "Frame DESC", Limit: 1})
	if err != nil {
		return notRecorded(err)
	}

	if len(last) == 0 {
		return nil
	}

	s.LastFrame = last[0]
	s.Frames, err = r.Count(ctx, FrameTable, datarecording.Filter{})

	return err
}

func (s *Summary) readDeliveries(
	ctx context.Context,
	r *datarecording.Reader,
) error {
	n, err := r.Count(ctx, DeliveryTable,
		datarecording.Filter{Where: "Failed = ?", Args: []any{false}})
	if err != nil {
		return notRecorded(err)
	}

	s.Deliveries = n

	s.Failures, err = Deliveries(ctx, r,
		datarecording.Filter{Where: "Failed = ?", Args: []any{true}})

	return err
}

func (s *Summary) readCompletions(
	ctx context.Context,
	r *datarecording.Reader,
) error {
	rows, err := TimerTransitions(ctx, r, datarecording.Filter{
		Where: "Transition = ?",
		Args:  []any{timer.HookPosCompleted.Name},
	})
	if err != nil {
		return notRecorded(err)
	}

	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.Name]++
	}

	for name, count := range counts {
		s.Completions = append(s.Completions,
			TimerCompletions{Name: name, Count: count})
	}

	sort.Slice(s.Completions, func(i, j int) bool {
		return s.Completions[i].Name < s.Completions[j].Name
	})

	return nil
}

func notRecorded(err error) error {
	if errors.Is(err, datarecording.ErrUnknownTable) {
		return nil
	}

	return err
}
