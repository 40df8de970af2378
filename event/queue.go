package event

import "container/list"

// eventQueue is a FIFO queue of events. It is not thread safe; the
// dispatcher guards it.
type eventQueue struct {
	l *list.List
}

func newEventQueue() *eventQueue {
	return &eventQueue{l: list.New()}
}

func (q *eventQueue) Push(e *Event) {
	q.l.PushBack(e)
}

func (q *eventQueue) Pop() *Event {
	front := q.l.Front()
	if front == nil {
		return nil
	}

	return q.l.Remove(front).(*Event)
}

func (q *eventQueue) Peek() *Event {
	front := q.l.Front()
	if front == nil {
		return nil
	}

	return front.Value.(*Event)
}

func (q *eventQueue) Len() int {
	return q.l.Len()
}

// MoveTo appends all the events to the back of dst, keeping their order.
func (q *eventQueue) MoveTo(dst *eventQueue) {
	dst.l.PushBackList(q.l)
	q.l.Init()
}

// PushFront puts events back at the front of the queue, keeping their order.
func (q *eventQueue) PushFront(events []*Event) {
	for i := len(events) - 1; i >= 0; i-- {
		q.l.PushFront(events[i])
	}
}

// Drain removes and returns all the events in the queue.
func (q *eventQueue) Drain() []*Event {
	events := make([]*Event, 0, q.l.Len())
	for e := q.l.Front(); e != nil; e = e.Next() {
		events = append(events, e.Value.(*Event))
	}

	q.l.Init()

	return events
}
