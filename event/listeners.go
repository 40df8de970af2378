package event

// listenerTable maps event types to listeners in registration order.
type listenerTable map[Type][]Listener

func (t listenerTable) add(eventType Type, l Listener) {
	if t.contains(eventType, l) {
		return
	}

	t[eventType] = append(t[eventType], l)
}

func (t listenerTable) remove(eventType Type, l Listener) {
	list, ok := t[eventType]
	if !ok {
		return
	}

	for i, existing := range list {
		if existing == l {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}

	if len(list) == 0 {
		delete(t, eventType)
		return
	}

	t[eventType] = list
}

func (t listenerTable) removeType(eventType Type) {
	delete(t, eventType)
}

func (t listenerTable) clear() {
	for k := range t {
		delete(t, k)
	}
}

func (t listenerTable) contains(eventType Type, l Listener) bool {
	for _, existing := range t[eventType] {
		if existing == l {
			return true
		}
	}

	return false
}

func (t listenerTable) count(eventType Type) int {
	return len(t[eventType])
}

// snapshot copies the listener lists of the given event types.
func (t listenerTable) snapshot(events []*Event) map[Type][]Listener {
	s := make(map[Type][]Listener)
	for _, e := range events {
		if _, done := s[e.Type]; done {
			continue
		}

		list := t[e.Type]
		dup := make([]Listener, len(list))
		copy(dup, list)
		s[e.Type] = dup
	}

	return s
}

type removalKind int

const (
	removeOne removalKind = iota
	removeType
	removeAll
)

// removal is a listener removal requested during a drain.
type removal struct {
	kind      removalKind
	eventType Type
	listener  Listener
}

func (r removal) applyTo(t listenerTable) {
	switch r.kind {
	case removeOne:
		t.remove(r.eventType, r.listener)
	case removeType:
		t.removeType(r.eventType)
	case removeAll:
		t.clear()
	}
}
