package frame

import (
	"errors"
	"sync"

	"github.com/sarchlab/framesync/event"
)

// A Synchronizer synchronizes a set of objects once per frame. Objects can be
// added and removed from any goroutine; the changes are applied at the start
// of the next SynchronizeAll.
type Synchronizer struct {
	lock    sync.Mutex
	objects []event.Synchronizable
	added   []event.Synchronizable
	removed []event.Synchronizable
}

// NewSynchronizer creates an empty Synchronizer.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// Add registers an object.
func (s *Synchronizer) Add(obj event.Synchronizable) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.added = append(s.added, obj)
}

// Remove unregisters an object.
func (s *Synchronizer) Remove(obj event.Synchronizable) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.removed = append(s.removed, obj)
}

// Count returns the number of objects as of the last SynchronizeAll.
func (s *Synchronizer) Count() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.objects)
}

// Contains tells if an object was synchronized by the last SynchronizeAll.
func (s *Synchronizer) Contains(obj event.Synchronizable) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, o := range s.objects {
		if o == obj {
			return true
		}
	}

	return false
}

// Objects returns the objects as of the last SynchronizeAll.
func (s *Synchronizer) Objects() []event.Synchronizable {
	s.lock.Lock()
	defer s.lock.Unlock()

	objects := make([]event.Synchronizable, len(s.objects))
	copy(objects, s.objects)

	return objects
}

// SynchronizeAll applies the pending membership changes and synchronizes
// every object. Errors from the objects are joined; a failing object does
// not prevent the others from being synchronized.
func (s *Synchronizer) SynchronizeAll() error {
	objects := s.applyChanges()

	var errs []error
	for _, obj := range objects {
		if err := obj.Synchronize(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Synchronizer) applyChanges() []event.Synchronizable {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.objects = append(s.objects, s.added...)
	s.added = nil

	for _, r := range s.removed {
		for i, o := range s.objects {
			if o == r {
				s.objects = append(s.objects[:i:i], s.objects[i+1:]...)
				break
			}
		}
	}
	s.removed = nil

	objects := make([]event.Synchronizable, len(s.objects))
	copy(objects, s.objects)

	return objects
}
