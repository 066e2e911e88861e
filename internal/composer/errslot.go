package composer

import "sync"

// errSlot is a first-writer-wins error cell shared by all runner
// goroutines of a single Composer.Run call. Writers compete under the
// mutex; only the first write sticks, later failures are discarded on
// purpose. The slot is read exactly once, by the owning goroutine,
// after every writer has finished.
type errSlot struct {
	mu    sync.Mutex
	set   bool
	taken bool
	err   error
}

// TrySet records err if no earlier error has been recorded. It reports
// whether this call won the race. A nil err never wins.
func (s *errSlot) TrySet(err error) bool {
	if err == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set {
		return false
	}
	s.set = true
	s.err = err
	return true
}

// Take drains the slot, returning the recorded error (nil if no writer
// ever won). Take panics if called twice; the composer owns exactly one
// read per run.
func (s *errSlot) Take() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taken {
		panic("composer: error slot drained twice")
	}
	s.taken = true
	return s.err
}
