package fiber

import "slices"

// Semaphore bounds concurrent access to a resource. Callers request access
// with a given weight.
//
// A Semaphore must not be shared by more than one [Runtime].
type Semaphore struct {
	size    int64
	cur     int64
	waiters []*semWaiter
}

// NewSemaphore creates a new weighted semaphore with the given maximum
// combined weight.
func NewSemaphore(n int64) *Semaphore {
	return &Semaphore{size: n}
}

// Acquire blocks the calling Task t until a weight of n is acquired.
func (s *Semaphore) Acquire(t *Task, n int64) {
	if n < 0 {
		panic("fiber(Semaphore): negative weight")
	}
	if s.size-s.cur >= n {
		s.cur += n
		return
	}
	w := &semWaiter{s: s, n: n}
	s.waiters = append(s.waiters, w)
	defer func() {
		// w.n != 0 here means Acquire is unwinding before being granted its
		// weight, almost always [ErrInterrupted] panicking out of Await. A
		// waiter left in s.waiters with a nonzero n would wedge
		// notifyWaiters behind it forever, since it breaks at the first
		// waiter it cannot satisfy.
		if w.n != 0 {
			s.removeWaiter(w)
		}
	}()
	for w.n != 0 {
		t.Await(w)
	}
}

// Release releases the semaphore with a weight of n.
func (s *Semaphore) Release(n int64) {
	if n < 0 {
		panic("fiber(Semaphore): negative weight")
	}
	if s.cur >= 0 {
		s.cur -= n
	}
	if s.cur < 0 {
		panic("fiber(Semaphore): released more than held")
	}
	s.notifyWaiters()
}

func (s *Semaphore) notifyWaiters() {
	i := 0
	for i = range s.waiters {
		w := s.waiters[i]
		if s.size-s.cur < w.n {
			break
		}
		s.cur += w.n
		w.n = 0
		w.Notify()
	}
	s.waiters = slices.Delete(s.waiters, 0, i)
}

type semWaiter struct {
	Signal
	s *Semaphore
	n int64
}

func (s *Semaphore) removeWaiter(w *semWaiter) {
	if i := slices.Index(s.waiters, w); i != -1 {
		s.waiters = slices.Delete(s.waiters, i, i+1)
	}
}
