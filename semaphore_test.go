package fiber

import (
	"testing"
	"time"
)

func TestSemaphoreAcquireGrantsImmediatelyWhenCapacityAvailable(t *testing.T) {
	rt := newTestRuntime(t)
	w := rt.Worker()

	sem := NewSemaphore(2)
	acquired := make(chan struct{})
	w.RunTask(func(t *Task) {
		sem.Acquire(t, 2)
		close(acquired)
	})

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire within available capacity never returned")
	}
}

func TestSemaphoreAcquireBlocksUntilReleaseFrees(t *testing.T) {
	rt := newTestRuntime(t)
	w := rt.Worker()

	sem := NewSemaphore(1)

	held := make(chan struct{})
	w.RunTask(func(t *Task) {
		sem.Acquire(t, 1)
		close(held)
	})
	select {
	case <-held:
	case <-time.After(2 * time.Second):
		t.Fatal("first Acquire never returned")
	}

	acquiredSecond := make(chan struct{})
	handleB := w.RunTask(func(t *Task) {
		sem.Acquire(t, 1)
		close(acquiredSecond)
	})
	if handleB.Worker() == nil {
		t.Fatal("second Acquire's Task terminated instead of blocking")
	}

	select {
	case <-acquiredSecond:
		t.Fatal("second Acquire returned before capacity was released")
	case <-time.After(20 * time.Millisecond):
	}

	w.RunTask(func(t *Task) {
		sem.Release(1)
	})

	select {
	case <-acquiredSecond:
	case <-time.After(2 * time.Second):
		t.Fatal("second Acquire never resumed after Release")
	}
}

func TestSemaphoreInterruptedWaiterIsRemovedSoLaterWaitersStillProceed(t *testing.T) {
	rt := newTestRuntime(t)
	w := rt.Worker()

	sem := NewSemaphore(1)

	// A takes the only slot and returns without releasing, so it keeps cur
	// at 1 for the rest of the test.
	heldA := make(chan struct{})
	w.RunTask(func(t *Task) {
		sem.Acquire(t, 1)
		close(heldA)
	})
	select {
	case <-heldA:
	case <-time.After(2 * time.Second):
		t.Fatal("A's Acquire never returned")
	}

	// B blocks behind A, first in the waiter queue.
	bStarted := make(chan struct{})
	handleB := w.RunTask(func(t *Task) {
		close(bStarted)
		sem.Acquire(t, 1)
	})
	<-bStarted
	if handleB.Worker() == nil {
		t.Fatal("B's Task terminated instead of blocking on Acquire")
	}

	// C blocks behind B, second in the waiter queue.
	cDone := make(chan struct{})
	handleC := w.RunTask(func(t *Task) {
		sem.Acquire(t, 1)
		close(cDone)
	})
	if handleC.Worker() == nil {
		t.Fatal("C's Task terminated instead of blocking on Acquire")
	}

	// Interrupting B must unwind out of its Acquire and remove B's waiter
	// entry; otherwise it would wedge the queue in front of C forever.
	interruptDone := make(chan struct{})
	w.RunTask(func(t *Task) {
		t.Interrupt(handleB)
		close(interruptDone)
	})
	select {
	case <-interruptDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Interrupt of B never returned")
	}

	// Releasing A's weight should now satisfy C, not B's abandoned waiter.
	w.RunTask(func(t *Task) {
		sem.Release(1)
	})

	select {
	case <-cDone:
	case <-time.After(2 * time.Second):
		t.Fatal("C never acquired after B's interrupted waiter should have been cleaned up")
	}
}
