package fiber

import (
	"runtime"
	"sync"
	"time"
)

// Worker drives one independent event loop on a goroutine pinned to its own
// OS thread via runtime.LockOSThread, so that calls a Worker makes directly
// from its own driving goroutine (EventDriver polling, timer callbacks) see
// a stable thread identity. Each Task body instead runs on its own
// dedicated goroutine; what keeps only one Task "active" per Worker at a
// time is that every handoff into a Task (the runLoop's own dispatch, a
// fired Timer, [Task.Interrupt]) blocks until that Task next suspends or
// terminates, so control never actually runs concurrently with anything
// else on the same Worker. Resuming or interrupting a Task from a
// different Worker is a programming error, never a silent race.
type Worker struct {
	rt   *Runtime
	name string

	pool taskPool

	driver EventDriver

	queueMu sync.Mutex
	own     []*Task // already-started Tasks suspended via Yield, waiting their turn to resume
	pending []Body  // brand-new bodies submitted via RunWorkerTask, waiting their first dispatch
	shared  *sharedQueue

	wake *ManualEvent

	exiting atomicBool
}

// sharedQueue is the "any worker" FIFO that [Worker.RunWorkerTaskDist]
// feeds into; any idle Worker in the pool may pop from it. Each Worker
// parks on its own private wake event, so a push must emit every
// registered Worker's wake, not some wake of the queue's own — otherwise a
// Worker idling on a timer deadline far in the future would never notice
// newly distributed work.
type sharedQueue struct {
	mu     sync.Mutex
	tasks  []Body
	wakers []*ManualEvent
}

func newSharedQueue() *sharedQueue {
	return &sharedQueue{}
}

func (q *sharedQueue) registerWaker(wake *ManualEvent) {
	q.mu.Lock()
	q.wakers = append(q.wakers, wake)
	q.mu.Unlock()
}

func (q *sharedQueue) push(b Body) {
	q.mu.Lock()
	q.tasks = append(q.tasks, b)
	wakers := append([]*ManualEvent(nil), q.wakers...)
	q.mu.Unlock()
	for _, wk := range wakers {
		wk.Emit()
	}
}

func (q *sharedQueue) pop() Body {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil
	}
	b := q.tasks[0]
	q.tasks = q.tasks[1:]
	return b
}

func (w *Worker) enqueueYielded(t *Task) {
	w.queueMu.Lock()
	w.own = append(w.own, t)
	w.queueMu.Unlock()
}

func (w *Worker) popYielded() *Task {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	if len(w.own) == 0 {
		return nil
	}
	t := w.own[0]
	w.own = w.own[1:]
	return t
}

func (w *Worker) popPending() (Body, bool) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	if len(w.pending) == 0 {
		return nil, false
	}
	b := w.pending[0]
	w.pending = w.pending[1:]
	return b, true
}

// RunWorkerTask submits body to w's private pending queue, to be given its
// first dispatch the next time w's loop drains it, in submission order.
// Unlike [Worker.RunTask] this does not block the caller or resume anything
// synchronously: a brand-new body has never suspended, so it cannot be
// handed to [Task.resume] the way an already-yielded Task can.
func (w *Worker) RunWorkerTask(body Body) {
	w.queueMu.Lock()
	w.pending = append(w.pending, body)
	w.queueMu.Unlock()
	w.wake.Emit()
}

// RunWorkerTaskDist submits body to the Runtime-wide shared queue: whichever
// Worker is idle first picks it up. Use this when the task has no affinity
// to a particular Worker (Non-goal: no work-stealing once a Task has begun
// running on a Worker — this only governs where a brand-new Task starts).
func (w *Worker) RunWorkerTaskDist(body Body) {
	w.shared.push(body)
}

// runLoop is the per-thread body a Worker's driving goroutine executes. It
// locks the OS thread, then alternates between draining this Worker's own
// yielded-task queue, the Runtime-wide shared queue, and processing driver
// events, parking on wake when there is nothing to do. Once w reports an
// idle tick it stays in the Runtime's idle set until it next dispatches a
// Task, so a GC timer firing from ProcessEvents still sees it as idle.
func (w *Worker) runLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for !w.shouldStop() {
		progressed := false

		if t := w.popYielded(); t != nil {
			w.rt.clearIdle(w)
			t.resume(nil)
			progressed = true
		}

		if body, ok := w.popPending(); ok {
			w.rt.clearIdle(w)
			h := w.RunTask(body)
			_ = h
			progressed = true
		}

		if body := w.shared.pop(); body != nil {
			w.rt.clearIdle(w)
			h := w.RunTask(body)
			_ = h
			progressed = true
		}

		if w.driver != nil {
			if n := w.driver.ProcessEvents(); n > 0 {
				progressed = true
			}
		}

		if !progressed {
			if w.draining() {
				return
			}
			w.rt.notifyIdle(w)
			w.parkUntilNextDeadline()
		}
	}
}

// parkUntilNextDeadline blocks until woken or, if the driver has a timer
// scheduled, until that timer is due — so an otherwise-quiescent Worker
// still wakes up in time to run its own timers rather than parking on wake
// forever.
func (w *Worker) parkUntilNextDeadline() {
	if w.driver == nil {
		w.wake.Wait()
		return
	}
	deadline, ok := w.driver.NextDeadline()
	if !ok {
		w.wake.Wait()
		return
	}
	wait := time.Until(deadline)
	if wait < 0 {
		wait = 0
	}
	w.wake.WaitTimeout(wait)
}

// shouldStop reports whether w must stop immediately: only true for a
// non-graceful ExitEventLoop.
func (w *Worker) shouldStop() bool {
	return w.exiting.Load()
}

// draining reports whether a graceful ExitEventLoop has been requested and
// w has nothing left to drain, so it is safe to stop now.
func (w *Worker) draining() bool {
	select {
	case <-w.rt.exit:
	default:
		return false
	}
	w.queueMu.Lock()
	empty := len(w.own) == 0 && len(w.pending) == 0
	w.queueMu.Unlock()
	return empty
}
