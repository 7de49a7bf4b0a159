package fiber

import (
	"sync"

	"code.hybscloud.com/atomix"
	"go.uber.org/zap"
)

// TaskState is the execution state of a [Task].
type TaskState int32

const (
	// Hold is the state of a Task that is either freshly allocated and not
	// yet dispatched, or suspended, waiting to be resumed. A Task returned
	// to its Worker's pool after its body ends stays in Term, not Hold,
	// until its next dispatch.
	Hold TaskState = iota
	// Exec is the state of a Task whose body is currently on the call stack
	// of its owning goroutine.
	Exec
	// Term is the state of a Task whose body has returned or panicked.
	// A Task in Term is never resumed again.
	Term
)

// Body is the top-level function executed by a [Task]. t must not escape
// the call: once the body returns, t may be recycled and handed to an
// unrelated piece of work.
type Body func(t *Task)

// Task is a suspendable unit of work with its own goroutine stack, akin to a
// stackful fiber multiplexed onto a [Worker]. Tasks are pool-allocated; see
// [Worker.newTask].
//
type Task struct {
	worker *Worker

	state   atomicInt32 // TaskState
	running atomicBool

	// runCount is bumped on every (re)dispatch. Together with the Task
	// pointer it forms a [Handle] that stays safe across pool reuse.
	runCount atomix.Uint32

	body Body

	assignC chan Body     // worker -> fiber goroutine: "run this body"
	resumeC chan error    // worker -> fiber goroutine: wake up, optionally with an injected exception
	doneC   chan doneSignal // fiber goroutine -> worker: suspended or ended

	deps map[Event]struct{}

	joinMu  sync.Mutex
	joiners []*Task

	pendingMu sync.Mutex
	pending   error // injected by Interrupt, consumed at next resume

	tls *tlsSlots

	recyclable bool
}

type doneSignal struct {
	ended bool
}

// Handle is an identifier for a [Task] that stays safe across task reuse:
// once the run-counter captured at creation time no longer matches the
// live Task, the handle refers to nothing and Join/Interrupt become no-ops
// once recycled.
type Handle struct {
	task     *Task
	runCount uint32
}

// Worker returns the [Worker] that owns the target of h, or nil if the
// handle is stale.
func (h Handle) Worker() *Worker {
	if h.task == nil || h.task.runCount.Load() != h.runCount {
		return nil
	}
	return h.task.worker
}

func (w *Worker) newTask() *Task {
	if t := w.pool.get(); t != nil {
		return t
	}
	t := &Task{
		worker:  w,
		assignC: make(chan Body),
		resumeC: make(chan error),
		doneC:   make(chan doneSignal),
	}
	go t.loop()
	return t
}

// loop is the body of the fiber goroutine backing t. It lives for as long
// as t's pool slot does, running one assigned Body per dispatch.
func (t *Task) loop() {
	for body := range t.assignC {
		t.runCount.Add(1)
		t.state.Store(int32(Exec))
		t.running.Store(true)

		logTaskEvent(t, eventStart)

		if caught := tryRun(func() { body(t) }); caught != nil {
			logTaskPanic(t, caught)
		} else {
			logTaskEvent(t, eventEnd)
		}

		t.running.Store(false)
		t.resetTaskLocal()
		t.clearDeps()

		t.state.Store(int32(Term))

		joiners := t.spliceJoiners()
		for _, j := range joiners {
			j.worker.enqueueYielded(j)
		}

		t.recycle()

		t.doneC <- doneSignal{ended: true}
	}
}

func (t *Task) clearDeps() {
	for d := range t.deps {
		d.removeListener(t)
		delete(t.deps, d)
	}
}

func (t *Task) spliceJoiners() []*Task {
	t.joinMu.Lock()
	defer t.joinMu.Unlock()
	joiners := t.joiners
	t.joiners = nil
	return joiners
}

func (t *Task) recycle() {
	if !t.recyclable {
		return
	}
	t.body = nil
	t.worker.pool.put(t)
}

// resume wakes t, optionally injecting err to be raised at the point where
// t is currently suspended, and blocks until t next suspends or terminates
// — like a function call into t's fiber goroutine that returns control once
// t yields it back. This is what keeps only one Task ever running at a time
// on a given Worker: every caller of resume (the runLoop's own dispatch,
// [Task.Interrupt], a fired [Timer]) waits for the handoff to complete
// before doing anything else. resume must only be called while t is in
// Hold, and never while holding a lock that t's own suspend path needs to
// acquire before it can produce that signal.
func (t *Task) resume(err error) {
	if t.state.Load() != int32(Hold) {
		return
	}
	t.resumeC <- err
	<-t.doneC
}

// RunTask spawns body on w, reserving a Task from w's pool (or allocating a
// new one). RunTask resumes the Task synchronously from the calling
// goroutine: it does not return until the body has either completed or
// voluntarily suspended for the first time.
func (w *Worker) RunTask(body Body) Handle {
	t := w.newTask()
	t.recyclable = true
	t.body = body

	t.assignC <- body
	<-t.doneC // either ended, or the fiber reached its first suspension

	return Handle{task: t, runCount: t.runCount.Load()}
}

// Watch registers ev as something that, when notified, resumes t. Watch
// must only be called from within t's own body.
func (t *Task) Watch(ev ...Event) {
	if t.deps == nil {
		t.deps = make(map[Event]struct{})
	}
	for _, d := range ev {
		if _, ok := t.deps[d]; !ok {
			t.deps[d] = struct{}{}
			d.addListener(t)
		}
	}
}

// Await suspends t until one of ev notifies it, then returns. With no
// arguments, Await suspends t without enqueueing it onto the yielded-tasks
// queue (equivalent to [Task.RawYield] plus [Task.Watch]).
func (t *Task) Await(ev ...Event) {
	t.Watch(ev...)
	t.suspend(false)
}

// Yield enqueues t onto the yielded-tasks queue and suspends it. t is
// guaranteed to be resumed no later than the next idle tick.
func (t *Task) Yield() {
	t.suspend(true)
}

// RawYield suspends t without enqueueing it anywhere. t will not run again
// unless something explicitly resumes it (used internally for driver I/O
// waits).
func (t *Task) RawYield() {
	t.suspend(false)
}

func (t *Task) suspend(enqueue bool) {
	t.state.Store(int32(Hold))
	t.running.Store(false)

	if enqueue {
		t.worker.enqueueYielded(t)
	}

	// Hand control back to whoever dispatched or resumed t: RunTask and
	// resume both block on doneC until t suspends or ends.
	t.doneC <- doneSignal{ended: false}

	err := <-t.resumeC

	t.state.Store(int32(Exec))
	t.running.Store(true)

	t.pendingMu.Lock()
	pending := t.pending
	t.pending = nil
	t.pendingMu.Unlock()

	if pending == nil && err != nil {
		pending = err
	}
	if pending != nil {
		panic(pending)
	}
}

// Join blocks the calling Task t until the Task referenced by h has
// completed its current body execution. Joining self or a Task owned by a
// different Worker is a programming error; joining a stale handle is a
// silent no-op.
func (t *Task) Join(h Handle) {
	target := h.task
	if target == nil || target.runCount.Load() != h.runCount {
		return // stale handle: no-op
	}
	if target == t {
		panic("fiber: a Task cannot join itself")
	}
	if target.worker != t.worker {
		panic("fiber: cross-worker join is forbidden")
	}

	for {
		if target.runCount.Load() != h.runCount || target.state.Load() == int32(Term) {
			return
		}
		target.joinMu.Lock()
		// Re-check under the lock: target may have ended between the
		// lock-free checks above and acquiring the lock.
		if target.runCount.Load() != h.runCount || target.state.Load() == int32(Term) {
			target.joinMu.Unlock()
			return
		}
		target.joiners = append(target.joiners, t)
		target.joinMu.Unlock()
		t.RawYield()
	}
}

// ErrInterrupted is the exception injected into a Task by [Task.Interrupt].
// It propagates like any other exception and, if uncaught, terminates the
// Task (logged at critical level, the Runtime continues).
type ErrInterrupted struct{}

func (ErrInterrupted) Error() string { return "fiber: task interrupted" }

// Interrupt schedules [ErrInterrupted] to be injected at the next resume of
// the Task referenced by h. Self-interrupt and cross-worker interrupt are
// programming errors. Interrupting a stale or already-terminated handle is
// a silent no-op. If h's target races with termination, Interrupt is
// defined to be a no-op.
func (t *Task) Interrupt(h Handle) {
	target := h.task
	if target == nil || target.runCount.Load() != h.runCount {
		return
	}
	if target == t {
		panic("fiber: a Task cannot interrupt itself")
	}
	if target.worker != t.worker {
		panic("fiber: cross-worker interrupt is forbidden")
	}

	target.pendingMu.Lock()
	if target.runCount.Load() != h.runCount || target.state.Load() == int32(Term) {
		target.pendingMu.Unlock()
		return
	}
	target.pending = ErrInterrupted{}
	target.pendingMu.Unlock()

	target.resume(nil)
}

func logTaskPanic(t *Task, pv *panicValue) {
	logTaskEvent(t, eventFail)
	if l := currentLogger(); l != nil {
		l.Error("fiber: task body panicked", zap.Error(pv), zap.Stack("stack"))
	}
}
