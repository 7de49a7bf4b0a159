package fiber

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// ManualEvent is a cross-thread wakeup signal: Emit is safe to call from
// any goroutine, Wait parks the calling goroutine until the next Emit.
// EmitCount is a monotonically increasing counter of completed Emit calls,
// so a caller that raced a Wait against an Emit can still tell whether it
// missed one.
type ManualEvent struct {
	ch    chan struct{}
	count atomix.Uint64
}

// NewManualEvent creates a ManualEvent in the unsignalled state.
func NewManualEvent() *ManualEvent {
	return &ManualEvent{ch: make(chan struct{}, 1)}
}

// Emit signals e, waking at most one blocked Wait, and bumps EmitCount.
func (e *ManualEvent) Emit() {
	e.count.Add(1)
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the next Emit.
func (e *ManualEvent) Wait() {
	<-e.ch
}

// WaitTimeout blocks until the next Emit or until d elapses, reporting
// which happened.
func (e *ManualEvent) WaitTimeout(d time.Duration) (emitted bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-e.ch:
		return true
	case <-timer.C:
		return false
	}
}

// EmitCount returns the number of completed Emit calls so far.
func (e *ManualEvent) EmitCount() uint64 {
	return e.count.Load()
}

// Timer is a single-shot or repeating deadline owned by an [EventDriver].
// After each firing, ProcessEvents re-queues a repeating Timer one interval
// later, unless its callback called [Timer.SkipNextRearm] during that
// firing. Timer has no operation for rearming it by hand.
type Timer struct {
	driver   *localDriver
	interval time.Duration
	repeat   bool
	fn       func()

	stopped   atomicBool
	skipRearm atomicBool
}

// Stop cancels t. A Timer that has already fired for the last time is a
// harmless no-op to Stop. Safe to call from any goroutine, including one
// other than the Worker driving t's EventDriver.
func (t *Timer) Stop() {
	t.stopped.Store(true)
}

// EventDriver is the interface of the I/O readiness multiplexer a [Worker]
// polls on every pass of its loop: due timers (and, in a fuller driver,
// file descriptor readiness) flow through ProcessEvents.
//
// Fiber ships [NewLocalDriver] as a reference implementation that handles
// timers only. Every Worker a [Runtime] creates uses it; Runtime has no
// option for installing a different EventDriver.
type EventDriver interface {
	// ProcessEvents runs any timers that are due and returns how many
	// callbacks fired. It must not block.
	ProcessEvents() int
	// CreateTimer schedules fn to run after interval, optionally
	// repeating every interval until Stop is called.
	CreateTimer(interval time.Duration, repeat bool, fn func()) *Timer
	// NextDeadline reports when ProcessEvents should next be called to
	// make timely progress, or ok=false if there is nothing scheduled.
	NextDeadline() (deadline time.Time, ok bool)
	// Close releases any resources held by the driver.
	Close()
}

// localDriver is the reference [EventDriver]: an in-process timer wheel
// backed by [timerQueue], polled cooperatively from the owning Worker's
// idle tick. It does not watch file descriptors.
//
// CreateTimer may be called from any goroutine (a Task's own fiber calling
// [Sleep], the Runtime's constructor arming the GC timer), concurrently
// with ProcessEvents running on the owning Worker's driving goroutine, so
// queue access is guarded by mu.
type localDriver struct {
	mu    sync.Mutex
	queue timerQueue
	bo    iox.Backoff
}

// NewLocalDriver creates the reference EventDriver.
func NewLocalDriver() EventDriver {
	return &localDriver{}
}

func (d *localDriver) CreateTimer(interval time.Duration, repeat bool, fn func()) *Timer {
	t := &Timer{driver: d, interval: interval, repeat: repeat, fn: fn}
	d.mu.Lock()
	d.queue.Push(timerEntry{deadline: time.Now().Add(interval), timer: t})
	d.mu.Unlock()
	return t
}

func (d *localDriver) NextDeadline() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue.Empty() {
		return time.Time{}, false
	}
	return d.queue.Peek().deadline, true
}

func (d *localDriver) ProcessEvents() int {
	fired := 0
	now := time.Now()
	for {
		d.mu.Lock()
		if d.queue.Empty() || d.queue.Peek().deadline.After(now) {
			d.mu.Unlock()
			break
		}
		e := d.queue.Pop()
		d.mu.Unlock()

		t := e.timer
		if t.stopped.Load() {
			continue
		}

		t.skipRearm.Store(false)
		t.fn()
		fired++

		if t.repeat && !t.stopped.Load() {
			if t.skipRearm.Load() {
				t.skipRearm.Store(false)
			} else {
				d.mu.Lock()
				d.queue.Push(timerEntry{deadline: time.Now().Add(t.interval), timer: t})
				d.mu.Unlock()
			}
		}
	}
	if fired > 0 {
		d.bo.Reset()
	} else {
		d.bo.Wait()
	}
	return fired
}

func (d *localDriver) Close() {}

// SkipNextRearm, called from within a repeating Timer's own callback,
// suppresses the rearm that would otherwise happen when the callback
// returns. Calling it from outside that callback's own active firing has
// no useful effect: ProcessEvents clears skipRearm immediately before
// every firing, so only a call made synchronously from within fn can
// still be observed once fn returns. The garbage-collection coordinator
// relies on this to hand control back from its wall-clock timer to the
// next idle tick on every single fire, not only when a fire happened to
// also collect.
func (t *Timer) SkipNextRearm() {
	t.skipRearm.Store(true)
}
