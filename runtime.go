package fiber

import (
	goruntime "runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runtime owns a pool of [Worker]s, the EventDriver each one polls, and the
// opportunistic garbage-collection coordinator. Construct one with
// [NewRuntime] and drive it with [Runtime.RunEventLoop].
type Runtime struct {
	cfg Config

	mainWorker *Worker
	workers    []*Worker
	shared     *sharedQueue

	idleMu  sync.Mutex
	idleSet map[*Worker]struct{}

	gcMu      sync.Mutex
	gcTimer   *Timer
	gcArmed   bool // whether gcTimer is currently scheduled to fire again
	gcRunning int  // bumped every completed collection; read by tests

	exit   chan struct{}
	exited atomicBool
}

// NewRuntime builds a Runtime with a single Worker driven by the reference
// [EventDriver] (see [NewLocalDriver]). Call [Runtime.EnableWorkerThreads]
// to grow the pool before [Runtime.RunEventLoop].
func NewRuntime(cfg *Config) *Runtime {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := ApplyProcessOptions(cfg.Process); err != nil {
		if l := currentLogger(); l != nil {
			l.Error("fiber: apply process options", zap.Error(err))
		}
	}

	rt := &Runtime{
		cfg:     *cfg,
		exit:    make(chan struct{}),
		idleSet: make(map[*Worker]struct{}),
	}
	rt.shared = newSharedQueue()

	rt.mainWorker = rt.newWorker("main")
	rt.workers = append(rt.workers, rt.mainWorker)

	rt.armGC()
	return rt
}

func (rt *Runtime) newWorker(name string) *Worker {
	w := &Worker{
		rt:     rt,
		name:   name,
		driver: NewLocalDriver(),
		shared: rt.shared,
		wake:   NewManualEvent(),
	}
	rt.shared.registerWaker(w.wake)
	return w
}

// EnableWorkerThreads grows the pool to n Workers total (including the
// main one created by NewRuntime), each pinned to its own OS thread and
// each running its own EventDriver. Extra Workers only ever pick up work
// from the Runtime-wide shared queue ([Worker.RunWorkerTaskDist]) unless
// submitted to directly. n <= 0 means the Config's WorkerCount, or
// runtime.NumCPU() when that is zero too.
func (rt *Runtime) EnableWorkerThreads(n int) {
	if n <= 0 {
		n = rt.cfg.WorkerCount
	}
	if n <= 0 {
		n = goruntime.NumCPU()
	}
	for len(rt.workers) < n {
		w := rt.newWorker("worker")
		rt.workers = append(rt.workers, w)
		go w.runLoop()
	}
}

// Worker returns the Runtime's main Worker, the one [Runtime.RunEventLoop]
// drives on the calling goroutine.
func (rt *Runtime) Worker() *Worker {
	return rt.mainWorker
}

func (rt *Runtime) notifyIdle(w *Worker) {
	rt.idleMu.Lock()
	rt.idleSet[w] = struct{}{}
	allIdle := len(rt.idleSet) == len(rt.workers)
	rt.idleMu.Unlock()

	if allIdle {
		rt.onAllIdle()
	}
}

func (rt *Runtime) clearIdle(w *Worker) {
	rt.idleMu.Lock()
	delete(rt.idleSet, w)
	rt.idleMu.Unlock()
}

// onAllIdle runs once every Worker has reported an idle tick with nothing
// to do. Each idle tick arms a fresh GC timer unless one is already armed;
// tickGC clears gcArmed and skips its own rearm after every firing (see
// tickGC), so no GC timer runs between a firing and the next idle tick,
// instead of the timer also firing on its own wall-clock cadence.
func (rt *Runtime) onAllIdle() {
	rt.gcMu.Lock()
	defer rt.gcMu.Unlock()
	if rt.gcArmed {
		return
	}
	rt.gcArmed = true
	rt.gcTimer = rt.rearmGCTimer()
}

func (rt *Runtime) gcInterval() time.Duration {
	if rt.cfg.GCCollectTimeout <= 0 {
		return 2 * time.Second
	}
	return rt.cfg.GCCollectTimeout
}

func (rt *Runtime) allIdle() bool {
	rt.idleMu.Lock()
	defer rt.idleMu.Unlock()
	return len(rt.idleSet) == len(rt.workers)
}

// armGC schedules the opportunistic collector's first tick.
func (rt *Runtime) armGC() {
	rt.gcMu.Lock()
	rt.gcArmed = true
	rt.gcTimer = rt.rearmGCTimer()
	rt.gcMu.Unlock()
}

// rearmGCTimer creates a fresh repeating GC timer, closing over the exact
// *Timer instance its own callback fires for rather than reading
// rt.gcTimer at call time — rt.gcTimer can be reassigned concurrently by
// a racing CollectGarbage call, and the callback must call SkipNextRearm
// on the Timer that is actually firing, not on whatever rt.gcTimer
// happens to hold by then. Callers must hold gcMu.
func (rt *Runtime) rearmGCTimer() *Timer {
	var t *Timer
	t = rt.mainWorker.driver.(*localDriver).CreateTimer(rt.gcInterval(), true, func() {
		rt.tickGC(t)
	})
	return t
}

// tickGC is a GC timer's own callback: a collect-timeout has elapsed for
// t. It only actually collects if the Runtime is idle right now, leaving
// a busy Runtime's next collection to whenever an idle tick next occurs
// instead; either way it then calls SkipNextRearm so this repeating
// Timer stops rearming itself on a fixed wall-clock cadence and instead
// waits for the next idle tick (onAllIdle) to rearm it, matching "rearm
// on idle, skip one" rather than "collect unconditionally every tick".
func (rt *Runtime) tickGC(t *Timer) {
	if rt.allIdle() {
		rt.collect()
	}
	rt.gcMu.Lock()
	rt.gcArmed = false
	rt.gcMu.Unlock()
	t.SkipNextRearm()
}

func (rt *Runtime) collect() {
	goruntime.GC()
	rt.gcMu.Lock()
	rt.gcRunning++
	rt.gcMu.Unlock()
}

// CollectGarbage runs an immediate collection pass outside the normal
// idle/timer cadence and resets that cadence's timer, so it doesn't also
// fire a redundant collection shortly behind this one.
func (rt *Runtime) CollectGarbage() {
	rt.collect()
	rt.gcMu.Lock()
	if rt.gcTimer != nil {
		rt.gcTimer.Stop()
	}
	rt.gcArmed = true
	rt.gcTimer = rt.rearmGCTimer()
	rt.gcMu.Unlock()
}

// RunEventLoop drives the Runtime's main Worker on the calling goroutine
// until ExitEventLoop is called.
func (rt *Runtime) RunEventLoop() {
	rt.mainWorker.runLoop()
}

// ExitEventLoop requests that every Worker's loop stop at its next idle
// check. When graceful is true, Workers finish draining their own queues
// first; when false, they stop as soon as they next observe the exit flag.
func (rt *Runtime) ExitEventLoop(graceful bool) {
	if rt.exited.Swap(true) {
		return
	}
	for _, w := range rt.workers {
		if !graceful {
			w.exiting.Store(true)
		}
		w.wake.Emit()
	}
	close(rt.exit)
}
