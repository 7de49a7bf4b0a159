// Package fiber is a cooperative, stackful task runtime for building
// single-threaded-per-worker event-driven programs.
//
// A [Task] is a suspendable unit of work: it runs on its own goroutine, but
// never two Tasks on the same [Worker] run at once. A Task suspends itself
// by calling one of [Task.Yield], [Task.Await] or [Task.Join], and is
// resumed either by a [Worker]'s own scheduling (Yield) or by an [Event]
// it is watching (Await).
//
// # Workers
//
// A [Worker] drives one event loop, pinned to its own OS thread with
// runtime.LockOSThread. All Tasks dispatched through a given Worker are
// guaranteed to run one at a time — each handoff into a Task blocks until
// it next suspends — which is what lets them safely share state without
// their own locking.
//
// A [Runtime] owns one or more Workers. [Runtime.EnableWorkerThreads] grows
// the pool; tasks can be submitted to a specific Worker with
// [Worker.RunTask]/[Worker.RunWorkerTask], or to whichever Worker is free
// next with [Worker.RunWorkerTaskDist].
//
// # Events
//
// [Signal], [State], [WaitGroup] and [Semaphore] are the vocabulary a Task
// uses to describe what it's waiting for. The first three satisfy [Event]:
// notifying one resumes every Task currently watching it via [Task.Watch]
// or [Task.Await]. A Semaphore is not an Event; a Task waits on it by
// calling [Semaphore.Acquire].
//
// # Handles and Join/Interrupt
//
// [Worker.RunTask] returns a [Handle], a reference to the spawned Task that
// stays meaningful even after the underlying Task object is recycled for
// unrelated work: a stale Handle makes [Task.Join] and [Task.Interrupt]
// silent no-ops instead of operating on the wrong Task.
//
// # Task-Local Storage
//
// [TaskLocal] gives each Task its own slot for a value, cleared
// automatically when the Task terminates, with a process-wide fallback for
// callers invoked off-task.
//
// # Timers and the Event Driver
//
// Each Worker polls an [EventDriver] for timer firings. [NewLocalDriver]
// is the reference driver, sufficient for [Sleep], [SetTimeout] and
// [SetInterval]; it does not watch sockets. Every Worker a [Runtime]
// creates uses it, and Runtime has no option for installing another
// EventDriver.
//
// # Panics
//
// A Task body that panics never propagates past its own Task: the panic is
// recovered, logged, and the Task simply terminates. The rest of the
// Runtime keeps running.
//
// # REST Binding
//
// The fiber/rest subpackage binds ordinary Go method sets to HTTP, deriving
// routes from method names and marshaling request/response values, in
// either direction: as a server mux or as a client proxy, a struct of
// func-typed fields filled with reflect.MakeFunc closures.
package fiber
