package fiber

import "time"

// Sleep suspends the calling Task t for at least d before resuming it.
func Sleep(t *Task, d time.Duration) {
	w := t.worker
	ld, ok := w.driver.(*localDriver)
	if !ok {
		time.Sleep(d)
		return
	}
	ld.CreateTimer(d, false, func() { t.resume(nil) })
	t.RawYield()
}

// SetInterval schedules fn to run on Worker w's event loop every d until
// the returned Timer is stopped. fn runs inline on w's driving goroutine,
// so it must not block.
func SetInterval(w *Worker, d time.Duration, fn func()) *Timer {
	ld := w.driver.(*localDriver)
	return ld.CreateTimer(d, true, fn)
}

// SetTimeout schedules fn to run once on Worker w's event loop after d.
func SetTimeout(w *Worker, d time.Duration, fn func()) *Timer {
	ld := w.driver.(*localDriver)
	return ld.CreateTimer(d, false, fn)
}
