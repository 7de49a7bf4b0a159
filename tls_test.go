package fiber

import "testing"

func TestTaskLocalGetSetOnTask(t *testing.T) {
	rt := newTestRuntime(t)
	w := rt.Worker()

	local := NewTaskLocal[int]("counter")
	done := make(chan struct{})
	var before, after int
	var wasSet bool

	w.RunWorkerTask(func(t *Task) {
		before = local.Get(t)
		wasSet = local.IsSet(t)
		local.Set(t, 42)
		after = local.Get(t)
		close(done)
	})
	<-done

	if wasSet {
		t.Fatal("IsSet was true before Set was ever called")
	}
	if before != 0 {
		t.Fatalf("before = %d, want zero value", before)
	}
	if after != 42 {
		t.Fatalf("after = %d, want 42", after)
	}
}

func TestTaskLocalDistinctSlotsDoNotCollide(t *testing.T) {
	rt := newTestRuntime(t)
	w := rt.Worker()

	a := NewTaskLocal[string]("same-name")
	b := NewTaskLocal[string]("same-name")

	done := make(chan struct{})
	var gotA, gotB string
	w.RunWorkerTask(func(t *Task) {
		a.Set(t, "from-a")
		b.Set(t, "from-b")
		gotA = a.Get(t)
		gotB = b.Get(t)
		close(done)
	})
	<-done

	if gotA != "from-a" || gotB != "from-b" {
		t.Fatalf("gotA = %q, gotB = %q, want distinct slots despite identical names", gotA, gotB)
	}
}

func TestTaskLocalWipedOnRecycledTask(t *testing.T) {
	rt := newTestRuntime(t)
	w := rt.Worker()

	local := NewTaskLocal[string]("leftover")

	first := make(chan struct{})
	w.RunWorkerTask(func(t *Task) {
		local.Set(t, "first occupant")
		close(first)
	})
	<-first

	// Submit enough tasks to make pool reuse overwhelmingly likely, and
	// confirm none of them observes the prior occupant's value.
	const n = 50
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		w.RunWorkerTask(func(t *Task) {
			results <- local.IsSet(t)
		})
	}
	for i := 0; i < n; i++ {
		if seen := <-results; seen {
			t.Fatal("a recycled Task observed a prior occupant's TaskLocal value")
		}
	}
}

func TestTaskLocalOffTaskFallback(t *testing.T) {
	local := NewTaskLocal[int]("off-task")

	if local.IsSet(nil) {
		t.Fatal("off-task slot reported set before any off-task Set call")
	}
	local.Set(nil, 7)
	if got := local.Get(nil); got != 7 {
		t.Fatalf("Get(nil) = %d, want 7", got)
	}
	if !local.IsSet(nil) {
		t.Fatal("IsSet(nil) false after Set(nil, ...)")
	}
}
