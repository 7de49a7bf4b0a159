package fiber

import "sync"

// taskPool recycles terminated, idle [Task] fiber goroutines so that a
// Worker under steady load stops allocating new OS-backed goroutines and
// channel sets after its working set has been reached. get on an empty pool
// returns nil and the caller allocates a new Task; put doubles the free
// list's capacity whenever it is full rather than growing one slot at a
// time.
type taskPool struct {
	mu   sync.Mutex
	free []*Task
}

func (p *taskPool) get() *Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.free)
	if n == 0 {
		return nil
	}
	t := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	return t
}

func (p *taskPool) put(t *Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cap(p.free) == len(p.free) {
		grown := make([]*Task, len(p.free), growPoolCap(cap(p.free)))
		copy(grown, p.free)
		p.free = grown
	}
	p.free = append(p.free, t)
}

func growPoolCap(c int) int {
	if c == 0 {
		return 8
	}
	return c * 2
}
