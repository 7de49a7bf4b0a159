package fiber

import "sync/atomic"

// atomicInt32 and atomicBool give Task's hot-path state fields lock-free
// reads: state is polled from [Task.Join] and [Runtime] bookkeeping without
// ever taking joinMu.
type atomicInt32 = atomic.Int32

type atomicBool = atomic.Bool
