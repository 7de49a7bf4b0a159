package fiber

import (
	"fmt"
	"runtime/debug"
)

// panicValue wraps a recovered panic along with its stack trace so it can be
// logged at the task boundary without ever being re-raised on the caller.
type panicValue struct {
	value any
	stack []byte
}

func (pv *panicValue) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", pv.value, pv.stack)
}

func (pv *panicValue) Unwrap() error {
	if err, ok := pv.value.(error); ok {
		return err
	}
	return nil
}

// tryRun calls f, recovering any panic into a *panicValue instead of letting
// it escape. This is the boundary every Task body runs behind: a body that
// panics never propagates past its own Task.
func tryRun(f func()) (caught *panicValue) {
	defer func() {
		if v := recover(); v != nil {
			caught = &panicValue{value: v, stack: debug.Stack()}
		}
	}()
	f()
	return nil
}
