//go:build !unix

package fiber

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// applyProcessOptions is a no-op on platforms without POSIX uid/gid
// semantics: there is nothing to drop privileges to.
func applyProcessOptions(opts ProcessOptions) error {
	return nil
}

// HandleSignals wires SIGINT/SIGTERM/SIGABRT to a graceful
// [Runtime.ExitEventLoop]. A second signal after shutdown has begun forces
// an immediate os.Exit(1).
func HandleSignals(rt *Runtime) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)

	go func() {
		shuttingDown := false
		for sig := range ch {
			if shuttingDown {
				if l := currentLogger(); l != nil {
					l.Warn("fiber: second shutdown signal, exiting immediately", zap.Stringer("signal", sig))
				}
				os.Exit(1)
			}
			shuttingDown = true
			rt.ExitEventLoop(true)
		}
	}()
}
