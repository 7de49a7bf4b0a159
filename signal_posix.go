//go:build unix

package fiber

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// applyProcessOptions drops privileges per opts using setgid/setuid, gid
// before uid so the process still holds CAP_SETUID when dropping the
// group. Called once at startup, before RunEventLoop.
func applyProcessOptions(opts ProcessOptions) error {
	if opts.GID != "" {
		gid, err := ResolveGID(opts.GID)
		if err != nil {
			return err
		}
		if err := syscall.Setgid(gid); err != nil {
			return err
		}
	}
	if opts.UID != "" {
		uid, err := ResolveUID(opts.UID)
		if err != nil {
			return err
		}
		if err := syscall.Setuid(uid); err != nil {
			return err
		}
	}
	return nil
}

// HandleSignals wires SIGINT/SIGTERM to a graceful [Runtime.ExitEventLoop]
// and logs (rather than terminates on) SIGPIPE. A second SIGINT/SIGTERM
// received after shutdown has already begun forces an immediate os.Exit(1)
// rather than waiting on a drain that may never finish.
func HandleSignals(rt *Runtime) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE)

	go func() {
		shuttingDown := false
		for sig := range ch {
			switch sig {
			case syscall.SIGPIPE:
				if l := currentLogger(); l != nil {
					l.Debug("fiber: ignoring SIGPIPE")
				}
			case syscall.SIGINT, syscall.SIGTERM:
				if shuttingDown {
					if l := currentLogger(); l != nil {
						l.Warn("fiber: second shutdown signal, exiting immediately", zap.Stringer("signal", sig))
					}
					os.Exit(1)
				}
				shuttingDown = true
				rt.ExitEventLoop(true)
			}
		}
	}()
}
