package fiber

import (
	"fmt"
	"os/user"
	"strconv"

	"github.com/spf13/pflag"
)

// ProcessOptions are the privilege-drop flags a fiber-based daemon typically
// exposes: --uid/--user and --gid/--group, applied once at startup before
// the Runtime's event loop begins.
type ProcessOptions struct {
	UID string
	GID string
}

// RegisterProcessFlags registers --uid/--user and --gid/--group onto fs,
// writing parsed results into opts. Call fs.Parse afterward.
func RegisterProcessFlags(fs *pflag.FlagSet, opts *ProcessOptions) {
	fs.StringVar(&opts.UID, "uid", "", "drop privileges to this uid or user name after startup")
	fs.StringVar(&opts.UID, "user", "", "alias for --uid")
	fs.StringVar(&opts.GID, "gid", "", "drop privileges to this gid or group name after startup")
	fs.StringVar(&opts.GID, "group", "", "alias for --gid")
}

// ApplyProcessOptions drops privileges per opts, dropping gid before uid so
// the process still holds CAP_SETUID while dropping the group (on
// platforms that have that distinction at all). It is a no-op if both
// opts.UID and opts.GID are empty. Call it once at startup, after
// RegisterProcessFlags/fs.Parse have populated opts and before
// [Runtime.RunEventLoop].
func ApplyProcessOptions(opts ProcessOptions) error {
	return applyProcessOptions(opts)
}

// ResolveUID resolves s, which may already be a numeric uid or a user name,
// to a numeric uid.
func ResolveUID(s string) (int, error) {
	if s == "" {
		return -1, nil
	}
	if uid, err := strconv.Atoi(s); err == nil {
		return uid, nil
	}
	u, err := user.Lookup(s)
	if err != nil {
		return -1, fmt.Errorf("fiber: resolve uid %q: %w", s, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return -1, fmt.Errorf("fiber: user %q has non-numeric uid %q", s, u.Uid)
	}
	return uid, nil
}

// ResolveGID resolves s, which may already be a numeric gid or a group
// name, to a numeric gid.
func ResolveGID(s string) (int, error) {
	if s == "" {
		return -1, nil
	}
	if gid, err := strconv.Atoi(s); err == nil {
		return gid, nil
	}
	g, err := user.LookupGroup(s)
	if err != nil {
		return -1, fmt.Errorf("fiber: resolve gid %q: %w", s, err)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return -1, fmt.Errorf("fiber: group %q has non-numeric gid %q", s, g.Gid)
	}
	return gid, nil
}
