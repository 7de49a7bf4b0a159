package fiber

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestRegisterProcessFlagsParsesUidGidAliases(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var opts ProcessOptions
	RegisterProcessFlags(fs, &opts)

	if err := fs.Parse([]string{"--user", "1000", "--group", "1000"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if opts.UID != "1000" || opts.GID != "1000" {
		t.Fatalf("got UID=%q GID=%q, want both 1000", opts.UID, opts.GID)
	}
}

func TestResolveUIDGIDAcceptNumericInput(t *testing.T) {
	uid, err := ResolveUID("0")
	if err != nil || uid != 0 {
		t.Fatalf("ResolveUID(0) = %d, %v", uid, err)
	}
	gid, err := ResolveGID("0")
	if err != nil || gid != 0 {
		t.Fatalf("ResolveGID(0) = %d, %v", gid, err)
	}
	if uid, err := ResolveUID(""); err != nil || uid != -1 {
		t.Fatalf("ResolveUID(\"\") = %d, %v, want -1, nil", uid, err)
	}
}

func TestApplyProcessOptionsNoopWhenEmpty(t *testing.T) {
	if err := ApplyProcessOptions(ProcessOptions{}); err != nil {
		t.Fatalf("ApplyProcessOptions(empty) = %v, want nil", err)
	}
}

func TestNewRuntimeAppliesProcessOptions(t *testing.T) {
	cfg := DefaultConfig()
	// Left empty: this just confirms NewRuntime reaches ApplyProcessOptions
	// without failing the common case where no privilege drop was
	// requested; an actual uid/gid switch needs root and is exercised by
	// ApplyProcessOptions directly, not by constructing a Runtime.
	rt := NewRuntime(cfg)
	if rt == nil {
		t.Fatal("NewRuntime returned nil")
	}
	rt.ExitEventLoop(false)
}
