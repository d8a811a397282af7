package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shuklaayush/rvr/internal/config"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range []string{"lift", "compile", "run", "inspect"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to exist", name)
		}
	}
}

func TestPersistentFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range []string{"backend", "syscalls", "export", "tracer-header", "report", "strict-amo", "verbose"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag --%s to exist", name)
		}
	}
}

func TestCliConfigMapsFlags(t *testing.T) {
	flagBackend = "arm64"
	flagSyscalls = "linux"
	flagExports = []string{"fib", "memcpy"}
	flagStrictAMO = true
	defer func() {
		flagBackend = "c"
		flagSyscalls = "baremetal"
		flagExports = nil
		flagStrictAMO = false
	}()

	cfg := cliConfig()
	if cfg.Backend != config.BackendARM64 {
		t.Errorf("Backend = %q, want arm64", cfg.Backend)
	}
	if cfg.Syscalls != config.SyscallsLinux {
		t.Errorf("Syscalls = %q, want linux", cfg.Syscalls)
	}
	if len(cfg.Exports) != 2 || cfg.Exports[0] != "fib" {
		t.Errorf("Exports = %v, want [fib memcpy]", cfg.Exports)
	}
	if !cfg.StrictAMO {
		t.Error("StrictAMO should carry through")
	}
}

func TestGuestExitRoundTripsThroughErrorsAs(t *testing.T) {
	err := error(&guestExit{code: 42})
	var exit *guestExit
	if !errors.As(err, &exit) || exit.code != 42 {
		t.Fatalf("guestExit should round-trip through errors.As, got %v", err)
	}
}

func TestLiftRejectsMissingInput(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"lift", "--out-dir", t.TempDir(), "/nonexistent/guest.elf"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}
