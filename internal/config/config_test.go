package config

import "testing"

func TestDefaultIsBaremetalC(t *testing.T) {
	cfg := Default()
	if cfg.Backend != BackendC {
		t.Errorf("Backend = %q, want c", cfg.Backend)
	}
	if cfg.Syscalls != SyscallsBaremetal {
		t.Errorf("Syscalls = %q, want baremetal", cfg.Syscalls)
	}
	if cfg.HostCC != "cc" || cfg.HostAS != "as" {
		t.Errorf("host tools = %q/%q, want cc/as", cfg.HostCC, cfg.HostAS)
	}
}

func TestFromEnvironmentOverridesTools(t *testing.T) {
	t.Setenv("RVR_CC", "clang")
	t.Setenv("RVR_AS", "llvm-as")
	t.Setenv("RVR_TRACER_HEADER", "/tmp/tracer.h")
	t.Setenv("RVR_STRICT_AMO", "1")

	cfg := FromEnvironment(Default())
	if cfg.HostCC != "clang" {
		t.Errorf("HostCC = %q, want clang", cfg.HostCC)
	}
	if cfg.HostAS != "llvm-as" {
		t.Errorf("HostAS = %q, want llvm-as", cfg.HostAS)
	}
	if cfg.TracerHeader != "/tmp/tracer.h" {
		t.Errorf("TracerHeader = %q", cfg.TracerHeader)
	}
	if !cfg.StrictAMO {
		t.Error("StrictAMO should be set")
	}
}

func TestFromEnvironmentKeepsBaseWhenUnset(t *testing.T) {
	t.Setenv("RVR_CC", "")
	base := Default()
	base.HostCC = "riscv-host-cc"
	if got := FromEnvironment(base).HostCC; got != "riscv-host-cc" {
		t.Errorf("HostCC = %q, want the base value preserved", got)
	}
}
