// Package config holds the translation configuration record that is passed
// explicitly through the pipeline. Nothing in internal/isa, internal/lift,
// internal/cfg or internal/emit reads global state or the process
// environment directly; only this package does, and only at construction
// time, keeping the rest of the pipeline free of global mutable state.
package config

import (
	"github.com/xyproto/env/v2"
)

// Backend selects the emitter used for a compile/lift run.
type Backend string

const (
	BackendC     Backend = "c"
	BackendX86   Backend = "x86"
	BackendARM64 Backend = "arm64"
)

// SyscallTable selects the preset syscall table the runtime contract binds.
type SyscallTable string

const (
	SyscallsBaremetal SyscallTable = "baremetal"
	SyscallsLinux     SyscallTable = "linux"
)

// Config is the single record threaded through Translate. It is immutable
// once constructed by the CLI layer.
type Config struct {
	Backend      Backend
	Syscalls     SyscallTable
	Exports      []string // symbol names seeding CFG discovery beyond the ELF entry
	TracerHeader string   // path to a caller-supplied rv_tracer.h, "" for the stub
	HostCC       string
	HostAS       string
	StrictAMO    bool   // set by --strict-amo / RVR_STRICT_AMO; no emitter reads it, so output is unchanged (see DESIGN.md)
	ReportPath   string // optional gonum/plot metrics report output path
}

// Default returns a Config with the baremetal syscall table and the C
// backend, matching the conservative defaults a freestanding translation
// target needs.
func Default() Config {
	return Config{
		Backend:  BackendC,
		Syscalls: SyscallsBaremetal,
		HostCC:   "cc",
		HostAS:   "as",
	}
}

// FromEnvironment layers process-environment overrides on top of a base
// Config. Reads go through github.com/xyproto/env/v2 rather than raw
// os.Getenv, so every toggle has a single typed entry point.
func FromEnvironment(base Config) Config {
	cfg := base
	cfg.HostCC = env.Str("RVR_CC", cfg.HostCC)
	cfg.HostAS = env.Str("RVR_AS", cfg.HostAS)
	cfg.TracerHeader = env.Str("RVR_TRACER_HEADER", cfg.TracerHeader)
	if env.Str("RVR_STRICT_AMO", "") != "" {
		cfg.StrictAMO = env.Bool("RVR_STRICT_AMO")
	}
	return cfg
}

// RebuildElfs reports whether RVR_REBUILD_ELFS is set. Nothing in this
// repository calls it, and there is no on-disk ELF corpus for it to gate.
func RebuildElfs() bool {
	return env.Bool("RVR_REBUILD_ELFS")
}
