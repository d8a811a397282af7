// Package rvrerr defines the translator's error taxonomy.
//
// Every kind below is a sentinel error wrapped with PC/byte context via
// fmt.Errorf's %w verb, so callers can use errors.Is against the sentinels
// while still getting a message that carries the offending location.
package rvrerr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Compare with errors.Is, never with ==.
var (
	ErrElfInvalid            = errors.New("elf invalid")
	ErrUnsupportedExtension  = errors.New("unsupported extension")
	ErrIllegalInstruction    = errors.New("illegal instruction")
	ErrCfgUnresolved         = errors.New("cfg unresolved")
	ErrToolchainFailure      = errors.New("toolchain failure")
	ErrGuestTrap             = errors.New("guest trap")
)

// ElfInvalid reports a malformed or unsupported ELF container.
func ElfInvalid(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrElfInvalid)
}

// UnsupportedExtension reports an opcode that belongs to an extension the
// active registry did not admit.
func UnsupportedExtension(pc uint64, word uint32) error {
	return fmt.Errorf("pc=0x%x word=0x%08x: %w", pc, word, ErrUnsupportedExtension)
}

// IllegalInstruction reports bytes that decode to no known pattern at any
// accepted extension.
func IllegalInstruction(pc uint64, bytes []byte) error {
	return fmt.Errorf("pc=0x%x bytes=% x: %w", pc, bytes, ErrIllegalInstruction)
}

// CfgUnresolved reports an indirect jump with no recoverable target set and
// no catch-all dispatch table configured.
func CfgUnresolved(pc uint64) error {
	return fmt.Errorf("pc=0x%x: %w", pc, ErrCfgUnresolved)
}

// ToolchainFailure wraps the host compiler/assembler's own stderr verbatim.
func ToolchainFailure(tool string, stderr string) error {
	return fmt.Errorf("%s failed: %s: %w", tool, stderr, ErrToolchainFailure)
}

// GuestTrap reports a runtime EBREAK or unknown syscall.
func GuestTrap(pc uint64, syscallNum int64) error {
	return fmt.Errorf("pc=0x%x syscall=%d: %w", pc, syscallNum, ErrGuestTrap)
}

// ExitCode maps an error produced by this package to the process exit
// code the CLI should surface, so exit codes carry the decoded failure
// class. Unrecognized errors map to a generic 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrElfInvalid):
		return 2
	case errors.Is(err, ErrUnsupportedExtension):
		return 3
	case errors.Is(err, ErrIllegalInstruction):
		return 4
	case errors.Is(err, ErrCfgUnresolved):
		return 5
	case errors.Is(err, ErrToolchainFailure):
		return 6
	case errors.Is(err, ErrGuestTrap):
		return 7
	default:
		return 1
	}
}
