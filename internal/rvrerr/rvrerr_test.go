package rvrerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("lift block: %w", IllegalInstruction(0x1000, []byte{0, 0}))
	if !errors.Is(err, ErrIllegalInstruction) {
		t.Fatalf("wrapped error lost its sentinel: %v", err)
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ElfInvalid("bad magic"), 2},
		{UnsupportedExtension(0x1000, 0x0200000f), 3},
		{IllegalInstruction(0x1000, []byte{0xff}), 4},
		{CfgUnresolved(0x1000), 5},
		{ToolchainFailure("cc", "boom"), 6},
		{GuestTrap(0x1000, 999), 7},
		{errors.New("anything else"), 1},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestMessagesCarryLocation(t *testing.T) {
	err := CfgUnresolved(0xdead)
	if got := err.Error(); got != "pc=0xdead: cfg unresolved" {
		t.Errorf("message = %q", got)
	}
}
