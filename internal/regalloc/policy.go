// Package regalloc implements a fixed, non-inferential register
// allocation policy: no liveness analysis, no graph coloring. A small,
// backend-specific "hot set" of guest registers is pinned to host
// registers across block boundaries; everything else is loaded and stored
// around each use through the guest-state record, and IR temps get fixed
// stack slots distinct from whatever spill slots the backend itself needs
// for its own working values.
package regalloc

// Backend names a target whose hot-set mapping differs from the others'.
type Backend string

const (
	BackendX86   Backend = "x86-64"
	BackendARM64 Backend = "aarch64"
)

// Slot describes one guest register's placement: either pinned to a host
// register for the lifetime of a function (Host != ""), or resident in the
// guest-state record and loaded/stored around each access (Host == "").
type Slot struct {
	GuestReg uint8
	Host     string
}

// x0 is never a Slot target: it is a constant folded at the IR boundary and
// never occupies a register or a state-record cell.

// hotGuestRegs is the guest-register membership of the hot set, independent
// of backend: ra(x1), sp(x2), gp(x3), and the ABI argument/return
// registers a0..(x10..) in priority order, the registers compiled guest
// code touches most. The asm backends trim this list to however many host
// registers they can spare once the state and memory pointers claim theirs.
var hotGuestRegs = []uint8{1, 2, 3, 10, 11, 12, 13, 14, 15, 16, 17}

// x86-64 host registers available for pinning once %rbx holds the state
// pointer, %r15 the memory base, and %rax/%rcx/%rdx stay scratch for
// mul/div/shift sequences (shifts consume CL). Callee-saved first.
var x86HotHosts = []string{"%r14", "%r13", "%r12", "%rbp", "%rdi", "%rsi", "%r9", "%r8"}

// x86StatePtr is the register the x86-64 backend pins the guest-state
// pointer to for the lifetime of a translated function.
const x86StatePtr = "%rbx"

// x86MemPtr holds the guest memory base across the whole function.
const x86MemPtr = "%r15"

// AArch64 callee-saved registers available once x19 holds the state
// pointer, x20 the memory base, and x0-x2 stay scratch.
var arm64HotHosts = []string{"x21", "x22", "x23", "x24", "x25", "x26", "x27", "x28"}

// arm64StatePtr is the register the AArch64 backend pins the guest-state
// pointer to.
const arm64StatePtr = "x19"

// arm64MemPtr holds the guest memory base across the whole function.
const arm64MemPtr = "x20"

// HotSet returns the pinned-register mapping for backend, in a stable
// order. Each backend pins the highest-priority prefix of hotGuestRegs
// that its spare host registers can hold. Only the asm backends are
// mapped: the C tier renders every register access as a state-record
// field and leaves promotion to the host C compiler's own allocator, so
// it has no hot set to consult.
func HotSet(backend Backend) []Slot {
	switch backend {
	case BackendX86:
		return zip(hotGuestRegs, x86HotHosts)
	case BackendARM64:
		return zip(hotGuestRegs, arm64HotHosts)
	default:
		return nil
	}
}

// StatePointer returns the host register holding the guest-state pointer
// for the duration of a translated function, for the given backend.
func StatePointer(backend Backend) string {
	switch backend {
	case BackendX86:
		return x86StatePtr
	case BackendARM64:
		return arm64StatePtr
	default:
		return ""
	}
}

// MemPointer returns the host register holding the guest memory base for
// the duration of a translated function, for the given backend.
func MemPointer(backend Backend) string {
	switch backend {
	case BackendX86:
		return x86MemPtr
	case BackendARM64:
		return arm64MemPtr
	default:
		return ""
	}
}

// IsHot reports whether guestReg is in the hot set for backend, and if so,
// the host register it is pinned to.
func IsHot(backend Backend, guestReg uint8) (string, bool) {
	for _, s := range HotSet(backend) {
		if s.GuestReg == guestReg {
			return s.Host, true
		}
	}
	return "", false
}

func zip(regs []uint8, hosts []string) []Slot {
	n := len(regs)
	if len(hosts) < n {
		n = len(hosts)
	}
	slots := make([]Slot, n)
	for i := 0; i < n; i++ {
		slots[i] = Slot{GuestReg: regs[i], Host: hosts[i]}
	}
	return slots
}
