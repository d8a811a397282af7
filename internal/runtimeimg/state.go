package runtimeimg

// GuestState is the Go-side model of the guest-state record the emitted C
// and assembly define: the register file, PC, LR/SC
// reservation pair, the handful of supported CSR scratch slots, and a
// pointer to the memory image. It is not laid out like rv_tracer.h's
// `struct rv_state`; that struct's offsets come from internal/emit/layout,
// and internal/hostlib's cgo State mirrors them. internal/refinterp runs
// against GuestState, so a reference run and an emitted-library run can be
// compared value for value.
type GuestState struct {
	Regs       [32]uint64
	PC         uint64
	ResAddr    uint64
	ResValid   bool
	Csr        map[uint16]uint64
	Instret    uint64
	Cycle      uint64
	Mem        *Image
	ExitCode   int32
	Halted     bool
	LastTrapPC uint64

	// HTIF tohost mailbox, when the input binary declares one: a word or
	// doubleword store to TohostAddr halts the guest, mapping a stored 1 to
	// exit code 0 and surfacing any other value verbatim.
	TohostAddr uint64
	HasTohost  bool
}

// NewGuestState returns a zeroed guest state bound to mem, with a PC of 0
// and an invalid reservation, per the reservation state machine's initial
// state.
func NewGuestState(mem *Image) *GuestState {
	return &GuestState{Csr: map[uint16]uint64{}, Mem: mem}
}

// WriteReg writes reg, silently discarding writes to x0. The lift layer
// already drops x0 destinations, but a reference interpreter driven
// straight off IR should not depend on upstream lowering never slipping.
func (s *GuestState) WriteReg(reg uint8, v uint64) {
	if reg == 0 {
		return
	}
	s.Regs[reg] = v
}

// ReadReg reads reg; x0 always reads as zero.
func (s *GuestState) ReadReg(reg uint8) uint64 {
	if reg == 0 {
		return 0
	}
	return s.Regs[reg]
}

// SetReservation records an LR outcome.
func (s *GuestState) SetReservation(addr uint64) {
	s.ResAddr = addr
	s.ResValid = true
}

// ClearReservation invalidates the reservation. Fired on SC, on aliasing
// stores, and on context-changing terminators.
func (s *GuestState) ClearReservation() {
	s.ResValid = false
}
