package refinterp

import (
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

// exec performs one Stmt's side effect against the guest state.
func (in *Interp) exec(s ir.Stmt) {
	switch st := s.(type) {
	case ir.WriteReg:
		if ir.IsRegZeroNoop(st) {
			return
		}
		v := in.eval(st.Value)
		in.State.WriteReg(st.Reg, v)
		in.Tracer.TraceRegWrite(st.Reg, v)

	case ir.WriteCsr:
		if !isa.ReadOnly(st.Csr) {
			in.State.Csr[st.Csr] = in.eval(st.Value)
		}

	case ir.TempAssign:
		in.temps[st.Temp] = in.eval(st.Value)

	case ir.StoreMem:
		addr := in.eval(st.Addr)
		in.writeMem(addr, in.eval(st.Value), st.Width)

	case ir.CondStoreMem:
		if in.eval(st.Cond) != 0 {
			addr := in.eval(st.Addr)
			in.writeMem(addr, in.eval(st.Value), st.Width)
		}

	case ir.ReservationSet:
		in.State.SetReservation(in.eval(st.Addr))

	case ir.ReservationClear:
		in.State.ClearReservation()

	case ir.TraceHook:
		// Only the two hooks Tracer models are forwarded; register writes
		// are already reported by the WriteReg case above, so the
		// rv_trace_reg_write hook is dropped here to avoid double counting.
		if st.Kind == "rv_trace_pc" && len(st.Args) == 1 {
			in.Tracer.TraceInstr(in.eval(st.Args[0]))
		}
	}
}

// writeMem commits a store: any store conservatively invalidates the LR/SC
// reservation (the same tightening the emitted runtime applies), and
// word/doubleword stores to a declared HTIF tohost mailbox halt the guest
// with the written value's exit mapping instead of touching memory.
func (in *Interp) writeMem(addr, value uint64, w ir.Width) {
	in.State.ClearReservation()
	if in.State.HasTohost && w >= ir.W32 &&
		in.State.Mem.Mask(addr) == in.State.Mem.Mask(in.State.TohostAddr) {
		if value == 1 {
			in.State.ExitCode = 0
		} else {
			in.State.ExitCode = int32(value)
		}
		in.State.Halted = true
		return
	}
	n := int(w) / 8
	off := in.State.Mem.Mask(addr)
	buf := in.State.Mem.Bytes()
	for i := 0; i < n; i++ {
		buf[off+uint64(i)] = byte(value >> (8 * i))
	}
}

func (in *Interp) readMem(addr uint64, w ir.Width, signed bool) uint64 {
	n := int(w) / 8
	off := in.State.Mem.Mask(addr)
	buf := in.State.Mem.Bytes()
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(buf[off+uint64(i)]) << (8 * i)
	}
	if signed {
		shift := 64 - uint(w)
		return uint64(int64(v<<shift) >> shift)
	}
	return v
}
