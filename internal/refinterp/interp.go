// Package refinterp is a pure-Go reference interpreter over the lifted IR.
// It emits no host code and exists so tests can cross-check the translator's
// own semantics (instret counts, register writes, trap behavior) against
// what an emitted library would do, without needing a host C/asm toolchain
// in the test run. It walks ir.Stmt/ir.Terminator trees directly instead
// of re-decoding instruction bytes on every step.
package refinterp

import (
	"fmt"

	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/runtimeimg"
	"github.com/shuklaayush/rvr/internal/rvrerr"
)

// Tracer receives the same observability events the emitted C/asm tracer
// hooks would fire, so a reference run and an emitted-library run can be
// compared trace for trace.
type Tracer interface {
	TraceInstr(pc uint64)
	TraceRegWrite(reg uint8, value uint64)
}

// NopTracer discards every event; New installs it as the default Tracer.
type NopTracer struct{}

func (NopTracer) TraceInstr(uint64)           {}
func (NopTracer) TraceRegWrite(uint8, uint64) {}

// Interp runs a lifted ir.Program block by block against a GuestState.
type Interp struct {
	Prog     *ir.Program
	State    *runtimeimg.GuestState
	Xlen     isa.Xlen
	Syscalls map[int64]isa.SyscallEntry
	Tracer   Tracer

	blocks map[uint64]*ir.Block
	temps  []uint64
	curPC  uint64
}

// New indexes every block of prog by PC and returns an Interp ready to Run
// from state.PC.
func New(prog *ir.Program, state *runtimeimg.GuestState, xlen isa.Xlen, syscalls map[int64]isa.SyscallEntry) *Interp {
	blocks := map[uint64]*ir.Block{}
	for _, fn := range prog.Functions {
		for pc, b := range fn.Blocks {
			blocks[pc] = b
		}
	}
	return &Interp{
		Prog:     prog,
		State:    state,
		Xlen:     xlen,
		Syscalls: syscalls,
		Tracer:   NopTracer{},
		blocks:   blocks,
	}
}

// Run executes from State.PC until a Halt terminator, an Exit syscall, or an
// unrecoverable trap, returning the guest exit code.
func (in *Interp) Run() (int32, error) {
	for {
		block, ok := in.blocks[in.State.PC]
		if !ok {
			return 0, rvrerr.GuestTrap(in.State.PC, -1)
		}
		in.curPC = block.PC
		if cap(in.temps) < 256 {
			in.temps = make([]uint64, 256)
		}

		for _, s := range block.Stmts {
			in.exec(s)
			if in.State.Halted {
				break
			}
		}
		in.State.Instret += uint64(block.InstrCount)
		in.State.Cycle += uint64(block.InstrCount)
		if in.State.Halted {
			// An HTIF tohost store halted the guest mid-block; the
			// terminator never runs.
			return in.State.ExitCode, nil
		}

		switch t := block.Term.(type) {
		case ir.Jump:
			in.State.PC = t.Target

		case ir.Branch:
			if in.evalCond(t.Cond, t.Left, t.Right) {
				in.State.PC = t.Then
			} else {
				in.State.PC = t.Else
			}

		case ir.IndirectJump:
			in.State.ClearReservation()
			target := in.eval(t.Target)
			if _, ok := in.blocks[target]; !ok {
				return 0, rvrerr.GuestTrap(block.PC, -1)
			}
			in.State.PC = target

		case ir.Syscall:
			in.State.ClearReservation()
			exit, halted, err := in.syscall(t)
			if err != nil {
				return 0, err
			}
			if halted {
				in.State.Halted = true
				in.State.ExitCode = exit
				return exit, nil
			}
			in.State.PC = t.NextPC

		case ir.Break:
			in.State.ClearReservation()
			in.State.LastTrapPC = t.PC
			return 0, rvrerr.GuestTrap(t.PC, -1)

		case ir.Halt:
			in.State.ClearReservation()
			code := int32(0)
			if t.ExitCode != nil {
				code = int32(in.eval(t.ExitCode))
			}
			in.State.Halted = true
			in.State.ExitCode = code
			return code, nil

		default:
			return 0, fmt.Errorf("refinterp: unhandled terminator %T", t)
		}
	}
}

// syscall dispatches an ECALL against the active table.
// It only models Exit directly; named entries are not performed and
// execution resumes at NextPC with no register changed, since refinterp has
// no host file descriptors or clock to back rv_sys_read/write/gettimeofday with.
func (in *Interp) syscall(t ir.Syscall) (int32, bool, error) {
	a7 := int64(in.State.ReadReg(17))
	entry := isa.LookupSyscall(in.Syscalls, a7)
	switch entry.Kind {
	case isa.SyscallExit:
		return int32(in.State.ReadReg(10)), true, nil
	case isa.SyscallUnknown:
		return 0, false, rvrerr.GuestTrap(t.PC, a7)
	default:
		return 0, false, nil
	}
}

func (in *Interp) evalCond(c ir.Cond, l, r *ir.Expr) bool {
	lv, rv := in.eval(l), in.eval(r)
	switch c {
	case ir.CEq:
		return lv == rv
	case ir.CNe:
		return lv != rv
	case ir.CLt:
		return int64(lv) < int64(rv)
	case ir.CGe:
		return int64(lv) >= int64(rv)
	case ir.CLtu:
		return lv < rv
	case ir.CGeu:
		return lv >= rv
	default:
		return false
	}
}
