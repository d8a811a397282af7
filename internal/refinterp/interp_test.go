package refinterp

import (
	"testing"

	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/runtimeimg"
)

func newState(t *testing.T) *runtimeimg.GuestState {
	t.Helper()
	mem, err := runtimeimg.New(4096, 1)
	if err != nil {
		t.Fatalf("runtimeimg.New: %v", err)
	}
	t.Cleanup(func() { _ = mem.Close() })
	return runtimeimg.NewGuestState(mem)
}

// addiProgram builds a tiny one-block program: x1 = x0 + 5, halt.
func addiProgram() *ir.Program {
	prog := ir.NewProgram()
	fn := ir.NewFunction("start", 0x1000)
	fn.Blocks[0x1000] = &ir.Block{
		PC: 0x1000,
		Stmts: []ir.Stmt{
			ir.WriteReg{Reg: 1, Value: ir.Add(ir.ReadReg(0), ir.Imm(5))},
		},
		Term:       ir.Halt{ExitCode: ir.ReadReg(1)},
		InstrCount: 1,
	}
	prog.AddFunction(fn)
	return prog
}

func TestRunSimpleAddiHalts(t *testing.T) {
	prog := addiProgram()
	state := newState(t)
	state.PC = 0x1000

	in := New(prog, state, isa.XLEN64, isa.BaremetalSyscalls())
	code, err := in.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 5 {
		t.Fatalf("exit code = %d, want 5", code)
	}
	if state.Regs[1] != 5 {
		t.Fatalf("x1 = %d, want 5", state.Regs[1])
	}
	if state.Instret != 1 {
		t.Fatalf("instret = %d, want 1", state.Instret)
	}
	if !state.Halted {
		t.Fatalf("expected Halted=true")
	}
}

func TestRunBranchTakesThenTarget(t *testing.T) {
	prog := ir.NewProgram()
	fn := ir.NewFunction("start", 0x1000)
	fn.Blocks[0x1000] = &ir.Block{
		PC:         0x1000,
		Term:       ir.Branch{Cond: ir.CEq, Left: ir.Imm(1), Right: ir.Imm(1), Then: 0x1010, Else: 0x1020},
		InstrCount: 1,
	}
	fn.Blocks[0x1010] = &ir.Block{PC: 0x1010, Term: ir.Halt{ExitCode: ir.Imm(1)}, InstrCount: 1}
	fn.Blocks[0x1020] = &ir.Block{PC: 0x1020, Term: ir.Halt{ExitCode: ir.Imm(2)}, InstrCount: 1}
	prog.AddFunction(fn)

	state := newState(t)
	state.PC = 0x1000
	in := New(prog, state, isa.XLEN64, isa.BaremetalSyscalls())
	code, err := in.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1 (the Then branch)", code)
	}
}

func TestRunExitSyscall(t *testing.T) {
	prog := ir.NewProgram()
	fn := ir.NewFunction("start", 0x1000)
	fn.Blocks[0x1000] = &ir.Block{
		PC: 0x1000,
		Stmts: []ir.Stmt{
			ir.WriteReg{Reg: 17, Value: ir.Imm(93)}, // a7 = exit
			ir.WriteReg{Reg: 10, Value: ir.Imm(7)},  // a0 = exit code
		},
		Term:       ir.Syscall{PC: 0x1000, NextPC: 0x1004},
		InstrCount: 1,
	}
	prog.AddFunction(fn)

	state := newState(t)
	state.PC = 0x1000
	in := New(prog, state, isa.XLEN64, isa.BaremetalSyscalls())
	code, err := in.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}
}

func TestSyscallClearsReservation(t *testing.T) {
	prog := ir.NewProgram()
	fn := ir.NewFunction("start", 0x1000)
	fn.Blocks[0x1000] = &ir.Block{
		PC: 0x1000,
		Stmts: []ir.Stmt{
			ir.ReservationSet{Addr: ir.Imm(0x100)},
			ir.WriteReg{Reg: 17, Value: ir.Imm(64)}, // a7 = write, a resumable shim
		},
		Term:       ir.Syscall{PC: 0x1000, NextPC: 0x1008},
		InstrCount: 2,
	}
	fn.Blocks[0x1008] = &ir.Block{PC: 0x1008, Term: ir.Halt{}, InstrCount: 1}
	prog.AddFunction(fn)

	state := newState(t)
	state.PC = 0x1000
	if _, err := New(prog, state, isa.XLEN64, isa.LinuxSyscalls()).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.ResValid {
		t.Fatalf("expected the syscall to invalidate the LR/SC reservation")
	}
}

func TestIndirectJumpClearsReservation(t *testing.T) {
	prog := ir.NewProgram()
	fn := ir.NewFunction("start", 0x1000)
	fn.Blocks[0x1000] = &ir.Block{
		PC: 0x1000,
		Stmts: []ir.Stmt{
			ir.ReservationSet{Addr: ir.Imm(0x100)},
		},
		Term:       ir.IndirectJump{Target: ir.Imm(0x1008)},
		InstrCount: 1,
	}
	fn.Blocks[0x1008] = &ir.Block{PC: 0x1008, Term: ir.Halt{}, InstrCount: 1}
	prog.AddFunction(fn)

	state := newState(t)
	state.PC = 0x1000
	if _, err := New(prog, state, isa.XLEN64, isa.BaremetalSyscalls()).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.ResValid {
		t.Fatalf("expected the indirect jump to invalidate the LR/SC reservation")
	}
}

func TestStoreThenLoadRoundTrips(t *testing.T) {
	prog := ir.NewProgram()
	fn := ir.NewFunction("start", 0x1000)
	fn.Blocks[0x1000] = &ir.Block{
		PC: 0x1000,
		Stmts: []ir.Stmt{
			ir.StoreMem{Addr: ir.AddrMasked(ir.Imm(0x100), 0), Value: ir.Imm(0x11223344), Width: ir.W32},
			ir.WriteReg{Reg: 5, Value: ir.Load(ir.AddrMasked(ir.Imm(0x100), 0), ir.W32, false)},
		},
		Term:       ir.Halt{ExitCode: ir.ReadReg(5)},
		InstrCount: 2,
	}
	prog.AddFunction(fn)

	state := newState(t)
	state.PC = 0x1000
	in := New(prog, state, isa.XLEN64, isa.BaremetalSyscalls())
	_, err := in.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Regs[5] != 0x11223344 {
		t.Fatalf("x5 = %#x, want 0x11223344", state.Regs[5])
	}
}

func TestDivByZeroFollowsRiscvContract(t *testing.T) {
	cases := []struct {
		name string
		kind ir.ExprKind
		a, b int64
		want int64
	}{
		{"div by zero", ir.EDiv, 7, 0, -1},
		{"rem by zero", ir.ERem, 7, 0, 7},
		{"div overflow", ir.EDiv, -1 << 63, -1, -1 << 63},
		{"rem overflow", ir.ERem, -1 << 63, -1, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := &Interp{Xlen: isa.XLEN64}
			e := &ir.Expr{Kind: c.kind, Left: ir.Imm(c.a), Right: ir.Imm(c.b)}
			got := int64(in.eval(e))
			if got != c.want {
				t.Fatalf("%s: got %d, want %d", c.name, got, c.want)
			}
		})
	}
}

func TestRotateRoundTrips(t *testing.T) {
	in := &Interp{Xlen: isa.XLEN64}
	v := uint64(0x0102030405060708)
	rolled := rotate(v, 8, in.Xlen, true)
	back := rotate(rolled, 8, in.Xlen, false)
	if back != v {
		t.Fatalf("rol then ror = %#x, want %#x", back, v)
	}
}

func TestUnzipInvertsZip(t *testing.T) {
	v := uint32(0xdeadbeef)
	if got := unzip32(zip32(v)); got != v {
		t.Fatalf("unzip(zip(%#x)) = %#x, want %#x", v, got, v)
	}
}
