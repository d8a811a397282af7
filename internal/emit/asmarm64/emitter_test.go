package asmarm64

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/regalloc"
)

func testEmitter(buf *bytes.Buffer) *emitter {
	return &emitter{
		w:      bufio.NewWriter(buf),
		blocks: map[uint64]*ir.Block{},
		hot:    regalloc.HotSet(regalloc.BackendARM64),
	}
}

func testProgram() *ir.Program {
	fn := ir.NewFunction("main", 0x1000)
	fn.Blocks[0x1000] = &ir.Block{
		PC: 0x1000,
		Stmts: []ir.Stmt{
			ir.TempAssign{Temp: 0, Value: ir.Add(ir.ReadReg(5), ir.Imm(4)), Width: ir.W64},
			ir.WriteReg{Reg: 10, Value: ir.ReadTemp(0, ir.W64)},
		},
		Term:     ir.Branch{Cond: ir.CLtu, Left: ir.ReadReg(10), Right: ir.Imm(100), Then: 0x1004, Else: 0x1008},
		NumTemps: 1, InstrCount: 2,
	}
	fn.Blocks[0x1004] = &ir.Block{
		PC: 0x1004,
		Stmts: []ir.Stmt{
			ir.StoreMem{Addr: ir.AddrMasked(ir.ReadReg(2), 0), Value: ir.ReadReg(10), Width: ir.W32},
		},
		Term:       ir.Jump{Target: 0x1008},
		InstrCount: 1,
	}
	fn.Blocks[0x1008] = &ir.Block{
		PC:         0x1008,
		Term:       ir.Halt{},
		InstrCount: 1,
	}
	prog := ir.NewProgram()
	prog.AddFunction(fn)
	return prog
}

func emitTestProgram(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	cfg := Config{TextStart: 0x1000, TextEnd: 0x100c, MemWindow: 1 << 20}
	if err := EmitProgram(&buf, testProgram(), isa.XLEN64, cfg); err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}
	return buf.String()
}

func TestEmitProgramPreludeAndLabels(t *testing.T) {
	out := emitTestProgram(t)
	for _, want := range []string{
		".arch armv8-a",
		".global rv_asm_run",
		".set PC_OFFSET, 256",
		".set MEMORY_OFFSET, 304",
		"asm_pc_1000:",
		"asm_pc_1004:",
		"asm_pc_1008:",
		"asm_exit:",
		"asm_trap:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestEmitProgramPinsHotRegisters(t *testing.T) {
	out := emitTestProgram(t)
	// x10 is pinned, so the WriteReg lands in its host register; x5 is cold
	// and goes through the state record at offset 40.
	if !strings.Contains(out, "mov x24, x0") {
		t.Errorf("WriteReg x10 should target its pinned host register")
	}
	if !strings.Contains(out, "ldr x0, [x19, #40]") {
		t.Errorf("ReadReg x5 should load from the state record")
	}
}

func TestEmitProgramStoreDelegatesToHelper(t *testing.T) {
	out := emitTestProgram(t)
	if !strings.Contains(out, "bl rv_store32") {
		t.Fatalf("word store should call the companion runtime helper")
	}
	// A word store can hit the HTIF mailbox and halt the guest. The check
	// keeps the branch to asm_exit unconditional so range never binds.
	if !strings.Contains(out, "ldr w1, [x19, #HALTED_OFFSET]") {
		t.Errorf("word store should re-check the halted flag")
	}
	if !strings.Contains(out, "b asm_exit") {
		t.Errorf("halted check should branch to asm_exit")
	}
}

func TestEmitProgramBranchAndMask(t *testing.T) {
	out := emitTestProgram(t)
	// The CLtu branch inverts to b.hs around a local skip, then both edges
	// are unconditional branches.
	if !strings.Contains(out, "b.hs .Lbr_else") {
		t.Errorf("unsigned branch should invert to b.hs over a local skip")
	}
	if !strings.Contains(out, "b asm_pc_1004") {
		t.Errorf("taken edge should be an unconditional b")
	}
	if !strings.Contains(out, "b asm_pc_1008") {
		t.Errorf("fallthrough edge should be an explicit b")
	}
	if !strings.Contains(out, "and x0, x0, #0xfffff") {
		t.Errorf("address should be masked to the memory window")
	}
}

func TestEmitProgramJumpTableIsDense(t *testing.T) {
	out := emitTestProgram(t)
	// One entry per 2-byte slot over [0x1000, 0x100c).
	if got := strings.Count(out, ".word "); got != 6 {
		t.Fatalf("jump table entries = %d, want 6", got)
	}
	if !strings.Contains(out, ".word asm_pc_1004 - jump_table") {
		t.Errorf("discovered block missing from jump table")
	}
	if !strings.Contains(out, ".word asm_trap - jump_table") {
		t.Errorf("undiscovered slots should resolve to asm_trap")
	}
}

func TestEmitProgramFrameStaysAligned(t *testing.T) {
	out := emitTestProgram(t)
	// One temp rounds up to a 16-byte frame below the six saved pairs.
	if !strings.Contains(out, "sub sp, sp, #16") {
		t.Errorf("prologue should reserve a 16-byte temp frame")
	}
	if !strings.Contains(out, "add sp, sp, #16") {
		t.Errorf("epilogue should release the temp frame")
	}
	if !strings.Contains(out, "stp x29, x30, [sp, #-16]!") {
		t.Errorf("prologue should save the frame pair")
	}
	if !strings.Contains(out, "ldp x29, x30, [sp], #16") {
		t.Errorf("epilogue should restore the frame pair")
	}
}

func TestEvalBinopStackDiscipline(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.eval(ir.Add(ir.ReadReg(5), ir.ReadReg(6)))
	e.w.Flush()
	out := buf.String()
	for _, want := range []string{"str x0, [sp, #-16]!", "ldr x0, [sp], #16", "add x0, x0, x1"} {
		if !strings.Contains(out, want) {
			t.Errorf("binop lowering missing %q in %q", want, out)
		}
	}
	if e.pushDepth != 0 {
		t.Fatalf("pushDepth = %d after eval, want 0", e.pushDepth)
	}
}

func TestEvalDivCallsHelper(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.eval(ir.Div(ir.ReadReg(5), ir.ReadReg(6)))
	e.w.Flush()
	if !strings.Contains(buf.String(), "bl rv_div64") {
		t.Fatalf("signed division should call rv_div64: %q", buf.String())
	}
}

func TestEvalVariableShiftSpillsLeft(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.eval(ir.Sll(ir.ReadReg(5), ir.ReadReg(6)))
	e.w.Flush()
	out := buf.String()
	// The left operand is spilled before the count is evaluated, then the
	// register-count shift form consumes both.
	pushAt := strings.Index(out, "str x0, [sp, #-16]!")
	shiftAt := strings.Index(out, "lsl x0, x0, x1")
	if pushAt < 0 || shiftAt < 0 || pushAt > shiftAt {
		t.Fatalf("shift should spill the left operand before the count: %q", out)
	}
}

func TestEvalWideImmediateUsesShiftedMovz(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.eval(ir.Imm(0x1_0000_0000))
	e.w.Flush()
	if !strings.Contains(buf.String(), "movz x0, #0x1, lsl #32") {
		t.Fatalf("wide immediate should build with a shifted movz: %q", buf.String())
	}
}

func TestEvalNegativeImmediateUsesMovn(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.eval(ir.Imm(-2))
	e.w.Flush()
	if !strings.Contains(buf.String(), "movn x0, #0x1") {
		t.Fatalf("small negative immediate should use movn: %q", buf.String())
	}
}

func TestEvalWOpSignExtends(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.eval(ir.AddW(ir.ReadReg(5), ir.ReadReg(6)))
	e.w.Flush()
	out := buf.String()
	if !strings.Contains(out, "add w0, w0, w1") || !strings.Contains(out, "sxtw x0, w0") {
		t.Fatalf("32-bit op should compute in 32 bits and sign-extend: %q", out)
	}
}

func TestEvalCompareUsesCset(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.eval(ir.Ltu(ir.ReadReg(5), ir.ReadReg(6)))
	e.w.Flush()
	if !strings.Contains(buf.String(), "cset x0, lo") {
		t.Fatalf("unsigned compare should materialize with cset lo: %q", buf.String())
	}
}

func TestEvalMulhsuUsesCsel(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.eval(ir.MulHSU(ir.ReadReg(5), ir.ReadReg(6)))
	e.w.Flush()
	out := buf.String()
	if !strings.Contains(out, "umulh x2, x0, x1") || !strings.Contains(out, "csel x0, x1, x2, lt") {
		t.Fatalf("mulhsu should correct the unsigned high product with csel: %q", out)
	}
}

func TestStmtTraceHookEmitsNothing(t *testing.T) {
	var buf bytes.Buffer
	e := testEmitter(&buf)
	e.stmt(ir.TraceHook{Kind: "rv_trace_pc", Args: []*ir.Expr{ir.Imm(0x1000)}})
	e.w.Flush()
	if buf.Len() != 0 {
		t.Fatalf("trace hooks have no assembly lowering, got %q", buf.String())
	}
}

func TestCondCodeTable(t *testing.T) {
	cases := []struct {
		cond ir.Cond
		want string
	}{
		{ir.CEq, "eq"},
		{ir.CNe, "ne"},
		{ir.CLt, "lt"},
		{ir.CGe, "ge"},
		{ir.CLtu, "lo"},
		{ir.CGeu, "hs"},
	}
	for _, c := range cases {
		if got := condCode(c.cond); got != c.want {
			t.Errorf("condCode(%v) = %q, want %q", c.cond, got, c.want)
		}
	}
}
