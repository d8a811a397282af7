package lift

import (
	"testing"

	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

func lastWriteReg(stmts []ir.Stmt, reg uint8) (*ir.Expr, bool) {
	for i := len(stmts) - 1; i >= 0; i-- {
		if w, ok := stmts[i].(ir.WriteReg); ok && w.Reg == reg {
			return w.Value, true
		}
	}
	return nil, false
}

func TestAddiWritesRd(t *testing.T) {
	b := NewBuilder()
	in := isa.Instr{Op: isa.OpADDI, PC: 0x1000, Size: 4, Rd: 5, Rs1: 6, Imm: 3}
	res, err := Lift(b, in, isa.XLEN64)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	if res.Term != nil {
		t.Fatalf("ADDI must not terminate its block, got %T", res.Term)
	}
	if _, ok := lastWriteReg(b.Stmts(), 5); !ok {
		t.Fatalf("expected a WriteReg to x5")
	}
}

func TestAddiToX0IsDropped(t *testing.T) {
	b := NewBuilder()
	in := isa.Instr{Op: isa.OpADDI, PC: 0x1000, Size: 4, Rd: 0, Rs1: 6, Imm: 3}
	if _, err := Lift(b, in, isa.XLEN64); err != nil {
		t.Fatalf("Lift: %v", err)
	}
	if len(b.Stmts()) != 0 {
		t.Fatalf("expected no statements for a write to x0, got %d", len(b.Stmts()))
	}
}

func TestJalWritesLinkAndJumps(t *testing.T) {
	b := NewBuilder()
	in := isa.Instr{Op: isa.OpJAL, PC: 0x2000, Size: 4, Rd: 1, Imm: 0x100}
	res, err := Lift(b, in, isa.XLEN64)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	jmp, ok := res.Term.(ir.Jump)
	if !ok {
		t.Fatalf("expected a Jump terminator, got %T", res.Term)
	}
	if jmp.Target != 0x2100 {
		t.Fatalf("jump target = %#x, want 0x2100", jmp.Target)
	}
	if _, ok := lastWriteReg(b.Stmts(), 1); !ok {
		t.Fatalf("expected JAL to write the link register")
	}
}

func TestJalrProducesIndirectJump(t *testing.T) {
	b := NewBuilder()
	in := isa.Instr{Op: isa.OpJALR, PC: 0x2000, Size: 4, Rd: 0, Rs1: 5, Imm: 4}
	res, err := Lift(b, in, isa.XLEN64)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	if _, ok := res.Term.(ir.IndirectJump); !ok {
		t.Fatalf("expected an IndirectJump terminator, got %T", res.Term)
	}
}

func TestBeqProducesBranch(t *testing.T) {
	b := NewBuilder()
	in := isa.Instr{Op: isa.OpBEQ, PC: 0x3000, Size: 4, Rs1: 1, Rs2: 2, Imm: 0x20}
	res, err := Lift(b, in, isa.XLEN64)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	br, ok := res.Term.(ir.Branch)
	if !ok {
		t.Fatalf("expected a Branch terminator, got %T", res.Term)
	}
	if br.Cond != ir.CEq {
		t.Fatalf("cond = %v, want CEq", br.Cond)
	}
	if br.Then != 0x3020 || br.Else != 0x3004 {
		t.Fatalf("then/else = %#x/%#x, want 0x3020/0x3004", br.Then, br.Else)
	}
}

func TestLoadStoreRoundTrip(t *testing.T) {
	b := NewBuilder()
	store := isa.Instr{Op: isa.OpSW, PC: 0x4000, Size: 4, Rs1: 2, Rs2: 3, Imm: 8}
	if _, err := Lift(b, store, isa.XLEN64); err != nil {
		t.Fatalf("Lift store: %v", err)
	}
	foundStore := false
	foundClear := false
	for _, s := range b.Stmts() {
		switch s.(type) {
		case ir.StoreMem:
			foundStore = true
		case ir.ReservationClear:
			foundClear = true
		}
	}
	if !foundStore {
		t.Fatalf("expected a StoreMem statement for SW")
	}
	if !foundClear {
		t.Fatalf("expected SW to clear any live LR/SC reservation")
	}

	load := isa.Instr{Op: isa.OpLW, PC: 0x4004, Size: 4, Rd: 4, Rs1: 2, Imm: 8}
	if _, err := Lift(b, load, isa.XLEN64); err != nil {
		t.Fatalf("Lift load: %v", err)
	}
	v, ok := lastWriteReg(b.Stmts(), 4)
	if !ok {
		t.Fatalf("expected LW to write x4")
	}
	if v.Kind != ir.ELoad {
		t.Fatalf("expected x4's value to come from a Load, got %v", v.Kind)
	}
}

func TestEcallProducesSyscall(t *testing.T) {
	b := NewBuilder()
	in := isa.Instr{Op: isa.OpECALL, PC: 0x5000, Size: 4}
	res, err := Lift(b, in, isa.XLEN64)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	sc, ok := res.Term.(ir.Syscall)
	if !ok {
		t.Fatalf("expected a Syscall terminator, got %T", res.Term)
	}
	if sc.PC != 0x5000 || sc.NextPC != 0x5004 {
		t.Fatalf("syscall pc/nextpc = %#x/%#x, want 0x5000/0x5004", sc.PC, sc.NextPC)
	}
}

func TestContextChangingTerminatorsClearReservation(t *testing.T) {
	cases := []struct {
		name string
		in   isa.Instr
	}{
		{"jalr", isa.Instr{Op: isa.OpJALR, PC: 0x5000, Size: 4, Rd: 0, Rs1: 5}},
		{"ecall", isa.Instr{Op: isa.OpECALL, PC: 0x5000, Size: 4}},
		{"ebreak", isa.Instr{Op: isa.OpEBREAK, PC: 0x5000, Size: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder()
			if _, err := Lift(b, tc.in, isa.XLEN64); err != nil {
				t.Fatalf("Lift: %v", err)
			}
			found := false
			for _, s := range b.Stmts() {
				if _, ok := s.(ir.ReservationClear); ok {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %s to invalidate a live LR/SC reservation", tc.name)
			}
		})
	}
}

func TestDivDelegatesToM(t *testing.T) {
	b := NewBuilder()
	in := isa.Instr{Op: isa.OpDIV, PC: 0x6000, Size: 4, Rd: 1, Rs1: 2, Rs2: 3}
	if _, err := Lift(b, in, isa.XLEN64); err != nil {
		t.Fatalf("Lift: %v", err)
	}
	v, ok := lastWriteReg(b.Stmts(), 1)
	if !ok {
		t.Fatalf("expected DIV to write x1")
	}
	// canonicalize is a no-op at XLEN64, so the value traces straight back
	// to an EDiv node carrying the IR's division-semantics contract.
	if v.Kind != ir.EDiv {
		t.Fatalf("expected an EDiv node, got %v", v.Kind)
	}
}

func TestUnsupportedOpcodeErrors(t *testing.T) {
	b := NewBuilder()
	in := isa.Instr{Op: isa.OpInvalid, PC: 0x7000, Size: 4}
	if _, err := Lift(b, in, isa.XLEN64); err == nil {
		t.Fatalf("expected an error for an unrecognized opcode")
	}
}
