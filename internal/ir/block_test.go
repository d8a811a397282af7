package ir

import "testing"

func TestBlockValidateRejectsTempUsedBeforeAssigned(t *testing.T) {
	b := &Block{
		PC: 0x1000,
		Stmts: []Stmt{
			WriteReg{Reg: 5, Value: ReadTemp(0, W64)},
		},
		Term: Jump{Target: 0x1004},
	}
	if err := b.Validate(); err == nil {
		t.Fatalf("expected error for temp read before assignment")
	}
}

func TestBlockValidateAcceptsTempDefinedThenUsed(t *testing.T) {
	b := &Block{
		PC: 0x1000,
		Stmts: []Stmt{
			TempAssign{Temp: 0, Value: Add(ReadReg(1), ReadReg(2)), Width: W64},
			WriteReg{Reg: 3, Value: ReadTemp(0, W64)},
		},
		Term: Jump{Target: 0x1004},
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBlockValidateRejectsMissingTerminator(t *testing.T) {
	b := &Block{PC: 0x2000, Stmts: nil}
	if err := b.Validate(); err == nil {
		t.Fatalf("expected error for missing terminator")
	}
}

func TestBranchTargetsReturnsBothEdges(t *testing.T) {
	br := Branch{Cond: CEq, Left: ReadReg(1), Right: ReadReg(2), Then: 0x10, Else: 0x20}
	got := br.Targets()
	if len(got) != 2 || got[0] != 0x10 || got[1] != 0x20 {
		t.Errorf("got %v, want [0x10 0x20]", got)
	}
}

func TestIndirectJumpHasNoStaticTargets(t *testing.T) {
	ij := IndirectJump{Target: ReadReg(1)}
	if got := ij.Targets(); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestIsRegZeroNoop(t *testing.T) {
	if !IsRegZeroNoop(WriteReg{Reg: 0, Value: Imm(1)}) {
		t.Errorf("WriteReg to x0 should be a no-op")
	}
	if IsRegZeroNoop(WriteReg{Reg: 1, Value: Imm(1)}) {
		t.Errorf("WriteReg to x1 should not be treated as a no-op")
	}
}

func TestCondNegateIsInvolution(t *testing.T) {
	for _, c := range []Cond{CEq, CNe, CLt, CGe, CLtu, CGeu} {
		if c.Negate().Negate() != c {
			t.Errorf("Negate(Negate(%v)) != %v", c, c)
		}
	}
}

func TestFunctionValidateCatchesUnresolvedJumpTarget(t *testing.T) {
	fn := NewFunction("f", 0x1000)
	fn.Blocks[0x1000] = &Block{PC: 0x1000, Term: Jump{Target: 0x9999}}
	if err := fn.Validate(func(uint64) bool { return false }); err == nil {
		t.Fatalf("expected unresolved target error")
	}
}

func TestProgramValidateResolvesCrossFunctionTargets(t *testing.T) {
	p := NewProgram()
	caller := NewFunction("caller", 0x1000)
	caller.Blocks[0x1000] = &Block{PC: 0x1000, Term: Jump{Target: 0x2000}}
	callee := NewFunction("callee", 0x2000)
	callee.Blocks[0x2000] = &Block{PC: 0x2000, Term: Halt{}}
	p.AddFunction(caller)
	p.AddFunction(callee)
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
