package ir

// Terminator ends a block: unconditional branch to a known PC, conditional
// branch to two known PCs keyed by an expression, indirect jump on an
// expression value, syscall/ECALL escape, EBREAK, or halt. Every block
// ends with exactly one terminator; no terminator appears mid-block,
// enforced by Block.Validate.
type Terminator interface {
	implTerminator()
	// Targets returns the statically-known successor PCs this terminator
	// can transfer control to, for CFG edge construction. IndirectJump,
	// Syscall, Break, and Halt return nil (no statically-known successor).
	Targets() []uint64
}

// Jump is an unconditional branch to a known PC.
type Jump struct {
	Target uint64
}

// Branch is a conditional branch keyed by a comparison of two expressions,
// to one of two known PCs.
type Branch struct {
	Cond  Cond
	Left  *Expr
	Right *Expr
	Then  uint64
	Else  uint64
}

// IndirectJump transfers control to the runtime value of Target, resolved
// at run time against the dispatch table when CFG-build-time recovery
// could not enumerate the targets.
type IndirectJump struct {
	Target *Expr
}

// Syscall lowers an ECALL; NextPC is the guest PC execution resumes at if
// the syscall is not Exit.
type Syscall struct {
	PC     uint64
	NextPC uint64
}

// Break lowers an EBREAK.
type Break struct {
	PC uint64
}

// Halt ends guest execution (HTIF store-to-tohost, or an unrecoverable
// runtime condition).
type Halt struct {
	ExitCode *Expr
}

func (Jump) implTerminator()         {}
func (Branch) implTerminator()       {}
func (IndirectJump) implTerminator() {}
func (Syscall) implTerminator()      {}
func (Break) implTerminator()        {}
func (Halt) implTerminator()         {}

func (j Jump) Targets() []uint64         { return []uint64{j.Target} }
func (b Branch) Targets() []uint64       { return []uint64{b.Then, b.Else} }
func (IndirectJump) Targets() []uint64   { return nil }
func (Syscall) Targets() []uint64        { return nil }
func (Break) Targets() []uint64          { return nil }
func (Halt) Targets() []uint64           { return nil }
