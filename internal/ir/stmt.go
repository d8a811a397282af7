package ir

// Stmt is a side-effecting IR statement, a tagged union over the
// implStmt() marker method.
type Stmt interface {
	implStmt()
}

// WriteReg writes a guest register. A write targeting register 0 is a
// no-op at IR level; the no-op is enforced by the lowering that constructs
// these (which never emits one), not by this type or by Block.Validate.
type WriteReg struct {
	Reg   uint8
	Value *Expr
}

// WriteCsr commits a value to a CSR, unless the CSR is read-only at this
// tier (isa.ReadOnly), in which case the lowering omits the statement
// entirely rather than emitting a provably-dead write.
type WriteCsr struct {
	Csr   uint16
	Value *Expr
}

// StoreMem writes `Width` bits of Value to the masked address computed by
// Addr.
type StoreMem struct {
	Addr  *Expr
	Value *Expr
	Width Width
}

// TempAssign defines an IR temp. Every temp must be defined before use
// within its owning block and does not cross block boundaries; enforced
// by Block.Validate, not by this type.
type TempAssign struct {
	Temp  uint8
	Value *Expr
	Width Width
}

// ReservationSet records LR's (addr, valid=true) outcome.
type ReservationSet struct {
	Addr *Expr
}

// CondStoreMem performs StoreMem only when Cond is non-zero at run time,
// the primitive SC's success/failure lowers to:
// the match between the live reservation and the SC's address is not known
// until run time, so the conditional lives in the IR rather than being
// resolved at lift time.
type CondStoreMem struct {
	Cond  *Expr
	Addr  *Expr
	Value *Expr
	Width Width
}

// ReservationClear invalidates the reservation: emitted for aliasing
// stores, SC, and context-changing terminators.
type ReservationClear struct{}

// TraceHook marks a point the C/asm emitters must inline a tracer call at.
// Kind names the hook function (e.g. "rv_trace_reg_write"); Args carries the
// hook's extra arguments (e.g. the register index and value) as IR
// expressions the emitter renders positionally.
type TraceHook struct {
	Kind string
	Args []*Expr
}

func (WriteReg) implStmt()         {}
func (WriteCsr) implStmt()         {}
func (StoreMem) implStmt()         {}
func (TempAssign) implStmt()       {}
func (ReservationSet) implStmt()   {}
func (CondStoreMem) implStmt()     {}
func (ReservationClear) implStmt() {}
func (TraceHook) implStmt()        {}
