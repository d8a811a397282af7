// Package cfg discovers reachable basic blocks from entry symbols and
// branch/jump targets, performs fall-through absorption and best-effort
// indirect-jump target recovery, and produces a per-function control-flow
// graph. Discovery is breadth-first over a shared work queue.
package cfg

import (
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/lift"
	"github.com/shuklaayush/rvr/internal/rvrerr"
)

// maxIterationsMultiplier bounds the absorption fixed-point loop: it cannot
// run more than this many passes per block discovered, guarding against a
// pathological cycle in the (impossible, but defensively checked) case that
// absorption fails to converge. Grounded on rvr-cfg's
// MAX_ITERATIONS_MULTIPLIER constant.
const maxIterationsMultiplier = 4

// Seed names one entry point the builder must discover a function from:
// the ELF entry PC, or a symbol matching a configured export list.
type Seed struct {
	Name string
	PC   uint64
}

// Analyzer holds the immutable inputs to CFG construction: the guest memory
// image, the active register width, and the decode registry. It carries no
// mutable state between calls to Build, per the "no internal concurrency
// and no shared mutable state" resource model.
type Analyzer struct {
	Mem      []byte
	Xlen     isa.Xlen
	Registry *isa.Registry
	// StrictIndirect, when true, fails Build with CfgUnresolved for any
	// indirect jump whose target set cannot be statically recovered,
	// instead of falling back to a runtime dispatch-table-plus-trap.
	StrictIndirect bool
}

// New returns an Analyzer over the given memory image.
func New(mem []byte, xlen isa.Xlen, reg *isa.Registry) *Analyzer {
	return &Analyzer{Mem: mem, Xlen: xlen, Registry: reg}
}

// Build discovers every basic block reachable from seeds, one ir.Function
// per seed, and returns the assembled Program after running fall-through
// absorption to a fixed point.
func (a *Analyzer) Build(seeds []Seed) (*ir.Program, error) {
	prog := ir.NewProgram()
	claimed := map[uint64]bool{}

	for _, seed := range seeds {
		prog.EntryPoints = append(prog.EntryPoints, seed.PC)
		if claimed[seed.PC] {
			continue
		}
		fn := ir.NewFunction(seed.Name, seed.PC)
		if err := a.discover(fn, seed.PC, claimed); err != nil {
			return nil, err
		}
		prog.AddFunction(fn)
	}

	for _, fn := range prog.Functions {
		absorb(fn, maxIterationsMultiplier)
	}

	return prog, nil
}

// discover runs a breadth-first walk from root, decoding and lifting each
// newly reached PC into a block of fn, until the work queue drains.
func (a *Analyzer) discover(fn *ir.Function, root uint64, claimed map[uint64]bool) error {
	queue := []uint64{root}
	for len(queue) > 0 {
		pc := queue[0]
		queue = queue[1:]
		if claimed[pc] {
			continue
		}
		claimed[pc] = true

		block, err := a.buildBlock(pc)
		if err != nil {
			return err
		}
		fn.Blocks[pc] = block

		targets := block.Term.Targets()
		if _, ok := block.Term.(ir.IndirectJump); ok {
			recovered, ok := a.recognizeJumpTable(block)
			if ok {
				targets = append(targets, recovered...)
			} else if a.StrictIndirect {
				return rvrerr.CfgUnresolved(pc)
			}
			// Non-strict: the block keeps its IndirectJump terminator; the
			// emitter resolves it at run time against a dispatch table
			// built from every block this Program eventually discovers,
			// falling through to an IllegalPC halt for unknown values.
		}

		for _, t := range targets {
			if !claimed[t] {
				queue = append(queue, t)
			}
		}
	}
	return nil
}

// buildBlock decodes and lifts sequentially from pc until a terminator is
// produced, accumulating statements into one lift.Builder so temps are
// numbered consistently across the whole block.
func (a *Analyzer) buildBlock(pc uint64) (*ir.Block, error) {
	b := lift.NewBuilder()
	cur := pc
	count := 0
	for {
		instr, err := isa.Decode(a.Mem, cur, a.Xlen, a.Registry)
		if err != nil {
			return nil, err
		}
		b.Emit(ir.TraceHook{Kind: "rv_trace_pc", Args: []*ir.Expr{ir.Imm(int64(cur))}})
		res, err := lift.Lift(b, instr, a.Xlen)
		if err != nil {
			return nil, err
		}
		count++
		if res.Term != nil {
			return &ir.Block{PC: pc, Stmts: b.Stmts(), Term: res.Term, NumTemps: b.NumTemps(), InstrCount: count}, nil
		}
		cur += uint64(instr.Size)
	}
}
