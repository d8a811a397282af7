package ir

import "fmt"

// Function is the lifted form of one contiguous guest code region reached
// from a single entry PC, the unit the cfg and regalloc stages operate on.
// Blocks are keyed by guest PC, since guest code is discovered by address
// rather than declared by name.
type Function struct {
	Name   string
	Entry  uint64
	Blocks map[uint64]*Block
}

// NewFunction creates an empty function rooted at entry.
func NewFunction(name string, entry uint64) *Function {
	return &Function{Name: name, Entry: entry, Blocks: map[uint64]*Block{}}
}

// Validate checks every block and that every statically-known terminator
// target lands on a block PC actually present in the function, except for
// targets outside this function's own region (tail calls to other lifted
// functions are resolved at the program level, not here).
func (f *Function) Validate(external func(uint64) bool) error {
	for _, b := range f.Blocks {
		if err := b.Validate(); err != nil {
			return err
		}
		for _, target := range b.Term.Targets() {
			if _, ok := f.Blocks[target]; !ok && !external(target) {
				return errUnresolvedTarget(f.Name, b.PC, target)
			}
		}
	}
	return nil
}

func errUnresolvedTarget(fn string, from, to uint64) error {
	return fmt.Errorf("function %s: block %#x targets unresolved block %#x", fn, from, to)
}
