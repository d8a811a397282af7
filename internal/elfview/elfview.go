// Package elfview parses a RISC-V ELF executable into a form addressable
// as contiguous host bytes: loadable segments, entry PC, symbols, and the
// register width implied by the ELF class, covering both 32- and 64-bit
// classes.
package elfview

import (
	"debug/elf"
	"fmt"
	"io"
	"sort"

	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/rvrerr"
)

// SegmentFlags mirrors the ELF program-header protection bits this view
// cares about.
type SegmentFlags uint32

const (
	FlagExecute SegmentFlags = 1 << iota
	FlagWrite
	FlagRead
)

// Segment is one PT_LOAD segment's file contents plus its placement.
type Segment struct {
	VirtAddr uint64
	Data     []byte
	MemSize  uint64
	Flags    SegmentFlags
}

// Symbol is a named address from the ELF symbol table, used to seed CFG
// discovery for exported function names.
type Symbol struct {
	Name  string
	Value uint64
}

// View is the parsed ELF image the rest of the pipeline consumes: segments,
// entry point, symbol table, and the derived XLEN.
type View struct {
	Xlen       isa.Xlen
	Entry      uint64
	Segments   []Segment
	Symbols    []Symbol
	TohostAddr uint64 // 0 if the ELF carries no `tohost` symbol
	HasTohost  bool
}

// Load parses the RISC-V ELF at path. The XLEN the rest of the pipeline
// uses is derived from the ELF class alone, never configured
// independently.
func Load(path string) (*View, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, rvrerr.ElfInvalid(fmt.Sprintf("open %s: %v", path, err))
	}
	defer func() { _ = f.Close() }()
	return fromFile(f)
}

func fromFile(f *elf.File) (*View, error) {
	if f.Machine != elf.EM_RISCV {
		return nil, rvrerr.ElfInvalid(fmt.Sprintf("not a RISC-V ELF (machine=%v)", f.Machine))
	}

	var xlen isa.Xlen
	switch f.Class {
	case elf.ELFCLASS32:
		xlen = isa.XLEN32
	case elf.ELFCLASS64:
		xlen = isa.XLEN64
	default:
		return nil, rvrerr.ElfInvalid("unknown ELF class")
	}

	v := &View{Xlen: xlen, Entry: f.Entry}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, rvrerr.ElfInvalid(fmt.Sprintf("read segment at 0x%x: %v", phdr.Vaddr, err))
			}
			if uint64(n) != phdr.Filesz {
				return nil, rvrerr.ElfInvalid(fmt.Sprintf("short read for segment at 0x%x", phdr.Vaddr))
			}
		}
		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= FlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= FlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= FlagRead
		}
		v.Segments = append(v.Segments, Segment{
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
			Flags:    flags,
		})
	}
	sort.Slice(v.Segments, func(i, j int) bool { return v.Segments[i].VirtAddr < v.Segments[j].VirtAddr })

	syms, err := f.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, rvrerr.ElfInvalid(fmt.Sprintf("read symbols: %v", err))
	}
	for _, s := range syms {
		if s.Name == "" {
			continue
		}
		v.Symbols = append(v.Symbols, Symbol{Name: s.Name, Value: s.Value})
		if s.Name == "tohost" {
			v.TohostAddr = s.Value
			v.HasTohost = true
		}
	}

	return v, nil
}

// Lookup returns the address of the named symbol, for resolving the
// configured export list CFG discovery seeds from.
func (v *View) Lookup(name string) (uint64, bool) {
	for _, s := range v.Symbols {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// HighWatermark returns the address one past the last byte any loadable
// segment occupies, a lower bound on the memory image's required window
// size (internal/runtimeimg sizes the guest memory image against it).
func (v *View) HighWatermark() uint64 {
	var max uint64
	for _, s := range v.Segments {
		end := s.VirtAddr + s.MemSize
		if end > max {
			max = end
		}
	}
	return max
}
