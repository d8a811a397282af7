package elfview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/rvrerr"
)

const (
	emRiscv = 243
	emX86   = 62
)

// writeMinimalELF64 writes an ELFCLASS64 executable with a single PT_LOAD
// segment holding code at vaddr, enough for Load without a symbol table.
func writeMinimalELF64(t *testing.T, machine uint16, entry, vaddr uint64, code []byte) string {
	t.Helper()

	const (
		ehsize    = 64
		phentsize = 56
	)
	var buf bytes.Buffer

	ident := make([]byte, 16)
	copy(ident, "\x7fELF")
	ident[4] = 2 // ELFCLASS64
	ident[5] = 1 // little-endian
	ident[6] = 1 // EV_CURRENT
	buf.Write(ident)

	le := binary.LittleEndian
	w16 := func(v uint16) { _ = binary.Write(&buf, le, v) }
	w32 := func(v uint32) { _ = binary.Write(&buf, le, v) }
	w64 := func(v uint64) { _ = binary.Write(&buf, le, v) }

	w16(2)       // ET_EXEC
	w16(machine) // e_machine
	w32(1)       // e_version
	w64(entry)
	w64(ehsize) // e_phoff
	w64(0)      // e_shoff
	w32(0)      // e_flags
	w16(ehsize)
	w16(phentsize)
	w16(1) // e_phnum
	w16(0) // e_shentsize
	w16(0) // e_shnum
	w16(0) // e_shstrndx

	w32(1)                      // PT_LOAD
	w32(5)                      // PF_R | PF_X
	w64(ehsize + phentsize)     // p_offset
	w64(vaddr)                  // p_vaddr
	w64(vaddr)                  // p_paddr
	w64(uint64(len(code)))      // p_filesz
	w64(uint64(len(code)) + 16) // p_memsz: trailing BSS
	w64(0x1000)                 // p_align
	buf.Write(code)

	path := filepath.Join(t.TempDir(), "guest.elf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture ELF: %v", err)
	}
	return path
}

func TestLoadMinimalRV64(t *testing.T) {
	code := []byte{0x13, 0x05, 0xa0, 0x02, 0x73, 0x00, 0x10, 0x00} // addi a0,x0,42; ebreak
	path := writeMinimalELF64(t, emRiscv, 0x1000, 0x1000, code)

	view, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if view.Xlen != isa.XLEN64 {
		t.Errorf("Xlen = %d, want 64", view.Xlen)
	}
	if view.Entry != 0x1000 {
		t.Errorf("Entry = %#x, want 0x1000", view.Entry)
	}
	if len(view.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(view.Segments))
	}
	seg := view.Segments[0]
	if seg.VirtAddr != 0x1000 || !bytes.Equal(seg.Data, code) {
		t.Errorf("segment = {%#x, % x}", seg.VirtAddr, seg.Data)
	}
	if seg.Flags != FlagExecute|FlagRead {
		t.Errorf("flags = %b, want r-x", seg.Flags)
	}
	if view.HasTohost {
		t.Error("no tohost symbol should be reported without a symbol table")
	}
	if got := view.HighWatermark(); got != 0x1000+uint64(len(code))+16 {
		t.Errorf("HighWatermark = %#x, want memsz-inclusive end", got)
	}
}

func TestLoadRejectsForeignMachine(t *testing.T) {
	path := writeMinimalELF64(t, emX86, 0x1000, 0x1000, []byte{0x90})
	_, err := Load(path)
	if !errors.Is(err, rvrerr.ErrElfInvalid) {
		t.Fatalf("expected ErrElfInvalid for a non-RISC-V machine, got %v", err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an.elf")
	if err := os.WriteFile(path, []byte("definitely not ELF"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, rvrerr.ErrElfInvalid) {
		t.Fatalf("expected ErrElfInvalid for garbage input, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	v := &View{Symbols: []Symbol{{Name: "fib", Value: 0x1234}}}
	if addr, ok := v.Lookup("fib"); !ok || addr != 0x1234 {
		t.Errorf("Lookup(fib) = %#x, %v", addr, ok)
	}
	if _, ok := v.Lookup("missing"); ok {
		t.Error("Lookup of an absent symbol must report false")
	}
}
