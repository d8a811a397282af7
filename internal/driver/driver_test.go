package driver

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shuklaayush/rvr/internal/config"
	"github.com/shuklaayush/rvr/internal/elfview"
	"github.com/shuklaayush/rvr/internal/isa"
)

// testView builds a synthetic two-instruction image:
//
//	0x1000: addi a0, x0, 42
//	0x1004: ebreak
func testView() *elfview.View {
	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code[0:], 0x02a00513)
	binary.LittleEndian.PutUint32(code[4:], 0x00100073)
	return &elfview.View{
		Xlen:  isa.XLEN64,
		Entry: 0x1000,
		Segments: []elfview.Segment{
			{VirtAddr: 0x1000, Data: code, MemSize: 8, Flags: elfview.FlagExecute | elfview.FlagRead},
		},
		Symbols: []elfview.Symbol{{Name: "_start", Value: 0x1000}},
	}
}

func TestTranslateCBackend(t *testing.T) {
	var log bytes.Buffer
	d := New(config.Default(), &log)
	dir := t.TempDir()

	res, err := d.Translate(testView(), dir)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if d.State() != StateDone {
		t.Errorf("state = %v, want done", d.State())
	}
	if res.Blocks != 1 || res.Instructions != 2 {
		t.Errorf("blocks=%d instrs=%d, want 1 and 2", res.Blocks, res.Instructions)
	}
	if res.EntryPC != 0x1000 || res.Xlen != 64 {
		t.Errorf("entry=0x%x xlen=%d, want 0x1000 and 64", res.EntryPC, res.Xlen)
	}

	src, err := os.ReadFile(filepath.Join(dir, "rv_translated.c"))
	if err != nil {
		t.Fatalf("read generated C: %v", err)
	}
	for _, want := range []string{"B_0000000000001000", "void initialize(struct rv_state *state)", "int32_t run(struct rv_state *state)"} {
		if !strings.Contains(string(src), want) {
			t.Errorf("generated C missing %q", want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "rv_tracer.h")); err != nil {
		t.Errorf("tracer stub not written: %v", err)
	}
	for _, stage := range []string{"stage: discovering", "stage: lifting", "stage: building-cfg", "stage: emitting", "stage: done"} {
		if !strings.Contains(log.String(), stage) {
			t.Errorf("log missing %q", stage)
		}
	}
}

func TestTranslateAsmBackendWritesCompanionRuntime(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendX86
	d := New(cfg, nil)
	dir := t.TempDir()

	res, err := d.Translate(testView(), dir)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(res.Sources) != 2 {
		t.Fatalf("sources = %v, want .s plus companion runtime", res.Sources)
	}

	asm, err := os.ReadFile(filepath.Join(dir, "rv_translated.s"))
	if err != nil {
		t.Fatalf("read generated asm: %v", err)
	}
	if !strings.Contains(string(asm), "rv_asm_run") {
		t.Errorf("generated asm missing entry symbol")
	}

	runtime, err := os.ReadFile(filepath.Join(dir, "rv_runtime.c"))
	if err != nil {
		t.Fatalf("read companion runtime: %v", err)
	}
	for _, want := range []string{"#define RV_ASM_MODE 1", "extern void rv_asm_run"} {
		if !strings.Contains(string(runtime), want) {
			t.Errorf("companion runtime missing %q", want)
		}
	}
}

func TestTranslateUnknownExportFails(t *testing.T) {
	cfg := config.Default()
	cfg.Exports = []string{"no_such_symbol"}
	d := New(cfg, nil)

	_, err := d.Translate(testView(), t.TempDir())
	if err == nil {
		t.Fatalf("expected failure for unresolved export symbol")
	}
	if d.State() != StateFailed {
		t.Errorf("state = %v, want failed", d.State())
	}
	if d.Err() == nil {
		t.Errorf("Err should retain the failure diagnostic")
	}
}

func TestWriteManifest(t *testing.T) {
	res := &Result{Backend: "c", Xlen: 64, EntryPC: 0x1000, Blocks: 3}
	var buf bytes.Buffer
	if err := res.WriteManifest(&buf); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	for _, want := range []string{"backend: c", "xlen: 64", "blocks: 3"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("manifest missing %q in %q", want, buf.String())
		}
	}
}

func TestWindowSize(t *testing.T) {
	cases := []struct {
		watermark uint64
		want      uint64
	}{
		{0, 1 << 20},
		{1 << 19, 1 << 21},
		{3 << 20, 1 << 22},
	}
	for _, c := range cases {
		if got := WindowSize(c.watermark); got != c.want {
			t.Errorf("WindowSize(%#x) = %#x, want %#x", c.watermark, got, c.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if StateDiscovering.String() != "discovering" || StateFailed.String() != "failed" {
		t.Fatalf("State.String mismatch")
	}
}
