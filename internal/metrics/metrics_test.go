package metrics

import (
	"path/filepath"
	"testing"

	"github.com/shuklaayush/rvr/internal/ir"
)

func testProgram() *ir.Program {
	fn := ir.NewFunction("main", 0x1000)
	fn.Blocks[0x1000] = &ir.Block{PC: 0x1000, Term: ir.Jump{Target: 0x1010}, InstrCount: 4}
	fn.Blocks[0x1010] = &ir.Block{PC: 0x1010, Term: ir.Halt{}, InstrCount: 2}
	prog := ir.NewProgram()
	prog.AddFunction(fn)
	return prog
}

func TestCollectCounts(t *testing.T) {
	r := Collect(testProgram())
	if r.Blocks != 2 {
		t.Errorf("Blocks = %d, want 2", r.Blocks)
	}
	if r.Instructions != 6 {
		t.Errorf("Instructions = %d, want 6", r.Instructions)
	}
	if got := r.MeanBlockSize(); got != 3 {
		t.Errorf("MeanBlockSize = %v, want 3", got)
	}
}

func TestCollectICacheHitRate(t *testing.T) {
	// Six sequential fetches over 0x1000..0x1018 touch a single 64-byte
	// line: one compulsory miss, five hits.
	r := Collect(testProgram())
	want := 5.0 / 6.0
	if r.ICacheHitRate != want {
		t.Errorf("ICacheHitRate = %v, want %v", r.ICacheHitRate, want)
	}
}

func TestICacheModelEviction(t *testing.T) {
	// A two-way, single-set cache with two 64-byte lines: three
	// distinct lines must evict, so re-touching the first misses again.
	m := NewICacheModel(ICacheConfig{Size: 128, Associativity: 2, BlockSize: 64})
	if m.Touch(0x0000) {
		t.Fatalf("first touch should miss")
	}
	if m.Touch(0x0004) != true {
		t.Fatalf("same-line touch should hit")
	}
	m.Touch(0x1000)
	m.Touch(0x2000)
	if m.Touch(0x0000) {
		t.Errorf("line evicted by LRU should miss on re-touch")
	}
}

func TestICacheModelHitRateEmpty(t *testing.T) {
	m := NewICacheModel(DefaultICacheConfig())
	if got := m.HitRate(); got != 0 {
		t.Fatalf("HitRate before any access = %v, want 0", got)
	}
}

func TestWritePlot(t *testing.T) {
	r := Collect(testProgram())
	path := filepath.Join(t.TempDir(), "report.png")
	if err := r.WritePlot(path); err != nil {
		t.Fatalf("WritePlot: %v", err)
	}
}
