// Package metrics summarizes a lifted program for reporting: block and
// instruction counts, the instructions-per-block distribution, and a
// modeled instruction-cache hit rate for the translated layout. Nothing
// here is on the translation hot path; the driver collects a Report after
// CFG construction and optionally renders it to a PNG.
package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/shuklaayush/rvr/internal/ir"
)

// Report is the per-translation metrics record.
type Report struct {
	Blocks        int
	Instructions  int
	ICacheHitRate float64

	perBlock plotter.Values
}

// Collect walks every function of prog and builds its Report, including the
// modeled i-cache hit rate for a straight-line pass over the translated
// blocks in PC order.
func Collect(prog *ir.Program) *Report {
	r := &Report{}
	var pcs []uint64
	counts := map[uint64]int{}
	for _, fn := range prog.Functions {
		for pc, b := range fn.Blocks {
			pcs = append(pcs, pc)
			counts[pc] = b.InstrCount
			r.Blocks++
			r.Instructions += b.InstrCount
			r.perBlock = append(r.perBlock, float64(b.InstrCount))
		}
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })

	model := NewICacheModel(DefaultICacheConfig())
	for _, pc := range pcs {
		for addr := pc; addr < pc+uint64(counts[pc])*4; addr += 4 {
			model.Touch(addr)
		}
	}
	r.ICacheHitRate = model.HitRate()
	return r
}

// MeanBlockSize returns the average instructions per block, 0 for an empty
// program.
func (r *Report) MeanBlockSize() float64 {
	if r.Blocks == 0 {
		return 0
	}
	return float64(r.Instructions) / float64(r.Blocks)
}

// WritePlot renders the instructions-per-block histogram to path as a PNG.
func (r *Report) WritePlot(path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("instructions per block (%d blocks, i-cache hit %.1f%%)",
		r.Blocks, r.ICacheHitRate*100)
	p.X.Label.Text = "instructions"
	p.Y.Label.Text = "blocks"

	if len(r.perBlock) > 0 {
		h, err := plotter.NewHist(r.perBlock, 16)
		if err != nil {
			return fmt.Errorf("histogram: %w", err)
		}
		p.Add(h)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
