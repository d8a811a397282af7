// Package driver sequences one ELF translation through the pipeline's
// linear state machine: Discovering -> Lifting -> BuildingCfg -> Emitting ->
// Done, with any error failing fast into Failed while preserving the
// diagnostic. The driver owns the work queue wiring
// between elfview, cfg, and the emit backends; it holds no state shared
// across translations, so multiple Translate calls may run in parallel at
// the process level, each over its own Driver.
package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/shuklaayush/rvr/internal/cfg"
	"github.com/shuklaayush/rvr/internal/config"
	"github.com/shuklaayush/rvr/internal/elfview"
	"github.com/shuklaayush/rvr/internal/emit/asmarm64"
	"github.com/shuklaayush/rvr/internal/emit/asmx86"
	emitc "github.com/shuklaayush/rvr/internal/emit/c"
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/metrics"
	"github.com/shuklaayush/rvr/internal/runtimeimg"
	"github.com/shuklaayush/rvr/internal/rvrerr"
)

// State is the driver's position in the translation pipeline.
type State uint8

const (
	StateNew State = iota
	StateDiscovering
	StateLifting
	StateBuildingCfg
	StateEmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateDiscovering:
		return "discovering"
	case StateLifting:
		return "lifting"
	case StateBuildingCfg:
		return "building-cfg"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	default:
		return "failed"
	}
}

const (
	// stackReserve is the headroom above the load image's high watermark kept
	// for the guest stack when sizing the memory window.
	stackReserve = 1 << 20
	// minWindow floors the window so tiny fixtures still get a usable image.
	minWindow = 1 << 20

	guardPages = 4
	pageAlign  = 4096
)

// Driver runs translations under one Config, logging stage progress to the
// supplied writer. A nil writer is replaced with io.Discard, so passing nil
// silences stage logging.
type Driver struct {
	cfg   config.Config
	log   io.Writer
	state State
	err   error
}

// New returns a Driver in StateNew.
func New(cfg config.Config, logw io.Writer) *Driver {
	if logw == nil {
		logw = io.Discard
	}
	return &Driver{cfg: cfg, log: logw, state: StateNew}
}

// State reports the driver's current pipeline position.
func (d *Driver) State() State { return d.state }

// Err returns the error that moved the driver into StateFailed, nil
// otherwise.
func (d *Driver) Err() error { return d.err }

// Result is the metadata record a successful translation hands back,
// serialized as the translation manifest `inspect` and the test harness
// read.
type Result struct {
	Backend      string   `yaml:"backend"`
	Xlen         int      `yaml:"xlen"`
	EntryPC      uint64   `yaml:"entry_pc"`
	Functions    int      `yaml:"functions"`
	Blocks       int      `yaml:"blocks"`
	Instructions int      `yaml:"instructions"`
	MemWindow    uint64   `yaml:"mem_window"`
	Sources      []string `yaml:"sources"`
	TracerHeader string   `yaml:"tracer_header"`
}

// WriteManifest writes the result as YAML.
func (r *Result) WriteManifest(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return enc.Close()
}

// Translate runs the full pipeline over view, writing the generated sources
// into outDir, and returns the translation manifest. On error the driver is
// left in StateFailed with the diagnostic retrievable from Err.
func (d *Driver) Translate(view *elfview.View, outDir string) (*Result, error) {
	d.enter(StateDiscovering)
	seeds, err := Seeds(view, d.cfg.Exports)
	if err != nil {
		return nil, d.fail(err)
	}
	d.logf("discovered %d entry points, xlen=%d", len(seeds), view.Xlen)

	window := WindowSize(view.HighWatermark())
	img, err := runtimeimg.New(window, guardPages)
	if err != nil {
		return nil, d.fail(fmt.Errorf("memory image: %w", err))
	}
	defer func() { _ = img.Close() }()
	for _, seg := range view.Segments {
		img.LoadSegment(seg.VirtAddr, seg.Data)
	}

	d.enter(StateLifting)
	analyzer := cfg.New(img.Bytes(), view.Xlen, isa.DefaultRegistry())
	prog, err := analyzer.Build(seeds)
	if err != nil {
		return nil, d.fail(err)
	}

	d.enter(StateBuildingCfg)
	if err := prog.Validate(); err != nil {
		return nil, d.fail(fmt.Errorf("cfg validation: %w", err))
	}
	report := metrics.Collect(prog)
	d.logf("cfg: %d functions, %d blocks, %d instructions",
		len(prog.Functions), report.Blocks, report.Instructions)

	d.enter(StateEmitting)
	result := &Result{
		Backend:      string(d.cfg.Backend),
		Xlen:         int(view.Xlen),
		EntryPC:      view.Entry,
		Functions:    len(prog.Functions),
		Blocks:       report.Blocks,
		Instructions: report.Instructions,
		MemWindow:    window,
		TracerHeader: d.cfg.TracerHeader,
	}
	if err := d.emit(view, prog, window, outDir, result); err != nil {
		return nil, d.fail(err)
	}

	if d.cfg.ReportPath != "" {
		if err := report.WritePlot(d.cfg.ReportPath); err != nil {
			return nil, d.fail(fmt.Errorf("metrics report: %w", err))
		}
		d.logf("wrote metrics report to %s", d.cfg.ReportPath)
	}

	d.enter(StateDone)
	return result, nil
}

// Seeds resolves the ELF entry plus every export symbol into CFG discovery
// roots.
func Seeds(view *elfview.View, exports []string) ([]cfg.Seed, error) {
	entryName := "_start"
	for _, sym := range view.Symbols {
		if sym.Value == view.Entry {
			entryName = sym.Name
			break
		}
	}
	seeds := []cfg.Seed{{Name: entryName, PC: view.Entry}}

	for _, name := range exports {
		addr, ok := view.Lookup(name)
		if !ok {
			return nil, rvrerr.ElfInvalid(fmt.Sprintf("export symbol %q not found", name))
		}
		if addr != view.Entry {
			seeds = append(seeds, cfg.Seed{Name: name, PC: addr})
		}
	}
	return seeds, nil
}

// emit writes the backend-specific sources for prog into outDir and records
// their paths in result.
func (d *Driver) emit(view *elfview.View, prog *ir.Program, window uint64, outDir string, result *Result) error {
	info := d.runtimeInfo(view, window)

	switch d.cfg.Backend {
	case config.BackendC:
		path := filepath.Join(outDir, "rv_translated.c")
		if err := d.writeFile(path, func(w io.Writer) error {
			if err := emitc.EmitProgram(w, prog, view.Xlen, emitc.Config{
				EmitComments:   true,
				TracerHeader:   d.cfg.TracerHeader,
				FixedAddresses: true,
			}); err != nil {
				return err
			}
			return emitc.EmitRuntime(w, info)
		}); err != nil {
			return err
		}
		result.Sources = append(result.Sources, path)

	case config.BackendX86:
		path := filepath.Join(outDir, "rv_translated.s")
		if err := d.writeFile(path, func(w io.Writer) error {
			return asmx86.EmitProgram(w, prog, view.Xlen, asmx86.Config{
				MemWindow:    window,
				EmitComments: true,
			})
		}); err != nil {
			return err
		}
		result.Sources = append(result.Sources, path)
		if err := d.emitCompanionRuntime(outDir, info, result); err != nil {
			return err
		}

	case config.BackendARM64:
		path := filepath.Join(outDir, "rv_translated.s")
		if err := d.writeFile(path, func(w io.Writer) error {
			return asmarm64.EmitProgram(w, prog, view.Xlen, asmarm64.Config{
				MemWindow:    window,
				EmitComments: true,
			})
		}); err != nil {
			return err
		}
		result.Sources = append(result.Sources, path)
		if err := d.emitCompanionRuntime(outDir, info, result); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown backend %q", d.cfg.Backend)
	}

	if d.cfg.TracerHeader == "" {
		hdr := filepath.Join(outDir, "rv_tracer.h")
		if err := d.writeFile(hdr, emitc.WriteTracerStub); err != nil {
			return err
		}
		result.TracerHeader = hdr
	}
	return nil
}

// emitCompanionRuntime writes the standalone runtime .c the assembly
// backends link against (RV_ASM_MODE: plain calling convention, run() enters
// rv_asm_run).
func (d *Driver) emitCompanionRuntime(outDir string, info emitc.RuntimeInfo, result *Result) error {
	info.AsmMode = true
	path := filepath.Join(outDir, "rv_runtime.c")
	if err := d.writeFile(path, func(w io.Writer) error {
		return emitc.EmitRuntime(w, info)
	}); err != nil {
		return err
	}
	result.Sources = append(result.Sources, path)
	return nil
}

func (d *Driver) runtimeInfo(view *elfview.View, window uint64) emitc.RuntimeInfo {
	info := emitc.RuntimeInfo{
		Xlen:       view.Xlen,
		MemWindow:  window,
		EntryPC:    view.Entry,
		InitialSP:  window - 16,
		InitialBrk: alignUp(view.HighWatermark(), pageAlign),
		Syscalls:   d.syscallTable(),
		TohostAddr: view.TohostAddr,
		HasTohost:  view.HasTohost,
	}
	for _, seg := range view.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		info.Segments = append(info.Segments, emitc.Segment{Addr: seg.VirtAddr, Data: seg.Data})
	}
	return info
}

func (d *Driver) syscallTable() map[int64]isa.SyscallEntry {
	if d.cfg.Syscalls == config.SyscallsLinux {
		return isa.LinuxSyscalls()
	}
	return isa.BaremetalSyscalls()
}

func (d *Driver) writeFile(path string, emit func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := emit(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("emit %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	d.logf("wrote %s", path)
	return nil
}

func (d *Driver) enter(s State) {
	d.state = s
	d.logf("stage: %s", s)
}

func (d *Driver) fail(err error) error {
	d.state = StateFailed
	d.err = err
	d.logf("failed: %v", err)
	return err
}

func (d *Driver) logf(format string, args ...interface{}) {
	fmt.Fprintf(d.log, "rvr: "+format+"\n", args...)
}

// WindowSize picks the guest memory window: the next power of two covering
// the load image plus stack headroom. Power-of-two sizing keeps address
// masking a single and instruction in every backend.
func WindowSize(highWatermark uint64) uint64 {
	need := highWatermark + stackReserve
	if need < minWindow {
		need = minWindow
	}
	w := uint64(1)
	for w < need {
		w <<= 1
	}
	return w
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
