package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shuklaayush/rvr/internal/cfg"
	"github.com/shuklaayush/rvr/internal/config"
	"github.com/shuklaayush/rvr/internal/driver"
	"github.com/shuklaayush/rvr/internal/elfview"
	"github.com/shuklaayush/rvr/internal/hostlib"
	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/metrics"
	"github.com/shuklaayush/rvr/internal/refinterp"
	"github.com/shuklaayush/rvr/internal/runtimeimg"
	"github.com/shuklaayush/rvr/internal/rvrerr"
	"github.com/shuklaayush/rvr/internal/toolchain"
)

var version = "0.1.0"

// Translation flags shared by lift, compile, run and inspect.
var (
	flagBackend      string
	flagSyscalls     string
	flagExports      []string
	flagTracerHeader string
	flagReport       string
	flagStrictAMO    bool
)

var (
	flagOutDir  string // lift: where generated sources land
	flagOutput  string // compile: path of the linked .so
	flagInterp  bool   // run: use the reference interpreter instead of compiling
	flagVerbose bool
)

const guardPages = 4

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		var exit *guestExit
		if errors.As(err, &exit) {
			return exit.code
		}
		fmt.Fprintf(os.Stderr, "rvr: %v\n", err)
		return rvrerr.ExitCode(err)
	}
	return 0
}

// guestExit carries a translated guest's own exit status out through cobra,
// so `rvr run` exits with the guest's code rather than a translator code.
type guestExit struct {
	code int
}

func (e *guestExit) Error() string {
	return fmt.Sprintf("guest exited with code %d", e.code)
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rvr",
		Short: "rvr translates RISC-V ELF binaries to native code",
		Long: `rvr lifts a statically linked RISC-V ELF binary into a control-flow
graph and emits equivalent C or host assembly, which it can compile into a
shared library and execute. A reference interpreter over the same IR is
available for differential testing.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagBackend, "backend", "b", "c", "code generator: c, x86, arm64")
	pf.StringVar(&flagSyscalls, "syscalls", "baremetal", "syscall table preset: baremetal, linux")
	pf.StringArrayVar(&flagExports, "export", nil, "extra symbol to translate as an entry point (repeatable)")
	pf.StringVar(&flagTracerHeader, "tracer-header", "", "caller-supplied rv_tracer.h path")
	pf.StringVar(&flagReport, "report", "", "write an instructions-per-block histogram PNG")
	pf.BoolVar(&flagStrictAMO, "strict-amo", false, "record strict aq/rl handling in the config (no backend changes its output for it)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log pipeline stages to stderr")

	rootCmd.AddCommand(newLiftCmd(out, errOut))
	rootCmd.AddCommand(newCompileCmd(out, errOut))
	rootCmd.AddCommand(newRunCmd(out, errOut))
	rootCmd.AddCommand(newInspectCmd(out, errOut))
	return rootCmd
}

func newLiftCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lift <elf>",
		Short: "Translate an ELF into generated sources without compiling them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := doLift(args[0], flagOutDir, errOut)
			if err != nil {
				return err
			}
			manifest := filepath.Join(flagOutDir, "rv_manifest.yaml")
			f, err := os.Create(manifest)
			if err != nil {
				return fmt.Errorf("create manifest: %w", err)
			}
			defer func() { _ = f.Close() }()
			if err := res.WriteManifest(f); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", manifest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagOutDir, "out-dir", "o", ".", "directory for generated sources")
	return cmd
}

func newCompileCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <elf>",
		Short: "Translate an ELF and link the result into a shared library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := flagOutput
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				output = base + ".so"
			}
			dir, err := os.MkdirTemp("", "rvr-compile-")
			if err != nil {
				return fmt.Errorf("temp dir: %w", err)
			}
			defer func() { _ = os.RemoveAll(dir) }()

			res, err := doLift(args[0], dir, errOut)
			if err != nil {
				return err
			}
			tc := toolchain.New(cliConfig(), logWriter(errOut))
			if err := tc.BuildShared(cmd.Context(), res.Sources, output); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "shared library path (default <elf>.so)")
	return cmd
}

func newRunCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <elf>",
		Short: "Translate and execute an ELF, exiting with the guest's code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var code int32
			var err error
			if flagInterp {
				code, err = interpRun(args[0], errOut)
			} else {
				code, err = nativeRun(cmd.Context(), args[0], errOut)
			}
			if err != nil {
				return err
			}
			if code != 0 {
				return &guestExit{code: int(code)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagInterp, "interp", false, "execute with the reference interpreter")
	return cmd
}

func newInspectCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <elf>",
		Short: "Lift an ELF and print a YAML summary of its CFG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doInspect(args[0], out)
		},
	}
}

// cliConfig layers the command-line flags over the defaults and then the
// environment overrides, so flags beat defaults and RVR_* beats both for the
// toolchain/tracer knobs it covers.
func cliConfig() config.Config {
	cfg := config.Default()
	cfg.Backend = config.Backend(flagBackend)
	cfg.Syscalls = config.SyscallTable(flagSyscalls)
	cfg.Exports = flagExports
	cfg.TracerHeader = flagTracerHeader
	cfg.ReportPath = flagReport
	cfg.StrictAMO = flagStrictAMO
	return config.FromEnvironment(cfg)
}

func logWriter(errOut io.Writer) io.Writer {
	if flagVerbose {
		return errOut
	}
	return io.Discard
}

func doLift(elfPath, outDir string, errOut io.Writer) (*driver.Result, error) {
	view, err := elfview.Load(elfPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("out dir: %w", err)
	}
	d := driver.New(cliConfig(), logWriter(errOut))
	return d.Translate(view, outDir)
}

// nativeRun compiles the ELF to a shared library in a temp dir, loads it,
// and drives the generated initialize()/run() pair over a host-allocated
// guest window.
func nativeRun(ctx context.Context, elfPath string, errOut io.Writer) (int32, error) {
	dir, err := os.MkdirTemp("", "rvr-run-")
	if err != nil {
		return 0, fmt.Errorf("temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	res, err := doLift(elfPath, dir, errOut)
	if err != nil {
		return 0, err
	}
	soPath := filepath.Join(dir, "guest.so")
	tc := toolchain.New(cliConfig(), logWriter(errOut))
	if err := tc.BuildShared(ctx, res.Sources, soPath); err != nil {
		return 0, err
	}

	lib, err := hostlib.Open(soPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = lib.Close() }()

	var state hostlib.State
	mem := make([]byte, res.MemWindow)
	lib.Initialize(&state, mem)
	return lib.Run(&state), nil
}

// interpRun executes the ELF under the reference interpreter over the same
// lifted IR the emitters consume.
func interpRun(elfPath string, errOut io.Writer) (int32, error) {
	cfgv := cliConfig()
	view, err := elfview.Load(elfPath)
	if err != nil {
		return 0, err
	}
	seeds, err := driver.Seeds(view, cfgv.Exports)
	if err != nil {
		return 0, err
	}

	img, err := runtimeimg.New(driver.WindowSize(view.HighWatermark()), guardPages)
	if err != nil {
		return 0, err
	}
	defer func() { _ = img.Close() }()
	for _, seg := range view.Segments {
		img.LoadSegment(seg.VirtAddr, seg.Data)
	}

	prog, err := cfg.New(img.Bytes(), view.Xlen, isa.DefaultRegistry()).Build(seeds)
	if err != nil {
		return 0, err
	}

	state := runtimeimg.NewGuestState(img)
	state.PC = view.Entry
	state.Regs[2] = img.WindowSize() - 16
	state.TohostAddr = view.TohostAddr
	state.HasTohost = view.HasTohost

	table := isa.BaremetalSyscalls()
	if cfgv.Syscalls == config.SyscallsLinux {
		table = isa.LinuxSyscalls()
	}
	return refinterp.New(prog, state, view.Xlen, table).Run()
}

// inspectSummary is the YAML record `rvr inspect` prints.
type inspectSummary struct {
	Path          string   `yaml:"path"`
	Xlen          int      `yaml:"xlen"`
	EntryPC       string   `yaml:"entry_pc"`
	Seeds         []string `yaml:"seeds"`
	Functions     int      `yaml:"functions"`
	Blocks        int      `yaml:"blocks"`
	Instructions  int      `yaml:"instructions"`
	MeanBlockSize float64  `yaml:"mean_block_size"`
	ICacheHitRate float64  `yaml:"icache_hit_rate"`
	MemWindow     string   `yaml:"mem_window"`
}

func doInspect(elfPath string, out io.Writer) error {
	cfgv := cliConfig()
	view, err := elfview.Load(elfPath)
	if err != nil {
		return err
	}
	seeds, err := driver.Seeds(view, cfgv.Exports)
	if err != nil {
		return err
	}

	window := driver.WindowSize(view.HighWatermark())
	img, err := runtimeimg.New(window, guardPages)
	if err != nil {
		return err
	}
	defer func() { _ = img.Close() }()
	for _, seg := range view.Segments {
		img.LoadSegment(seg.VirtAddr, seg.Data)
	}

	prog, err := cfg.New(img.Bytes(), view.Xlen, isa.DefaultRegistry()).Build(seeds)
	if err != nil {
		return err
	}
	report := metrics.Collect(prog)

	summary := inspectSummary{
		Path:          elfPath,
		Xlen:          int(view.Xlen),
		EntryPC:       fmt.Sprintf("0x%x", view.Entry),
		Functions:     len(prog.Functions),
		Blocks:        report.Blocks,
		Instructions:  report.Instructions,
		MeanBlockSize: report.MeanBlockSize(),
		ICacheHitRate: report.ICacheHitRate,
		MemWindow:     fmt.Sprintf("0x%x", window),
	}
	for _, s := range seeds {
		summary.Seeds = append(summary.Seeds, fmt.Sprintf("%s@0x%x", s.Name, s.PC))
	}

	enc := yaml.NewEncoder(out)
	if err := enc.Encode(&summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return enc.Close()
}
