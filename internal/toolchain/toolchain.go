// Package toolchain drives the host C compiler and assembler over the
// sources a translation produced, turning them into the loadable shared
// library the runtime contract promises. Tool failures surface the tool's stderr
// verbatim through rvrerr.ToolchainFailure so a caller sees exactly what
// the compiler saw.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shuklaayush/rvr/internal/config"
	"github.com/shuklaayush/rvr/internal/rvrerr"
)

// Toolchain wraps the configured host tools. The zero value is not usable;
// construct with New.
type Toolchain struct {
	cc  string
	as  string
	log io.Writer
}

// New picks the tool paths out of cfg (already layered with the RVR_CC /
// RVR_AS environment overrides by config.FromEnvironment).
func New(cfg config.Config, logw io.Writer) *Toolchain {
	if logw == nil {
		logw = io.Discard
	}
	return &Toolchain{cc: cfg.HostCC, as: cfg.HostAS, log: logw}
}

// BuildShared compiles and links sources into a shared library at out.
// Assembly sources go through the assembler first; everything else is handed
// to the C compiler, which also performs the final link.
func (t *Toolchain) BuildShared(ctx context.Context, sources []string, out string) error {
	var linkInputs, includeDirs []string
	seenDir := map[string]bool{}
	for _, src := range sources {
		if dir := filepath.Dir(src); !seenDir[dir] {
			seenDir[dir] = true
			includeDirs = append(includeDirs, dir)
		}
		if filepath.Ext(src) != ".s" {
			linkInputs = append(linkInputs, src)
			continue
		}
		obj := strings.TrimSuffix(src, ".s") + ".o"
		if err := t.Assemble(ctx, src, obj); err != nil {
			return err
		}
		linkInputs = append(linkInputs, obj)
	}

	args := []string{"-O2", "-fno-strict-aliasing", "-shared", "-fPIC"}
	for _, dir := range includeDirs {
		args = append(args, "-I", dir)
	}
	args = append(args, "-o", out)
	args = append(args, linkInputs...)
	return t.run(ctx, t.cc, args)
}

// Assemble runs the host assembler over one .s file.
func (t *Toolchain) Assemble(ctx context.Context, src, obj string) error {
	return t.run(ctx, t.as, []string{"-o", obj, src})
}

func (t *Toolchain) run(ctx context.Context, tool string, args []string) error {
	fmt.Fprintf(t.log, "rvr: %s %s\n", tool, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", tool, ctx.Err())
		}
		return rvrerr.ToolchainFailure(tool, stderr.String())
	}
	if stderr.Len() > 0 {
		_, _ = io.Copy(t.log, &stderr)
	}
	return nil
}
