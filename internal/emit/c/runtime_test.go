package emitc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shuklaayush/rvr/internal/isa"
)

func emitRuntimeString(t *testing.T, info RuntimeInfo) string {
	t.Helper()
	var buf bytes.Buffer
	if err := EmitRuntime(&buf, info); err != nil {
		t.Fatalf("EmitRuntime: %v", err)
	}
	return buf.String()
}

func baseInfo() RuntimeInfo {
	return RuntimeInfo{
		Xlen:      isa.XLEN64,
		MemWindow: 1 << 20,
		EntryPC:   0x1000,
		InitialSP: 1<<20 - 16,
		Segments:  []Segment{{Addr: 0x1000, Data: []byte{0x13, 0x05, 0xa0, 0x02}}},
		Syscalls:  isa.BaremetalSyscalls(),
	}
}

func TestEmitRuntimeInitializeSeedsState(t *testing.T) {
	got := emitRuntimeString(t, baseInfo())

	for _, want := range []string{
		"void initialize(struct rv_state *state)",
		"state->mem_window_size = UINT64_C(0x100000);",
		"memcpy(state->mem + rv_mask(state, UINT64_C(0x1000)), rv_seg_0, sizeof rv_seg_0);",
		"state->pc = UINT64_C(0x1000);",
		"state->x[2] = UINT64_C(0xffff0);",
		"state->res_valid = 0;",
		"rv_trace_init(state);",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("initialize() missing %q", want)
		}
	}
}

func TestEmitRuntimeRunDispatchesInC(t *testing.T) {
	got := emitRuntimeString(t, baseInfo())
	if !strings.Contains(got, "rv_dispatch_indirect(state);") {
		t.Error("C-mode run() should enter the dispatch table")
	}
	if strings.Contains(got, "rv_asm_run") {
		t.Error("C-mode runtime must not reference the asm entry symbol")
	}
	if !strings.Contains(got, "rv_trace_fini(state);") {
		t.Error("run() should fire rv_trace_fini before returning")
	}
}

func TestEmitRuntimeAsmModeIsStandalone(t *testing.T) {
	info := baseInfo()
	info.AsmMode = true
	got := emitRuntimeString(t, info)

	for _, want := range []string{
		"#define RV_ASM_MODE 1",
		"#include \"rv_tracer.h\"",
		"extern void rv_asm_run(struct rv_state *state);",
		"rv_asm_run(state);",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("asm-mode runtime missing %q", want)
		}
	}
	if strings.Contains(got, "rv_musttail") {
		t.Error("asm-mode rv_syscall must plain-return, not tail-call the C dispatcher")
	}
}

func TestEmitRuntimeBaremetalTrapsUnknownSyscalls(t *testing.T) {
	got := emitRuntimeString(t, baseInfo())
	if !strings.Contains(got, "case 93:") {
		t.Error("exit syscall case missing")
	}
	if !strings.Contains(got, "rv_trap(state, RV_TRAP_SYSCALL);") {
		t.Error("unknown syscalls should trap")
	}
	if strings.Contains(got, "rv_sys_write") {
		t.Error("baremetal table must not emit the Linux host shims")
	}
}

func TestEmitRuntimeLinuxTableEmitsHostShims(t *testing.T) {
	info := baseInfo()
	info.Syscalls = isa.LinuxSyscalls()
	info.InitialBrk = 0x2000
	got := emitRuntimeString(t, info)

	for _, want := range []string{
		"#include <unistd.h>",
		"static int64_t rv_sys_write(struct rv_state *state",
		"static int64_t rv_sys_read(struct rv_state *state",
		"static int64_t rv_sys_brk(struct rv_state *state",
		"rv_brk_cur = UINT64_C(0x2000);",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("linux runtime missing %q", want)
		}
	}
}

func TestEmitRuntimeHtifInterceptsWideStores(t *testing.T) {
	info := baseInfo()
	info.HasTohost = true
	info.TohostAddr = 0x80001000
	got := emitRuntimeString(t, info)

	if !strings.Contains(got, "rv_htif_store") {
		t.Fatal("tohost mailbox helper missing")
	}
	if !strings.Contains(got, "state->exit_code = (value == 1) ? 0 : (int32_t)value;") {
		t.Error("HTIF exit mapping missing")
	}

	// Only word and doubleword stores check the mailbox.
	store8 := got[strings.Index(got, "void rv_store8"):]
	store8 = store8[:strings.Index(store8, "\n}\n")]
	if strings.Contains(store8, "rv_htif_store") {
		t.Error("byte stores must not intercept tohost")
	}
	store32 := got[strings.Index(got, "void rv_store32"):]
	store32 = store32[:strings.Index(store32, "\n}\n")]
	if !strings.Contains(store32, "rv_htif_store") {
		t.Error("word stores must intercept tohost")
	}
}

func TestEmitRuntimeDivHelpersFollowRiscvContract(t *testing.T) {
	got := emitRuntimeString(t, baseInfo())
	for _, want := range []string{
		"if (b == 0) { return -1; }",
		"if (a == INT64_MIN && b == -1) { return a; }",
		"return b == 0 ? a : a % b;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("arith helpers missing %q", want)
		}
	}
}

func TestEmitRuntimeCsrReadOnlyRangeIgnored(t *testing.T) {
	got := emitRuntimeString(t, baseInfo())
	if !strings.Contains(got, "if ((csr & 0xc00) == 0xc00)") {
		t.Error("read-only CSR range guard missing")
	}
	if !strings.Contains(got, "v = state->instret;") {
		t.Error("instret CSR should read the dedicated counter")
	}
}
