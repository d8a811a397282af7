package emitc

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/shuklaayush/rvr/internal/isa"
)

// Segment is one loadable region embedded into the generated artifact, so
// the produced library carries its own guest image and initialize() needs
// no ELF reader on the host side.
type Segment struct {
	Addr uint64
	Data []byte
}

// RuntimeInfo parameterizes the runtime half of the generated translation
// unit: everything initialize()/run() and the rv_* helpers need that is a
// property of the input binary rather than of any one block.
type RuntimeInfo struct {
	Xlen       isa.Xlen
	MemWindow  uint64
	EntryPC    uint64
	InitialSP  uint64
	InitialBrk uint64
	Segments   []Segment
	Syscalls   map[int64]isa.SyscallEntry
	TohostAddr uint64
	HasTohost  bool

	// AsmMode emits the runtime as a standalone companion file for the
	// assembly backends: its own includes, a plain-return rv_syscall (the
	// asm re-enters its own dispatcher), and a run() that calls the asm
	// entry symbol instead of the C dispatch table.
	AsmMode bool
}

// EmitRuntime writes the runtime support half of the artifact: memory
// helpers with tracer hooks and HTIF interception, the M-extension and
// bit-manipulation helper functions, CSR scratch storage, the trap and
// syscall entry points, the embedded segment images, and the exported
// initialize()/run() pair. In C mode the output
// is appended to the same file EmitProgram wrote; in AsmMode it is a
// self-contained companion .c compiled next to the .s files.
func EmitRuntime(w io.Writer, info RuntimeInfo) error {
	e := &emitter{w: bufio.NewWriter(w), xlen: info.Xlen}

	if info.AsmMode {
		e.write("/* generated by rvr -- do not edit */\n")
		e.write("#define RV_ASM_MODE 1\n")
		e.write("#include <stdint.h>\n")
		e.write("#include \"rv_tracer.h\"\n")
	}
	e.write("#include <string.h>\n")
	if hasNamed(info.Syscalls) {
		e.write("#include <errno.h>\n")
		e.write("#include <unistd.h>\n")
		e.write("#include <sys/time.h>\n")
	}
	e.write("\n")

	e.emitMemHelpers(info)
	e.emitArithHelpers()
	e.emitBitHelpers()
	e.emitCsrHelpers()
	e.emitTrap()
	e.emitSyscalls(info)
	e.emitSegments(info)
	e.emitInitialize(info)
	e.emitRun(info)

	return e.w.Flush()
}

func hasNamed(table map[int64]isa.SyscallEntry) bool {
	for _, entry := range table {
		if entry.Kind == isa.SyscallNamed {
			return true
		}
	}
	return false
}

// emitMemHelpers writes rv_mask and the load/store family. Loads and
// stores take guest addresses, mask them into the memory window, and fire
// the matching tracer hook with the pre-mask address so a tracer sees the
// guest's own view. Every store conservatively invalidates the LR/SC
// reservation (any-store-clears is a legal tightening of the reservation
// state machine), and the word/doubleword stores
// intercept the HTIF tohost mailbox when the input binary declares one.
func (e *emitter) emitMemHelpers(info RuntimeInfo) {
	e.write("uint64_t rv_mask(struct rv_state *state, uint64_t addr) {\n")
	e.write("    return addr % state->mem_window_size;\n")
	e.write("}\n\n")

	if info.HasTohost {
		e.writef("static int rv_htif_store(struct rv_state *state, uint64_t addr, uint64_t value) {\n")
		e.writef("    if (rv_mask(state, addr) != rv_mask(state, UINT64_C(%#x))) {\n", info.TohostAddr)
		e.write("        return 0;\n")
		e.write("    }\n")
		e.write("    state->exit_code = (value == 1) ? 0 : (int32_t)value;\n")
		e.write("    state->halted = 1;\n")
		e.write("    return 1;\n")
		e.write("}\n\n")
	}

	loads := []struct {
		name, ctype, hook string
		cast              string
	}{
		{"rv_load8u", "uint8_t", "rv_trace_mem_read_byte", "(uint64_t)"},
		{"rv_load8s", "uint8_t", "rv_trace_mem_read_byte", "(uint64_t)(int64_t)(int8_t)"},
		{"rv_load16u", "uint16_t", "rv_trace_mem_read_halfword", "(uint64_t)"},
		{"rv_load16s", "uint16_t", "rv_trace_mem_read_halfword", "(uint64_t)(int64_t)(int16_t)"},
		{"rv_load32u", "uint32_t", "rv_trace_mem_read_word", "(uint64_t)"},
		{"rv_load32s", "uint32_t", "rv_trace_mem_read_word", "(uint64_t)(int64_t)(int32_t)"},
		{"rv_load64", "uint64_t", "rv_trace_mem_read_dword", ""},
	}
	for _, l := range loads {
		e.writef("uint64_t %s(struct rv_state *state, uint64_t addr) {\n", l.name)
		e.writef("    %s v;\n", l.ctype)
		e.write("    memcpy(&v, state->mem + rv_mask(state, addr), sizeof v);\n")
		e.writef("    %s(state, addr, (uint64_t)v);\n", l.hook)
		e.writef("    return %sv;\n", l.cast)
		e.write("}\n\n")
	}

	stores := []struct {
		name, ctype, hook string
		htif              bool
	}{
		{"rv_store8", "uint8_t", "rv_trace_mem_write_byte", false},
		{"rv_store16", "uint16_t", "rv_trace_mem_write_halfword", false},
		{"rv_store32", "uint32_t", "rv_trace_mem_write_word", true},
		{"rv_store64", "uint64_t", "rv_trace_mem_write_dword", true},
	}
	for _, s := range stores {
		e.writef("void %s(struct rv_state *state, uint64_t addr, uint64_t value) {\n", s.name)
		e.write("    state->res_valid = 0;\n")
		e.writef("    %s(state, addr, value);\n", s.hook)
		if info.HasTohost && s.htif {
			e.write("    if (rv_htif_store(state, addr, value)) {\n")
			e.write("        return;\n")
			e.write("    }\n")
		}
		e.writef("    %s v = (%s)value;\n", s.ctype, s.ctype)
		e.write("    memcpy(state->mem + rv_mask(state, addr), &v, sizeof v);\n")
		e.write("}\n\n")
	}
}

// emitArithHelpers writes the division and remainder helpers with RISC-V's
// fixed edge-case results: divide-by-zero yields all-ones (div) or the
// dividend (rem), and the signed-overflow pair INT_MIN/-1 yields INT_MIN
// and 0 rather than faulting.
func (e *emitter) emitArithHelpers() {
	e.write("int64_t rv_div64(int64_t a, int64_t b) {\n")
	e.write("    if (b == 0) { return -1; }\n")
	e.write("    if (a == INT64_MIN && b == -1) { return a; }\n")
	e.write("    return a / b;\n")
	e.write("}\n\n")

	e.write("uint64_t rv_divu64(uint64_t a, uint64_t b) {\n")
	e.write("    return b == 0 ? UINT64_MAX : a / b;\n")
	e.write("}\n\n")

	e.write("int64_t rv_rem64(int64_t a, int64_t b) {\n")
	e.write("    if (b == 0) { return a; }\n")
	e.write("    if (a == INT64_MIN && b == -1) { return 0; }\n")
	e.write("    return a % b;\n")
	e.write("}\n\n")

	e.write("uint64_t rv_remu64(uint64_t a, uint64_t b) {\n")
	e.write("    return b == 0 ? a : a % b;\n")
	e.write("}\n\n")

	e.write("int32_t rv_divw(int32_t a, int32_t b) {\n")
	e.write("    if (b == 0) { return -1; }\n")
	e.write("    if (a == INT32_MIN && b == -1) { return a; }\n")
	e.write("    return a / b;\n")
	e.write("}\n\n")

	e.write("uint32_t rv_divuw(uint32_t a, uint32_t b) {\n")
	e.write("    return b == 0 ? UINT32_MAX : a / b;\n")
	e.write("}\n\n")

	e.write("int32_t rv_remw(int32_t a, int32_t b) {\n")
	e.write("    if (b == 0) { return a; }\n")
	e.write("    if (a == INT32_MIN && b == -1) { return 0; }\n")
	e.write("    return a % b;\n")
	e.write("}\n\n")

	e.write("uint32_t rv_remuw(uint32_t a, uint32_t b) {\n")
	e.write("    return b == 0 ? a : a % b;\n")
	e.write("}\n\n")
}

func (e *emitter) emitBitHelpers() {
	e.write("uint64_t rv_clz(uint64_t v) {\n")
	e.write("    return v == 0 ? 64 : (uint64_t)__builtin_clzll(v);\n")
	e.write("}\n\n")

	e.write("uint64_t rv_ctz(uint64_t v) {\n")
	e.write("    return v == 0 ? 64 : (uint64_t)__builtin_ctzll(v);\n")
	e.write("}\n\n")

	e.write("uint64_t rv_orc_b(uint64_t v) {\n")
	e.write("    uint64_t out = 0;\n")
	e.write("    for (int i = 0; i < 64; i += 8) {\n")
	e.write("        if ((v >> i) & 0xff) {\n")
	e.write("            out |= UINT64_C(0xff) << i;\n")
	e.write("        }\n")
	e.write("    }\n")
	e.write("    return out;\n")
	e.write("}\n\n")

	e.write("uint64_t rv_brev8(uint64_t v) {\n")
	e.write("    v = ((v & UINT64_C(0x5555555555555555)) << 1) | ((v >> 1) & UINT64_C(0x5555555555555555));\n")
	e.write("    v = ((v & UINT64_C(0x3333333333333333)) << 2) | ((v >> 2) & UINT64_C(0x3333333333333333));\n")
	e.write("    v = ((v & UINT64_C(0x0f0f0f0f0f0f0f0f)) << 4) | ((v >> 4) & UINT64_C(0x0f0f0f0f0f0f0f0f));\n")
	e.write("    return v;\n")
	e.write("}\n\n")

	e.write("uint64_t rv_zip32(uint32_t v) {\n")
	e.write("    uint32_t out = 0;\n")
	e.write("    for (int i = 0; i < 16; i++) {\n")
	e.write("        out |= ((v >> i) & 1u) << (2 * i);\n")
	e.write("        out |= ((v >> (i + 16)) & 1u) << (2 * i + 1);\n")
	e.write("    }\n")
	e.write("    return out;\n")
	e.write("}\n\n")

	e.write("uint64_t rv_unzip32(uint32_t v) {\n")
	e.write("    uint32_t out = 0;\n")
	e.write("    for (int i = 0; i < 16; i++) {\n")
	e.write("        out |= ((v >> (2 * i)) & 1u) << i;\n")
	e.write("        out |= ((v >> (2 * i + 1)) & 1u) << (i + 16);\n")
	e.write("    }\n")
	e.write("    return out;\n")
	e.write("}\n\n")

	e.write("uint64_t rv_rol(uint64_t v, uint64_t amount) {\n")
	e.write("    return (v << (amount & 63)) | (v >> ((64 - amount) & 63));\n")
	e.write("}\n\n")

	e.write("uint64_t rv_ror(uint64_t v, uint64_t amount) {\n")
	e.write("    return (v >> (amount & 63)) | (v << ((64 - amount) & 63));\n")
	e.write("}\n\n")

	e.write("uint64_t rv_pack(uint64_t a, uint64_t b) {\n")
	e.write("    return (uint64_t)(uint32_t)a | ((uint64_t)(uint32_t)b << 32);\n")
	e.write("}\n\n")
}

// emitCsrHelpers writes the CSR scratch storage: cycle and instret map to
// their dedicated state fields, everything else linearly probes the
// csr_addr/csr_val arrays; a small scratch set suffices for the CSRs
// user-mode binaries actually touch. Writes to the
// architecturally read-only 0xCxx range are ignored.
func (e *emitter) emitCsrHelpers() {
	e.write("uint64_t rv_csr_read(struct rv_state *state, uint16_t csr) {\n")
	e.write("    uint64_t v = 0;\n")
	e.write("    switch (csr) {\n")
	e.writef("    case 0x%x:\n", isa.CsrCycle)
	e.write("        v = state->cycle;\n")
	e.write("        break;\n")
	e.writef("    case 0x%x:\n", isa.CsrTime)
	e.write("        v = state->cycle;\n")
	e.write("        break;\n")
	e.writef("    case 0x%x:\n", isa.CsrInstret)
	e.write("        v = state->instret;\n")
	e.write("        break;\n")
	e.write("    default:\n")
	e.write("        for (uint64_t i = 0; i < state->csr_count; i++) {\n")
	e.write("            if (state->csr_addr[i] == csr) {\n")
	e.write("                v = state->csr_val[i];\n")
	e.write("                break;\n")
	e.write("            }\n")
	e.write("        }\n")
	e.write("        break;\n")
	e.write("    }\n")
	e.write("    rv_trace_csr_read(state, csr, v);\n")
	e.write("    return v;\n")
	e.write("}\n\n")

	e.write("void rv_csr_write(struct rv_state *state, uint16_t csr, uint64_t value) {\n")
	e.write("    if ((csr & 0xc00) == 0xc00) {\n")
	e.write("        return; /* read-only range: writes are ignored */\n")
	e.write("    }\n")
	e.write("    rv_trace_csr_write(state, csr, value);\n")
	e.write("    for (uint64_t i = 0; i < state->csr_count; i++) {\n")
	e.write("        if (state->csr_addr[i] == csr) {\n")
	e.write("            state->csr_val[i] = value;\n")
	e.write("            return;\n")
	e.write("        }\n")
	e.write("    }\n")
	e.write("    if (state->csr_count < 16) {\n")
	e.write("        state->csr_addr[state->csr_count] = csr;\n")
	e.write("        state->csr_val[state->csr_count] = value;\n")
	e.write("        state->csr_count++;\n")
	e.write("    }\n")
	e.write("}\n\n")
}

// emitTrap writes rv_trap: traps halt the guest with a negative exit code
// distinguishing the trap kind, and record the faulting PC in state->pc
// (already stored by the trapping block's terminator) for the host to
// report.
func (e *emitter) emitTrap() {
	e.write("void rv_trap(struct rv_state *state, int kind) {\n")
	e.write("    state->exit_code = -kind;\n")
	e.write("    state->halted = 1;\n")
	e.write("}\n\n")
}

// emitSyscalls writes the rv_sys_* host shims for every named entry in the
// active table, then rv_syscall itself: a switch on a7 following the
// exit/named/unknown trichotomy. Named entries follow
// the Linux negative-errno return convention into a0. In C mode a
// non-halting syscall tail-calls back through the dispatch table; in
// AsmMode it plain-returns and the assembly re-enters its own dispatcher.
func (e *emitter) emitSyscalls(info RuntimeInfo) {
	nums := make([]int64, 0, len(info.Syscalls))
	for n := range info.Syscalls {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	for _, n := range nums {
		e.emitSyscallImpl(info, info.Syscalls[n])
	}

	e.write("rv_blockcc void rv_syscall(struct rv_state *state) {\n")
	e.write("    switch ((int64_t)state->x[17]) {\n")
	for _, n := range nums {
		entry := info.Syscalls[n]
		e.writef("    case %d:\n", n)
		switch entry.Kind {
		case isa.SyscallExit:
			e.write("        state->exit_code = (int32_t)state->x[10];\n")
			e.write("        state->halted = 1;\n")
			e.write("        return;\n")
		case isa.SyscallNamed:
			args := "state"
			for i := 0; i < entry.Arity; i++ {
				args += fmt.Sprintf(", state->x[%d]", 10+i)
			}
			e.writef("        state->x[10] = (uint64_t)%s(%s);\n", entry.Name, args)
			e.write("        break;\n")
		}
	}
	e.write("    default:\n")
	e.write("        rv_trap(state, RV_TRAP_SYSCALL);\n")
	e.write("        return;\n")
	e.write("    }\n")
	if info.AsmMode {
		e.write("}\n\n")
	} else {
		e.write("    rv_musttail return rv_dispatch_indirect(state);\n")
		e.write("}\n\n")
	}
}

func (e *emitter) emitSyscallImpl(info RuntimeInfo, entry isa.SyscallEntry) {
	switch entry.Name {
	case "rv_sys_read":
		e.write("static int64_t rv_sys_read(struct rv_state *state, uint64_t fd, uint64_t buf, uint64_t count) {\n")
		e.write("    ssize_t n = read((int)fd, state->mem + rv_mask(state, buf), (size_t)count);\n")
		e.write("    return n < 0 ? -(int64_t)errno : (int64_t)n;\n")
		e.write("}\n\n")

	case "rv_sys_write":
		e.write("static int64_t rv_sys_write(struct rv_state *state, uint64_t fd, uint64_t buf, uint64_t count) {\n")
		e.write("    ssize_t n = write((int)fd, state->mem + rv_mask(state, buf), (size_t)count);\n")
		e.write("    return n < 0 ? -(int64_t)errno : (int64_t)n;\n")
		e.write("}\n\n")

	case "rv_sys_fstat":
		e.write("static int64_t rv_sys_fstat(struct rv_state *state, uint64_t fd, uint64_t statbuf) {\n")
		e.write("    if (fd > 2) { return -EBADF; }\n")
		e.write("    memset(state->mem + rv_mask(state, statbuf), 0, 128);\n")
		e.write("    uint32_t mode = 0x2190; /* S_IFCHR | 0620 */\n")
		e.write("    memcpy(state->mem + rv_mask(state, statbuf + 16), &mode, sizeof mode);\n")
		e.write("    return 0;\n")
		e.write("}\n\n")

	case "rv_sys_gettimeofday":
		e.write("static int64_t rv_sys_gettimeofday(struct rv_state *state, uint64_t tv, uint64_t tz) {\n")
		e.write("    struct timeval host;\n")
		e.write("    (void)tz;\n")
		e.write("    if (gettimeofday(&host, 0) != 0) { return -(int64_t)errno; }\n")
		e.write("    uint64_t sec = (uint64_t)host.tv_sec;\n")
		e.write("    uint64_t usec = (uint64_t)host.tv_usec;\n")
		e.write("    memcpy(state->mem + rv_mask(state, tv), &sec, sizeof sec);\n")
		e.write("    memcpy(state->mem + rv_mask(state, tv + 8), &usec, sizeof usec);\n")
		e.write("    return 0;\n")
		e.write("}\n\n")

	case "rv_sys_brk":
		e.writef("static uint64_t rv_brk_cur = UINT64_C(%#x);\n\n", info.InitialBrk)
		e.write("static int64_t rv_sys_brk(struct rv_state *state, uint64_t addr) {\n")
		e.write("    if (addr != 0 && addr < state->mem_window_size) {\n")
		e.write("        rv_brk_cur = addr;\n")
		e.write("    }\n")
		e.write("    return (int64_t)rv_brk_cur;\n")
		e.write("}\n\n")
	}
}

// emitSegments writes each loadable segment as a byte array plus the copy
// loop initialize() runs. BSS-style segments with an all-zero tail rely on
// the host mmap being zero-filled, so only file-backed bytes are embedded.
func (e *emitter) emitSegments(info RuntimeInfo) {
	for i, seg := range info.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		e.writef("static const uint8_t rv_seg_%d[%d] = {", i, len(seg.Data))
		for j, b := range seg.Data {
			if j%12 == 0 {
				e.write("\n    ")
			}
			e.writef("0x%02x, ", b)
		}
		e.write("\n};\n\n")
	}
}

// emitInitialize writes the exported initialize(): copy the embedded
// segments into the caller-provided memory window, seed PC, the stack
// pointer, and the reservation/CSR scratch state, and fire rv_trace_init.
func (e *emitter) emitInitialize(info RuntimeInfo) {
	e.write("void initialize(struct rv_state *state) {\n")
	e.writef("    state->mem_window_size = UINT64_C(%#x);\n", info.MemWindow)
	for i, seg := range info.Segments {
		if len(seg.Data) == 0 {
			continue
		}
		e.writef("    memcpy(state->mem + rv_mask(state, UINT64_C(%#x)), rv_seg_%d, sizeof rv_seg_%d);\n",
			seg.Addr, i, i)
	}
	e.writef("    state->pc = UINT64_C(%#x);\n", info.EntryPC)
	if info.InitialSP != 0 {
		e.writef("    state->x[2] = UINT64_C(%#x);\n", info.InitialSP)
	}
	e.write("    state->res_valid = 0;\n")
	e.write("    state->csr_count = 0;\n")
	e.write("    state->halted = 0;\n")
	e.write("    rv_trace_init(state);\n")
	e.write("}\n\n")
}

// emitRun writes the exported run(): enter the translated code at
// state->pc, and once the tail-call chain unwinds on halt or trap, fire
// rv_trace_fini and hand back the guest exit code.
func (e *emitter) emitRun(info RuntimeInfo) {
	if info.AsmMode {
		e.write("extern void rv_asm_run(struct rv_state *state);\n\n")
	}
	e.write("int32_t run(struct rv_state *state) {\n")
	if info.AsmMode {
		e.write("    rv_asm_run(state);\n")
	} else {
		e.write("    rv_dispatch_indirect(state);\n")
	}
	e.write("    rv_trace_fini(state);\n")
	e.write("    return state->exit_code;\n")
	e.write("}\n")
}
