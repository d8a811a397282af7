package emitc

import "io"

// DefaultTracerStub is the rv_tracer.h emitted when the driver has no
// caller-supplied header. It declares struct rv_state (at the offsets
// internal/emit/layout computes, which internal/hostlib.State mirrors), the
// musttail and block-calling-convention spellings, the tracer hook set as
// no-op static inlines, and every rv_* helper the expression/statement
// renderers call into.
const DefaultTracerStub = `#ifndef RV_TRACER_H
#define RV_TRACER_H

#include <stdint.h>

struct rv_state {
    uint64_t x[32];
    uint64_t pc;
    uint64_t res_addr;
    int res_valid;
    uint64_t instret;
    uint64_t cycle;
    int32_t exit_code;
    int halted;
    uint8_t *mem;
    uint64_t mem_window_size;
    uint64_t csr_addr[16];
    uint64_t csr_val[16];
    uint64_t csr_count;
    void *tracer;
};

enum {
    RV_TRAP_BREAKPOINT = 1,
    RV_TRAP_ILLEGAL = 2,
    RV_TRAP_SYSCALL = 3,
};

/* The asm backends' companion runtime defines RV_ASM_MODE: its rv_syscall
 * is called from hand-written assembly with the standard SysV sequence, so
 * the preserve_none block convention must not apply in that translation
 * unit (there are no C block functions to tail-call through either). */
#if defined(RV_ASM_MODE)
#define rv_musttail
#define rv_blockcc
#elif defined(__clang__)
#define rv_musttail [[clang::musttail]]
#define rv_blockcc __attribute__((preserve_none))
#elif defined(__GNUC__) && __GNUC__ >= 15
#define rv_musttail [[gnu::musttail]]
#define rv_blockcc
#else
#define rv_musttail
#define rv_blockcc
#endif

/* Tracer hooks. Replace this header to observe execution; every hook is
 * called at exactly the statement it reports. */
static inline void rv_trace_init(struct rv_state *state) { (void)state; }
static inline void rv_trace_fini(struct rv_state *state) { (void)state; }
static inline void rv_trace_block(struct rv_state *state, uint64_t pc) { (void)state; (void)pc; }
static inline void rv_trace_pc(struct rv_state *state, uint64_t pc) { (void)state; (void)pc; }
static inline void rv_trace_reg_read(struct rv_state *state, int reg, uint64_t value) {
    (void)state; (void)reg; (void)value;
}
static inline void rv_trace_reg_write(struct rv_state *state, int reg, uint64_t value) {
    (void)state; (void)reg; (void)value;
}
static inline void rv_trace_mem_read_byte(struct rv_state *state, uint64_t addr, uint64_t value) {
    (void)state; (void)addr; (void)value;
}
static inline void rv_trace_mem_read_halfword(struct rv_state *state, uint64_t addr, uint64_t value) {
    (void)state; (void)addr; (void)value;
}
static inline void rv_trace_mem_read_word(struct rv_state *state, uint64_t addr, uint64_t value) {
    (void)state; (void)addr; (void)value;
}
static inline void rv_trace_mem_read_dword(struct rv_state *state, uint64_t addr, uint64_t value) {
    (void)state; (void)addr; (void)value;
}
static inline void rv_trace_mem_write_byte(struct rv_state *state, uint64_t addr, uint64_t value) {
    (void)state; (void)addr; (void)value;
}
static inline void rv_trace_mem_write_halfword(struct rv_state *state, uint64_t addr, uint64_t value) {
    (void)state; (void)addr; (void)value;
}
static inline void rv_trace_mem_write_word(struct rv_state *state, uint64_t addr, uint64_t value) {
    (void)state; (void)addr; (void)value;
}
static inline void rv_trace_mem_write_dword(struct rv_state *state, uint64_t addr, uint64_t value) {
    (void)state; (void)addr; (void)value;
}
static inline void rv_trace_branch_taken(struct rv_state *state, uint64_t pc, uint64_t target) {
    (void)state; (void)pc; (void)target;
}
static inline void rv_trace_branch_not_taken(struct rv_state *state, uint64_t pc) {
    (void)state; (void)pc;
}
static inline void rv_trace_csr_read(struct rv_state *state, uint16_t csr, uint64_t value) {
    (void)state; (void)csr; (void)value;
}
static inline void rv_trace_csr_write(struct rv_state *state, uint16_t csr, uint64_t value) {
    (void)state; (void)csr; (void)value;
}

uint64_t rv_csr_read(struct rv_state *state, uint16_t csr);
void rv_csr_write(struct rv_state *state, uint16_t csr, uint64_t value);

uint64_t rv_mask(struct rv_state *state, uint64_t addr);
uint64_t rv_load8u(struct rv_state *state, uint64_t addr);
uint64_t rv_load8s(struct rv_state *state, uint64_t addr);
uint64_t rv_load16u(struct rv_state *state, uint64_t addr);
uint64_t rv_load16s(struct rv_state *state, uint64_t addr);
uint64_t rv_load32u(struct rv_state *state, uint64_t addr);
uint64_t rv_load32s(struct rv_state *state, uint64_t addr);
uint64_t rv_load64(struct rv_state *state, uint64_t addr);
void rv_store8(struct rv_state *state, uint64_t addr, uint64_t value);
void rv_store16(struct rv_state *state, uint64_t addr, uint64_t value);
void rv_store32(struct rv_state *state, uint64_t addr, uint64_t value);
void rv_store64(struct rv_state *state, uint64_t addr, uint64_t value);

int64_t rv_div64(int64_t a, int64_t b);
uint64_t rv_divu64(uint64_t a, uint64_t b);
int64_t rv_rem64(int64_t a, int64_t b);
uint64_t rv_remu64(uint64_t a, uint64_t b);
int32_t rv_divw(int32_t a, int32_t b);
uint32_t rv_divuw(uint32_t a, uint32_t b);
int32_t rv_remw(int32_t a, int32_t b);
uint32_t rv_remuw(uint32_t a, uint32_t b);

uint64_t rv_clz(uint64_t v);
uint64_t rv_ctz(uint64_t v);
uint64_t rv_orc_b(uint64_t v);
uint64_t rv_brev8(uint64_t v);
uint64_t rv_zip32(uint32_t v);
uint64_t rv_unzip32(uint32_t v);
uint64_t rv_rol(uint64_t v, uint64_t amount);
uint64_t rv_ror(uint64_t v, uint64_t amount);
uint64_t rv_pack(uint64_t a, uint64_t b);

rv_blockcc void rv_dispatch_indirect(struct rv_state *state);
rv_blockcc void rv_syscall(struct rv_state *state);
void rv_trap(struct rv_state *state, int kind);

void initialize(struct rv_state *state);
int32_t run(struct rv_state *state);

#endif /* RV_TRACER_H */
`

// WriteTracerStub writes DefaultTracerStub to w, for the driver to place
// next to the generated .c file when no caller-supplied header exists.
func WriteTracerStub(w io.Writer) error {
	_, err := io.WriteString(w, DefaultTracerStub)
	return err
}
