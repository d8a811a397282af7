// Package layout fixes the byte offsets of every field in the guest-state
// record the emitted artifacts address directly. The C backend declares
// struct rv_state field for field in this order (internal/emit/c's stub
// header); the asm backends address the same fields by these offsets
// relative to the state pointer.
package layout

// struct rv_state field offsets, in declaration order. uint64_t fields are
// 8-aligned; the lone int res_valid after res_addr is padded out to 8 bytes
// and the exit_code/halted pair packs into one 8-byte unit, which is why
// Instret lands at 280, not 276.
const (
	OffRegs     = 0   // uint64_t x[32]
	OffPC       = 256 // uint64_t pc
	OffResAddr  = 264 // uint64_t res_addr
	OffResValid = 272 // int res_valid (+4 bytes padding)
	OffInstret  = 280 // uint64_t instret
	OffCycle    = 288 // uint64_t cycle
	OffExitCode = 296 // int32_t exit_code
	OffHalted   = 300 // int halted
	OffMem      = 304 // uint8_t *mem
	OffMemSize  = 312 // uint64_t mem_window_size
	OffCsrAddr  = 320 // uint64_t csr_addr[16]
	OffCsrVal   = 448 // uint64_t csr_val[16]
	OffCsrCount = 576 // uint64_t csr_count
	OffTracer   = 584 // void *tracer

	// Size is sizeof(struct rv_state). The asm backends only address fields
	// up to mem_window_size directly; the CSR scratch arrays and the tracer
	// pointer are reached through the rv_csr_* and rv_trace_* C helpers.
	Size = 592
)

// RegOffset returns the state-record offset of guest register reg.
func RegOffset(reg uint8) int {
	return OffRegs + int(reg)*8
}
