package isa

// CSR addresses for the handful of unprivileged CSRs this tier supports.
const (
	CsrCycle    uint16 = 0xc00
	CsrTime     uint16 = 0xc01
	CsrInstret  uint16 = 0xc02
	CsrCycleH   uint16 = 0xc80 // RV32 only: high 32 bits
	CsrTimeH    uint16 = 0xc81
	CsrInstretH uint16 = 0xc82
)

// ReadOnly reports whether a CSR commits writes. cycle, time, and instret
// are read-only shadows of the instret counter at this translation tier;
// a write to a read-only CSR is ignored.
func ReadOnly(csr uint16) bool {
	switch csr {
	case CsrCycle, CsrTime, CsrInstret, CsrCycleH, CsrTimeH, CsrInstretH:
		return true
	default:
		return false
	}
}
