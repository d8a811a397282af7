package e2e_test

import (
	"encoding/binary"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shuklaayush/rvr/internal/cfg"
	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/refinterp"
	"github.com/shuklaayush/rvr/internal/runtimeimg"
	"github.com/shuklaayush/rvr/internal/rvrerr"
)

// Encoder helpers for the RV64 subset the scenarios need. Each returns the
// canonical 32-bit encoding.

// encodeI encodes an I-type instruction (addi, lw, jalr, ...).
func encodeI(opcode, funct3 uint32, rd, rs1 uint8, imm int32) uint32 {
	return uint32(imm&0xfff)<<20 | uint32(rs1)<<15 | funct3<<12 | uint32(rd)<<7 | opcode
}

// encodeR encodes an R-type instruction (add, sub, ...).
func encodeR(funct7, funct3 uint32, rd, rs1, rs2 uint8) uint32 {
	return funct7<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | funct3<<12 | uint32(rd)<<7 | 0x33
}

// encodeB encodes a B-type branch with a byte offset relative to the branch.
func encodeB(funct3 uint32, rs1, rs2 uint8, offset int32) uint32 {
	imm := uint32(offset)
	return (imm>>12&1)<<31 | (imm>>5&0x3f)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		funct3<<12 | (imm>>1&0xf)<<8 | (imm>>11&1)<<7 | 0x63
}

// encodeJAL encodes a J-type jump with a byte offset relative to the jump.
func encodeJAL(rd uint8, offset int32) uint32 {
	imm := uint32(offset)
	return (imm>>20&1)<<31 | (imm>>1&0x3ff)<<21 | (imm>>11&1)<<20 | (imm>>12&0xff)<<12 |
		uint32(rd)<<7 | 0x6f
}

// encodeS encodes an S-type store.
func encodeS(funct3 uint32, rs1, rs2 uint8, offset int32) uint32 {
	imm := uint32(offset)
	return (imm>>5&0x7f)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | funct3<<12 |
		(imm&0x1f)<<7 | 0x23
}

func addi(rd, rs1 uint8, imm int32) uint32 { return encodeI(0x13, 0, rd, rs1, imm) }
func add(rd, rs1, rs2 uint8) uint32        { return encodeR(0, 0, rd, rs1, rs2) }
func lw(rd, rs1 uint8, off int32) uint32   { return encodeI(0x03, 2, rd, rs1, off) }
func sw(rs1, rs2 uint8, off int32) uint32  { return encodeS(2, rs1, rs2, off) }
func beq(rs1, rs2 uint8, off int32) uint32 { return encodeB(0, rs1, rs2, off) }
func jal(rd uint8, off int32) uint32       { return encodeJAL(rd, off) }
func jalr(rd, rs1 uint8, off int32) uint32 { return encodeI(0x67, 0, rd, rs1, off) }
func lui(rd uint8, imm20 int32) uint32     { return uint32(imm20)<<12 | uint32(rd)<<7 | 0x37 }
func auipc(rd uint8, imm20 int32) uint32   { return uint32(imm20)<<12 | uint32(rd)<<7 | 0x17 }
func ecall() uint32                        { return 0x00000073 }

func lrW(rd, rs1 uint8) uint32 {
	return 0x1000202f | uint32(rs1)<<15 | uint32(rd)<<7
}

func scW(rd, rs1, rs2 uint8) uint32 {
	return 0x1800202f | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(rd)<<7
}

func amoswapW(rd, rs1, rs2 uint8) uint32 {
	return 0x0800202f | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(rd)<<7
}

// exitSequence is the three-instruction epilogue: a0 = codeReg, a7 = 93,
// ecall.
func exitSequence(codeReg uint8) []uint32 {
	return []uint32{addi(10, codeReg, 0), addi(17, 0, 93), ecall()}
}

const codeBase = 0x1000

// loadProgram places words at codeBase in a fresh guest image and lifts it.
func loadProgram(words []uint32) (*runtimeimg.Image, *cfg.Analyzer) {
	img, err := runtimeimg.New(1<<20, 1)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() { _ = img.Close() })

	code := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(code[4*i:], w)
	}
	img.LoadSegment(codeBase, code)
	return img, cfg.New(img.Bytes(), isa.XLEN64, isa.DefaultRegistry())
}

func runProgram(words []uint32) (int32, *runtimeimg.GuestState, error) {
	img, analyzer := loadProgram(words)
	prog, err := analyzer.Build([]cfg.Seed{{Name: "_start", PC: codeBase}})
	Expect(err).NotTo(HaveOccurred())

	state := runtimeimg.NewGuestState(img)
	state.PC = codeBase
	code, runErr := refinterp.New(prog, state, isa.XLEN64, isa.BaremetalSyscalls()).Run()
	return code, state, runErr
}

// fibProgram computes fib(10) iteratively and exits with the result:
// 3 setup instructions, a 6-instruction loop body run 10 times, the final
// loop test, and the 3-instruction exit epilogue.
func fibProgram() []uint32 {
	words := []uint32{
		addi(5, 0, 10), // t0 = n
		addi(6, 0, 0),  // t1 = fib(0)
		addi(7, 0, 1),  // t2 = fib(1)
		// loop:
		beq(5, 0, 24),  // while t0 != 0 (to done)
		add(28, 6, 7),  // t3 = t1 + t2
		addi(6, 7, 0),  // t1 = t2
		addi(7, 28, 0), // t2 = t3
		addi(5, 5, -1),
		jal(0, -20), // back to loop
		// done:
	}
	return append(words, exitSequence(6)...)
}

var _ = Describe("Fibonacci", func() {
	It("exits with fib(10) and the exact instruction count", func() {
		code, state, err := runProgram(fibProgram())
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(int32(55)))
		// 3 setup + 10 iterations of 6 + the final not-taken test + 3 exit.
		Expect(state.Instret).To(Equal(uint64(67)))
		Expect(state.Halted).To(BeTrue())
	})
})

// recordingTracer counts the observability events the hooks fire.
type recordingTracer struct {
	pcs       []uint64
	regWrites int
	zeroWrite bool
}

func (t *recordingTracer) TraceInstr(pc uint64) { t.pcs = append(t.pcs, pc) }
func (t *recordingTracer) TraceRegWrite(reg uint8, _ uint64) {
	if reg == 0 {
		t.zeroWrite = true
	}
	t.regWrites++
}

var _ = Describe("Tracer observability", func() {
	It("records one trace_pc per executed instruction and one reg write per non-zero destination", func() {
		img, analyzer := loadProgram(fibProgram())
		prog, err := analyzer.Build([]cfg.Seed{{Name: "_start", PC: codeBase}})
		Expect(err).NotTo(HaveOccurred())

		state := runtimeimg.NewGuestState(img)
		state.PC = codeBase
		in := refinterp.New(prog, state, isa.XLEN64, isa.BaremetalSyscalls())
		tracer := &recordingTracer{}
		in.Tracer = tracer

		_, err = in.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(tracer.pcs).To(HaveLen(int(state.Instret)))
		// 3 setup writes, 4 per iteration, and the two epilogue moves; the
		// jal x0 link writes must never be observed.
		Expect(tracer.regWrites).To(Equal(45))
		Expect(tracer.zeroWrite).To(BeFalse())
	})
})

const tohostAddr = 0x2000

// withTohost runs words with an HTIF mailbox declared at tohostAddr.
func withTohost(words []uint32) (int32, *runtimeimg.GuestState, error) {
	img, analyzer := loadProgram(words)
	prog, err := analyzer.Build([]cfg.Seed{{Name: "_start", PC: codeBase}})
	Expect(err).NotTo(HaveOccurred())

	state := runtimeimg.NewGuestState(img)
	state.PC = codeBase
	state.TohostAddr = tohostAddr
	state.HasTohost = true
	code, runErr := refinterp.New(prog, state, isa.XLEN64, isa.BaremetalSyscalls()).Run()
	return code, state, runErr
}

var _ = Describe("HTIF tohost", func() {
	It("halts with exit code 0 when the guest stores 1 to tohost", func() {
		code, state, err := withTohost([]uint32{
			lui(5, tohostAddr>>12),
			addi(6, 0, 1),
			sw(5, 6, 0),
			jal(0, 0), // never reached
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(int32(0)))
		Expect(state.Halted).To(BeTrue())
	})

	Describe("a riscv-tests style pass/fail harness", func() {
		// harness compares 2+2 against want and stores the riscv-tests
		// verdict: 1 on match, (case << 1) | 1 on mismatch.
		harness := func(want int32) []uint32 {
			return []uint32{
				addi(5, 0, 2),
				addi(6, 0, 2),
				add(7, 5, 6),
				addi(28, 0, want),
				beq(7, 28, 16), // to pass
				// fail, case 1:
				lui(29, tohostAddr>>12),
				addi(30, 0, 3), // (1 << 1) | 1
				sw(29, 30, 0),
				// pass:
				lui(29, tohostAddr>>12),
				addi(30, 0, 1),
				sw(29, 30, 0),
				jal(0, 0),
			}
		}

		It("exits 0 when every case passes", func() {
			code, _, err := withTohost(harness(4))
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(int32(0)))
		})

		It("surfaces the encoded failing case verbatim", func() {
			code, _, err := withTohost(harness(5))
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(int32(3)))
		})
	})
})

var _ = Describe("AMO swap on a 32-bit word", func() {
	It("sign-extends the pre-image into rd and leaves the upper half of memory untouched", func() {
		img, analyzer := loadProgram(append([]uint32{
			addi(5, 0, 0x200),
			addi(6, 0, -1),     // rs2 = 0xffffffffffffffff
			amoswapW(7, 5, 6),  // rd = sext(old word), mem = low 32 of rs2
		}, exitSequence(0)...))
		prog, err := analyzer.Build([]cfg.Seed{{Name: "_start", PC: codeBase}})
		Expect(err).NotTo(HaveOccurred())

		// Pre-image: a negative 32-bit word with a sentinel in the upper half
		// of the containing doubleword.
		binary.LittleEndian.PutUint64(img.Bytes()[0x200:], 0xcafebabe_80000001)

		state := runtimeimg.NewGuestState(img)
		state.PC = codeBase
		_, err = refinterp.New(prog, state, isa.XLEN64, isa.BaremetalSyscalls()).Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(state.Regs[7]).To(Equal(uint64(0xffffffff_80000001)))
		Expect(binary.LittleEndian.Uint32(img.Bytes()[0x200:])).To(Equal(uint32(0xffffffff)))
		Expect(binary.LittleEndian.Uint32(img.Bytes()[0x204:])).To(Equal(uint32(0xcafebabe)))
	})
})

var _ = Describe("LR/SC reservation", func() {
	const dataAddr = 0x200

	It("succeeds when the reservation is intact and commits the store", func() {
		_, state, err := runProgram(append([]uint32{
			addi(5, 0, dataAddr),
			addi(6, 0, 0x2a),
			lrW(7, 5),
			scW(28, 5, 6),
		}, exitSequence(28)...))
		Expect(err).NotTo(HaveOccurred())
		Expect(state.ExitCode).To(Equal(int32(0)))
		Expect(binary.LittleEndian.Uint32(state.Mem.Bytes()[dataAddr:])).To(Equal(uint32(0x2a)))
	})

	It("fails an SC with no matching LR and writes nothing", func() {
		_, state, err := runProgram(append([]uint32{
			addi(5, 0, dataAddr),
			addi(6, 0, 0x2a),
			scW(28, 5, 6),
		}, exitSequence(28)...))
		Expect(err).NotTo(HaveOccurred())
		Expect(state.ExitCode).To(Equal(int32(1)))
		Expect(binary.LittleEndian.Uint32(state.Mem.Bytes()[dataAddr:])).To(Equal(uint32(0)))
	})

	It("fails an SC when an indirect jump intervenes after the LR", func() {
		// auipc at codeBase+8, so the table lands at codeBase+8+4096.
		tableAddr := uint64(codeBase + 8 + (1 << 12))
		words := append([]uint32{
			addi(5, 0, dataAddr),
			lrW(7, 5),
			auipc(6, 1), // x6 = table base
			lw(29, 6, 0),
			add(29, 29, 6),
			jalr(0, 29, 0),
			// dispatch target at codeBase+24: the SC attempt.
			addi(6, 0, 0x2a),
			scW(28, 5, 6),
		}, exitSequence(28)...)

		img, analyzer := loadProgram(words)
		target := int32(int64(codeBase+24) - int64(tableAddr))
		binary.LittleEndian.PutUint32(img.Bytes()[tableAddr:], uint32(target))
		binary.LittleEndian.PutUint32(img.Bytes()[tableAddr+4:], 1) // odd: end of table

		prog, err := analyzer.Build([]cfg.Seed{{Name: "_start", PC: codeBase}})
		Expect(err).NotTo(HaveOccurred())

		state := runtimeimg.NewGuestState(img)
		state.PC = codeBase
		_, runErr := refinterp.New(prog, state, isa.XLEN64, isa.BaremetalSyscalls()).Run()
		Expect(runErr).NotTo(HaveOccurred())
		Expect(state.ExitCode).To(Equal(int32(1)))
		Expect(binary.LittleEndian.Uint32(state.Mem.Bytes()[dataAddr:])).To(Equal(uint32(0)))
	})

	It("fails an SC after an aliasing plain store", func() {
		_, state, err := runProgram(append([]uint32{
			addi(5, 0, dataAddr),
			addi(6, 0, 0x2a),
			lrW(7, 5),
			sw(5, 0, 0), // aliasing store invalidates the reservation
			scW(28, 5, 6),
		}, exitSequence(28)...))
		Expect(err).NotTo(HaveOccurred())
		Expect(state.ExitCode).To(Equal(int32(1)))
		Expect(binary.LittleEndian.Uint32(state.Mem.Bytes()[dataAddr:])).To(Equal(uint32(0)))
	})
})

var _ = Describe("Indirect jump table", func() {
	const tableAddr = 0x2000

	// dispatchProgram is the auipc/lw/add/jalr shape a compiled switch
	// lowers to, dispatching through a table of base-relative word offsets.
	dispatchProgram := func() []uint32 {
		words := []uint32{
			auipc(6, (tableAddr-codeBase)>>12), // x6 = table base
			lw(7, 6, 0),                        // entry 0
			add(7, 7, 6),
			jalr(0, 7, 0),
		}
		// case A at 0x1010: exit 11. case B at 0x101c: exit 22.
		words = append(words, addi(10, 0, 11), addi(17, 0, 93), ecall())
		words = append(words, addi(10, 0, 22), addi(17, 0, 93), ecall())
		return words
	}

	It("recovers every table target and dispatches through the first", func() {
		img, analyzer := loadProgram(dispatchProgram())

		caseA := int32(0x1010 - tableAddr)
		caseB := int32(0x101c - tableAddr)
		binary.LittleEndian.PutUint32(img.Bytes()[tableAddr:], uint32(caseA))
		binary.LittleEndian.PutUint32(img.Bytes()[tableAddr+4:], uint32(caseB))
		binary.LittleEndian.PutUint32(img.Bytes()[tableAddr+8:], 1) // odd: end of table

		prog, err := analyzer.Build([]cfg.Seed{{Name: "_start", PC: codeBase}})
		Expect(err).NotTo(HaveOccurred())

		state := runtimeimg.NewGuestState(img)
		state.PC = codeBase
		code, err := refinterp.New(prog, state, isa.XLEN64, isa.BaremetalSyscalls()).Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(int32(11)))

		// Both cases must have been discovered as blocks, not just the one
		// the run took.
		blocks := 0
		for _, fn := range prog.Functions {
			for range fn.Blocks {
				blocks++
			}
		}
		Expect(blocks).To(BeNumerically(">=", 3))
	})

	It("reports CfgUnresolved in strict mode when no pattern matches", func() {
		_, analyzer := loadProgram([]uint32{
			addi(5, 0, 0x100),
			jalr(0, 5, 0),
		})
		analyzer.StrictIndirect = true

		_, err := analyzer.Build([]cfg.Seed{{Name: "_start", PC: codeBase}})
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, rvrerr.ErrCfgUnresolved)).To(BeTrue())
	})
})
