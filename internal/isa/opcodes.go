package isa

// Op is a dense small integer tag identifying the decoded operation.
type Op uint16

const (
	OpInvalid Op = iota

	// RV32I base
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpECALL
	OpEBREAK

	// RV64I additions
	OpLWU
	OpLD
	OpSD
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW

	// M extension
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW

	// A extension
	OpLRW
	OpSCW
	OpLRD
	OpSCD
	OpAMOSWAPW
	OpAMOADDW
	OpAMOXORW
	OpAMOANDW
	OpAMOORW
	OpAMOMINW
	OpAMOMAXW
	OpAMOMINUW
	OpAMOMAXUW
	OpAMOSWAPD
	OpAMOADDD
	OpAMOXORD
	OpAMOANDD
	OpAMOORD
	OpAMOMIND
	OpAMOMAXD
	OpAMOMINUD
	OpAMOMAXUD

	// Zicsr
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI

	// Zicond
	OpCZEROEQZ
	OpCZERONEZ

	// Zba
	OpSH1ADD
	OpSH2ADD
	OpSH3ADD
	OpADDUW
	OpSLLIUW

	// Zbb
	OpCLZ
	OpCTZ
	OpCPOP
	OpMIN
	OpMAX
	OpMINU
	OpMAXU
	OpSEXTB
	OpSEXTH
	OpZEXTH
	OpROL
	OpROR
	OpRORI
	OpORCB
	OpREV8
	OpANDN
	OpORN
	OpXNOR

	// Zbs
	OpBCLR
	OpBEXT
	OpBINV
	OpBSET

	// Zbkb
	OpPACK
	OpPACKH
	OpBREV8
	OpZIP
	OpUNZIP

	opCount
)

var opNames = [opCount]string{
	OpInvalid: "invalid",
	OpLUI: "lui", OpAUIPC: "auipc", OpJAL: "jal", OpJALR: "jalr",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge", OpBLTU: "bltu", OpBGEU: "bgeu",
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu",
	OpSB: "sb", OpSH: "sh", OpSW: "sw",
	OpADDI: "addi", OpSLTI: "slti", OpSLTIU: "sltiu", OpXORI: "xori", OpORI: "ori", OpANDI: "andi",
	OpSLLI: "slli", OpSRLI: "srli", OpSRAI: "srai",
	OpADD: "add", OpSUB: "sub", OpSLL: "sll", OpSLT: "slt", OpSLTU: "sltu",
	OpXOR: "xor", OpSRL: "srl", OpSRA: "sra", OpOR: "or", OpAND: "and",
	OpFENCE: "fence", OpECALL: "ecall", OpEBREAK: "ebreak",
	OpLWU: "lwu", OpLD: "ld", OpSD: "sd",
	OpADDIW: "addiw", OpSLLIW: "slliw", OpSRLIW: "srliw", OpSRAIW: "sraiw",
	OpADDW: "addw", OpSUBW: "subw", OpSLLW: "sllw", OpSRLW: "srlw", OpSRAW: "sraw",
	OpMUL: "mul", OpMULH: "mulh", OpMULHSU: "mulhsu", OpMULHU: "mulhu",
	OpDIV: "div", OpDIVU: "divu", OpREM: "rem", OpREMU: "remu",
	OpMULW: "mulw", OpDIVW: "divw", OpDIVUW: "divuw", OpREMW: "remw", OpREMUW: "remuw",
	OpLRW: "lr.w", OpSCW: "sc.w", OpLRD: "lr.d", OpSCD: "sc.d",
	OpAMOSWAPW: "amoswap.w", OpAMOADDW: "amoadd.w", OpAMOXORW: "amoxor.w", OpAMOANDW: "amoand.w",
	OpAMOORW: "amoor.w", OpAMOMINW: "amomin.w", OpAMOMAXW: "amomax.w",
	OpAMOMINUW: "amominu.w", OpAMOMAXUW: "amomaxu.w",
	OpAMOSWAPD: "amoswap.d", OpAMOADDD: "amoadd.d", OpAMOXORD: "amoxor.d", OpAMOANDD: "amoand.d",
	OpAMOORD: "amoor.d", OpAMOMIND: "amomin.d", OpAMOMAXD: "amomax.d",
	OpAMOMINUD: "amominu.d", OpAMOMAXUD: "amomaxu.d",
	OpCSRRW: "csrrw", OpCSRRS: "csrrs", OpCSRRC: "csrrc",
	OpCSRRWI: "csrrwi", OpCSRRSI: "csrrsi", OpCSRRCI: "csrrci",
	OpCZEROEQZ: "czero.eqz", OpCZERONEZ: "czero.nez",
	OpSH1ADD: "sh1add", OpSH2ADD: "sh2add", OpSH3ADD: "sh3add", OpADDUW: "add.uw", OpSLLIUW: "slli.uw",
	OpCLZ: "clz", OpCTZ: "ctz", OpCPOP: "cpop", OpMIN: "min", OpMAX: "max", OpMINU: "minu", OpMAXU: "maxu",
	OpSEXTB: "sext.b", OpSEXTH: "sext.h", OpZEXTH: "zext.h", OpROL: "rol", OpROR: "ror", OpRORI: "rori",
	OpORCB: "orc.b", OpREV8: "rev8", OpANDN: "andn", OpORN: "orn", OpXNOR: "xnor",
	OpBCLR: "bclr", OpBEXT: "bext", OpBINV: "binv", OpBSET: "bset",
	OpPACK: "pack", OpPACKH: "packh", OpBREV8: "brev8", OpZIP: "zip", OpUNZIP: "unzip",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "unknown"
}

// Extension identifies which extension family an admitted opcode belongs to.
type Extension string

const (
	ExtI     Extension = "I"
	ExtM     Extension = "M"
	ExtA     Extension = "A"
	ExtC     Extension = "C"
	ExtZicsr Extension = "Zicsr"
	ExtZicond Extension = "Zicond"
	ExtZba   Extension = "Zba"
	ExtZbb   Extension = "Zbb"
	ExtZbs   Extension = "Zbs"
	ExtZbkb  Extension = "Zbkb"
)
