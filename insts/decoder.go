// Package insts provides RV64 instruction definitions and decoding.
package insts

// Op represents an RV64 opcode.
type Op uint16

// RV64 opcodes.
const (
	OpUnknown Op = iota

	// RV64I base
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
	OpLD
	OpLBU
	OpLHU
	OpLWU
	OpSB
	OpSH
	OpSW
	OpSD
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
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW
	OpFENCE
	OpFENCEI
	OpECALL
	OpEBREAK

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

	// A extension. Is64Bit selects the doubleword variant.
	OpLR
	OpSC
	OpAMOSWAP
	OpAMOADD
	OpAMOXOR
	OpAMOAND
	OpAMOOR
	OpAMOMIN
	OpAMOMAX
	OpAMOMINU
	OpAMOMAXU

	// F/D extensions. Double selects the double-precision variant.
	OpFLW
	OpFLD
	OpFSW
	OpFSD
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
	OpFSQRT
	OpFSGNJ
	OpFSGNJN
	OpFSGNJX
	OpFMIN
	OpFMAX
	OpFMADD
	OpFMSUB
	OpFNMSUB
	OpFNMADD
	OpFEQ
	OpFLT
	OpFLE
	OpFCLASS
	OpFMVToX   // FMV.X.W / FMV.X.D
	OpFMVFromX // FMV.W.X / FMV.D.X
	OpFCVTFpToInt
	OpFCVTIntToFp
	OpFCVTFpToFp

	// Zicsr
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown  Format = iota
	FormatUpperImm        // LUI, AUIPC
	FormatJal             // JAL
	FormatJalr            // JALR
	FormatBranch          // Conditional branches
	FormatLoad            // Integer loads
	FormatStore           // Integer stores
	FormatLoadFp          // FLW, FLD
	FormatStoreFp         // FSW, FSD
	FormatOpImm           // Register-immediate ALU ops, including W variants
	FormatOp              // Register-register ALU ops, including W and M variants
	FormatAmo             // LR, SC, AMO*
	FormatOpFp            // FP arithmetic, compare, classify, move, convert
	FormatFma             // Fused multiply-add family
	FormatCsr             // CSR read-modify-write ops
	FormatSystem          // ECALL, EBREAK
	FormatFence           // FENCE
)

// Rounding mode field values for FP instructions.
const (
	RmRNE uint8 = 0b000 // Round to nearest, ties to even
	RmRTZ uint8 = 0b001 // Round towards zero
	RmRDN uint8 = 0b010 // Round down
	RmRUP uint8 = 0b011 // Round up
	RmRMM uint8 = 0b100 // Round to nearest, ties to max magnitude
	RmDYN uint8 = 0b111 // Dynamic, use the frm register
)

// CSR addresses recognized by FormatCsr instructions.
const (
	CsrFFlags uint16 = 0x001
	CsrFRM    uint16 = 0x002
	CsrFCsr   uint16 = 0x003
)

// Instruction represents a decoded RV64 instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format

	// Register operands
	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register
	Rs3 uint8 // Third source register (FMA family only)

	// Immediate operand, sign-extended. Holds the shift amount for
	// immediate shifts and the zero-extended zimm for CSR*I ops.
	Imm int64

	// Width selectors
	Is64Bit bool // Atomics: doubleword variant
	Double  bool // FP: double-precision variant (result type for converts)

	// FP fields
	Rm        uint8 // Rounding mode field
	SrcDouble bool  // FCVT.S.D / FCVT.D.S source precision
	Cvt64     bool  // FP<->integer converts: 64-bit integer side
	CvtSigned bool  // FP<->integer converts: signed integer side

	// Atomic memory ordering
	Aq bool // Acquire
	Rl bool // Release

	Csr uint16 // CSR address for FormatCsr

	Len uint8 // Encoding length in bytes: 2 or 4
}

// GetInsnSize reports the encoding length in bytes given the first
// halfword of an instruction. Encodings whose two low bits are both set
// are 32-bit; everything else is a 16-bit compressed encoding.
func GetInsnSize(halfword uint16) uint8 {
	if halfword&0b11 == 0b11 {
		return 4
	}
	return 2
}

// Decoder decodes RV64 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV64 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV64 instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown, Len: 4}

	if word&0b11 != 0b11 {
		// Compressed encoding, must go through DecodeCompressed.
		return inst
	}

	// Standard fields shared by most formats
	inst.Rd = uint8(bits(word, 7, 5))
	inst.Rs1 = uint8(bits(word, 15, 5))
	inst.Rs2 = uint8(bits(word, 20, 5))

	opcode := bits(word, 2, 5) // bits [6:2]

	switch opcode {
	case 0b01101: // LUI
		d.decodeUpperImm(word, inst, OpLUI)
	case 0b00101: // AUIPC
		d.decodeUpperImm(word, inst, OpAUIPC)
	case 0b11011: // JAL
		d.decodeJal(word, inst)
	case 0b11001: // JALR
		d.decodeJalr(word, inst)
	case 0b11000: // BRANCH
		d.decodeBranch(word, inst)
	case 0b00000: // LOAD
		d.decodeLoad(word, inst)
	case 0b00001: // LOAD-FP
		d.decodeLoadFp(word, inst)
	case 0b01000: // STORE
		d.decodeStore(word, inst)
	case 0b01001: // STORE-FP
		d.decodeStoreFp(word, inst)
	case 0b00100: // OP-IMM
		d.decodeOpImm(word, inst)
	case 0b00110: // OP-IMM-32
		d.decodeOpImm32(word, inst)
	case 0b01100: // OP
		d.decodeOp(word, inst)
	case 0b01110: // OP-32
		d.decodeOp32(word, inst)
	case 0b01011: // AMO
		d.decodeAmo(word, inst)
	case 0b10100: // OP-FP
		d.decodeOpFp(word, inst)
	case 0b10000, 0b10001, 0b10010, 0b10011: // MADD, MSUB, NMSUB, NMADD
		d.decodeFma(word, inst, opcode)
	case 0b11100: // SYSTEM
		d.decodeSystem(word, inst)
	case 0b00011: // MISC-MEM
		d.decodeFence(word, inst)
	}

	return inst
}

// decodeUpperImm decodes LUI and AUIPC.
// Format: imm[31:12] | rd | opcode
func (d *Decoder) decodeUpperImm(word uint32, inst *Instruction, op Op) {
	inst.Op = op
	inst.Format = FormatUpperImm
	inst.Imm = int64(int32(word & 0xFFFFF000)) // bits [31:12], sign-extended
}

// decodeJal decodes JAL.
// Format: imm[20|10:1|11|19:12] | rd | opcode
func (d *Decoder) decodeJal(word uint32, inst *Instruction) {
	inst.Op = OpJAL
	inst.Format = FormatJal

	imm := bits(word, 31, 1)<<20 | // imm[20]
		bits(word, 12, 8)<<12 | // imm[19:12]
		bits(word, 20, 1)<<11 | // imm[11]
		bits(word, 21, 10)<<1 // imm[10:1]
	inst.Imm = signExtend(imm, 21)
}

// decodeJalr decodes JALR.
// Format: imm[11:0] | rs1 | 000 | rd | opcode
func (d *Decoder) decodeJalr(word uint32, inst *Instruction) {
	if bits(word, 12, 3) != 0b000 {
		return
	}
	inst.Op = OpJALR
	inst.Format = FormatJalr
	inst.Imm = signExtend(bits(word, 20, 12), 12)
}

// decodeBranch decodes conditional branches.
// Format: imm[12|10:5] | rs2 | rs1 | funct3 | imm[4:1|11] | opcode
func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	imm := bits(word, 31, 1)<<12 | // imm[12]
		bits(word, 7, 1)<<11 | // imm[11]
		bits(word, 25, 6)<<5 | // imm[10:5]
		bits(word, 8, 4)<<1 // imm[4:1]
	inst.Imm = signExtend(imm, 13)
	inst.Rd = 0

	switch bits(word, 12, 3) {
	case 0b000:
		inst.Op = OpBEQ
	case 0b001:
		inst.Op = OpBNE
	case 0b100:
		inst.Op = OpBLT
	case 0b101:
		inst.Op = OpBGE
	case 0b110:
		inst.Op = OpBLTU
	case 0b111:
		inst.Op = OpBGEU
	default:
		return
	}
	inst.Format = FormatBranch
}

// decodeLoad decodes integer loads.
// Format: imm[11:0] | rs1 | funct3 | rd | opcode
func (d *Decoder) decodeLoad(word uint32, inst *Instruction) {
	inst.Imm = signExtend(bits(word, 20, 12), 12)

	switch bits(word, 12, 3) {
	case 0b000:
		inst.Op = OpLB
	case 0b001:
		inst.Op = OpLH
	case 0b010:
		inst.Op = OpLW
	case 0b011:
		inst.Op = OpLD
	case 0b100:
		inst.Op = OpLBU
	case 0b101:
		inst.Op = OpLHU
	case 0b110:
		inst.Op = OpLWU
	default:
		return
	}
	inst.Format = FormatLoad
}

// decodeLoadFp decodes FLW and FLD.
func (d *Decoder) decodeLoadFp(word uint32, inst *Instruction) {
	inst.Imm = signExtend(bits(word, 20, 12), 12)

	switch bits(word, 12, 3) {
	case 0b010:
		inst.Op = OpFLW
	case 0b011:
		inst.Op = OpFLD
		inst.Double = true
	default:
		return
	}
	inst.Format = FormatLoadFp
}

// decodeStore decodes integer stores.
// Format: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode
func (d *Decoder) decodeStore(word uint32, inst *Instruction) {
	imm := bits(word, 25, 7)<<5 | bits(word, 7, 5)
	inst.Imm = signExtend(imm, 12)
	inst.Rd = 0

	switch bits(word, 12, 3) {
	case 0b000:
		inst.Op = OpSB
	case 0b001:
		inst.Op = OpSH
	case 0b010:
		inst.Op = OpSW
	case 0b011:
		inst.Op = OpSD
	default:
		return
	}
	inst.Format = FormatStore
}

// decodeStoreFp decodes FSW and FSD.
func (d *Decoder) decodeStoreFp(word uint32, inst *Instruction) {
	imm := bits(word, 25, 7)<<5 | bits(word, 7, 5)
	inst.Imm = signExtend(imm, 12)
	inst.Rd = 0

	switch bits(word, 12, 3) {
	case 0b010:
		inst.Op = OpFSW
	case 0b011:
		inst.Op = OpFSD
		inst.Double = true
	default:
		return
	}
	inst.Format = FormatStoreFp
}

// decodeOpImm decodes register-immediate ALU instructions.
func (d *Decoder) decodeOpImm(word uint32, inst *Instruction) {
	inst.Imm = signExtend(bits(word, 20, 12), 12)

	switch bits(word, 12, 3) {
	case 0b000:
		inst.Op = OpADDI
	case 0b010:
		inst.Op = OpSLTI
	case 0b011:
		inst.Op = OpSLTIU
	case 0b100:
		inst.Op = OpXORI
	case 0b110:
		inst.Op = OpORI
	case 0b111:
		inst.Op = OpANDI
	case 0b001:
		if bits(word, 26, 6) != 0b000000 {
			return
		}
		inst.Op = OpSLLI
		inst.Imm = int64(bits(word, 20, 6)) // shamt[5:0]
	case 0b101:
		switch bits(word, 26, 6) {
		case 0b000000:
			inst.Op = OpSRLI
		case 0b010000:
			inst.Op = OpSRAI
		default:
			return
		}
		inst.Imm = int64(bits(word, 20, 6)) // shamt[5:0]
	}
	inst.Format = FormatOpImm
}

// decodeOpImm32 decodes the W variants of register-immediate ALU
// instructions.
func (d *Decoder) decodeOpImm32(word uint32, inst *Instruction) {
	switch bits(word, 12, 3) {
	case 0b000:
		inst.Op = OpADDIW
		inst.Imm = signExtend(bits(word, 20, 12), 12)
	case 0b001:
		if bits(word, 25, 7) != 0b0000000 {
			return
		}
		inst.Op = OpSLLIW
		inst.Imm = int64(bits(word, 20, 5)) // shamt[4:0]
	case 0b101:
		switch bits(word, 25, 7) {
		case 0b0000000:
			inst.Op = OpSRLIW
		case 0b0100000:
			inst.Op = OpSRAIW
		default:
			return
		}
		inst.Imm = int64(bits(word, 20, 5)) // shamt[4:0]
	default:
		return
	}
	inst.Format = FormatOpImm
}

// decodeOp decodes register-register ALU instructions, including the
// M extension.
func (d *Decoder) decodeOp(word uint32, inst *Instruction) {
	funct3 := bits(word, 12, 3)

	switch bits(word, 25, 7) {
	case 0b0000000:
		switch funct3 {
		case 0b000:
			inst.Op = OpADD
		case 0b001:
			inst.Op = OpSLL
		case 0b010:
			inst.Op = OpSLT
		case 0b011:
			inst.Op = OpSLTU
		case 0b100:
			inst.Op = OpXOR
		case 0b101:
			inst.Op = OpSRL
		case 0b110:
			inst.Op = OpOR
		case 0b111:
			inst.Op = OpAND
		}
	case 0b0100000:
		switch funct3 {
		case 0b000:
			inst.Op = OpSUB
		case 0b101:
			inst.Op = OpSRA
		default:
			return
		}
	case 0b0000001:
		switch funct3 {
		case 0b000:
			inst.Op = OpMUL
		case 0b001:
			inst.Op = OpMULH
		case 0b010:
			inst.Op = OpMULHSU
		case 0b011:
			inst.Op = OpMULHU
		case 0b100:
			inst.Op = OpDIV
		case 0b101:
			inst.Op = OpDIVU
		case 0b110:
			inst.Op = OpREM
		case 0b111:
			inst.Op = OpREMU
		}
	default:
		return
	}
	inst.Format = FormatOp
}

// decodeOp32 decodes the W variants of register-register ALU
// instructions.
func (d *Decoder) decodeOp32(word uint32, inst *Instruction) {
	funct3 := bits(word, 12, 3)

	switch bits(word, 25, 7) {
	case 0b0000000:
		switch funct3 {
		case 0b000:
			inst.Op = OpADDW
		case 0b001:
			inst.Op = OpSLLW
		case 0b101:
			inst.Op = OpSRLW
		default:
			return
		}
	case 0b0100000:
		switch funct3 {
		case 0b000:
			inst.Op = OpSUBW
		case 0b101:
			inst.Op = OpSRAW
		default:
			return
		}
	case 0b0000001:
		switch funct3 {
		case 0b000:
			inst.Op = OpMULW
		case 0b100:
			inst.Op = OpDIVW
		case 0b101:
			inst.Op = OpDIVUW
		case 0b110:
			inst.Op = OpREMW
		case 0b111:
			inst.Op = OpREMUW
		default:
			return
		}
	default:
		return
	}
	inst.Format = FormatOp
}

// decodeAmo decodes LR, SC, and the AMO family.
// Format: funct5 | aq | rl | rs2 | rs1 | funct3 | rd | opcode
func (d *Decoder) decodeAmo(word uint32, inst *Instruction) {
	switch bits(word, 12, 3) {
	case 0b010:
		inst.Is64Bit = false
	case 0b011:
		inst.Is64Bit = true
	default:
		return
	}
	inst.Aq = bits(word, 26, 1) == 1
	inst.Rl = bits(word, 25, 1) == 1

	switch bits(word, 27, 5) {
	case 0b00010:
		if inst.Rs2 != 0 {
			return
		}
		inst.Op = OpLR
	case 0b00011:
		inst.Op = OpSC
	case 0b00001:
		inst.Op = OpAMOSWAP
	case 0b00000:
		inst.Op = OpAMOADD
	case 0b00100:
		inst.Op = OpAMOXOR
	case 0b01100:
		inst.Op = OpAMOAND
	case 0b01000:
		inst.Op = OpAMOOR
	case 0b10000:
		inst.Op = OpAMOMIN
	case 0b10100:
		inst.Op = OpAMOMAX
	case 0b11000:
		inst.Op = OpAMOMINU
	case 0b11100:
		inst.Op = OpAMOMAXU
	default:
		return
	}
	inst.Format = FormatAmo
}

// decodeOpFp decodes the OP-FP space: arithmetic, sign injection,
// min/max, comparison, classify, moves, and conversions.
// Format: funct7 | rs2 | rs1 | rm | rd | opcode
func (d *Decoder) decodeOpFp(word uint32, inst *Instruction) {
	funct7 := bits(word, 25, 7)
	rm := uint8(bits(word, 12, 3))
	inst.Rm = rm
	inst.Double = funct7&0b11 == 0b01

	// The low two funct7 bits select the precision. Encodings with
	// either reserved precision value stay unknown.
	if funct7&0b11 > 0b01 {
		return
	}

	switch funct7 >> 2 {
	case 0b00000:
		inst.Op = OpFADD
	case 0b00001:
		inst.Op = OpFSUB
	case 0b00010:
		inst.Op = OpFMUL
	case 0b00011:
		inst.Op = OpFDIV
	case 0b01011: // FSQRT
		if inst.Rs2 != 0 {
			return
		}
		inst.Op = OpFSQRT
	case 0b00100: // sign injection
		switch rm {
		case 0b000:
			inst.Op = OpFSGNJ
		case 0b001:
			inst.Op = OpFSGNJN
		case 0b010:
			inst.Op = OpFSGNJX
		default:
			return
		}
	case 0b00101: // min/max
		switch rm {
		case 0b000:
			inst.Op = OpFMIN
		case 0b001:
			inst.Op = OpFMAX
		default:
			return
		}
	case 0b10100: // comparison
		switch rm {
		case 0b010:
			inst.Op = OpFEQ
		case 0b001:
			inst.Op = OpFLT
		case 0b000:
			inst.Op = OpFLE
		default:
			return
		}
	case 0b11100: // FMV.X.W/D, FCLASS
		if inst.Rs2 != 0 {
			return
		}
		switch rm {
		case 0b000:
			inst.Op = OpFMVToX
		case 0b001:
			inst.Op = OpFCLASS
		default:
			return
		}
	case 0b11110: // FMV.W.X / FMV.D.X
		if inst.Rs2 != 0 || rm != 0b000 {
			return
		}
		inst.Op = OpFMVFromX
	case 0b11000: // FCVT.{W,WU,L,LU}.{S,D}
		if inst.Rs2 > 0b00011 {
			return
		}
		inst.Op = OpFCVTFpToInt
		inst.Cvt64 = inst.Rs2&0b10 != 0
		inst.CvtSigned = inst.Rs2&0b01 == 0
	case 0b11010: // FCVT.{S,D}.{W,WU,L,LU}
		if inst.Rs2 > 0b00011 {
			return
		}
		inst.Op = OpFCVTIntToFp
		inst.Cvt64 = inst.Rs2&0b10 != 0
		inst.CvtSigned = inst.Rs2&0b01 == 0
	case 0b01000: // FCVT.S.D / FCVT.D.S
		// rs2 encodes the source precision and must differ from the
		// destination precision.
		inst.SrcDouble = inst.Rs2 == 0b00001
		if inst.Rs2 > 0b00001 || inst.SrcDouble == inst.Double {
			return
		}
		inst.Op = OpFCVTFpToFp
	default:
		return
	}
	inst.Format = FormatOpFp
}

// decodeFma decodes the fused multiply-add family.
// Format: rs3 | fmt | rs2 | rs1 | rm | rd | opcode
func (d *Decoder) decodeFma(word uint32, inst *Instruction, opcode uint32) {
	precision := bits(word, 25, 2)
	if precision > 0b01 {
		return
	}
	inst.Double = precision == 0b01
	inst.Rs3 = uint8(bits(word, 27, 5))
	inst.Rm = uint8(bits(word, 12, 3))

	switch opcode {
	case 0b10000:
		inst.Op = OpFMADD
	case 0b10001:
		inst.Op = OpFMSUB
	case 0b10010:
		inst.Op = OpFNMSUB
	case 0b10011:
		inst.Op = OpFNMADD
	}
	inst.Format = FormatFma
}

// decodeSystem decodes ECALL, EBREAK, and the Zicsr instructions.
func (d *Decoder) decodeSystem(word uint32, inst *Instruction) {
	funct3 := bits(word, 12, 3)

	if funct3 == 0b000 {
		if inst.Rd != 0 || inst.Rs1 != 0 {
			return
		}
		switch bits(word, 20, 12) {
		case 0b000000000000:
			inst.Op = OpECALL
		case 0b000000000001:
			inst.Op = OpEBREAK
		default:
			return
		}
		inst.Format = FormatSystem
		return
	}

	switch funct3 {
	case 0b001:
		inst.Op = OpCSRRW
	case 0b010:
		inst.Op = OpCSRRS
	case 0b011:
		inst.Op = OpCSRRC
	case 0b101:
		inst.Op = OpCSRRWI
	case 0b110:
		inst.Op = OpCSRRSI
	case 0b111:
		inst.Op = OpCSRRCI
	default:
		return
	}
	inst.Csr = uint16(bits(word, 20, 12))
	if funct3&0b100 != 0 {
		// Immediate variants carry a 5-bit zero-extended immediate in
		// the rs1 field.
		inst.Imm = int64(inst.Rs1)
		inst.Rs1 = 0
	}
	inst.Format = FormatCsr
}

// decodeFence decodes FENCE and FENCE.I. The emulator executes all
// memory accesses in program order and has no decoded-instruction
// cache, so neither fence retains its operands.
func (d *Decoder) decodeFence(word uint32, inst *Instruction) {
	switch bits(word, 12, 3) {
	case 0b000:
		inst.Op = OpFENCE
	case 0b001:
		inst.Op = OpFENCEI
	default:
		return
	}
	inst.Format = FormatFence
}
