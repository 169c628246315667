package insts

// DecodeCompressed decodes a 16-bit compressed instruction halfword
// into the same Instruction form as its 32-bit counterpart, with Len
// reporting 2. The all-zero halfword and every reserved encoding decode
// to OpUnknown.
func (d *Decoder) DecodeCompressed(halfword uint16) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown, Len: 2}
	w := uint32(halfword)

	if w&0b11 == 0b11 {
		// 32-bit encoding, must go through Decode.
		return inst
	}

	// funct3 in bits [15:13] and the quadrant in bits [1:0] jointly
	// select the compressed opcode.
	switch bits(w, 13, 3)<<2 | bits(w, 0, 2) {
	case 0b000_00: // C.ADDI4SPN
		imm := bits(w, 11, 2)<<4 | // uimm[5:4]
			bits(w, 7, 4)<<6 | // uimm[9:6]
			bits(w, 6, 1)<<2 | // uimm[2]
			bits(w, 5, 1)<<3 // uimm[3]
		if imm == 0 {
			// Covers the all-zero halfword, which is defined illegal.
			return inst
		}
		d.expandOpImm(inst, OpADDI, rdShort(w), 2, int64(imm))
	case 0b001_00: // C.FLD
		d.expandLoadFp(inst, OpFLD, rdShort(w), rs1Short(w), immCLDouble(w))
	case 0b010_00: // C.LW
		d.expandLoad(inst, OpLW, rdShort(w), rs1Short(w), immCLWord(w))
	case 0b011_00: // C.LD
		d.expandLoad(inst, OpLD, rdShort(w), rs1Short(w), immCLDouble(w))
	case 0b101_00: // C.FSD
		d.expandStoreFp(inst, OpFSD, rs1Short(w), rdShort(w), immCLDouble(w))
	case 0b110_00: // C.SW
		d.expandStore(inst, OpSW, rs1Short(w), rdShort(w), immCLWord(w))
	case 0b111_00: // C.SD
		d.expandStore(inst, OpSD, rs1Short(w), rdShort(w), immCLDouble(w))

	case 0b000_01: // C.ADDI (C.NOP when rd is x0)
		d.expandOpImm(inst, OpADDI, rdFull(w), rdFull(w), immCI(w))
	case 0b001_01: // C.ADDIW
		if rdFull(w) == 0 {
			return inst
		}
		d.expandOpImm(inst, OpADDIW, rdFull(w), rdFull(w), immCI(w))
	case 0b010_01: // C.LI
		d.expandOpImm(inst, OpADDI, rdFull(w), 0, immCI(w))
	case 0b011_01:
		if rdFull(w) == 2 { // C.ADDI16SP
			imm := bits(w, 12, 1)<<9 | // nzimm[9]
				bits(w, 6, 1)<<4 | // nzimm[4]
				bits(w, 5, 1)<<6 | // nzimm[6]
				bits(w, 3, 2)<<7 | // nzimm[8:7]
				bits(w, 2, 1)<<5 // nzimm[5]
			if imm == 0 {
				return inst
			}
			d.expandOpImm(inst, OpADDI, 2, 2, signExtend(imm, 10))
		} else { // C.LUI
			imm := immCI(w) << 12
			if rdFull(w) == 0 || imm == 0 {
				return inst
			}
			inst.Op = OpLUI
			inst.Format = FormatUpperImm
			inst.Rd = rdFull(w)
			inst.Imm = imm
		}
	case 0b100_01:
		d.decodeCompressedAlu(w, inst)
	case 0b101_01: // C.J
		inst.Op = OpJAL
		inst.Format = FormatJal
		inst.Rd = 0
		inst.Imm = immCJ(w)
	case 0b110_01: // C.BEQZ
		d.expandBranch(inst, OpBEQ, rs1Short(w), immCB(w))
	case 0b111_01: // C.BNEZ
		d.expandBranch(inst, OpBNE, rs1Short(w), immCB(w))

	case 0b000_10: // C.SLLI
		d.expandOpImm(inst, OpSLLI, rdFull(w), rdFull(w), shamtCI(w))
	case 0b001_10: // C.FLDSP
		imm := bits(w, 12, 1)<<5 | bits(w, 5, 2)<<3 | bits(w, 2, 3)<<6
		d.expandLoadFp(inst, OpFLD, rdFull(w), 2, int64(imm))
	case 0b010_10: // C.LWSP
		if rdFull(w) == 0 {
			return inst
		}
		imm := bits(w, 12, 1)<<5 | bits(w, 4, 3)<<2 | bits(w, 2, 2)<<6
		d.expandLoad(inst, OpLW, rdFull(w), 2, int64(imm))
	case 0b011_10: // C.LDSP
		if rdFull(w) == 0 {
			return inst
		}
		imm := bits(w, 12, 1)<<5 | bits(w, 5, 2)<<3 | bits(w, 2, 3)<<6
		d.expandLoad(inst, OpLD, rdFull(w), 2, int64(imm))
	case 0b100_10:
		d.decodeCompressedJumpMove(w, inst)
	case 0b101_10: // C.FSDSP
		imm := bits(w, 10, 3)<<3 | bits(w, 7, 3)<<6
		d.expandStoreFp(inst, OpFSD, 2, rs2Full(w), int64(imm))
	case 0b110_10: // C.SWSP
		imm := bits(w, 9, 4)<<2 | bits(w, 7, 2)<<6
		d.expandStore(inst, OpSW, 2, rs2Full(w), int64(imm))
	case 0b111_10: // C.SDSP
		imm := bits(w, 10, 3)<<3 | bits(w, 7, 3)<<6
		d.expandStore(inst, OpSD, 2, rs2Full(w), int64(imm))
	}

	return inst
}

// decodeCompressedAlu decodes the quadrant-1 funct3=100 group: shifts,
// ANDI, and the register-register ops on the popular register set.
func (d *Decoder) decodeCompressedAlu(w uint32, inst *Instruction) {
	rd := rs1Short(w)

	switch bits(w, 10, 2) {
	case 0b00: // C.SRLI
		d.expandOpImm(inst, OpSRLI, rd, rd, shamtCI(w))
	case 0b01: // C.SRAI
		d.expandOpImm(inst, OpSRAI, rd, rd, shamtCI(w))
	case 0b10: // C.ANDI
		d.expandOpImm(inst, OpANDI, rd, rd, immCI(w))
	case 0b11:
		var op Op
		switch bits(w, 12, 1)<<2 | bits(w, 5, 2) {
		case 0b0_00:
			op = OpSUB
		case 0b0_01:
			op = OpXOR
		case 0b0_10:
			op = OpOR
		case 0b0_11:
			op = OpAND
		case 0b1_00:
			op = OpSUBW
		case 0b1_01:
			op = OpADDW
		default:
			return
		}
		inst.Op = op
		inst.Format = FormatOp
		inst.Rd = rd
		inst.Rs1 = rd
		inst.Rs2 = rdShort(w)
	}
}

// decodeCompressedJumpMove decodes the quadrant-2 funct3=100 group:
// C.JR, C.MV, C.EBREAK, C.JALR, and C.ADD.
func (d *Decoder) decodeCompressedJumpMove(w uint32, inst *Instruction) {
	rs1 := rdFull(w)
	rs2 := rs2Full(w)

	if bits(w, 12, 1) == 0 {
		if rs2 == 0 { // C.JR
			if rs1 == 0 {
				return
			}
			inst.Op = OpJALR
			inst.Format = FormatJalr
			inst.Rs1 = rs1
		} else { // C.MV
			inst.Op = OpADD
			inst.Format = FormatOp
			inst.Rd = rs1
			inst.Rs2 = rs2
		}
		return
	}

	switch {
	case rs2 == 0 && rs1 == 0: // C.EBREAK
		inst.Op = OpEBREAK
		inst.Format = FormatSystem
	case rs2 == 0: // C.JALR
		inst.Op = OpJALR
		inst.Format = FormatJalr
		inst.Rd = 1
		inst.Rs1 = rs1
	default: // C.ADD
		inst.Op = OpADD
		inst.Format = FormatOp
		inst.Rd = rs1
		inst.Rs1 = rs1
		inst.Rs2 = rs2
	}
}

func (d *Decoder) expandOpImm(inst *Instruction, op Op, rd, rs1 uint8, imm int64) {
	inst.Op = op
	inst.Format = FormatOpImm
	inst.Rd = rd
	inst.Rs1 = rs1
	inst.Imm = imm
}

func (d *Decoder) expandLoad(inst *Instruction, op Op, rd, rs1 uint8, imm int64) {
	inst.Op = op
	inst.Format = FormatLoad
	inst.Rd = rd
	inst.Rs1 = rs1
	inst.Imm = imm
}

func (d *Decoder) expandLoadFp(inst *Instruction, op Op, rd, rs1 uint8, imm int64) {
	d.expandLoad(inst, op, rd, rs1, imm)
	inst.Format = FormatLoadFp
	inst.Double = op == OpFLD
}

func (d *Decoder) expandStore(inst *Instruction, op Op, rs1, rs2 uint8, imm int64) {
	inst.Op = op
	inst.Format = FormatStore
	inst.Rs1 = rs1
	inst.Rs2 = rs2
	inst.Imm = imm
}

func (d *Decoder) expandStoreFp(inst *Instruction, op Op, rs1, rs2 uint8, imm int64) {
	d.expandStore(inst, op, rs1, rs2, imm)
	inst.Format = FormatStoreFp
	inst.Double = op == OpFSD
}

func (d *Decoder) expandBranch(inst *Instruction, op Op, rs1 uint8, imm int64) {
	inst.Op = op
	inst.Format = FormatBranch
	inst.Rs1 = rs1
	inst.Rs2 = 0
	inst.Imm = imm
}

// rdFull extracts the full 5-bit rd/rs1 field in bits [11:7].
func rdFull(w uint32) uint8 {
	return uint8(bits(w, 7, 5))
}

// rs2Full extracts the full 5-bit rs2 field in bits [6:2].
func rs2Full(w uint32) uint8 {
	return uint8(bits(w, 2, 5))
}

// rdShort extracts the 3-bit register field in bits [4:2], which
// addresses x8-x15 (or f8-f15).
func rdShort(w uint32) uint8 {
	return uint8(bits(w, 2, 3)) + 8
}

// rs1Short extracts the 3-bit register field in bits [9:7].
func rs1Short(w uint32) uint8 {
	return uint8(bits(w, 7, 3)) + 8
}

// immCI extracts the sign-extended 6-bit CI-format immediate.
func immCI(w uint32) int64 {
	return signExtend(bits(w, 12, 1)<<5|bits(w, 2, 5), 6)
}

// shamtCI extracts the 6-bit shift amount of compressed shifts.
func shamtCI(w uint32) int64 {
	return int64(bits(w, 12, 1)<<5 | bits(w, 2, 5))
}

// immCLWord extracts the scaled unsigned offset of C.LW/C.SW.
func immCLWord(w uint32) int64 {
	return int64(bits(w, 10, 3)<<3 | bits(w, 6, 1)<<2 | bits(w, 5, 1)<<6)
}

// immCLDouble extracts the scaled unsigned offset of C.LD/C.SD and the
// compressed FP doubleword transfers.
func immCLDouble(w uint32) int64 {
	return int64(bits(w, 10, 3)<<3 | bits(w, 5, 2)<<6)
}

// immCB extracts the sign-extended branch offset of C.BEQZ/C.BNEZ.
func immCB(w uint32) int64 {
	imm := bits(w, 12, 1)<<8 | // offset[8]
		bits(w, 10, 2)<<3 | // offset[4:3]
		bits(w, 5, 2)<<6 | // offset[7:6]
		bits(w, 3, 2)<<1 | // offset[2:1]
		bits(w, 2, 1)<<5 // offset[5]
	return signExtend(imm, 9)
}

// immCJ extracts the sign-extended jump offset of C.J.
func immCJ(w uint32) int64 {
	imm := bits(w, 12, 1)<<11 | // offset[11]
		bits(w, 11, 1)<<4 | // offset[4]
		bits(w, 9, 2)<<8 | // offset[9:8]
		bits(w, 8, 1)<<10 | // offset[10]
		bits(w, 7, 1)<<6 | // offset[6]
		bits(w, 6, 1)<<7 | // offset[7]
		bits(w, 3, 3)<<1 | // offset[3:1]
		bits(w, 2, 1)<<5 // offset[5]
	return signExtend(imm, 12)
}
