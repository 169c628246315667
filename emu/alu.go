package emu

import (
	"math"
	"math/bits"

	"github.com/sarchlab/rv64sim/insts"
)

// ALU implements the RV64 integer arithmetic and logic operations,
// including the M extension.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ExecuteOpImm executes register-immediate ALU instructions.
func (a *ALU) ExecuteOpImm(inst *insts.Instruction) {
	op1 := a.regFile.ReadReg(inst.Rs1)
	imm := uint64(inst.Imm)

	var result uint64
	switch inst.Op {
	case insts.OpADDI:
		result = op1 + imm
	case insts.OpSLTI:
		if int64(op1) < inst.Imm {
			result = 1
		}
	case insts.OpSLTIU:
		if op1 < imm {
			result = 1
		}
	case insts.OpXORI:
		result = op1 ^ imm
	case insts.OpORI:
		result = op1 | imm
	case insts.OpANDI:
		result = op1 & imm
	case insts.OpSLLI:
		result = op1 << (imm & 0x3F)
	case insts.OpSRLI:
		result = op1 >> (imm & 0x3F)
	case insts.OpSRAI:
		result = uint64(int64(op1) >> (imm & 0x3F))
	case insts.OpADDIW:
		result = signExtend32(uint32(op1) + uint32(imm))
	case insts.OpSLLIW:
		result = signExtend32(uint32(op1) << (imm & 0x1F))
	case insts.OpSRLIW:
		result = signExtend32(uint32(op1) >> (imm & 0x1F))
	case insts.OpSRAIW:
		result = signExtend32(uint32(int32(uint32(op1)) >> (imm & 0x1F)))
	}
	a.regFile.WriteReg(inst.Rd, result)
}

// ExecuteOp executes register-register ALU instructions.
func (a *ALU) ExecuteOp(inst *insts.Instruction) {
	op1 := a.regFile.ReadReg(inst.Rs1)
	op2 := a.regFile.ReadReg(inst.Rs2)

	var result uint64
	switch inst.Op {
	case insts.OpADD:
		result = op1 + op2
	case insts.OpSUB:
		result = op1 - op2
	case insts.OpSLL:
		result = op1 << (op2 & 0x3F)
	case insts.OpSLT:
		if int64(op1) < int64(op2) {
			result = 1
		}
	case insts.OpSLTU:
		if op1 < op2 {
			result = 1
		}
	case insts.OpXOR:
		result = op1 ^ op2
	case insts.OpSRL:
		result = op1 >> (op2 & 0x3F)
	case insts.OpSRA:
		result = uint64(int64(op1) >> (op2 & 0x3F))
	case insts.OpOR:
		result = op1 | op2
	case insts.OpAND:
		result = op1 & op2
	case insts.OpADDW:
		result = signExtend32(uint32(op1) + uint32(op2))
	case insts.OpSUBW:
		result = signExtend32(uint32(op1) - uint32(op2))
	case insts.OpSLLW:
		result = signExtend32(uint32(op1) << (op2 & 0x1F))
	case insts.OpSRLW:
		result = signExtend32(uint32(op1) >> (op2 & 0x1F))
	case insts.OpSRAW:
		result = signExtend32(uint32(int32(uint32(op1)) >> (op2 & 0x1F)))
	case insts.OpMUL:
		result = op1 * op2
	case insts.OpMULH:
		result = mulh(int64(op1), int64(op2))
	case insts.OpMULHSU:
		result = mulhsu(int64(op1), op2)
	case insts.OpMULHU:
		result, _ = bits.Mul64(op1, op2)
	case insts.OpDIV:
		result = uint64(div(int64(op1), int64(op2)))
	case insts.OpDIVU:
		result = divu(op1, op2)
	case insts.OpREM:
		result = uint64(rem(int64(op1), int64(op2)))
	case insts.OpREMU:
		result = remu(op1, op2)
	case insts.OpMULW:
		result = signExtend32(uint32(op1) * uint32(op2))
	case insts.OpDIVW:
		result = signExtend32(uint32(div32(int32(uint32(op1)), int32(uint32(op2)))))
	case insts.OpDIVUW:
		result = signExtend32(divu32(uint32(op1), uint32(op2)))
	case insts.OpREMW:
		result = signExtend32(uint32(rem32(int32(uint32(op1)), int32(uint32(op2)))))
	case insts.OpREMUW:
		result = signExtend32(remu32(uint32(op1), uint32(op2)))
	}
	a.regFile.WriteReg(inst.Rd, result)
}

// signExtend32 sign-extends a 32-bit value to 64 bits.
func signExtend32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

// mulh computes the upper 64 bits of a signed 128-bit product.
func mulh(a, b int64) uint64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return hi
}

// mulhsu computes the upper 64 bits of a signed by unsigned 128-bit
// product.
func mulhsu(a int64, b uint64) uint64 {
	hi, _ := bits.Mul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return hi
}

// Division follows the RV64M conventions: division by zero yields all
// ones (or the dividend for remainder), and overflow of the most
// negative value wraps.

func div(a, b int64) int64 {
	if b == 0 {
		return -1
	}
	if a == math.MinInt64 && b == -1 {
		return math.MinInt64
	}
	return a / b
}

func divu(a, b uint64) uint64 {
	if b == 0 {
		return math.MaxUint64
	}
	return a / b
}

func rem(a, b int64) int64 {
	if b == 0 {
		return a
	}
	if a == math.MinInt64 && b == -1 {
		return 0
	}
	return a % b
}

func remu(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

func div32(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == math.MinInt32 && b == -1 {
		return math.MinInt32
	}
	return a / b
}

func divu32(a, b uint32) uint32 {
	if b == 0 {
		return math.MaxUint32
	}
	return a / b
}

func rem32(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == math.MinInt32 && b == -1 {
		return 0
	}
	return a % b
}

func remu32(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}
