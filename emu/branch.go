package emu

import (
	"github.com/sarchlab/rv64sim/insts"
)

// BranchUnit implements the RV64 control transfer operations. Its
// methods update the PC themselves; the emulator advances the PC only
// for non-branch instructions.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given
// register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// ExecuteBranch executes a conditional branch. A taken branch adds the
// immediate to the PC of the branch itself; otherwise the PC falls
// through past the encoding.
func (b *BranchUnit) ExecuteBranch(inst *insts.Instruction) {
	op1 := b.regFile.ReadReg(inst.Rs1)
	op2 := b.regFile.ReadReg(inst.Rs2)

	var taken bool
	switch inst.Op {
	case insts.OpBEQ:
		taken = op1 == op2
	case insts.OpBNE:
		taken = op1 != op2
	case insts.OpBLT:
		taken = int64(op1) < int64(op2)
	case insts.OpBGE:
		taken = int64(op1) >= int64(op2)
	case insts.OpBLTU:
		taken = op1 < op2
	case insts.OpBGEU:
		taken = op1 >= op2
	}

	if taken {
		b.regFile.PC = uint64(int64(b.regFile.PC) + inst.Imm)
	} else {
		b.regFile.PC += uint64(inst.Len)
	}
}

// ExecuteJal executes JAL: the return address is the instruction after
// the jump, regardless of the jump's encoding length.
func (b *BranchUnit) ExecuteJal(inst *insts.Instruction) {
	b.regFile.WriteReg(inst.Rd, b.regFile.PC+uint64(inst.Len))
	b.regFile.PC = uint64(int64(b.regFile.PC) + inst.Imm)
}

// ExecuteJalr executes JALR. The base register is read before the
// link register is written, so rd == rs1 jumps to the old register
// value. The low bit of the target is cleared.
func (b *BranchUnit) ExecuteJalr(inst *insts.Instruction) {
	target := uint64(int64(b.regFile.ReadReg(inst.Rs1))+inst.Imm) &^ 1
	b.regFile.WriteReg(inst.Rd, b.regFile.PC+uint64(inst.Len))
	b.regFile.PC = target
}
