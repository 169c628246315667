package emu

import (
	"fmt"
	"math"

	"github.com/sarchlab/rv64sim/insts"
)

// FPU implements the F and D extension operations against the
// register file, accruing exception flags into fflags.
type FPU struct {
	regFile *RegFile
}

// NewFPU creates a new FPU connected to the given register file.
func NewFPU(regFile *RegFile) *FPU {
	return &FPU{regFile: regFile}
}

func (f *FPU) readS(reg uint8) float32 {
	return math.Float32frombits(f.regFile.ReadFReg32(reg))
}

func (f *FPU) writeS(reg uint8, v float32) {
	f.regFile.WriteFReg32(reg, math.Float32bits(v))
}

func (f *FPU) readD(reg uint8) float64 {
	return math.Float64frombits(f.regFile.ReadFReg(reg))
}

func (f *FPU) writeD(reg uint8, v float64) {
	f.regFile.WriteFReg(reg, math.Float64bits(v))
}

func (f *FPU) mode(rm uint8) (RoundingMode, error) {
	return resolveRoundingMode(rm, f.regFile.FCsr.FRM)
}

// ExecuteOpFp executes an OP-FP instruction: arithmetic, sign
// injection, min/max, comparison, classify, moves, and conversions.
func (f *FPU) ExecuteOpFp(inst *insts.Instruction) error {
	switch inst.Op {
	case insts.OpFADD, insts.OpFSUB, insts.OpFMUL, insts.OpFDIV, insts.OpFSQRT:
		return f.executeArith(inst)
	case insts.OpFSGNJ, insts.OpFSGNJN, insts.OpFSGNJX:
		f.executeSignInject(inst)
	case insts.OpFMIN, insts.OpFMAX:
		f.executeMinMax(inst)
	case insts.OpFEQ, insts.OpFLT, insts.OpFLE:
		f.executeCompare(inst)
	case insts.OpFCLASS:
		f.executeClassify(inst)
	case insts.OpFMVToX:
		f.executeMoveToX(inst)
	case insts.OpFMVFromX:
		f.executeMoveFromX(inst)
	case insts.OpFCVTFpToInt:
		return f.executeCvtToInt(inst)
	case insts.OpFCVTIntToFp:
		return f.executeCvtFromInt(inst)
	case insts.OpFCVTFpToFp:
		return f.executeCvtPrecision(inst)
	default:
		return fmt.Errorf("unsupported FP op %d", inst.Op)
	}
	return nil
}

// ExecuteFma executes a fused multiply-add family instruction.
// FMSUB negates the addend, FNMSUB negates the product, and FNMADD
// negates both.
func (f *FPU) ExecuteFma(inst *insts.Instruction) error {
	mode, err := f.mode(inst.Rm)
	if err != nil {
		return err
	}

	if inst.Double {
		a := f.readD(inst.Rs1)
		b := f.readD(inst.Rs2)
		c := f.readD(inst.Rs3)
		switch inst.Op {
		case insts.OpFMSUB:
			c = -c
		case insts.OpFNMSUB:
			a = -a
		case insts.OpFNMADD:
			a = -a
			c = -c
		}
		r, flags := fpFMA64(a, b, c, mode)
		f.writeD(inst.Rd, r)
		f.regFile.FCsr.Accrue(flags)
		return nil
	}

	a := f.readS(inst.Rs1)
	b := f.readS(inst.Rs2)
	c := f.readS(inst.Rs3)
	switch inst.Op {
	case insts.OpFMSUB:
		c = -c
	case insts.OpFNMSUB:
		a = -a
	case insts.OpFNMADD:
		a = -a
		c = -c
	}
	r, flags := fpFMA32(a, b, c, mode)
	f.writeS(inst.Rd, r)
	f.regFile.FCsr.Accrue(flags)
	return nil
}

func (f *FPU) executeArith(inst *insts.Instruction) error {
	mode, err := f.mode(inst.Rm)
	if err != nil {
		return err
	}

	if inst.Double {
		a := f.readD(inst.Rs1)
		b := f.readD(inst.Rs2)
		var r float64
		var flags uint8
		switch inst.Op {
		case insts.OpFADD:
			r, flags = fpAdd64(a, b, mode)
		case insts.OpFSUB:
			r, flags = fpSub64(a, b, mode)
		case insts.OpFMUL:
			r, flags = fpMul64(a, b, mode)
		case insts.OpFDIV:
			r, flags = fpDiv64(a, b, mode)
		case insts.OpFSQRT:
			r, flags = fpSqrt64(a, mode)
		}
		f.writeD(inst.Rd, r)
		f.regFile.FCsr.Accrue(flags)
		return nil
	}

	a := f.readS(inst.Rs1)
	b := f.readS(inst.Rs2)
	var r float32
	var flags uint8
	switch inst.Op {
	case insts.OpFADD:
		r, flags = fpAdd32(a, b, mode)
	case insts.OpFSUB:
		r, flags = fpSub32(a, b, mode)
	case insts.OpFMUL:
		r, flags = fpMul32(a, b, mode)
	case insts.OpFDIV:
		r, flags = fpDiv32(a, b, mode)
	case insts.OpFSQRT:
		r, flags = fpSqrt32(a, mode)
	}
	f.writeS(inst.Rd, r)
	f.regFile.FCsr.Accrue(flags)
	return nil
}

// executeSignInject implements FSGNJ, FSGNJN, and FSGNJX as pure bit
// operations; NaN payloads pass through untouched.
func (f *FPU) executeSignInject(inst *insts.Instruction) {
	if inst.Double {
		a := f.regFile.ReadFReg(inst.Rs1)
		b := f.regFile.ReadFReg(inst.Rs2)
		const signBit = uint64(1) << 63
		var r uint64
		switch inst.Op {
		case insts.OpFSGNJ:
			r = a&^signBit | b&signBit
		case insts.OpFSGNJN:
			r = a&^signBit | ^b&signBit
		case insts.OpFSGNJX:
			r = a ^ b&signBit
		}
		f.regFile.WriteFReg(inst.Rd, r)
		return
	}

	a := f.regFile.ReadFReg32(inst.Rs1)
	b := f.regFile.ReadFReg32(inst.Rs2)
	const signBit = uint32(1) << 31
	var r uint32
	switch inst.Op {
	case insts.OpFSGNJ:
		r = a&^signBit | b&signBit
	case insts.OpFSGNJN:
		r = a&^signBit | ^b&signBit
	case insts.OpFSGNJX:
		r = a ^ b&signBit
	}
	f.regFile.WriteFReg32(inst.Rd, r)
}

func (f *FPU) executeMinMax(inst *insts.Instruction) {
	if inst.Double {
		a := f.readD(inst.Rs1)
		b := f.readD(inst.Rs2)
		var r float64
		var flags uint8
		if inst.Op == insts.OpFMIN {
			r, flags = fpMin64(a, b)
		} else {
			r, flags = fpMax64(a, b)
		}
		f.writeD(inst.Rd, r)
		f.regFile.FCsr.Accrue(flags)
		return
	}

	a := f.readS(inst.Rs1)
	b := f.readS(inst.Rs2)
	var r float32
	var flags uint8
	if inst.Op == insts.OpFMIN {
		r, flags = fpMin32(a, b)
	} else {
		r, flags = fpMax32(a, b)
	}
	f.writeS(inst.Rd, r)
	f.regFile.FCsr.Accrue(flags)
}

func (f *FPU) executeCompare(inst *insts.Instruction) {
	var result bool
	var flags uint8

	if inst.Double {
		a := f.readD(inst.Rs1)
		b := f.readD(inst.Rs2)
		switch inst.Op {
		case insts.OpFEQ:
			result, flags = fpEQ64(a, b)
		case insts.OpFLT:
			result, flags = fpLT64(a, b)
		case insts.OpFLE:
			result, flags = fpLE64(a, b)
		}
	} else {
		a := f.readS(inst.Rs1)
		b := f.readS(inst.Rs2)
		switch inst.Op {
		case insts.OpFEQ:
			result, flags = fpEQ32(a, b)
		case insts.OpFLT:
			result, flags = fpLT32(a, b)
		case insts.OpFLE:
			result, flags = fpLE32(a, b)
		}
	}

	var value uint64
	if result {
		value = 1
	}
	f.regFile.WriteReg(inst.Rd, value)
	f.regFile.FCsr.Accrue(flags)
}

func (f *FPU) executeClassify(inst *insts.Instruction) {
	if inst.Double {
		f.regFile.WriteReg(inst.Rd, classifyFloat64(f.regFile.ReadFReg(inst.Rs1)))
		return
	}
	f.regFile.WriteReg(inst.Rd, classifyFloat32(f.regFile.ReadFReg32(inst.Rs1)))
}

// executeMoveToX implements FMV.X.W and FMV.X.D: raw bit transfers
// into the integer register file. The W form moves the low 32 bits
// sign-extended.
func (f *FPU) executeMoveToX(inst *insts.Instruction) {
	if inst.Double {
		f.regFile.WriteReg(inst.Rd, f.regFile.ReadFReg(inst.Rs1))
		return
	}
	bits := f.regFile.ReadFReg(inst.Rs1)
	f.regFile.WriteReg(inst.Rd, uint64(int64(int32(uint32(bits)))))
}

// executeMoveFromX implements FMV.W.X and FMV.D.X.
func (f *FPU) executeMoveFromX(inst *insts.Instruction) {
	v := f.regFile.ReadReg(inst.Rs1)
	if inst.Double {
		f.regFile.WriteFReg(inst.Rd, v)
		return
	}
	f.regFile.WriteFReg32(inst.Rd, uint32(v))
}

func (f *FPU) executeCvtToInt(inst *insts.Instruction) error {
	mode, err := f.mode(inst.Rm)
	if err != nil {
		return err
	}

	var src float64
	if inst.Double {
		src = f.readD(inst.Rs1)
	} else {
		// Widening to double is exact, so the clamping and rounding
		// behavior is shared between both source precisions.
		s := f.readS(inst.Rs1)
		if isNaN32(math.Float32bits(s)) {
			src = math.NaN()
		} else {
			src = float64(s)
		}
	}

	var value uint64
	var flags uint8
	switch {
	case inst.Cvt64 && inst.CvtSigned:
		var v int64
		v, flags = cvtFloat64ToInt64(src, mode)
		value = uint64(v)
	case inst.Cvt64:
		value, flags = cvtFloat64ToUint64(src, mode)
	case inst.CvtSigned:
		var v int32
		v, flags = cvtFloat64ToInt32(src, mode)
		value = uint64(int64(v))
	default:
		var v uint32
		v, flags = cvtFloat64ToUint32(src, mode)
		value = uint64(int64(int32(v)))
	}
	f.regFile.WriteReg(inst.Rd, value)
	f.regFile.FCsr.Accrue(flags)
	return nil
}

func (f *FPU) executeCvtFromInt(inst *insts.Instruction) error {
	mode, err := f.mode(inst.Rm)
	if err != nil {
		return err
	}

	raw := f.regFile.ReadReg(inst.Rs1)
	var flags uint8
	if inst.Double {
		var r float64
		switch {
		case inst.Cvt64 && inst.CvtSigned:
			r, flags = cvtInt64ToFloat64(int64(raw), mode)
		case inst.Cvt64:
			r, flags = cvtUint64ToFloat64(raw, mode)
		case inst.CvtSigned:
			// A 32-bit integer always converts to double exactly.
			r = float64(int32(raw))
		default:
			r = float64(uint32(raw))
		}
		f.writeD(inst.Rd, r)
	} else {
		var r float32
		switch {
		case inst.Cvt64 && inst.CvtSigned:
			r, flags = cvtInt64ToFloat32(int64(raw), mode)
		case inst.Cvt64:
			r, flags = cvtUint64ToFloat32(raw, mode)
		case inst.CvtSigned:
			r, flags = cvtInt64ToFloat32(int64(int32(raw)), mode)
		default:
			r, flags = cvtUint64ToFloat32(uint64(uint32(raw)), mode)
		}
		f.writeS(inst.Rd, r)
	}
	f.regFile.FCsr.Accrue(flags)
	return nil
}

func (f *FPU) executeCvtPrecision(inst *insts.Instruction) error {
	mode, err := f.mode(inst.Rm)
	if err != nil {
		return err
	}

	if inst.SrcDouble {
		r, flags := cvtFloat64To32(f.readD(inst.Rs1), mode)
		f.writeS(inst.Rd, r)
		f.regFile.FCsr.Accrue(flags)
		return nil
	}
	r, flags := cvtFloat32To64(f.readS(inst.Rs1))
	f.writeD(inst.Rd, r)
	f.regFile.FCsr.Accrue(flags)
	return nil
}
