package emu

import (
	"fmt"

	"github.com/sarchlab/rv64sim/insts"
)

// Exception flag bits of the fflags CSR.
const (
	FlagNX uint8 = 1 << 0 // Inexact
	FlagUF uint8 = 1 << 1 // Underflow
	FlagOF uint8 = 1 << 2 // Overflow
	FlagDZ uint8 = 1 << 3 // Divide by zero
	FlagNV uint8 = 1 << 4 // Invalid operation
)

// FCsr holds the floating-point control and status state: the five
// accrued exception flags and the dynamic rounding mode.
type FCsr struct {
	// Flags holds the accrued exception flags (fflags), 5 bits.
	Flags uint8

	// FRM holds the dynamic rounding mode, 3 bits. Values 5 and 6
	// can be written but fault any operation that consumes them.
	FRM uint8
}

// Read returns the value of the CSR at the given address.
func (c *FCsr) Read(addr uint16) (uint64, error) {
	switch addr {
	case insts.CsrFFlags:
		return uint64(c.Flags), nil
	case insts.CsrFRM:
		return uint64(c.FRM), nil
	case insts.CsrFCsr:
		return uint64(c.FRM)<<5 | uint64(c.Flags), nil
	default:
		return 0, fmt.Errorf("unsupported CSR 0x%03X", addr)
	}
}

// Write sets the value of the CSR at the given address. Bits beyond
// the CSR's width are ignored, matching the WARL behavior of the
// floating-point CSRs.
func (c *FCsr) Write(addr uint16, value uint64) error {
	switch addr {
	case insts.CsrFFlags:
		c.Flags = uint8(value) & 0x1F
	case insts.CsrFRM:
		c.FRM = uint8(value) & 0x7
	case insts.CsrFCsr:
		c.Flags = uint8(value) & 0x1F
		c.FRM = uint8(value>>5) & 0x7
	default:
		return fmt.Errorf("unsupported CSR 0x%03X", addr)
	}
	return nil
}

// Accrue ORs exception flags into fflags.
func (c *FCsr) Accrue(flags uint8) {
	c.Flags |= flags & 0x1F
}

// CsrUnit executes the Zicsr instructions against the floating-point
// CSRs. Any other CSR address is an illegal instruction.
type CsrUnit struct {
	regFile *RegFile
}

// NewCsrUnit creates a new CsrUnit connected to the given register
// file.
func NewCsrUnit(regFile *RegFile) *CsrUnit {
	return &CsrUnit{regFile: regFile}
}

// Execute runs a CSR instruction. The old CSR value is read before
// the write takes effect, so rd and rs1 may be the same register.
func (u *CsrUnit) Execute(inst *insts.Instruction) error {
	csr := &u.regFile.FCsr

	old, err := csr.Read(inst.Csr)
	if err != nil {
		return err
	}

	operand, write := u.operand(inst)
	if write {
		var value uint64
		switch inst.Op {
		case insts.OpCSRRW, insts.OpCSRRWI:
			value = operand
		case insts.OpCSRRS, insts.OpCSRRSI:
			value = old | operand
		case insts.OpCSRRC, insts.OpCSRRCI:
			value = old &^ operand
		}
		if err := csr.Write(inst.Csr, value); err != nil {
			return err
		}
	}

	u.regFile.WriteReg(inst.Rd, old)
	return nil
}

// operand returns the write operand and whether the instruction
// writes at all. Set and clear forms with a zero source only read.
func (u *CsrUnit) operand(inst *insts.Instruction) (uint64, bool) {
	switch inst.Op {
	case insts.OpCSRRW:
		return u.regFile.ReadReg(inst.Rs1), true
	case insts.OpCSRRWI:
		return uint64(inst.Imm), true
	case insts.OpCSRRS, insts.OpCSRRC:
		return u.regFile.ReadReg(inst.Rs1), inst.Rs1 != 0
	case insts.OpCSRRSI, insts.OpCSRRCI:
		return uint64(inst.Imm), inst.Imm != 0
	}
	return 0, false
}
