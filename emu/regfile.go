// Package emu provides functional RV64 emulation.
package emu

// RegFile represents the RV64 register file.
// It contains 32 integer registers (x0-x31), 32 floating-point
// registers (f0-f31), the program counter, and the floating-point CSR
// state.
type RegFile struct {
	// X holds the integer registers x0-x31.
	// X[0] is the zero register and always reads as 0.
	X [32]uint64

	// F holds the floating-point registers f0-f31 as raw bit
	// patterns. Single-precision values are NaN-boxed.
	F [32]uint64

	// PC is the program counter.
	PC uint64

	// FCsr holds the fflags and frm state.
	FCsr FCsr
}

// ReadReg reads an integer register value. Register 0 returns 0.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to an integer register. Writes to register 0
// are discarded.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.X[reg] = value
}

// ReadFReg reads the raw bit pattern of a floating-point register.
func (r *RegFile) ReadFReg(reg uint8) uint64 {
	return r.F[reg&0x1F]
}

// WriteFReg writes a raw bit pattern to a floating-point register.
func (r *RegFile) WriteFReg(reg uint8, value uint64) {
	r.F[reg&0x1F] = value
}

// ReadFReg32 reads a floating-point register as a single-precision bit
// pattern, unboxing the NaN-boxed representation.
func (r *RegFile) ReadFReg32(reg uint8) uint32 {
	return unboxFloat32(r.F[reg&0x1F])
}

// WriteFReg32 writes a single-precision bit pattern to a
// floating-point register with NaN boxing.
func (r *RegFile) WriteFReg32(reg uint8, value uint32) {
	r.F[reg&0x1F] = boxFloat32(value)
}
