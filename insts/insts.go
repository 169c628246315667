// Package insts provides RV64 instruction definitions and decoding.
//
// This package implements decoding of RV64 machine code into structured
// instruction representations. It covers the RV64I base ISA plus the
// M (multiply/divide), A (atomics), F/D (single/double floating point),
// and C (compressed) extensions, and the floating-point CSR subset of
// Zicsr (fflags/frm/fcsr).
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x003100B3) // ADD x1, x2, x3
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Rs2: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Rs2)
//
// Compressed (16-bit) encodings decode into the same Instruction forms as
// their 32-bit counterparts, with Len reporting the encoding width in bytes.
package insts
