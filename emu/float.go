package emu

import "math"

// Canonical NaN bit patterns.
const (
	canonicalNaN32 uint32 = 0x7FC00000
	canonicalNaN64 uint64 = 0x7FF8000000000000
)

// FClass result bits, one per value class.
const (
	ClassNegInf       uint64 = 1 << 0
	ClassNegNormal    uint64 = 1 << 1
	ClassNegSubnormal uint64 = 1 << 2
	ClassNegZero      uint64 = 1 << 3
	ClassPosZero      uint64 = 1 << 4
	ClassPosSubnormal uint64 = 1 << 5
	ClassPosNormal    uint64 = 1 << 6
	ClassPosInf       uint64 = 1 << 7
	ClassSignalingNaN uint64 = 1 << 8
	ClassQuietNaN     uint64 = 1 << 9
)

// boxFloat32 NaN-boxes a single-precision bit pattern into a
// doubleword register value.
func boxFloat32(bits32 uint32) uint64 {
	return 0xFFFFFFFF00000000 | uint64(bits32)
}

// unboxFloat32 extracts a single-precision bit pattern from a
// doubleword register value. A value that is not properly NaN-boxed
// reads as the canonical NaN.
func unboxFloat32(bits uint64) uint32 {
	if bits>>32 != 0xFFFFFFFF {
		return canonicalNaN32
	}
	return uint32(bits)
}

func isNaN32(bits uint32) bool {
	return bits&0x7F800000 == 0x7F800000 && bits&0x007FFFFF != 0
}

func isNaN64(bits uint64) bool {
	return bits&0x7FF0000000000000 == 0x7FF0000000000000 &&
		bits&0x000FFFFFFFFFFFFF != 0
}

// isSignalingNaN32 reports whether bits is a NaN with the quiet bit
// clear.
func isSignalingNaN32(bits uint32) bool {
	return isNaN32(bits) && bits&0x00400000 == 0
}

func isSignalingNaN64(bits uint64) bool {
	return isNaN64(bits) && bits&0x0008000000000000 == 0
}

// classifyFloat32 computes the FCLASS.S result for a single-precision
// bit pattern.
func classifyFloat32(bits uint32) uint64 {
	sign := bits>>31 == 1
	exp := bits >> 23 & 0xFF
	frac := bits & 0x007FFFFF

	switch {
	case exp == 0xFF && frac != 0:
		if bits&0x00400000 != 0 {
			return ClassQuietNaN
		}
		return ClassSignalingNaN
	case exp == 0xFF:
		if sign {
			return ClassNegInf
		}
		return ClassPosInf
	case exp == 0 && frac == 0:
		if sign {
			return ClassNegZero
		}
		return ClassPosZero
	case exp == 0:
		if sign {
			return ClassNegSubnormal
		}
		return ClassPosSubnormal
	default:
		if sign {
			return ClassNegNormal
		}
		return ClassPosNormal
	}
}

// classifyFloat64 computes the FCLASS.D result for a double-precision
// bit pattern.
func classifyFloat64(bits uint64) uint64 {
	sign := bits>>63 == 1
	exp := bits >> 52 & 0x7FF
	frac := bits & 0x000FFFFFFFFFFFFF

	switch {
	case exp == 0x7FF && frac != 0:
		if bits&0x0008000000000000 != 0 {
			return ClassQuietNaN
		}
		return ClassSignalingNaN
	case exp == 0x7FF:
		if sign {
			return ClassNegInf
		}
		return ClassPosInf
	case exp == 0 && frac == 0:
		if sign {
			return ClassNegZero
		}
		return ClassPosZero
	case exp == 0:
		if sign {
			return ClassNegSubnormal
		}
		return ClassPosSubnormal
	default:
		if sign {
			return ClassNegNormal
		}
		return ClassPosNormal
	}
}

// isSubnormal64 reports whether a finite nonzero float64 is subnormal.
func isSubnormal64(f float64) bool {
	bits := math.Float64bits(f)
	return bits&0x7FF0000000000000 == 0 && bits&0x000FFFFFFFFFFFFF != 0
}

// isSubnormal32 reports whether a finite nonzero float32 is subnormal.
func isSubnormal32(f float32) bool {
	bits := math.Float32bits(f)
	return bits&0x7F800000 == 0 && bits&0x007FFFFF != 0
}
