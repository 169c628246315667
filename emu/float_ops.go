package emu

import (
	"math"
	"math/big"
)

// The fp* functions implement the IEEE 754 operation semantics the FPU
// builds on: NaN inputs produce the canonical NaN, invalid operands
// raise NV, and every inexact result is rounded under the requested
// mode with the matching exception flags.

func nanFlags64(values ...float64) (bool, uint8) {
	seen := false
	var flags uint8
	for _, v := range values {
		bits := math.Float64bits(v)
		if isNaN64(bits) {
			seen = true
			if isSignalingNaN64(bits) {
				flags = FlagNV
			}
		}
	}
	return seen, flags
}

func fpAdd64(a, b float64, mode RoundingMode) (float64, uint8) {
	if nan, flags := nanFlags64(a, b); nan {
		return math.Float64frombits(canonicalNaN64), flags
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		r := a + b
		if math.IsNaN(r) {
			return math.Float64frombits(canonicalNaN64), FlagNV
		}
		return r, 0
	}
	if a == -b && math.Signbit(a) != math.Signbit(b) {
		// Exact cancellation yields +0 in every mode except
		// round-down.
		if mode == RoundDown {
			return math.Copysign(0, -1), 0
		}
		return 0, 0
	}

	intermediate := bigFromFloat64(a)
	intermediate.Add(intermediate, bigFromFloat64(b))
	return roundResult64(a+b, intermediate, big.Exact, mode)
}

func fpSub64(a, b float64, mode RoundingMode) (float64, uint8) {
	return fpAdd64(a, -b, mode)
}

func fpMul64(a, b float64, mode RoundingMode) (float64, uint8) {
	if nan, flags := nanFlags64(a, b); nan {
		return math.Float64frombits(canonicalNaN64), flags
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		r := a * b
		if math.IsNaN(r) { // Inf * 0
			return math.Float64frombits(canonicalNaN64), FlagNV
		}
		return r, 0
	}
	if a == 0 || b == 0 {
		return a * b, 0
	}

	intermediate := bigFromFloat64(a)
	intermediate.Mul(intermediate, bigFromFloat64(b))
	return roundResult64(a*b, intermediate, big.Exact, mode)
}

func fpDiv64(a, b float64, mode RoundingMode) (float64, uint8) {
	if nan, flags := nanFlags64(a, b); nan {
		return math.Float64frombits(canonicalNaN64), flags
	}
	switch {
	case b == 0:
		if a == 0 {
			return math.Float64frombits(canonicalNaN64), FlagNV
		}
		if math.IsInf(a, 0) {
			return a / b, 0
		}
		return a / b, FlagDZ
	case math.IsInf(a, 0):
		if math.IsInf(b, 0) {
			return math.Float64frombits(canonicalNaN64), FlagNV
		}
		return a / b, 0
	case math.IsInf(b, 0) || a == 0:
		return a / b, 0
	}

	intermediate := new(big.Float).SetPrec(quoPrec)
	intermediate.Quo(bigFromFloat64(a), bigFromFloat64(b))
	return roundResult64(a/b, intermediate, intermediate.Acc(), mode)
}

func fpSqrt64(a float64, mode RoundingMode) (float64, uint8) {
	if nan, flags := nanFlags64(a); nan {
		return math.Float64frombits(canonicalNaN64), flags
	}
	if a == 0 || math.IsInf(a, 1) {
		return a, 0
	}
	if a < 0 {
		return math.Float64frombits(canonicalNaN64), FlagNV
	}

	intermediate := new(big.Float).SetPrec(quoPrec)
	intermediate.Sqrt(bigFromFloat64(a))
	return roundResult64(math.Sqrt(a), intermediate, intermediate.Acc(), mode)
}

func fpFMA64(a, b, c float64, mode RoundingMode) (float64, uint8) {
	infTimesZero := (math.IsInf(a, 0) && b == 0) || (a == 0 && math.IsInf(b, 0))
	if nan, flags := nanFlags64(a, b, c); nan {
		if infTimesZero {
			flags = FlagNV
		}
		return math.Float64frombits(canonicalNaN64), flags
	}
	if infTimesZero {
		return math.Float64frombits(canonicalNaN64), FlagNV
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsInf(c, 0) {
		r := math.FMA(a, b, c)
		if math.IsNaN(r) { // Inf - Inf
			return math.Float64frombits(canonicalNaN64), FlagNV
		}
		return r, 0
	}
	if a == 0 || b == 0 {
		return fpAdd64(a*b, c, mode)
	}

	intermediate := bigFromFloat64(a)
	intermediate.Mul(intermediate, bigFromFloat64(b))
	intermediate.Add(intermediate, bigFromFloat64(c))
	if intermediate.Sign() == 0 {
		if mode == RoundDown {
			return math.Copysign(0, -1), 0
		}
		return 0, 0
	}
	return roundResult64(math.FMA(a, b, c), intermediate, big.Exact, mode)
}

// The single-precision kernels work on float32 values. Native float32
// arithmetic is correctly rounded to nearest, which roundResult32
// refines for the directed modes.

func nanFlags32(values ...float32) (bool, uint8) {
	seen := false
	var flags uint8
	for _, v := range values {
		bits := math.Float32bits(v)
		if isNaN32(bits) {
			seen = true
			if isSignalingNaN32(bits) {
				flags = FlagNV
			}
		}
	}
	return seen, flags
}

func fpAdd32(a, b float32, mode RoundingMode) (float32, uint8) {
	if nan, flags := nanFlags32(a, b); nan {
		return math.Float32frombits(canonicalNaN32), flags
	}
	a64, b64 := float64(a), float64(b)
	if math.IsInf(a64, 0) || math.IsInf(b64, 0) {
		r := a + b
		if isNaN32(math.Float32bits(r)) {
			return math.Float32frombits(canonicalNaN32), FlagNV
		}
		return r, 0
	}
	if a == -b && math.Signbit(a64) != math.Signbit(b64) {
		if mode == RoundDown {
			return float32(math.Copysign(0, -1)), 0
		}
		return 0, 0
	}

	// The float64 sum of two float32 values is exact.
	intermediate := bigFromFloat64(a64 + b64)
	return roundResult32(a+b, intermediate, big.Exact, mode)
}

func fpSub32(a, b float32, mode RoundingMode) (float32, uint8) {
	return fpAdd32(a, -b, mode)
}

func fpMul32(a, b float32, mode RoundingMode) (float32, uint8) {
	if nan, flags := nanFlags32(a, b); nan {
		return math.Float32frombits(canonicalNaN32), flags
	}
	a64, b64 := float64(a), float64(b)
	if math.IsInf(a64, 0) || math.IsInf(b64, 0) {
		r := a * b
		if isNaN32(math.Float32bits(r)) {
			return math.Float32frombits(canonicalNaN32), FlagNV
		}
		return r, 0
	}
	if a == 0 || b == 0 {
		return a * b, 0
	}

	// The float64 product of two float32 values is exact.
	intermediate := bigFromFloat64(a64 * b64)
	return roundResult32(a*b, intermediate, big.Exact, mode)
}

func fpDiv32(a, b float32, mode RoundingMode) (float32, uint8) {
	if nan, flags := nanFlags32(a, b); nan {
		return math.Float32frombits(canonicalNaN32), flags
	}
	a64, b64 := float64(a), float64(b)
	switch {
	case b == 0:
		if a == 0 {
			return math.Float32frombits(canonicalNaN32), FlagNV
		}
		if math.IsInf(a64, 0) {
			return a / b, 0
		}
		return a / b, FlagDZ
	case math.IsInf(a64, 0):
		if math.IsInf(b64, 0) {
			return math.Float32frombits(canonicalNaN32), FlagNV
		}
		return a / b, 0
	case math.IsInf(b64, 0) || a == 0:
		return a / b, 0
	}

	intermediate := new(big.Float).SetPrec(quoPrec)
	intermediate.Quo(bigFromFloat64(a64), bigFromFloat64(b64))
	return roundResult32(a/b, intermediate, intermediate.Acc(), mode)
}

func fpSqrt32(a float32, mode RoundingMode) (float32, uint8) {
	if nan, flags := nanFlags32(a); nan {
		return math.Float32frombits(canonicalNaN32), flags
	}
	a64 := float64(a)
	if a == 0 || math.IsInf(a64, 1) {
		return a, 0
	}
	if a < 0 {
		return math.Float32frombits(canonicalNaN32), FlagNV
	}

	intermediate := new(big.Float).SetPrec(quoPrec)
	intermediate.Sqrt(bigFromFloat64(a64))
	return roundResult32(float32(math.Sqrt(a64)), intermediate,
		intermediate.Acc(), mode)
}

func fpFMA32(a, b, c float32, mode RoundingMode) (float32, uint8) {
	a64, b64, c64 := float64(a), float64(b), float64(c)
	infTimesZero := (math.IsInf(a64, 0) && b == 0) ||
		(a == 0 && math.IsInf(b64, 0))
	if nan, flags := nanFlags32(a, b, c); nan {
		if infTimesZero {
			flags = FlagNV
		}
		return math.Float32frombits(canonicalNaN32), flags
	}
	if infTimesZero {
		return math.Float32frombits(canonicalNaN32), FlagNV
	}
	if math.IsInf(a64, 0) || math.IsInf(b64, 0) || math.IsInf(c64, 0) {
		r := math.FMA(a64, b64, c64)
		if math.IsNaN(r) {
			return math.Float32frombits(canonicalNaN32), FlagNV
		}
		return float32(r), 0
	}
	if a == 0 || b == 0 {
		return fpAdd32(a*b, c, mode)
	}

	intermediate := bigFromFloat64(a64 * b64)
	intermediate.Add(intermediate, bigFromFloat64(c64))
	if intermediate.Sign() == 0 {
		if mode == RoundDown {
			return float32(math.Copysign(0, -1)), 0
		}
		return 0, 0
	}
	// math.FMA computes the exact fused result rounded to float64;
	// rounding that once more to float32 cannot double-round.
	return roundResult32(float32(math.FMA(a64, b64, c64)), intermediate,
		big.Exact, mode)
}

// fpMin64 implements FMIN.D: -0 orders below +0, a single NaN operand
// is ignored, and two NaN operands produce the canonical NaN.
func fpMin64(a, b float64) (float64, uint8) {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)
	_, flags := nanFlags64(a, b)
	switch {
	case aNaN && bNaN:
		return math.Float64frombits(canonicalNaN64), flags
	case aNaN:
		return b, flags
	case bNaN:
		return a, flags
	case a == 0 && b == 0:
		if math.Signbit(a) || math.Signbit(b) {
			return math.Copysign(0, -1), flags
		}
		return 0, flags
	case a < b:
		return a, flags
	default:
		return b, flags
	}
}

// fpMax64 implements FMAX.D.
func fpMax64(a, b float64) (float64, uint8) {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)
	_, flags := nanFlags64(a, b)
	switch {
	case aNaN && bNaN:
		return math.Float64frombits(canonicalNaN64), flags
	case aNaN:
		return b, flags
	case bNaN:
		return a, flags
	case a == 0 && b == 0:
		if math.Signbit(a) && math.Signbit(b) {
			return math.Copysign(0, -1), flags
		}
		return 0, flags
	case a > b:
		return a, flags
	default:
		return b, flags
	}
}

func fpMin32(a, b float32) (float32, uint8) {
	aNaN := isNaN32(math.Float32bits(a))
	bNaN := isNaN32(math.Float32bits(b))
	_, flags := nanFlags32(a, b)
	switch {
	case aNaN && bNaN:
		return math.Float32frombits(canonicalNaN32), flags
	case aNaN:
		return b, flags
	case bNaN:
		return a, flags
	case a == 0 && b == 0:
		if math.Signbit(float64(a)) || math.Signbit(float64(b)) {
			return float32(math.Copysign(0, -1)), flags
		}
		return 0, flags
	case a < b:
		return a, flags
	default:
		return b, flags
	}
}

func fpMax32(a, b float32) (float32, uint8) {
	aNaN := isNaN32(math.Float32bits(a))
	bNaN := isNaN32(math.Float32bits(b))
	_, flags := nanFlags32(a, b)
	switch {
	case aNaN && bNaN:
		return math.Float32frombits(canonicalNaN32), flags
	case aNaN:
		return b, flags
	case bNaN:
		return a, flags
	case a == 0 && b == 0:
		if math.Signbit(float64(a)) && math.Signbit(float64(b)) {
			return float32(math.Copysign(0, -1)), flags
		}
		return 0, flags
	case a > b:
		return a, flags
	default:
		return b, flags
	}
}

// Comparison results. FEQ is a quiet comparison, raising NV only for
// signaling NaNs; FLT and FLE are signaling, raising NV for any NaN.

func fpEQ64(a, b float64) (bool, uint8) {
	if nan, flags := nanFlags64(a, b); nan {
		return false, flags
	}
	return a == b, 0
}

func fpLT64(a, b float64) (bool, uint8) {
	if nan, _ := nanFlags64(a, b); nan {
		return false, FlagNV
	}
	return a < b, 0
}

func fpLE64(a, b float64) (bool, uint8) {
	if nan, _ := nanFlags64(a, b); nan {
		return false, FlagNV
	}
	return a <= b, 0
}

func fpEQ32(a, b float32) (bool, uint8) {
	if nan, flags := nanFlags32(a, b); nan {
		return false, flags
	}
	return a == b, 0
}

func fpLT32(a, b float32) (bool, uint8) {
	if nan, _ := nanFlags32(a, b); nan {
		return false, FlagNV
	}
	return a < b, 0
}

func fpLE32(a, b float32) (bool, uint8) {
	if nan, _ := nanFlags32(a, b); nan {
		return false, FlagNV
	}
	return a <= b, 0
}
