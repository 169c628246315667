package emu

import (
	"math"
	"math/big"
)

// cvtFloat64To32 narrows a double to a single under the given mode.
func cvtFloat64To32(a float64, mode RoundingMode) (float32, uint8) {
	bits := math.Float64bits(a)
	if isNaN64(bits) {
		var flags uint8
		if isSignalingNaN64(bits) {
			flags = FlagNV
		}
		return math.Float32frombits(canonicalNaN32), flags
	}
	if a == 0 || math.IsInf(a, 0) {
		return float32(a), 0
	}
	return roundResult32(float32(a), bigFromFloat64(a), big.Exact, mode)
}

// cvtFloat32To64 widens a single to a double. The conversion is always
// exact; only signaling NaN inputs raise a flag.
func cvtFloat32To64(a float32) (float64, uint8) {
	bits := math.Float32bits(a)
	if isNaN32(bits) {
		var flags uint8
		if isSignalingNaN32(bits) {
			flags = FlagNV
		}
		return math.Float64frombits(canonicalNaN64), flags
	}
	return float64(a), 0
}

// Integer to float conversions. The native Go conversion rounds to
// nearest even; roundResult adjusts for the directed modes.

func cvtInt64ToFloat64(v int64, mode RoundingMode) (float64, uint8) {
	return roundResult64(float64(v),
		new(big.Float).SetPrec(sumPrec).SetInt64(v), big.Exact, mode)
}

func cvtUint64ToFloat64(v uint64, mode RoundingMode) (float64, uint8) {
	return roundResult64(float64(v),
		new(big.Float).SetPrec(sumPrec).SetUint64(v), big.Exact, mode)
}

func cvtInt64ToFloat32(v int64, mode RoundingMode) (float32, uint8) {
	return roundResult32(float32(v),
		new(big.Float).SetPrec(sumPrec).SetInt64(v), big.Exact, mode)
}

func cvtUint64ToFloat32(v uint64, mode RoundingMode) (float32, uint8) {
	return roundResult32(float32(v),
		new(big.Float).SetPrec(sumPrec).SetUint64(v), big.Exact, mode)
}

// Float to integer conversions round towards an integral value under
// the requested mode, then clamp. Out-of-range values and NaN raise NV
// and deliver the saturated result; NaN saturates to the maximum.

func cvtFloat64ToInt64(a float64, mode RoundingMode) (int64, uint8) {
	if math.IsNaN(a) {
		return math.MaxInt64, FlagNV
	}
	rounded := roundToIntegral(a, mode)
	if rounded >= 0x1p63 {
		return math.MaxInt64, FlagNV
	}
	if rounded < -0x1p63 {
		return math.MinInt64, FlagNV
	}
	var flags uint8
	if rounded != a {
		flags = FlagNX
	}
	return int64(rounded), flags
}

func cvtFloat64ToUint64(a float64, mode RoundingMode) (uint64, uint8) {
	if math.IsNaN(a) {
		return math.MaxUint64, FlagNV
	}
	rounded := roundToIntegral(a, mode)
	if rounded >= 0x1p64 {
		return math.MaxUint64, FlagNV
	}
	if rounded < 0 {
		return 0, FlagNV
	}
	var flags uint8
	if rounded != a {
		flags = FlagNX
	}
	return uint64(rounded), flags
}

func cvtFloat64ToInt32(a float64, mode RoundingMode) (int32, uint8) {
	if math.IsNaN(a) {
		return math.MaxInt32, FlagNV
	}
	rounded := roundToIntegral(a, mode)
	if rounded >= 0x1p31 {
		return math.MaxInt32, FlagNV
	}
	if rounded < -0x1p31 {
		return math.MinInt32, FlagNV
	}
	var flags uint8
	if rounded != a {
		flags = FlagNX
	}
	return int32(rounded), flags
}

func cvtFloat64ToUint32(a float64, mode RoundingMode) (uint32, uint8) {
	if math.IsNaN(a) {
		return math.MaxUint32, FlagNV
	}
	rounded := roundToIntegral(a, mode)
	if rounded >= 0x1p32 {
		return math.MaxUint32, FlagNV
	}
	if rounded < 0 {
		return 0, FlagNV
	}
	var flags uint8
	if rounded != a {
		flags = FlagNX
	}
	return uint32(rounded), flags
}
