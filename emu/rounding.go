package emu

import (
	"fmt"
	"math"
	"math/big"

	"github.com/sarchlab/rv64sim/insts"
)

// RoundingMode selects how an inexact floating-point result is rounded.
type RoundingMode uint8

// Rounding modes, in the frm encoding order.
const (
	RoundNearestEven RoundingMode = iota
	RoundTowardZero
	RoundDown
	RoundUp
	RoundNearestMaxMagnitude
)

// resolveRoundingMode maps an instruction's rm field, together with
// the dynamic frm value, to a rounding mode. Reserved encodings
// produce an error; the instruction then faults without retiring.
func resolveRoundingMode(rm uint8, frm uint8) (RoundingMode, error) {
	if rm == insts.RmDYN {
		rm = frm
	}
	if rm > uint8(RoundNearestMaxMagnitude) {
		return 0, fmt.Errorf("reserved rounding mode %d", rm)
	}
	return RoundingMode(rm), nil
}

// roundToIntegral rounds x to an integral float64 value under mode.
func roundToIntegral(x float64, mode RoundingMode) float64 {
	switch mode {
	case RoundTowardZero:
		return math.Trunc(x)
	case RoundDown:
		return math.Floor(x)
	case RoundUp:
		return math.Ceil(x)
	case RoundNearestMaxMagnitude:
		return math.Round(x)
	default:
		return math.RoundToEven(x)
	}
}

// Precision used for intermediate big.Float computation. sumPrec is
// wide enough that products, sums, and fused products of float64
// operands are exact; quoPrec is wide enough that a quotient or square
// root rounded twice (once to quoPrec bits, once to the target format)
// equals the value rounded once.
const (
	sumPrec = 3400
	quoPrec = 120
)

func bigFromFloat64(f float64) *big.Float {
	return new(big.Float).SetPrec(sumPrec).SetFloat64(f)
}

// roundResult64 derives the mode-rounded float64 result and exception
// flags from the correctly rounded-to-nearest native result r and the
// high-precision intermediate value. acc describes how the
// intermediate relates to the infinitely precise result; it is Exact
// for operations computed exactly and carries the residual direction
// for quotients and square roots.
func roundResult64(r float64, intermediate *big.Float, acc big.Accuracy,
	mode RoundingMode) (float64, uint8) {
	cmp := intermediate.Cmp(bigFromFloat64(r))
	if cmp == 0 {
		if acc == big.Exact {
			return r, 0
		}
		// The intermediate collapsed onto r; the true value lies on
		// the side acc reports.
		if acc == big.Below {
			cmp = 1
		} else {
			cmp = -1
		}
	}

	// r and other bracket the true value.
	other := math.Nextafter(r, math.Inf(cmp))

	// An exact tie can only arise from an exactly computed
	// intermediate. Quotients and square roots never land on a tie.
	tie := false
	if acc == big.Exact && !math.IsInf(r, 0) {
		mid := bigFromFloat64(r)
		mid.Add(mid, bigFromFloat64(other))
		mid.Quo(mid, big.NewFloat(2))
		tie = intermediate.Cmp(mid) == 0
	}

	lower, upper := r, other
	if cmp < 0 {
		lower, upper = other, r
	}

	var res float64
	switch mode {
	case RoundTowardZero:
		if intermediate.Signbit() {
			res = upper
		} else {
			res = lower
		}
	case RoundDown:
		res = lower
	case RoundUp:
		res = upper
	case RoundNearestMaxMagnitude:
		res = r
		if tie && math.Abs(other) > math.Abs(r) {
			res = other
		}
	default:
		res = r
	}

	flags := FlagNX
	switch {
	case math.IsInf(res, 0):
		flags |= FlagOF
	case math.Abs(res) == math.MaxFloat64 && beyondOverflow(intermediate, 1024):
		flags |= FlagOF
	case res == 0 || isSubnormal64(res):
		flags |= FlagUF
	}
	return res, flags
}

// roundResult32 is the single-precision counterpart of roundResult64.
// The native result r must be the correctly rounded-to-nearest
// single-precision value.
func roundResult32(r float32, intermediate *big.Float, acc big.Accuracy,
	mode RoundingMode) (float32, uint8) {
	r64 := float64(r)
	cmp := intermediate.Cmp(bigFromFloat64(r64))
	if cmp == 0 {
		if acc == big.Exact {
			return r, 0
		}
		if acc == big.Below {
			cmp = 1
		} else {
			cmp = -1
		}
	}

	other := nextAfter32(r, float32(math.Inf(cmp)))

	tie := false
	if acc == big.Exact && !math.IsInf(r64, 0) {
		mid := bigFromFloat64(r64)
		mid.Add(mid, bigFromFloat64(float64(other)))
		mid.Quo(mid, big.NewFloat(2))
		tie = intermediate.Cmp(mid) == 0
	}

	lower, upper := r, other
	if cmp < 0 {
		lower, upper = other, r
	}

	var res float32
	switch mode {
	case RoundTowardZero:
		if intermediate.Signbit() {
			res = upper
		} else {
			res = lower
		}
	case RoundDown:
		res = lower
	case RoundUp:
		res = upper
	case RoundNearestMaxMagnitude:
		res = r
		if tie && math.Abs(float64(other)) > math.Abs(r64) {
			res = other
		}
	default:
		res = r
	}

	flags := FlagNX
	switch {
	case math.IsInf(float64(res), 0):
		flags |= FlagOF
	case math.Abs(float64(res)) == math.MaxFloat32 && beyondOverflow(intermediate, 128):
		flags |= FlagOF
	case res == 0 || isSubnormal32(res):
		flags |= FlagUF
	}
	return res, flags
}

func nextAfter32(x, y float32) float32 {
	return math.Nextafter32(x, y)
}

// beyondOverflow reports whether the intermediate magnitude reaches
// 2^maxExp, the point where even truncating rounding with an unbounded
// exponent would exceed the largest finite value.
func beyondOverflow(intermediate *big.Float, maxExp int) bool {
	limit := new(big.Float).SetPrec(sumPrec).SetMantExp(big.NewFloat(1), maxExp)
	abs := new(big.Float).SetPrec(sumPrec).Abs(intermediate)
	return abs.Cmp(limit) >= 0
}
