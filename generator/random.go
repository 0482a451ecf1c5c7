package generator

import (
	"math"
	"math/rand/v2"

	"github.com/syssam/fixgen"
)

// intIn returns a uniformly distributed value in [min, max].
func intIn(min, max int64) int64 {
	span := uint64(max) - uint64(min)
	if span == math.MaxUint64 {
		return int64(rand.Uint64())
	}
	return min + int64(rand.Uint64N(span+1))
}

// uintIn returns a uniformly distributed value in [min, max].
func uintIn(min, max uint64) uint64 {
	span := max - min
	if span == math.MaxUint64 {
		return rand.Uint64()
	}
	return min + rand.Uint64N(span+1)
}

// floatIn returns a uniformly distributed value in [min, max].
func floatIn(min, max float64) float64 {
	if min == max {
		return min
	}
	v := min + rand.Float64()*(max-min)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		// span overflowed; sample each half separately
		half := min/2 + max/2
		if rand.IntN(2) == 0 {
			return floatIn(min, half)
		}
		return floatIn(half, max)
	}
	return math.Min(max, v)
}

// sizeIn picks a size in [min, max] following the remark.
func sizeIn(min, max int, remark fixgen.Remark) int {
	switch remark {
	case fixgen.MinValue:
		return min
	case fixgen.MaxValue:
		return max
	default:
		return int(intIn(int64(min), int64(max)))
	}
}
