// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trng

import (
	"fmt"
	"math"

	"github.com/decred/trng/math/uint128"
)

// rejectionThreshold32 returns 2³² mod r for a non-zero r without a 64-bit
// intermediate.
//
// The unsigned negation -r is 2³² - r, which is congruent to 2³² modulo r.
// No reduction is needed for r above 2³¹ and a single subtraction suffices for r
// above a third of 2³², so the division only happens for smaller ranges.
func rejectionThreshold32(r uint32) uint32 {
	t := -r
	if t >= r {
		t -= r
		if t >= r {
			t %= r
		}
	}
	return t
}

// rejectionThreshold64 returns 2⁶⁴ mod r for a non-zero r without a 128-bit
// intermediate.  See rejectionThreshold32 for details.
func rejectionThreshold64(r uint64) uint64 {
	t := -r
	if t >= r {
		t -= r
		if t >= r {
			t %= r
		}
	}
	return t
}

// NextIntRange returns a uniform random uint32 in [lower, upper) without
// modulo bias.  ErrInvalidArgument is returned when lower >= upper.
func (e *Engine) NextIntRange(lower, upper uint32) (uint32, error) {
	if lower >= upper {
		str := fmt.Sprintf("lower bound %d must be less than upper bound %d",
			lower, upper)
		return 0, makeError(ErrInvalidArgument, str)
	}

	// Scale a uniform x in [0,2³²) into [0,r) by taking the high half of the
	// 64-bit product x*r.  Each output k is produced by the products in
	// [k*2³², (k+1)*2³²), of which there are either floor(2³²/r) or
	// ceil(2³²/r).  Rejecting products whose low half falls below 2³² mod r
	// leaves exactly floor(2³²/r) products for every k.  Since that threshold
	// is less than r, computing it is skipped unless the low half is below r.
	//
	// See https://arxiv.org/abs/1805.10941.
	r := upper - lower
	x, err := e.NextInt()
	if err != nil {
		return 0, err
	}
	hi, lo := uint128.Multiply32(x, r)
	if lo < r {
		t := rejectionThreshold32(r)
		for lo < t {
			x, err = e.NextInt()
			if err != nil {
				return 0, err
			}
			hi, lo = uint128.Multiply32(x, r)
		}
	}
	return hi + lower, nil
}

// NextLongRange returns a uniform random uint64 in [lower, upper) without
// modulo bias.  ErrInvalidArgument is returned when lower >= upper.
func (e *Engine) NextLongRange(lower, upper uint64) (uint64, error) {
	if lower >= upper {
		str := fmt.Sprintf("lower bound %d must be less than upper bound %d",
			lower, upper)
		return 0, makeError(ErrInvalidArgument, str)
	}

	// Same method as NextIntRange with a 128-bit product.
	r := upper - lower
	x, err := e.NextLong()
	if err != nil {
		return 0, err
	}
	hi, lo := uint128.Multiply(x, r)
	if lo < r {
		t := rejectionThreshold64(r)
		for lo < t {
			x, err = e.NextLong()
			if err != nil {
				return 0, err
			}
			hi, lo = uint128.Multiply(x, r)
		}
	}
	return hi + lower, nil
}

// NextByteRange returns a uniform random byte in [lower, upper).
// ErrInvalidArgument is returned when lower >= upper.
func (e *Engine) NextByteRange(lower, upper byte) (byte, error) {
	if lower >= upper {
		str := fmt.Sprintf("lower bound %d must be less than upper bound %d",
			lower, upper)
		return 0, makeError(ErrInvalidArgument, str)
	}
	v, err := e.NextIntRange(uint32(lower), uint32(upper))
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

// NextDouble returns a uniform random float64 in [0, 1) using the 53 most
// significant bits of a random uint64 as the mantissa.
func (e *Engine) NextDouble() (float64, error) {
	x, err := e.NextLong()
	if err != nil {
		return 0, err
	}
	return float64(x>>11) * (1.0 / (1 << 53)), nil
}

// NextDoubleRange returns lower plus a uniform random float64 in [0, 1)
// reduced modulo upper-lower+1.  ErrInvalidArgument is returned when
// lower >= upper or when either bound is not a finite number.
//
// The result is always in [lower, lower+1), so it can exceed upper when the
// bounds are less than one apart.  Callers needing a value strictly within a
// narrow range should scale NextDouble themselves.
func (e *Engine) NextDoubleRange(lower, upper float64) (float64, error) {
	if math.IsNaN(lower) || math.IsInf(lower, 0) || math.IsNaN(upper) ||
		math.IsInf(upper, 0) {

		str := fmt.Sprintf("bounds must be finite (got %v, %v)", lower, upper)
		return 0, makeError(ErrInvalidArgument, str)
	}
	if lower >= upper {
		str := fmt.Sprintf("lower bound %v must be less than upper bound %v",
			lower, upper)
		return 0, makeError(ErrInvalidArgument, str)
	}

	diff := upper - lower + 1
	d, err := e.NextDouble()
	if err != nil {
		return 0, err
	}
	return lower + math.Mod(d, diff), nil
}

// Shuffle randomizes the order of n elements by swapping the elements at
// indexes i and j.  ErrInvalidArgument is returned when n < 0.
func (e *Engine) Shuffle(n int, swap func(i, j int)) error {
	if n < 0 {
		str := fmt.Sprintf("cannot shuffle a negative number of elements "+
			"(%d)", n)
		return makeError(ErrInvalidArgument, str)
	}

	// Fisher-Yates shuffle: https://en.wikipedia.org/wiki/Fisher%E2%80%93Yates_shuffle
	for i := n - 1; i > 0; i-- {
		j, err := e.NextLongRange(0, uint64(i+1))
		if err != nil {
			return err
		}
		swap(i, int(j))
	}
	return nil
}
