// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package uint128

import "math/bits"

// Multiply returns the high and low 64-bit halves of the full 128-bit product
// of x and y.
func Multiply(x, y uint64) (hi, lo uint64) {
	return bits.Mul64(x, y)
}

// Multiply32 returns the high and low 32-bit halves of the full 64-bit product
// of x and y.
func Multiply32(x, y uint32) (hi, lo uint32) {
	return bits.Mul32(x, y)
}
