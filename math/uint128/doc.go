// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package uint128 provides double-width unsigned multiplication.
//
// The bounded samplers in the trng package reduce a uniformly random
// full-width integer x into a range R by taking the high half of the
// double-width product x*R.  For 64-bit values that product needs 128 bits,
// which Go does not provide as a native integer type, so this package exposes
// the product as a pair of 64-bit halves.
package uint128
