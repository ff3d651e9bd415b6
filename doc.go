// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package trng implements a random number engine that turns a finite,
periodically replenished pool of raw entropy bytes into uniformly distributed
booleans, bytes, fixed-width integers, bounded integers, and floating point
values.

An Engine owns an entropy pool and draws from it strictly in arrival order.
Whenever the pool cannot satisfy a request, the engine asks its entropy.Source
for a fresh batch of bytes and appends it to the pool.  Every value returned by
the engine is therefore derived from pool bytes that were never handed out
before.

Bounded integers are produced with Lemire's multiply-and-reject method, which
is exactly uniform over the requested range and needs no division in the
common case.  The 64-bit variant relies on the double-width products provided
by the math/uint128 package.

# Sources

Any type implementing entropy.Source may back an engine.  The source
subpackages provide a ChaCha20 keystream (the default), operating system
entropy, an HTTP provider of hexadecimal entropy text, a websocket stream, and
a deterministic replay source for reproducing fixed output sequences.

# Errors

Malformed requests such as an empty buffer or an inverted range are reported
with ErrInvalidArgument before any entropy is consumed.  Failures to replenish
the pool are reported with the error kinds of the entropy package and leave the
engine usable for a later retry.

# Concurrency

An Engine is not safe for concurrent access.  Use one engine per goroutine or
guard it with a mutex.
*/
package trng
