// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package entropy defines the contract between a random engine and the
// providers of the raw entropy it consumes.
//
// A Source supplies batches of fresh, independent, uniformly random bytes on
// demand.  Implementations live in the subpackages of source and range from
// in-process keystreams to remote providers reached over HTTP or websockets.
// Failures are reported with the error kinds defined here so callers can tell
// an unreachable provider from a timed out or malformed response regardless of
// the concrete source in use.
package entropy

import "context"

// Source is the capability to replenish an entropy pool.
//
// Reseed must either return a non-empty batch of freshly generated bytes that
// have never been returned before, or an error.  It must not block
// indefinitely: implementations that perform I/O respect ctx and impose their
// own timeout, reporting expiry as ErrSourceTimeout.
//
// Ownership of a returned batch passes to the caller, which may overwrite it.
// Engines zero each batch once its bytes have been copied into their pool, so
// implementations must return a slice they no longer reference.
type Source interface {
	Reseed(ctx context.Context) ([]byte, error)
}

// Namer is implemented by sources which have a human-readable algorithm name.
type Namer interface {
	Name() string
}

// SourceFunc is an adapter to allow the use of ordinary functions as entropy
// sources.
type SourceFunc func(ctx context.Context) ([]byte, error)

// Reseed calls f(ctx).
func (f SourceFunc) Reseed(ctx context.Context) ([]byte, error) {
	return f(ctx)
}
