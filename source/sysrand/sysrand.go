// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sysrand provides an entropy source that reads directly from the
// operating system's random number generator.
//
// On Linux, batches are read with the getrandom(2) system call unless the
// kernel serves crypto/rand from the vDSO, in which case crypto/rand is used.
// Other platforms always use crypto/rand.
package sysrand

import (
	"context"
	cryptorand "crypto/rand"
	"io"

	"github.com/decred/trng/entropy"
)

// DefaultBatchSize is the number of bytes returned by each reseed when no
// batch size is specified.
const DefaultBatchSize = 256

// platformRead fills b with operating system entropy.  It is replaced during
// init on platforms with a more direct interface.
var platformRead = cryptoRead

// platformName describes the interface used by platformRead.
var platformName = "crypto/rand"

func cryptoRead(b []byte) error {
	_, err := io.ReadFull(cryptorand.Reader, b)
	return err
}

// Source is an entropy source reading from the operating system.
type Source struct {
	batchSize int
	read      func([]byte) error
	closed    bool
}

// New returns a source returning batchSize bytes of operating system entropy
// per reseed.  A non-positive batchSize selects DefaultBatchSize.
func New(batchSize int) *Source {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Source{batchSize: batchSize, read: platformRead}
}

// Reseed returns a fresh batch of operating system entropy.
func (s *Source) Reseed(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			Description: "source is closed",
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceTimeout,
			RawErr:      err,
			Description: "reseed canceled",
		}
	}

	b := make([]byte, s.batchSize)
	if err := s.read(b); err != nil {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			RawErr:      err,
			Description: "failed to read operating system entropy",
		}
	}
	log.Tracef("Read %d bytes of entropy via %s", len(b), platformName)
	return b, nil
}

// Name returns the human-readable name of the source.
func (s *Source) Name() string {
	return "Operating System Entropy"
}

// Close marks the source closed.  Later reseeds fail.
func (s *Source) Close() error {
	s.closed = true
	return nil
}
