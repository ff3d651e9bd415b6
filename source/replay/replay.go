// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package replay provides a deterministic entropy source that returns a fixed
// sequence of batches.
//
// It is intended for reproducing exact output sequences, for example to
// cross-check an engine against known test vectors, and for observing how
// often an engine reseeds.  It must never be used where unpredictable output is
// required.
package replay

import (
	"context"
	"fmt"

	"github.com/decred/trng/entropy"
)

// Source returns its batches in order, one per reseed.  Source methods are not
// safe for concurrent access.
type Source struct {
	batches [][]byte
	next    int
	reseeds int
}

// New returns a source that returns copies of the provided batches in order.
func New(batches ...[]byte) *Source {
	s := &Source{batches: make([][]byte, 0, len(batches))}
	for _, b := range batches {
		s.batches = append(s.batches, append([]byte(nil), b...))
	}
	return s
}

// Reseed returns the next batch.  Once every batch has been returned, it fails
// with entropy.ErrSourceUnavailable.
//
// This is part of the entropy.Source interface.
func (s *Source) Reseed(ctx context.Context) ([]byte, error) {
	s.reseeds++
	if s.next >= len(s.batches) {
		str := fmt.Sprintf("replay source exhausted after %d batches",
			len(s.batches))
		return nil, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			Description: str,
		}
	}

	b := s.batches[s.next]
	s.batches[s.next] = nil
	s.next++
	return b, nil
}

// Reseeds returns the number of times Reseed has been called, including calls
// that failed.
func (s *Source) Reseeds() int {
	return s.reseeds
}

// Remaining returns the number of batches that have not been returned yet.
func (s *Source) Remaining() int {
	return len(s.batches) - s.next
}

// Name returns the human-readable name of the source.
//
// This is part of the entropy.Namer interface.
func (s *Source) Name() string {
	return "Replay Generator"
}
