// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chacha provides an entropy source backed by a ChaCha20 keystream.
//
// Sources created with New read from a crypto/rand PRNG which is keyed from
// the operating system and periodically rekeyed with fresh kernel entropy,
// which makes them a fast default for engines that are not configured with a
// remote provider.  Sources created with NewSeeded never consult the operating
// system and produce the same byte sequence for the same seed, which is useful
// for reproducible test vectors.
package chacha

import (
	"context"
	"encoding/binary"
	"math/bits"

	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/trng/entropy"
	"golang.org/x/crypto/chacha20"
)

const (
	// SeedSize is the required length of seeds for NewSeeded.
	SeedSize = chacha20.KeySize

	// DefaultBatchSize is the number of bytes returned by each reseed when
	// no batch size is specified.
	DefaultBatchSize = 2048

	maxCipherRead = 4 * 1024 * 1024 // 4 MiB
)

// nonce implements a 12-byte little endian counter suitable for use as an
// incrementing ChaCha20 nonce.
type nonce [chacha20.NonceSize]byte

func (n *nonce) inc() {
	n0 := binary.LittleEndian.Uint32(n[0:4])
	n1 := binary.LittleEndian.Uint32(n[4:8])
	n2 := binary.LittleEndian.Uint32(n[8:12])

	var carry uint32
	n0, carry = bits.Add32(n0, 1, carry)
	n1, carry = bits.Add32(n1, 0, carry)
	n2, _ = bits.Add32(n2, 0, carry)

	binary.LittleEndian.PutUint32(n[0:4], n0)
	binary.LittleEndian.PutUint32(n[4:8], n1)
	binary.LittleEndian.PutUint32(n[8:12], n2)
}

// Source is an entropy source producing ChaCha20 keystream.  Source methods
// are not safe for concurrent access.
type Source struct {
	// prng serves sources created with New.
	prng *rand.PRNG

	// Deterministic keystream state for sources created with NewSeeded.
	key    [chacha20.KeySize]byte
	nonce  nonce
	cipher *chacha20.Cipher
	read   int

	batchSize int
	closed    bool
}

func normalizeBatchSize(batchSize int) int {
	if batchSize <= 0 {
		return DefaultBatchSize
	}
	return batchSize
}

// New returns a source keyed with entropy obtained from the operating system
// that returns batchSize bytes per reseed.  A non-positive batchSize selects
// DefaultBatchSize.
func New(batchSize int) (*Source, error) {
	prng, err := rand.NewPRNG()
	if err != nil {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			RawErr:      err,
			Description: "unable to key chacha20 source",
		}
	}
	return &Source{prng: prng, batchSize: normalizeBatchSize(batchSize)}, nil
}

// NewSeeded returns a deterministic source keyed by seed that returns
// batchSize bytes per reseed.  A non-positive batchSize selects
// DefaultBatchSize.
func NewSeeded(seed [SeedSize]byte, batchSize int) *Source {
	s := &Source{
		key:       seed,
		batchSize: normalizeBatchSize(batchSize),
	}
	s.rekey()
	return s
}

// rekey replaces the deterministic cipher with one keyed by the current key
// and nonce.
func (s *Source) rekey() {
	// never errors with correct key and nonce sizes
	cipher, _ := chacha20.NewUnauthenticatedCipher(s.key[:], s.nonce[:])
	s.cipher = cipher
	s.nonce.inc()
	s.read = 0
}

// seed derives the next deterministic key from the existing keystream.
func (s *Source) seed() {
	s.cipher.XORKeyStream(s.key[:], s.key[:])
	s.rekey()
	log.Tracef("Rekeyed seeded chacha20 source")
}

// keystream fills b with keystream, rekeying as required.
func (s *Source) keystream(b []byte) {
	clear(b)
	if s.prng != nil {
		// Never errors.
		s.prng.Read(b)
		return
	}

	for s.read+len(b) > maxCipherRead {
		l := maxCipherRead - s.read
		s.cipher.XORKeyStream(b[:l], b[:l])
		s.seed()
		b = b[l:]
	}
	s.cipher.XORKeyStream(b, b)
	s.read += len(b)
}

// Reseed returns the next batch of keystream bytes.
//
// This is part of the entropy.Source interface.
func (s *Source) Reseed(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			Description: "chacha20 source is closed",
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceTimeout,
			RawErr:      err,
			Description: "reseed abandoned",
		}
	}

	b := make([]byte, s.batchSize)
	s.keystream(b)
	return b, nil
}

// Read fills b with keystream bytes.  Read never errors on an open source.
func (s *Source) Read(b []byte) (int, error) {
	if s.closed {
		return 0, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			Description: "chacha20 source is closed",
		}
	}
	s.keystream(b)
	return len(b), nil
}

// Name returns the human-readable name of the source.
//
// This is part of the entropy.Namer interface.
func (s *Source) Name() string {
	return "ChaCha20 Keystream Generator"
}

// Close releases the generator and zeroes any seeded key material.
// Subsequent reseeds fail with entropy.ErrSourceUnavailable.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.prng = nil
	clear(s.key[:])
	clear(s.nonce[:])
	s.cipher = nil
	s.closed = true
	return nil
}
