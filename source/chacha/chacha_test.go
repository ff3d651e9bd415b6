// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chacha

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/decred/trng/entropy"
)

// TestNonceInc ensures the nonce counter carries across its 32-bit words.
func TestNonceInc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{{
		name: "zero",
		in:   "000000000000000000000000",
		want: "010000000000000000000000",
	}, {
		name: "carry into second word",
		in:   "ffffffff0000000000000000",
		want: "000000000100000000000000",
	}, {
		name: "carry into third word",
		in:   "ffffffffffffffff00000000",
		want: "000000000000000001000000",
	}, {
		name: "wraps",
		in:   "ffffffffffffffffffffffff",
		want: "000000000000000000000000",
	}}

	for _, test := range tests {
		var n nonce
		in, _ := hex.DecodeString(test.in)
		copy(n[:], in)
		n.inc()
		if got := hex.EncodeToString(n[:]); got != test.want {
			t.Errorf("%s: got %s, want %s", test.name, got, test.want)
		}
	}
}

// TestSeededKeystream ensures a deterministic source produces the ChaCha20
// keystream for its seed and a zero nonce.
func TestSeededKeystream(t *testing.T) {
	t.Parallel()

	// ChaCha20 block function output for the all-zero key and nonce with
	// block counter zero (RFC 8439, appendix A.1, test vector #1).
	const want = "76b8e0ada0f13d90405d6ae55386bd28bdd219b8a08ded1aa836efcc8b770dc7"

	var seed [SeedSize]byte
	s := NewSeeded(seed, 32)
	b, err := s.Reseed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hex.EncodeToString(b); got != want {
		t.Fatalf("unexpected keystream -- got %s, want %s", got, want)
	}
}

// TestSeededDeterminism ensures two sources with the same seed agree and
// sources with different seeds do not.
func TestSeededDeterminism(t *testing.T) {
	t.Parallel()

	var seedA, seedB [SeedSize]byte
	seedB[0] = 1
	a1 := NewSeeded(seedA, 64)
	a2 := NewSeeded(seedA, 64)
	b := NewSeeded(seedB, 64)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		x, _ := a1.Reseed(ctx)
		y, _ := a2.Reseed(ctx)
		z, _ := b.Reseed(ctx)
		if !bytes.Equal(x, y) {
			t.Fatalf("batch %d: same seed diverged", i)
		}
		if bytes.Equal(x, z) {
			t.Fatalf("batch %d: different seeds agree", i)
		}
		if len(x) != 64 {
			t.Fatalf("batch %d: unexpected batch size %d", i, len(x))
		}
	}
}

// TestBatchesNeverRepeat ensures consecutive batches are distinct keystream,
// including across a rekey at the maximum cipher read.
func TestBatchesNeverRepeat(t *testing.T) {
	t.Parallel()

	var seed [SeedSize]byte
	s := NewSeeded(seed, 0)
	s.read = maxCipherRead - DefaultBatchSize/2

	ctx := context.Background()
	prev, _ := s.Reseed(ctx)
	for i := 0; i < 3; i++ {
		next, err := s.Reseed(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bytes.Equal(prev, next) {
			t.Fatalf("batch %d repeated the previous batch", i)
		}
		prev = next
	}
	if s.read >= maxCipherRead {
		t.Fatalf("cipher was not rekeyed -- read %d", s.read)
	}
}

// TestNewAndClose ensures a kernel-keyed source reseeds from its generator and
// that closing it releases the generator and fails later reseeds.
func TestNewAndClose(t *testing.T) {
	t.Parallel()

	s, err := New(16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := s.Reseed(context.Background())
	if err != nil || len(b) != 16 {
		t.Fatalf("unexpected reseed -- got %x, %v", b, err)
	}
	if s.Name() == "" {
		t.Fatal("empty source name")
	}
	if s.prng == nil || s.cipher != nil {
		t.Fatal("kernel-keyed source is not backed by its generator")
	}
	b2, err := s.Reseed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(b, b2) {
		t.Fatal("consecutive batches repeated")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if s.prng != nil {
		t.Fatal("generator not released on close")
	}
	_, err = s.Reseed(context.Background())
	if !errors.Is(err, entropy.ErrSourceUnavailable) {
		t.Fatalf("unexpected error -- got %v, want %v", err,
			entropy.ErrSourceUnavailable)
	}
}

// TestReseedCanceled ensures a canceled context is reported as a timeout.
func TestReseedCanceled(t *testing.T) {
	t.Parallel()

	var seed [SeedSize]byte
	s := NewSeeded(seed, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Reseed(ctx)
	if !errors.Is(err, entropy.ErrSourceTimeout) {
		t.Fatalf("unexpected error -- got %v, want %v", err,
			entropy.ErrSourceTimeout)
	}
}

// TestSeededClose ensures closing a seeded source zeroes its key material.
func TestSeededClose(t *testing.T) {
	t.Parallel()

	seed := [SeedSize]byte{0: 0xaa, 31: 0x55}
	s := NewSeeded(seed, 8)
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if s.key != [SeedSize]byte{} || s.nonce != (nonce{}) {
		t.Fatal("key material not zeroed on close")
	}
	if _, err := s.Read(make([]byte, 4)); !errors.Is(err,
		entropy.ErrSourceUnavailable) {

		t.Fatalf("unexpected error -- got %v, want %v", err,
			entropy.ErrSourceUnavailable)
	}
}
