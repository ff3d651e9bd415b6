// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trng

import (
	"errors"
	"math"
	"math/big"
	"sort"
	"testing"
)

// TestRejectionThreshold ensures the rejection thresholds equal 2ᵂ mod r.
func TestRejectionThreshold(t *testing.T) {
	t.Parallel()

	ranges32 := []uint32{1, 2, 3, 5, 7, 10, 255, 1000, 1 << 16, 1<<31 - 1,
		1 << 31, 1<<31 + 1, math.MaxUint32/3 + 1, math.MaxUint32 - 1,
		math.MaxUint32}
	for _, r := range ranges32 {
		want := uint32((uint64(1) << 32) % uint64(r))
		if got := rejectionThreshold32(r); got != want {
			t.Errorf("r=%d: got %d, want %d", r, got, want)
		}
	}

	two64 := new(big.Int).Lsh(big.NewInt(1), 64)
	ranges64 := []uint64{1, 2, 3, 7, 10, 1 << 32, 1<<32 + 1, 1<<63 - 1,
		1 << 63, 1<<63 + 1, math.MaxUint64/3 + 1, math.MaxUint64 - 1,
		math.MaxUint64}
	for _, r := range ranges64 {
		want := new(big.Int).Mod(two64, new(big.Int).SetUint64(r)).Uint64()
		if got := rejectionThreshold64(r); got != want {
			t.Errorf("r=%d: got %d, want %d", r, got, want)
		}
	}
}

// TestBoundedRejection ensures draws whose scaled remainder falls below the
// rejection threshold are discarded and redrawn.
func TestBoundedRejection(t *testing.T) {
	t.Parallel()

	// With a range of 3 the threshold is 1, so a zero draw (remainder 0) is
	// rejected while an all-ones draw maps to the top of the range.
	e := newFedEngine(t, []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff})
	v, err := e.NextIntRange(5, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("unexpected value -- got %d, want 7", v)
	}
	if e.Buffered() != 0 {
		t.Fatalf("rejected draw not consumed -- %d buffered", e.Buffered())
	}

	e = newFedEngine(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff})
	v64, err := e.NextLongRange(100, 103)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v64 != 102 {
		t.Fatalf("unexpected value -- got %d, want 102", v64)
	}
	if e.Buffered() != 0 {
		t.Fatalf("rejected draw not consumed -- %d buffered", e.Buffered())
	}

	// A power of two range has a zero threshold and never rejects.
	e = newFedEngine(t, []byte{0, 0, 0, 0})
	v, err = e.NextIntRange(0, 16)
	if err != nil || v != 0 {
		t.Fatalf("unexpected value -- got %d, %v", v, err)
	}
}

// TestBoundedInvalidArgument ensures inverted and empty ranges are rejected
// before any entropy is consumed.
func TestBoundedInvalidArgument(t *testing.T) {
	t.Parallel()

	e := newFedEngine(t, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	tests := []struct {
		name string
		fn   func() error
	}{{
		name: "NextIntRange equal",
		fn:   func() error { _, err := e.NextIntRange(5, 5); return err },
	}, {
		name: "NextIntRange inverted",
		fn:   func() error { _, err := e.NextIntRange(6, 5); return err },
	}, {
		name: "NextLongRange equal",
		fn:   func() error { _, err := e.NextLongRange(0, 0); return err },
	}, {
		name: "NextLongRange inverted",
		fn: func() error {
			_, err := e.NextLongRange(math.MaxUint64, 0)
			return err
		},
	}, {
		name: "NextByteRange equal",
		fn:   func() error { _, err := e.NextByteRange(7, 7); return err },
	}, {
		name: "NextByteRange inverted",
		fn:   func() error { _, err := e.NextByteRange(255, 0); return err },
	}, {
		name: "NextDoubleRange equal",
		fn:   func() error { _, err := e.NextDoubleRange(1, 1); return err },
	}, {
		name: "NextDoubleRange inverted",
		fn:   func() error { _, err := e.NextDoubleRange(2, -2); return err },
	}, {
		name: "NextDoubleRange NaN",
		fn: func() error {
			_, err := e.NextDoubleRange(math.NaN(), 1)
			return err
		},
	}, {
		name: "NextDoubleRange Inf",
		fn: func() error {
			_, err := e.NextDoubleRange(0, math.Inf(1))
			return err
		},
	}, {
		name: "Shuffle negative",
		fn:   func() error { return e.Shuffle(-1, func(i, j int) {}) },
	}}

	for _, test := range tests {
		err := test.fn()
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: unexpected error -- got %v, want %v", test.name,
				err, ErrInvalidArgument)
			continue
		}
		var kind ErrorKind
		if !errors.As(err, &kind) || kind != ErrInvalidArgument {
			t.Errorf("%s: unable to unwrap error kind", test.name)
		}
	}
	if e.Buffered() != 8 {
		t.Fatalf("invalid requests consumed entropy -- %d buffered",
			e.Buffered())
	}
}

// chiSquare returns the chi-square statistic of the observed counts against a
// uniform distribution.
func chiSquare(counts []int, total int) float64 {
	expected := float64(total) / float64(len(counts))
	var stat float64
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / expected
	}
	return stat
}

// TestBoundedUniformity ensures bounded samples stay in range and are
// distributed uniformly.  The critical values correspond to a significance
// level of 0.001 for the degrees of freedom of each test.
func TestBoundedUniformity(t *testing.T) {
	t.Parallel()

	const samples = 140000
	tests := []struct {
		name     string
		buckets  int
		critical float64
		draw     func(e *Engine) (int, error)
	}{{
		name:     "uint32 [100, 107)",
		buckets:  7,
		critical: 22.458,
		draw: func(e *Engine) (int, error) {
			v, err := e.NextIntRange(100, 107)
			if v < 100 || v >= 107 {
				t.Fatalf("uint32 %d out of range", v)
			}
			return int(v - 100), err
		},
	}, {
		name:     "uint32 [0, 2³¹+1) top half",
		buckets:  2,
		critical: 10.828,
		draw: func(e *Engine) (int, error) {
			const upper = 1<<31 + 1
			v, err := e.NextIntRange(0, upper)
			if v >= upper {
				t.Fatalf("uint32 %d out of range", v)
			}
			return int(v >> 30 & 1), err
		},
	}, {
		name:     "uint64 [2⁴⁰, 2⁴⁰+13)",
		buckets:  13,
		critical: 32.909,
		draw: func(e *Engine) (int, error) {
			const lower = 1 << 40
			v, err := e.NextLongRange(lower, lower+13)
			if v < lower || v >= lower+13 {
				t.Fatalf("uint64 %d out of range", v)
			}
			return int(v - lower), err
		},
	}, {
		name:     "uint64 [0, 2⁶³+1) top half",
		buckets:  2,
		critical: 10.828,
		draw: func(e *Engine) (int, error) {
			const upper = 1<<63 + 1
			v, err := e.NextLongRange(0, upper)
			if v >= upper {
				t.Fatalf("uint64 %d out of range", v)
			}
			return int(v >> 62 & 1), err
		},
	}, {
		name:     "byte [250, 255)",
		buckets:  5,
		critical: 18.467,
		draw: func(e *Engine) (int, error) {
			v, err := e.NextByteRange(250, 255)
			if v < 250 {
				t.Fatalf("byte %d out of range", v)
			}
			return int(v - 250), err
		},
	}}

	for i, test := range tests {
		e := newSeededEngine(t, byte(i+1))
		counts := make([]int, test.buckets)
		for j := 0; j < samples; j++ {
			bucket, err := test.draw(e)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", test.name, err)
			}
			counts[bucket]++
		}
		if stat := chiSquare(counts, samples); stat > test.critical {
			t.Errorf("%s: distribution not uniform -- chi-square %.3f "+
				"exceeds %.3f (counts %v)", test.name, stat, test.critical,
				counts)
		}
	}
}

// TestNextDouble ensures doubles are in [0, 1) including at the extremes of
// the underlying integer.
func TestNextDouble(t *testing.T) {
	t.Parallel()

	e := newFedEngine(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff})
	d, err := e.NextDouble()
	if err != nil || d != 0 {
		t.Fatalf("unexpected minimum double -- got %v, %v", d, err)
	}
	d, err = e.NextDouble()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 1 - 1.0/(1<<53); d != want {
		t.Fatalf("unexpected maximum double -- got %v, want %v", d, want)
	}

	e = newSeededEngine(t, 0x11)
	for i := 0; i < 10000; i++ {
		d, err := e.NextDouble()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d < 0 || d >= 1 {
			t.Fatalf("double %v out of range", d)
		}
	}
}

// TestNextDoubleRange ensures ranged doubles start at the lower bound and stay
// within one of it.
func TestNextDoubleRange(t *testing.T) {
	t.Parallel()

	e := newSeededEngine(t, 0x22)
	tests := []struct {
		lower, upper float64
	}{
		{0, 1},
		{-5, 5},
		{10, 10.5},
		{-1e9, 1e9},
	}
	for _, test := range tests {
		for i := 0; i < 1000; i++ {
			d, err := e.NextDoubleRange(test.lower, test.upper)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d < test.lower || d > test.lower+1 {
				t.Fatalf("[%v, %v]: double %v out of range", test.lower,
					test.upper, d)
			}
		}
	}
}

// TestShuffle ensures shuffling produces a permutation of the input.
func TestShuffle(t *testing.T) {
	t.Parallel()

	e := newSeededEngine(t, 0x33)
	s := make([]int, 100)
	for i := range s {
		s[i] = i
	}
	err := e.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	moved := 0
	for i, v := range s {
		if v != i {
			moved++
		}
	}
	if moved == 0 {
		t.Fatal("shuffle left every element in place")
	}
	sort.Ints(s)
	for i, v := range s {
		if v != i {
			t.Fatalf("shuffle is not a permutation: missing %d", i)
		}
	}

	// Trivial shuffles do not draw entropy.
	fed := newFedEngine(t, nil)
	for _, n := range []int{0, 1} {
		if err := fed.Shuffle(n, func(i, j int) {}); err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
	}
}
