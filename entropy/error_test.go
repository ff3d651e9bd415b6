// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entropy

import (
	"context"
	"errors"
	"io"
	"testing"
)

// TestErrorKindStringer tests the stringized output for the ErrorKind type.
func TestErrorKindStringer(t *testing.T) {
	tests := []struct {
		in   ErrorKind
		want string
	}{
		{ErrUnsupported, "ErrUnsupported"},
		{ErrSourceUnavailable, "ErrSourceUnavailable"},
		{ErrSourceTimeout, "ErrSourceTimeout"},
		{ErrMalformedResponse, "ErrMalformedResponse"},
	}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}

// TestError tests the error output for the Error type.
func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Error
		want string
	}{{
		Error{Description: "some error"},
		"some error",
	}, {
		Error{Description: "fetch failed", RawErr: io.ErrUnexpectedEOF},
		"fetch failed: unexpected EOF",
	}}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}

// TestErrorKindIsAs ensures both ErrorKind and Error can be identified as being
// a specific error kind via errors.Is and unwrapped via errors.As.
func TestErrorKindIsAs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
		wantAs    ErrorKind
	}{{
		name:      "ErrSourceTimeout == ErrSourceTimeout",
		err:       ErrSourceTimeout,
		target:    ErrSourceTimeout,
		wantMatch: true,
		wantAs:    ErrSourceTimeout,
	}, {
		name:      "Error.ErrSourceTimeout == ErrSourceTimeout",
		err:       Error{Err: ErrSourceTimeout},
		target:    ErrSourceTimeout,
		wantMatch: true,
		wantAs:    ErrSourceTimeout,
	}, {
		name:      "Error.ErrMalformedResponse != ErrSourceUnavailable",
		err:       Error{Err: ErrMalformedResponse},
		target:    ErrSourceUnavailable,
		wantMatch: false,
		wantAs:    ErrMalformedResponse,
	}, {
		name:      "Error.ErrSourceUnavailable != io.EOF",
		err:       Error{Err: ErrSourceUnavailable, RawErr: io.EOF},
		target:    io.EOF,
		wantMatch: false,
		wantAs:    ErrSourceUnavailable,
	}}

	for _, test := range tests {
		// Ensure the error matches or not depending on the expected result.
		result := errors.Is(test.err, test.target)
		if result != test.wantMatch {
			t.Errorf("%s: incorrect error identification -- got %v, want %v",
				test.name, result, test.wantMatch)
			continue
		}

		// Ensure the underlying error kind can be unwrapped and is the
		// expected kind.
		var kind ErrorKind
		if !errors.As(test.err, &kind) {
			t.Errorf("%s: unable to unwrap to error kind", test.name)
			continue
		}
		if kind != test.wantAs {
			t.Errorf("%s: unexpected unwrapped error kind -- got %v, want %v",
				test.name, kind, test.wantAs)
			continue
		}
	}
}

// TestSourceFunc ensures the function adapter forwards calls.
func TestSourceFunc(t *testing.T) {
	var calls int
	var src Source = SourceFunc(func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte{1}, nil
	})
	b, err := src.Reseed(context.Background())
	if err != nil || len(b) != 1 || calls != 1 {
		t.Fatalf("unexpected result -- got %x, %v after %d calls", b, err,
			calls)
	}
}
