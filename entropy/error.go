// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entropy

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrUnsupported indicates a reseed was requested from an engine that
	// has no entropy source bound to it.
	ErrUnsupported = ErrorKind("ErrUnsupported")

	// ErrSourceUnavailable indicates the source could not be reached or
	// failed to produce entropy.  This includes connectivity, DNS,
	// certificate, and transport failures as well as unsuccessful response
	// statuses.
	ErrSourceUnavailable = ErrorKind("ErrSourceUnavailable")

	// ErrSourceTimeout indicates the source did not produce entropy within
	// its allotted time.
	ErrSourceTimeout = ErrorKind("ErrSourceTimeout")

	// ErrMalformedResponse indicates the source responded, but the payload
	// could not be decoded into entropy bytes or held no entropy at all.
	ErrMalformedResponse = ErrorKind("ErrMalformedResponse")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error reported by an entropy source.  It has full
// support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error.
//
// RawErr holds the lower level error, if any, that caused the failure such as
// a network or decoding error.
type Error struct {
	Err         error
	RawErr      error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	if e.RawErr != nil {
		return e.Description + ": " + e.RawErr.Error()
	}
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}
