// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entropy

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DecodeHex decodes hex encoded entropy text as returned by remote providers.
// All whitespace, including line breaks, is removed before decoding and both
// letter cases are accepted.
//
// ErrMalformedResponse is returned when the text holds no hex digits, has an
// odd number of digits, or contains a character that is not a hex digit.
func DecodeHex(text string) ([]byte, error) {
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return nil, Error{
			Err:         ErrMalformedResponse,
			Description: "response contains no hex data",
		}
	}
	if len(text)%2 != 0 {
		return nil, Error{
			Err:    ErrMalformedResponse,
			RawErr: hex.ErrLength,
			Description: fmt.Sprintf("response has odd hex length %d",
				len(text)),
		}
	}
	b, err := hex.DecodeString(text)
	if err != nil {
		return nil, Error{
			Err:         ErrMalformedResponse,
			RawErr:      err,
			Description: "response is not valid hex",
		}
	}
	return b, nil
}
