// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sysrand

import (
	"bytes"
	"strconv"
)

// usesVDSO reports whether a Linux kernel release string, such as the release
// field reported by uname(2), names a kernel that implements getrandom in the
// vDSO.  The release may be NUL padded.
func usesVDSO(kernelVersion []byte) bool {
	var v = kernelVersion

	dot := bytes.IndexByte(v, '.')
	if dot == -1 {
		return false
	}
	maj, err := strconv.Atoi(string(v[:dot]))
	if err != nil {
		return false
	}
	v = v[dot+1:]
	dot = bytes.IndexByte(v, '.')
	if dot == -1 {
		return false
	}
	min, err := strconv.Atoi(string(v[:dot]))
	if err != nil {
		return false
	}

	// getrandom is implemented by the vDSO on Linux >= 6.11.
	return maj >= 7 || (maj == 6 && min >= 11)
}
