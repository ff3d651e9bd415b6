// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build linux

package sysrand

import (
	"golang.org/x/sys/unix"
)

func init() {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err == nil && usesVDSO(utsname.Release[:]) {
		return
	}
	platformRead = getrandom
	platformName = "getrandom(2)"
}

// getrandom fills b using the getrandom(2) system call, retrying when the call
// is interrupted or returns fewer bytes than requested.
func getrandom(b []byte) error {
	for len(b) > 0 {
		n, err := unix.Getrandom(b, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
