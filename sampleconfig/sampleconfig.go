// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sampleconfig provides the commented example configuration file for
// trng.
package sampleconfig

import (
	_ "embed"
)

// sampleTrngConf is a string containing the commented example config for trng.
//
//go:embed sample-trng.conf
var sampleTrngConf string

// Trng returns a string containing the commented example config for trng.
func Trng() string {
	return sampleTrngConf
}
