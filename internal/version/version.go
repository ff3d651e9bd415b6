// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version provides a single location to house the version information
// for trng.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// semverRE is a regular expression used to parse a semantic version string into
// its constituent parts.
var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*` +
	`[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// Version is the application version per the semantic versioning 2.0.0 spec
// (https://semver.org/).
//
// It is defined as a variable so it can be overridden during the build
// process with:
// '-ldflags "-X github.com/decred/trng/internal/version.Version=fullsemver"'
// if needed.
//
// It MUST be a full semantic version or the package will panic at runtime.
var Version = "1.0.0-pre"

// SemVer houses the components of a semantic version.
type SemVer struct {
	Major         uint
	Minor         uint
	Patch         uint
	PreRelease    string
	BuildMetadata string
}

// String returns the version as a semantic version string.
func (v SemVer) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.PreRelease != "" {
		sb.WriteByte('-')
		sb.WriteString(v.PreRelease)
	}
	if v.BuildMetadata != "" {
		sb.WriteByte('+')
		sb.WriteString(v.BuildMetadata)
	}
	return sb.String()
}

// parseUint converts the passed string to an unsigned integer or returns an
// error if it is invalid.
func parseUint(s string, fieldName string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("malformed semver %s: %w", fieldName, err)
	}
	return uint(val), nil
}

// Parse parses a semantic version string.
func Parse(s string) (SemVer, error) {
	m := semverRE.FindStringSubmatch(s)
	if m == nil {
		err := fmt.Errorf("malformed version string %q: does not conform to "+
			"semver specification", s)
		return SemVer{}, err
	}

	var v SemVer
	var err error
	if v.Major, err = parseUint(m[1], "major"); err != nil {
		return SemVer{}, err
	}
	if v.Minor, err = parseUint(m[2], "minor"); err != nil {
		return SemVer{}, err
	}
	if v.Patch, err = parseUint(m[3], "patch"); err != nil {
		return SemVer{}, err
	}
	v.PreRelease = m[4]
	v.BuildMetadata = m[5]
	return v, nil
}

// parsed is the parsed form of Version.
var parsed SemVer

func init() {
	var err error
	parsed, err = Parse(Version)
	if err != nil {
		panic(err)
	}
}

// Parsed returns the components of the application version.
func Parsed() SemVer {
	return parsed
}

// String returns the application version.  When the version carries no build
// metadata and the binary was built from a version control checkout, the
// abbreviated commit is added as build metadata.
func String() string {
	if parsed.BuildMetadata != "" {
		return Version
	}
	commit := vcsCommitID()
	if commit == "" {
		return Version
	}
	v := parsed
	v.BuildMetadata = commit
	return v.String()
}
