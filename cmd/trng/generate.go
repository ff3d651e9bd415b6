// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/decred/trng"
	"github.com/decred/trng/internal/progresslog"
)

// pickNoun returns the singular or plural form of a noun depending on the count
// n.
func pickNoun(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// generate writes cfg.Count values of the configured type to w, one per line.
// Raw bytes are written without separators.  Generation stops early without
// error when ctx is canceled, including when the cancellation abandons a
// reseed of an engine created with ctx as its context.  Progress is reported to the optional progress
// logger.
func generate(ctx context.Context, w io.Writer, e *trng.Engine, cfg *config,
	progress *progresslog.Logger) error {

	// A shuffle is a single permutation of 0..count-1.
	if cfg.Type == "shuffle" {
		perm := make([]string, cfg.Count)
		for i := range perm {
			perm[i] = strconv.Itoa(i)
		}
		err := e.Shuffle(len(perm), func(i, j int) {
			perm[i], perm[j] = perm[j], perm[i]
		})
		if err != nil {
			if shutdownRequested(ctx) {
				return nil
			}
			return err
		}
		if progress != nil {
			progress.LogProgress(int(e.Consumed()), e.Reseeds(), false)
		}
		_, err = fmt.Fprintln(w, strings.Join(perm, " "))
		return err
	}

	for i := 0; i < cfg.Count; i++ {
		if shutdownRequested(ctx) {
			return nil
		}
		consumed := e.Consumed()
		if err := generateOne(w, e, cfg); err != nil {
			if shutdownRequested(ctx) {
				return nil
			}
			return err
		}
		if progress != nil {
			progress.LogProgress(int(e.Consumed()-consumed), e.Reseeds(),
				false)
		}
	}
	return nil
}

// generateOne writes a single value of the configured type to w.
func generateOne(w io.Writer, e *trng.Engine, cfg *config) error {
	var s string
	switch cfg.Type {
	case "bytes":
		b, err := e.NextBytes(cfg.Length)
		if err != nil {
			return err
		}
		switch cfg.Encoding {
		case "raw":
			_, err = w.Write(b)
			return err
		case "base64":
			s = base64.StdEncoding.EncodeToString(b)
		default:
			s = hex.EncodeToString(b)
		}

	case "bool":
		v, err := e.NextBoolean()
		if err != nil {
			return err
		}
		s = strconv.FormatBool(v)

	case "byte":
		v, err := e.NextByte()
		if err != nil {
			return err
		}
		s = strconv.FormatUint(uint64(v), 10)

	case "int":
		v, err := e.NextInt()
		if err != nil {
			return err
		}
		s = strconv.FormatUint(uint64(v), 10)

	case "long":
		v, err := e.NextLong()
		if err != nil {
			return err
		}
		s = strconv.FormatUint(v, 10)

	case "double":
		v, err := e.NextDouble()
		if err != nil {
			return err
		}
		s = strconv.FormatFloat(v, 'g', -1, 64)

	case "range":
		v, err := e.NextLongRange(cfg.Min, cfg.Max)
		if err != nil {
			return err
		}
		s = strconv.FormatUint(v, 10)

	default:
		return fmt.Errorf("unknown value type %q", cfg.Type)
	}

	_, err := fmt.Fprintln(w, s)
	return err
}
