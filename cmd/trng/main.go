// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/decred/trng"
	"github.com/decred/trng/entropy"
	"github.com/decred/trng/internal/progresslog"
	"github.com/decred/trng/internal/version"
	"github.com/decred/trng/source/chacha"
	"github.com/decred/trng/source/httpsource"
	"github.com/decred/trng/source/sysrand"
	"github.com/decred/trng/source/wssource"
	"golang.org/x/term"
)

// newSource creates the entropy source selected by cfg.
func newSource(ctx context.Context, cfg *config) (entropy.Source, error) {
	switch cfg.Source {
	case "chacha":
		if cfg.seed != nil {
			return chacha.NewSeeded(*cfg.seed, cfg.PoolSize), nil
		}
		return chacha.New(cfg.PoolSize)

	case "system":
		return sysrand.New(cfg.PoolSize), nil

	case "http":
		return httpsource.New(&httpsource.Config{
			URL:       cfg.URL,
			Format:    cfg.format,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			Proxy:     cfg.Proxy,
			ProxyUser: cfg.ProxyUser,
			ProxyPass: cfg.ProxyPass,
		})

	case "ws":
		return wssource.Dial(ctx, &wssource.Config{
			URL:     cfg.URL,
			Request: cfg.Request,
			Timeout: cfg.Timeout,
		})
	}
	return nil, fmt.Errorf("unknown entropy source %q", cfg.Source)
}

// trngMain is the real main function for trng.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func trngMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		var e errSuppressUsage
		if !errors.As(err, &e) {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Refuse to write raw bytes to a terminal unless forced.
	if cfg.Type == "bytes" && cfg.Encoding == "raw" && !cfg.Force &&
		term.IsTerminal(int(os.Stdout.Fd())) {

		err := errors.New("refusing to write raw bytes to a terminal " +
			"(use --force to override)")
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	// Get a context that will be canceled when a shutdown signal has been
	// triggered.
	ctx := shutdownListener()

	mainLog.Debugf("Version %s (Go version %s %s/%s)", version.String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)

	// Enable http profiling server if requested.
	if cfg.Profile != "" {
		var profiler profileServer
		if err := profiler.Start(cfg.Profile); err != nil {
			mainLog.Errorf("Unable to start profiling server: %v", err)
			return err
		}
		defer profiler.Stop()
	}

	src, err := newSource(ctx, cfg)
	if err != nil {
		mainLog.Errorf("Unable to create entropy source: %v", err)
		return err
	}
	if closer, ok := src.(io.Closer); ok {
		defer closer.Close()
	}

	engine, err := trng.New(&trng.Config{
		Source:        src,
		PoolCapacity:  cfg.PoolSize,
		ReseedTimeout: cfg.Timeout,
		Context:       ctx,
	})
	if err != nil {
		mainLog.Errorf("Unable to create engine: %v", err)
		return err
	}
	defer engine.Close()
	mainLog.Debugf("Using %s", engine.AlgorithmName())

	// Fill the pool up front so an interrupt can cancel a slow remote
	// source.
	if err := engine.Reseed(ctx); err != nil {
		if shutdownRequested(ctx) {
			return nil
		}
		mainLog.Errorf("Unable to obtain entropy: %v", err)
		return err
	}

	progress := progresslog.New("Generated", mainLog)
	defer progress.Flush()

	w := bufio.NewWriter(os.Stdout)
	err = generate(ctx, w, engine, cfg, progress)
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		mainLog.Errorf("%v", err)
		return err
	}
	mainLog.Debugf("Generated %d %s using %d %s", cfg.Count,
		pickNoun(cfg.Count, "value", "values"), engine.Reseeds(),
		pickNoun(int(engine.Reseeds()), "reseed", "reseeds"))
	return nil
}

func main() {
	// Work around defer not working after os.Exit()
	if err := trngMain(); err != nil {
		os.Exit(1)
	}
}
