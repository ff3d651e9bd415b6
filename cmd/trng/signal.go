// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
)

// interruptSignals defines the default signals to catch in order to stop
// generating values.  This may be modified during init depending on the
// platform.
var interruptSignals = []os.Signal{os.Interrupt}

// shutdownListener listens for OS signals such as SIGINT (Ctrl+C).  It returns
// a context that is canceled when a signal is received.
func shutdownListener() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		sig := <-interruptChannel
		mainLog.Infof("Received signal (%s).  Stopping...", sig)
		cancel()

		// A repeated signal means a remote source is not responding to
		// cancellation, so give up immediately.
		sig = <-interruptChannel
		mainLog.Warnf("Received signal (%s) while stopping.  Exiting now",
			sig)
		os.Exit(1)
	}()

	return ctx
}

// shutdownRequested returns true when the context returned by shutdownListener
// was canceled.
func shutdownRequested(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
	}

	return false
}
