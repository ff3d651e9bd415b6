// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"net/netip"
	"strconv"
	"sync"
	"time"
)

// portToLocalHostAddr prepends a default host of 127.0.0.1 when the provided
// address is solely a port number.
func portToLocalHostAddr(addr string) string {
	if _, err := strconv.Atoi(addr); err == nil {
		addr = net.JoinHostPort("127.0.0.1", addr)
	}
	return addr
}

// validateProfileAddr ensures the provided address is of the form "host:port"
// with a loopback IP host and a port between 1024 and 65535.
func validateProfileAddr(addr string) error {
	addrPort, err := netip.ParseAddrPort(addr)
	if err != nil {
		host, _, splitErr := net.SplitHostPort(addr)
		if splitErr != nil {
			return splitErr
		}
		if host != "localhost" {
			return fmt.Errorf("address %q: host must be a loopback IP "+
				"address or localhost", addr)
		}
		return validateProfileAddr(net.JoinHostPort("127.0.0.1",
			addr[len(host)+1:]))
	}
	if !addrPort.Addr().IsLoopback() {
		return fmt.Errorf("address %q: profiling is only served on "+
			"loopback addresses", addr)
	}
	if port := addrPort.Port(); port < 1024 {
		str := "address %q: port must be between 1024 and 65535"
		return fmt.Errorf(str, addr)
	}
	return nil
}

// profileServer serves the pprof profiling endpoints while values are being
// generated.
type profileServer struct {
	wg       sync.WaitGroup
	mtx      sync.Mutex
	server   *http.Server
	listener string
}

// Start binds a listener to the provided address and serves the profiling
// endpoints in the background.  It has no effect when the server is already
// running.
//
// It is the caller's responsibility to call the Stop method to shutdown the
// server.
func (s *profileServer) Start(listenAddr string) error {
	defer s.mtx.Unlock()
	s.mtx.Lock()

	if s.server != nil {
		return nil
	}

	listenAddr = portToLocalHostAddr(listenAddr)
	if err := validateProfileAddr(listenAddr); err != nil {
		return err
	}
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", listenAddr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/", http.RedirectHandler("/debug/pprof/", http.StatusSeeOther))

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: time.Second * 3,
	}
	s.listener = listener.Addr().String()
	mainLog.Infof("Profiling server listening on %s", s.listener)
	s.wg.Add(1)
	go func(httpServer *http.Server) {
		defer s.wg.Done()

		err := httpServer.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			mainLog.Errorf("Profiling server listening on %s exited with "+
				"unexpected error: %v", listener.Addr(), err)
		}
	}(s.server)

	return nil
}

// Stop immediately closes the listener and any connections to the profile
// server.  It has no effect when the server is not running.
func (s *profileServer) Stop() error {
	defer s.mtx.Unlock()
	s.mtx.Lock()

	if s.server == nil {
		return nil
	}

	err := s.server.Close()
	s.server = nil
	s.listener = ""
	s.wg.Wait()
	if err != nil {
		mainLog.Errorf("Profiling server stopped with unexpected error: %v",
			err)
		return err
	}

	mainLog.Debug("Profiling server stopped")
	return nil
}

// Listener returns the address the profile server is listening on, or an
// empty string when it is not running.
func (s *profileServer) Listener() string {
	defer s.mtx.Unlock()
	s.mtx.Lock()

	return s.listener
}
