// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wssource provides an entropy source that reads random bytes from a
// websocket stream.
//
// Each reseed reads a single message from the connection, optionally after
// writing a request message.  Binary messages carry raw entropy bytes while
// text messages carry hex encoded entropy.
package wssource

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/decred/trng/entropy"
	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds the handshake and each reseed when no timeout is
// configured.
const DefaultTimeout = 30 * time.Second

// closeTimeout bounds writing the close frame on Close.
const closeTimeout = time.Second

// Config houses the parameters used to dial a Source.
type Config struct {
	// URL is the ws:// or wss:// endpoint of the provider.
	URL string

	// Request, when not empty, is written as a text message before every
	// read.  Providers which push entropy unprompted need no request.
	Request string

	// Header holds additional headers sent with the opening handshake.
	Header http.Header

	// Timeout bounds the opening handshake and each reseed.
	Timeout time.Duration

	// Dialer is used to open the connection instead of a default dialer.
	Dialer *websocket.Dialer
}

// Source is an entropy source backed by a websocket connection.  Source
// methods are not safe for concurrent access.
type Source struct {
	conn    *websocket.Conn
	url     string
	request []byte
	timeout time.Duration
	closed  bool
}

// connError converts a connection failure into an entropy error.  Network
// timeouts and expiry of ctx are reported as timeouts.
func connError(ctx context.Context, err error, desc string) error {
	kind := entropy.ErrSourceUnavailable
	var netErr net.Error
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {

		kind = entropy.ErrSourceTimeout
	}
	return entropy.Error{Err: kind, RawErr: err, Description: desc}
}

// Dial opens a connection to the provider described by cfg.
func Dial(ctx context.Context, cfg *Config) (*Source, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, entropy.Error{
			Err:         entropy.ErrUnsupported,
			Description: "no websocket provider URL configured",
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		}
	}

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, cfg.Header)
	if err != nil {
		desc := fmt.Sprintf("failed to connect to %s", cfg.URL)
		if resp != nil {
			desc = fmt.Sprintf("%s (status %q)", desc, resp.Status)
		}
		return nil, connError(ctx, err, desc)
	}
	log.Debugf("Connected to entropy stream %s", cfg.URL)

	s := &Source{
		conn:    conn,
		url:     cfg.URL,
		timeout: timeout,
	}
	if cfg.Request != "" {
		s.request = []byte(cfg.Request)
	}
	return s, nil
}

// Name returns the human-readable name of the source.
func (s *Source) Name() string {
	return "WebSocket True Random Generator"
}

// Reseed reads the next entropy message from the stream.
//
// A connection that fails or times out is not usable afterwards and all
// later reseeds fail.
func (s *Source) Reseed(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			Description: "source is closed",
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceTimeout,
			RawErr:      err,
			Description: "reseed canceled",
		}
	}

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	// Cancellation of ctx interrupts a pending read or write by moving the
	// deadlines into the past.
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Unix(1, 0))
		s.conn.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stop()

	if s.request != nil {
		s.conn.SetWriteDeadline(deadline)
		err := s.conn.WriteMessage(websocket.TextMessage, s.request)
		if err != nil {
			return nil, connError(ctx, err, "failed to write entropy request")
		}
	}

	s.conn.SetReadDeadline(deadline)
	msgType, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, connError(ctx, err, "failed to read entropy message")
	}

	switch msgType {
	case websocket.BinaryMessage:
		if len(data) == 0 {
			return nil, entropy.Error{
				Err:         entropy.ErrMalformedResponse,
				Description: "received empty binary message",
			}
		}
	case websocket.TextMessage:
		data, err = entropy.DecodeHex(string(data))
		if err != nil {
			return nil, err
		}
	}
	log.Tracef("Read %d bytes of entropy from %s", len(data), s.url)
	return data, nil
}

// Close sends a close frame to the provider and closes the connection.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.conn.WriteControl(websocket.CloseMessage, msg,
		time.Now().Add(closeTimeout))
	return s.conn.Close()
}
