// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package httpsource provides an entropy source that fetches hex encoded
// random bytes from a remote HTTP provider.
//
// The default provider is the hex endpoint of makemeapassword.ligos.net, which
// returns 32 lines of 128 hex characters per request.  Any provider returning
// hex text, either as plain lines or as a JSON object of the form
// {"pws":["<hex>", ...]}, may be configured instead.  Requests may optionally
// be routed through a SOCKS5 proxy.
package httpsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/decred/go-socks/socks"
	"github.com/decred/trng/entropy"
)

const (
	// DefaultURL is the provider endpoint used when none is configured.
	DefaultURL = "https://makemeapassword.ligos.net/api/v1/hex/plain?c=32&l=128"

	// DefaultUserAgent is the User-Agent header sent when none is configured.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.85 " +
		"Safari/537.36"

	// DefaultTimeout bounds each request when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	// maxResponseSize is the maximum number of response body bytes read.
	maxResponseSize = 1 << 20
)

// Format identifies the encoding of a provider response.
type Format int

const (
	// FormatPlain is hex text, optionally split over lines.
	FormatPlain Format = iota

	// FormatJSON is a JSON object with a "pws" array of hex strings.
	FormatJSON
)

// String returns the format as a human-readable name.
func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatJSON:
		return "json"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "plain":
		return FormatPlain, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("unknown response format %q", s)
}

// Config houses the parameters used to create a Source.  The zero value
// fetches from DefaultURL.
type Config struct {
	// URL is the provider endpoint.
	URL string

	// Format is the encoding of the provider's responses.
	Format Format

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds each request including reading the response.
	Timeout time.Duration

	// Proxy is the address of a SOCKS5 proxy to connect through, with
	// optional credentials.  It is ignored when Client is set.
	Proxy     string
	ProxyUser string
	ProxyPass string

	// Client is used to perform requests instead of a client created and
	// owned by the source.  A provided client is never closed by the source.
	Client *http.Client
}

// Source is an entropy source backed by a remote HTTP provider.
type Source struct {
	url        string
	format     Format
	userAgent  string
	timeout    time.Duration
	client     *http.Client
	ownsClient bool
	closed     bool
}

// New returns a source configured per cfg.  A nil cfg selects the defaults.
func New(cfg *Config) (*Source, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Source{
		url:       cfg.URL,
		format:    cfg.Format,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		client:    cfg.Client,
	}
	if s.url == "" {
		s.url = DefaultURL
	}
	if strings.TrimSpace(s.userAgent) == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.format != FormatPlain && s.format != FormatJSON {
		return nil, entropy.Error{
			Err:         entropy.ErrUnsupported,
			Description: fmt.Sprintf("unsupported response format %v", s.format),
		}
	}

	u, err := url.Parse(s.url)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, entropy.Error{
			Err:         entropy.ErrUnsupported,
			RawErr:      err,
			Description: fmt.Sprintf("invalid provider URL %q", s.url),
		}
	}

	if s.client == nil {
		s.client = newClient(cfg)
		s.ownsClient = true
	}
	return s, nil
}

// newClient returns an HTTP client that optionally dials through the SOCKS5
// proxy named by cfg.
func newClient(cfg *Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxy := &socks.Proxy{
			Addr:     cfg.Proxy,
			Username: cfg.ProxyUser,
			Password: cfg.ProxyPass,
		}
		transport.Proxy = nil
		transport.DialContext = proxy.DialContext
	}
	return &http.Client{Transport: transport}
}

// Name returns the human-readable name of the source.
func (s *Source) Name() string {
	if s.url == DefaultURL {
		return "Ligos True Random Generator"
	}
	return "HTTP True Random Generator"
}

// requestError converts a failed request into an entropy error.  Deadline and
// cancellation of the request context, as well as network timeouts, are
// reported as timeouts.
func requestError(ctx context.Context, err error, desc string) error {
	kind := entropy.ErrSourceUnavailable
	var netErr net.Error
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {

		kind = entropy.ErrSourceTimeout
	}
	return entropy.Error{Err: kind, RawErr: err, Description: desc}
}

// fetch performs a single request and returns the response body.
func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			RawErr:      err,
			Description: "failed to create request",
		}
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, requestError(ctx, err, "request to entropy provider failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, entropy.Error{
			Err: entropy.ErrSourceUnavailable,
			Description: fmt.Sprintf("entropy provider returned status %q",
				resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, requestError(ctx, err, "failed to read provider response")
	}
	return body, nil
}

// Reseed fetches and decodes a fresh batch of entropy from the provider.
func (s *Source) Reseed(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, entropy.Error{
			Err:         entropy.ErrSourceUnavailable,
			Description: "source is closed",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	body, err := s.fetch(ctx)
	if err != nil {
		log.Debugf("Fetch from %s failed: %v", s.url, err)
		return nil, err
	}

	var b []byte
	switch s.format {
	case FormatJSON:
		b, err = decodeJSON(body)
	default:
		b, err = entropy.DecodeHex(string(body))
	}
	if err != nil {
		return nil, err
	}
	log.Debugf("Fetched %d bytes of entropy from %s in %v", len(b), s.url,
		time.Since(start).Round(time.Millisecond))
	return b, nil
}

// Close releases the source's resources.  Idle connections of a client owned
// by the source are closed.  Later reseeds fail.
func (s *Source) Close() error {
	if s.ownsClient {
		s.client.CloseIdleConnections()
	}
	s.closed = true
	return nil
}

// jsonResponse is the JSON representation of a provider response.
type jsonResponse struct {
	Pws []string `json:"pws"`
}

// decodeJSON decodes a JSON provider response by concatenating the hex
// strings of its "pws" array.
func decodeJSON(body []byte) ([]byte, error) {
	var resp jsonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, entropy.Error{
			Err:         entropy.ErrMalformedResponse,
			RawErr:      err,
			Description: "provider response is not valid JSON",
		}
	}
	return entropy.DecodeHex(strings.Join(resp.Pws, ""))
}
