// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trng

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/decred/trng/entropy"
	"github.com/decred/trng/pool"
	"github.com/decred/trng/source/chacha"
)

// DefaultPoolCapacity is the number of bytes preallocated for the entropy pool
// when no capacity is configured.
const DefaultPoolCapacity = 2048

// defaultAlgorithmName is the name reported for engines whose source does not
// name itself.
const defaultAlgorithmName = "True Random Generator"

// Config houses the parameters used to create an Engine.
type Config struct {
	// Source is the entropy source used to replenish the pool.  The engine
	// does not take ownership of a provided source, so it is never closed by
	// the engine.
	//
	// When nil, the engine creates and owns a ChaCha20 keystream source
	// keyed from the operating system unless NoDefaultSource is set.
	Source entropy.Source

	// NoDefaultSource creates an engine without any source when Source is
	// nil.  Such an engine only serves bytes provided via Feed, and attempts
	// to replenish the pool fail with entropy.ErrUnsupported.
	NoDefaultSource bool

	// PoolCapacity is the number of bytes to preallocate for the pool.  It is
	// a hint only.  Zero selects DefaultPoolCapacity.
	PoolCapacity int

	// ReseedTimeout bounds each reseed performed implicitly by a sampling
	// method.  Zero means the source's own timeout policy applies.
	ReseedTimeout time.Duration

	// Context is the parent of the context passed to the source by reseeds
	// performed implicitly by a sampling method.  Canceling it abandons any
	// such reseed in progress and fails later ones.  Nil selects
	// context.Background().
	Context context.Context
}

// Engine is a random number generator that serves values from a FIFO pool of
// entropy bytes replenished by an entropy source.
//
// Engine methods are not safe for concurrent access.
type Engine struct {
	pool          *pool.Pool
	source        entropy.Source
	ownsSource    bool
	ctx           context.Context
	reseedTimeout time.Duration
	reseeds       uint64
	consumed      uint64
}

// New returns an engine configured per cfg.  A nil cfg selects the defaults.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	capacity := cfg.PoolCapacity
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}

	e := &Engine{
		pool:          pool.New(capacity),
		source:        cfg.Source,
		ctx:           cfg.Context,
		reseedTimeout: cfg.ReseedTimeout,
	}
	if e.ctx == nil {
		e.ctx = context.Background()
	}
	if e.source == nil && !cfg.NoDefaultSource {
		src, err := chacha.New(capacity)
		if err != nil {
			return nil, err
		}
		e.source = src
		e.ownsSource = true
	}
	return e, nil
}

// AlgorithmName returns the human-readable name of the generator, which is the
// name of the entropy source when it provides one.
func (e *Engine) AlgorithmName() string {
	if namer, ok := e.source.(entropy.Namer); ok {
		return namer.Name()
	}
	return defaultAlgorithmName
}

// Buffered returns the number of unconsumed bytes in the entropy pool.
func (e *Engine) Buffered() int {
	return e.pool.Count()
}

// Reseeds returns the number of successful reseeds performed by the engine.
func (e *Engine) Reseeds() uint64 {
	return e.reseeds
}

// Consumed returns the total number of pool bytes consumed by the engine.
func (e *Engine) Consumed() uint64 {
	return e.consumed
}

// Feed appends caller provided entropy bytes to the pool.  The bytes are
// consumed before any bytes obtained by later reseeds.
func (e *Engine) Feed(b []byte) {
	e.pool.Append(b)
}

// Reseed requests a fresh batch of entropy from the source and appends it to
// the pool.
//
// entropy.ErrUnsupported is returned when the engine has no source.  Errors
// from the source are returned unchanged, and a source that returns no bytes
// results in entropy.ErrMalformedResponse.  The pool is not modified when an
// error is returned.
//
// The batch returned by the source is zeroed once it has been copied into the
// pool.
func (e *Engine) Reseed(ctx context.Context) error {
	if e.source == nil {
		return entropy.Error{
			Err:         entropy.ErrUnsupported,
			Description: "engine has no entropy source to reseed from",
		}
	}

	batch, err := e.source.Reseed(ctx)
	if err != nil {
		log.Debugf("Reseed from %s failed: %v", e.AlgorithmName(), err)
		return err
	}
	if len(batch) == 0 {
		return entropy.Error{
			Err:         entropy.ErrMalformedResponse,
			Description: "entropy source returned an empty batch",
		}
	}

	e.pool.Append(batch)
	clear(batch)
	e.reseeds++
	log.Debugf("Reseeded entropy pool with %d %s from %s (%d buffered)",
		len(batch), pickNoun(len(batch), "byte", "bytes"), e.AlgorithmName(),
		e.pool.Count())
	return nil
}

// reseed replenishes the pool on behalf of a sampling method.
func (e *Engine) reseed() error {
	ctx := e.ctx
	if e.reseedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.reseedTimeout)
		defer cancel()
	}
	return e.Reseed(ctx)
}

// ensure reseeds until the pool holds at least n bytes.  A shortfall triggers
// exactly one reseed unless the source returns fewer bytes than are missing.
func (e *Engine) ensure(n int) error {
	for e.pool.Count() < n {
		if err := e.reseed(); err != nil {
			return err
		}
	}
	return nil
}

// NextByte returns the next byte of the pool, reseeding first when the pool is
// empty.
func (e *Engine) NextByte() (byte, error) {
	if err := e.ensure(1); err != nil {
		return 0, err
	}
	b, err := e.pool.TakeOne()
	if err != nil {
		return 0, err
	}
	e.consumed++
	return b, nil
}

// NextBoolean returns a random boolean.  It is true when the most significant
// bit of the next byte is zero.
func (e *Engine) NextBoolean() (bool, error) {
	b, err := e.NextByte()
	if err != nil {
		return false, err
	}
	return b>>7 == 0, nil
}

// Fill fills every position of buf, left to right, with the next len(buf)
// bytes of the pool.  ErrInvalidArgument is returned for an empty buf.
//
// When a reseed fails partway, the error is returned and buf holds the bytes
// consumed so far.
func (e *Engine) Fill(buf []byte) error {
	if len(buf) == 0 {
		return makeError(ErrInvalidArgument, "cannot fill an empty buffer")
	}
	for len(buf) > 0 {
		if e.pool.Count() == 0 {
			if err := e.reseed(); err != nil {
				return err
			}
		}
		n := e.pool.TakeInto(buf)
		e.consumed += uint64(n)
		buf = buf[n:]
	}
	return nil
}

// Read fills p with random bytes so an Engine can be used as an io.Reader.  It
// returns an error only when the pool cannot be replenished.
func (e *Engine) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := e.Fill(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

var _ io.Reader = (*Engine)(nil)

// NextBytes returns length random bytes.  ErrInvalidArgument is returned when
// length is not positive.
func (e *Engine) NextBytes(length int) ([]byte, error) {
	if length <= 0 {
		str := fmt.Sprintf("requested output size must be positive (got %d)",
			length)
		return nil, makeError(ErrInvalidArgument, str)
	}
	b := make([]byte, length)
	if err := e.Fill(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NextBytesLittleEndian returns length random bytes.  The content is identical
// to NextBytes: the pool bytes are emitted in consumption order.
func (e *Engine) NextBytesLittleEndian(length int) ([]byte, error) {
	return e.NextBytes(length)
}

// NextBytesBigEndian returns length random bytes.  The content is identical to
// NextBytes: the pool bytes are emitted in consumption order.
func (e *Engine) NextBytesBigEndian(length int) ([]byte, error) {
	return e.NextBytes(length)
}

// take fills b from the pool, reseeding first when the pool holds fewer than
// len(b) bytes.  Nothing is consumed when the reseed fails.
func (e *Engine) take(b []byte) error {
	if err := e.ensure(len(b)); err != nil {
		return err
	}
	e.consumed += uint64(e.pool.TakeInto(b))
	return nil
}

// NextInt returns a uniform random uint32 made of the next four pool bytes
// interpreted as a little-endian integer.
func (e *Engine) NextInt() (uint32, error) {
	var b [4]byte
	if err := e.take(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// NextLong returns a uniform random uint64 made of the next eight pool bytes
// interpreted as a little-endian integer.
func (e *Engine) NextLong() (uint64, error) {
	var b [8]byte
	if err := e.take(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Close releases the engine's resources.  The pool is zeroed and, when the
// engine created its own default source, that source is closed.  A source
// provided via Config is left open.
//
// Reseeds after Close fail with entropy.ErrUnsupported.
func (e *Engine) Close() error {
	var err error
	if closer, ok := e.source.(io.Closer); ok && e.ownsSource {
		err = closer.Close()
	}
	e.source = nil
	e.ownsSource = false
	e.pool.Clear()
	return err
}
