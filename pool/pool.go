// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pool implements a first-in first-out buffer of raw entropy bytes.
//
// Bytes are consumed strictly in arrival order and exactly once.  Consumed
// slots are zeroed immediately so entropy handed to a caller does not linger
// in the pool's backing array.
//
// A Pool is not safe for concurrent access.
package pool

import "fmt"

// compactThreshold is the minimum number of consumed bytes at the front of the
// backing array before the remaining bytes are moved to the front.
const compactThreshold = 256

// Pool is an ordered, mutable byte buffer consumed strictly FIFO.
//
// Internally, the unconsumed bytes are buf[head:].  Removing bytes from the
// front only advances head, so consumption is O(1) per byte.  The consumed
// prefix is reclaimed by Append when it dominates the backing array.
type Pool struct {
	buf  []byte
	head int
}

// New returns an empty pool with space preallocated for capacityHint bytes.
// The hint is advisory: the pool grows as needed.
func New(capacityHint int) *Pool {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Pool{buf: make([]byte, 0, capacityHint)}
}

// Count returns the number of unconsumed bytes.
func (p *Pool) Count() int {
	return len(p.buf) - p.head
}

// Cap returns the capacity of the backing array.
func (p *Pool) Cap() int {
	return cap(p.buf)
}

// compact moves the unconsumed bytes to the front of the backing array and
// zeroes the vacated tail.
func (p *Pool) compact() {
	if p.head == 0 {
		return
	}
	n := copy(p.buf, p.buf[p.head:])
	clear(p.buf[n:])
	p.buf = p.buf[:n]
	p.head = 0
}

// Append adds the provided bytes to the tail of the pool.  The bytes are
// copied, so the caller is free to reuse b.
func (p *Pool) Append(b []byte) {
	if len(b) == 0 {
		return
	}

	// Reclaim the consumed prefix instead of growing when it accounts for at
	// least half of the backing array.
	if p.head >= compactThreshold && p.head >= len(p.buf)/2 {
		p.compact()
	} else if p.head == len(p.buf) {
		p.buf = p.buf[:0]
		p.head = 0
	}
	p.buf = append(p.buf, b...)
}

// TakeOne removes and returns the byte at the head of the pool.
//
// ErrPoolEmpty is returned when the pool has no bytes.
func (p *Pool) TakeOne() (byte, error) {
	if p.Count() == 0 {
		return 0, makeError(ErrPoolEmpty, "entropy pool is empty")
	}

	b := p.buf[p.head]
	p.buf[p.head] = 0
	p.head++
	return b, nil
}

// TakeMany removes and returns the first k bytes of the pool, preserving their
// order.
//
// ErrPoolEmpty is returned when the pool holds fewer than k bytes, in which
// case nothing is removed.
func (p *Pool) TakeMany(k int) ([]byte, error) {
	if k < 0 {
		str := fmt.Sprintf("cannot take a negative number of bytes (%d)", k)
		return nil, makeError(ErrInvalidCount, str)
	}
	if count := p.Count(); count < k {
		str := fmt.Sprintf("entropy pool holds %d bytes, %d requested",
			count, k)
		return nil, makeError(ErrPoolEmpty, str)
	}

	out := make([]byte, k)
	p.TakeInto(out)
	return out, nil
}

// TakeInto moves up to len(dst) bytes from the head of the pool into dst and
// returns the number of bytes moved.  It is equivalent to repeatedly calling
// TakeOne until either dst is full or the pool is empty.
func (p *Pool) TakeInto(dst []byte) int {
	src := p.buf[p.head:]
	n := copy(dst, src)
	clear(src[:n])
	p.head += n
	return n
}

// Clear zeroes and removes every byte in the pool.
func (p *Pool) Clear() {
	clear(p.buf[:cap(p.buf)])
	p.buf = p.buf[:0]
	p.head = 0
}
