// SPDX-License-Identifier: EPL-2.0

// Package ring implements a bounded lock-free multi-producer multi-consumer
// queue. Push and Pop never block and never allocate, which makes the queue
// usable from an audio callback.
//
// Each slot carries a sequence number that tells producers and consumers
// whose turn it is, so no slot is ever read while half written.
package ring

import "sync/atomic"

const cacheLine = 64

type cell[T any] struct {
	seq atomic.Uint64
	val T
}

// Queue is a bounded FIFO. The zero value is not usable; call New.
type Queue[T any] struct {
	cells []cell[T]
	mask  uint64

	_   [cacheLine]byte
	enq atomic.Uint64
	_   [cacheLine - 8]byte
	deq atomic.Uint64
	_   [cacheLine - 8]byte
}

// New returns a queue holding at least capacity items. The capacity is
// rounded up to a power of two, with a minimum of 2.
func New[T any](capacity int) *Queue[T] {
	size := uint64(2)
	for size < uint64(max(capacity, 0)) {
		size <<= 1
	}

	q := &Queue[T]{
		cells: make([]cell[T], size),
		mask:  size - 1,
	}
	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}
	return q
}

// Cap returns the number of items the queue can hold.
func (q *Queue[T]) Cap() int { return len(q.cells) }

// Len returns an approximate item count. It is exact when no Push or Pop
// runs concurrently.
func (q *Queue[T]) Len() int {
	deq := q.deq.Load()
	enq := q.enq.Load()
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}

// Push appends v. It returns false, leaving the queue unchanged, when the
// queue is full.
func (q *Queue[T]) Push(v T) bool {
	pos := q.enq.Load()
	for {
		c := &q.cells[pos&q.mask]
		seq := c.seq.Load()

		switch diff := int64(seq - pos); {
		case diff == 0:
			if q.enq.CompareAndSwap(pos, pos+1) {
				c.val = v
				c.seq.Store(pos + 1)
				return true
			}
			pos = q.enq.Load()
		case diff < 0:
			// the slot still holds an item from the previous lap
			return false
		default:
			pos = q.enq.Load()
		}
	}
}

// Pop removes and returns the oldest item, or false when the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	pos := q.deq.Load()
	for {
		c := &q.cells[pos&q.mask]
		seq := c.seq.Load()

		switch diff := int64(seq - (pos + 1)); {
		case diff == 0:
			if q.deq.CompareAndSwap(pos, pos+1) {
				v := c.val
				var zero T
				c.val = zero // drop references held by the slot
				c.seq.Store(pos + q.mask + 1)
				return v, true
			}
			pos = q.deq.Load()
		case diff < 0:
			var zero T
			return zero, false
		default:
			pos = q.deq.Load()
		}
	}
}
