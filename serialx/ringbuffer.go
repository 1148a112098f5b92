// serialx/ringbuffer.go

// A single-producer/single-consumer byte ring used for the software RX and
// TX queues. One slot stays permanently reserved so full and empty can be
// told apart from the indices alone, without a shared counter; head and
// tail are atomic so the context that advances an index publishes the slot
// contents along with it.

package serialx

import "sync/atomic"

// Software queue capacities. The receive ring is sized to absorb bursts
// while the application is busy elsewhere; the transmit ring only smooths
// output bursts, so it stays small.
const (
	RxBufferSize = 256
	TxBufferSize = 16
)

// RingBuffer is a fixed-capacity SPSC byte queue. head is the next write
// index and tail the next read index, both kept wrapped to the capacity.
// head == tail means empty; (head+1) mod capacity == tail means full.
type RingBuffer struct {
	buf  []byte
	mask uint32
	head atomic.Uint32 // written by the producer context only
	tail atomic.Uint32 // written by the consumer context only
}

// NewRingBuffer returns a ring with the given capacity, which must be a
// power of two so the index wrap stays a mask. The backing array is
// allocated here, exactly once; the handlers never allocate.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 1 || size&(size-1) != 0 {
		panic("serialx: ring size must be a power of two > 1")
	}
	return &RingBuffer{buf: make([]byte, size), mask: uint32(size - 1)}
}

// Size returns the total capacity in bytes. One slot is reserved, so at
// most Size()-1 bytes can be pending at a time.
func (rb *RingBuffer) Size() int {
	return len(rb.buf)
}

// Used returns how many bytes are currently buffered.
func (rb *RingBuffer) Used() int {
	return int((rb.head.Load() - rb.tail.Load()) & rb.mask)
}

// Put stores a byte. If the ring is full the byte is dropped, head is left
// untouched and Put reports false.
func (rb *RingBuffer) Put(val byte) bool {
	h := rb.head.Load()
	next := (h + 1) & rb.mask
	if next == rb.tail.Load() { // full
		return false
	}
	rb.buf[h] = val     // 1) write data
	rb.head.Store(next) // 2) publish
	return true
}

// Get removes and returns the oldest byte. If the ring is empty it returns
// (0, false).
func (rb *RingBuffer) Get() (byte, bool) {
	t := rb.tail.Load()
	if t == rb.head.Load() { // empty
		return 0, false
	}
	v := rb.buf[t]                   // 1) read current element
	rb.tail.Store((t + 1) & rb.mask) // 2) publish consumption
	return v, true
}

// Flush discards everything currently buffered. head is read exactly once
// and that captured value is assigned to tail: a byte arriving while Flush
// runs either lands before the capture and is discarded with the rest, or
// after it and stays visible. Never assign in the other direction; writing
// a stale head into tail could make the ring look full instead of empty.
func (rb *RingBuffer) Flush() {
	rb.tail.Store(rb.head.Load())
}
