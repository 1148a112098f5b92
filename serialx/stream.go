// serialx/stream.go

package serialx

import (
	"context"
	"time"
)

// Readable returns a coalesced notification for RX readiness. A receive
// that enqueues a byte will send on this channel. The channel is
// level-coalesced; callers must re-check state after waking.
func (p *Port) Readable() <-chan struct{} { return p.notify }

// Writable returns a coalesced notification for TX progress. The drain
// handler sends on this channel when it moves a byte to the hardware or
// when space becomes available. Callers must re-check state after waking.
func (p *Port) Writable() <-chan struct{} { return p.txNotify }

// TryRead returns immediately with up to len(q) bytes copied from the RX
// ring. It never blocks and never returns an error. A return value of 0
// means "no data now".
func (p *Port) TryRead(q []byte) int {
	n := 0
	for n < len(q) {
		b, err := p.ReadByte()
		if err != nil {
			break
		}
		q[n] = b
		n++
	}
	return n
}

// Read implements io.Reader with non-blocking semantics: it returns 0, nil
// when nothing is buffered. It does not return io.EOF for an idle line.
func (p *Port) Read(q []byte) (int, error) {
	return p.TryRead(q), nil
}

// TryWrite accepts as many bytes as fit right now, into the data register
// and/or the TX ring, and returns the count. It never blocks.
func (p *Port) TryWrite(q []byte) int {
	if len(q) == 0 {
		return 0
	}
	n := 0
	if p.TxBuffer.Used() == 0 && p.dev.TxRegisterEmpty() {
		p.dev.WriteData(q[0])
		p.dbgDirectWrite()
		n = 1
	}
	for n < len(q) {
		if !p.TxBuffer.Put(q[n]) {
			break
		}
		p.dbgBufferedWrite()
		n++
	}
	if p.TxBuffer.Used() > 0 {
		p.dev.SetTxInterrupt(true)
	}
	return n
}

// Write implements io.Writer. It blocks until every byte has been accepted
// by the driver (data register and/or TX ring); it does not wait for the
// line to drain. Use Drain for on-the-wire completion.
func (p *Port) Write(q []byte) (int, error) {
	for i, b := range q {
		if err := p.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(q), nil
}

// WriteString writes s with the same blocking behaviour as Write.
func (p *Port) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// WaitReadable blocks until data is available, the Port is closed, or ctx
// is done.
func (p *Port) WaitReadable(ctx context.Context) error {
	if p.Buffered() > 0 {
		return nil
	}
	for {
		p.dbgReadWait()
		select {
		case <-p.notify:
			if p.Buffered() > 0 {
				return nil
			}
			// Spurious wake from a coalesced notify; keep waiting.
		case <-p.closed:
			return context.Canceled
		case <-ctx.Done():
			p.dbgTimeout()
			return ctx.Err()
		}
	}
}

// ReadBlocking blocks until at least one byte is available, then reads up
// to len(q).
func (p *Port) ReadBlocking(ctx context.Context, q []byte) (int, error) {
	for {
		if n := p.TryRead(q); n > 0 {
			return n, nil
		}
		if err := p.WaitReadable(ctx); err != nil {
			return 0, err
		}
	}
}

// ReadFullBlocking blocks until exactly len(q) bytes have been read or the
// context ends, returning the count read either way.
func (p *Port) ReadFullBlocking(ctx context.Context, q []byte) (int, error) {
	read := 0
	for read < len(q) {
		if n := p.TryRead(q[read:]); n > 0 {
			read += n
			continue
		}
		if err := p.WaitReadable(ctx); err != nil {
			return read, err
		}
	}
	return read, nil
}

// ReadByteBlocking blocks for a single byte or until ctx is done.
func (p *Port) ReadByteBlocking(ctx context.Context) (byte, error) {
	for {
		if b, err := p.ReadByte(); err == nil {
			return b, nil
		}
		if err := p.WaitReadable(ctx); err != nil {
			return 0, err
		}
	}
}

// ReadWithTimeout is ReadBlocking with a deadline instead of a context.
func (p *Port) ReadWithTimeout(q []byte, d time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return p.ReadBlocking(ctx, q)
}

// Drain blocks until the TX ring is empty and the data register has been
// handed to the shifter. The hardware raises no event for the final
// register-empty edge, so Drain uses a short timed poll in addition to
// txNotify wakes.
func (p *Port) Drain(ctx context.Context) error {
	tick := p.drainTick()
	for {
		if p.TxBuffer.Used() == 0 && p.dev.TxRegisterEmpty() {
			return nil
		}
		select {
		case <-p.txNotify:
			// Progress likely occurred; loop and re-check.
		case <-time.After(tick):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drainTick returns a short polling interval for Drain based on the
// configured baud: approximately two character times at 8N1, with a lower
// bound to avoid zero.
func (p *Port) drainTick() time.Duration {
	if p.baud == 0 {
		return 50 * time.Microsecond
	}
	perBit := time.Second / time.Duration(p.baud)
	t := 2 * 10 * perBit
	if t < 20*time.Microsecond {
		t = 20 * time.Microsecond
	}
	return t
}
