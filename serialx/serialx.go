// serialx/serialx.go

// Package serialx provides an interrupt-driven byte-oriented serial
// transport: two software ring buffers decouple the application's bursty
// reads and writes from the hardware's one-byte-at-a-time pacing. The
// receive handler fills the RX ring and the transmit-ready handler drains
// the TX ring; both run in the hardware event context and never block.
// Reads are non-blocking with explicit blocking helpers layered on top.
package serialx

import (
	"errors"
	"runtime"
)

// ErrBufferEmpty is returned by ReadByte when no received data is pending.
var ErrBufferEmpty = errors.New("serial buffer empty")

// Config describes how Configure should program the device.
type Config struct {
	// BaudRate is the line rate. Defaults to 9600.
	BaudRate uint32
	// ClockHz is the peripheral clock feeding the divisor. Defaults to
	// 16 MHz.
	ClockHz uint32
}

// Port is one serial device handle.
//
// Invariants (TX path):
//   - The transmit-ready event is unmasked exactly while the TX ring holds
//     backlog, so the drain is edge-triggered rather than polled.
//   - The foreground writes the data register only on the direct path,
//     when the ring is empty and the event is therefore masked.
//
// Signalling:
//   - notify and txNotify are coalesced; callers must re-check state after
//     waking.
type Port struct {
	dev Device

	// RX: filled by OnReceiveComplete, drained by the application.
	Buffer *RingBuffer
	notify chan struct{} // coalesced RX readiness notifications

	// TX: filled by the application, drained by OnTransmitReady.
	TxBuffer *RingBuffer
	txNotify chan struct{} // coalesced TX progress/drain notifications

	closed chan struct{}
	baud   uint32

	stats Stats
}

// New returns an unconfigured Port driving dev. Both rings are allocated
// here for the life of the Port; nothing allocates after Configure.
func New(dev Device) *Port {
	return &Port{
		dev:      dev,
		Buffer:   NewRingBuffer(RxBufferSize),
		TxBuffer: NewRingBuffer(TxBufferSize),
		notify:   make(chan struct{}, 1),
		txNotify: make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

// Configure programs the divisor, enables the receiver and transmitter and
// unmasks the receive-complete event. The transmit-ready event is left
// masked; the first buffered WriteByte arms it and OnTransmitReady masks
// it again once the ring drains.
func (p *Port) Configure(cfg Config) error {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600
	}
	if cfg.ClockHz == 0 {
		cfg.ClockHz = 16_000_000
	}
	p.baud = cfg.BaudRate

	p.dev.SetBaudDivisor(Divisor(cfg.ClockHz, cfg.BaudRate))
	p.dev.EnableReceiver(true)
	p.dev.EnableTransmitter(true)
	p.dev.SetRxInterrupt(true)
	return nil
}

// WriteByte queues one byte for transmission. When the data register is
// idle and nothing is queued it writes the register directly, skipping the
// software ring (lowest latency for sporadic sends). Otherwise it takes
// the buffered path: wait for the drain handler to free a slot, store the
// byte, publish the new head, then unmask the transmit-ready event so the
// drain begins or continues. The wait has no timeout; a stalled sink
// stalls the caller.
func (p *Port) WriteByte(c byte) error {
	// Ring-empty is checked before register-empty: once the ring reads
	// empty the drain handler has fully retired (it publishes tail last),
	// so a register that then reads empty can never be refilled behind
	// our back.
	if p.TxBuffer.Used() == 0 && p.dev.TxRegisterEmpty() {
		// Direct path. The drain handler is quiescent here (the event is
		// masked whenever the ring is empty), so the register is ours.
		p.dev.WriteData(c)
		p.dbgDirectWrite()
		return nil
	}

	rb := p.TxBuffer
	h := rb.head.Load()
	newhead := (h + 1) & rb.mask
	for newhead == rb.tail.Load() {
		p.dbgSpinWait()
		runtime.Gosched() // hand the processor to the drain
	}
	rb.buf[h] = c          // 1) write data
	rb.head.Store(newhead) // 2) publish
	p.dev.SetTxInterrupt(true)
	p.dbgBufferedWrite()
	return nil
}

// OnTransmitReady implements Handler. It moves one byte from the TX ring
// into the data register and masks the transmit-ready event as soon as the
// ring is empty, so the event only fires while there is backlog.
func (p *Port) OnTransmitReady() {
	p.dbgTxHandler()
	rb := p.TxBuffer
	t := rb.tail.Load()
	if t == rb.head.Load() {
		// Fired with nothing queued; mask and bail.
		p.maskUnlessBacklog(t)
		return
	}
	// Register first, mask decision second, tail published last: the
	// direct-path check in WriteByte relies on a ring that reads empty
	// meaning this handler is completely done with the register.
	p.dev.WriteData(rb.buf[t])
	t = (t + 1) & rb.mask
	if t == rb.head.Load() {
		p.maskUnlessBacklog(t)
	}
	rb.tail.Store(t)
	// Coalesce a Writable notification (space freed or drained).
	select {
	case p.txNotify <- struct{}{}:
		p.dbgNotify(true)
	default:
		p.dbgNotify(false)
	}
}

// maskUnlessBacklog masks the transmit-ready event, then re-checks head
// and re-arms if a writer published a byte behind the drained reading.
// Writers store head before unmasking, so when the re-check still reads
// head == t the writer's unmask can only land after our mask; when it
// reads newer, our own re-arm keeps the backlog live. Either way no byte
// is stranded with the event masked.
func (p *Port) maskUnlessBacklog(t uint32) {
	p.dev.SetTxInterrupt(false)
	if t != p.TxBuffer.head.Load() {
		p.dev.SetTxInterrupt(true)
	}
}

// OnReceiveComplete implements Handler. When the RX ring is full the byte
// is silently dropped: receive overflow is not an error at this interface,
// it is only observable as missing data (and as a counter under the
// serialxdebug tag).
func (p *Port) OnReceiveComplete(b byte) {
	p.dbgRxHandler()
	if !p.Buffer.Put(b) {
		p.dbgRingDrop()
		return
	}
	p.dbgRingPut()
	select {
	case p.notify <- struct{}{}:
		p.dbgNotify(true)
	default:
		p.dbgNotify(false)
	}
}

// ReadByte removes and returns the oldest received byte. With nothing
// pending it returns ErrBufferEmpty rather than blocking.
func (p *Port) ReadByte() (byte, error) {
	b, ok := p.Buffer.Get()
	if !ok {
		return 0, ErrBufferEmpty
	}
	return b, nil
}

// Buffered returns the number of bytes currently stored in the RX ring.
func (p *Port) Buffered() int {
	return p.Buffer.Used()
}

// Available reports whether at least one received byte is pending.
func (p *Port) Available() bool {
	return p.Buffer.Used() > 0
}

// TxFree returns the remaining space in the TX ring in bytes.
func (p *Port) TxFree() int {
	return p.TxBuffer.Size() - 1 - p.TxBuffer.Used()
}

// Flush discards all received bytes. A byte whose receive is logically
// concurrent with the flush is either discarded with the rest or remains
// visible afterwards; the ring never appears full. See RingBuffer.Flush.
func (p *Port) Flush() {
	p.Buffer.Flush()
}

// Close masks the receive-complete event and unblocks any waiters. It does
// not wait for queued transmit data.
func (p *Port) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	p.dev.SetRxInterrupt(false)
	return nil
}
