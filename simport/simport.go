// simport/simport.go

// Package simport is a software stand-in for the USART hardware: explicit
// register state plus one goroutine per hardware event source. Interrupt
// masking is a flag checked before each simulated firing, so driver code
// sees the same edge behaviour it would on silicon. Each Port is the sole
// invoker of its handler's transmit entry point, and the wire (peer
// shifter or Inject caller) is the sole invoker of the receive entry
// point.
package simport

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/jangala-dev/serialx/serialx"
)

// Config controls a simulated port.
type Config struct {
	// Sink receives transmitted bytes when the port has no peer. nil
	// discards them.
	Sink io.Writer
	// ByteDelay paces the shifter, one delay per transmitted byte. Zero
	// transmits as fast as the scheduler allows.
	ByteDelay time.Duration
}

// Port models one USART: divisor and enable registers, the interrupt
// masks, and a one-byte transmit data register emptied by a shifter
// goroutine.
type Port struct {
	handler atomic.Pointer[serialx.Handler]

	divisor   atomic.Uint32
	rxEnabled atomic.Bool
	txEnabled atomic.Bool
	rxInt     atomic.Bool
	txInt     atomic.Bool

	// one-byte transmit data register
	data     atomic.Uint32
	dataFull atomic.Bool

	peer atomic.Pointer[Port]
	sink io.Writer

	byteDelay time.Duration

	kick   chan struct{} // wakes the shifter
	closed chan struct{}
	done   chan struct{}
}

// New starts a simulated port and its shifter goroutine. Events fired
// before Attach are dropped.
func New(cfg Config) *Port {
	sp := &Port{
		sink:      cfg.Sink,
		byteDelay: cfg.ByteDelay,
		kick:      make(chan struct{}, 1),
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go sp.shifter()
	return sp
}

// Connect cross-wires two ports so bytes transmitted by one arrive at the
// other. The stores are atomic, so a byte in flight either reaches the new
// peer or the old destination, never a torn pointer.
func Connect(a, b *Port) {
	a.peer.Store(b)
	b.peer.Store(a)
}

// Attach registers the driver's event entry points. Events arriving before
// Attach find no handler and are lost, like a real line with nothing
// listening.
func (sp *Port) Attach(h serialx.Handler) {
	sp.handler.Store(&h)
}

func (sp *Port) attached() serialx.Handler {
	if hp := sp.handler.Load(); hp != nil {
		return *hp
	}
	return nil
}

// Divisor returns the last value programmed by SetBaudDivisor.
func (sp *Port) Divisor() uint16 {
	return uint16(sp.divisor.Load())
}

// Close stops the event sources and waits for the shifter to exit.
func (sp *Port) Close() error {
	select {
	case <-sp.closed:
	default:
		close(sp.closed)
	}
	<-sp.done
	return nil
}

// ---------------- serialx.Device implementation ----------------

func (sp *Port) SetBaudDivisor(div uint16) { sp.divisor.Store(uint32(div)) }

func (sp *Port) EnableReceiver(on bool) { sp.rxEnabled.Store(on) }

func (sp *Port) EnableTransmitter(on bool) {
	sp.txEnabled.Store(on)
	if on {
		sp.wake()
	}
}

func (sp *Port) SetRxInterrupt(on bool) { sp.rxInt.Store(on) }

// SetTxInterrupt unmasks or masks the transmit-ready event. Unmasking
// wakes the shifter so a level-triggered fire happens even when the data
// register is already empty.
func (sp *Port) SetTxInterrupt(on bool) {
	sp.txInt.Store(on)
	if on {
		sp.wake()
	}
}

func (sp *Port) TxRegisterEmpty() bool { return !sp.dataFull.Load() }

func (sp *Port) WriteData(b byte) {
	sp.data.Store(uint32(b))
	sp.dataFull.Store(true)
	sp.wake()
}

// ---------------- event sources ----------------

// Inject delivers bytes as if they arrived on the wire. The caller is the
// receive event source for this port; use a single injecting goroutine per
// port (or a peer, not both).
func (sp *Port) Inject(q []byte) {
	for _, b := range q {
		sp.receive(b)
	}
}

func (sp *Port) wake() {
	select {
	case sp.kick <- struct{}{}:
	default:
	}
}

// shifter is the transmit event source: it empties the data register onto
// the wire and fires the transmit-ready entry point while it is unmasked.
func (sp *Port) shifter() {
	defer close(sp.done)
	for {
		select {
		case <-sp.closed:
			return
		case <-sp.kick:
		}
		sp.drain()
	}
}

// drain runs until the data register is empty and the transmit-ready event
// is masked or has nothing left to offer.
func (sp *Port) drain() {
	for {
		if sp.dataFull.Load() {
			if !sp.txEnabled.Load() {
				return // byte parked until the transmitter is enabled
			}
			if d := sp.byteDelay; d > 0 {
				time.Sleep(d)
			}
			b := byte(sp.data.Load())
			sp.dataFull.Store(false)
			sp.deliver(b)
			continue
		}
		// Register empty: the transmit-ready condition is level-triggered,
		// so fire while unmasked. The handler either reloads the register
		// or masks the event.
		if !sp.txInt.Load() {
			return
		}
		h := sp.attached()
		if h == nil {
			return
		}
		h.OnTransmitReady()
		if !sp.dataFull.Load() {
			return
		}
	}
}

// deliver puts one byte on the wire.
func (sp *Port) deliver(b byte) {
	if p := sp.peer.Load(); p != nil {
		p.receive(b)
		return
	}
	if sp.sink != nil {
		buf := [1]byte{b}
		sp.sink.Write(buf[:])
	}
}

// receive models the wire handing over one byte: with the receiver enabled
// and the receive-complete event unmasked the handler fires, otherwise the
// byte is lost. Masking loses data, it does not buffer.
func (sp *Port) receive(b byte) {
	if !sp.rxEnabled.Load() || !sp.rxInt.Load() {
		return
	}
	h := sp.attached()
	if h == nil {
		return
	}
	h.OnReceiveComplete(b)
}
