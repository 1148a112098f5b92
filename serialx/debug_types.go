//go:build serialxdebug

package serialx

import "sync/atomic"

// Stats holds counters since the last reset.
type Stats struct {
	// Handler-level
	RxHandlerCount uint32 // OnReceiveComplete entries
	TxHandlerCount uint32 // OnTransmitReady entries

	// RX ring
	RingPuts    uint32 // successful Put()s
	RingDrops   uint32 // bytes dropped on overflow
	RingMaxUsed uint32 // high-water mark of RX ring occupancy

	// TX paths
	DirectWrites   uint32 // bytes that bypassed the software TX ring
	BufferedWrites uint32 // bytes accepted into the TX ring
	SpinWaits      uint32 // backpressure spin iterations in WriteByte

	// Coalesced wakeup channels
	NotifySends uint32 // notifications delivered
	NotifyDrops uint32 // notifications coalesced into a pending one

	// Blocking API behaviour
	ReadWaits uint32 // times a blocking read had to wait
	Timeouts  uint32 // context expiries in blocking reads
}

func (p *Port) DebugReset() {
	// Zero the struct by reassigning (safe as Stats is POD)
	p.stats = Stats{}
}

func (p *Port) DebugStats() Stats {
	// Return a copy to avoid races.
	return Stats{
		RxHandlerCount: atomic.LoadUint32(&p.stats.RxHandlerCount),
		TxHandlerCount: atomic.LoadUint32(&p.stats.TxHandlerCount),

		RingPuts:    atomic.LoadUint32(&p.stats.RingPuts),
		RingDrops:   atomic.LoadUint32(&p.stats.RingDrops),
		RingMaxUsed: atomic.LoadUint32(&p.stats.RingMaxUsed),

		DirectWrites:   atomic.LoadUint32(&p.stats.DirectWrites),
		BufferedWrites: atomic.LoadUint32(&p.stats.BufferedWrites),
		SpinWaits:      atomic.LoadUint32(&p.stats.SpinWaits),

		NotifySends: atomic.LoadUint32(&p.stats.NotifySends),
		NotifyDrops: atomic.LoadUint32(&p.stats.NotifyDrops),

		ReadWaits: atomic.LoadUint32(&p.stats.ReadWaits),
		Timeouts:  atomic.LoadUint32(&p.stats.Timeouts),
	}
}
