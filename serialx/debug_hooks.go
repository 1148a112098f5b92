//go:build serialxdebug

package serialx

import "sync/atomic"

func (p *Port) dbgRxHandler() {
	atomic.AddUint32(&p.stats.RxHandlerCount, 1)
}

func (p *Port) dbgTxHandler() {
	atomic.AddUint32(&p.stats.TxHandlerCount, 1)
}

func (p *Port) dbgRingPut() {
	atomic.AddUint32(&p.stats.RingPuts, 1)
	// track high-water mark
	used := uint32(p.Buffer.Used())
	for {
		max := atomic.LoadUint32(&p.stats.RingMaxUsed)
		if used <= max {
			break
		}
		if atomic.CompareAndSwapUint32(&p.stats.RingMaxUsed, max, used) {
			break
		}
	}
}

func (p *Port) dbgRingDrop() {
	atomic.AddUint32(&p.stats.RingDrops, 1)
}

func (p *Port) dbgDirectWrite() {
	atomic.AddUint32(&p.stats.DirectWrites, 1)
}

func (p *Port) dbgBufferedWrite() {
	atomic.AddUint32(&p.stats.BufferedWrites, 1)
}

func (p *Port) dbgSpinWait() {
	atomic.AddUint32(&p.stats.SpinWaits, 1)
}

func (p *Port) dbgNotify(sent bool) {
	if sent {
		atomic.AddUint32(&p.stats.NotifySends, 1)
	} else {
		atomic.AddUint32(&p.stats.NotifyDrops, 1)
	}
}

func (p *Port) dbgReadWait() {
	atomic.AddUint32(&p.stats.ReadWaits, 1)
}

func (p *Port) dbgTimeout() {
	atomic.AddUint32(&p.stats.Timeouts, 1)
}
