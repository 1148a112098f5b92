//go:build !serialxdebug

package serialx

func (p *Port) dbgRxHandler()     {}
func (p *Port) dbgTxHandler()     {}
func (p *Port) dbgRingPut()       {}
func (p *Port) dbgRingDrop()      {}
func (p *Port) dbgDirectWrite()   {}
func (p *Port) dbgBufferedWrite() {}
func (p *Port) dbgSpinWait()      {}
func (p *Port) dbgNotify(bool)    {}
func (p *Port) dbgReadWait()      {}
func (p *Port) dbgTimeout()       {}
