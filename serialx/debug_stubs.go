//go:build !serialxdebug

package serialx

type Stats struct{}

func (p *Port) DebugReset()       {}
func (p *Port) DebugStats() Stats { return Stats{} }
