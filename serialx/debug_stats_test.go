//go:build serialxdebug

package serialx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugStats_NotifyCounters(t *testing.T) {
	p, _ := newTestPort(t)
	p.DebugReset()

	// The first receive lands a notification; the second coalesces into
	// the pending one.
	p.OnReceiveComplete('a')
	p.OnReceiveComplete('b')

	s := p.DebugStats()
	require.Equal(t, uint32(1), s.NotifySends)
	require.Equal(t, uint32(1), s.NotifyDrops)
	require.Equal(t, uint32(2), s.RxHandlerCount)
	require.Equal(t, uint32(2), s.RingPuts)
}
