package serialx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func printed(t *testing.T, f func(pr *Printer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f(NewPrinter(&buf)))
	return buf.String()
}

func TestPrinter_IntegerInBase(t *testing.T) {
	cases := []struct {
		n    uint64
		base uint64
		want string
	}{
		{0, 10, "0"},
		{0, 2, "0"},
		{42, 10, "42"},
		{255, 16, "FF"},
		{255, 2, "11111111"},
		{8, 8, "10"},
		{35, 36, "Z"},
	}
	for _, c := range cases {
		got := printed(t, func(pr *Printer) error { return pr.IntegerInBase(c.n, c.base) })
		require.Equal(t, c.want, got, "IntegerInBase(%d, %d)", c.n, c.base)
	}
}

func TestPrinter_Integer(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{-5, "-5"},
		{12345, "12345"},
		{-12345, "-12345"},
	}
	for _, c := range cases {
		got := printed(t, func(pr *Printer) error { return pr.Integer(c.n) })
		require.Equal(t, c.want, got, "Integer(%d)", c.n)
	}
}

func TestPrinter_Float(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{3.14159, "3.142"},
		{2.5, "2.500"},
		{1.0, "1.0"},
		{0.25, "0.250"},
	}
	for _, c := range cases {
		got := printed(t, func(pr *Printer) error { return pr.Float(c.n) })
		require.Equal(t, c.want, got, "Float(%v)", c.n)
	}
}

func TestPrinter_String(t *testing.T) {
	require.Equal(t, "hello", printed(t, func(pr *Printer) error { return pr.String("hello") }))
	require.Equal(t, "", printed(t, func(pr *Printer) error { return pr.String("") }))
}

// The formatting layer consumes only the single-byte send primitive, so it
// composes directly with a Port.
func TestPrinter_OverPort(t *testing.T) {
	p, dev := newTestPort(t)
	pr := NewPrinter(p)

	require.NoError(t, pr.Integer(-5))
	dev.drainAll(p)
	require.Equal(t, "-5", string(dev.sentBytes()))
}
