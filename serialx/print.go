// serialx/print.go

// Human-readable formatting built purely on the single-byte send
// primitive. The Printer renders into any ByteWriter and performs no
// buffer access of its own.

package serialx

import "math"

// ByteWriter is the one primitive the formatting layer needs. *Port
// implements it; so does bytes.Buffer, which the tests use.
type ByteWriter interface {
	WriteByte(c byte) error
}

// Printer renders integers, floats and strings as ASCII through a
// ByteWriter.
type Printer struct {
	w ByteWriter
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w ByteWriter) *Printer {
	return &Printer{w: w}
}

// String writes s byte by byte.
func (pr *Printer) String(s string) error {
	for i := 0; i < len(s); i++ {
		if err := pr.w.WriteByte(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// IntegerInBase writes n in the given base, most significant digit first.
// Digit values of ten and above use 'A' onward.
func (pr *Printer) IntegerInBase(n uint64, base uint64) error {
	if n == 0 {
		return pr.w.WriteByte('0')
	}
	var digits [64]byte
	i := 0
	for n > 0 {
		digits[i] = byte(n % base)
		n /= base
		i++
	}
	for ; i > 0; i-- {
		d := digits[i-1]
		c := '0' + d
		if d >= 10 {
			c = 'A' + d - 10
		}
		if err := pr.w.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}

// Integer writes n in decimal, with a leading '-' when negative.
func (pr *Printer) Integer(n int64) error {
	if n < 0 {
		if err := pr.w.WriteByte('-'); err != nil {
			return err
		}
		n = -n
	}
	return pr.IntegerInBase(uint64(n), 10)
}

// Float writes the integer part, a dot, then the fractional part rounded
// to three decimal digits and written as a plain integer: 3.14159 comes
// out as "3.142". The fraction is not zero-padded, matching the classic
// AVR driver this formatting comes from.
func (pr *Printer) Float(n float64) error {
	whole, frac := math.Modf(n)
	if err := pr.Integer(int64(whole)); err != nil {
		return err
	}
	if err := pr.w.WriteByte('.'); err != nil {
		return err
	}
	return pr.Integer(int64(math.Round(frac * 1000)))
}
