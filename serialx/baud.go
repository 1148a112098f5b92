// serialx/baud.go

package serialx

// Divisor converts a requested baud rate into the timing divisor for a
// 16x-oversampling USART, rounding to the nearest divisor rather than
// truncating. Pure arithmetic; Configure feeds the result to the Device.
func Divisor(clockHz, baud uint32) uint16 {
	return uint16((clockHz/16+baud/2)/baud - 1)
}
