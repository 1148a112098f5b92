// serialx/device.go

package serialx

// Device is the register-level contract the driver programs. The simulated
// port in package simport implements it for hosted runs; on silicon the
// methods map onto the USART control, status and data registers.
type Device interface {
	// SetBaudDivisor programs the timing divisor computed by Divisor.
	SetBaudDivisor(div uint16)

	// EnableReceiver and EnableTransmitter gate the hardware shifters.
	EnableReceiver(on bool)
	EnableTransmitter(on bool)

	// SetRxInterrupt unmasks (true) or masks the receive-complete event.
	SetRxInterrupt(on bool)

	// SetTxInterrupt unmasks (true) or masks the transmit-ready event.
	// The event is level-triggered: unmasking it while the data register
	// is already empty must fire the handler.
	SetTxInterrupt(on bool)

	// TxRegisterEmpty reports whether the one-byte data register can
	// accept a byte right now.
	TxRegisterEmpty() bool

	// WriteData loads the data register for transmission.
	WriteData(b byte)
}

// Handler carries the two asynchronous entry points the hardware event
// sources invoke; *Port implements it. Each entry point has exactly one
// event source, runs to completion, is never re-entered by its own source,
// and must not block or allocate.
type Handler interface {
	// OnReceiveComplete is fired when a newly received byte has been read
	// out of the data register.
	OnReceiveComplete(b byte)

	// OnTransmitReady is fired while the data register is empty and the
	// transmit-ready event is unmasked.
	OnTransmitReady()
}
