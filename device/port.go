package device

import (
	"io"
	"time"
)

// SerialPort is the capability a Device needs from a serial connection:
// blocking reads with a caller-configured timeout, writes, and control of
// the DTR/RTS handshake lines. go.bug.st/serial.Port satisfies it; tests
// use in-memory stubs.
//
// Reads are expected to return (0, nil) when the port's read timeout
// elapses with no data, which is how the transport paces its ACK waits.
type SerialPort interface {
	io.ReadWriter

	// SetDTR sets the Data Terminal Ready line.
	SetDTR(dtr bool) error

	// SetRTS sets the Request To Send line.
	SetRTS(rts bool) error
}

// resetHoldTime is how long the bootloader pin stays asserted after the
// chip comes out of reset.
const resetHoldTime = 2 * time.Millisecond

// InvokeBootloader toggles the DTR/RTS lines to reset the target into its
// ROM bootloader, for boards that route the serial handshake lines to the
// bootloader backdoor pin and !RESET. It must be called before creating a
// Device (the sync handshake only succeeds once the ROM is listening).
//
// With inverted false, DTR drives the bootloader pin and RTS drives
// !RESET; inverted swaps them. activeHigh selects the polarity of the
// bootloader pin configured in the CCA/CCFG.
func InvokeBootloader(port SerialPort, inverted, activeHigh bool) error {
	setBootloaderPin := func(level bool) error {
		if inverted {
			return port.SetRTS(level)
		}
		return port.SetDTR(level)
	}
	setResetPin := func(level bool) error {
		if inverted {
			return port.SetDTR(level)
		}
		return port.SetRTS(level)
	}

	if err := setBootloaderPin(!activeHigh); err != nil {
		return err
	}
	if err := setResetPin(false); err != nil {
		return err
	}
	if err := setResetPin(true); err != nil {
		return err
	}
	if err := setResetPin(false); err != nil {
		return err
	}

	// Keep the pin asserted while the chip comes out of reset and the ROM
	// samples it.
	time.Sleep(resetHoldTime)

	return setBootloaderPin(activeHigh)
}
