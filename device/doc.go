// Package device binds the TI serial bootloader protocol to a live
// serial connection.
//
// A Device is created from an already-open port and a Family:
//
//	port, _ := serial.Open("/dev/ttyACM0", ports.DefaultMode(115200))
//	port.SetReadTimeout(200 * time.Millisecond)
//
//	dev, err := device.New(port, device.CC26x2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok, _ := dev.Ping()
//
// The Family value carries every family-specific constant and capability
// flag; command methods check capabilities locally and never put an
// unsupported opcode on the wire. The Device owns its port exclusively:
// the protocol is half-duplex with one outstanding request, so no method
// may be called concurrently. Abandoning the Device (closing the port
// underneath it) is the only cancellation mechanism.
//
// On boards that route DTR/RTS to the bootloader pin and !RESET,
// InvokeBootloader resets the target into its ROM bootloader before
// device.New is called.
package device
