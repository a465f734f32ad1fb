// Package ports enumerates serial ports and their USB metadata, and
// holds the default port settings for talking to the bootloader.
package ports

import (
	"fmt"
	"strconv"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortUsbInfo is the USB metadata of an enumerated port, for ports
// backed by a USB device.
type PortUsbInfo struct {
	// VID and PID identify the USB device model.
	VID uint16
	PID uint16

	// Serial is the USB serial number, when the device reports one.
	Serial string

	// Product is the USB product descriptor string.
	Product string
}

// PortInfo describes one enumerated serial port.
type PortInfo struct {
	// Port is the name used to open the port ("/dev/ttyACM0", "COM3").
	Port string

	// USB is the USB metadata, nil for non-USB ports.
	USB *PortUsbInfo
}

// List enumerates the serial ports present on the system.
func List() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	infos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{Port: d.Name}
		if d.IsUSB {
			usb := &PortUsbInfo{
				Serial:  d.SerialNumber,
				Product: d.Product,
			}
			usb.VID, _ = parseUsbID(d.VID)
			usb.PID, _ = parseUsbID(d.PID)
			info.USB = usb
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// parseUsbID converts the enumerator's hex VID/PID string to its numeric
// value.
func parseUsbID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid USB id %q: %w", s, err)
	}
	return uint16(v), nil
}

// DefaultMode returns the port settings the bootloader ROM expects:
// 8 data bits, no parity, one stop bit, no flow control.
func DefaultMode(baudrate int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}
