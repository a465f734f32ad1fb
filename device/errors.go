package device

import (
	"fmt"

	"github.com/meshtools/go-tisbl/protocol"
)

// TransportError indicates the link failed at the byte level: no ACK
// within the retry budget, an I/O failure on the port, or a timed-out
// read. When this surfaces, the link is assumed dead or the target is not
// in bootloader mode.
type TransportError struct {
	// Op is the transport operation that failed.
	Op string

	// Err is the underlying I/O error, if any.
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport: %s", e.Op)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SyncError indicates the autobaud handshake never completed: the device
// did not acknowledge the sync sequence within the timeout.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bootloader sync failed: %v", e.Err)
	}
	return "bootloader sync failed: no ACK within timeout"
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates the observed bytes disagree with the protocol:
// an unexpected ACK polarity, a corrupt response frame, or a response of
// the wrong size.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// CommandError indicates the device explicitly reported a non-success
// status for a command.
type CommandError struct {
	// Op is the command that failed.
	Op string

	// Status is the code the device reported.
	Status protocol.Status
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Op, e.Status, byte(e.Status))
}

// UnsupportedError indicates a command was requested that the bound
// family's bootloader does not implement. Nothing is sent to the wire.
type UnsupportedError struct {
	// Op is the requested command.
	Op string

	// Family is the bound family.
	Family Family
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Op, e.Family)
}

// AddressError indicates an address or length falls outside the family's
// flash window or violates an alignment rule. Nothing is sent to the wire.
type AddressError struct {
	Address uint32
	Reason  string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid address 0x%08X: %s", e.Address, e.Reason)
}
