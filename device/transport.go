package device

import (
	"fmt"
	"io"
	"time"

	"github.com/meshtools/go-tisbl/protocol"
)

// The transport layer moves one framed packet at a time over the owned
// port and recognizes the bootloader's two-symbol flow-control alphabet.
// All operations block until the device answers or a timeout or the retry
// budget runs out; no buffering survives across calls.

// readByte reads a single byte, treating a zero-length read as a port
// read-timeout tick. The second return value reports whether a byte was
// received before the deadline.
func (d *Device) readByte(deadline time.Time) (byte, bool, error) {
	var buf [1]byte
	for {
		n, err := d.port.Read(buf[:])
		if err == io.EOF {
			return 0, false, &TransportError{Op: "read", Err: io.ErrUnexpectedEOF}
		}
		if err != nil {
			return 0, false, &TransportError{Op: "read", Err: err}
		}
		if n > 0 {
			return buf[0], true, nil
		}
		if !time.Now().Before(deadline) {
			return 0, false, nil
		}
	}
}

// readAck scans the incoming byte stream for the zero-prefixed ACK or
// NACK symbol, discarding any noise in front of it. Returns true for ACK,
// false for NACK.
func (d *Device) readAck() (bool, error) {
	deadline := time.Now().Add(d.cfg.AckTimeout)

	prev := byte(0xFF)
	for {
		b, ok, err := d.readByte(deadline)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, &TransportError{Op: "waiting for ACK", Err: errTimeout}
		}

		if prev == protocol.AckPrefix && (b == protocol.Ack || b == protocol.Nack) {
			return b == protocol.Ack, nil
		}
		prev = b
	}
}

var errTimeout = fmt.Errorf("timed out")

// writeAck tells the device whether its last response arrived intact.
func (d *Device) writeAck(ack bool) error {
	sym := byte(protocol.Nack)
	if ack {
		sym = protocol.Ack
	}
	if _, err := d.port.Write([]byte{protocol.AckPrefix, sym}); err != nil {
		return &TransportError{Op: "write ACK", Err: err}
	}
	return nil
}

// writePacket frames and writes a single command packet. Size violations
// surface as protocol.EncodingError before any byte is written.
func (d *Device) writePacket(cmd byte, params []byte) error {
	pkt, err := protocol.Encode(cmd, params)
	if err != nil {
		return err
	}

	if d.cfg.Logger != nil {
		d.cfg.Logger.Debug().
			Str("cmd", fmt.Sprintf("0x%02X", cmd)).
			Int("params", len(params)).
			Msg("sending packet")
	}

	if _, err := d.port.Write(pkt); err != nil {
		return &TransportError{Op: "write packet", Err: err}
	}
	return nil
}

// sendCommand writes a packet and waits for its ACK, retransmitting the
// identical packet on NACK up to the retry budget. Exhausting the budget
// means the link is dead or the target is not in bootloader mode.
func (d *Device) sendCommand(op string, cmd byte, params []byte) error {
	attempts := d.cfg.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := d.writePacket(cmd, params); err != nil {
			return err
		}

		ack, err := d.readAck()
		if err != nil {
			return err
		}
		if ack {
			return nil
		}

		if d.cfg.Logger != nil {
			d.cfg.Logger.Debug().
				Str("op", op).
				Int("attempt", attempt+1).
				Msg("packet NACKed, retransmitting")
		}
	}

	return &TransportError{Op: fmt.Sprintf("%s: no ACK after %d attempts", op, attempts)}
}

// sendCommandOnce writes a packet and reports the bare ACK polarity, with
// no retransmission and no interpretation.
func (d *Device) sendCommandOnce(cmd byte, params []byte) (bool, error) {
	if err := d.writePacket(cmd, params); err != nil {
		return false, err
	}
	return d.readAck()
}

// readFull fills buf from the port, honoring the per-operation deadline.
func (d *Device) readFull(buf []byte, deadline time.Time) error {
	for off := 0; off < len(buf); {
		b, ok, err := d.readByte(deadline)
		if err != nil {
			return err
		}
		if !ok {
			return &TransportError{Op: "waiting for response", Err: errTimeout}
		}
		buf[off] = b
		off++
	}
	return nil
}

// readResponse reads a data response of exactly size payload bytes:
//
//	[LEN][CHECKSUM][DATA...]
//
// The payload checksum is verified and acknowledged back to the device; a
// corrupt or mis-sized response is NACKed and surfaces as ProtocolError.
func (d *Device) readResponse(size int) ([]byte, error) {
	deadline := time.Now().Add(d.cfg.AckTimeout)

	var hdr [protocol.ResponseHeaderSize]byte
	if err := d.readFull(hdr[:], deadline); err != nil {
		return nil, err
	}

	payloadLen := int(hdr[0]) - protocol.ResponseHeaderSize
	if payloadLen != size {
		return nil, &ProtocolError{
			Reason: fmt.Sprintf("response payload is %d bytes, expected %d", payloadLen, size),
		}
	}

	data := make([]byte, size)
	if err := d.readFull(data, deadline); err != nil {
		return nil, err
	}

	if protocol.Checksum(0, data) != hdr[1] {
		// Let the device retransmit to a caller that retries; we don't.
		if err := d.writeAck(false); err != nil {
			return nil, err
		}
		return nil, &ProtocolError{Reason: "response checksum mismatch"}
	}

	if err := d.writeAck(true); err != nil {
		return nil, err
	}
	return data, nil
}

// Sync performs the autobaud handshake: the two-byte sync sequence is
// emitted repeatedly until the bootloader answers ACK. Needed once before
// the first command and again after any reset.
func (d *Device) Sync() error {
	deadline := time.Now().Add(d.cfg.SyncTimeout)

	for time.Now().Before(deadline) {
		if _, err := d.port.Write(protocol.SyncSequence); err != nil {
			return &SyncError{Err: err}
		}

		ack, err := d.readAck()
		if err != nil {
			// Keep emitting until the overall deadline; the ROM ignores
			// everything until it has measured the baud rate.
			continue
		}
		if ack {
			if d.cfg.Logger != nil {
				d.cfg.Logger.Debug().Msg("autobaud handshake complete")
			}
			return nil
		}
	}

	return &SyncError{}
}

// initComms probes the link with an empty command and falls back to the
// autobaud handshake when nothing answers, mirroring a fresh power-up.
func (d *Device) initComms() error {
	if err := d.writePacket(0, nil); err != nil {
		return err
	}
	if _, err := d.readAck(); err != nil {
		return d.Sync()
	}
	return nil
}
