package protocol

// Checksum computes the single-byte packet checksum: the sum of the
// command byte and every parameter byte, modulo 256. The length byte is
// not included.
func Checksum(cmd byte, params []byte) byte {
	sum := cmd
	for _, b := range params {
		sum += b
	}
	return sum
}

// Encode frames a command and its parameters into a packet ready to write
// to the wire:
//
//	[LEN][CHECKSUM][CMD][PARAMS...]
//
// LEN counts the whole packet including itself. Returns an EncodingError
// if the parameters do not fit in a single packet; nothing oversized is
// ever framed.
func Encode(cmd byte, params []byte) ([]byte, error) {
	size := HeaderSize + len(params)
	if size > MaxPacketSize {
		return nil, &EncodingError{
			Op:    "encode packet",
			Size:  len(params),
			Limit: MaxBytesPerTransfer,
		}
	}

	pkt := make([]byte, 0, size)
	pkt = append(pkt, byte(size))
	pkt = append(pkt, Checksum(cmd, params))
	pkt = append(pkt, cmd)
	pkt = append(pkt, params...)

	return pkt, nil
}

// Decode validates a complete packet and returns its payload
// (command byte followed by parameters). Used by response handling and by
// stub bootloaders in tests.
func Decode(pkt []byte) ([]byte, error) {
	if len(pkt) < HeaderSize {
		return nil, &FrameError{Reason: "packet shorter than header"}
	}
	if int(pkt[0]) != len(pkt) {
		return nil, &FrameError{Reason: "length field does not match packet size"}
	}
	if Checksum(pkt[2], pkt[3:]) != pkt[1] {
		return nil, &FrameError{Reason: "checksum mismatch"}
	}
	return pkt[2:], nil
}
