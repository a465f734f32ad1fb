package protocol

import "fmt"

// EncodingError indicates the caller violated a local size, length or
// alignment constraint. The offending data is never written to the wire.
type EncodingError struct {
	// Op is the operation that rejected the data.
	Op string

	// Size is the offending size in bytes.
	Size int

	// Limit is the maximum the protocol allows.
	Limit int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds protocol limit of %d", e.Op, e.Size, e.Limit)
}

// FrameError indicates a received packet was structurally invalid:
// truncated, mis-sized, or failing its checksum.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("malformed packet: %s", e.Reason)
}
