package bootloader

import "fmt"

// ProtectedRegionError indicates that an operation would touch the device
// configuration area (CCFG) without the caller opting in to overwriting it.
type ProtectedRegionError struct {
	Start uint32
	End   uint32
}

func (e *ProtectedRegionError) Error() string {
	return fmt.Sprintf("operation would overwrite the device configuration area 0x%08X-0x%08X (enable config overwrite to allow it)",
		e.Start, e.End)
}

// TransferError indicates that a flash write failed partway through. Offset
// is the number of bytes of the transfer confirmed written before the
// failure, letting a caller resume from there.
type TransferError struct {
	Offset uint32
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("flash write failed at offset %d: %v", e.Offset, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// VerificationError indicates that the post-write CRC check did not match
// the flashed image.
type VerificationError struct {
	Address  uint32
	Size     uint32
	Expected uint32
	Actual   uint32
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for %d bytes at 0x%08X: expected CRC 0x%08X, device reports 0x%08X",
		e.Size, e.Address, e.Expected, e.Actual)
}
