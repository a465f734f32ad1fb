package protocol

import "fmt"

// Status is the outcome the bootloader reports for the last issued
// command, obtained with CmdGetStatus.
type Status byte

// Status values per the TI serial bootloader interface.
const (
	// StatusSuccess indicates the command completed successfully.
	StatusSuccess Status = 0x40

	// StatusUnknownCmd indicates the command opcode is not known to this
	// bootloader.
	StatusUnknownCmd Status = 0x41

	// StatusInvalidCmd indicates the command was malformed.
	StatusInvalidCmd Status = 0x42

	// StatusInvalidAddr indicates an address parameter was out of range.
	StatusInvalidAddr Status = 0x43

	// StatusFlashFail indicates a flash erase or program operation failed.
	StatusFlashFail Status = 0x44
)

// Success reports whether the status is StatusSuccess.
func (s Status) Success() bool {
	return s == StatusSuccess
}

// String returns the TI name of the status code, used for user-facing
// error rendering.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "COMMAND_RET_SUCCESS"
	case StatusUnknownCmd:
		return "COMMAND_RET_UNKNOWN_CMD"
	case StatusInvalidCmd:
		return "COMMAND_RET_INVALID_CMD"
	case StatusInvalidAddr:
		return "COMMAND_RET_INVALID_ADR"
	case StatusFlashFail:
		return "COMMAND_RET_FLASH_FAIL"
	default:
		return fmt.Sprintf("unknown status 0x%02X", byte(s))
	}
}
