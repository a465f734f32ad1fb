package device

import "fmt"

// Family identifies the silicon line a device belongs to. All
// family-dependent knowledge (addressing constants, command support) is a
// pure function of this value, so the command layer never special-cases a
// chip by name.
type Family int

const (
	// CC2538 covers the CC2538 line.
	CC2538 Family = iota

	// CC26x0 covers CC26x0 and CC13x0.
	CC26x0

	// CC26x2 covers CC26x2 and CC13x2.
	CC26x2
)

// familyInfo is the constant record backing a Family value.
type familyInfo struct {
	name         string
	flashBase    uint32
	sectorSize   uint32
	maxFlashSize uint32

	run         bool
	erase       bool
	sectorErase bool
	bankErase   bool
	setCCFG     bool
	setXOSC     bool
	downloadCRC bool
}

var familyTable = [...]familyInfo{
	CC2538: {
		name:         "cc2538",
		flashBase:    0x0020_0000,
		sectorSize:   2048,
		maxFlashSize: 512 * 1024,
		run:          true,
		erase:        true,
		setXOSC:      true,
	},
	CC26x0: {
		name:         "cc26x0",
		flashBase:    0x0000_0000,
		sectorSize:   4096,
		maxFlashSize: 128 * 1024,
		sectorErase:  true,
		bankErase:    true,
		setCCFG:      true,
	},
	CC26x2: {
		name:         "cc26x2",
		flashBase:    0x0000_0000,
		sectorSize:   8192,
		maxFlashSize: 352 * 1024,
		sectorErase:  true,
		bankErase:    true,
		setCCFG:      true,
		downloadCRC:  true,
	},
}

func (f Family) info() *familyInfo {
	if f < 0 || int(f) >= len(familyTable) {
		panic(fmt.Sprintf("invalid family %d", int(f)))
	}
	return &familyTable[f]
}

// ParseFamily converts a family name ("cc2538", "cc26x0", "cc26x2",
// case-insensitive on the usual spellings) into a Family.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "cc2538", "CC2538":
		return CC2538, nil
	case "cc26x0", "CC26X0", "cc13x0":
		return CC26x0, nil
	case "cc26x2", "CC26X2", "cc13x2":
		return CC26x2, nil
	default:
		return 0, fmt.Errorf("invalid family %q, must be one of: cc2538, cc26x0, cc26x2", s)
	}
}

func (f Family) String() string {
	return f.info().name
}

// FlashBase returns the base address of flash memory.
func (f Family) FlashBase() uint32 {
	return f.info().flashBase
}

// SectorSize returns the erase sector (page) size in bytes.
func (f Family) SectorSize() uint32 {
	return f.info().sectorSize
}

// MaxFlashSize returns the largest flash size shipped in the family. The
// installed size of a particular chip is read from the device itself; this
// bound is used for local address-window validation.
func (f Family) MaxFlashSize() uint32 {
	return f.info().maxFlashSize
}

// AddressToPage converts a flash address to its page number. The page of
// FlashBase is always zero.
func (f Family) AddressToPage(address uint32) uint32 {
	return (address - f.FlashBase()) / f.SectorSize()
}

// SupportsRun reports whether CmdRun is available (CC2538 only).
func (f Family) SupportsRun() bool {
	return f.info().run
}

// SupportsErase reports whether the ranged CmdErase is available
// (CC2538 only).
func (f Family) SupportsErase() bool {
	return f.info().erase
}

// SupportsSectorErase reports whether CmdSectorErase is available
// (CC26x0 and CC26x2).
func (f Family) SupportsSectorErase() bool {
	return f.info().sectorErase
}

// SupportsBankErase reports whether CmdBankErase is available
// (CC26x0 and CC26x2).
func (f Family) SupportsBankErase() bool {
	return f.info().bankErase
}

// SupportsSetCCFG reports whether CmdSetCCFG is available
// (CC26x0 and CC26x2).
func (f Family) SupportsSetCCFG() bool {
	return f.info().setCCFG
}

// SupportsSetXOSC reports whether CmdSetXOSC is available (CC2538 only).
func (f Family) SupportsSetXOSC() bool {
	return f.info().setXOSC
}

// SupportsDownloadCRC reports whether CmdDownloadCRC is available
// (CC26x2 only).
func (f Family) SupportsDownloadCRC() bool {
	return f.info().downloadCRC
}
