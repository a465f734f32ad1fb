package bootloader

import (
	"fmt"
	"strings"

	"github.com/meshtools/go-tisbl/device"
)

// CCFGSize is the size of the customer configuration area at the end of
// flash on CC26xx families.
const CCFGSize = 88

// Device registers read through the bootloader's memory-read command.
const (
	// FLASH_CTRL.DIECFG0 on CC2538.
	cc2538DieCfg0 = 0x400D3014

	// FLASH.FLASH_SIZE on CC26x0/CC26x2.
	cc26xxFlashSize = 0x4003002C

	// FCFG1.MAC_15_4_0 on CC26x0/CC26x2.
	cc26xxMACPrimary = 0x000002F0

	// Primary and secondary IEEE address locations on CC2538.
	cc2538IEEEPrimary   = 0x0028_0028
	cc2538IEEESecondary = 0x0027_FFCC

	// Offset of the IEEE address inside the CCFG.
	ccfgIEEEOffset = 0x20
)

// ReadFlashSize reads the installed flash size in bytes from the device.
// Chips ship with less flash than the family maximum, so the real bound
// for flashing comes from here.
func (f *Flasher) ReadFlashSize() (uint32, error) {
	switch family := f.dev.Family(); family {
	case device.CC2538:
		dieCfg, err := f.dev.MemoryRead32(cc2538DieCfg0)
		if err != nil {
			return 0, err
		}
		switch (dieCfg >> 4) & 0x07 {
		case 1:
			return 128 * 1024, nil
		case 2:
			return 256 * 1024, nil
		case 3:
			return 384 * 1024, nil
		case 4:
			return 512 * 1024, nil
		default:
			// 0 and reserved values both mean the smallest part.
			return 64 * 1024, nil
		}
	default:
		// CC26xx: sector count in the low byte of FLASH_SIZE.
		reg, err := f.dev.MemoryRead32(cc26xxFlashSize)
		if err != nil {
			return 0, err
		}
		return (reg & 0xFF) * family.SectorSize(), nil
	}
}

// IEEEAddress is an EUI-64 address as stored on the device.
type IEEEAddress [8]byte

// Valid reports whether the address is programmed; unprogrammed slots
// read as all 0xFF.
func (a IEEEAddress) Valid() bool {
	for _, b := range a {
		if b != 0xFF {
			return true
		}
	}
	return false
}

// String formats the address as colon-separated hex bytes.
func (a IEEEAddress) String() string {
	var sb strings.Builder
	for i, b := range a {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// ReadIEEEAddress reads the primary (factory) and secondary (CCFG
// override) IEEE 802.15.4 addresses from the device. Either may be
// unprogrammed; check Valid.
func (f *Flasher) ReadIEEEAddress() (primary, secondary IEEEAddress, err error) {
	var primaryAddr, secondaryAddr uint32
	if f.dev.Family() == device.CC2538 {
		primaryAddr = cc2538IEEEPrimary
		secondaryAddr = cc2538IEEESecondary
	} else {
		primaryAddr = cc26xxMACPrimary

		flashSize, err := f.ReadFlashSize()
		if err != nil {
			return primary, secondary, err
		}
		secondaryAddr = flashSize - CCFGSize + ccfgIEEEOffset
	}

	if err := f.dev.ReadMemory32(primaryAddr, primary[:]); err != nil {
		return primary, secondary, err
	}
	if err := f.dev.ReadMemory32(secondaryAddr, secondary[:]); err != nil {
		return primary, secondary, err
	}
	return primary, secondary, nil
}
