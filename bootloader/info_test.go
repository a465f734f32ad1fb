package bootloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshtools/go-tisbl/device"
)

func TestReadFlashSize(t *testing.T) {
	tests := []struct {
		name   string
		family device.Family
		size   uint32
	}{
		{"cc2538 64K", device.CC2538, 64 * 1024},
		{"cc2538 128K", device.CC2538, 128 * 1024},
		{"cc2538 256K", device.CC2538, 256 * 1024},
		{"cc2538 384K", device.CC2538, 384 * 1024},
		{"cc2538 512K", device.CC2538, 512 * 1024},
		{"cc26x0 128K", device.CC26x0, 128 * 1024},
		{"cc26x2 352K", device.CC26x2, 352 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip := newFakeChip(tt.family, tt.size)
			f := newTestFlasher(t, chip)

			size, err := f.ReadFlashSize()
			require.NoError(t, err)
			assert.Equal(t, tt.size, size)
		})
	}
}

func TestReadIEEEAddress(t *testing.T) {
	t.Run("cc26x0", func(t *testing.T) {
		chip := newFakeChip(device.CC26x0, 128*1024)

		// Factory address 00:12:4B:00:AA:BB:CC:DD, stored little-endian
		// per 32-bit word.
		chip.regs[0x000002F0] = 0x004B1200
		chip.regs[0x000002F4] = 0xDDCCBBAA

		// CCFG override slot left unprogrammed.
		secondaryAddr := uint32(128*1024 - CCFGSize + 0x20)
		chip.regs[secondaryAddr] = 0xFFFFFFFF
		chip.regs[secondaryAddr+4] = 0xFFFFFFFF

		f := newTestFlasher(t, chip)
		primary, secondary, err := f.ReadIEEEAddress()
		require.NoError(t, err)

		assert.Equal(t, "00:12:4B:00:AA:BB:CC:DD", primary.String())
		assert.True(t, primary.Valid())
		assert.False(t, secondary.Valid())
	})

	t.Run("cc2538", func(t *testing.T) {
		chip := newFakeChip(device.CC2538, 512*1024)
		chip.regs[0x00280028] = 0x004B1200
		chip.regs[0x0028002C] = 0x01020304

		f := newTestFlasher(t, chip)
		primary, _, err := f.ReadIEEEAddress()
		require.NoError(t, err)
		assert.Equal(t, "00:12:4B:00:04:03:02:01", primary.String())
	})
}

func TestIEEEAddress(t *testing.T) {
	unprogrammed := IEEEAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	assert.False(t, unprogrammed.Valid())
	assert.Equal(t, "FF:FF:FF:FF:FF:FF:FF:FF", unprogrammed.String())

	programmed := IEEEAddress{0x00, 0x12, 0x4B, 0x00, 0x01, 0x02, 0x03, 0x04}
	assert.True(t, programmed.Valid())
	assert.Equal(t, "00:12:4B:00:01:02:03:04", programmed.String())
}
