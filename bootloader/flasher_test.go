package bootloader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshtools/go-tisbl/device"
	"github.com/meshtools/go-tisbl/protocol"
)

// newTestFlasher wires a Flasher to a fake chip through a real device
// connection.
func newTestFlasher(t *testing.T, chip *fakeChip, opts ...Option) *Flasher {
	t.Helper()
	dev, err := device.New(chip, chip.family, device.WithAckTimeout(50*time.Millisecond))
	require.NoError(t, err)
	return New(dev, opts...)
}

// testImage builds a deterministic non-uniform payload.
func testImage(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}

func TestFlashWritesImage(t *testing.T) {
	chip := newFakeChip(device.CC26x2, 352*1024)

	var progress []Progress
	f := newTestFlasher(t, chip,
		WithErase(true),
		WithVerify(true),
		WithProgress(func(p Progress) { progress = append(progress, p) }),
	)

	img := testImage(20000)
	require.NoError(t, f.Flash(img, 0))

	// Three 8 KiB sectors cover 20000 bytes, erased in ascending order.
	assert.Equal(t, []uint32{0, 8192, 16384}, chip.sectorErases)

	// One download declaring the whole image, then chunks whose
	// concatenation is exactly the image.
	require.Equal(t, []downloadOp{{0, 20000}}, chip.downloads)
	assert.Equal(t, img, chip.writtenBytes())
	for _, chunk := range chip.chunks {
		assert.LessOrEqual(t, len(chunk), protocol.MaxBytesPerTransfer)
	}
	assert.Equal(t, img, chip.flash[:len(img)])

	// Progress walks erase, write, verify, complete.
	require.NotEmpty(t, progress)
	assert.Equal(t, PhaseErase, progress[0].Phase)
	last := progress[len(progress)-1]
	assert.Equal(t, PhaseComplete, last.Phase)
	assert.Equal(t, len(img), last.BytesWritten)
	assert.Equal(t, float64(100), last.Percentage)

	var sawWrite, sawVerify bool
	for _, p := range progress {
		switch p.Phase {
		case PhaseWrite:
			sawWrite = true
		case PhaseVerify:
			sawVerify = true
		}
	}
	assert.True(t, sawWrite)
	assert.True(t, sawVerify)
}

func TestFlashRejectsProtectedRegion(t *testing.T) {
	chip := newFakeChip(device.CC26x0, 128*1024)
	f := newTestFlasher(t, chip, WithErase(true))

	// End address reaches 50 bytes into the CCFG.
	ccfgStart := uint32(128*1024 - CCFGSize)
	err := f.Flash(testImage(550), ccfgStart-500)

	var protErr *ProtectedRegionError
	require.ErrorAs(t, err, &protErr)
	assert.Equal(t, ccfgStart, protErr.Start)

	// Nothing was erased or written.
	assert.Empty(t, chip.sectorErases)
	assert.Empty(t, chip.downloads)
	assert.Empty(t, chip.chunks)
}

func TestFlashSplitsConfigTail(t *testing.T) {
	const flashSize = 352 * 1024
	chip := newFakeChip(device.CC26x2, flashSize)
	ccfgStart := uint32(flashSize - CCFGSize)

	// The device goes mute for everything landing in the CCFG, like a
	// configuration that locks the chip on write.
	chip.nackFrom = ccfgStart

	f := newTestFlasher(t, chip,
		WithErase(true),
		WithConfigOverwrite(true),
	)

	// Image ends exactly at the end of flash, start sector-aligned.
	addr := uint32(flashSize - 2*8192)
	img := testImage(2 * 8192)
	require.NoError(t, f.Flash(img, addr))

	// Two transfers: the acked body and the unacked CCFG tail.
	require.Equal(t, []downloadOp{
		{addr, uint32(len(img)) - CCFGSize},
		{ccfgStart, CCFGSize},
	}, chip.downloads)

	// The erase stops short of the CCFG.
	assert.Equal(t, []uint32{addr, addr + 8192}, chip.sectorErases)

	// Everything still reached flash, including the NACKed tail.
	assert.Equal(t, img, chip.writtenBytes())
	assert.Equal(t, img, chip.flash[addr:])
	require.NotEmpty(t, chip.lastChunkAcks)
	assert.False(t, chip.lastChunkAcks[len(chip.lastChunkAcks)-1])
}

func TestFlashImageTooLarge(t *testing.T) {
	t.Run("oversized image", func(t *testing.T) {
		chip := newFakeChip(device.CC26x0, 128*1024)
		f := newTestFlasher(t, chip)

		err := f.Flash(testImage(128*1024+4), 0)
		require.Error(t, err)
		assert.ErrorContains(t, err, "does not fit")
		assert.Empty(t, chip.downloads)
	})

	t.Run("end address wrapping uint32", func(t *testing.T) {
		chip := newFakeChip(device.CC26x0, 128*1024)
		f := newTestFlasher(t, chip)

		err := f.Flash(testImage(0x20), 0xFFFFFFF0)
		require.Error(t, err)
		assert.ErrorContains(t, err, "does not fit")
		assert.Empty(t, chip.downloads)
		assert.Empty(t, chip.chunks)
	})
}

func TestFlashEmptyImage(t *testing.T) {
	chip := newFakeChip(device.CC26x0, 128*1024)
	f := newTestFlasher(t, chip)

	assert.ErrorContains(t, f.Flash(nil, 0), "empty image")
}

func TestFlashVerifyMismatch(t *testing.T) {
	chip := newFakeChip(device.CC26x2, 352*1024)
	chip.crcOverride = 0xDEADBEEF
	f := newTestFlasher(t, chip, WithVerify(true))

	err := f.Flash(testImage(1000), 0)

	var verErr *VerificationError
	require.ErrorAs(t, err, &verErr)
	assert.Equal(t, uint32(0xDEADBEEF), verErr.Actual)
	assert.Equal(t, uint32(1000), verErr.Size)
}

func TestEraseRange(t *testing.T) {
	t.Run("ranged erase on cc2538", func(t *testing.T) {
		chip := newFakeChip(device.CC2538, 512*1024)
		f := newTestFlasher(t, chip)

		base := device.CC2538.FlashBase()
		require.NoError(t, f.EraseRange(base, 4096))
		assert.Equal(t, []eraseOp{{base, 4096}}, chip.erases)
	})

	t.Run("per-sector erase on cc26x0", func(t *testing.T) {
		chip := newFakeChip(device.CC26x0, 128*1024)
		f := newTestFlasher(t, chip)

		// 10000 bytes span three 4 KiB sectors.
		require.NoError(t, f.EraseRange(0, 10000))
		assert.Equal(t, []uint32{0, 4096, 8192}, chip.sectorErases)
	})

	t.Run("bank erase on opt-in", func(t *testing.T) {
		chip := newFakeChip(device.CC26x0, 128*1024)
		f := newTestFlasher(t, chip, WithBankErase(true), WithConfigOverwrite(true))

		require.NoError(t, f.EraseRange(0, 128*1024))
		assert.Equal(t, 1, chip.bankErases)
		assert.Empty(t, chip.sectorErases)
	})

	t.Run("bank erase refused without config overwrite", func(t *testing.T) {
		chip := newFakeChip(device.CC26x0, 128*1024)
		f := newTestFlasher(t, chip, WithBankErase(true))

		// The requested range avoids the CCFG, but a bank erase would
		// still wipe it.
		err := f.EraseRange(0, 4096)
		var protErr *ProtectedRegionError
		require.ErrorAs(t, err, &protErr)
		assert.Zero(t, chip.bankErases)
		assert.Empty(t, chip.sectorErases)
	})

	t.Run("protected region", func(t *testing.T) {
		chip := newFakeChip(device.CC26x0, 128*1024)
		f := newTestFlasher(t, chip)

		err := f.EraseRange(124928, 8192)
		var protErr *ProtectedRegionError
		require.ErrorAs(t, err, &protErr)
		assert.Empty(t, chip.sectorErases)
	})
}

func TestWriteRangeChunking(t *testing.T) {
	chip := newFakeChip(device.CC26x0, 128*1024)
	f := newTestFlasher(t, chip, WithChunkSize(100))

	data := testImage(250)
	require.NoError(t, f.WriteRange(Transfer{Data: data, StartAddress: 0, ExpectAck: true}))

	require.Equal(t, []downloadOp{{0, 250}}, chip.downloads)
	require.Len(t, chip.chunks, 3)
	assert.Len(t, chip.chunks[0], 100)
	assert.Len(t, chip.chunks[1], 100)
	assert.Len(t, chip.chunks[2], 50)
	assert.Equal(t, data, chip.writtenBytes())
}

func TestWriteRangeEmptyTransfer(t *testing.T) {
	chip := newFakeChip(device.CC26x0, 128*1024)
	f := newTestFlasher(t, chip)

	require.NoError(t, f.WriteRange(Transfer{ExpectAck: true}))
	assert.Empty(t, chip.downloads)
}

func TestExpectAck(t *testing.T) {
	assert.NoError(t, ExpectAck(true))

	var protoErr *device.ProtocolError
	assert.ErrorAs(t, ExpectAck(false), &protoErr)
}

func TestFlasherDevice(t *testing.T) {
	chip := newFakeChip(device.CC26x0, 128*1024)
	f := newTestFlasher(t, chip)
	assert.Equal(t, device.CC26x0, f.Device().Family())
}
