package bootloader

import (
	"fmt"
	"hash/crc32"

	"github.com/meshtools/go-tisbl/device"
)

// Flasher orchestrates whole-image flash operations on top of a Device.
// Like the Device it wraps, it is not safe for concurrent use.
type Flasher struct {
	dev *device.Device
	cfg Config
}

// New creates a Flasher for an established device connection.
func New(dev *device.Device, opts ...Option) *Flasher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Flasher{dev: dev, cfg: cfg}
}

// Device returns the underlying device connection.
func (f *Flasher) Device() *device.Device {
	return f.dev
}

// Transfer is one contiguous run of image data to write.
type Transfer struct {
	// Data is the bytes to write.
	Data []byte

	// StartAddress is the flash address of Data[0].
	StartAddress uint32

	// ExpectAck requires every chunk to be acknowledged and its status
	// polled. It is cleared for the CCFG tail, where a freshly written
	// configuration may lock the device before it can answer.
	ExpectAck bool
}

func (f *Flasher) emit(p Progress) {
	if f.cfg.Progress != nil {
		f.cfg.Progress(p)
	}
}

// ExpectAck converts an unexpected NACK into a ProtocolError, for
// commands whose only wire-level outcome is the bare ACK polarity.
func ExpectAck(ack bool) error {
	if !ack {
		return &device.ProtocolError{Reason: "expected ACK, device answered NACK"}
	}
	return nil
}

// configWindow returns the CCFG address range for the installed flash
// size, or ok=false for families without a CCFG.
func (f *Flasher) configWindow(flashSize uint32) (start, end uint32, ok bool) {
	family := f.dev.Family()
	if !family.SupportsSetCCFG() {
		return 0, 0, false
	}
	end = family.FlashBase() + flashSize
	return end - CCFGSize, end, true
}

// EraseRange erases length bytes of flash starting at address, using
// whichever erase granularity the family offers. A range intersecting the
// CCFG fails with ProtectedRegionError before any erase command unless
// config overwrite is enabled.
func (f *Flasher) EraseRange(address, length uint32) error {
	flashSize, err := f.ReadFlashSize()
	if err != nil {
		return err
	}

	if ccfgStart, ccfgEnd, ok := f.configWindow(flashSize); ok && !f.cfg.OverwriteConfig {
		if address < ccfgEnd && (address >= ccfgStart || length > ccfgStart-address) {
			return &ProtectedRegionError{Start: ccfgStart, End: ccfgEnd}
		}
	}

	return f.eraseRange(address, length, flashSize, newProgressState(0))
}

func (f *Flasher) eraseRange(address, length, flashSize uint32, ps *progressState) error {
	family := f.dev.Family()

	if family.SupportsErase() {
		if f.cfg.Logger != nil {
			f.cfg.Logger.Info().
				Uint32("address", address).
				Uint32("length", length).
				Msg("erasing flash range")
		}
		f.emit(ps.snapshot(PhaseErase, 0))
		if err := f.dev.Erase(address, length); err != nil {
			return err
		}
		f.emit(ps.snapshot(PhaseErase, 100))
		return nil
	}

	if f.cfg.BankErase {
		// A bank erase wipes the whole flash including the CCFG page, no
		// matter how small the requested range is.
		if ccfgStart, ccfgEnd, ok := f.configWindow(flashSize); ok && !f.cfg.OverwriteConfig {
			return &ProtectedRegionError{Start: ccfgStart, End: ccfgEnd}
		}
		if f.cfg.Logger != nil {
			f.cfg.Logger.Info().Msg("erasing flash bank")
		}
		f.emit(ps.snapshot(PhaseErase, 0))
		if err := f.dev.BankErase(); err != nil {
			return err
		}
		f.emit(ps.snapshot(PhaseErase, 100))
		return nil
	}

	sectorSize := family.SectorSize()
	sectors := length / sectorSize
	if length%sectorSize != 0 {
		sectors++
	}

	for i := uint32(0); i < sectors; i++ {
		sectorAddress := address + i*sectorSize
		if f.cfg.Logger != nil {
			f.cfg.Logger.Debug().
				Uint32("sector", family.AddressToPage(sectorAddress)).
				Uint32("address", sectorAddress).
				Msg("erasing sector")
		}
		if err := f.dev.SectorErase(sectorAddress); err != nil {
			return err
		}
		f.emit(ps.snapshot(PhaseErase, float64(i+1)/float64(sectors)*100))
	}
	return nil
}

// WriteRange writes one transfer to flash: a download declaration
// followed by chunked send-data commands whose concatenation equals
// t.Data. A failure partway through carries the confirmed offset in a
// TransferError so the caller can resume.
func (f *Flasher) WriteRange(t Transfer) error {
	ps := newProgressState(len(t.Data))
	return f.writeTransfer(t, ps)
}

func (f *Flasher) writeTransfer(t Transfer, ps *progressState) error {
	if len(t.Data) == 0 {
		return nil
	}

	if err := f.dev.Download(t.StartAddress, uint32(len(t.Data))); err != nil {
		return err
	}

	for offset := 0; offset < len(t.Data); {
		n := f.cfg.ChunkSize
		if rest := len(t.Data) - offset; n > rest {
			n = rest
		}
		chunk := t.Data[offset : offset+n]

		if f.cfg.Logger != nil {
			f.cfg.Logger.Debug().
				Uint32("address", t.StartAddress+uint32(offset)).
				Int("bytes", n).
				Msg("writing chunk")
		}

		if t.ExpectAck {
			if err := f.dev.SendData(chunk); err != nil {
				return &TransferError{Offset: uint32(offset), Err: err}
			}
		} else {
			ack, err := f.dev.SendDataNoAck(chunk)
			if err != nil {
				return &TransferError{Offset: uint32(offset), Err: err}
			}
			if !ack && f.cfg.Logger != nil {
				// Expected when the new configuration locks the device.
				f.cfg.Logger.Debug().
					Uint32("address", t.StartAddress+uint32(offset)).
					Msg("chunk not acknowledged")
			}
		}

		offset += n
		ps.written += n
		f.emit(ps.snapshot(PhaseWrite, float64(ps.written)/float64(ps.total)*100))
	}

	return nil
}

// Flash writes a whole image to flash at address: size and window
// validation against the installed flash size, CCFG overlap detection,
// optional erase of the target range, the chunked writes, and an optional
// CRC-32 read-back check.
func (f *Flasher) Flash(data []byte, address uint32) error {
	if len(data) == 0 {
		return fmt.Errorf("empty image")
	}

	family := f.dev.Family()
	base := family.FlashBase()
	if address < base {
		return fmt.Errorf("start address 0x%08X is below the flash base 0x%08X", address, base)
	}

	ack, err := f.dev.Ping()
	if err != nil {
		return err
	}
	if err := ExpectAck(ack); err != nil {
		return fmt.Errorf("device is not answering: %w", err)
	}

	flashSize, err := f.ReadFlashSize()
	if err != nil {
		return fmt.Errorf("failed to read flash size: %w", err)
	}

	// Subtract instead of comparing address+len, which can wrap uint32.
	size := uint32(len(data))
	if address > base+flashSize || size > base+flashSize-address {
		return fmt.Errorf("image does not fit in flash: %d bytes at 0x%08X, flash ends at 0x%08X",
			size, address, base+flashSize)
	}
	end := address + size

	// The CCFG occupies the last bytes of flash on CC26xx families. It is
	// written as a separate unacked tail transfer, and only on opt-in.
	var overlap bool
	ccfgStart, ccfgEnd, hasCCFG := f.configWindow(flashSize)
	if hasCCFG && end > ccfgStart {
		if !f.cfg.OverwriteConfig {
			return &ProtectedRegionError{Start: ccfgStart, End: ccfgEnd}
		}
		overlap = true
	}

	if f.cfg.Logger != nil {
		f.cfg.Logger.Info().
			Int("bytes", len(data)).
			Uint32("address", address).
			Bool("overwrites_config", overlap).
			Msg("flashing image")
	}

	ps := newProgressState(len(data))

	if f.cfg.Erase {
		eraseLen := uint32(len(data))
		if overlap {
			eraseLen = ccfgStart - address
		}
		if err := f.eraseRange(address, eraseLen, flashSize, ps); err != nil {
			return fmt.Errorf("failed to erase flash: %w", err)
		}
	}

	var transfers []Transfer
	if overlap {
		split := ccfgStart - address
		transfers = []Transfer{
			{Data: data[:split], StartAddress: address, ExpectAck: true},
			{Data: data[split:], StartAddress: ccfgStart, ExpectAck: false},
		}
	} else {
		transfers = []Transfer{
			{Data: data, StartAddress: address, ExpectAck: true},
		}
	}

	for _, t := range transfers {
		if err := f.writeTransfer(t, ps); err != nil {
			return err
		}
	}

	if f.cfg.Verify {
		f.emit(ps.snapshot(PhaseVerify, 0))

		want := crc32.ChecksumIEEE(data)
		got, err := f.dev.CRC32(address, uint32(len(data)))
		if err != nil {
			return fmt.Errorf("failed to read back CRC: %w", err)
		}
		if got != want {
			return &VerificationError{
				Address:  address,
				Size:     uint32(len(data)),
				Expected: want,
				Actual:   got,
			}
		}
		f.emit(ps.snapshot(PhaseVerify, 100))
	}

	f.emit(ps.snapshot(PhaseComplete, 100))

	if f.cfg.Logger != nil {
		f.cfg.Logger.Info().
			Int("bytes", len(data)).
			Msg("flash complete")
	}
	return nil
}
