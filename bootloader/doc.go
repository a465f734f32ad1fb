// Package bootloader orchestrates whole-image flash operations.
//
// A Flasher wraps an established device connection and handles the parts
// of flashing that span many bootloader commands: erasing the target
// range with whichever granularity the family offers, declaring and
// chunking the download, keeping writes away from the device
// configuration area (CCFG) unless explicitly allowed, and optionally
// verifying the result with the bootloader's CRC-32 command.
//
//	fl := bootloader.New(dev,
//	    bootloader.WithErase(true),
//	    bootloader.WithVerify(true),
//	)
//	if err := fl.Flash(img.Data, img.Start); err != nil {
//	    log.Fatal(err)
//	}
//
// The CCFG occupies the last 88 bytes of flash on CC26xx families and
// controls, among other things, whether the bootloader backdoor stays
// enabled. A write that overlaps it fails with ProtectedRegionError
// unless WithConfigOverwrite is set; when it is, the overlapping bytes
// are sent as a separate transfer that tolerates a silent device, since
// a freshly written configuration can lock the chip immediately.
package bootloader
