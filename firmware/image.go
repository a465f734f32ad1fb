package firmware

// Image is a flat firmware image ready to be written to flash.
type Image struct {
	// Data is the contiguous image content. Gaps between records in a
	// sparse source file are filled with 0xFF, the erased flash value.
	Data []byte

	// Start is the load address of Data[0]. Zero for raw binary images,
	// whose placement is chosen by the caller.
	Start uint32

	// HasStart reports whether Start was taken from the source file
	// rather than defaulted.
	HasStart bool
}

// Size returns the image length in bytes.
func (img *Image) Size() uint32 {
	return uint32(len(img.Data))
}
