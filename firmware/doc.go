// Package firmware loads firmware images for flashing.
//
// Two source formats are supported: raw binary files, taken verbatim,
// and Intel HEX files, which are flattened into a single contiguous
// image with record gaps filled with 0xFF. An Intel HEX image carries
// its own load address; a raw binary leaves placement to the caller.
package firmware
