package firmware

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Constants for Intel HEX record parsing.
const (
	// MinimumRecordLength is the minimum length of a record in hex
	// characters after the ':' mark: count(2) + address(4) + type(2) +
	// checksum(2).
	MinimumRecordLength = 10

	// RecordHeaderSize is the size of the record metadata in bytes
	// (byte count + address + record type).
	RecordHeaderSize = 4

	// RecordChecksumSize is the size of the record checksum field.
	RecordChecksumSize = 1
)

// Intel HEX record types.
const (
	recordData          = 0x00
	recordEOF           = 0x01
	recordExtSegment    = 0x02
	recordStartSegment  = 0x03
	recordExtLinear     = 0x04
	recordStartLinear   = 0x05
)

// Load reads a firmware image from path, dispatching on the file
// extension: .hex and .ihex parse as Intel HEX, everything else is taken
// as a raw binary image.
//
// Example:
//
//	img, err := firmware.Load("app.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes at 0x%08X\n", img.Size(), img.Start)
func Load(path string) (*Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer func() { _ = f.Close() }()

		return ParseHex(f)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("empty file")
		}
		return &Image{Data: data}, nil
	}
}

// span is one contiguous run of data bytes at an absolute address.
type span struct {
	address uint32
	data    []byte
}

// ParseHex parses an Intel HEX image from any io.Reader. Data records
// are flattened into a single contiguous image; gaps between records are
// filled with 0xFF. The lowest data address becomes the image start.
func ParseHex(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)

	var spans []span
	var upper uint32 // upper 16 address bits from the last 04 record
	var sawEOF bool

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if sawEOF {
			return nil, fmt.Errorf("line %d: record after end-of-file record", lineNum)
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch rec.typ {
		case recordData:
			spans = append(spans, span{
				address: upper<<16 | uint32(rec.address),
				data:    rec.data,
			})
		case recordEOF:
			sawEOF = true
		case recordExtLinear:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended linear address record must carry 2 bytes, got %d",
					lineNum, len(rec.data))
			}
			upper = uint32(rec.data[0])<<8 | uint32(rec.data[1])
		case recordExtSegment, recordStartSegment, recordStartLinear:
			// Segment addressing and entry points are irrelevant to a
			// flat flash image.
		default:
			return nil, fmt.Errorf("line %d: unknown record type 0x%02X", lineNum, rec.typ)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !sawEOF {
		return nil, fmt.Errorf("missing end-of-file record")
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("no data records found")
	}

	return flatten(spans)
}

// record is one decoded Intel HEX line.
type record struct {
	address uint16
	typ     byte
	data    []byte
}

// parseRecord decodes a single record line.
//
// Record format after the ':' mark, all hex-encoded:
//
//	[ByteCount(1 byte)][Address(2 bytes)][Type(1 byte)][Data(N bytes)][Checksum(1 byte)]
//
// The checksum makes the byte sum of the whole record zero mod 256.
func parseRecord(line string) (*record, error) {
	if line[0] != ':' {
		return nil, fmt.Errorf("record must start with ':'")
	}
	line = line[1:]

	if len(line) < MinimumRecordLength {
		return nil, fmt.Errorf("record too short: got %d characters, minimum is %d",
			len(line), MinimumRecordLength)
	}

	raw, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}

	count := int(raw[0])
	expectedLen := RecordHeaderSize + count + RecordChecksumSize
	if len(raw) != expectedLen {
		return nil, fmt.Errorf("byte count mismatch: got %d bytes, expected %d",
			len(raw), expectedLen)
	}

	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return nil, fmt.Errorf("checksum mismatch: record sums to 0x%02X, expected 0x00", sum)
	}

	rec := &record{
		address: uint16(raw[1])<<8 | uint16(raw[2]),
		typ:     raw[3],
		data:    make([]byte, count),
	}
	copy(rec.data, raw[RecordHeaderSize:RecordHeaderSize+count])

	return rec, nil
}

// flatten merges the data spans into one contiguous image, filling gaps
// with 0xFF and rejecting overlaps.
func flatten(spans []span) (*Image, error) {
	lo := spans[0].address
	var hi uint32
	for _, s := range spans {
		if s.address < lo {
			lo = s.address
		}
		if end := s.address + uint32(len(s.data)); end > hi {
			hi = end
		}
	}

	data := make([]byte, hi-lo)
	for i := range data {
		data[i] = 0xFF
	}

	written := make([]bool, len(data))
	for _, s := range spans {
		off := s.address - lo
		for i, b := range s.data {
			if written[off+uint32(i)] {
				return nil, fmt.Errorf("overlapping data at address 0x%08X", s.address+uint32(i))
			}
			data[off+uint32(i)] = b
			written[off+uint32(i)] = true
		}
	}

	return &Image{Data: data, Start: lo, HasStart: true}, nil
}
