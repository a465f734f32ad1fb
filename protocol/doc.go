// Package protocol implements the packet layer of the Texas Instruments
// serial bootloader interface (SBL) used by CC2538, CC26x0/CC13x0 and
// CC26x2/CC13x2 devices.
//
// # Wire format
//
// Every command is one packet:
//
//	Command:  [LEN][CHECKSUM][CMD][PARAMS...]
//	Ack:      [0x00][0xCC]  (or [0x00][0x33] for NACK)
//	Response: [LEN][CHECKSUM][DATA...]  (commands that answer with data)
//
// LEN counts the whole packet including itself; CHECKSUM is the sum of
// CMD and PARAMS modulo 256. Before the first command the host emits the
// two-byte sync sequence 0x55 0x55 repeatedly so the bootloader ROM can
// measure the baud rate.
//
// This package is pure: it frames and validates bytes but performs no
// I/O. The device package drives a serial port with it; tests feed it
// in-memory buffers.
//
// # Reference
//
// CC2538/CC26x0/CC26x2 Serial Bootloader Interface, TI application
// report SWRA466.
package protocol
