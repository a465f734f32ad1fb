package protocol

// Command opcodes per the TI serial bootloader interface (SWRA466).
// Opcodes tied to one family are only understood by that family's
// bootloader ROM; issuing them elsewhere yields StatusUnknownCmd.
const (
	// CmdPing checks that the bootloader is alive. ACK-only, no status.
	CmdPing = 0x20

	// CmdDownload declares the address and size of an upcoming write.
	CmdDownload = 0x21

	// CmdRun jumps to the given address (CC2538 only).
	CmdRun = 0x22

	// CmdGetStatus returns the status of the last issued command.
	CmdGetStatus = 0x23

	// CmdSendData transfers one chunk of a declared download.
	CmdSendData = 0x24

	// CmdReset performs a system reset on the target.
	CmdReset = 0x25

	// CmdErase erases a flash range (CC2538). The CC26xx bootloaders reuse
	// the same opcode for single-sector erase.
	CmdErase = 0x26

	// CmdSectorErase erases the sector at the given address (CC26xx).
	CmdSectorErase = 0x26

	// CmdCRC32 computes a CRC-32 over a memory range on the target.
	CmdCRC32 = 0x27

	// CmdGetChipID reads the 32-bit chip identifier.
	CmdGetChipID = 0x28

	// CmdSetXOSC switches the target clock to the external oscillator
	// (CC2538 only).
	CmdSetXOSC = 0x29

	// CmdMemoryRead reads target memory with a configurable access width.
	CmdMemoryRead = 0x2A

	// CmdMemoryWrite writes target memory with a configurable access width.
	CmdMemoryWrite = 0x2B

	// CmdBankErase erases the whole flash bank (CC26xx).
	CmdBankErase = 0x2C

	// CmdSetCCFG writes a field of the customer configuration area (CC26xx).
	CmdSetCCFG = 0x2D

	// CmdDownloadCRC is CmdDownload with an expected CRC-32 of the data
	// (CC26x2 only).
	CmdDownloadCRC = 0x2F
)

// Flow-control alphabet. The bootloader answers every packet with a zero
// byte followed by either Ack or Nack.
const (
	// Ack acknowledges a correctly received packet.
	Ack = 0xCC

	// Nack rejects a packet (bad checksum); the host retransmits.
	Nack = 0x33

	// AckPrefix is the zero byte the bootloader emits before Ack/Nack.
	AckPrefix = 0x00

	// SyncByte is sent twice to let the bootloader detect the baud rate.
	SyncByte = 0x55
)

// SyncSequence is the two-byte autobaud pattern emitted until the
// bootloader acknowledges.
var SyncSequence = []byte{SyncByte, SyncByte}

// Packet geometry. A packet is [len][checksum][cmd][params...] where len
// counts every byte including itself, so the length field caps the whole
// packet at 255 bytes.
const (
	// HeaderSize is len(1) + checksum(1) + cmd(1).
	HeaderSize = 3

	// ResponseHeaderSize is len(1) + checksum(1) of a data response.
	ResponseHeaderSize = 2

	// MaxPacketSize is the largest encodable packet.
	MaxPacketSize = 255

	// MaxBytesPerTransfer is the largest parameter payload of a single
	// packet, and therefore the chunk limit for CmdSendData.
	MaxBytesPerTransfer = MaxPacketSize - HeaderSize

	// MaxReadWords is the largest number of 32-bit accesses a single
	// CmdMemoryRead can request.
	MaxReadWords = 63
)
