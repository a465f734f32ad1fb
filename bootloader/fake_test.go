package bootloader

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/meshtools/go-tisbl/device"
	"github.com/meshtools/go-tisbl/protocol"
)

// eraseOp records one ranged erase command.
type eraseOp struct {
	address uint32
	length  uint32
}

// downloadOp records one download declaration.
type downloadOp struct {
	address uint32
	size    uint32
}

// fakeChip emulates a bootloader target behind the SerialPort interface.
// It decodes command packets as they are written, updates a flash model,
// and queues the responses the host will read.
type fakeChip struct {
	family device.Family
	flash  []byte // modelled flash, flash[0] at the family's base
	regs   map[uint32]uint32

	// nackFrom, when non-zero, makes every send-data landing at or past
	// this address answer NACK, like a device locked by a fresh CCFG.
	nackFrom uint32

	// crcOverride, when non-zero, replaces the computed CRC response.
	crcOverride uint32

	in  bytes.Buffer // host -> device, partial packets accumulate here
	out bytes.Buffer // device -> host

	cursor        uint32 // next write address of the active download
	status        protocol.Status
	erases        []eraseOp
	sectorErases  []uint32
	bankErases    int
	downloads     []downloadOp
	chunks        [][]byte
	statusPolls   int
	lastChunkAcks []bool
}

func newFakeChip(family device.Family, flashSize uint32) *fakeChip {
	c := &fakeChip{
		family: family,
		flash:  bytes.Repeat([]byte{0xFF}, int(flashSize)),
		regs:   make(map[uint32]uint32),
		status: protocol.StatusSuccess,
	}

	switch family {
	case device.CC2538:
		var code uint32
		switch flashSize {
		case 128 * 1024:
			code = 1
		case 256 * 1024:
			code = 2
		case 384 * 1024:
			code = 3
		case 512 * 1024:
			code = 4
		}
		c.regs[0x400D3014] = code << 4
	default:
		c.regs[0x4003002C] = flashSize / family.SectorSize()
	}
	return c
}

func (c *fakeChip) Read(b []byte) (int, error) {
	if c.out.Len() == 0 {
		return 0, nil
	}
	v, _ := c.out.ReadByte()
	b[0] = v
	return 1, nil
}

func (c *fakeChip) SetDTR(bool) error { return nil }
func (c *fakeChip) SetRTS(bool) error { return nil }

func (c *fakeChip) Write(b []byte) (int, error) {
	c.in.Write(b)
	c.process()
	return len(b), nil
}

// process consumes complete host transmissions from the input buffer.
func (c *fakeChip) process() {
	for c.in.Len() > 0 {
		first := c.in.Bytes()[0]
		switch {
		case first == protocol.AckPrefix:
			// Host acknowledgement of our last response.
			if c.in.Len() < 2 {
				return
			}
			c.in.Next(2)
		case first == protocol.SyncByte:
			c.in.Next(1)
			c.respondAck(true)
		default:
			if c.in.Len() < int(first) {
				return
			}
			pkt := make([]byte, first)
			c.in.Read(pkt)
			c.handlePacket(pkt)
		}
	}
}

func (c *fakeChip) respondAck(ack bool) {
	sym := byte(protocol.Nack)
	if ack {
		sym = protocol.Ack
	}
	c.out.Write([]byte{protocol.AckPrefix, sym})
}

func (c *fakeChip) respondData(data []byte) {
	c.out.Write([]byte{byte(len(data) + protocol.ResponseHeaderSize), protocol.Checksum(0, data)})
	c.out.Write(data)
}

func (c *fakeChip) handlePacket(pkt []byte) {
	payload, err := protocol.Decode(pkt)
	if err != nil {
		c.respondAck(false)
		return
	}
	cmd, params := payload[0], payload[1:]

	switch cmd {
	case protocol.CmdPing:
		c.respondAck(true)

	case protocol.CmdGetStatus:
		c.statusPolls++
		c.respondAck(true)
		c.respondData([]byte{byte(c.status)})

	case protocol.CmdDownload:
		addr := binary.BigEndian.Uint32(params[:4])
		size := binary.BigEndian.Uint32(params[4:8])
		c.downloads = append(c.downloads, downloadOp{addr, size})
		c.cursor = addr
		c.status = protocol.StatusSuccess
		c.respondAck(true)

	case protocol.CmdSendData:
		if c.nackFrom != 0 && c.cursor >= c.nackFrom {
			c.write(params)
			c.lastChunkAcks = append(c.lastChunkAcks, false)
			c.respondAck(false)
			return
		}
		c.write(params)
		c.lastChunkAcks = append(c.lastChunkAcks, true)
		c.status = protocol.StatusSuccess
		c.respondAck(true)

	case protocol.CmdErase:
		// The ranged erase and the sector erase share an opcode; the
		// parameter size tells them apart.
		addr := binary.BigEndian.Uint32(params[:4])
		if len(params) == 8 {
			c.erases = append(c.erases, eraseOp{addr, binary.BigEndian.Uint32(params[4:8])})
		} else {
			c.sectorErases = append(c.sectorErases, addr)
		}
		c.status = protocol.StatusSuccess
		c.respondAck(true)

	case protocol.CmdBankErase:
		c.bankErases++
		c.status = protocol.StatusSuccess
		c.respondAck(true)

	case protocol.CmdMemoryRead:
		addr := binary.BigEndian.Uint32(params[:4])
		words := int(params[5])
		data := make([]byte, words*4)
		for i := 0; i < words; i++ {
			binary.LittleEndian.PutUint32(data[i*4:], c.regs[addr+uint32(i*4)])
		}
		c.respondAck(true)
		c.respondData(data)

	case protocol.CmdCRC32:
		addr := binary.BigEndian.Uint32(params[:4])
		size := binary.BigEndian.Uint32(params[4:8])
		crc := c.crcOverride
		if crc == 0 {
			off := addr - c.family.FlashBase()
			crc = crc32.ChecksumIEEE(c.flash[off : off+size])
		}
		var resp [4]byte
		binary.BigEndian.PutUint32(resp[:], crc)
		c.respondAck(true)
		c.respondData(resp[:])

	default:
		// Probe packets and anything unmodelled just get an ACK.
		c.respondAck(true)
	}
}

func (c *fakeChip) write(data []byte) {
	off := c.cursor - c.family.FlashBase()
	copy(c.flash[off:], data)
	c.chunks = append(c.chunks, append([]byte(nil), data...))
	c.cursor += uint32(len(data))
}

// writtenBytes concatenates every send-data chunk in order.
func (c *fakeChip) writtenBytes() []byte {
	var buf bytes.Buffer
	for _, chunk := range c.chunks {
		buf.Write(chunk)
	}
	return buf.Bytes()
}
