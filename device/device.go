package device

import (
	"encoding/binary"

	"github.com/meshtools/go-tisbl/protocol"
)

// Device is the live binding between a Family and an open serial
// connection. It exclusively owns the connection for its lifetime: no
// other component may touch the port while the Device exists, and no
// method is safe for concurrent use. Dropping the Device releases the
// binding; it never closes the underlying port.
type Device struct {
	family Family
	port   SerialPort
	cfg    Config

	// Bytes still expected by the bootloader for the current download.
	// The wire protocol cannot detect an overrun, so it is enforced here.
	downloadActive    bool
	downloadRemaining uint32
}

// New wraps an already-open serial port and establishes communications
// with the bootloader (probe, then autobaud handshake).
//
// The target must already be in bootloader mode; reset it there manually
// or with InvokeBootloader on supported boards.
func New(port SerialPort, family Family, opts ...Option) (*Device, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Device{
		family: family,
		port:   port,
		cfg:    cfg,
	}

	if err := d.initComms(); err != nil {
		return nil, err
	}
	return d, nil
}

// Family returns the family the device is bound to.
func (d *Device) Family() Family {
	return d.family
}

// validateWindow rejects ranges outside the family's flash window before
// anything is sent to the wire. The bound uses the family's largest flash
// part; the installed size is only known after ReadFlashSize.
func (d *Device) validateWindow(address, size uint32) error {
	base := d.family.FlashBase()
	end := base + d.family.MaxFlashSize()

	if address < base {
		return &AddressError{Address: address, Reason: "below flash base"}
	}
	// size > end-address also catches the address+size sum wrapping uint32.
	if address > end || size > end-address {
		return &AddressError{Address: address, Reason: "beyond end of flash"}
	}
	return nil
}

// pollStatus queries the device for the outcome of the last command and
// maps a non-success status to a CommandError.
func (d *Device) pollStatus(op string) error {
	status, err := d.GetStatus()
	if err != nil {
		return err
	}
	if !status.Success() {
		return &CommandError{Op: op, Status: status}
	}
	return nil
}

// Ping probes bootloader liveness. It reports the bare ACK polarity and
// never polls status.
func (d *Device) Ping() (bool, error) {
	return d.sendCommandOnce(protocol.CmdPing, nil)
}

// GetStatus returns the status of the last issued command. Callable
// standalone after any fire-and-forget command.
func (d *Device) GetStatus() (protocol.Status, error) {
	if err := d.sendCommand("get status", protocol.CmdGetStatus, nil); err != nil {
		return 0, err
	}

	resp, err := d.readResponse(1)
	if err != nil {
		return 0, err
	}
	return protocol.Status(resp[0]), nil
}

// GetChipID reads the 32-bit chip identifier. The payload itself is the
// success signal; no status poll follows.
func (d *Device) GetChipID() (uint32, error) {
	if err := d.sendCommand("get chip id", protocol.CmdGetChipID, nil); err != nil {
		return 0, err
	}

	resp, err := d.readResponse(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(resp), nil
}

// Download declares an upcoming write of size bytes starting at address.
// It must be followed by SendData calls whose lengths sum to exactly
// size; the Device enforces that invariant locally because the wire
// protocol cannot.
func (d *Device) Download(address, size uint32) error {
	if err := d.validateWindow(address, size); err != nil {
		return err
	}

	var params [8]byte
	binary.BigEndian.PutUint32(params[:4], address)
	binary.BigEndian.PutUint32(params[4:], size)

	if err := d.sendCommand("download", protocol.CmdDownload, params[:]); err != nil {
		return err
	}
	if err := d.pollStatus("download"); err != nil {
		return err
	}

	d.downloadActive = true
	d.downloadRemaining = size
	return nil
}

// DownloadCRC is Download with the expected CRC-32 of the data, letting
// the CC26x2 bootloader verify the finished download itself.
func (d *Device) DownloadCRC(address, size, crc uint32) error {
	if !d.family.SupportsDownloadCRC() {
		return &UnsupportedError{Op: "download with CRC", Family: d.family}
	}
	if err := d.validateWindow(address, size); err != nil {
		return err
	}

	var params [12]byte
	binary.BigEndian.PutUint32(params[:4], address)
	binary.BigEndian.PutUint32(params[4:8], size)
	binary.BigEndian.PutUint32(params[8:], crc)

	if err := d.sendCommand("download with CRC", protocol.CmdDownloadCRC, params[:]); err != nil {
		return err
	}
	if err := d.pollStatus("download with CRC"); err != nil {
		return err
	}

	d.downloadActive = true
	d.downloadRemaining = size
	return nil
}

// checkChunk applies the local size constraints on a SendData chunk.
func (d *Device) checkChunk(data []byte) error {
	if len(data) > protocol.MaxBytesPerTransfer {
		return &protocol.EncodingError{
			Op:    "send data",
			Size:  len(data),
			Limit: protocol.MaxBytesPerTransfer,
		}
	}
	if d.downloadActive && uint32(len(data)) > d.downloadRemaining {
		return &protocol.EncodingError{
			Op:    "send data: chunk exceeds declared download size",
			Size:  len(data),
			Limit: int(d.downloadRemaining),
		}
	}
	return nil
}

// SendData transmits one chunk of a previously declared download and
// polls for its status. Chunks larger than MaxBytesPerTransfer, or
// overrunning the declared download size, fail locally.
func (d *Device) SendData(data []byte) error {
	if err := d.checkChunk(data); err != nil {
		return err
	}

	if err := d.sendCommand("send data", protocol.CmdSendData, data); err != nil {
		return err
	}
	if err := d.pollStatus("send data"); err != nil {
		return err
	}

	d.consumeDownload(uint32(len(data)))
	return nil
}

// SendDataNoAck transmits one chunk and reports the bare ACK polarity
// without retransmission or a status poll. Used for the final CCFG
// transfer, where a freshly written configuration may lock the device
// before it can answer.
func (d *Device) SendDataNoAck(data []byte) (bool, error) {
	if err := d.checkChunk(data); err != nil {
		return false, err
	}

	ack, err := d.sendCommandOnce(protocol.CmdSendData, data)
	if err != nil {
		return false, err
	}

	d.consumeDownload(uint32(len(data)))
	return ack, nil
}

func (d *Device) consumeDownload(n uint32) {
	if !d.downloadActive {
		return
	}
	// Remaining stays pinned at zero once the declared size is consumed,
	// so a late extra chunk is still rejected by checkChunk.
	d.downloadRemaining -= n
}

// Erase erases count bytes of flash starting at address. CC2538 only;
// it is also the only erase granularity that family offers.
func (d *Device) Erase(address, count uint32) error {
	if !d.family.SupportsErase() {
		return &UnsupportedError{Op: "erase", Family: d.family}
	}
	if err := d.validateWindow(address, count); err != nil {
		return err
	}

	var params [8]byte
	binary.BigEndian.PutUint32(params[:4], address)
	binary.BigEndian.PutUint32(params[4:], count)

	if err := d.sendCommand("erase", protocol.CmdErase, params[:]); err != nil {
		return err
	}
	return d.pollStatus("erase")
}

// SectorErase erases the flash sector starting at address, which must be
// sector-aligned. CC26x0/CC26x2 only.
func (d *Device) SectorErase(address uint32) error {
	if !d.family.SupportsSectorErase() {
		return &UnsupportedError{Op: "sector erase", Family: d.family}
	}
	if (address-d.family.FlashBase())%d.family.SectorSize() != 0 {
		return &AddressError{Address: address, Reason: "not aligned to a sector boundary"}
	}
	if err := d.validateWindow(address, d.family.SectorSize()); err != nil {
		return err
	}

	var params [4]byte
	binary.BigEndian.PutUint32(params[:], address)

	if err := d.sendCommand("sector erase", protocol.CmdSectorErase, params[:]); err != nil {
		return err
	}
	return d.pollStatus("sector erase")
}

// BankErase erases the whole flash bank. CC26x0/CC26x2 only.
func (d *Device) BankErase() error {
	if !d.family.SupportsBankErase() {
		return &UnsupportedError{Op: "bank erase", Family: d.family}
	}

	if err := d.sendCommand("bank erase", protocol.CmdBankErase, nil); err != nil {
		return err
	}
	return d.pollStatus("bank erase")
}

// SetXOSC switches the target clock to the external oscillator. CC2538
// only. The command carries no parameters.
func (d *Device) SetXOSC() error {
	if !d.family.SupportsSetXOSC() {
		return &UnsupportedError{Op: "set XOSC", Family: d.family}
	}

	if err := d.sendCommand("set XOSC", protocol.CmdSetXOSC, nil); err != nil {
		return err
	}
	return d.pollStatus("set XOSC")
}

// SetCCFG writes one field of the customer configuration area.
// CC26x0/CC26x2 only.
func (d *Device) SetCCFG(fieldID, value uint32) error {
	if !d.family.SupportsSetCCFG() {
		return &UnsupportedError{Op: "set CCFG", Family: d.family}
	}

	var params [8]byte
	binary.BigEndian.PutUint32(params[:4], fieldID)
	binary.BigEndian.PutUint32(params[4:], value)

	if err := d.sendCommand("set CCFG", protocol.CmdSetCCFG, params[:]); err != nil {
		return err
	}
	return d.pollStatus("set CCFG")
}

// ReadMemory32 reads len(buf) bytes of target memory at address using
// 32-bit accesses. The address must be 4-byte aligned, len(buf) must be a
// multiple of 4, and at most 63 words fit in one command.
func (d *Device) ReadMemory32(address uint32, buf []byte) error {
	if address&0x03 != 0 {
		return &AddressError{Address: address, Reason: "not aligned to 4 bytes"}
	}
	if len(buf)%4 != 0 {
		return &protocol.EncodingError{Op: "memory read: length not a multiple of 4", Size: len(buf), Limit: len(buf) &^ 0x03}
	}
	if len(buf)/4 > protocol.MaxReadWords {
		return &protocol.EncodingError{Op: "memory read", Size: len(buf), Limit: protocol.MaxReadWords * 4}
	}

	var params [6]byte
	binary.BigEndian.PutUint32(params[:4], address)
	params[4] = 1 // access type: 32-bit
	params[5] = byte(len(buf) / 4)

	if err := d.sendCommand("memory read", protocol.CmdMemoryRead, params[:]); err != nil {
		return err
	}

	resp, err := d.readResponse(len(buf))
	if err != nil {
		return err
	}
	copy(buf, resp)
	return nil
}

// MemoryRead32 reads a single 32-bit word at address. The target is
// little-endian, so the raw bytes are decoded accordingly.
func (d *Device) MemoryRead32(address uint32) (uint32, error) {
	var buf [4]byte
	if err := d.ReadMemory32(address, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// MemoryWrite32 writes a single 32-bit word at address using a 32-bit
// access.
func (d *Device) MemoryWrite32(address, value uint32) error {
	if address&0x03 != 0 {
		return &AddressError{Address: address, Reason: "not aligned to 4 bytes"}
	}

	var params [9]byte
	binary.BigEndian.PutUint32(params[:4], address)
	params[4] = 1 // access type: 32-bit
	binary.BigEndian.PutUint32(params[5:], value)

	if err := d.sendCommand("memory write", protocol.CmdMemoryWrite, params[:]); err != nil {
		return err
	}
	return d.pollStatus("memory write")
}

// CRC32 asks the bootloader to compute a CRC-32 over size bytes of
// memory starting at address, for read-back verification of a flashed
// image.
func (d *Device) CRC32(address, size uint32) (uint32, error) {
	if err := d.validateWindow(address, size); err != nil {
		return 0, err
	}

	// CC26xx bootloaders take a third word (read repeat count).
	params := make([]byte, 8, 12)
	binary.BigEndian.PutUint32(params[:4], address)
	binary.BigEndian.PutUint32(params[4:8], size)
	if d.family != CC2538 {
		params = append(params, 0, 0, 0, 0)
	}

	if err := d.sendCommand("crc32", protocol.CmdCRC32, params); err != nil {
		return 0, err
	}

	resp, err := d.readResponse(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(resp), nil
}

// Run jumps to the given address. CC2538 only. The bootloader stops
// answering once it has jumped, so there is no status to poll.
func (d *Device) Run(address uint32) error {
	if !d.family.SupportsRun() {
		return &UnsupportedError{Op: "run", Family: d.family}
	}

	var params [4]byte
	binary.BigEndian.PutUint32(params[:], address)
	return d.sendCommand("run", protocol.CmdRun, params[:])
}

// Reset performs a system reset on the target. A new Sync is required to
// talk to the bootloader again afterwards.
func (d *Device) Reset() error {
	return d.sendCommand("reset", protocol.CmdReset, nil)
}
