package bootloader

import (
	"github.com/loopholelabs/logging/types"

	"github.com/meshtools/go-tisbl/protocol"
)

// Config holds the flasher configuration.
type Config struct {
	// Progress is called during flashing to report progress (optional).
	Progress ProgressCallback

	// Logger is used for logging operations (optional).
	Logger types.Logger

	// ChunkSize is the maximum data size per send-data command. Defaults
	// to the protocol maximum.
	ChunkSize int

	// Erase enables erasing the target range before writing.
	Erase bool

	// BankErase erases the whole flash bank instead of individual
	// sectors, where the family supports it.
	BankErase bool

	// OverwriteConfig allows writes and erases that touch the device
	// configuration area (CCFG).
	OverwriteConfig bool

	// Verify enables a CRC-32 read-back check after writing.
	Verify bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ChunkSize: protocol.MaxBytesPerTransfer,
	}
}

// Option is a functional option for configuring the Flasher.
type Option func(*Config)

// WithProgress sets a callback function to track flashing progress.
//
// Example:
//
//	fl := bootloader.New(dev,
//	    bootloader.WithProgress(func(p bootloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgress(callback ProgressCallback) Option {
	return func(c *Config) {
		c.Progress = callback
	}
}

// WithLogger sets a logger for flasher operations.
func WithLogger(logger types.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithChunkSize sets the maximum data size per send-data command. Values
// outside 1 to protocol.MaxBytesPerTransfer are ignored.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.MaxBytesPerTransfer {
			c.ChunkSize = size
		}
	}
}

// WithErase enables erasing the target range before writing.
func WithErase(enabled bool) Option {
	return func(c *Config) {
		c.Erase = enabled
	}
}

// WithBankErase selects a whole-bank erase instead of per-sector erases
// on families that support it.
func WithBankErase(enabled bool) Option {
	return func(c *Config) {
		c.BankErase = enabled
	}
}

// WithConfigOverwrite allows operations that touch the device
// configuration area (CCFG). Without it, any write or erase intersecting
// the CCFG fails with ProtectedRegionError before anything reaches the
// device.
func WithConfigOverwrite(enabled bool) Option {
	return func(c *Config) {
		c.OverwriteConfig = enabled
	}
}

// WithVerify enables a CRC-32 read-back check after writing.
func WithVerify(enabled bool) Option {
	return func(c *Config) {
		c.Verify = enabled
	}
}
