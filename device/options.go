package device

import (
	"time"

	"github.com/loopholelabs/logging/types"
)

// Config holds the Device configuration. Timeouts are per-operation and
// are host-side policy; they are never negotiated with the device.
type Config struct {
	// AckTimeout bounds the wait for an ACK/NACK after a packet and for
	// each response read.
	AckTimeout time.Duration

	// SyncTimeout bounds the whole autobaud handshake.
	SyncTimeout time.Duration

	// Retries is how many times a NACKed packet is retransmitted before
	// the link is declared dead. Retransmissions are immediate; the
	// bootloader has no clock pressure of its own.
	Retries int

	// Logger receives wire-level tracing. Optional.
	Logger types.Logger
}

func defaultConfig() Config {
	return Config{
		AckTimeout:  1 * time.Second,
		SyncTimeout: 3 * time.Second,
		Retries:     3,
	}
}

// Option configures a Device.
type Option func(*Config)

// WithAckTimeout sets the ACK/response wait timeout.
func WithAckTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.AckTimeout = d
		}
	}
}

// WithSyncTimeout sets the autobaud handshake timeout.
func WithSyncTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.SyncTimeout = d
		}
	}
}

// WithRetries sets the NACK retransmission budget.
func WithRetries(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.Retries = n
		}
	}
}

// WithLogger attaches a logger for wire-level tracing.
func WithLogger(log types.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}
