package echo

import (
	"time"

	"github.com/robotalks/echoback/pkg/store"
)

// Defaults match the reference device build.
const (
	DefaultTickInterval = time.Second
	DefaultTimeout      = 1000 * time.Millisecond
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultPoll         = 50 * time.Millisecond

	// DefaultTerminator bounds the playback scan after the last data byte.
	DefaultTerminator byte = 0x00
)

// Config holds the engine thresholds. The zero value selects the
// reference build constants.
type Config struct {
	// Capacity is the buffer size in bytes.
	Capacity int
	// TickInterval drives the rate monitor and elapsed-time accounting.
	TickInterval time.Duration
	// Timeout is the quiet period ending a session.
	Timeout time.Duration
	// SettleDelay is the pause between timeout detection and playback.
	SettleDelay time.Duration
	// Poll is how often the session machine re-checks the timeout when
	// no other event wakes the loop.
	Poll time.Duration
	// Terminator is the marker written after the last received byte.
	Terminator byte
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = store.DefaultCapacity
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.Poll <= 0 {
		c.Poll = DefaultPoll
	}
	// Terminator: the zero value is already the reference marker.
	return c
}
