package echo

import "time"

// State is the session state of the device.
type State int

const (
	// StateIdle means no data received since the last flush.
	StateIdle State = iota
	// StateActive means at least one byte arrived and the engine is
	// waiting for the quiet period.
	StateActive
	// StateFlushing means the quiet timeout fired and playback is in
	// progress.
	StateFlushing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFlushing:
		return "flushing"
	}
	return "unknown"
}

// Snapshot is a consistent copy of the shared counters, taken under the
// engine guard. It is what telemetry and status displays read.
type Snapshot struct {
	State        State
	Cursor       int
	ByteCount    uint32
	Elapsed      time.Duration
	LastActivity time.Duration
	Receiving    bool
	EverReceived bool
	Dropped      uint64
	Sessions     uint64
}

// Monitor receives engine events. All callbacks run on the engine
// goroutine and must not block.
type Monitor interface {
	// OnReady fires once after startup, when storage is cleared and the
	// ready banner has been sent.
	OnReady()
	// OnReport fires for each speed report emitted on the link.
	OnReport(bps uint64)
	// OnFlush fires after playback, with the echoed byte count and the
	// bytes lost to truncation during the session.
	OnFlush(echoed int, dropped uint64)
}
