// Package echo implements the control core of the echo-back device:
// the receive path, the per-tick rate monitor, the quiet-timeout session
// machine and the playback/reset cycle.
//
// The original firmware runs the receive path and the tick in interrupt
// handlers that never nest. The engine keeps that discipline by serializing
// both on a single event goroutine selecting over the receive channel and a
// ticker. Counters that other goroutines may observe are copied out under a
// guard mutex (see Snapshot), the equivalent of the firmware's
// interrupt-disabled critical section.
//
// Known limitations carried over from the reference design: playback stops
// at the first terminator or sentinel value, so binary payloads containing
// 0x00 or 0xff echo short; a permanently blocked transmit hangs the flush
// with no watchdog.
package echo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/echoback/pkg/link"
	"github.com/robotalks/echoback/pkg/store"
)

// ReadyBanner is sent once after startup, when storage is cleared.
const ReadyBanner = "Ready to receive\n"

// Engine drives one echo-back session loop over a serial channel.
type Engine struct {
	// Channel is the transmit side of the link.
	Channel link.Channel
	// Recv delivers received bytes one at a time.
	Recv <-chan byte
	// Monitor, when set, receives engine events.
	Monitor Monitor

	cfg   Config
	store *store.Store

	// guard protects the shared counters below against Snapshot readers.
	// Within the event goroutine, handlers never overlap.
	guard        sync.Mutex
	state        State
	cursor       int
	byteCount    uint32
	elapsed      time.Duration
	lastActivity time.Duration
	receiving    bool
	everReceived bool
	sessions     uint64
}

// New creates an Engine over the given channel and receive stream.
func New(cfg Config, ch link.Channel, recv <-chan byte) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		Channel: ch,
		Recv:    recv,
		cfg:     cfg,
		store:   store.New(cfg.Capacity),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Snapshot copies the shared state under the guard.
func (e *Engine) Snapshot() Snapshot {
	e.guard.Lock()
	defer e.guard.Unlock()
	return Snapshot{
		State:        e.state,
		Cursor:       e.cursor,
		ByteCount:    e.byteCount,
		Elapsed:      e.elapsed,
		LastActivity: e.lastActivity,
		Receiving:    e.receiving,
		EverReceived: e.everReceived,
		Dropped:      e.store.Dropped(),
		Sessions:     e.sessions,
	}
}

// Run executes the session loop until the context is cancelled or the
// channel fails.
func (e *Engine) Run(ctx context.Context) error {
	e.guard.Lock()
	e.store.Clear()
	e.resetLocked()
	e.guard.Unlock()

	if err := e.Channel.SendString(ReadyBanner); err != nil {
		return err
	}
	glog.Info("ready to receive")
	if e.Monitor != nil {
		e.Monitor.OnReady()
	}

	tick := time.NewTicker(e.cfg.TickInterval)
	defer tick.Stop()
	poll := time.NewTicker(e.cfg.Poll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-e.Recv:
			if !ok {
				return nil
			}
			e.handleByte(b)
		case <-tick.C:
			if bps, report := e.handleTick(); report {
				// The send runs here in loop context, not inside the
				// tick accounting, so a slow transmit cannot stall
				// byte bookkeeping (arrivals queue in Recv meanwhile).
				if err := e.Channel.SendString(fmt.Sprintf("Speed: %d bps\n", bps)); err != nil {
					return err
				}
				glog.V(1).Infof("speed report: %d bps", bps)
				if e.Monitor != nil {
					e.Monitor.OnReport(bps)
				}
			}
		case <-poll.C:
			// wake only; the timeout check below runs on every event
		}

		if e.timedOut() {
			if err := e.flush(ctx); err != nil {
				return err
			}
		}
	}
}

// handleByte is the receive path, mirroring the RX interrupt handler:
// append, count, mark activity. Side effect order matters.
func (e *Engine) handleByte(b byte) {
	e.guard.Lock()
	defer e.guard.Unlock()
	e.store.Write(e.cursor, b)
	if e.cursor < e.store.Capacity() {
		e.cursor++
	}
	e.byteCount++
	e.receiving = true
	e.everReceived = true
	e.lastActivity = e.elapsed
	if e.state == StateIdle {
		e.state = StateActive
		glog.V(1).Info("session active")
	}
}

// handleTick advances elapsed time and, while receiving, computes one
// speed report and rewinds the interval counters.
func (e *Engine) handleTick() (bps uint64, report bool) {
	e.guard.Lock()
	defer e.guard.Unlock()
	e.elapsed += e.cfg.TickInterval
	if !e.receiving {
		return 0, false
	}
	bps = uint64(e.byteCount) * 8
	e.byteCount = 0
	// Both clocks rewind together so the quiet-period subtraction below
	// never sees a last-activity mark ahead of elapsed time.
	e.elapsed = 0
	e.lastActivity = 0
	e.receiving = false
	return bps, true
}

func (e *Engine) timedOut() bool {
	e.guard.Lock()
	defer e.guard.Unlock()
	return e.everReceived && !e.receiving && e.elapsed-e.lastActivity > e.cfg.Timeout
}

// flush runs the playback/reset cycle: settle, terminate, scan out, clear.
func (e *Engine) flush(ctx context.Context) error {
	e.guard.Lock()
	e.state = StateFlushing
	e.guard.Unlock()

	// The settle delay keeps draining the receive path, as the firmware's
	// interrupts stay enabled during its pre-playback wait.
	settle := time.NewTimer(e.cfg.SettleDelay)
	defer settle.Stop()
settling:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-e.Recv:
			if !ok {
				break settling
			}
			e.handleByte(b)
		case <-settle.C:
			break settling
		}
	}

	e.guard.Lock()
	dropped := e.store.Dropped()
	// Terminator write obeys the same bounds policy as data: at full
	// capacity it is dropped and the scan ends on the sentinel instead.
	e.store.Write(e.cursor, e.cfg.Terminator)
	payload := make([]byte, 0, e.cursor)
	for i := 0; i < e.store.Capacity(); i++ {
		b := e.store.Read(i)
		if b == e.cfg.Terminator || b == store.Sentinel {
			break
		}
		payload = append(payload, b)
	}
	e.guard.Unlock()

	for _, b := range payload {
		if err := e.Channel.SendByte(b); err != nil {
			return err
		}
	}

	e.guard.Lock()
	e.store.Clear()
	e.resetLocked()
	e.sessions++
	sessions := e.sessions
	e.guard.Unlock()

	glog.Infof("session %d flushed: %d bytes echoed, %d dropped", sessions, len(payload), dropped)
	if e.Monitor != nil {
		e.Monitor.OnFlush(len(payload), dropped)
	}
	return nil
}

// resetLocked zeroes all session state. Callers hold the guard.
func (e *Engine) resetLocked() {
	e.state = StateIdle
	e.cursor = 0
	e.byteCount = 0
	e.elapsed = 0
	e.lastActivity = 0
	e.receiving = false
	e.everReceived = false
}
