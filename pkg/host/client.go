// Package host is the PC side of the echo-back link: it streams a payload
// to the device, relays the speed reports the device prints during the
// transfer, and collects the echo using its own quiet-period detection.
package host

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/echoback/pkg/link"
)

// Defaults match the reference bench script.
const (
	// DefaultQuiet ends echo collection after this long without a byte.
	DefaultQuiet = 3 * time.Second
	// DefaultGrace is how long Stream keeps relaying device output after
	// the last payload byte, to catch the final speed report.
	DefaultGrace = time.Second

	pollInterval = 50 * time.Millisecond
)

// Result is one collected echo.
type Result struct {
	// Data is the raw echoed bytes.
	Data []byte
	// Elapsed spans first to last received byte.
	Elapsed time.Duration
	// BPS is the measured receive rate over Elapsed, 0 when Elapsed is 0.
	BPS float64
}

// Client talks to an echo-back device over a link.Pipe. The pipe's pump
// must be running.
type Client struct {
	Pipe *link.Pipe
	// Quiet ends Collect after this long without data (DefaultQuiet if 0).
	Quiet time.Duration
	// Grace extends Stream past the last payload byte (DefaultGrace if 0).
	Grace time.Duration
	// Report, when set, receives device output lines seen during Stream.
	Report func(line string)

	line []byte
}

// NewClient creates a Client over p.
func NewClient(p *link.Pipe) *Client {
	return &Client{Pipe: p}
}

// Stream writes payload to the device byte by byte, relaying any lines
// the device emits meanwhile, then drains for the grace period.
func (c *Client) Stream(ctx context.Context, payload []byte) error {
	glog.V(1).Infof("streaming %d bytes", len(payload))
	for i := 0; i < len(payload); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Pipe.SendByte(payload[i]); err != nil {
			return err
		}
		c.drainPending()
	}

	grace := time.NewTimer(c.grace())
	defer grace.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-c.Pipe.Recv():
			c.relay(b)
		case <-grace.C:
			return nil
		}
	}
}

// Collect reads the echo until the quiet period elapses after at least
// one byte arrived.
func (c *Client) Collect(ctx context.Context) (Result, error) {
	var res Result
	var started, last time.Time
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case b := <-c.Pipe.Recv():
			if len(res.Data) == 0 {
				started = time.Now()
			}
			res.Data = append(res.Data, b)
			last = time.Now()
		case <-poll.C:
			if len(res.Data) > 0 && time.Since(last) > c.quiet() {
				res.Elapsed = last.Sub(started)
				if res.Elapsed > 0 {
					res.BPS = float64(len(res.Data)*8) / res.Elapsed.Seconds()
				}
				glog.V(1).Infof("collected %d bytes in %v", len(res.Data), res.Elapsed)
				return res, nil
			}
		}
	}
}

func (c *Client) drainPending() {
	for {
		select {
		case b := <-c.Pipe.Recv():
			c.relay(b)
		default:
			return
		}
	}
}

func (c *Client) relay(b byte) {
	switch b {
	case '\n':
		if c.Report != nil && len(c.line) > 0 {
			c.Report(string(c.line))
		}
		c.line = c.line[:0]
	case '\r':
	default:
		c.line = append(c.line, b)
	}
}

func (c *Client) quiet() time.Duration {
	if c.Quiet > 0 {
		return c.Quiet
	}
	return DefaultQuiet
}

func (c *Client) grace() time.Duration {
	if c.Grace > 0 {
		return c.Grace
	}
	return DefaultGrace
}
