// Package link provides the byte-level serial channel of the echo-back
// device: a blocking send primitive and an event-driven receive path.
package link

import (
	"context"
	"io"
)

// Channel is the transmit side of the serial link.
type Channel interface {
	// SendByte blocks until the underlying writer accepts the byte.
	// There is no timeout: a stuck channel blocks the caller.
	SendByte(b byte) error
	// SendString sends each byte of s in order with no buffering of its own.
	SendString(s string) error
}

// Pipe adapts an io.ReadWriter (serial port, TCP connection, test stream)
// into a Channel plus a pumped receive channel.
type Pipe struct {
	ReadWriter io.ReadWriter

	recvCh chan byte
}

// RecvBuffer is the depth of the receive channel. It decouples byte arrival
// from the engine loop the way the UART RX buffer decouples the ISR from
// the main program.
const RecvBuffer = 256

// NewPipe creates a Pipe over rw.
func NewPipe(rw io.ReadWriter) *Pipe {
	return &Pipe{
		ReadWriter: rw,
		recvCh:     make(chan byte, RecvBuffer),
	}
}

// SendByte implements Channel.
func (p *Pipe) SendByte(b byte) error {
	_, err := p.ReadWriter.Write([]byte{b})
	return err
}

// SendString implements Channel.
func (p *Pipe) SendString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := p.SendByte(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Recv returns the channel delivering received bytes one at a time.
func (p *Pipe) Recv() <-chan byte {
	return p.recvCh
}

// Run pumps bytes from the reader into the receive channel until the
// context is cancelled or the reader fails. io.EOF is a clean stop.
func (p *Pipe) Run(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := p.ReadWriter.Read(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if n == 0 {
			continue
		}
		select {
		case p.recvCh <- buf[0]:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
