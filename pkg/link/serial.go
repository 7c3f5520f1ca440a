package link

import (
	"github.com/golang/glog"
	"github.com/tarm/serial"
)

// DefaultBaud is the bit rate of the reference build: 2400, 8 data bits,
// no parity, 1 stop bit.
const DefaultBaud = 2400

// Open opens a hardware serial port as a Pipe.
func Open(device string, baud int) (*Pipe, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	// Blocking reads: the receive pump owns its goroutine and stops on
	// port close.
	port, err := serial.OpenPort(&serial.Config{
		Name:     device,
		Baud:     baud,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	})
	if err != nil {
		return nil, err
	}
	glog.Infof("opened %s at %d baud", device, baud)
	return NewPipe(port), nil
}
