package port_reader

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/jacobsa/go-serial/serial"
)

type P1Reader struct {
	options    serial.OpenOptions
	serialPort io.ReadWriteCloser
	stopSignal atomic.Bool
	stopOnce   sync.Once
	closeOnce  sync.Once
	done       chan struct{}

	// Raw chunks as they come off the line, in order
	chunks chan []byte
	errs   chan error

	openPort func(serial.OpenOptions) (io.ReadWriteCloser, error)
}

// Line settings for the P1 port.
type PortSettings struct {
	Device   string
	Baudrate uint
	DataBits uint
	// none, odd or even
	Parity string
}
