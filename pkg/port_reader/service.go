package port_reader

import (
	"errors"
	"fmt"
	"time"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"
)

const (
	readChunkSize = 256
	maxErrors     = 10
)

var (
	ErrNotConnected = errors.New("serial port not connected")
	ErrTooManyReads = errors.New("too many consecutive read errors")
	errorBackoff    = time.Second
)

// Initialize a new P1Reader client.
func NewP1Reader(settings PortSettings) *P1Reader {
	return &P1Reader{
		options: serial.OpenOptions{
			PortName:        settings.Device,
			BaudRate:        settings.Baudrate,
			DataBits:        settings.DataBits,
			StopBits:        1,
			ParityMode:      parityMode(settings.Parity),
			MinimumReadSize: 1,
		},
		chunks:   make(chan []byte, 64),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
		openPort: serial.Open,
	}
}

// Open the port and start reading in a goroutine.
// Chunks arrive on Chunks(); a fatal error arrives on Errors().
func (p *P1Reader) StartReading() error {
	p.stopSignal.Store(false)
	if err := p.connect(); err != nil {
		return err
	}

	go p.readLoop()
	return nil
}

func (p *P1Reader) StopReading() {
	p.stopSignal.Store(true)
	p.stopOnce.Do(func() { close(p.done) })
	p.disconnect()
}

func (p *P1Reader) Chunks() <-chan []byte {
	return p.chunks
}

func (p *P1Reader) Errors() <-chan error {
	return p.errs
}

func (p *P1Reader) readLoop() {
	defer close(p.chunks)

	// Tolerance before we report error.
	consecutiveErrors := 0
	var lastError error

	for consecutiveErrors < maxErrors {
		buf := make([]byte, readChunkSize)
		n, err := p.serialPort.Read(buf)

		// Check for Stop command
		if p.stopSignal.Load() {
			return
		}

		if n > 0 {
			select {
			case p.chunks <- buf[:n]:
			case <-p.done:
				return
			}
			consecutiveErrors = 0
		}
		if err == nil {
			continue
		}

		consecutiveErrors++
		lastError = err
		log.Printf("Error reading P1 port (%d/%d): %v", consecutiveErrors, maxErrors, err)
		time.Sleep(errorBackoff)
	}

	log.Printf("Too many consecutive errors (%d), stopping reader: %v", maxErrors, lastError)
	p.errs <- errors.Join(ErrTooManyReads, lastError)
	p.disconnect()
}

// Open the connection to the P1 port.
func (p *P1Reader) connect() error {
	port, err := p.openPort(p.options)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	p.serialPort = port
	log.Printf("Connected to P1 port on %s", p.options.PortName)
	return nil
}

func (p *P1Reader) disconnect() {
	if p.serialPort == nil {
		return
	}
	p.closeOnce.Do(func() {
		p.serialPort.Close()
		log.Println("Disconnected from P1 port")
	})
}

func parityMode(parity string) serial.ParityMode {
	switch parity {
	case "odd":
		return serial.PARITY_ODD
	case "even":
		return serial.PARITY_EVEN
	}
	return serial.PARITY_NONE
}
