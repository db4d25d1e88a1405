package port_reader

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipePort struct {
	*io.PipeReader
}

func (pipePort) Write(b []byte) (int, error) { return len(b), nil }

type brokenPort struct{}

func (brokenPort) Read([]byte) (int, error)    { return 0, errors.New("device unplugged") }
func (brokenPort) Write(b []byte) (int, error) { return len(b), nil }
func (brokenPort) Close() error                { return nil }

func newTestReader(port io.ReadWriteCloser) *P1Reader {
	p := NewP1Reader(PortSettings{Device: "/dev/null", Baudrate: 9600, DataBits: 8})
	p.openPort = func(serial.OpenOptions) (io.ReadWriteCloser, error) { return port, nil }
	return p
}

func TestReaderDeliversChunksInOrder(t *testing.T) {
	pr, pw := io.Pipe()
	p := newTestReader(pipePort{pr})
	require.NoError(t, p.StartReading())
	defer p.StopReading()

	go func() {
		pw.Write([]byte("/KFM5"))
		pw.Write([]byte("KAIFA\r\n"))
	}()

	var got []byte
	timeout := time.After(2 * time.Second)
	for len(got) < len("/KFM5KAIFA\r\n") {
		select {
		case chunk := <-p.Chunks():
			got = append(got, chunk...)
		case <-timeout:
			t.Fatal("timed out waiting for serial data")
		}
	}
	assert.Equal(t, "/KFM5KAIFA\r\n", string(got))
}

func TestReaderReportsPersistentErrors(t *testing.T) {
	backoff := errorBackoff
	errorBackoff = 0
	defer func() { errorBackoff = backoff }()

	p := newTestReader(brokenPort{})
	require.NoError(t, p.StartReading())

	select {
	case err := <-p.Errors():
		assert.ErrorIs(t, err, ErrTooManyReads)
		assert.Contains(t, err.Error(), "device unplugged")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fatal read error")
	}

	_, open := <-p.Chunks()
	assert.False(t, open)
}

func TestStartReadingFailsWhenPortCannotOpen(t *testing.T) {
	p := NewP1Reader(PortSettings{Device: "/dev/does-not-exist"})
	p.openPort = func(serial.OpenOptions) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such device")
	}

	err := p.StartReading()
	assert.ErrorContains(t, err, "failed to open serial port")
}

func TestParityMode(t *testing.T) {
	assert.Equal(t, serial.PARITY_EVEN, parityMode("even"))
	assert.Equal(t, serial.PARITY_ODD, parityMode("odd"))
	assert.Equal(t, serial.PARITY_NONE, parityMode(""))
}
