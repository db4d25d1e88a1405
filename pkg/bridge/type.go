package bridge

import (
	"time"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/command"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/extractor"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/metrics"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/output"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/receiver"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/reference"
)

// Source produces raw serial chunks. A value on Errors is fatal.
type Source interface {
	Chunks() <-chan []byte
	Errors() <-chan error
}

type Clock interface {
	Now() time.Time
}

// TelegramHook observes every processed telegram.
type TelegramHook func(datagrams uint64, at time.Time, fields []extractor.Field)

type Options struct {
	Device         string
	BufferCapacity int
	ValidateCRC    bool
	Table          reference.Table
	Flags          command.Flags
	OnTelegram     TelegramHook
}

type inboundMessage struct {
	topic   string
	payload []byte
}

// Bridge owns the receive loop. Everything except enqueue runs on the
// goroutine that calls Run.
type Bridge struct {
	receiver    *receiver.Receiver
	extractor   *extractor.Extractor
	table       reference.Table
	stage       *output.Stage
	commands    *command.Handler
	flags       command.Flags
	clock       Clock
	metrics     *metrics.Metrics
	validateCRC bool
	onTelegram  TelegramHook

	// Commands from the bus, applied between telegrams
	inbound chan inboundMessage
}
