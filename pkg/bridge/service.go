package bridge

import (
	"context"
	"errors"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/bus"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/command"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/extractor"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/metrics"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/output"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/receiver"
	log "github.com/sirupsen/logrus"
)

const inboundQueueSize = 16

var ErrSourceClosed = errors.New("serial source closed")

func New(opts Options, stage *output.Stage, clock Clock, m *metrics.Metrics) *Bridge {
	return &Bridge{
		receiver:    receiver.NewReceiver(opts.BufferCapacity),
		extractor:   extractor.NewExtractor(log.StandardLogger()),
		table:       opts.Table,
		stage:       stage,
		commands:    command.NewHandler(opts.Device),
		flags:       opts.Flags,
		clock:       clock,
		metrics:     m,
		validateCRC: opts.ValidateCRC,
		onTelegram:  opts.OnTelegram,
		inbound:     make(chan inboundMessage, inboundQueueSize),
	}
}

// Subscribe to the command topics on client.
func (b *Bridge) Subscribe(client bus.Client) error {
	return client.Subscribe(b.commands.Topics(), b.enqueue)
}

// Run until ctx ends or the source fails.
func (b *Bridge) Run(ctx context.Context, src Source) error {
	for {
		if err := b.step(ctx, src); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// step waits for one event. While a telegram is being received only serial
// data is taken; bus commands wait for the next idle moment.
func (b *Bridge) step(ctx context.Context, src Source) error {
	if b.receiver.InTelegram() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-src.Errors():
			return err
		case chunk, ok := <-src.Chunks():
			return b.chunk(chunk, ok, src)
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-src.Errors():
		return err
	case chunk, ok := <-src.Chunks():
		return b.chunk(chunk, ok, src)
	case msg := <-b.inbound:
		if b.commands.Apply(&b.flags, msg.topic, msg.payload) {
			b.metrics.CommandApplied()
		}
		return nil
	}
}

func (b *Bridge) chunk(chunk []byte, ok bool, src Source) error {
	if !ok {
		// The source reports its error before closing.
		select {
		case err := <-src.Errors():
			return err
		default:
			return ErrSourceClosed
		}
	}
	b.Feed(chunk)
	return nil
}

// Feed serial bytes into the receiver one at a time, processing every
// telegram as soon as it completes.
func (b *Bridge) Feed(chunk []byte) {
	for _, c := range chunk {
		switch b.receiver.Feed(c) {
		case receiver.Complete:
			b.processTelegram()
		case receiver.Overflow:
			b.metrics.Overflow()
			log.WithField("capacity", b.receiver.Capacity()).Warn("Telegram exceeded buffer, discarded")
		}
	}
}

func (b *Bridge) processTelegram() {
	defer b.receiver.Reset()

	raw := b.receiver.Telegram()
	datagrams := b.receiver.Datagrams()
	b.metrics.TelegramCompleted()

	if b.validateCRC && !extractor.ValidateCRC(raw) {
		b.metrics.CRCFailed()
		log.Warn("Invalid CRC, skipping telegram")
		return
	}

	flags := b.flags
	fields := b.extractor.Extract(raw, b.table)
	b.metrics.FieldsExtracted(len(fields))

	for _, field := range fields {
		if err := b.stage.Emit(field, flags); err != nil {
			log.WithError(err).Warn("Publishing field failed")
		}
	}

	now := b.clock.Now()
	if err := b.stage.EmitTelegram(datagrams, now, raw, flags); err != nil {
		log.WithError(err).Warn("Publishing telegram topics failed")
	}

	if b.onTelegram != nil {
		b.onTelegram(datagrams, now, fields)
	}
	log.WithFields(log.Fields{
		"datagrams": datagrams,
		"fields":    len(fields),
	}).Debug("Telegram processed")
}

// enqueue runs on the bus client's goroutine.
func (b *Bridge) enqueue(topic string, payload []byte) {
	msg := inboundMessage{topic: topic, payload: append([]byte(nil), payload...)}
	select {
	case b.inbound <- msg:
	default:
		log.WithField("topic", topic).Warn("Command queue full, dropping command")
	}
}
