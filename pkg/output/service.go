package output

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/command"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/extractor"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/metrics"
	log "github.com/sirupsen/logrus"
)

// metrics may be nil.
func NewStage(publisher Publisher, sink Sink, device string, m *metrics.Metrics) *Stage {
	return &Stage{
		publisher: publisher,
		sink:      sink,
		device:    device,
		metrics:   m,
	}
}

// Emit publishes a field's value, its unit when enabled and its timestamp
// whenever it has one. A failed publish does not stop the others.
func (s *Stage) Emit(field extractor.Field, flags command.Flags) error {
	var errs []error

	errs = append(errs, s.publish(field.Topic, field.Value))
	if flags.EmitUnits && field.HasUnit() {
		errs = append(errs, s.publish(field.Topic+unitSuffix, field.Unit))
	}
	if field.HasTimestamp() {
		errs = append(errs, s.publish(field.Topic+timestampSuffix, field.Timestamp))
	}
	return errors.Join(errs...)
}

// EmitTelegram publishes the per-telegram topics once a telegram completed.
func (s *Stage) EmitTelegram(datagrams uint64, now time.Time, raw []byte, flags command.Flags) error {
	var errs []error

	errs = append(errs, s.publish(s.device+timestampSuffix, now.Format(timeLayout)))
	if flags.EmitDatagramCount {
		errs = append(errs, s.publish(s.device+"/datagrams", strconv.FormatUint(datagrams, 10)))
	}
	if flags.EmitRawTelegram && s.sink != nil {
		s.sink.RawTelegram(raw)
	}
	return errors.Join(errs...)
}

func (s *Stage) publish(topic, payload string) error {
	if err := s.publisher.Publish(topic, payload); err != nil {
		s.metrics.PublishFailed()
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	s.metrics.Published()
	return nil
}

// ConsoleSink writes raw telegrams to the log.
type ConsoleSink struct{}

func (ConsoleSink) RawTelegram(raw []byte) {
	log.WithField("bytes", len(raw)).Info("P1 telegram:\n" + string(raw))
}

// MultiSink fans a raw telegram out to several sinks.
type MultiSink []Sink

func (m MultiSink) RawTelegram(raw []byte) {
	for _, sink := range m {
		sink.RawTelegram(raw)
	}
}
