// Package metrics exposes bridge counters for Prometheus.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "p1bridge"

type Metrics struct {
	registry *prometheus.Registry

	telegrams     prometheus.Counter
	overflows     prometheus.Counter
	crcFailures   prometheus.Counter
	fields        prometheus.Counter
	published     prometheus.Counter
	publishErrors prometheus.Counter
	commands      prometheus.Counter
}

func New() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		registry:      prometheus.NewPedanticRegistry(),
		telegrams:     counter("telegrams_total", "Telegrams received completely"),
		overflows:     counter("overflows_total", "Telegrams discarded because they exceeded the buffer"),
		crcFailures:   counter("crc_failures_total", "Telegrams rejected by the CRC check"),
		fields:        counter("fields_extracted_total", "Fields extracted from telegrams"),
		published:     counter("publishes_total", "Messages published to the bus"),
		publishErrors: counter("publish_errors_total", "Messages that failed to publish"),
		commands:      counter("commands_total", "Configuration commands applied"),
	}
	m.registry.MustRegister(
		m.telegrams, m.overflows, m.crcFailures, m.fields,
		m.published, m.publishErrors, m.commands,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) TelegramCompleted() {
	if m != nil {
		m.telegrams.Inc()
	}
}

func (m *Metrics) Overflow() {
	if m != nil {
		m.overflows.Inc()
	}
}

func (m *Metrics) CRCFailed() {
	if m != nil {
		m.crcFailures.Inc()
	}
}

func (m *Metrics) FieldsExtracted(n int) {
	if m != nil {
		m.fields.Add(float64(n))
	}
}

func (m *Metrics) Published() {
	if m != nil {
		m.published.Inc()
	}
}

func (m *Metrics) PublishFailed() {
	if m != nil {
		m.publishErrors.Inc()
	}
}

func (m *Metrics) CommandApplied() {
	if m != nil {
		m.commands.Inc()
	}
}
