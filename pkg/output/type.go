package output

import "github.com/NotCoffee418/smartmeter_mqtt/pkg/metrics"

// Publisher delivers one named value to the message bus.
type Publisher interface {
	Publish(topic string, payload string) error
}

// Sink receives full raw telegrams. Raw telegrams never go to the bus.
type Sink interface {
	RawTelegram(raw []byte)
}

const (
	unitSuffix      = "/unit"
	timestampSuffix = "/timestamp"

	// Local time published once per telegram
	timeLayout = "20060102 150405"
)

// Stage decides what gets published for every extracted field.
type Stage struct {
	publisher Publisher
	sink      Sink
	device    string
	metrics   *metrics.Metrics
}
