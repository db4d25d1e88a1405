package extractor

import (
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/reference"
	log "github.com/sirupsen/logrus"
)

// Field is one value read from a telegram, ready to be published.
type Field struct {
	Topic     string `json:"topic"`
	Value     string `json:"value"`
	Unit      string `json:"unit,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (f Field) HasUnit() bool {
	return f.Unit != ""
}

func (f Field) HasTimestamp() bool {
	return f.Timestamp != ""
}

// Widest value accepted per format. Meter firmware is not ours, anything
// wider is treated as malformed.
var valueWidth = map[reference.FormatKind]int{
	reference.Header:          32,
	reference.PowerCumulative: 12,
	reference.PowerActual:     8,
	reference.Tariff:          8,
	reference.GasCumulative:   12,
}

const (
	maxUnitLen      = 8
	maxTimestampLen = 13
)

type Extractor struct {
	logger log.FieldLogger
}
