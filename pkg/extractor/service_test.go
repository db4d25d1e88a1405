package extractor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/reference"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const kaifaTelegram = "/KFM5KAIFA-METER\r\n" +
	"\r\n" +
	"0-0:96.1.1(4530303034303031353934373534343134)\r\n" +
	"1-0:1.8.1(00123.456*kWh)\r\n" +
	"1-0:1.8.2(00234.567*kWh)\r\n" +
	"1-0:2.8.1(00000.000*kWh)\r\n" +
	"1-0:2.8.2(00000.000*kWh)\r\n" +
	"0-0:96.14.0(0002)\r\n" +
	"1-0:1.7.0(0001.19*kW)\r\n" +
	"1-0:2.7.0(0000.00*kW)\r\n" +
	"0-0:17.0.0(999*A)\r\n" +
	"0-0:96.3.10(1)\r\n" +
	"0-0:96.13.1()\r\n" +
	"0-0:96.13.0()\r\n" +
	"0-2:24.1.0(3)\r\n" +
	"0-2:96.1.0(3238303131303031323332313337343132)\r\n" +
	"0-2:24.3.0(161201120000)(00)(60)(1)(0-2:24.2.1)(m3)\r\n" +
	"(00123.456)\r\n" +
	"0-2:24.4.0(1)\r\n" +
	"!\r\n"

func newTestExtractor() (*Extractor, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewExtractor(logger), hook
}

func TestExtractFullTelegram(t *testing.T) {
	e, hook := newTestExtractor()

	fields := e.Extract([]byte(kaifaTelegram), reference.DefaultTable("sm1"))

	want := []Field{
		{Topic: "sm1/header", Value: "KFM5KAIFA-METER"},
		{Topic: "power/cumulative-usage-1", Value: "00123.456", Unit: "kWh"},
		{Topic: "power/cumulative-usage-2", Value: "00234.567", Unit: "kWh"},
		{Topic: "power/tariff", Value: "0002"},
		{Topic: "power/actual-usage", Value: "0001.19", Unit: "kW"},
		{Topic: "gas/cumulative-usage", Value: "00123.456", Timestamp: "161201120000"},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, hook.AllEntries())
}

func TestExtractPowerCumulative(t *testing.T) {
	e, _ := newTestExtractor()
	table, err := reference.NewTable(reference.Pattern{
		ReferenceID: "1-0:1.8.1", Topic: "power/cumulative-usage-1", Format: reference.PowerCumulative,
	})
	require.NoError(t, err)

	fields := e.Extract([]byte("/X\n1-0:1.8.1(00123.456*kWh)\n!\n"), table)

	require.Len(t, fields, 1)
	assert.Equal(t, "00123.456", fields[0].Value)
	assert.Equal(t, "kWh", fields[0].Unit)
	assert.False(t, fields[0].HasTimestamp())
}

func TestExtractValueOnNextLine(t *testing.T) {
	e, _ := newTestExtractor()
	telegram := "/X\n0-2:24.3.0(161201120000)(00123.456)\n(00123.456)\n!\n"

	fields := e.Extract([]byte(telegram), reference.DefaultTable("sm1"))

	want := []Field{
		{Topic: "sm1/header", Value: "X"},
		{Topic: "gas/cumulative-usage", Value: "00123.456", Timestamp: "161201120000"},
	}
	assert.Equal(t, want, fields)
}

func TestExtractMissingReferenceIsSkipped(t *testing.T) {
	e, hook := newTestExtractor()
	withoutTariff := "/KFM5KAIFA-METER\r\n\r\n" +
		"1-0:1.8.1(00123.456*kWh)\r\n" +
		"1-0:1.7.0(0001.19*kW)\r\n" +
		"!\r\n"

	fields := e.Extract([]byte(withoutTariff), reference.DefaultTable("sm1"))

	topics := make([]string, 0, len(fields))
	for _, f := range fields {
		topics = append(topics, f.Topic)
	}
	assert.Equal(t, []string{"sm1/header", "power/cumulative-usage-1", "power/actual-usage"}, topics)
	assert.Empty(t, hook.AllEntries())
}

func TestExtractIsIdempotent(t *testing.T) {
	e, _ := newTestExtractor()
	telegram := []byte(kaifaTelegram)
	table := reference.DefaultTable("sm1")

	first := e.Extract(telegram, table)
	second := e.Extract(telegram, table)

	assert.True(t, cmp.Equal(first, second))
	assert.Equal(t, kaifaTelegram, string(telegram))
}

func TestExtractMalformedFieldsAreDropped(t *testing.T) {
	e, hook := newTestExtractor()
	telegram := "/X\n" +
		// value far wider than any meter sends
		"1-0:1.8.1(0000000000000000000123.456*kWh)\n" +
		// no closing parenthesis
		"1-0:1.8.2(00234.567*kWh\n" +
		// empty group
		"0-0:96.14.0()\n" +
		"1-0:1.7.0(0001.19*kW)\n" +
		// value line missing
		"0-2:24.3.0(161201120000)\n"

	fields := e.Extract([]byte(telegram), reference.DefaultTable("sm1"))

	assert.Equal(t, []Field{
		{Topic: "sm1/header", Value: "X"},
		{Topic: "power/actual-usage", Value: "0001.19", Unit: "kW"},
	}, fields)
	// Malformed fields are debug noise only.
	assert.Empty(t, hook.AllEntries())
}

func TestExtractUnknownFormatKindIsReported(t *testing.T) {
	e, hook := newTestExtractor()
	table, err := reference.NewTable(
		reference.Pattern{ReferenceID: "1-0:1.8.1", Topic: "bogus", Format: reference.FormatKind(99)},
		reference.Pattern{ReferenceID: "1-0:1.7.0", Topic: "power/actual-usage", Format: reference.PowerActual},
	)
	require.NoError(t, err)

	fields := e.Extract([]byte("/X\n1-0:1.8.1(00123.456*kWh)\n1-0:1.7.0(0001.19*kW)\n!\n"), table)

	assert.Equal(t, []Field{{Topic: "power/actual-usage", Value: "0001.19", Unit: "kW"}}, fields)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "1-0:1.8.1", hook.LastEntry().Data["reference"])
}

func TestExtractSingleLineGas(t *testing.T) {
	e, _ := newTestExtractor()
	table, err := reference.NewTable(reference.Pattern{
		ReferenceID: "0-1:24.2.1", Topic: "gas/cumulative-usage", Format: reference.GasCumulative,
	})
	require.NoError(t, err)

	fields := e.Extract([]byte("/X\r\n0-1:24.2.1(101209112500W)(12785.123*m3)\r\n!\r\n"), table)

	assert.Equal(t, []Field{{
		Topic:     "gas/cumulative-usage",
		Value:     "12785.123",
		Unit:      "m3",
		Timestamp: "101209112500W",
	}}, fields)
}

func TestExtractHeaderStopsAtWhitespace(t *testing.T) {
	e, _ := newTestExtractor()
	table, err := reference.NewTable(reference.Pattern{ReferenceID: "/", Topic: "sm1/header", Format: reference.Header})
	require.NoError(t, err)

	fields := e.Extract([]byte("/ISk5\\2MT382-1000\r\n!\r\n"), table)

	assert.Equal(t, []Field{{Topic: "sm1/header", Value: "ISk5\\2MT382-1000"}}, fields)
}

func TestValidateCRC(t *testing.T) {
	body := "/ISK5\\2M550T-1012\r\n\r\n1-0:1.8.1(000123.456*kWh)\r\n!"

	assert.True(t, ValidateCRC([]byte(body+"22BE\r\n")))
	assert.True(t, ValidateCRC([]byte(body+"22be\r\n")))
	assert.False(t, ValidateCRC([]byte(body+"0000\r\n")))
	assert.False(t, ValidateCRC([]byte(body+"\r\n")))
	assert.False(t, ValidateCRC([]byte("/X\r\n")))
}
