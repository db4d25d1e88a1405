package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.TelegramCompleted()
	m.TelegramCompleted()
	m.FieldsExtracted(6)
	m.Overflow()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.telegrams))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.fields))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.overflows))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.publishErrors))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TelegramCompleted()
		m.Published()
		m.PublishFailed()
		m.CommandApplied()
		m.CRCFailed()
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Published()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "p1bridge_publishes_total 1")
}
