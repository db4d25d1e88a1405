package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortDelays(t *testing.T) {
	base, max := baseRetryDelay, maxRetryDelay
	baseRetryDelay, maxRetryDelay = time.Millisecond, 4*time.Millisecond
	t.Cleanup(func() { baseRetryDelay, maxRetryDelay = base, max })
}

func TestConnectWithRetrySucceedsEventually(t *testing.T) {
	shortDelays(t)
	calls := 0

	err := connectWithRetry(context.Background(), "test", 5, func() error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestConnectWithRetryGivesUp(t *testing.T) {
	shortDelays(t)
	refused := errors.New("refused")
	calls := 0

	err := connectWithRetry(context.Background(), "test", 4, func() error {
		calls++
		return refused
	})

	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.ErrorIs(t, err, refused)
}

func TestConnectWithRetryStopsOnCancel(t *testing.T) {
	shortDelays(t)
	baseRetryDelay, maxRetryDelay = time.Hour, time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := connectWithRetry(ctx, "test", 10, func() error {
		calls++
		return errors.New("refused")
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnectRejectsUnknownKind(t *testing.T) {
	_, err := Connect(context.Background(), Options{Kind: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestSubjectMapping(t *testing.T) {
	assert.Equal(t, "power.cumulative-usage-1.unit", topicToSubject("power/cumulative-usage-1/unit"))
	assert.Equal(t, "sm1/set/units", subjectToTopic("sm1.set.units"))
}
