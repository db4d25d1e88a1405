package monitor

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/liveapi"
)

func TestListenReceivesTelegrams(t *testing.T) {
	api := liveapi.NewServer("", nil)
	ts := httptest.NewServer(api.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan string, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		Listen(ctx, strings.TrimPrefix(ts.URL, "http://"), false, func(telegram string) {
			select {
			case received <- telegram:
			default:
			}
		})
	}()

	// Keep sending until the listener has connected and picked one up.
	var got string
	require.Eventually(t, func() bool {
		api.RawTelegram([]byte("/X\r\n!\r\n"))
		select {
		case got = <-received:
			return true
		case <-time.After(10 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "/X\r\n!\r\n", got)

	cancel()
	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}
