package liveapi

import (
	"net/http"
	"sync"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/extractor"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/metrics"
	"github.com/gorilla/websocket"
)

// Snapshot is the most recent telegram as served on /latest.
type Snapshot struct {
	Received  string            `json:"received"`
	Datagrams uint64            `json:"datagrams"`
	Fields    []extractor.Field `json:"fields"`
}

type Server struct {
	httpServer *http.Server
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader

	// ws clients for streaming raw telegrams
	wsClients      map[*websocket.Conn]bool
	wsClientsMutex sync.RWMutex
	writeMutex     sync.Mutex

	latest      *Snapshot
	latestMutex sync.RWMutex
}
