// Package liveapi serves the bridge's local HTTP surface: status, the latest
// extracted fields, a websocket stream of raw telegrams and Prometheus metrics.
package liveapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/metrics"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeTimeout = time.Second

func NewServer(listenAddress string, m *metrics.Metrics) *Server {
	s := &Server{
		metrics:   m,
		wsClients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Local diagnostics only
			},
		},
	}
	s.httpServer = &http.Server{Addr: listenAddress, Handler: s.Handler()}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Smart Meter MQTT Bridge",
			"status":  "running",
		})
	})

	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		s.latestMutex.RLock()
		latest := s.latest
		s.latestMutex.RUnlock()

		if latest == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "No telegrams received yet",
			})
			return
		}
		writeJSON(w, http.StatusOK, latest)
	})

	mux.HandleFunc("/ws", s.handleWebSocket)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Start serving in the background.
func (s *Server) Start() {
	go func() {
		log.Infof("Starting live API on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Live API stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.wsClientsMutex.Lock()
	for conn := range s.wsClients {
		conn.Close()
		delete(s.wsClients, conn)
	}
	s.wsClientsMutex.Unlock()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) SetLatest(snapshot Snapshot) {
	s.latestMutex.Lock()
	s.latest = &snapshot
	s.latestMutex.Unlock()
}

// RawTelegram streams a raw telegram to every websocket client.
func (s *Server) RawTelegram(raw []byte) {
	s.wsClientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for client := range s.wsClients {
		clients = append(clients, client)
	}
	s.wsClientsMutex.RUnlock()

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	for _, client := range clients {
		client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.WriteMessage(websocket.TextMessage, raw); err != nil {
			s.removeWebSocketClient(client)
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	s.wsClientsMutex.Lock()
	s.wsClients[conn] = true
	s.wsClientsMutex.Unlock()

	// Keep connection alive until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.removeWebSocketClient(conn)
			return
		}
	}
}

func (s *Server) removeWebSocketClient(conn *websocket.Conn) {
	s.wsClientsMutex.Lock()
	delete(s.wsClients, conn)
	s.wsClientsMutex.Unlock()
	conn.Close()
}

func (s *Server) clientCount() int {
	s.wsClientsMutex.RLock()
	defer s.wsClientsMutex.RUnlock()
	return len(s.wsClients)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
