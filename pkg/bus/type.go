package bus

import (
	"errors"
	"time"
)

const (
	KindMQTT = "mqtt"
	KindNATS = "nats"
)

var (
	ErrConnectFailed   = errors.New("bus connect failed")
	ErrNotConnected    = errors.New("bus not connected")
	ErrTimeout         = errors.New("bus operation timed out")
	ErrUnsupportedKind = errors.New("unsupported bus kind")
)

// MessageHandler is called for inbound messages, on the client's own goroutine.
type MessageHandler func(topic string, payload []byte)

// Client is the publish/subscribe session the bridge talks to.
// Keep-alive and reconnects are the client's business.
type Client interface {
	Publish(topic string, payload string) error
	Subscribe(topics []string, handler MessageHandler) error
	Close()
}

type Options struct {
	Kind     string
	URL      string
	ClientID string
	Username string
	Password string
	QoS      byte
	// Initial connection attempts before giving up
	ConnectRetries int
	Timeout        time.Duration
}
