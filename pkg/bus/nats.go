package bus

import (
	"context"
	"strings"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// NATSClient maps slash separated topics onto dotted NATS subjects.
type NATSClient struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

func NewNATSClient(ctx context.Context, opts Options) (*NATSClient, error) {
	natsOpts := []nats.Option{
		nats.Name(opts.ClientID),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("[NATS] Disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("[NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
	}
	if opts.Username != "" {
		natsOpts = append(natsOpts, nats.UserInfo(opts.Username, opts.Password))
	}
	if opts.Timeout > 0 {
		natsOpts = append(natsOpts, nats.Timeout(opts.Timeout))
	}

	c := &NATSClient{}
	log.Infof("[NATS] Connecting to %s", opts.URL)
	err := connectWithRetry(ctx, "nats", opts.ConnectRetries, func() error {
		conn, err := nats.Connect(opts.URL, natsOpts...)
		if err != nil {
			return err
		}
		c.conn = conn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *NATSClient) Publish(topic string, payload string) error {
	if !c.conn.IsConnected() {
		return ErrNotConnected
	}
	return c.conn.Publish(topicToSubject(topic), []byte(payload))
}

// Subscriptions survive reconnects on their own.
func (c *NATSClient) Subscribe(topics []string, handler MessageHandler) error {
	for _, topic := range topics {
		sub, err := c.conn.Subscribe(topicToSubject(topic), func(msg *nats.Msg) {
			handler(subjectToTopic(msg.Subject), msg.Data)
		})
		if err != nil {
			return err
		}
		c.subs = append(c.subs, sub)
		log.Infof("[NATS] Subscribed to %s", sub.Subject)
	}
	return nil
}

func (c *NATSClient) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
	log.Info("[NATS] Disconnected")
}

func topicToSubject(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

func subjectToTopic(subject string) string {
	return strings.ReplaceAll(subject, ".", "/")
}
