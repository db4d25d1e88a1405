package bus

import (
	"context"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

type MQTTClient struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration

	mu   sync.Mutex
	subs map[string]mqtt.MessageHandler
}

// Connect to an MQTT broker. Reconnects after the first successful connect
// are handled by paho; subscriptions are restored on every reconnect.
func NewMQTTClient(ctx context.Context, opts Options) (*MQTTClient, error) {
	c := &MQTTClient{
		qos:     opts.QoS,
		timeout: opts.Timeout,
		subs:    make(map[string]mqtt.MessageHandler),
	}

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.URL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetUsername(opts.Username)
	clientOpts.SetPassword(opts.Password)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetOnConnectHandler(c.onConnect)
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("[MQTT] Connection lost")
	})
	c.client = mqtt.NewClient(clientOpts)

	log.Infof("[MQTT] Connecting to %s", opts.URL)
	err := connectWithRetry(ctx, "mqtt", opts.ConnectRetries, func() error {
		return c.wait(c.client.Connect())
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *MQTTClient) Publish(topic string, payload string) error {
	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	return c.wait(c.client.Publish(topic, c.qos, false, payload))
}

func (c *MQTTClient) Subscribe(topics []string, handler MessageHandler) error {
	callback := func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}

	c.mu.Lock()
	for _, topic := range topics {
		c.subs[topic] = callback
	}
	c.mu.Unlock()

	for _, topic := range topics {
		if err := c.wait(c.client.Subscribe(topic, c.qos, callback)); err != nil {
			return err
		}
		log.Infof("[MQTT] Subscribed to %s", topic)
	}
	return nil
}

func (c *MQTTClient) Close() {
	c.client.Disconnect(250)
	log.Info("[MQTT] Disconnected")
}

func (c *MQTTClient) onConnect(client mqtt.Client) {
	log.Info("[MQTT] Connection up")

	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, callback := range c.subs {
		if token := client.Subscribe(topic, c.qos, callback); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Errorf("[MQTT] Resubscribing to %s failed", topic)
		}
	}
}

func (c *MQTTClient) wait(token mqtt.Token) error {
	if c.timeout <= 0 {
		token.Wait()
		return token.Error()
	}
	if !token.WaitTimeout(c.timeout) {
		return ErrTimeout
	}
	return token.Error()
}
