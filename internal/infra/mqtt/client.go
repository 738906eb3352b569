package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

//go:generate mockgen -source=client.go -destination=../../../test/unit/doubles/infra/mqtt/client_mock.go -package=mqtt -mock_names=Client=MockClient

const (
	_defaultQoS     = 0 // At most once
	_tokenTimeout   = 5 * time.Second
	_disconnectWait = 5 * time.Second
)

var ErrTimeout = errors.New("mqtt operation timed out")

type Client interface {
	Subscribe(topic string, qos byte, callback MessageHandler) error
	// Publish marshals msg as JSON. Retained messages are kept by the broker
	// for late subscribers.
	Publish(topic string, msg any, retained bool) error

	Disconnect()
}

type SimpleClientOpts struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

type subscription struct {
	topic    string
	qos      byte
	callback MessageHandler
}

// NewSimpleClient connects to the broker and keeps reconnecting in the
// background, restoring subscriptions on every reconnect.
func NewSimpleClient(opts SimpleClientOpts) (*SimpleClient, error) {
	simpleClient := &SimpleClient{
		subscriptions: make(map[string]subscription),
	}

	onConnectHandler := func(client paho.Client) {
		slog.Info("connected to MQTT broker", slog.String("broker", opts.Broker))
		simpleClient.resubscribeAll(client)
	}

	onConnectionLostHandler := func(_ paho.Client, err error) {
		slog.Error("connection lost to MQTT broker", slog.Any("error", err))
	}

	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetOnConnectHandler(onConnectHandler).
		SetAutoReconnect(true).
		SetConnectionLostHandler(onConnectionLostHandler).
		SetKeepAlive(10 * time.Second).
		SetConnectTimeout(_tokenTimeout)

	client := paho.NewClient(pahoOpts)
	if err := wait(client.Connect()); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", opts.Broker, err)
	}

	simpleClient.client = client
	return simpleClient, nil
}

var _ Client = (*SimpleClient)(nil)

type SimpleClient struct {
	client        paho.Client
	subscriptions map[string]subscription
	mu            sync.RWMutex
}

func wait(token paho.Token) error {
	if !token.WaitTimeout(_tokenTimeout) {
		return ErrTimeout
	}
	return token.Error()
}

func (c *SimpleClient) resubscribeAll(client paho.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.subscriptions) == 0 {
		return
	}

	slog.Info("restoring MQTT subscriptions after reconnection", slog.Int("count", len(c.subscriptions)))

	for topic, sub := range c.subscriptions {
		if err := wait(client.Subscribe(sub.topic, sub.qos, c.pahoCallback(sub.callback))); err != nil {
			slog.Error("failed to restore subscription after reconnection",
				slog.String("topic", topic), slog.Any("error", err))
		}
	}
}

func (c *SimpleClient) pahoCallback(callback MessageHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		callback(c, msg)
	}
}

func (c *SimpleClient) Subscribe(topic string, qos byte, callback MessageHandler) error {
	c.mu.Lock()
	c.subscriptions[topic] = subscription{
		topic:    topic,
		qos:      qos,
		callback: callback,
	}
	c.mu.Unlock()

	if err := wait(c.client.Subscribe(topic, qos, c.pahoCallback(callback))); err != nil {
		c.mu.Lock()
		delete(c.subscriptions, topic)
		c.mu.Unlock()
		return fmt.Errorf("subscribing to topic %s: %w", topic, err)
	}

	slog.Info("subscribed to MQTT topic", slog.String("topic", topic), slog.Int("qos", int(qos)))
	return nil
}

type MessageHandler func(Client, Message)

type Message interface {
	Topic() string
	MessageID() uint16
	Payload() []byte
	Ack()
}

func (c *SimpleClient) Disconnect() {
	c.mu.Lock()
	c.subscriptions = make(map[string]subscription)
	c.mu.Unlock()

	c.client.Disconnect(uint(_disconnectWait.Milliseconds()))
}

func (c *SimpleClient) Publish(topic string, msg any, retained bool) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	if err := wait(c.client.Publish(topic, _defaultQoS, retained, payload)); err != nil {
		return fmt.Errorf("publishing to topic %s: %w", topic, err)
	}

	return nil
}
