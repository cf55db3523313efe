package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/logger"
)

// ErrNotConnected is returned by Publish while the broker connection is down
var ErrNotConnected = errors.New("not connected to MQTT broker")

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 5 * time.Second
)

// MessageHandler is the callback function type for handling MQTT messages
type MessageHandler func(topic string, payload []byte)

// Client represents an MQTT client
type Client struct {
	client paho.Client
	config config.MQTTConfig
}

// NewClient creates a client; name seeds the client id when none is configured
func NewClient(cfg config.MQTTConfig, name string) (*Client, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address cannot be empty")
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	}
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Error("MQTT connection lost: %v", err)
	})

	opts.SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
		logger.Info("trying to reconnect to MQTT broker...")
	})

	return newClient(paho.NewClient(opts), cfg), nil
}

func newClient(client paho.Client, cfg config.MQTTConfig) *Client {
	return &Client{
		client: client,
		config: cfg,
	}
}

// Connect connects to the MQTT broker
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connection to MQTT broker timed out")
	}

	if err := token.Error(); err != nil {
		return err
	}

	logger.Info("successfully connected to MQTT broker: %s", c.config.Broker)
	return nil
}

// Subscribe subscribes handler to topic
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	token := c.client.Subscribe(topic, c.config.QoS, func(_ paho.Client, msg paho.Message) {
		logger.Debug("received message from topic %s", msg.Topic())
		handler(msg.Topic(), msg.Payload())
	})

	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("subscription to topic %s timed out", topic)
	}

	if err := token.Error(); err != nil {
		return err
	}

	logger.Info("successfully subscribed to topic: %s", topic)
	return nil
}

// Publish hands payload to the client and returns without waiting for the
// broker. Delivery failures are only logged.
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.client.IsConnectionOpen() {
		return fmt.Errorf("%w: cannot publish to %s", ErrNotConnected, topic)
	}

	token := c.client.Publish(topic, c.config.QoS, false, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			logger.Error("failed to publish to %s: %v", topic, err)
		}
	}()

	return nil
}

// Disconnect disconnects from the MQTT broker
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	logger.Info("disconnected from MQTT broker")
}

// Prefix returns the configured topic prefix
func (c *Client) Prefix() string {
	return c.config.TopicPrefix
}
