package mqtt

import (
	"context"
	"errors"
	"fmt"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/engine"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/transformer"
)

// Manager connects the broker to the ingestion engine: sensor messages go
// into a bounded queue drained by the engine, alerts go back out on the client.
type Manager struct {
	client *Client
	engine *engine.Engine
	queue  chan engine.Message
}

// NewManager creates the client, dispatcher and engine for cfg
func NewManager(cfg *config.Config, transformers *transformer.Manager) (*Manager, error) {
	client, err := NewClient(cfg.MQTT, "fire-alarm")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MQTT client: %w", err)
	}

	return newManager(client, transformers, cfg.Engine.QueueSize), nil
}

func newManager(client *Client, transformers *transformer.Manager, queueSize int) *Manager {
	dispatcher := alert.NewDispatcher(client, client.Prefix())

	return &Manager{
		client: client,
		engine: engine.New(dispatcher, engine.WithTransformers(transformers)),
		queue:  make(chan engine.Message, queueSize),
	}
}

// Engine exposes the underlying engine
func (m *Manager) Engine() *engine.Engine {
	return m.engine
}

// Run connects, subscribes to the sensor topics and processes messages until ctx is done
func (m *Manager) Run(ctx context.Context) error {
	if err := m.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer m.client.Disconnect()

	handler := createMessageHandler(ctx, m.queue)
	for _, topic := range SensorTopics(m.client.Prefix()) {
		if err := m.client.Subscribe(topic, handler); err != nil {
			logger.Warn("failed to subscribe to topic %s: %v", topic, err)
		}
	}

	for _, channel := range alert.Channels() {
		logger.Debug("alerts may be published on %s%s", m.client.Prefix(), channel)
	}

	err := m.engine.Run(ctx, m.queue)
	logger.Info("engine stats: %s", m.engine.Stats())

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// createMessageHandler queues each message for the engine. It blocks while the
// queue is full so the broker client applies backpressure instead of dropping.
func createMessageHandler(ctx context.Context, queue chan<- engine.Message) MessageHandler {
	return func(topic string, payload []byte) {
		msg := engine.Message{Topic: topic, Payload: append([]byte(nil), payload...)}

		select {
		case queue <- msg:
		case <-ctx.Done():
			logger.Debug("dropping message from %s during shutdown", topic)
		}
	}
}
