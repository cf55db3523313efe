package alert

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eddielth/fire-alarm/fusion"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/risk"
	"github.com/eddielth/fire-alarm/sensor"
)

// ErrNoChannel is returned when asked to dispatch a level that has no audience
var ErrNoChannel = errors.New("no alert channel for level")

// TimestampFormat matches the millisecond ISO-8601 form the dashboards expect
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Notification is the payload published on an alert channel
type Notification struct {
	Level      risk.Level      `json:"level"`
	Timestamp  string          `json:"timestamp"`
	Location   string          `json:"location"`
	SensorData fusion.Snapshot `json:"sensorData"`
	Message    string          `json:"message"`
}

// Publisher sends a payload to a topic without waiting for delivery
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Dispatcher turns an alert level into exactly one publish on the level's channel
type Dispatcher struct {
	publisher Publisher
	prefix    string
	now       func() time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithClock overrides the time source used for notification timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a dispatcher publishing under the given topic prefix
func NewDispatcher(publisher Publisher, prefix string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		publisher: publisher,
		prefix:    prefix,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Topic returns the full topic a level is published on
func (d *Dispatcher) Topic(level risk.Level) (string, error) {
	route, ok := RouteFor(level)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoChannel, level)
	}
	return d.prefix + route.Channel, nil
}

// Dispatch builds the notification for level and publishes it once. The location
// comes from the triggering reading; the message text depends on the level only.
func (d *Dispatcher) Dispatch(level risk.Level, trigger sensor.Reading, snap fusion.Snapshot) (Notification, error) {
	topic, err := d.Topic(level)
	if err != nil {
		return Notification{}, err
	}
	route, _ := RouteFor(level)

	n := Notification{
		Level:      level,
		Timestamp:  d.now().UTC().Format(TimestampFormat),
		SensorData: snap,
		Message:    route.Message,
	}
	if trigger != nil {
		n.Location = trigger.Metadata().Location
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return n, fmt.Errorf("failed to serialize notification: %w", err)
	}

	if err := d.publisher.Publish(topic, payload); err != nil {
		return n, fmt.Errorf("failed to publish %s notification to %s: %w", level, topic, err)
	}

	logger.Warn("%s: notifying %s on %s", level, route.Audience, topic)
	return n, nil
}
