package dashboard

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/fusion"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/mqtt"
	"github.com/eddielth/fire-alarm/sensor"
)

// DefaultHistorySize is the number of alerts kept when none is configured
const DefaultHistorySize = 10

// Archiver retains notifications seen by the dashboard
type Archiver interface {
	Store(channel string, n alert.Notification) error
}

// Dashboard is a read-only view of the sensor topics and alert channels
type Dashboard struct {
	mu          sync.RWMutex
	prefix      string
	latest      *fusion.State
	history     []alert.Notification
	historySize int
	archive     Archiver
}

// New creates a dashboard for topics under prefix. archive may be nil.
func New(prefix string, historySize int, archive Archiver) *Dashboard {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Dashboard{
		prefix:      prefix,
		latest:      fusion.NewState(),
		history:     make([]alert.Notification, 0, historySize),
		historySize: historySize,
		archive:     archive,
	}
}

// Seed preloads alert history, newest first, without archiving it again
func (d *Dashboard) Seed(history []alert.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := len(history) - 1; i >= 0; i-- {
		d.push(history[i])
	}
}

// Handle applies one broker message. Alert channels feed the history, anything
// else must decode as a sensor reading.
func (d *Dashboard) Handle(topic string, payload []byte) error {
	if mqtt.IsAlertTopic(d.prefix, topic) {
		return d.handleAlert(topic, payload)
	}

	r, err := sensor.Decode(payload)
	if err != nil {
		return fmt.Errorf("reading on %s: %w", topic, err)
	}

	d.mu.Lock()
	d.latest.Update(r)
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) handleAlert(topic string, payload []byte) error {
	var n alert.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return fmt.Errorf("alert on %s: %w", topic, err)
	}

	d.mu.Lock()
	d.push(n)
	d.mu.Unlock()

	if d.archive != nil {
		if err := d.archive.Store(topic, n); err != nil {
			logger.Warn("alert on %s shown but not archived: %v", topic, err)
		}
	}
	return nil
}

// push must be called with mu held
func (d *Dashboard) push(n alert.Notification) {
	d.history = append([]alert.Notification{n}, d.history...)
	if len(d.history) > d.historySize {
		d.history = d.history[:d.historySize]
	}
}

// Latest returns the most recent reading per kind
func (d *Dashboard) Latest() fusion.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.latest.Snapshot()
}

// History returns a copy of the alert history, newest first
func (d *Dashboard) History() []alert.Notification {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]alert.Notification, len(d.history))
	copy(out, d.history)
	return out
}
