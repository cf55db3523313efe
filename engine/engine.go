package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/fusion"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/risk"
	"github.com/eddielth/fire-alarm/sensor"
	"github.com/eddielth/fire-alarm/transformer"
)

// Stage is a step of per-message processing
type Stage int

const (
	Idle Stage = iota
	Decoding
	Updating
	Scoring
	Dispatching
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Decoding:
		return "decoding"
	case Updating:
		return "updating"
	case Scoring:
		return "scoring"
	case Dispatching:
		return "dispatching"
	}
	return "unknown"
}

// Message is one raw inbound transport message
type Message struct {
	Topic   string
	Payload []byte
}

// Result describes what happened to one message. Stage is the last stage
// entered before the loop went back to Idle.
type Result struct {
	Stage        Stage
	Reading      sensor.Reading
	Score        int
	Level        risk.Level
	Notification *alert.Notification
	Err          error
}

// Dispatcher publishes a notification for a level above NONE
type Dispatcher interface {
	Dispatch(level risk.Level, trigger sensor.Reading, snap fusion.Snapshot) (alert.Notification, error)
}

// Engine owns the fusion state and runs each message through
// decode, update, score and dispatch as one serialized unit.
type Engine struct {
	mu           sync.Mutex
	state        *fusion.State
	dispatcher   Dispatcher
	transformers *transformer.Manager
	stats        Stats
}

// Option configures an Engine
type Option func(*Engine)

// WithTransformers normalises payloads with per-kind scripts before decoding
func WithTransformers(m *transformer.Manager) Option {
	return func(e *Engine) {
		e.transformers = m
	}
}

// New creates an engine with an empty fusion state
func New(dispatcher Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		state:      fusion.NewState(),
		dispatcher: dispatcher,
		stats:      newStats(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process handles one message. Failures are logged and reported in the
// result; they never leave the fusion state half-updated.
func (e *Engine) Process(msg Message) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Received++

	res := Result{Stage: Decoding}
	reading, err := e.decode(msg)
	if err != nil {
		res.Err = err
		switch {
		case errors.Is(err, sensor.ErrUnknownKind):
			e.stats.UnknownKind++
			logger.Debug("discarding message on %s: %v", msg.Topic, err)
		default:
			e.stats.DecodeErrors++
			logger.Warn("failed to decode message on %s: %v", msg.Topic, err)
		}
		return res
	}
	e.stats.Decoded++
	res.Reading = reading

	res.Stage = Updating
	e.state.Update(reading)

	res.Stage = Scoring
	snap := e.state.Snapshot()
	res.Score, res.Level = risk.Assess(snap)
	logger.Debug("%s reading from %s: score %d, level %s", reading.Kind(), reading.Metadata().SensorID, res.Score, res.Level)

	if res.Level <= risk.None {
		return res
	}

	res.Stage = Dispatching
	n, err := e.dispatcher.Dispatch(res.Level, reading, snap)
	if err != nil {
		e.stats.PublishErrors++
		res.Err = err
		logger.Error("failed to dispatch %s alert: %v", res.Level, err)
		return res
	}
	e.stats.Dispatched[res.Level]++
	res.Notification = &n

	return res
}

func (e *Engine) decode(msg Message) (sensor.Reading, error) {
	payload, err := e.transformers.Transform(sensor.KindFromTopic(msg.Topic), msg.Payload)
	if err != nil {
		return nil, errors.Join(sensor.ErrDecode, err)
	}
	return sensor.Decode(payload)
}

// Run processes messages one at a time until ctx is cancelled or msgs is closed
func (e *Engine) Run(ctx context.Context, msgs <-chan Message) error {
	logger.Info("ingestion loop started")
	defer logger.Info("ingestion loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			e.Process(msg)
		}
	}
}

// Snapshot returns a copy of the current fusion state
func (e *Engine) Snapshot() fusion.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

// Stats returns a copy of the processing counters
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.clone()
}
