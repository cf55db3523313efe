package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/risk"
	"github.com/eddielth/fire-alarm/sensor"
	"github.com/eddielth/fire-alarm/transformer"
)

const prefix = "/forest_fire/"

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *fakePublisher) Publish(topic string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func newEngine(pub *fakePublisher, opts ...Option) *Engine {
	return New(alert.NewDispatcher(pub, prefix), opts...)
}

func heat(temp float64) Message {
	return Message{Topic: prefix + "heat_sensor", Payload: []byte(fmt.Sprintf(`{"sensorType":"heat","temperature":%v,"location":"forest_section_A","sensorId":"heat_sensor_001"}`, temp))}
}

func smoke(level float64) Message {
	return Message{Topic: prefix + "smoke_sensor", Payload: []byte(fmt.Sprintf(`{"sensorType":"smoke","smokeLevel":%v,"location":"forest_section_A"}`, level))}
}

func fire(detected bool, intensity float64) Message {
	return Message{Topic: prefix + "fire_sensor", Payload: []byte(fmt.Sprintf(`{"sensorType":"fire","fireDetected":%v,"fireIntensity":%v,"location":"forest_section_A"}`, detected, intensity))}
}

func wind(speed float64) Message {
	return Message{Topic: prefix + "wind_sensor", Payload: []byte(fmt.Sprintf(`{"sensorType":"wind","windSpeed":%v,"location":"forest_section_B"}`, speed))}
}

func TestScenarioCritical(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	e := newEngine(pub)

	for _, m := range []Message{heat(70), smoke(85), fire(true, 75)} {
		res := e.Process(m)
		require.NoError(t, res.Err)
		require.Equal(t, risk.None, res.Level)
		require.Equal(t, Scoring, res.Stage)
	}
	require.Empty(t, pub.published())

	res := e.Process(wind(30))
	require.NoError(t, res.Err)
	require.Equal(t, 12, res.Score)
	require.Equal(t, risk.Critical, res.Level)
	require.Equal(t, Dispatching, res.Stage)
	require.NotNil(t, res.Notification)
	require.Equal(t, "forest_section_B", res.Notification.Location)
	require.Equal(t, []string{prefix + "alerts/social_media"}, pub.published())
}

func TestScenarioWarning(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	e := newEngine(pub)

	e.Process(heat(40))
	e.Process(smoke(50))
	e.Process(fire(false, 0))
	res := e.Process(wind(10))

	require.Equal(t, 2, res.Score)
	require.Equal(t, risk.Warning, res.Level)
	require.Equal(t, []string{prefix + "alerts/homeowners"}, pub.published())
}

func TestScenarioIncompleteNeverDispatches(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	e := newEngine(pub)

	for i := 0; i < 3; i++ {
		for _, m := range []Message{heat(90), smoke(95), wind(40)} {
			res := e.Process(m)
			require.Equal(t, 0, res.Score)
			require.Equal(t, risk.None, res.Level)
		}
	}
	require.Empty(t, pub.published())
	require.False(t, e.Snapshot().Has(sensor.Fire))
}

func TestScenarioDecodeErrorKeepsState(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	e := newEngine(pub)

	e.Process(heat(40))
	before := e.Snapshot()

	res := e.Process(Message{Topic: prefix + "heat_sensor", Payload: []byte(`{"sensorType":"heat","temperature":`)})
	require.ErrorIs(t, res.Err, sensor.ErrDecode)
	require.Equal(t, Decoding, res.Stage)
	require.Equal(t, before, e.Snapshot())

	res = e.Process(heat(50))
	require.NoError(t, res.Err)
	require.InDelta(t, 50.0, e.Snapshot().Heat.Temperature, 1e-9)

	stats := e.Stats()
	require.Equal(t, 3, stats.Received)
	require.Equal(t, 2, stats.Decoded)
	require.Equal(t, 1, stats.DecodeErrors)
}

func TestUnknownKindIsDiscarded(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	e := newEngine(pub)

	res := e.Process(Message{Topic: prefix + "rain_sensor", Payload: []byte(`{"sensorType":"rain","mm":3}`)})
	require.ErrorIs(t, res.Err, sensor.ErrUnknownKind)
	require.Equal(t, 1, e.Stats().UnknownKind)
	require.Equal(t, 0, e.Stats().DecodeErrors)
	require.False(t, e.Snapshot().Has(sensor.Heat))
}

// The fusion slot follows the payload's sensorType, not the topic.
func TestSlotFollowsSensorType(t *testing.T) {
	t.Parallel()

	e := newEngine(&fakePublisher{})
	e.Process(Message{Topic: prefix + "heat_sensor", Payload: []byte(`{"sensorType":"wind","windSpeed":7}`)})

	snap := e.Snapshot()
	require.Nil(t, snap.Heat)
	require.NotNil(t, snap.Wind)
}

func TestRecomputesFromFullSnapshot(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	e := newEngine(pub)

	e.Process(heat(70))
	e.Process(smoke(85))
	e.Process(wind(30))
	res := e.Process(fire(true, 75))
	require.Equal(t, risk.Critical, res.Level)

	// a benign fire reading replaces the old one; its contribution is not carried over
	res = e.Process(fire(false, 75))
	require.Equal(t, 8, res.Score)
	require.Equal(t, risk.Critical, res.Level)

	res = e.Process(heat(20))
	require.Equal(t, 5, res.Score)
	require.Equal(t, risk.Alert, res.Level)

	require.Equal(t, []string{
		prefix + "alerts/social_media",
		prefix + "alerts/social_media",
		prefix + "alerts/fire_service",
	}, pub.published())
	require.Equal(t, 2, e.Stats().Dispatched[risk.Critical])
	require.Equal(t, 1, e.Stats().Dispatched[risk.Alert])
}

func TestPublishFailureDoesNotStopProcessing(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("not connected")}
	e := newEngine(pub)

	e.Process(heat(70))
	e.Process(smoke(85))
	e.Process(fire(true, 75))
	res := e.Process(wind(30))
	require.Error(t, res.Err)
	require.Equal(t, Dispatching, res.Stage)

	res = e.Process(wind(31))
	require.Equal(t, risk.Critical, res.Level)
	require.Len(t, pub.published(), 2)
	require.Equal(t, 2, e.Stats().PublishErrors)
}

func TestTransformerFeedsDecode(t *testing.T) {
	t.Parallel()

	m, err := transformer.NewManager(map[string]config.Transformer{
		"heat": {ScriptCode: `function transform(p) { var d = JSON.parse(p); return {sensorType: "heat", temperature: convertTemperature(d.f, "F", "C")}; }`},
	})
	require.NoError(t, err)

	e := newEngine(&fakePublisher{}, WithTransformers(m))
	res := e.Process(Message{Topic: prefix + "heat_sensor", Payload: []byte(`{"f":140}`)})
	require.NoError(t, res.Err)
	require.InDelta(t, 60.0, e.Snapshot().Heat.Temperature, 1e-9)

	broken, err := transformer.NewManager(map[string]config.Transformer{
		"smoke": {ScriptCode: `function transform(p) { throw new Error("nope"); }`},
	})
	require.NoError(t, err)

	e = newEngine(&fakePublisher{}, WithTransformers(broken))
	res = e.Process(smoke(10))
	require.ErrorIs(t, res.Err, sensor.ErrDecode)
}

func TestConcurrentProcessIsSerialized(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	e := newEngine(pub)

	e.Process(heat(70))
	e.Process(smoke(85))
	e.Process(fire(true, 75))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e.Process(wind(float64(26 + i%5)))
		}(i)
	}
	wg.Wait()

	require.Len(t, pub.published(), 50)
	require.Equal(t, 53, e.Stats().Received)
	require.Equal(t, 50, e.Stats().Dispatched[risk.Critical])
}

func TestRunDrainsUntilClosed(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	e := newEngine(pub)

	msgs := make(chan Message, 8)
	msgs <- heat(40)
	msgs <- Message{Topic: prefix + "smoke_sensor", Payload: []byte("garbage")}
	msgs <- smoke(50)
	msgs <- fire(false, 0)
	msgs <- wind(10)
	close(msgs)

	require.NoError(t, e.Run(context.Background(), msgs))
	require.Equal(t, []string{prefix + "alerts/homeowners"}, pub.published())
	require.Equal(t, 5, e.Stats().Received)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	e := newEngine(&fakePublisher{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, make(chan Message)) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}

func TestStatsString(t *testing.T) {
	t.Parallel()

	s := newStats()
	s.Received = 3
	s.Dispatched[risk.Warning] = 1
	require.Contains(t, s.String(), "received=3")
	require.Contains(t, s.String(), "warning=1")
	require.Equal(t, "dispatching", Dispatching.String())
}
