package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/sensor"
)

// Publisher sends a payload to a topic
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Simulator drives one generator per sensor kind, each on its own interval
type Simulator struct {
	publisher  Publisher
	prefix     string
	generators []Generator
	intervals  map[sensor.Kind]time.Duration

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New builds a simulator for every sensor kind from cfg. A zero seed picks one
// from the clock.
func New(publisher Publisher, prefix string, cfg config.SimulatorConfig) (*Simulator, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Simulator{
		publisher: publisher,
		prefix:    prefix,
		intervals: make(map[sensor.Kind]time.Duration, len(sensor.Kinds)),
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
	}

	for name, interval := range cfg.Intervals {
		kind, err := sensor.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("simulator interval: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("simulator interval for %s must be positive, got %s", kind, interval)
		}
		s.intervals[kind] = interval
	}

	for _, kind := range sensor.Kinds {
		g, err := NewGenerator(kind, cfg.Location)
		if err != nil {
			return nil, err
		}
		if _, ok := s.intervals[kind]; !ok {
			return nil, fmt.Errorf("no simulator interval configured for %s", kind)
		}
		s.generators = append(s.generators, g)
	}

	return s, nil
}

// Tick generates and publishes the next reading of g
func (s *Simulator) Tick(g Generator) (sensor.Reading, error) {
	s.mu.Lock()
	r := g.Next(s.rng, s.now())
	s.mu.Unlock()

	payload, err := json.Marshal(r)
	if err != nil {
		return r, fmt.Errorf("failed to serialize %s reading: %w", g.Kind(), err)
	}

	topic := s.prefix + g.Kind().Topic()
	if err := s.publisher.Publish(topic, payload); err != nil {
		return r, err
	}

	logger.Debug("[%s] published %s", r.Metadata().SensorID, payload)
	return r, nil
}

// Run publishes every kind on its interval until ctx is done
func (s *Simulator) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for _, g := range s.generators {
		interval := s.intervals[g.Kind()]
		logger.Info("sensor %s will report every %v", SensorID(g.Kind()), interval)

		wg.Add(1)
		go func(g Generator) {
			defer wg.Done()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := s.Tick(g); err != nil {
						logger.Warn("simulated %s reading dropped: %v", g.Kind(), err)
					}
				}
			}
		}(g)
	}

	wg.Wait()
	return nil
}
