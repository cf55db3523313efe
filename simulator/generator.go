package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/eddielth/fire-alarm/sensor"
	"github.com/eddielth/fire-alarm/validator"
)

// FireProbability is the chance a fire sample reports a detection
const FireProbability = 0.1

// walk is a bounded random walk
type walk struct {
	value    float64
	step     float64
	bounds   validator.RangeValidator
	decimals int
}

func (w *walk) next(rng *rand.Rand) float64 {
	w.value += (rng.Float64() - 0.5) * w.step
	w.value = w.bounds.Clamp(w.value)
	return round(w.value, w.decimals)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Generator produces successive readings for one sensor kind
type Generator interface {
	Kind() sensor.Kind
	Next(rng *rand.Rand, now time.Time) sensor.Reading
}

type heatGenerator struct {
	meta sensor.Meta
	temp walk
}

func (g *heatGenerator) Kind() sensor.Kind { return sensor.Heat }

func (g *heatGenerator) Next(rng *rand.Rand, now time.Time) sensor.Reading {
	return sensor.HeatReading{
		SensorType:  sensor.Heat,
		Temperature: g.temp.next(rng),
		Meta:        stamp(g.meta, now),
	}
}

type smokeGenerator struct {
	meta  sensor.Meta
	level walk
}

func (g *smokeGenerator) Kind() sensor.Kind { return sensor.Smoke }

func (g *smokeGenerator) Next(rng *rand.Rand, now time.Time) sensor.Reading {
	return sensor.SmokeReading{
		SensorType: sensor.Smoke,
		SmokeLevel: g.level.next(rng),
		Meta:       stamp(g.meta, now),
	}
}

type fireGenerator struct {
	meta sensor.Meta
}

func (g *fireGenerator) Kind() sensor.Kind { return sensor.Fire }

func (g *fireGenerator) Next(rng *rand.Rand, now time.Time) sensor.Reading {
	r := sensor.FireReading{SensorType: sensor.Fire, Meta: stamp(g.meta, now)}
	if rng.Float64() < FireProbability {
		r.FireDetected = true
		r.FireIntensity = math.Round(rng.Float64() * 100)
	}
	return r
}

type windGenerator struct {
	meta  sensor.Meta
	speed walk
}

func (g *windGenerator) Kind() sensor.Kind { return sensor.Wind }

func (g *windGenerator) Next(rng *rand.Rand, now time.Time) sensor.Reading {
	return sensor.WindReading{
		SensorType: sensor.Wind,
		WindSpeed:  g.speed.next(rng),
		Meta:       stamp(g.meta, now),
	}
}

func stamp(m sensor.Meta, now time.Time) sensor.Meta {
	m.Timestamp = now.UTC().Format(time.RFC3339Nano)
	return m
}

// SensorID is the id a simulated sensor of kind reports
func SensorID(kind sensor.Kind) string {
	return kind.Topic() + "_001"
}

var ranges = map[sensor.Kind]validator.RangeValidator{
	sensor.Heat:  {Field: "Temperature", Min: 20, Max: 80},
	sensor.Smoke: {Field: "SmokeLevel", Min: 0, Max: 100},
	sensor.Fire:  {Field: "FireIntensity", Min: 0, Max: 100},
	sensor.Wind:  {Field: "WindSpeed", Min: 0, Max: 50},
}

// NewGenerator returns the generator for kind, starting from the usual
// ambient values: 25°C, smoke 50, no fire, wind 5 km/h
func NewGenerator(kind sensor.Kind, location string) (Generator, error) {
	meta := sensor.Meta{SensorID: SensorID(kind), Location: location}

	switch kind {
	case sensor.Heat:
		return &heatGenerator{meta: meta, temp: walk{value: 25, step: 10, decimals: 1, bounds: ranges[kind]}}, nil
	case sensor.Smoke:
		return &smokeGenerator{meta: meta, level: walk{value: 50, step: 20, decimals: 0, bounds: ranges[kind]}}, nil
	case sensor.Fire:
		return &fireGenerator{meta: meta}, nil
	case sensor.Wind:
		return &windGenerator{meta: meta, speed: walk{value: 5, step: 8, decimals: 1, bounds: ranges[kind]}}, nil
	}
	return nil, fmt.Errorf("%w: %q", sensor.ErrUnknownKind, kind)
}

// bounds returns a validator for the range a generator of kind stays within
func bounds(kind sensor.Kind) (validator.Validator, bool) {
	r, ok := ranges[kind]
	if !ok {
		return nil, false
	}
	return &r, true
}
