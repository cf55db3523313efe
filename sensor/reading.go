package sensor

import (
	"fmt"
	"strings"
)

// Kind identifies one of the four sensor families feeding the fusion engine
type Kind string

const (
	// Heat reports ambient temperature in °C
	Heat Kind = "heat"
	// Smoke reports smoke density on a 0-100 scale
	Smoke Kind = "smoke"
	// Fire reports flame detection and intensity on a 0-100 scale
	Fire Kind = "fire"
	// Wind reports wind speed in km/h
	Wind Kind = "wind"
)

// Kinds lists every known sensor kind in a stable order
var Kinds = [...]Kind{Heat, Smoke, Fire, Wind}

// ParseKind maps a sensorType tag to a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Heat, Smoke, Fire, Wind:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Topic returns the sensor topic name for the kind, without the broker prefix
func (k Kind) Topic() string {
	return string(k) + "_sensor"
}

// Meta holds the fields shared by every reading
type Meta struct {
	SensorID  string `json:"sensorId"`
	Timestamp string `json:"timestamp"`
	Location  string `json:"location"`
}

// Reading is one update from one sensor. The set of implementations is closed:
// HeatReading, SmokeReading, FireReading and WindReading.
type Reading interface {
	Kind() Kind
	Metadata() Meta
	sealed()
}

// HeatReading is a temperature sample
type HeatReading struct {
	SensorType  Kind    `json:"sensorType"`
	Temperature float64 `json:"temperature"`
	Meta
}

// SmokeReading is a smoke level sample
type SmokeReading struct {
	SensorType Kind    `json:"sensorType"`
	SmokeLevel float64 `json:"smokeLevel"`
	Meta
}

// FireReading is a flame detector sample
type FireReading struct {
	SensorType    Kind    `json:"sensorType"`
	FireDetected  bool    `json:"fireDetected"`
	FireIntensity float64 `json:"fireIntensity"`
	Meta
}

// WindReading is an anemometer sample
type WindReading struct {
	SensorType Kind    `json:"sensorType"`
	WindSpeed  float64 `json:"windSpeed"`
	Meta
}

func (HeatReading) Kind() Kind  { return Heat }
func (SmokeReading) Kind() Kind { return Smoke }
func (FireReading) Kind() Kind  { return Fire }
func (WindReading) Kind() Kind  { return Wind }

func (r HeatReading) Metadata() Meta  { return r.Meta }
func (r SmokeReading) Metadata() Meta { return r.Meta }
func (r FireReading) Metadata() Meta  { return r.Meta }
func (r WindReading) Metadata() Meta  { return r.Meta }

func (HeatReading) sealed()  {}
func (SmokeReading) sealed() {}
func (FireReading) sealed()  {}
func (WindReading) sealed()  {}

// KindFromTopic extracts the sensor kind from a topic such as
// "/forest_fire/heat_sensor". It returns "" for topics that are not sensor topics.
func KindFromTopic(topic string) Kind {
	last := topic
	if i := strings.LastIndex(topic, "/"); i >= 0 {
		last = topic[i+1:]
	}

	name, ok := strings.CutSuffix(last, "_sensor")
	if !ok {
		return ""
	}

	kind, err := ParseKind(name)
	if err != nil {
		return ""
	}
	return kind
}
