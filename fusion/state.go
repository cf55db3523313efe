package fusion

import (
	"github.com/eddielth/fire-alarm/sensor"
)

// Snapshot is a point-in-time copy of the fusion state. A nil slot means no
// reading of that kind has been received yet.
type Snapshot struct {
	Heat  *sensor.HeatReading  `json:"heat"`
	Smoke *sensor.SmokeReading `json:"smoke"`
	Fire  *sensor.FireReading  `json:"fire"`
	Wind  *sensor.WindReading  `json:"wind"`
}

// Complete reports whether every slot holds a reading
func (s Snapshot) Complete() bool {
	return s.Heat != nil && s.Smoke != nil && s.Fire != nil && s.Wind != nil
}

// Has reports whether the slot for kind is filled
func (s Snapshot) Has(kind sensor.Kind) bool {
	switch kind {
	case sensor.Heat:
		return s.Heat != nil
	case sensor.Smoke:
		return s.Smoke != nil
	case sensor.Fire:
		return s.Fire != nil
	case sensor.Wind:
		return s.Wind != nil
	}
	return false
}

func (s Snapshot) clone() Snapshot {
	var c Snapshot
	if s.Heat != nil {
		v := *s.Heat
		c.Heat = &v
	}
	if s.Smoke != nil {
		v := *s.Smoke
		c.Smoke = &v
	}
	if s.Fire != nil {
		v := *s.Fire
		c.Fire = &v
	}
	if s.Wind != nil {
		v := *s.Wind
		c.Wind = &v
	}
	return c
}

// State caches the latest reading per sensor kind. It keeps no history and is
// not safe for concurrent use; the owner serializes access.
type State struct {
	slots Snapshot
}

// NewState returns a state with every slot empty
func NewState() *State {
	return &State{}
}

// Update overwrites the slot matching the reading's kind and leaves the others alone
func (s *State) Update(r sensor.Reading) {
	switch v := r.(type) {
	case sensor.HeatReading:
		s.slots.Heat = &v
	case sensor.SmokeReading:
		s.slots.Smoke = &v
	case sensor.FireReading:
		s.slots.Fire = &v
	case sensor.WindReading:
		s.slots.Wind = &v
	}
}

// Snapshot returns a copy that later updates cannot affect
func (s *State) Snapshot() Snapshot {
	return s.slots.clone()
}
