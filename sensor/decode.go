package sensor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when a payload is not structured data of a known sensor shape
	ErrDecode = errors.New("sensor payload decode failed")
	// ErrUnknownKind is returned when a payload carries no recognised sensorType tag
	ErrUnknownKind = errors.New("unknown sensor kind")
)

type envelope struct {
	SensorType *string `json:"sensorType"`
}

// Decode parses a raw payload into the reading variant named by its sensorType tag.
// Numeric fields are accepted as-is; no range checking is done here.
func Decode(payload []byte) (Reading, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if env.SensorType == nil {
		return nil, fmt.Errorf("%w: missing sensorType", ErrUnknownKind)
	}

	kind, err := ParseKind(*env.SensorType)
	if err != nil {
		return nil, err
	}

	payload, err = normalizeMeta(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var reading Reading
	switch kind {
	case Heat:
		var r HeatReading
		err = json.Unmarshal(payload, &r)
		reading = r
	case Smoke:
		var r SmokeReading
		err = json.Unmarshal(payload, &r)
		reading = r
	case Fire:
		var r FireReading
		err = json.Unmarshal(payload, &r)
		reading = r
	case Wind:
		var r WindReading
		err = json.Unmarshal(payload, &r)
		reading = r
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s reading: %v", ErrDecode, kind, err)
	}

	return reading, nil
}

var metaFields = [...]string{"sensorId", "timestamp", "location"}

// normalizeMeta rewrites non-string metadata values, such as an epoch
// timestamp or a numeric sensor id, as their JSON text. Scoring never reads
// these fields, so their shape alone must not reject a reading.
func normalizeMeta(payload []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	changed := false
	for _, name := range metaFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		v := bytes.TrimSpace(raw)
		if len(v) == 0 || v[0] == '"' || bytes.Equal(v, []byte("null")) {
			continue
		}

		quoted, err := json.Marshal(string(v))
		if err != nil {
			return nil, err
		}
		fields[name] = quoted
		changed = true
	}

	if !changed {
		return payload, nil
	}
	return json.Marshal(fields)
}
