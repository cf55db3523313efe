package transformer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/sensor"
)

const fahrenheitScript = `
function transform(payload) {
	var d = JSON.parse(payload);
	return {
		sensorType: "heat",
		sensorId: d.id,
		location: d.site,
		timestamp: d.ts,
		temperature: convertTemperature(d.tempF, "F", "C")
	};
}
`

func TestTransformNormalisesPayload(t *testing.T) {
	t.Parallel()

	m, err := NewManager(map[string]config.Transformer{
		"heat": {ScriptCode: fahrenheitScript},
	})
	require.NoError(t, err)
	require.True(t, m.Has(sensor.Heat))
	require.False(t, m.Has(sensor.Wind))

	out, err := m.Transform(sensor.Heat, []byte(`{"id":"h-9","site":"north","ts":"2024-01-01T00:00:00Z","tempF":212}`))
	require.NoError(t, err)

	r, err := sensor.Decode(out)
	require.NoError(t, err)
	heat := r.(sensor.HeatReading)
	require.InDelta(t, 100.0, heat.Temperature, 1e-9)
	require.Equal(t, "north", heat.Location)
	require.Equal(t, "h-9", heat.SensorID)
}

func TestTransformPassThrough(t *testing.T) {
	t.Parallel()

	m, err := NewManager(nil)
	require.NoError(t, err)

	payload := []byte(`{"sensorType":"wind","windSpeed":12}`)
	out, err := m.Transform(sensor.Wind, payload)
	require.NoError(t, err)
	require.Equal(t, payload, out)

	var nilManager *Manager
	out, err = nilManager.Transform(sensor.Heat, payload)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestTransformScriptErrors(t *testing.T) {
	t.Parallel()

	_, err := NewManager(map[string]config.Transformer{"rain": {ScriptCode: "function transform(p) { return p; }"}})
	require.ErrorIs(t, err, sensor.ErrUnknownKind)

	_, err = NewManager(map[string]config.Transformer{"heat": {ScriptCode: "var transform = 5;"}})
	require.Error(t, err)

	_, err = NewManager(map[string]config.Transformer{"heat": {}})
	require.Error(t, err)

	m, err := NewManager(map[string]config.Transformer{
		"smoke": {ScriptCode: "function transform(p) { throw new Error('bad'); }"},
	})
	require.NoError(t, err)
	_, err = m.Transform(sensor.Smoke, []byte(`{}`))
	require.Error(t, err)
}

func TestReloadTransformerFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "smoke.js")
	require.NoError(t, os.WriteFile(path, []byte(`function transform(p) { return '{"sensorType":"smoke","smokeLevel":42}'; }`), 0644))

	m, err := NewManager(nil)
	require.NoError(t, err)
	require.NoError(t, m.ReloadTransformer("smoke", config.Transformer{ScriptPath: path}))

	out, err := m.Transform(sensor.Smoke, []byte(`ignored`))
	require.NoError(t, err)
	require.JSONEq(t, `{"sensorType":"smoke","smokeLevel":42}`, string(out))

	require.Error(t, m.ReloadTransformer("fog", config.Transformer{ScriptPath: path}))
}

func TestConvertTemperature(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 0.0, convertTemperature(32, "f", "c"), 1e-9)
	require.InDelta(t, 212.0, convertTemperature(100, "C", "F"), 1e-9)
	require.InDelta(t, 0.0, convertTemperature(273.15, "K", "C"), 1e-9)
	require.InDelta(t, 55.0, convertTemperature(55, "X", "C"), 1e-9)
}
