package transformer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/sensor"
)

// Manager holds the payload scripts keyed by sensor kind
type Manager struct {
	transformers map[sensor.Kind]*Transformer
	mutex        sync.RWMutex
}

// Transformer runs one script's transform function. A goja runtime is not
// safe for concurrent use, so calls are serialized.
type Transformer struct {
	mu         sync.Mutex
	vm         *goja.Runtime
	transform  goja.Callable
	scriptPath string
}

// NewManager builds a transformer for every configured kind
func NewManager(configs map[string]config.Transformer) (*Manager, error) {
	manager := &Manager{
		transformers: make(map[sensor.Kind]*Transformer),
	}

	for name, cfg := range configs {
		kind, err := sensor.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("transformer %s: %w", name, err)
		}

		transformer, err := load(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create transformer for %s: %w", kind, err)
		}

		manager.transformers[kind] = transformer
		logger.Info("loaded payload transformer for %s sensors", kind)
	}

	return manager, nil
}

func load(cfg config.Transformer) (*Transformer, error) {
	var scriptCode string

	// inline code wins over a script file
	switch {
	case cfg.ScriptCode != "":
		scriptCode = cfg.ScriptCode
	case cfg.ScriptPath != "":
		scriptBytes, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read script %s: %w", cfg.ScriptPath, err)
		}
		scriptCode = string(scriptBytes)
	default:
		return nil, fmt.Errorf("neither script_code nor script_path given")
	}

	return newTransformer(scriptCode, cfg.ScriptPath)
}

func newTransformer(scriptCode, scriptPath string) (*Transformer, error) {
	vm := goja.New()

	_ = vm.Set("log", func(msg string) {
		logger.Info("[JS] %s", msg)
	})

	_ = vm.Set("parseJSON", func(jsonStr string) interface{} {
		var data interface{}
		if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
			logger.Warn("parseJSON failed: %v", err)
			return nil
		}
		return data
	})

	_ = vm.Set("convertTemperature", convertTemperature)

	if _, err := vm.RunString(scriptCode); err != nil {
		return nil, fmt.Errorf("failed to run script: %w", err)
	}

	transformValue := vm.Get("transform")
	if transformValue == nil {
		return nil, fmt.Errorf("script does not define a 'transform' function")
	}

	transform, ok := goja.AssertFunction(transformValue)
	if !ok {
		return nil, fmt.Errorf("'transform' is not a function")
	}

	return &Transformer{
		vm:         vm,
		transform:  transform,
		scriptPath: scriptPath,
	}, nil
}

func convertTemperature(value float64, fromUnit string, toUnit string) float64 {
	var celsius float64
	switch strings.ToUpper(fromUnit) {
	case "C":
		celsius = value
	case "F":
		celsius = (value - 32) * 5 / 9
	case "K":
		celsius = value - 273.15
	default:
		return value
	}

	switch strings.ToUpper(toUnit) {
	case "F":
		return celsius*9/5 + 32
	case "K":
		return celsius + 273.15
	default:
		return celsius
	}
}

// Has reports whether a script is configured for kind
func (m *Manager) Has(kind sensor.Kind) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, ok := m.transformers[kind]
	return ok
}

// Transform rewrites payload with the script for kind. Kinds without a
// script, including the empty kind, pass through unchanged.
func (m *Manager) Transform(kind sensor.Kind, payload []byte) ([]byte, error) {
	if m == nil {
		return payload, nil
	}

	m.mutex.RLock()
	transformer, exists := m.transformers[kind]
	m.mutex.RUnlock()

	if !exists {
		return payload, nil
	}

	return transformer.run(payload)
}

func (t *Transformer) run(payload []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result, err := t.transform(goja.Undefined(), t.vm.ToValue(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}

	if goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, fmt.Errorf("transform returned no value")
	}

	exported := result.Export()
	if s, ok := exported.(string); ok {
		return []byte(s), nil
	}

	out, err := json.Marshal(exported)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transform result: %w", err)
	}
	return out, nil
}

// ReloadTransformer replaces the script for kind
func (m *Manager) ReloadTransformer(name string, cfg config.Transformer) error {
	kind, err := sensor.ParseKind(name)
	if err != nil {
		return err
	}

	transformer, err := load(cfg)
	if err != nil {
		return fmt.Errorf("failed to create transformer: %w", err)
	}

	m.mutex.Lock()
	m.transformers[kind] = transformer
	m.mutex.Unlock()

	logger.Info("reloaded payload transformer for %s sensors", kind)
	return nil
}
