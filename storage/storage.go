package storage

import (
	"errors"
	"sync"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/config"
	"github.com/eddielth/fire-alarm/logger"
)

// StorageBackend archives alert notifications
type StorageBackend interface {
	// Store saves one notification received on channel
	Store(channel string, n alert.Notification) error
	// Close releases the backend
	Close() error
}

// HistoryProvider is implemented by backends that can read alerts back
type HistoryProvider interface {
	// Recent returns up to limit notifications, newest first
	Recent(limit int) ([]alert.Notification, error)
}

// Manager fans notifications out to every backend
type Manager struct {
	backends []StorageBackend
	mutex    sync.RWMutex
}

// NewManager creates a manager over backends
func NewManager(backends []StorageBackend) *Manager {
	return &Manager{
		backends: backends,
	}
}

// NewManagerFromConfig opens every enabled backend
func NewManagerFromConfig(cfg config.StorageConfig) (*Manager, error) {
	m := NewManager(nil)

	if cfg.File.Enabled {
		fs, err := NewFileStorage(cfg.File.Path)
		if err != nil {
			return nil, err
		}
		m.AddBackend(fs)
	}

	if cfg.Database.Enabled {
		db, err := NewDatabaseStorage(cfg.Database.Type, cfg.Database.DSN)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.AddBackend(db)
	}

	if cfg.Redis.Enabled {
		rs, err := NewRedisStorage(cfg.Redis)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.AddBackend(rs)
	}

	return m, nil
}

// Store writes n to every backend. A failing backend does not stop the others.
func (m *Manager) Store(channel string, n alert.Notification) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var errs []error
	for _, backend := range m.backends {
		if err := backend.Store(channel, n); err != nil {
			logger.Error("failed to archive alert: %v", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Recent reads history from the first backend able to provide it
func (m *Manager) Recent(limit int) ([]alert.Notification, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, backend := range m.backends {
		if hp, ok := backend.(HistoryProvider); ok {
			return hp.Recent(limit)
		}
	}
	return nil, nil
}

// Len returns the number of configured backends
func (m *Manager) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.backends)
}

// Close closes all backends
func (m *Manager) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, backend := range m.backends {
		if err := backend.Close(); err != nil {
			logger.Error("failed to close storage backend: %v", err)
		}
	}
}

// AddBackend adds a backend
func (m *Manager) AddBackend(backend StorageBackend) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.backends = append(m.backends, backend)
}
