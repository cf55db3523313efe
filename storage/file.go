package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/logger"
)

// FileStorage writes one JSON file per alert under <base>/<audience>/
type FileStorage struct {
	basePath string
}

// NewFileStorage creates the base directory if needed
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create dir %s failed: %w", basePath, err)
	}

	logger.Info("init file storage: %s", basePath)
	return &FileStorage{
		basePath: basePath,
	}, nil
}

// Store saves n to a timestamped file
func (fs *FileStorage) Store(channel string, n alert.Notification) error {
	audienceDir := filepath.Join(fs.basePath, filepath.Base(channel))
	if err := os.MkdirAll(audienceDir, 0755); err != nil {
		return fmt.Errorf("create dir %s failed: %w", audienceDir, err)
	}

	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	filename := filepath.Join(audienceDir, fmt.Sprintf("%s.json", timestamp))

	jsonData, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize alert failed: %w", err)
	}

	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("write file %s failed: %w", filename, err)
	}

	logger.Debug("stored %s alert to file: %s", n.Level, filename)
	return nil
}

// Recent reads back the newest files across all audiences
func (fs *FileStorage) Recent(limit int) ([]alert.Notification, error) {
	files, err := filepath.Glob(filepath.Join(fs.basePath, "*", "*.json"))
	if err != nil {
		return nil, err
	}

	// file names sort chronologically
	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) > filepath.Base(files[j])
	})

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	out := make([]alert.Notification, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read file %s failed: %w", f, err)
		}

		var n alert.Notification
		if err := json.Unmarshal(b, &n); err != nil {
			logger.Warn("skipping unreadable alert file %s: %v", strings.TrimPrefix(f, fs.basePath), err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Close implement StorageBackend
func (fs *FileStorage) Close() error {
	return nil
}
