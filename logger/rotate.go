package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// rotatingFile is a size-capped log file. When full it is renamed with a
// timestamp suffix and only the newest maxBackups renamed files are kept.
type rotatingFile struct {
	mu          sync.Mutex
	file        *os.File
	path        string
	maxSize     int64 // Unit: bytes
	maxBackups  int
	currentSize int64
}

func newRotatingFile(path string, maxSize int64, maxBackups int) (*rotatingFile, error) {
	// Ensure log directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get log file info: %w", err)
	}

	return &rotatingFile{
		file:        file,
		path:        path,
		maxSize:     maxSize,
		maxBackups:  maxBackups,
		currentSize: info.Size(),
	}, nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}

	n, err := r.file.Write(p)
	r.currentSize += int64(n)
	if err != nil {
		return n, err
	}

	if r.maxSize > 0 && r.currentSize >= r.maxSize {
		if err := r.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to rotate log file: %v\n", err)
		}
	}
	return n, nil
}

func (r *rotatingFile) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// rotate must be called with mu held
func (r *rotatingFile) rotate() error {
	r.file.Close()

	timestamp := time.Now().Format("20060102-150405.000")
	backupPath := filepath.Join(filepath.Dir(r.path), fmt.Sprintf("%s.%s%s", r.stem(), timestamp, filepath.Ext(r.path)))

	if err := os.Rename(r.path, backupPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to rename log file: %v\n", err)
	}

	r.cleanOldLogs()

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		r.file = nil
		return fmt.Errorf("failed to create new log file: %w", err)
	}

	r.file = file
	r.currentSize = 0
	return nil
}

func (r *rotatingFile) stem() string {
	base := filepath.Base(r.path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// backups returns rotated files, oldest first
func (r *rotatingFile) backups() []string {
	pattern := filepath.Join(filepath.Dir(r.path), r.stem()+".*"+filepath.Ext(r.path))

	matches, err := filepath.Glob(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to find old log files: %v\n", err)
		return nil
	}

	type fileInfo struct {
		path string
		time time.Time
	}
	files := make([]fileInfo, 0, len(matches))
	for _, match := range matches {
		if match == r.path {
			continue
		}
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		files = append(files, fileInfo{match, info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].time.Equal(files[j].time) {
			return files[i].path < files[j].path
		}
		return files[i].time.Before(files[j].time)
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths
}

func (r *rotatingFile) cleanOldLogs() {
	files := r.backups()
	for i := 0; i < len(files)-r.maxBackups; i++ {
		os.Remove(files[i])
	}
}
