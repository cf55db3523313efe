package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/risk"
)

// defaultRecentLimit bounds history reads that ask for no limit
const defaultRecentLimit = 100

// DatabaseType names a supported SQL backend
type DatabaseType string

const (
	// MySQL
	MySQL DatabaseType = "mysql"
	// PostgreSQL
	PostgreSQL DatabaseType = "postgresql"
)

// DatabaseStorage is a SQL-backed archive
type DatabaseStorage interface {
	StorageBackend
	HistoryProvider
	// InitDatabase creates the alert table if missing
	InitDatabase() error
}

// NewDatabaseStorage opens the backend for dbType
func NewDatabaseStorage(dbType string, dsn string) (DatabaseStorage, error) {
	switch DatabaseType(dbType) {
	case MySQL:
		return NewMySQLStorage(dsn)
	case PostgreSQL, "postgres":
		return NewPostgreSQLStorage(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// alertRow is the column set shared by the SQL backends
type alertRow struct {
	channel    string
	level      int
	levelName  string
	location   string
	message    string
	sentAt     string
	sensorData string
}

func newAlertRow(channel string, n alert.Notification) (alertRow, error) {
	sensorData, err := json.Marshal(n.SensorData)
	if err != nil {
		return alertRow{}, fmt.Errorf("failed to serialize sensor data: %w", err)
	}

	return alertRow{
		channel:    channel,
		level:      int(n.Level),
		levelName:  n.Level.String(),
		location:   n.Location,
		message:    n.Message,
		sentAt:     n.Timestamp,
		sensorData: string(sensorData),
	}, nil
}

func (r alertRow) args() []interface{} {
	return []interface{}{r.channel, r.level, r.levelName, r.location, r.message, r.sentAt, r.sensorData}
}

// queryRecent runs a newest-first select of level, location, message, sent_at
// and sensor_data with limit as its only argument
func queryRecent(db *sql.DB, query string, limit int) ([]alert.Notification, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var out []alert.Notification
	for rows.Next() {
		var (
			n     alert.Notification
			level int
			data  []byte
		)
		if err := rows.Scan(&level, &n.Location, &n.Message, &n.Timestamp, &data); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		n.Level = risk.Level(level)

		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.SensorData); err != nil {
				logger.Warn("alert from %s has unreadable sensor data: %v", n.Timestamp, err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
