package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/eddielth/fire-alarm/alert"
	"github.com/eddielth/fire-alarm/logger"
)

// MySQLStorage archives alerts in MySQL
type MySQLStorage struct {
	db       *sql.DB
	dsn      string
	database string
}

// NewMySQLStorage connects, creating the database and table when missing
func NewMySQLStorage(dsn string) (*MySQLStorage, error) {
	database, serverDSN, err := parseMySQLDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}

	// connect without a database first so it can be created
	serverDB, err := sql.Open("mysql", serverDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL server: %w", err)
	}
	defer serverDB.Close()

	_, err = serverDB.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", quoteMySQLIdentifier(database)))
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	logger.Info("ensured MySQL database %s exists", database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("MySQL ping failed: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	storage := &MySQLStorage{
		db:       db,
		dsn:      dsn,
		database: database,
	}

	if err := storage.InitDatabase(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize MySQL database: %w", err)
	}

	logger.Info("MySQL alert archive ready")
	return storage, nil
}

// parseMySQLDSN splits a DSN into the database name and the same DSN
// without a database, for creating it
func parseMySQLDSN(dsn string) (database string, serverDSN string, err error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", "", err
	}

	if cfg.DBName == "" {
		return "", "", fmt.Errorf("invalid DSN, empty database name")
	}

	database = cfg.DBName
	cfg.DBName = ""
	return database, cfg.FormatDSN(), nil
}

func quoteMySQLIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// InitDatabase creates the alert table
func (ms *MySQLStorage) InitDatabase() error {
	alertTableSQL := `
	CREATE TABLE IF NOT EXISTS alert_notifications (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		channel VARCHAR(255) NOT NULL,
		level INT NOT NULL,
		level_name VARCHAR(32) NOT NULL,
		location VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		sent_at VARCHAR(64) NOT NULL,
		sensor_data JSON,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_level (level),
		INDEX idx_location (location),
		INDEX idx_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := ms.db.Exec(alertTableSQL); err != nil {
		return fmt.Errorf("failed to create alert table: %w", err)
	}

	logger.Info("MySQL alert table initialized")
	return nil
}

// Store inserts one alert
func (ms *MySQLStorage) Store(channel string, n alert.Notification) error {
	row, err := newAlertRow(channel, n)
	if err != nil {
		return err
	}

	alertSQL := `INSERT INTO alert_notifications (channel, level, level_name, location, message, sent_at, sensor_data) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := ms.db.Exec(alertSQL, row.args()...); err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	logger.Debug("stored %s alert to MySQL", n.Level)
	return nil
}

// Recent returns up to limit alerts, newest first
func (ms *MySQLStorage) Recent(limit int) ([]alert.Notification, error) {
	return queryRecent(ms.db, `SELECT level, location, message, sent_at, sensor_data FROM alert_notifications ORDER BY id DESC LIMIT ?`, limit)
}

// Close closes the connection pool
func (ms *MySQLStorage) Close() error {
	if ms.db != nil {
		if err := ms.db.Close(); err != nil {
			return fmt.Errorf("failed to close MySQL connection: %w", err)
		}
		logger.Info("MySQL connection closed")
	}
	return nil
}
