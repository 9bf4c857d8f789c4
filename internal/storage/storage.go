// Package storage provides SQLite-backed persistence for fired alerts and
// per-instrument dedup state.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/finsignal/emacross/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db        *sql.DB
	maxAlerts int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/emacross/data.db.
func New(maxAlerts int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "emacross", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxAlerts: maxAlerts}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			interval    TEXT NOT NULL,
			direction   TEXT NOT NULL,
			price       REAL NOT NULL,
			ema         REAL NOT NULL,
			bar_time    INTEGER NOT NULL,
			detected_at INTEGER NOT NULL,
			notified    INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_detected_at ON alerts(detected_at)`,
		`CREATE TABLE IF NOT EXISTS alert_state (
			key       TEXT PRIMARY KEY,
			direction TEXT NOT NULL,
			bar_time  INTEGER NOT NULL,
			sent_at   INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddAlert records a fired crossover alert and trims the table to maxAlerts
// newest rows.
func (s *Storage) AddAlert(ev *models.CrossoverEvent, notified bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO alerts
			(id, symbol, interval, direction, price, ema, bar_time, detected_at, notified)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid.New().String(), ev.Symbol, string(ev.Interval), string(ev.Direction),
		ev.Price, ev.EMA, ev.BarTime.UnixNano(), ev.DetectedAt.UnixNano(),
		boolToInt(notified),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	if _, err = tx.Exec(`
		DELETE FROM alerts WHERE id NOT IN (
			SELECT id FROM alerts ORDER BY detected_at DESC LIMIT ?
		)`, s.maxAlerts); err != nil {
		return fmt.Errorf("failed to enforce alert cap: %w", err)
	}

	return tx.Commit()
}

// RecentAlerts returns the n newest fired alerts, newest first.
func (s *Storage) RecentAlerts(n int) ([]models.CrossoverEvent, error) {
	rows, err := s.db.Query(`
		SELECT symbol, interval, direction, price, ema, bar_time, detected_at
		FROM alerts ORDER BY detected_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.CrossoverEvent
	for rows.Next() {
		var ev models.CrossoverEvent
		var interval, direction string
		var barTimeNano, detectedAtNano int64
		if err := rows.Scan(&ev.Symbol, &interval, &direction, &ev.Price, &ev.EMA,
			&barTimeNano, &detectedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		ev.Interval = models.Interval(interval)
		ev.Direction = models.Direction(direction)
		ev.BarTime = time.Unix(0, barTimeNano)
		ev.DetectedAt = time.Unix(0, detectedAtNano)
		alerts = append(alerts, ev)
	}
	return alerts, rows.Err()
}

// SaveAlertState upserts the dedup record for one symbol+interval slot.
func (s *Storage) SaveAlertState(rec models.AlertRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO alert_state (key, direction, bar_time, sent_at)
		VALUES (?,?,?,?)`,
		rec.Key, string(rec.Direction), rec.BarTime.UnixNano(), rec.SentAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save alert state: %w", err)
	}
	return nil
}

// LoadAlertStates returns all persisted dedup records keyed by slot.
func (s *Storage) LoadAlertStates() (map[string]models.AlertRecord, error) {
	rows, err := s.db.Query(`SELECT key, direction, bar_time, sent_at FROM alert_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]models.AlertRecord)
	for rows.Next() {
		var rec models.AlertRecord
		var direction string
		var barTimeNano, sentAtNano int64
		if err := rows.Scan(&rec.Key, &direction, &barTimeNano, &sentAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan alert state: %w", err)
		}
		rec.Direction = models.Direction(direction)
		rec.BarTime = time.Unix(0, barTimeNano)
		rec.SentAt = time.Unix(0, sentAtNano)
		states[rec.Key] = rec
	}
	return states, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
