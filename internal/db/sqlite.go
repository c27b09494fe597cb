package db

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/planner"
)

// schemaSQL is the database schema, embedded at compile time.
//
//go:embed schema.sql
var schemaSQL string

// DB wraps a SQLite database connection with write serialization
type DB struct {
	conn    *sql.DB
	writeMu sync.Mutex // SQLite allows one writer at a time
}

// Connect opens a SQLite database with WAL mode enabled
func Connect(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			log.Printf("Warning: failed to set %s: %v", pragma, err)
		}
	}

	log.Printf("Connected to SQLite database: %s", dbPath)
	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// EnsureSchema creates tables if they don't exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Database schema ensured")
	return nil
}

// GetMultiplier returns the stored multiplier for lineID, or nil if none.
func (db *DB) GetMultiplier(ctx context.Context, lineID string) ([]float64, error) {
	var raw string
	err := db.conn.QueryRowContext(ctx,
		"SELECT multiplier_json FROM forecast_multiplier WHERE line_id = ?", lineID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query multiplier: %w", err)
	}

	var multiplier []float64
	if err := json.Unmarshal([]byte(raw), &multiplier); err != nil {
		return nil, fmt.Errorf("failed to decode multiplier: %w", err)
	}
	return multiplier, nil
}

// SaveMultiplier replaces the stored multiplier for lineID.
func (db *DB) SaveMultiplier(ctx context.Context, lineID string, multiplier []float64) error {
	raw, err := json.Marshal(multiplier)
	if err != nil {
		return fmt.Errorf("failed to encode multiplier: %w", err)
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO forecast_multiplier (line_id, multiplier_json, station_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (line_id) DO UPDATE SET
			multiplier_json = excluded.multiplier_json,
			station_count = excluded.station_count,
			updated_at = excluded.updated_at`,
		lineID, string(raw), len(multiplier), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save multiplier: %w", err)
	}
	return nil
}

// DeleteMultiplier removes the stored multiplier for lineID.
func (db *DB) DeleteMultiplier(ctx context.Context, lineID string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if _, err := db.conn.ExecContext(ctx, "DELETE FROM forecast_multiplier WHERE line_id = ?", lineID); err != nil {
		return fmt.Errorf("failed to delete multiplier: %w", err)
	}
	return nil
}

// RecordRun appends a run to the log.
func (db *DB) RecordRun(ctx context.Context, run planner.Run) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO forecast_runs (
			run_id, line_id, day_of_week, adapted, total_demand,
			percent_of_typical, trains, fill_rate, dwell_seconds, created_at_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.LineID, run.Day, run.Adapted, run.TotalDemand,
		run.PercentOfTypical, run.Trains, run.FillRate, run.DwellSeconds,
		run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]planner.Run, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			run_id, line_id, day_of_week, adapted, total_demand,
			percent_of_typical, trains, fill_rate, dwell_seconds, created_at_utc
		FROM forecast_runs
		ORDER BY created_at_utc DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []planner.Run
	for rows.Next() {
		var r planner.Run
		var createdAt string
		err := rows.Scan(
			&r.ID, &r.LineID, &r.Day, &r.Adapted, &r.TotalDemand,
			&r.PercentOfTypical, &r.Trains, &r.FillRate, &r.DwellSeconds, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

// Cleanup deletes runs older than the retention window.
func (db *DB) Cleanup(ctx context.Context, retention time.Duration) error {
	hours := int(retention.Hours())
	if hours < 1 {
		hours = 1
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM forecast_runs WHERE datetime(created_at_utc) < datetime('now', '-%d hours')", hours),
	)
	if err != nil {
		return fmt.Errorf("failed to cleanup forecast_runs: %w", err)
	}

	if n, _ := result.RowsAffected(); n > 0 {
		log.Printf("Cleanup: deleted %d runs older than %d hours", n, hours)
	}
	return nil
}
