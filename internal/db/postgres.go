package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/planner"
)

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS forecast_multiplier (
    line_id    TEXT PRIMARY KEY,
    multiplier DOUBLE PRECISION[] NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS forecast_runs (
    run_id             TEXT PRIMARY KEY,
    line_id            TEXT NOT NULL,
    day_of_week        TEXT NOT NULL,
    adapted            BOOLEAN NOT NULL,
    total_demand       DOUBLE PRECISION NOT NULL,
    percent_of_typical INTEGER NOT NULL,
    trains             INTEGER NOT NULL,
    fill_rate          DOUBLE PRECISION NOT NULL,
    dwell_seconds      DOUBLE PRECISION NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_forecast_runs_created ON forecast_runs (created_at);
`

// PostgresDB stores forecast state in PostgreSQL.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a connection pool for databaseURL.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Connected to PostgreSQL database")
	return &PostgresDB{pool: pool}, nil
}

func (p *PostgresDB) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresDB) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	log.Println("Database schema ensured")
	return nil
}

func (p *PostgresDB) GetMultiplier(ctx context.Context, lineID string) ([]float64, error) {
	var multiplier []float64
	err := p.pool.QueryRow(ctx,
		"SELECT multiplier FROM forecast_multiplier WHERE line_id = $1", lineID,
	).Scan(&multiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query multiplier: %w", err)
	}
	return multiplier, nil
}

func (p *PostgresDB) SaveMultiplier(ctx context.Context, lineID string, multiplier []float64) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO forecast_multiplier (line_id, multiplier, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (line_id) DO UPDATE SET
			multiplier = EXCLUDED.multiplier,
			updated_at = EXCLUDED.updated_at`,
		lineID, multiplier,
	)
	if err != nil {
		return fmt.Errorf("failed to save multiplier: %w", err)
	}
	return nil
}

func (p *PostgresDB) DeleteMultiplier(ctx context.Context, lineID string) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM forecast_multiplier WHERE line_id = $1", lineID); err != nil {
		return fmt.Errorf("failed to delete multiplier: %w", err)
	}
	return nil
}

func (p *PostgresDB) RecordRun(ctx context.Context, run planner.Run) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO forecast_runs (
			run_id, line_id, day_of_week, adapted, total_demand,
			percent_of_typical, trains, fill_rate, dwell_seconds, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.LineID, run.Day, run.Adapted, run.TotalDemand,
		run.PercentOfTypical, run.Trains, run.FillRate, run.DwellSeconds, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (p *PostgresDB) ListRuns(ctx context.Context, limit int) ([]planner.Run, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT
			run_id, line_id, day_of_week, adapted, total_demand,
			percent_of_typical, trains, fill_rate, dwell_seconds, created_at
		FROM forecast_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []planner.Run
	for rows.Next() {
		var r planner.Run
		err := rows.Scan(
			&r.ID, &r.LineID, &r.Day, &r.Adapted, &r.TotalDemand,
			&r.PercentOfTypical, &r.Trains, &r.FillRate, &r.DwellSeconds, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

func (p *PostgresDB) Cleanup(ctx context.Context, retention time.Duration) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM forecast_runs WHERE created_at < $1", time.Now().Add(-retention))
	if err != nil {
		return fmt.Errorf("failed to cleanup forecast_runs: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		log.Printf("Cleanup: deleted %d runs older than %v", n, retention)
	}
	return nil
}
