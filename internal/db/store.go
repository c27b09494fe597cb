package db

import (
	"context"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/planner"
)

// Store is a planner.Store that can also be pinged, migrated and closed.
type Store interface {
	planner.Store
	Ping(ctx context.Context) error
	EnsureSchema(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*PostgresDB)(nil)
)

// Open connects to PostgreSQL when databaseURL is set and to the SQLite file
// at sqlitePath otherwise, and ensures the schema exists.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	var store Store
	if databaseURL != "" {
		pg, err := ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		store = pg
	} else {
		lite, err := Connect(sqlitePath)
		if err != nil {
			return nil, err
		}
		store = lite
	}

	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
