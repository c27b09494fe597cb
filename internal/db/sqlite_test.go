package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxdittgen/OlympicsMetroQueueModel/internal/planner"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Connect(filepath.Join(t.TempDir(), "queueing.db"))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return database
}

func TestMultiplierRoundTrip(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	got, err := database.GetMultiplier(ctx, "line10")
	if err != nil {
		t.Fatalf("GetMultiplier failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil multiplier before any save, got %v", got)
	}

	first := []float64{11.97, 12.5, 23}
	if err := database.SaveMultiplier(ctx, "line10", first); err != nil {
		t.Fatalf("SaveMultiplier failed: %v", err)
	}
	second := []float64{6.4, 6.7, 12}
	if err := database.SaveMultiplier(ctx, "line10", second); err != nil {
		t.Fatalf("SaveMultiplier (overwrite) failed: %v", err)
	}

	got, err = database.GetMultiplier(ctx, "line10")
	if err != nil {
		t.Fatalf("GetMultiplier failed: %v", err)
	}
	if len(got) != len(second) {
		t.Fatalf("got %v, want %v", got, second)
	}
	for i := range second {
		if got[i] != second[i] {
			t.Errorf("station %d = %v, want %v", i, got[i], second[i])
		}
	}

	if err := database.DeleteMultiplier(ctx, "line10"); err != nil {
		t.Fatalf("DeleteMultiplier failed: %v", err)
	}
	got, err = database.GetMultiplier(ctx, "line10")
	if err != nil {
		t.Fatalf("GetMultiplier failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %v", got)
	}
}

func TestRunsNewestFirstAndCleanup(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	runs := []planner.Run{
		{ID: "old", LineID: "line10", Day: "Monday", Trains: 120, CreatedAt: now.Add(-72 * time.Hour)},
		{ID: "mid", LineID: "line10", Day: "Tuesday", Adapted: true, Trains: 200, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "new", LineID: "line10", Day: "Wednesday", PercentOfTypical: 231, FillRate: 0.99, CreatedAt: now},
	}
	for _, r := range runs {
		if err := database.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", r.ID, err)
		}
	}

	got, err := database.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "mid" || got[2].ID != "old" {
		t.Errorf("unexpected order: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
	if !got[1].Adapted || got[1].Trains != 200 {
		t.Errorf("mid run not round-tripped: %+v", got[1])
	}
	if got[0].PercentOfTypical != 231 {
		t.Errorf("PercentOfTypical = %d, want 231", got[0].PercentOfTypical)
	}

	if err := database.Cleanup(ctx, 24*time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	got, err = database.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 runs after cleanup, got %d", len(got))
	}

	limited, err := database.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "new" {
		t.Errorf("limit 1 returned %+v", limited)
	}
}

func TestOpenFallsBackToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.db")
	store, err := Open(context.Background(), "", path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if _, ok := store.(*DB); !ok {
		t.Errorf("expected *DB, got %T", store)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestPostgresMultiplierRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	ctx := context.Background()
	store, err := Open(ctx, databaseURL, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	lineID := "test-" + time.Now().Format("150405.000000")
	defer store.DeleteMultiplier(ctx, lineID)

	want := []float64{1.5, 2.25, 23}
	if err := store.SaveMultiplier(ctx, lineID, want); err != nil {
		t.Fatalf("SaveMultiplier failed: %v", err)
	}
	got, err := store.GetMultiplier(ctx, lineID)
	if err != nil {
		t.Fatalf("GetMultiplier failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("station %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConnectAppliesPragmas(t *testing.T) {
	database := openTestDB(t)

	var mode string
	if err := database.conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int
	if err := database.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout query failed: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}

	var fk int
	if err := database.conn.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("foreign_keys query failed: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}
