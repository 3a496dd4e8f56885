package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set; skipping postgres integration test")
	}
	return databaseURL
}

func TestPostgresRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := OpenPostgres(ctx, getTestDatabaseURL(t))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if _, err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	medium := NewPostgres(db)
	key := "integration:" + t.Name()
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM section_collections WHERE key=$1`, key)
	})

	if _, ok, err := medium.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := medium.Set(ctx, key, "[]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := medium.Set(ctx, key, `[{"id":"x"}]`); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	value, ok, err := medium.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if value != `[{"id":"x"}]` {
		t.Errorf("unexpected value %q", value)
	}

	// a second run must find nothing left to apply
	applied, err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations"))
	if err != nil {
		t.Fatalf("reapply migrations: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no pending migrations, got %v", applied)
	}
}
