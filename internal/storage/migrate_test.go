package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/dharmasync/internal/model"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo, err := NewSQLRepository(db, DriverSQLite3)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	ctx := t.Context()

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}

	if err := repo.Rollback(ctx); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	// Up migrations are idempotent so serve can apply them on every start.
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("repeated migrate up failed: %v", err)
	}

	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	if err := repo.CreateTask(t.Context(), model.Task{
		ID:        "task-rt-1",
		UserID:    "user-rt",
		Title:     "Roundtrip task",
		Category:  model.CategoryWork,
		Priority:  model.PriorityMedium,
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("insert after roundtrip failed: %v", err)
	}

	got, err := repo.GetTask(t.Context(), "user-rt", "task-rt-1")
	if err != nil {
		t.Fatalf("get after roundtrip failed: %v", err)
	}
	if got.Title != "Roundtrip task" {
		t.Fatalf("unexpected title after roundtrip: %q", got.Title)
	}
}

func TestMigrateRejectsInvalidCategory(t *testing.T) {
	repo := setupRepo(t)
	err := repo.CreateTask(t.Context(), model.Task{
		ID:        "task-bad",
		UserID:    "user-1",
		Title:     "Bad",
		Category:  model.Category("hobby"),
		Priority:  model.PriorityLow,
		CreatedAt: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("expected check constraint failure")
	}
}
