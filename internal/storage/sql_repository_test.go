package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/dharmasync/internal/model"
)

func setupRepo(t *testing.T) *SQLRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dharmasync-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewSQLRepository(db, DriverSQLite3)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if err := repo.Migrate(t.Context()); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func newTask(id, userID, title string, created time.Time) model.Task {
	return model.Task{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Category:  model.CategoryPersonal,
		Priority:  model.PriorityMedium,
		CreatedAt: created,
	}
}

func TestTaskCreateGetAndComplete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	task := model.Task{
		ID:          "task-1",
		UserID:      "user-1",
		Title:       "Read 10 pages",
		Description: "Bhagavad Gita, chapter 2",
		Category:    model.CategoryPersonal,
		Priority:    model.PriorityLow,
		DueDate:     "2026-02-10",
		Time:        "20:00",
		CreatedAt:   created,
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := repo.GetTask(ctx, "user-1", task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title || got.Completed || got.IsDefault || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected task get result: %#v", got)
	}
	if got.DueDate != "2026-02-10" || got.Time != "20:00" || got.Description != task.Description {
		t.Fatalf("optional fields lost: %#v", got)
	}

	updated, err := repo.SetTaskCompleted(ctx, "user-1", task.ID, true)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if !updated.Completed {
		t.Fatalf("expected completed task, got %#v", updated)
	}

	again, err := repo.SetTaskCompleted(ctx, "user-1", task.ID, true)
	if err != nil {
		t.Fatalf("complete task twice: %v", err)
	}
	if !again.Completed {
		t.Fatalf("expected completed task after repeat, got %#v", again)
	}
}

func TestTaskAccessIsScopedToOwner(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	if err := repo.CreateTask(ctx, newTask("task-b", "user-b", "B's task", created)); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := repo.GetTask(ctx, "user-a", "task-b"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign get, got: %v", err)
	}
	if _, err := repo.SetTaskCompleted(ctx, "user-a", "task-b", true); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign update, got: %v", err)
	}
	got, err := repo.GetTask(ctx, "user-b", "task-b")
	if err != nil {
		t.Fatalf("get own task: %v", err)
	}
	if got.Completed {
		t.Fatal("foreign update must not mutate the task")
	}
}

func TestListTasksDayWindow(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	late := parseRFC3339(t, "2026-02-09T23:59:59Z")
	early := parseRFC3339(t, "2026-02-10T00:00:01Z")
	fraction := parseRFC3339(t, "2026-02-10T00:00:00Z").Add(500 * time.Millisecond)
	for _, task := range []model.Task{
		newTask("late", "user-1", "late", late),
		newTask("early", "user-1", "early", early),
		newTask("fraction", "user-1", "fraction", fraction),
		newTask("other-user", "user-2", "other", early),
	} {
		if err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("create task %s: %v", task.ID, err)
		}
	}

	day := model.DayOf(early, time.UTC)
	list, err := repo.ListTasks(ctx, DayFilter("user-1", day))
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(list) != 2 || list[0].ID != "fraction" || list[1].ID != "early" {
		t.Fatalf("unexpected day list: %#v", list)
	}

	n, err := repo.CountTasks(ctx, DayFilter("user-1", day.Prev()))
	if err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one task on the previous day, got %d", n)
	}

	done := true
	if _, err := repo.SetTaskCompleted(ctx, "user-1", "early", true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	filter := DayFilter("user-1", day)
	filter.Completed = &done
	completed, err := repo.ListTasks(ctx, filter)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != "early" {
		t.Fatalf("unexpected completed list: %#v", completed)
	}

	if _, err := repo.ListTasks(ctx, TaskListFilter{}); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}

func TestSeedTasksOnlyWhenEmpty(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-10T08:00:00Z")
	day := model.DayOf(now, time.UTC)

	seed := []model.Task{
		newTask("seed-1", "user-1", "one", now),
		newTask("seed-2", "user-1", "two", now),
	}
	wrote, err := repo.SeedTasks(ctx, DayFilter("user-1", day), seed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !wrote {
		t.Fatal("expected first seed to write")
	}

	again := []model.Task{newTask("seed-3", "user-1", "three", now)}
	wrote, err = repo.SeedTasks(ctx, DayFilter("user-1", day), again)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if wrote {
		t.Fatal("expected second seed to be skipped")
	}

	n, err := repo.CountTasks(ctx, DayFilter("user-1", day))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 tasks after seeding twice, got %d", n)
	}
}

func TestSeedTasksRollsBackOnFailure(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-10T08:00:00Z")
	day := model.DayOf(now, time.UTC)

	seed := []model.Task{
		newTask("dup", "user-1", "one", now),
		newTask("dup", "user-1", "two", now),
	}
	if _, err := repo.SeedTasks(ctx, DayFilter("user-1", day), seed); err == nil {
		t.Fatal("expected duplicate id failure")
	}
	n, err := repo.CountTasks(ctx, DayFilter("user-1", day))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rollback to leave no tasks, got %d", n)
	}
}

func TestProgressUpsertGetAndList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	day := model.DayOf(parseRFC3339(t, "2026-02-10T08:00:00Z"), time.UTC)

	if _, err := repo.GetProgress(ctx, "user-1", day); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound before upsert, got %v", err)
	}

	if err := repo.UpsertProgress(ctx, model.ProgressRecord{UserID: "user-1", Day: day, CompletedTasks: 1, TotalTasks: 4}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpsertProgress(ctx, model.ProgressRecord{UserID: "user-1", Day: day, CompletedTasks: 2, TotalTasks: 5}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if err := repo.UpsertProgress(ctx, model.ProgressRecord{UserID: "user-1", Day: day.Prev(), CompletedTasks: 4, TotalTasks: 4}); err != nil {
		t.Fatalf("upsert prev: %v", err)
	}

	got, err := repo.GetProgress(ctx, "user-1", day)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if got.CompletedTasks != 2 || got.TotalTasks != 5 || !got.Day.Equal(day) {
		t.Fatalf("unexpected progress: %#v", got)
	}

	list, err := repo.ListProgress(ctx, ProgressListFilter{UserID: "user-1", From: day.Prev(), To: day})
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(list) != 2 || !list[0].Day.Equal(day.Prev()) || list[1].CompletedTasks != 2 {
		t.Fatalf("unexpected progress list: %#v", list)
	}

	bad := model.ProgressRecord{UserID: "user-1", Day: day, CompletedTasks: 3, TotalTasks: 1}
	if err := repo.UpsertProgress(ctx, bad); !errors.Is(err, model.ErrInvalidProgress) {
		t.Fatalf("expected ErrInvalidProgress, got %v", err)
	}
}

func TestUserCreateAndLookup(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-09T12:00:00Z")

	user := model.User{
		ID:           "user-1",
		Name:         "Asha",
		Email:        "Asha@Example.com",
		PasswordHash: "hash",
		Age:          31,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, "asha@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != "user-1" || got.Age != 31 || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %#v", got)
	}

	byID, err := repo.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Email != "asha@example.com" {
		t.Fatalf("expected normalized email, got %q", byID.Email)
	}

	user.ID = "user-2"
	if err := repo.CreateUser(ctx, user); err != ErrConflict {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	if _, err := repo.GetUser(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRebindPostgres(t *testing.T) {
	repo := &SQLRepository{dialect: dialectPostgres}
	got := repo.rebind(`SELECT id FROM tasks WHERE user_id = ? AND created_at >= ? LIMIT ?`)
	want := `SELECT id FROM tasks WHERE user_id = $1 AND created_at >= $2 LIMIT $3`
	if got != want {
		t.Fatalf("rebind = %q, want %q", got, want)
	}

	lite := &SQLRepository{dialect: dialectSQLite}
	if lite.rebind("a = ?") != "a = ?" {
		t.Fatal("sqlite queries must not be rewritten")
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN(DriverSQLite3, "file.db"); got != "file.db?_busy_timeout=5000&_txlock=immediate" {
		t.Fatalf("unexpected sqlite3 dsn: %q", got)
	}
	if got := sqliteDSN(DriverSQLite, "file:x.db?cache=shared"); got != "file:x.db?cache=shared&_pragma=busy_timeout(5000)&_txlock=immediate" {
		t.Fatalf("unexpected sqlite dsn: %q", got)
	}
	if got := sqliteDSN(DriverPostgres, "postgres://x"); got != "postgres://x" {
		t.Fatalf("postgres dsn must be untouched: %q", got)
	}
}

func TestOpenSQLWithPureGoDriver(t *testing.T) {
	repo, err := OpenSQL(t.Context(), DriverSQLite, filepath.Join(t.TempDir(), "modernc.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	if err := repo.Migrate(t.Context()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := parseRFC3339(t, "2026-02-10T08:00:00Z")
	if err := repo.CreateTask(t.Context(), newTask("t1", "u1", "title", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	n, err := repo.CountTasks(t.Context(), DayFilter("u1", model.DayOf(now, time.UTC)))
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestListTasksPagination(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := parseRFC3339(t, "2026-02-10T08:00:00Z")
	for i := 0; i < 5; i++ {
		task := newTask(fmt.Sprintf("task-%d", i), "user-1", fmt.Sprintf("t%d", i), base.Add(time.Duration(i)*time.Minute))
		task.Completed = i%2 == 0
		if err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	day := model.DayOf(base, time.UTC)

	filter := DayFilter("user-1", day)
	filter.Limit = 2
	filter.Offset = 1
	page, err := repo.ListTasks(ctx, filter)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].ID != "task-1" || page[1].ID != "task-2" {
		t.Fatalf("unexpected page: %#v", page)
	}

	filter.Limit = 0
	filter.Offset = 3
	tail, err := repo.ListTasks(ctx, filter)
	if err != nil {
		t.Fatalf("list with offset only: %v", err)
	}
	if len(tail) != 2 || tail[0].ID != "task-3" {
		t.Fatalf("unexpected tail: %#v", tail)
	}

	open := false
	filter = DayFilter("user-1", day)
	filter.Completed = &open
	n, err := repo.CountTasks(ctx, filter)
	if err != nil {
		t.Fatalf("count open: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 open tasks, got %d", n)
	}
}

func TestConcurrentSeedOnPlainPool(t *testing.T) {
	// setupRepo opens the file without _txlock or a busy timeout.
	repo := setupRepo(t)
	ctx := context.Background()
	now := parseRFC3339(t, "2026-02-10T08:00:00Z")
	day := model.DayOf(now, time.UTC)

	const workers = 4
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		writes int
		errs   []error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			seed := []model.Task{
				newTask(fmt.Sprintf("seed-%d-a", w), "user-1", "one", now),
				newTask(fmt.Sprintf("seed-%d-b", w), "user-1", "two", now),
			}
			wrote, err := repo.SeedTasks(ctx, DayFilter("user-1", day), seed)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if wrote {
				writes++
			}
		}(w)
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("seed errors: %v", errs)
	}
	if writes != 1 {
		t.Fatalf("expected exactly one seed write, got %d", writes)
	}
	n, err := repo.CountTasks(ctx, DayFilter("user-1", day))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected one seed batch, got %d tasks", n)
	}
}

func TestUpdateUser(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-01T08:00:00Z")
	for _, u := range []model.User{
		{ID: "user-1", Name: "Asha", Email: "asha@example.com", PasswordHash: "hash", CreatedAt: created, UpdatedAt: created},
		{ID: "user-2", Name: "Ravi", Email: "ravi@example.com", PasswordHash: "hash", CreatedAt: created, UpdatedAt: created},
	} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	updated := parseRFC3339(t, "2026-02-10T08:00:00Z")
	in := model.User{
		ID: "user-1", Name: "Asha K", Email: "Asha.K@Example.com", Gender: "female",
		Address: "Pune", Age: 32, Image: "https://img/a.png", UpdatedAt: updated,
	}
	if err := repo.UpdateUser(ctx, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Asha K" || got.Email != "asha.k@example.com" || got.Address != "Pune" || got.Age != 32 || got.Gender != "female" {
		t.Fatalf("unexpected user after update: %#v", got)
	}
	if got.PasswordHash != "hash" || !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(updated) {
		t.Fatalf("update touched credentials or timestamps: %#v", got)
	}

	in.Email = "ravi@example.com"
	if err := repo.UpdateUser(ctx, in); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for taken email, got %v", err)
	}
	if err := repo.UpdateUser(ctx, model.User{ID: "missing", Name: "x", Email: "x@example.com", UpdatedAt: updated}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
