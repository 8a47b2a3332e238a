package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/sandeepkv93/dharmasync/internal/model"
)

// Fixed-width so that text comparison orders the same as time.
const storeTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	DriverSQLite3  = "sqlite3"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return dialectSQLite, nil
	case DriverPostgres:
		return dialectPostgres, nil
	default:
		return 0, fmt.Errorf("storage: unsupported sql driver %q", driver)
	}
}

// SQLRepository persists users, tasks and progress records in a relational
// database. The *sql.DB pool is shared by every caller.
type SQLRepository struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLRepository wraps an existing pool. A sqlite pool opened without
// _txlock=immediate still seeds safely: SeedTasks retries when sqlite
// reports the database busy.
func NewSQLRepository(db *sql.DB, driver string) (*SQLRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQLRepository{db: db, dialect: d}, nil
}

// OpenSQL opens a pool for driver, verifies it and wraps it in a repository.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, sqliteDSN(driver, dsn))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	repo, err := NewSQLRepository(db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// sqliteDSN adds a busy timeout and immediate write locks to file DSNs so
// that concurrent seeding transactions serialize instead of failing.
func sqliteDSN(driver, dsn string) string {
	if driver == DriverPostgres || strings.Contains(dsn, "_txlock") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	switch driver {
	case DriverSQLite3:
		return dsn + sep + "_busy_timeout=5000&_txlock=immediate"
	case DriverSQLite:
		return dsn + sep + "_pragma=busy_timeout(5000)&_txlock=immediate"
	}
	return dsn
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

const taskColumns = `id, user_id, title, description, category, priority, completed, due_date, due_time, created_at, is_default`

func (r *SQLRepository) CreateTask(ctx context.Context, in model.Task) error {
	return insertTask(ctx, r.db, r.rebind, in)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, ex execer, rebind func(string) string, in model.Task) error {
	_, err := ex.ExecContext(ctx, rebind(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		in.ID, in.UserID, in.Title, in.Description, string(in.Category), string(in.Priority),
		boolInt(in.Completed), in.DueDate, in.Time, mustTime(in.CreatedAt), boolInt(in.IsDefault),
	)
	return err
}

const seedAttempts = 25

func (r *SQLRepository) SeedTasks(ctx context.Context, filter TaskListFilter, seed []model.Task) (bool, error) {
	if filter.UserID == "" {
		return false, ErrMissingUserID
	}
	for attempt := 1; ; attempt++ {
		wrote, err := r.seedOnce(ctx, filter, seed)
		if err == nil || r.dialect != dialectSQLite || !isBusy(err) || attempt == seedAttempts {
			return wrote, err
		}
		backoff := time.Duration(attempt)*2*time.Millisecond + time.Duration(rand.IntN(5))*time.Millisecond
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (r *SQLRepository) seedOnce(ctx context.Context, filter TaskListFilter, seed []model.Task) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// sqlite serializes on its write lock; postgres needs a lock per user.
	if r.dialect == dialectPostgres {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, filter.UserID); err != nil {
			return false, fmt.Errorf("lock before seed: %w", err)
		}
	}

	query, args := r.taskWhere(`SELECT COUNT(*) FROM tasks`, filter)
	var existing int
	if err := tx.QueryRowContext(ctx, r.rebind(query), args...).Scan(&existing); err != nil {
		return false, fmt.Errorf("count before seed: %w", err)
	}
	if existing > 0 {
		return false, nil
	}
	for _, task := range seed {
		if err := insertTask(ctx, tx, r.rebind, task); err != nil {
			return false, fmt.Errorf("seed task %q: %w", task.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

func (r *SQLRepository) GetTask(ctx context.Context, userID, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT `+taskColumns+`
		FROM tasks WHERE id = ? AND user_id = ?`), id, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLRepository) SetTaskCompleted(ctx context.Context, userID, id string, completed bool) (model.Task, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(`
		UPDATE tasks SET completed = ?
		WHERE id = ? AND user_id = ?`),
		boolInt(completed), id, userID,
	)
	if err != nil {
		return model.Task{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return model.Task{}, err
	}
	return r.GetTask(ctx, userID, id)
}

func (r *SQLRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	if filter.UserID == "" {
		return nil, ErrMissingUserID
	}
	query, args := r.taskWhere(`SELECT `+taskColumns+` FROM tasks`, filter)
	query += ` ORDER BY created_at ASC, id ASC`
	query += r.pagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLRepository) CountTasks(ctx context.Context, filter TaskListFilter) (int, error) {
	if filter.UserID == "" {
		return 0, ErrMissingUserID
	}
	query, args := r.taskWhere(`SELECT COUNT(*) FROM tasks`, filter)
	var n int
	if err := r.db.QueryRowContext(ctx, r.rebind(query), args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SQLRepository) taskWhere(base string, filter TaskListFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{filter.UserID}
	if !filter.From.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, mustTime(filter.From))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, mustTime(filter.To))
	}
	if filter.Completed != nil {
		clauses = append(clauses, "completed = ?")
		args = append(args, boolInt(*filter.Completed))
	}
	return base + " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *SQLRepository) UpsertProgress(ctx context.Context, in model.ProgressRecord) error {
	if err := in.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO task_progress (user_id, day, completed_tasks, total_tasks, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET
			completed_tasks = excluded.completed_tasks,
			total_tasks = excluded.total_tasks,
			updated_at = excluded.updated_at`),
		in.UserID, in.Day.String(), in.CompletedTasks, in.TotalTasks, mustTime(time.Now()),
	)
	return err
}

func (r *SQLRepository) GetProgress(ctx context.Context, userID string, day model.Day) (model.ProgressRecord, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT completed_tasks, total_tasks FROM task_progress
		WHERE user_id = ? AND day = ?`), userID, day.String())
	out := model.ProgressRecord{UserID: userID, Day: day}
	if err := row.Scan(&out.CompletedTasks, &out.TotalTasks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ProgressRecord{}, ErrNotFound
		}
		return model.ProgressRecord{}, err
	}
	return out, nil
}

func (r *SQLRepository) ListProgress(ctx context.Context, filter ProgressListFilter) ([]model.ProgressRecord, error) {
	if filter.UserID == "" {
		return nil, ErrMissingUserID
	}
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, fmt.Errorf("%w: progress range requires both bounds", model.ErrInvalidDay)
	}
	args := []any{filter.UserID, filter.From.String(), filter.To.String()}
	query := `SELECT user_id, day, completed_tasks, total_tasks FROM task_progress
		WHERE user_id = ? AND day >= ? AND day <= ? ORDER BY day ASC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loc := filter.From.Location()
	out := make([]model.ProgressRecord, 0)
	for rows.Next() {
		var rec model.ProgressRecord
		var day string
		if err := rows.Scan(&rec.UserID, &day, &rec.CompletedTasks, &rec.TotalTasks); err != nil {
			return nil, err
		}
		parsed, err := model.ParseDay(day, loc)
		if err != nil {
			return nil, err
		}
		rec.Day = parsed
		out = append(out, rec)
	}
	return out, rows.Err()
}

const userColumns = `id, name, email, password_hash, gender, address, age, image, created_at, updated_at`

func (r *SQLRepository) CreateUser(ctx context.Context, in model.User) error {
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		in.ID, in.Name, strings.ToLower(in.Email), in.PasswordHash, in.Gender, in.Address, in.Age, in.Image,
		mustTime(in.CreatedAt), mustTime(in.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *SQLRepository) GetUser(ctx context.Context, id string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return scanUserRow(row)
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), strings.ToLower(email))
	return scanUserRow(row)
}

func (r *SQLRepository) UpdateUser(ctx context.Context, in model.User) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`
		UPDATE users SET name = ?, email = ?, gender = ?, address = ?, age = ?, image = ?, updated_at = ?
		WHERE id = ?`),
		in.Name, strings.ToLower(in.Email), in.Gender, in.Address, in.Age, in.Image, mustTime(in.UpdatedAt), in.ID,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func scanUserRow(row *sql.Row) (model.User, error) {
	var out model.User
	var created, updated string
	if err := row.Scan(&out.ID, &out.Name, &out.Email, &out.PasswordHash, &out.Gender, &out.Address, &out.Age, &out.Image, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	var err error
	if out.CreatedAt, err = parseRequiredTime(created); err != nil {
		return model.User{}, err
	}
	if out.UpdatedAt, err = parseRequiredTime(updated); err != nil {
		return model.User{}, err
	}
	return out, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *SQLRepository) rebind(query string) string {
	if r.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	// modernc.org/sqlite reports constraint failures through its own error type.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isBusy reports a sqlite lock conflict. A deferred transaction that loses
// the upgrade to a write lock fails immediately instead of waiting.
func isBusy(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func mustTime(v time.Time) string {
	return v.UTC().Format(storeTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(storeTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// pagination appends LIMIT/OFFSET. sqlite only accepts OFFSET after a
// LIMIT, where -1 means unbounded.
func (r *SQLRepository) pagination(args *[]any, limit, offset int) string {
	sql := ""
	switch {
	case limit > 0:
		sql += " LIMIT ?"
		*args = append(*args, limit)
	case offset > 0 && r.dialect == dialectSQLite:
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var category, priority, created string
	var completed, isDefault int
	if err := s.Scan(&out.ID, &out.UserID, &out.Title, &out.Description, &category, &priority,
		&completed, &out.DueDate, &out.Time, &created, &isDefault); err != nil {
		return model.Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Task{}, err
	}
	out.Category = model.Category(category)
	out.Priority = model.Priority(priority)
	out.Completed = completed == 1
	out.IsDefault = isDefault == 1
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
