// Package tasks owns the per-day task lifecycle: lazy seeding of a user's
// default list, task creation, completion toggles and the derived progress
// record for a day.
//
// Progress is never maintained incrementally. Every recomputation is a full
// rescan of the day's tasks followed by an upsert, so a crash between the
// task write and the progress write heals on the next recomputation.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandeepkv93/dharmasync/internal/model"
	"github.com/sandeepkv93/dharmasync/internal/storage"
)

var (
	ErrValidation  = errors.New("tasks: invalid input")
	ErrNotFound    = errors.New("tasks: task not found")
	ErrMissingUser = errors.New("tasks: user id is required")
	ErrInvalidPage = errors.New("tasks: invalid page")
)

const (
	// MaxHistoryDays bounds a single progress history query.
	MaxHistoryDays = 366
	MaxPageSize    = 200
)

// TaskQuery narrows and pages one day's tasks. A zero Limit returns every
// matching task from Offset on.
type TaskQuery struct {
	Completed *bool
	Limit     int
	Offset    int
}

// TaskPage is one page of a query and the size of the whole selection.
type TaskPage struct {
	Tasks []model.Task
	Total int
}

// Store is the persistence the service needs.
type Store interface {
	storage.TaskStore
	storage.ProgressStore
}

type Service struct {
	store  Store
	now    func() time.Time
	loc    *time.Location
	newID  func() string
	logger *zap.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation fixes the zone whose midnights delimit calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		loc:    time.UTC,
		newID:  newTaskID,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newTaskID returns time-ordered ids so tasks sharing a created_at keep
// their insertion order.
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) Today() model.Day {
	return model.DayOf(s.now(), s.loc)
}

// GetTodayTasks returns the caller's tasks for today, seeding the default
// list on the first read of the day.
func (s *Service) GetTodayTasks(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, _, err := s.EnsureSeeded(ctx, userID, s.Today())
	return tasks, err
}

// EnsureSeeded returns userID's tasks for day. When the day has none it
// writes the default seed in one batch and reports seeded=true. Seed tasks
// are stamped with the current time when it falls inside day and with the
// day's first instant otherwise, so they always belong to day.
func (s *Service) EnsureSeeded(ctx context.Context, userID string, day model.Day) ([]model.Task, bool, error) {
	if err := requireUser(userID); err != nil {
		return nil, false, err
	}
	filter := storage.DayFilter(userID, day)
	existing, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return existing, false, nil
	}

	stamp := s.now()
	if !day.Contains(stamp) {
		stamp = day.Start()
	}
	drafts := model.DefaultSeed()
	seed := make([]model.Task, 0, len(drafts))
	for _, d := range drafts {
		seed = append(seed, model.Task{
			ID:        s.newID(),
			UserID:    userID,
			Title:     d.Title,
			Category:  d.Category,
			Priority:  d.Priority,
			CreatedAt: stamp.UTC(),
			IsDefault: true,
		})
	}

	wrote, err := s.store.SeedTasks(ctx, filter, seed)
	if err != nil {
		return nil, false, err
	}
	if !wrote {
		// Another request seeded the day between our read and our write.
		current, err := s.store.ListTasks(ctx, filter)
		return current, false, err
	}
	s.logger.Info("seeded default tasks",
		zap.String("user_id", userID),
		zap.String("day", day.String()),
		zap.Int("count", len(seed)),
	)
	return seed, true, nil
}

// ListTasks reads the tasks created on day without seeding.
func (s *Service) ListTasks(ctx context.Context, userID string, day model.Day) ([]model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, storage.DayFilter(userID, day))
}

// QueryTasks reads a filtered page of day's tasks without seeding.
func (s *Service) QueryTasks(ctx context.Context, userID string, day model.Day, q TaskQuery) (TaskPage, error) {
	if err := requireUser(userID); err != nil {
		return TaskPage{}, err
	}
	if q.Limit < 0 || q.Offset < 0 || q.Limit > MaxPageSize {
		return TaskPage{}, fmt.Errorf("%w: %w: limit=%d offset=%d", ErrValidation, ErrInvalidPage, q.Limit, q.Offset)
	}
	filter := storage.DayFilter(userID, day)
	filter.Completed = q.Completed
	filter.Limit = q.Limit
	filter.Offset = q.Offset

	list, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return TaskPage{}, err
	}
	total, err := s.store.CountTasks(ctx, filter)
	if err != nil {
		return TaskPage{}, err
	}
	return TaskPage{Tasks: list, Total: total}, nil
}

// CreateTask persists a user-authored task. Progress is left untouched until
// the next completion toggle.
func (s *Service) CreateTask(ctx context.Context, userID string, draft model.TaskDraft) (model.Task, error) {
	if err := requireUser(userID); err != nil {
		return model.Task{}, err
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	task := model.Task{
		ID:          s.newID(),
		UserID:      userID,
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Priority:    draft.Priority,
		DueDate:     draft.DueDate,
		Time:        draft.Time,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// SetTaskCompletion updates one of userID's tasks and recomputes the
// progress record for day. The HTTP surface passes today, which means a
// toggle on an older task refreshes today's record rather than the task's.
func (s *Service) SetTaskCompletion(ctx context.Context, userID, taskID string, completed bool, day model.Day) (model.Task, error) {
	if err := requireUser(userID); err != nil {
		return model.Task{}, err
	}
	if strings.TrimSpace(taskID) == "" {
		return model.Task{}, ErrNotFound
	}
	task, err := s.store.SetTaskCompleted(ctx, userID, taskID, completed)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, taskID)
		}
		return model.Task{}, err
	}
	if _, err := s.RecomputeProgress(ctx, userID, day); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// RecomputeProgress rescans day's tasks and upserts the matching record.
// A zero day means today.
func (s *Service) RecomputeProgress(ctx context.Context, userID string, day model.Day) (model.ProgressRecord, error) {
	if err := requireUser(userID); err != nil {
		return model.ProgressRecord{}, err
	}
	if day.IsZero() {
		day = s.Today()
	}
	tasks, err := s.store.ListTasks(ctx, storage.DayFilter(userID, day))
	if err != nil {
		return model.ProgressRecord{}, err
	}
	completed, total := model.Summarize(tasks)
	rec := model.ProgressRecord{
		UserID:         userID,
		Day:            day,
		CompletedTasks: completed,
		TotalTasks:     total,
	}
	if err := s.store.UpsertProgress(ctx, rec); err != nil {
		return model.ProgressRecord{}, err
	}
	s.logger.Debug("progress recomputed",
		zap.String("user_id", userID),
		zap.String("day", day.String()),
		zap.Int("completed", completed),
		zap.Int("total", total),
	)
	return rec, nil
}

// GetProgress returns the stored record for day, or ErrNotFound when no
// toggle has produced one yet.
func (s *Service) GetProgress(ctx context.Context, userID string, day model.Day) (model.ProgressRecord, error) {
	if err := requireUser(userID); err != nil {
		return model.ProgressRecord{}, err
	}
	rec, err := s.store.GetProgress(ctx, userID, day)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.ProgressRecord{}, fmt.Errorf("%w: no progress for %s", ErrNotFound, day)
		}
		return model.ProgressRecord{}, err
	}
	return rec, nil
}

// ProgressHistory returns the stored records for from..to inclusive.
func (s *Service) ProgressHistory(ctx context.Context, userID string, from, to model.Day) ([]model.ProgressRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range ends before it starts", ErrValidation)
	}
	if from.AddDays(MaxHistoryDays - 1).Before(to) {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrValidation, MaxHistoryDays)
	}
	return s.store.ListProgress(ctx, storage.ProgressListFilter{UserID: userID, From: from, To: to})
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUser
	}
	return nil
}
