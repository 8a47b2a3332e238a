package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/dharmasync/internal/model"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrConflict      = errors.New("storage: conflict")
	ErrMissingUserID = errors.New("storage: user id is required")
)

type TaskStore interface {
	CreateTask(ctx context.Context, in model.Task) error
	// SeedTasks inserts seed in one batch only if no task matches filter.
	// It reports whether the batch was written.
	SeedTasks(ctx context.Context, filter TaskListFilter, seed []model.Task) (bool, error)
	GetTask(ctx context.Context, userID, id string) (model.Task, error)
	SetTaskCompleted(ctx context.Context, userID, id string, completed bool) (model.Task, error)
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)
	// CountTasks ignores the filter's Limit and Offset.
	CountTasks(ctx context.Context, filter TaskListFilter) (int, error)
}

type ProgressStore interface {
	UpsertProgress(ctx context.Context, in model.ProgressRecord) error
	GetProgress(ctx context.Context, userID string, day model.Day) (model.ProgressRecord, error)
	ListProgress(ctx context.Context, filter ProgressListFilter) ([]model.ProgressRecord, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, in model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	// UpdateUser rewrites the profile fields and updated_at of an existing
	// user. The password hash and created_at are left alone.
	UpdateUser(ctx context.Context, in model.User) error
}

type Repository interface {
	TaskStore
	ProgressStore
	UserStore
	Close() error
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)
