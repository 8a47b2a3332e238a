package storage

import (
	"time"

	"github.com/sandeepkv93/dharmasync/internal/model"
)

// TaskListFilter selects one user's tasks. From and To bound created_at as
// the half-open range [From, To); a zero bound is open. Limit and Offset
// page through the created_at order; zero means no limit.
type TaskListFilter struct {
	UserID    string
	From      time.Time
	To        time.Time
	Completed *bool
	Limit     int
	Offset    int
}

// DayFilter returns the filter for every task userID created on day.
func DayFilter(userID string, day model.Day) TaskListFilter {
	from, to := day.Window()
	return TaskListFilter{UserID: userID, From: from, To: to}
}

// ProgressListFilter selects progress records with From <= day <= To.
// Both days must share a location; records are returned in it.
type ProgressListFilter struct {
	UserID string
	From   model.Day
	To     model.Day
}
