package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidProgress = errors.New("model: invalid progress record")

// ProgressRecord is the per-user, per-day projection of task completion.
type ProgressRecord struct {
	UserID         string `json:"userId"`
	Day            Day    `json:"date"`
	CompletedTasks int    `json:"completedTasks"`
	TotalTasks     int    `json:"totalTasks"`
}

func (p ProgressRecord) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("model: progress user id is required")
	}
	if p.Day.IsZero() {
		return fmt.Errorf("%w: day is required", ErrInvalidProgress)
	}
	if p.CompletedTasks < 0 || p.TotalTasks < 0 || p.CompletedTasks > p.TotalTasks {
		return fmt.Errorf("%w: completed=%d total=%d", ErrInvalidProgress, p.CompletedTasks, p.TotalTasks)
	}
	return nil
}

func (p ProgressRecord) Ratio() float64 {
	if p.TotalTasks == 0 {
		return 0
	}
	return float64(p.CompletedTasks) / float64(p.TotalTasks)
}

// Summarize counts completed and total tasks.
func Summarize(tasks []Task) (completed, total int) {
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return completed, len(tasks)
}
