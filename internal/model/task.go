package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidCategory = errors.New("model: invalid task category")
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrTitleRequired   = errors.New("model: task title is required")
	ErrInvalidDueDate  = errors.New("model: invalid task due date")
	ErrInvalidTime     = errors.New("model: invalid task time")
)

const (
	dueDateLayout = "2006-01-02"
	timeLayout    = "15:04"
)

type Category string

const (
	CategoryMindfulness Category = "mindfulness"
	CategoryWork        Category = "work"
	CategoryPersonal    Category = "personal"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryMindfulness, CategoryWork, CategoryPersonal:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	DueDate     string    `json:"dueDate,omitempty"`
	Time        string    `json:"time,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	IsDefault   bool      `json:"isDefault"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.UserID) == "" {
		return errors.New("model: task user id is required")
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return t.Draft().Validate()
}

// Draft returns the user-editable fields of t.
func (t Task) Draft() TaskDraft {
	return TaskDraft{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Time:        t.Time,
	}
}

// TaskDraft holds the fields a user supplies when creating a task.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate,omitempty"`
	Time        string   `json:"time,omitempty"`
}

func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if !d.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, d.Category)
	}
	if !d.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, d.Priority)
	}
	if d.DueDate != "" {
		if _, err := time.Parse(dueDateLayout, d.DueDate); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDueDate, d.DueDate)
		}
	}
	if d.Time != "" {
		if _, err := time.Parse(timeLayout, d.Time); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTime, d.Time)
		}
	}
	return nil
}

// Normalize trims free text and lower-cases the enum fields.
func (d TaskDraft) Normalize() TaskDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = Category(strings.ToLower(strings.TrimSpace(string(d.Category))))
	d.Priority = Priority(strings.ToLower(strings.TrimSpace(string(d.Priority))))
	d.DueDate = strings.TrimSpace(d.DueDate)
	d.Time = strings.TrimSpace(d.Time)
	return d
}

// DefaultSeed is the task list a user receives the first time a day is opened.
func DefaultSeed() []TaskDraft {
	return []TaskDraft{
		{Title: "Morning meditation", Category: CategoryMindfulness, Priority: PriorityHigh},
		{Title: "Call Family", Category: CategoryPersonal, Priority: PriorityMedium},
		{Title: "Mindful walking", Category: CategoryMindfulness, Priority: PriorityLow},
		{Title: "Write down the Goals for next week", Category: CategoryWork, Priority: PriorityMedium},
	}
}
