package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:        "task-1",
		UserID:    "user-1",
		Title:     "Morning meditation",
		Category:  CategoryMindfulness,
		Priority:  PriorityHigh,
		DueDate:   "2026-02-09",
		Time:      "06:00",
		CreatedAt: now,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateRequiresOwner(t *testing.T) {
	task := Task{
		ID:        "task-1",
		Title:     "Orphan",
		Category:  CategoryWork,
		Priority:  PriorityLow,
		CreatedAt: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
	}
	err := task.Validate()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "model: task user id is required" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskDraftValidateInvalidFields(t *testing.T) {
	draft := TaskDraft{Title: "  ", Category: CategoryWork, Priority: PriorityLow}
	if err := draft.Validate(); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got: %v", err)
	}

	draft.Title = "Read 10 pages"
	draft.Category = Category("hobby")
	if err := draft.Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got: %v", err)
	}

	draft.Category = CategoryPersonal
	draft.Priority = Priority("urgent")
	if err := draft.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got: %v", err)
	}

	draft.Priority = PriorityLow
	draft.DueDate = "tomorrow"
	if err := draft.Validate(); !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got: %v", err)
	}

	draft.DueDate = ""
	draft.Time = "25:99"
	if err := draft.Validate(); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got: %v", err)
	}
}

func TestTaskDraftNormalize(t *testing.T) {
	got := TaskDraft{Title: "  Read 10 pages ", Category: " Personal", Priority: "LOW"}.Normalize()
	if got.Title != "Read 10 pages" || got.Category != CategoryPersonal || got.Priority != PriorityLow {
		t.Fatalf("unexpected normalized draft: %+v", got)
	}
}

func TestDefaultSeed(t *testing.T) {
	seed := DefaultSeed()
	want := []struct {
		title    string
		category Category
		priority Priority
	}{
		{"Morning meditation", CategoryMindfulness, PriorityHigh},
		{"Call Family", CategoryPersonal, PriorityMedium},
		{"Mindful walking", CategoryMindfulness, PriorityLow},
		{"Write down the Goals for next week", CategoryWork, PriorityMedium},
	}
	if len(seed) != len(want) {
		t.Fatalf("seed length = %d, want %d", len(seed), len(want))
	}
	for i, w := range want {
		if seed[i].Title != w.title || seed[i].Category != w.category || seed[i].Priority != w.priority {
			t.Fatalf("seed[%d] = %+v, want %+v", i, seed[i], w)
		}
		if err := seed[i].Validate(); err != nil {
			t.Fatalf("seed[%d] invalid: %v", i, err)
		}
	}
}
