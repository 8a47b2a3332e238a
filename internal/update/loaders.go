package update

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dharmasync/internal/model"
	"github.com/sandeepkv93/dharmasync/internal/tasks"
)

// loadDayCmd reads day's tasks and its progress record. Today is seeded on
// first read; other days are read as they are.
func (m Model) loadDayCmd(day model.Day) tea.Cmd {
	ctx, svc, userID := m.ctx, m.svc, m.userID
	isToday := day.Equal(svc.Today())
	return func() tea.Msg {
		var (
			list   []model.Task
			seeded bool
			err    error
		)
		if isToday {
			list, seeded, err = svc.EnsureSeeded(ctx, userID, day)
		} else {
			list, err = svc.ListTasks(ctx, userID, day)
		}
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		rec, err := progressOrZero(m, day)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return DayLoadedMsg{Day: day, Tasks: list, Progress: rec, Seeded: seeded}
	}
}

func (m Model) setCompletionCmd(task model.Task, completed bool, day model.Day) tea.Cmd {
	ctx, svc, userID := m.ctx, m.svc, m.userID
	return func() tea.Msg {
		updated, err := svc.SetTaskCompletion(ctx, userID, task.ID, completed, day)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		rec, err := progressOrZero(m, day)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return TaskUpdatedMsg{Task: updated, Progress: rec}
	}
}

func (m Model) createTaskCmd(draft model.TaskDraft) tea.Cmd {
	ctx, svc, userID := m.ctx, m.svc, m.userID
	return func() tea.Msg {
		task, err := svc.CreateTask(ctx, userID, draft)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return TaskCreatedMsg{Task: task}
	}
}

func progressOrZero(m Model, day model.Day) (model.ProgressRecord, error) {
	rec, err := m.svc.GetProgress(m.ctx, m.userID, day)
	if errors.Is(err, tasks.ErrNotFound) {
		return model.ProgressRecord{UserID: m.userID, Day: day}, nil
	}
	return rec, err
}
