package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dharmasync/internal/model"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSpinner.Tick, m.loadDayCmd(m.Day.Day))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.helpModel.Width = typed.Width
		return m, nil
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.Day.Loading {
			var cmd tea.Cmd
			m.loadSpinner, cmd = m.loadSpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case DayLoadedMsg:
		if !typed.Day.Equal(m.Day.Day) {
			// A newer navigation superseded this load.
			return m, nil
		}
		m.Day = DayState{Day: typed.Day, Tasks: typed.Tasks, Progress: typed.Progress}
		m.LastError = nil
		if typed.Seeded {
			m.Status = StatusBar{Text: fmt.Sprintf("seeded %d default tasks for %s", len(typed.Tasks), typed.Day)}
		} else {
			m.Status = StatusBar{Text: fmt.Sprintf("loaded %d tasks for %s", len(typed.Tasks), typed.Day)}
		}
		return m, nil
	case TaskUpdatedMsg:
		for i := range m.Day.Tasks {
			if m.Day.Tasks[i].ID == typed.Task.ID {
				m.Day.Tasks[i] = typed.Task
			}
		}
		if typed.Progress.Day.Equal(m.Day.Day) {
			m.Day.Progress = typed.Progress
		}
		verb := "reopened"
		if typed.Task.Completed {
			verb = "completed"
		}
		m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", verb, typed.Task.Title)}
		return m, nil
	case TaskCreatedMsg:
		if m.Day.Day.Contains(typed.Task.CreatedAt) {
			m.Day.Tasks = append(m.Day.Tasks, typed.Task)
		}
		m.Status = StatusBar{Text: fmt.Sprintf("added: %s", typed.Task.Title)}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		m.Day.Loading = false
		m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Help):
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case key.Matches(msg, m.Keys.Palette):
		m.Palette = CommandPaletteState{Active: true}
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case key.Matches(msg, m.Keys.Up):
		if m.Day.Cursor > 0 {
			m.Day.Cursor--
		}
		return m, nil
	case key.Matches(msg, m.Keys.Down):
		if m.Day.Cursor < len(m.Day.Tasks)-1 {
			m.Day.Cursor++
		}
		return m, nil
	case key.Matches(msg, m.Keys.Toggle):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.setCompletionCmd(task, !task.Completed, m.Day.Day)
	case key.Matches(msg, m.Keys.PrevDay):
		return m.switchDay(m.Day.Day.Prev())
	case key.Matches(msg, m.Keys.NextDay):
		return m.switchDay(m.Day.Day.Next())
	case key.Matches(msg, m.Keys.Today):
		return m.switchDay(m.svc.Today())
	case key.Matches(msg, m.Keys.Refresh):
		return m.switchDay(m.Day.Day)
	case key.Matches(msg, m.Keys.Copy):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		if err := m.copyText(task.Title); err != nil {
			m.Status = StatusBar{Text: "copy failed: " + err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "copied: " + task.Title}
		return m, nil
	}
	return m, nil
}

func (m Model) switchDay(day model.Day) (tea.Model, tea.Cmd) {
	m.Day = DayState{Day: day, Loading: true}
	return m, tea.Batch(m.loadSpinner.Tick, m.loadDayCmd(day))
}
