package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dharmasync/internal/commands"
	"github.com/sandeepkv93/dharmasync/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		case tea.KeySpace:
			m.commandInput.SetValue(m.commandInput.Value() + " ")
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m *Model) closePalette() {
	m.Palette = CommandPaletteState{}
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var next tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			draft := model.TaskDraft{
				Title:    a.Title,
				Category: model.Category(orDefault(a.Category, string(model.CategoryPersonal))),
				Priority: model.Priority(orDefault(a.Priority, string(model.PriorityMedium))),
			}
			next = m.createTaskCmd(draft)
			return commands.Result{Message: fmt.Sprintf("adding: %s", a.Title)}, nil
		},
		Done: func(a commands.MarkArgs) (commands.Result, error) {
			task, err := m.taskAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			next = m.setCompletionCmd(task, true, m.Day.Day)
			return commands.Result{Message: fmt.Sprintf("completing: %s", task.Title)}, nil
		},
		Undo: func(a commands.MarkArgs) (commands.Result, error) {
			task, err := m.taskAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			next = m.setCompletionCmd(task, false, m.Day.Day)
			return commands.Result{Message: fmt.Sprintf("reopening: %s", task.Title)}, nil
		},
		Show: func(a commands.ShowArgs) (commands.Result, error) {
			day, err := m.resolveDay(a.Day)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			m.Day = DayState{Day: day, Loading: true}
			next = tea.Batch(m.loadSpinner.Tick, m.loadDayCmd(day))
			return commands.Result{Message: fmt.Sprintf("showing %s", day)}, nil
		},
		Refresh: func() (commands.Result, error) {
			m.Day.Loading = true
			next = tea.Batch(m.loadSpinner.Tick, m.loadDayCmd(m.Day.Day))
			return commands.Result{Message: "refreshing"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, next
}

func (m Model) taskAt(index int) (model.Task, error) {
	if index < 1 || index > len(m.Day.Tasks) {
		return model.Task{}, &commands.CommandError{
			Code:    commands.ErrCodeInvalidArgument,
			Message: fmt.Sprintf("no task #%d (have %d)", index, len(m.Day.Tasks)),
		}
	}
	return m.Day.Tasks[index-1], nil
}

func (m Model) resolveDay(s string) (model.Day, error) {
	today := m.svc.Today()
	switch s {
	case "today":
		return today, nil
	case "yesterday":
		return today.Prev(), nil
	case "tomorrow":
		return today.Next(), nil
	default:
		return model.ParseDay(s, m.svc.Location())
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
