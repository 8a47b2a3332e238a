package update

import (
	"strings"

	"github.com/sandeepkv93/dharmasync/internal/model"
	"github.com/sandeepkv93/dharmasync/internal/views"
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	items := make([]views.TaskItemData, 0, len(m.Day.Tasks))
	for _, t := range m.Day.Tasks {
		items = append(items, taskItem(t))
	}
	selectedID := ""
	var selected *views.TaskItemData
	if t, ok := m.selectedTask(); ok {
		selectedID = t.ID
		item := taskItem(t)
		selected = &item
	}

	left := views.RenderDayPanel(views.DayPanelData{
		Date:        m.Day.Day.String(),
		IsToday:     m.IsToday(),
		Items:       items,
		SelectedID:  selectedID,
		Loading:     m.Day.Loading,
		SpinnerView: m.loadSpinner.View(),
	})

	right := []string{
		views.RenderProgressPanel(views.ProgressPanelData{
			Completed: m.Day.Progress.CompletedTasks,
			Total:     m.Day.Progress.TotalTasks,
			BarView:   m.progressBar.ViewAs(m.Day.Progress.Ratio()),
		}),
		views.RenderTaskDetail(selected),
	}
	if md := views.RenderMarkdown(views.DaySummaryMarkdown(m.Day.Day.String(), items)); md != "" {
		right = append(right, md)
	}
	if helpView := m.renderHelpIfVisible(); helpView != "" {
		right = append(right, helpView)
	}

	palette := ""
	if m.Palette.Active {
		palette = views.RenderCommandPalette(true, m.commandInput.Value())
	}

	return views.RenderApp(views.AppData{
		Header:      "dharmasync | " + m.userID,
		LeftPane:    left,
		RightPane:   strings.Join(right, "\n\n"),
		StatusLine:  m.Status.Text,
		StatusError: m.Status.IsError,
		Palette:     palette,
		Footer:      m.helpModel.ShortHelpView(m.Keys.ShortHelp()),
		Width:       m.width,
	})
}

func taskItem(t model.Task) views.TaskItemData {
	return views.TaskItemData{
		ID:        t.ID,
		Title:     t.Title,
		Category:  string(t.Category),
		Priority:  string(t.Priority),
		Time:      t.Time,
		Completed: t.Completed,
		IsDefault: t.IsDefault,
	}
}
