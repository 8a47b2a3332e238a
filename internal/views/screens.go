package views

import (
	"fmt"
	"strings"
)

type TaskItemData struct {
	ID        string
	Title     string
	Category  string
	Priority  string
	Time      string
	Completed bool
	IsDefault bool
}

type DayPanelData struct {
	Date        string
	IsToday     bool
	Items       []TaskItemData
	SelectedID  string
	Loading     bool
	SpinnerView string
}

type ProgressPanelData struct {
	Completed int
	Total     int
	BarView   string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderDayPanel(data DayPanelData) string {
	var b strings.Builder
	label := data.Date
	if data.IsToday {
		label += " (today)"
	}
	b.WriteString(fmt.Sprintf("tasks: %s\n", label))
	b.WriteString("actions: [j/k]move [space]toggle [h/l]day [t]today [/]command\n")
	if data.Loading {
		b.WriteString(fmt.Sprintf("\n%s loading...", data.SpinnerView))
		return b.String()
	}
	if len(data.Items) == 0 {
		b.WriteString("\n(no tasks for this day)")
		return b.String()
	}
	b.WriteString("\n")
	for i, item := range data.Items {
		cursor := " "
		if item.ID == data.SelectedID {
			cursor = cursorStyle.Render(">")
		}
		check := "[ ]"
		title := item.Title
		if item.Completed {
			check = "[x]"
			title = doneStyle.Render(title)
		}
		b.WriteString(fmt.Sprintf("%s %2d. %s %s %s", cursor, i+1, check, priorityBadge(item.Priority), title))
		if item.Time != "" {
			b.WriteString(fmt.Sprintf(" @%s", item.Time))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderProgressPanel(data ProgressPanelData) string {
	pct := 0
	if data.Total > 0 {
		pct = data.Completed * 100 / data.Total
	}
	return fmt.Sprintf("progress:\n%s\n%d of %d done (%d%%)", data.BarView, data.Completed, data.Total, pct)
}

// RenderTaskDetail describes the selected task, or nothing without one.
func RenderTaskDetail(item *TaskItemData) string {
	if item == nil {
		return "selected:\n(no selection)"
	}
	kind := "custom"
	if item.IsDefault {
		kind = "default"
	}
	return fmt.Sprintf("selected:\ntitle: %s\ncategory: %s\npriority: %s\nkind: %s",
		item.Title, item.Category, item.Priority, kind)
}

// DaySummaryMarkdown builds the markdown summary shown under the progress
// panel.
func DaySummaryMarkdown(date string, items []TaskItemData) string {
	if len(items) == 0 {
		return ""
	}
	byCategory := map[string][]TaskItemData{}
	order := make([]string, 0, 3)
	for _, item := range items {
		if _, ok := byCategory[item.Category]; !ok {
			order = append(order, item.Category)
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## %s\n\n", date))
	for _, category := range order {
		b.WriteString(fmt.Sprintf("**%s**\n\n", category))
		for _, item := range byCategory[category] {
			mark := " "
			if item.Completed {
				mark = "x"
			}
			b.WriteString(fmt.Sprintf("- [%s] %s\n", mark, item.Title))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}

func priorityBadge(priority string) string {
	switch priority {
	case "high":
		return "[RED]"
	case "medium":
		return "[YELLOW]"
	default:
		return "[GREEN]"
	}
}
