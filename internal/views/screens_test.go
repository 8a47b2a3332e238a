package views

import (
	"strings"
	"testing"
)

func TestRenderDayPanelMarksSelectionAndCompletion(t *testing.T) {
	out := RenderDayPanel(DayPanelData{
		Date:    "2026-02-10",
		IsToday: true,
		Items: []TaskItemData{
			{ID: "a", Title: "Morning meditation", Priority: "high", Completed: true},
			{ID: "b", Title: "Call Family", Priority: "medium", Time: "18:30"},
		},
		SelectedID: "b",
	})
	if !strings.Contains(out, "2026-02-10 (today)") {
		t.Fatalf("missing date header:\n%s", out)
	}
	if !strings.Contains(out, "[x]") || !strings.Contains(out, "[ ]") {
		t.Fatalf("missing completion boxes:\n%s", out)
	}
	if !strings.Contains(out, "@18:30") {
		t.Fatalf("missing time:\n%s", out)
	}
	if !strings.Contains(out, "[RED]") || !strings.Contains(out, "[YELLOW]") {
		t.Fatalf("missing priority badges:\n%s", out)
	}
}

func TestRenderDayPanelStates(t *testing.T) {
	if out := RenderDayPanel(DayPanelData{Date: "2026-02-09"}); !strings.Contains(out, "no tasks") {
		t.Fatalf("expected empty state:\n%s", out)
	}
	if out := RenderDayPanel(DayPanelData{Date: "2026-02-09", Loading: true, SpinnerView: "*"}); !strings.Contains(out, "loading") {
		t.Fatalf("expected loading state:\n%s", out)
	}
}

func TestRenderProgressPanel(t *testing.T) {
	out := RenderProgressPanel(ProgressPanelData{Completed: 1, Total: 4, BarView: "##--"})
	if !strings.Contains(out, "1 of 4 done (25%)") {
		t.Fatalf("unexpected progress panel:\n%s", out)
	}
	if out := RenderProgressPanel(ProgressPanelData{}); !strings.Contains(out, "(0%)") {
		t.Fatalf("zero total must not divide:\n%s", out)
	}
}

func TestDaySummaryMarkdownGroupsByCategory(t *testing.T) {
	md := DaySummaryMarkdown("2026-02-10", []TaskItemData{
		{Title: "Morning meditation", Category: "mindfulness", Completed: true},
		{Title: "Call Family", Category: "personal"},
		{Title: "Mindful walking", Category: "mindfulness"},
	})
	if !strings.Contains(md, "## 2026-02-10") {
		t.Fatalf("missing heading:\n%s", md)
	}
	first := strings.Index(md, "**mindfulness**")
	second := strings.Index(md, "**personal**")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("categories out of order:\n%s", md)
	}
	if !strings.Contains(md, "- [x] Morning meditation") {
		t.Fatalf("missing completed item:\n%s", md)
	}
	if DaySummaryMarkdown("2026-02-10", nil) != "" {
		t.Fatal("expected empty markdown for empty day")
	}
}

func TestRenderTaskDetail(t *testing.T) {
	if out := RenderTaskDetail(nil); !strings.Contains(out, "no selection") {
		t.Fatalf("unexpected detail: %s", out)
	}
	out := RenderTaskDetail(&TaskItemData{Title: "Call Family", Category: "personal", Priority: "medium", IsDefault: true})
	if !strings.Contains(out, "kind: default") {
		t.Fatalf("unexpected detail: %s", out)
	}
}
