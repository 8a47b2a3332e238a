package update

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/dharmasync/internal/model"
)

// TaskService is the lifecycle the terminal client drives.
type TaskService interface {
	Today() model.Day
	Location() *time.Location
	EnsureSeeded(ctx context.Context, userID string, day model.Day) ([]model.Task, bool, error)
	ListTasks(ctx context.Context, userID string, day model.Day) ([]model.Task, error)
	CreateTask(ctx context.Context, userID string, draft model.TaskDraft) (model.Task, error)
	SetTaskCompletion(ctx context.Context, userID, taskID string, completed bool, day model.Day) (model.Task, error)
	GetProgress(ctx context.Context, userID string, day model.Day) (model.ProgressRecord, error)
}

type StatusBar struct {
	Text    string
	IsError bool
}

type DayState struct {
	Day      model.Day
	Tasks    []model.Task
	Progress model.ProgressRecord
	Cursor   int
	Loading  bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	ctx         context.Context
	svc         TaskService
	userID      string
	Day         DayState
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	LastError   error
	Quitting    bool
	Keys        keyMap
	width       int
	copyText    func(string) error
	// Bubble components
	commandInput textinput.Model
	progressBar  progress.Model
	loadSpinner  spinner.Model
	helpModel    help.Model
}

type DayLoadedMsg struct {
	Day      model.Day
	Tasks    []model.Task
	Progress model.ProgressRecord
	Seeded   bool
}

type TaskUpdatedMsg struct {
	Task     model.Task
	Progress model.ProgressRecord
}

type TaskCreatedMsg struct {
	Task model.Task
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// NewModel builds the client for userID. The first load happens in Init.
func NewModel(ctx context.Context, svc TaskService, userID string) Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "add <title> #category !priority | done <n> | undo <n> | show <day> | refresh"
	input.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:    ctx,
		svc:    svc,
		userID: userID,
		Day: DayState{
			Day:     svc.Today(),
			Loading: true,
		},
		Keys:         defaultKeyMap(),
		copyText:     clipboard.WriteAll,
		commandInput: input,
		progressBar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		loadSpinner:  sp,
		helpModel:    help.New(),
	}
}

func (m Model) UserID() string { return m.userID }

func (m Model) IsToday() bool {
	return m.Day.Day.Equal(m.svc.Today())
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.Day.Cursor < 0 || m.Day.Cursor >= len(m.Day.Tasks) {
		return model.Task{}, false
	}
	return m.Day.Tasks[m.Day.Cursor], true
}
