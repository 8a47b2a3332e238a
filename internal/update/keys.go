package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/dharmasync/internal/views"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	PrevDay key.Binding
	NextDay key.Binding
	Today   key.Binding
	Copy    key.Binding
	Refresh key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "move up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "move down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space/x", "toggle done")),
		PrevDay: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "previous day")),
		NextDay: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l", "next day")),
		Today:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "jump to today")),
		Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Palette: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command palette")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Copy},
		{k.PrevDay, k.NextDay, k.Today, k.Refresh},
		{k.Palette, k.Help, k.Quit},
	}
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	var plain []string
	for _, group := range m.Keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			plain = append(plain, fmt.Sprintf("- %s: %s", h.Key, h.Desc))
		}
	}
	hm := m.helpModel
	hm.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: hm.View(m.Keys),
	})
}
