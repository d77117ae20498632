package tui

import (
	"fabric_tui/internal/state"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Refresh  key.Binding
	Clear    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q/esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear history"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f", " "),
			key.WithHelp("pgdn", "page down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// stateKey maps a key press to a state machine key
func (k keyMap) stateKey(msg tea.KeyMsg) (state.Key, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return state.KeyUp, true
	case key.Matches(msg, k.Down):
		return state.KeyDown, true
	case key.Matches(msg, k.Enter):
		return state.KeyEnter, true
	case key.Matches(msg, k.Back):
		return state.KeyBack, true
	case key.Matches(msg, k.Refresh):
		return state.KeyRefresh, true
	case key.Matches(msg, k.Clear):
		return state.KeyClear, true
	}
	return 0, false
}

// viewKeys is the help key map for one view
type viewKeys struct {
	keys keyMap
	view state.View
	busy bool
}

func (v viewKeys) ShortHelp() []key.Binding {
	if v.busy {
		return []key.Binding{withHelp(v.keys.Back, "esc", "cancel"), v.keys.Quit}
	}

	b := []key.Binding{v.keys.Up, v.keys.Down, v.keys.Enter}
	switch v.view {
	case state.ViewWorkspaces:
		b = append(b, v.keys.Refresh)
	case state.ViewJobStatus:
		b = append(b, v.keys.Refresh)
	case state.ViewCommandHistory:
		b = append(b, v.keys.Clear)
	case state.ViewOutput:
		b = []key.Binding{v.keys.Up, v.keys.Down, v.keys.PageUp, v.keys.PageDown}
	}

	back := v.keys.Back
	if v.view == state.ViewMain {
		back = withHelp(back, "q", "quit")
	}
	return append(b, back)
}

func (v viewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{v.ShortHelp(), {v.keys.Quit}}
}

// withHelp copies a binding with different help text
func withHelp(b key.Binding, k, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(b.Keys()...), key.WithHelp(k, desc))
}
