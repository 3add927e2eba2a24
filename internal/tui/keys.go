package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	Search    key.Binding
	Add       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Grow      key.Binding
	Shrink    key.Binding
	Unpaged   key.Binding
	Clear     key.Binding
	Blur      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		NextPage:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Grow:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "page size +1")),
		Shrink:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "page size -1")),
		Unpaged:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "show all")),
		Clear:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		Blur:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "leave field")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Add, k.Edit, k.Delete, k.PrevPage, k.NextPage, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Search, k.Clear, k.Add, k.Edit, k.Delete},
		{k.Grow, k.Shrink, k.Unpaged},
		{k.Blur, k.Quit, k.Help},
	}
}
