// Package tui is the interactive terminal front end of the todo client. It
// renders the controller's view and drives the inline editor; every call
// that may reach the server runs inside a tea.Cmd.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todolist/internal/controller"
	"github.com/vyrodovalexey/todolist/internal/editview"
	"github.com/vyrodovalexey/todolist/internal/model"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAdd
	modeEdit
)

// Screen layout used to map mouse clicks back to items.
const (
	itemsTop   = 3
	itemIndent = 2

	saveLabel   = "[ save ]"
	cancelLabel = "[ cancel ]"

	doubleClickWindow = 400 * time.Millisecond
)

type refreshedMsg struct {
	err error
}

type editBegunMsg struct {
	id  string
	err error
}

type editClosedMsg struct {
	wrote bool
	err   error
}

type click struct {
	at  time.Time
	row int
}

// Model is the bubbletea model of the todo list screen.
type Model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	editor *editview.Editor
	logger *zap.Logger

	keys   keyMap
	help   help.Model
	search textinput.Model
	add    textinput.Model
	edit   textinput.Model

	mode         mode
	state        controller.State
	cursor       int
	lastPageSize int
	lastClick    click
	err          string

	now func() time.Time
}

// New builds the model. The first refresh is issued by Init.
func New(ctx context.Context, ctrl *controller.Controller, editor *editview.Editor, logger *zap.Logger) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search..."

	add := textinput.New()
	add.Prompt = "+ "
	add.Placeholder = "new item..."
	add.CharLimit = 500

	edit := textinput.New()
	edit.Prompt = ""
	edit.CharLimit = 500

	state := ctrl.Snapshot()
	lastPageSize := state.PageSize
	if lastPageSize <= 0 {
		lastPageSize = model.DefaultPerPage
	}

	return Model{
		ctx:          ctx,
		ctrl:         ctrl,
		editor:       editor,
		logger:       logger,
		keys:         defaultKeyMap(),
		help:         help.New(),
		search:       search,
		add:          add,
		edit:         edit,
		state:        state,
		lastPageSize: lastPageSize,
		now:          time.Now,
	}
}

// Run starts the program on the alternate screen with mouse support and
// blocks until the user quits.
func Run(ctx context.Context, ctrl *controller.Controller, editor *editview.Editor, logger *zap.Logger) error {
	m := New(ctx, ctrl, editor, logger)
	_, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.refresh(m.ctrl.Refresh)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case refreshedMsg:
		m.applySnapshot(msg.err)
		return m, nil

	case editBegunMsg:
		m.applySnapshot(msg.err)
		if msg.err != nil {
			return m, nil
		}
		st := m.editor.State()
		if st.Mode != editview.Editing || st.ItemID != msg.id {
			return m, nil
		}
		m.mode = modeEdit
		m.edit.SetValue(st.Draft)
		m.edit.SetCursor(st.Caret)
		cmd := m.edit.Focus()
		return m, cmd

	case editClosedMsg:
		m.applySnapshot(msg.err)
		if msg.wrote {
			m.logger.Debug("edit saved")
		}
		if m.editor.State().Mode == editview.Viewing && m.mode == modeEdit {
			m.mode = modeList
			m.edit.Blur()
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeEdit:
			return m.updateEdit(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		return m, m.refresh(m.ctrl.PrevPage)
	case key.Matches(msg, m.keys.NextPage):
		return m, m.refresh(m.ctrl.NextPage)
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.state.SearchText)
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.add.SetValue("")
		cmd := m.add.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		if it, ok := m.selected(); ok {
			return m, m.beginEdit(it, nil)
		}
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(); ok {
			id := it.ID
			return m, m.refresh(func(ctx context.Context) error {
				return m.ctrl.Remove(ctx, id)
			})
		}
	case key.Matches(msg, m.keys.Grow):
		n := m.state.PageSize + 1
		return m, m.setPageSize(n)
	case key.Matches(msg, m.keys.Shrink):
		if m.state.PageSize > 1 {
			return m, m.setPageSize(m.state.PageSize - 1)
		}
	case key.Matches(msg, m.keys.Unpaged):
		if m.state.PageSize > 0 {
			m.lastPageSize = m.state.PageSize
			return m, m.setPageSize(0)
		}
		return m, m.setPageSize(m.lastPageSize)
	case key.Matches(msg, m.keys.Clear):
		if m.state.SearchText != "" {
			return m, m.setSearch("")
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeList
		m.search.Blur()
		m.search.SetValue("")
		if m.state.SearchText == "" {
			return m, nil
		}
		return m, m.setSearch("")
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.setSearch(m.search.Value()))
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := m.add.Value()
		m.mode = modeList
		m.add.Blur()
		m.add.SetValue("")
		return m, m.refresh(func(ctx context.Context) error {
			return m.ctrl.Add(ctx, text)
		})
	case tea.KeyEsc:
		m.mode = modeList
		m.add.Blur()
		m.add.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.add, cmd = m.add.Update(msg)
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEnter:
		return m, m.closeEdit(m.editor.Confirm)
	case msg.Type == tea.KeyEsc:
		m.editor.Cancel()
		m.mode = modeList
		m.edit.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Blur):
		return m, m.closeEdit(m.editor.Blur)
	}

	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	m.editor.Input(m.edit.Value())
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	if m.mode == modeEdit {
		if msg.Y == m.controlsRow() {
			return m.pressControl(msg.X)
		}
		if idx, ok := m.rowAt(msg.Y); ok && m.editor.IsEditing(m.state.Items[idx].ID) {
			return m, nil
		}
		m.lastClick = click{at: m.now(), row: msg.Y}
		return m, m.closeEdit(m.editor.Blur)
	}

	idx, ok := m.rowAt(msg.Y)
	if !ok {
		m.lastClick = click{}
		return m, nil
	}
	m.cursor = idx

	now := m.now()
	double := m.lastClick.row == msg.Y && now.Sub(m.lastClick.at) <= doubleClickWindow
	m.lastClick = click{at: now, row: msg.Y}
	if !double {
		return m, nil
	}
	m.lastClick = click{}

	it := m.state.Items[idx]
	hint := editview.CaretRatio(msg.X-itemIndent, lipgloss.Width(it.Text))
	return m, m.beginEdit(it, &hint)
}

// pressControl handles a click on the save or cancel control. The press
// moves focus away from the field, so the blur it causes is swallowed.
func (m Model) pressControl(x int) (tea.Model, tea.Cmd) {
	saveEnd := lipgloss.Width(saveLabel)
	cancelStart := saveEnd + 1
	cancelEnd := cancelStart + lipgloss.Width(cancelLabel)

	switch {
	case x >= 0 && x < saveEnd:
		m.editor.PressControl()
		return m, m.closeEdit(func(ctx context.Context) (bool, error) {
			if _, err := m.editor.Blur(ctx); err != nil {
				return false, err
			}
			return m.editor.Save(ctx)
		})
	case x >= cancelStart && x < cancelEnd:
		m.editor.PressControl()
		if _, err := m.editor.Blur(m.ctx); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.editor.Cancel()
		m.mode = modeList
		m.edit.Blur()
	}
	return m, nil
}

func (m *Model) applySnapshot(err error) {
	m.state = m.ctrl.Snapshot()
	if m.cursor >= len(m.state.Items) {
		m.cursor = len(m.state.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if err != nil {
		m.err = err.Error()
		return
	}
	m.err = ""
}

func (m Model) selected() (model.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Items) {
		return model.Item{}, false
	}
	return m.state.Items[m.cursor], true
}

func (m Model) rowAt(y int) (int, bool) {
	idx := y - itemsTop
	if idx < 0 || idx >= len(m.state.Items) {
		return 0, false
	}
	return idx, true
}

func (m Model) controlsRow() int {
	rows := len(m.state.Items)
	if rows == 0 {
		rows = 1
	}
	return itemsTop + rows + 1
}

func (m Model) refresh(f func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return refreshedMsg{err: f(ctx)}
	}
}

func (m Model) setSearch(text string) tea.Cmd {
	return m.refresh(func(ctx context.Context) error {
		return m.ctrl.SetSearch(ctx, text)
	})
}

func (m Model) setPageSize(n int) tea.Cmd {
	return m.refresh(func(ctx context.Context) error {
		return m.ctrl.SetPageSize(ctx, n)
	})
}

func (m Model) beginEdit(it model.Item, hint *float64) tea.Cmd {
	ctx, editor := m.ctx, m.editor
	return func() tea.Msg {
		return editBegunMsg{id: it.ID, err: editor.Begin(ctx, it, hint)}
	}
}

func (m Model) closeEdit(f func(ctx context.Context) (bool, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		wrote, err := f(ctx)
		return editClosedMsg{wrote: wrote, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	lines := make([]string, 0, len(m.state.Items)+8)

	pageSize := "all"
	if m.state.PageSize > 0 {
		pageSize = strconv.Itoa(m.state.PageSize)
	}
	lines = append(lines, fmt.Sprintf("%s   %s %d   %s %d/%d   %s",
		titleStyle.Render("Todos"),
		accentStyle.Render("Total"), m.state.Total,
		pendingStyle.Render("Page"), m.state.Page, m.state.TotalPages(),
		mutedStyle.Render("per page "+pageSize),
	))

	switch {
	case m.mode == modeSearch:
		lines = append(lines, m.search.View())
	case m.state.SearchText != "":
		lines = append(lines, mutedStyle.Render("filter: ")+m.state.SearchText)
	default:
		lines = append(lines, mutedStyle.Render("press / to search"))
	}
	lines = append(lines, "")

	if len(m.state.Items) == 0 {
		lines = append(lines, mutedStyle.Render("  no items"))
	}
	for i, it := range m.state.Items {
		prefix := "  "
		if i == m.cursor && m.mode != modeEdit {
			prefix = selectedStyle.Render(">") + " "
		}
		text := it.Text
		if m.mode == modeEdit && m.editor.IsEditing(it.ID) {
			text = m.edit.View()
		}
		lines = append(lines, prefix+text)
	}
	lines = append(lines, "")

	if m.mode == modeEdit {
		lines = append(lines, controlStyle.Render(saveLabel)+" "+mutedStyle.Render(cancelLabel))
	}
	if m.mode == modeAdd {
		lines = append(lines, m.add.View())
	}
	if m.err != "" {
		lines = append(lines, errorStyle.Render("✖ "+m.err))
	}

	lines = append(lines, helpStyle.Render(m.help.View(m.keys)))
	return strings.Join(lines, "\n")
}
