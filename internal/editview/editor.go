// Package editview implements the inline editor of a todo list: at most one
// item is edited at a time, and every way of leaving an edit other than an
// explicit cancel goes through the same save path.
package editview

import (
	"context"
	"fmt"
	"math"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/todolist/internal/model"
)

// Mode is the editor state.
type Mode int

// Editor modes.
const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	switch m {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Saver persists an edit. It reports whether a write happened; a blank or
// unchanged draft is not written. *controller.Controller implements it.
type Saver interface {
	Save(ctx context.Context, id, newText, originalText string) (bool, error)
}

// State is a copy of the editor state. Fields other than Mode are only
// meaningful while Editing.
type State struct {
	Mode     Mode
	ItemID   string
	Original string
	Draft    string
	// Caret is the rune offset at which the cursor is placed when the edit
	// starts.
	Caret int
	// SuppressBlur swallows the next blur, which is a side effect of
	// pressing the Save or Cancel control.
	SuppressBlur bool
}

// Editor is safe for concurrent use; the saver is called without holding
// the lock.
type Editor struct {
	saver  Saver
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	session uint64
}

// New creates an editor in Viewing mode.
func New(saver Saver, logger *zap.Logger) *Editor {
	return &Editor{
		saver:  saver,
		logger: logger,
	}
}

// State returns a copy of the current state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsEditing reports whether item id is the one being edited.
func (e *Editor) IsEditing(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Mode == Editing && e.state.ItemID == id
}

// Begin starts editing item. hint is an optional proportional position
// along the displayed text in [0, 1]; without it the caret goes to the end.
// An edit already open on another item is closed through the save path
// first; if that save fails the new edit is not started. Beginning the item
// that is already being edited keeps the current draft.
func (e *Editor) Begin(ctx context.Context, item model.Item, hint *float64) error {
	e.mu.Lock()
	switch {
	case e.state.Mode == Editing && e.state.ItemID == item.ID:
		e.mu.Unlock()
		return nil
	case e.state.Mode == Editing:
		e.mu.Unlock()
		if _, err := e.commit(ctx); err != nil {
			return err
		}
		e.mu.Lock()
	}
	defer e.mu.Unlock()

	e.session++
	e.state = State{
		Mode:     Editing,
		ItemID:   item.ID,
		Original: item.Text,
		Draft:    item.Text,
		Caret:    caretFor(item.Text, hint),
	}

	e.logger.Debug("edit started", zap.String("id", item.ID), zap.Int("caret", e.state.Caret))
	return nil
}

// Input replaces the draft text. It is ignored while Viewing.
func (e *Editor) Input(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Mode == Editing {
		e.state.Draft = text
	}
}

// PressControl records the press of the Save or Cancel control so that the
// blur it causes is ignored.
func (e *Editor) PressControl() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Mode == Editing {
		e.state.SuppressBlur = true
	}
}

// Blur handles loss of focus of the edit field. A suppressed blur only
// clears the flag; any other blur saves.
func (e *Editor) Blur(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.state.Mode != Editing {
		e.mu.Unlock()
		return false, nil
	}
	if e.state.SuppressBlur {
		e.state.SuppressBlur = false
		e.mu.Unlock()
		return false, nil
	}
	e.mu.Unlock()

	return e.commit(ctx)
}

// Save saves the draft and returns to Viewing, also when the save turned
// into a cancel because the draft was blank or unchanged. A failed write
// keeps the editor in Editing with the draft intact. A write followed by a
// failed refresh still closes the edit and reports the refresh error.
func (e *Editor) Save(ctx context.Context) (bool, error) {
	return e.commit(ctx)
}

// Confirm is the edit-confirmation key; it behaves as Save.
func (e *Editor) Confirm(ctx context.Context) (bool, error) {
	return e.commit(ctx)
}

// Cancel discards the draft without a request.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Mode == Editing {
		e.logger.Debug("edit cancelled", zap.String("id", e.state.ItemID))
	}
	e.session++
	e.state = State{Mode: Viewing}
}

func (e *Editor) commit(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.state.Mode != Editing {
		e.mu.Unlock()
		return false, nil
	}
	st, session := e.state, e.session
	e.mu.Unlock()

	wrote, err := e.saver.Save(ctx, st.ItemID, st.Draft, st.Original)
	if err != nil && !wrote {
		e.logger.Warn("save failed, keeping edit open", zap.String("id", st.ItemID), zap.Error(err))
		return false, fmt.Errorf("save edit: %w", err)
	}
	if err != nil {
		// The write landed; only the follow-up refresh failed.
		e.logger.Warn("saved but refresh failed", zap.String("id", st.ItemID), zap.Error(err))
		err = fmt.Errorf("save edit: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Another Begin or Cancel may have replaced the edit meanwhile.
	if e.session == session {
		e.session++
		e.state = State{Mode: Viewing}
	}

	e.logger.Debug("edit closed", zap.String("id", st.ItemID), zap.Bool("wrote", wrote))
	return wrote, err
}

// CaretRatio converts a click at offset within a text of the given display
// width into a proportional hint in [0, 1].
func CaretRatio(offset, width int) float64 {
	if width <= 0 {
		return 0
	}
	return clampRatio(float64(offset) / float64(width))
}

// caretFor returns the rune offset for hint within text.
func caretFor(text string, hint *float64) int {
	n := utf8.RuneCountInString(text)
	if hint == nil {
		return n
	}
	caret := int(math.Floor(clampRatio(*hint) * float64(n)))
	if caret > n {
		caret = n
	}
	return caret
}

func clampRatio(r float64) float64 {
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
