package annotate

import (
	"log/slog"
	"sync"

	"github.com/dgnsrekt/chartmark/internal/canvas"
)

// Manager owns the authoritative shape collection and the undo/redo history.
// All mutation goes through commands; the direct attach/detach hooks exist
// for the command layer and for document loads, never for UI-facing code.
//
// The interaction model is single-threaded and event-driven; the mutex only
// serializes host entry points (HTTP handlers) onto that model.
type Manager struct {
	mu       sync.Mutex
	canvas   canvas.HostCanvas
	shapes   []*Shape
	undo     []Command
	redo     []Command
	pending  []Event
	listener EventFunc
}

// NewManager creates an unattached manager.
func NewManager() *Manager {
	return &Manager{}
}

// SetListener installs the event callback. Install before the first
// mutation; the listener is invoked outside the manager's lock.
func (m *Manager) SetListener(fn EventFunc) {
	m.mu.Lock()
	m.listener = fn
	m.mu.Unlock()
}

// Attach binds the manager to its host canvas. Attaching twice is an
// invalid-state error.
func (m *Manager) Attach(c canvas.HostCanvas) error {
	if c == nil {
		return newError(CodeValidation, "nil canvas", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.canvas != nil {
		return newError(CodeInvalidState, "manager already attached", nil)
	}
	m.canvas = c
	return nil
}

// Detach releases the canvas binding, removing every attached visual and
// dropping the collection and history. Safe to call when not attached.
func (m *Manager) Detach() {
	m.mu.Lock()
	events := m.clearLocked()
	m.canvas = nil
	m.mu.Unlock()
	m.emit(events)
}

// Attached reports whether a host canvas is bound.
func (m *Manager) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canvas != nil
}

// ExecuteCommand runs the command, pushes it onto the undo stack and clears
// the redo stack. A failed command leaves both stacks untouched.
func (m *Manager) ExecuteCommand(cmd Command) error {
	if cmd == nil {
		return newError(CodeValidation, "nil command", nil)
	}
	m.mu.Lock()
	if m.canvas == nil {
		m.mu.Unlock()
		return newError(CodeInvalidState, "manager not attached", nil)
	}
	if err := cmd.Execute(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.undo = append(m.undo, cmd)
	m.redo = nil
	events := []Event{m.historyEventLocked()}
	m.canvas.Refresh()
	m.mu.Unlock()
	m.emit(events)
	return nil
}

// Undo reverses the most recent command. Returns false on an empty stack;
// that is a no-op condition, not an error.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	if len(m.undo) == 0 {
		m.mu.Unlock()
		return false
	}
	cmd := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	if err := cmd.Undo(); err != nil {
		// Undo of a recorded command failing means a state invariant was
		// already broken; keep the command so state stays inspectable.
		m.undo = append(m.undo, cmd)
		m.mu.Unlock()
		slog.Error("undo failed", "command", cmd.Describe(), "error", err)
		return false
	}
	m.redo = append(m.redo, cmd)
	events := []Event{m.historyEventLocked()}
	m.canvas.Refresh()
	m.mu.Unlock()
	m.emit(events)
	return true
}

// Redo re-executes the most recently undone command. Returns false on an
// empty stack.
func (m *Manager) Redo() bool {
	m.mu.Lock()
	if len(m.redo) == 0 {
		m.mu.Unlock()
		return false
	}
	cmd := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	if err := cmd.Execute(); err != nil {
		m.redo = append(m.redo, cmd)
		m.mu.Unlock()
		slog.Error("redo failed", "command", cmd.Describe(), "error", err)
		return false
	}
	m.undo = append(m.undo, cmd)
	events := []Event{m.historyEventLocked()}
	m.canvas.Refresh()
	m.mu.Unlock()
	m.emit(events)
	return true
}

// CanUndo reports whether the undo stack is non-empty.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Shapes returns the collection in insertion order.
func (m *Manager) Shapes() []*Shape {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Shape, len(m.shapes))
	copy(out, m.shapes)
	return out
}

// Count returns the number of tracked shapes.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shapes)
}

// GetShapeByID returns the tracked shape with the given ID.
func (m *Manager) GetShapeByID(id string) (*Shape, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shapes {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Clear empties the collection and both history stacks atomically.
func (m *Manager) Clear() {
	m.mu.Lock()
	events := m.clearLocked()
	if m.canvas != nil {
		m.canvas.Refresh()
	}
	m.mu.Unlock()
	m.emit(events)
}

// Replace swaps in a freshly reconstructed shape set: all current visuals
// are detached, history is cleared, and each new shape is attached in order
// with empty history. Used by document loads.
func (m *Manager) Replace(shapes []*Shape) error {
	m.mu.Lock()
	if m.canvas == nil {
		m.mu.Unlock()
		return newError(CodeInvalidState, "manager not attached", nil)
	}
	events := m.clearLocked()
	for _, s := range shapes {
		if err := m.attachShapeLocked(s, -1); err != nil {
			m.mu.Unlock()
			m.emit(events)
			return err
		}
	}
	events = append(events, Event{Type: EventLoaded, Count: len(m.shapes)})
	m.canvas.Refresh()
	m.mu.Unlock()
	m.emit(events)
	return nil
}

// SetSelected sets one shape's selection flag, re-applying its style with or
// without emphasis. Selection changes are not recorded in history.
func (m *Manager) SetSelected(id string, selected bool) error {
	m.mu.Lock()
	s := m.findLocked(id)
	if s == nil {
		m.mu.Unlock()
		return newError(CodeNotFound, "shape not found: "+id, nil)
	}
	var events []Event
	if s.Selected != selected {
		s.Selected = selected
		if err := m.reapplyLocked(s); err != nil {
			m.mu.Unlock()
			return err
		}
		events = append(events, Event{Type: EventSelectionChanged, ShapeID: s.ID, Kind: s.Kind.String(), Count: len(m.shapes)})
	}
	m.mu.Unlock()
	m.emit(events)
	return nil
}

// ClearSelection deselects every shape.
func (m *Manager) ClearSelection() error {
	m.mu.Lock()
	var events []Event
	for _, s := range m.shapes {
		if !s.Selected {
			continue
		}
		s.Selected = false
		if err := m.reapplyLocked(s); err != nil {
			m.mu.Unlock()
			return err
		}
		events = append(events, Event{Type: EventSelectionChanged, ShapeID: s.ID, Kind: s.Kind.String(), Count: len(m.shapes)})
	}
	m.mu.Unlock()
	m.emit(events)
	return nil
}

// SelectedShapes returns the currently selected shapes in insertion order.
func (m *Manager) SelectedShapes() []*Shape {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Shape
	for _, s := range m.shapes {
		if s.Selected {
			out = append(out, s)
		}
	}
	return out
}

// SetVisible toggles a shape's visibility. The visual stays attached; the
// host is told not to paint it.
func (m *Manager) SetVisible(id string, visible bool) error {
	m.mu.Lock()
	s := m.findLocked(id)
	if s == nil {
		m.mu.Unlock()
		return newError(CodeNotFound, "shape not found: "+id, nil)
	}
	if s.Visible != visible {
		s.Visible = visible
		if err := m.reapplyLocked(s); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	m.mu.Unlock()
	return nil
}

// --- locked internals, used by the command layer ---

// attachShapeLocked inserts the shape at index (append when index is out of
// range) and attaches its visual. The caller holds the lock.
func (m *Manager) attachShapeLocked(s *Shape, index int) error {
	if m.canvas == nil {
		return newError(CodeInvalidState, "manager not attached", nil)
	}
	if m.findLocked(s.ID) != nil {
		return newError(CodeInvalidState, "shape already tracked: "+s.ID, nil)
	}
	id, err := m.canvas.AddVisual(m.visualForLocked(s))
	if err != nil {
		return newError(CodeCanvasUnavailable, "attach visual", err)
	}
	s.visualID = id
	if index < 0 || index > len(m.shapes) {
		index = len(m.shapes)
	}
	m.shapes = append(m.shapes, nil)
	copy(m.shapes[index+1:], m.shapes[index:])
	m.shapes[index] = s
	m.queueLocked(Event{Type: EventShapeAdded, ShapeID: s.ID, Kind: s.Kind.String(), Count: len(m.shapes)})
	return nil
}

// detachShapeLocked removes the shape and its visual, returning the index it
// occupied. Removing an untracked shape is an error: it signals a caller bug
// against the attach/detach invariant rather than being ignored.
func (m *Manager) detachShapeLocked(id string) (int, error) {
	for i, s := range m.shapes {
		if s.ID != id {
			continue
		}
		if err := m.canvas.RemoveVisual(s.visualID); err != nil {
			return 0, newError(CodeCanvasUnavailable, "detach visual", err)
		}
		s.visualID = ""
		m.shapes = append(m.shapes[:i], m.shapes[i+1:]...)
		m.queueLocked(Event{Type: EventShapeRemoved, ShapeID: s.ID, Kind: s.Kind.String(), Count: len(m.shapes)})
		return i, nil
	}
	return 0, newError(CodeNotFound, "shape not tracked: "+id, nil)
}

func (m *Manager) findLocked(id string) *Shape {
	for _, s := range m.shapes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// reapplyLocked swaps the shape's visual for one with the current style and
// visibility. Geometry is untouched.
func (m *Manager) reapplyLocked(s *Shape) error {
	if m.canvas == nil || s.visualID == "" {
		return nil
	}
	if err := m.canvas.RemoveVisual(s.visualID); err != nil {
		return newError(CodeCanvasUnavailable, "detach visual", err)
	}
	id, err := m.canvas.AddVisual(m.visualForLocked(s))
	if err != nil {
		s.visualID = ""
		return newError(CodeCanvasUnavailable, "attach visual", err)
	}
	s.visualID = id
	m.canvas.Refresh()
	return nil
}

func (m *Manager) visualForLocked(s *Shape) canvas.Visual {
	v := s.Visual
	v.Preview = false
	v.Hidden = !s.Visible
	v.Style = s.Style
	if s.Selected {
		v.Style = emphasize(s.Style)
	}
	return v
}

func (m *Manager) clearLocked() []Event {
	for _, s := range m.shapes {
		if m.canvas != nil && s.visualID != "" {
			if err := m.canvas.RemoveVisual(s.visualID); err != nil {
				slog.Warn("clear: visual detach failed", "shape_id", s.ID, "error", err)
			}
		}
		s.visualID = ""
	}
	had := len(m.shapes) > 0 || len(m.undo) > 0 || len(m.redo) > 0
	m.shapes = nil
	m.undo = nil
	m.redo = nil
	m.pending = nil
	if !had {
		return nil
	}
	return []Event{{Type: EventCleared}}
}

func (m *Manager) historyEventLocked() Event {
	return Event{
		Type:    EventHistoryChanged,
		Count:   len(m.shapes),
		CanUndo: len(m.undo) > 0,
		CanRedo: len(m.redo) > 0,
	}
}

// queueLocked buffers an event raised by a locked internal so the public
// entry point can emit it after releasing the lock.
func (m *Manager) queueLocked(e Event) {
	m.pending = append(m.pending, e)
}

func (m *Manager) emit(extra []Event) {
	m.mu.Lock()
	events := m.pending
	m.pending = nil
	fn := m.listener
	m.mu.Unlock()
	if fn == nil {
		return
	}
	for _, e := range events {
		fn(e)
	}
	for _, e := range extra {
		fn(e)
	}
}
