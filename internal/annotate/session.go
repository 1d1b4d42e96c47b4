package annotate

import (
	"log/slog"
	"math"
	"sync"

	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/geometry"
)

// State is the drawing session's interaction state.
type State int

const (
	// StateIdle means no draw mode is armed; pointer input selects.
	StateIdle State = iota
	// StateArmed means a draw mode is set and the next pointer-down anchors.
	StateArmed
	// StateDragging means a drag is in progress with a live preview.
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Modifiers is the modifier-key state delivered with each pointer event.
// It travels with the event; the session keeps no ambient key state.
type Modifiers struct {
	Shift   bool
	Control bool
}

func (m Modifiers) multiSelect() bool { return m.Shift || m.Control }

// SessionOptions tune gesture handling.
type SessionOptions struct {
	// SnapStep quantizes coordinates to a grid before they become anchors
	// or preview endpoints. Zero disables snapping.
	SnapStep float64
	// HitTolerancePx is the selection pick tolerance in device pixels.
	HitTolerancePx float64
}

// DefaultHitTolerancePx compensates for thin strokes when picking.
const DefaultHitTolerancePx = 10

// Session is the interaction state machine. It consumes pointer events from
// the host canvas, drives the armed strategy through preview and commit, and
// routes idle-mode clicks to selection.
type Session struct {
	mu     sync.Mutex
	mgr    *Manager
	reg    *Registry
	canvas canvas.HostCanvas
	opts   SessionOptions

	state      State
	mode       ShapeKind
	anchor     geometry.Point
	preview    canvas.ID
	hasPreview bool
}

// NewSession creates a session over an attached manager.
func NewSession(mgr *Manager, reg *Registry, c canvas.HostCanvas, opts SessionOptions) *Session {
	if opts.HitTolerancePx <= 0 {
		opts.HitTolerancePx = DefaultHitTolerancePx
	}
	return &Session{mgr: mgr, reg: reg, canvas: c, opts: opts}
}

// State returns the current interaction state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DrawMode returns the armed shape kind, KindNone when idle.
func (s *Session) DrawMode() ShapeKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetDrawMode arms a shape kind, or returns to selection mode with KindNone.
// A drag in progress is cancelled; the host's own pan/zoom input is disabled
// while a mode is armed so drags are not interpreted as pans.
func (s *Session) SetDrawMode(kind ShapeKind) {
	s.mu.Lock()
	s.dropPreviewLocked()
	s.mode = kind
	if kind == KindNone {
		s.state = StateIdle
	} else {
		s.state = StateArmed
	}
	s.canvas.SetInputEnabled(kind == KindNone)
	s.mu.Unlock()
	slog.Debug("draw mode set", "mode", kind.String(), "state", s.State().String())
}

// Cancel discards any in-progress gesture, preview and partial anchor
// included, and returns to Armed or Idle per the current mode.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.dropPreviewLocked()
	if s.mode == KindNone {
		s.state = StateIdle
	} else {
		s.state = StateArmed
	}
	s.mu.Unlock()
}

// PointerDown anchors a new drag when armed, or runs selection hit testing
// when idle.
func (s *Session) PointerDown(px, py float64, mods Modifiers) error {
	s.mu.Lock()
	switch s.state {
	case StateArmed:
		p := s.snap(s.canvas.PixelToCoordinate(px, py))
		v, ok := s.reg.Lookup(s.mode).Preview(p, p)
		if !ok {
			// Reserved or unregistered kind: no preview, no commit.
			s.mu.Unlock()
			return nil
		}
		id, err := s.canvas.AddVisual(v)
		if err != nil {
			s.mu.Unlock()
			return newError(CodeCanvasUnavailable, "preview attach", err)
		}
		s.anchor = p
		s.preview = id
		s.hasPreview = true
		s.state = StateDragging
		s.mu.Unlock()
		return nil
	case StateIdle:
		p := s.canvas.PixelToCoordinate(px, py)
		hit := s.hitTestLocked(p)
		s.mu.Unlock()
		return s.applyClickSelection(hit, mods)
	default:
		s.mu.Unlock()
		return nil
	}
}

// PointerMove recomputes the preview from the anchor and the current pointer
// position. The displayed preview is replaced; no shape identity exists yet.
func (s *Session) PointerMove(px, py float64, _ Modifiers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDragging {
		return nil
	}
	p := s.snap(s.canvas.PixelToCoordinate(px, py))
	v, ok := s.reg.Lookup(s.mode).Preview(s.anchor, p)
	if !ok {
		return nil
	}
	if s.hasPreview {
		if err := s.canvas.RemoveVisual(s.preview); err != nil {
			return newError(CodeCanvasUnavailable, "preview detach", err)
		}
		s.hasPreview = false
	}
	id, err := s.canvas.AddVisual(v)
	if err != nil {
		return newError(CodeCanvasUnavailable, "preview attach", err)
	}
	s.preview = id
	s.hasPreview = true
	s.canvas.Refresh()
	return nil
}

// PointerUp finalizes the drag: the preview is dropped, the strategy builds
// the committed visual, and an Add command records the shape in history. The
// draw mode auto-resets to KindNone after every completed shape.
func (s *Session) PointerUp(px, py float64, _ Modifiers) (*Shape, error) {
	s.mu.Lock()
	if s.state != StateDragging {
		s.mu.Unlock()
		return nil, nil
	}
	p := s.snap(s.canvas.PixelToCoordinate(px, py))
	s.dropPreviewLocked()
	mode := s.mode
	anchor := s.anchor
	s.mode = KindNone
	s.state = StateIdle
	s.canvas.SetInputEnabled(true)
	s.mu.Unlock()

	v, ok := s.reg.Lookup(mode).Final(anchor, p)
	if !ok {
		return nil, nil
	}
	shape := NewShape(mode, anchor, p, DefaultStyle(mode), v)
	if err := s.mgr.ExecuteCommand(NewAddCommand(s.mgr, shape)); err != nil {
		return nil, err
	}
	slog.Debug("shape committed", "shape_id", shape.ID, "kind", mode.String())
	return shape, nil
}

// HasPreview reports whether a preview visual is currently displayed.
func (s *Session) HasPreview() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPreview
}

func (s *Session) dropPreviewLocked() {
	if !s.hasPreview {
		return
	}
	if err := s.canvas.RemoveVisual(s.preview); err != nil {
		slog.Warn("preview detach failed", "error", err)
	}
	s.hasPreview = false
	s.canvas.Refresh()
}

func (s *Session) snap(p geometry.Point) geometry.Point {
	step := s.opts.SnapStep
	if step <= 0 {
		return p
	}
	return geometry.Point{
		X: math.Round(p.X/step) * step,
		Y: math.Round(p.Y/step) * step,
	}
}
