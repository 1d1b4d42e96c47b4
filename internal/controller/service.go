// Package controller exposes the annotation engine's command surface to a
// host process: draw-mode control, pointer event injection, history,
// selection and document persistence. One Service serializes the host's
// calls onto the engine's single interaction loop.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgnsrekt/chartmark/internal/annotate"
	"github.com/dgnsrekt/chartmark/internal/codec"
	"github.com/dgnsrekt/chartmark/internal/geometry"
	"github.com/dgnsrekt/chartmark/internal/journal"
)

// ShapeInfo is the wire projection of one tracked shape.
type ShapeInfo struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Start     geometry.Point `json:"start"`
	End       geometry.Point `json:"end"`
	LineColor string         `json:"line_color"`
	LineWidth float64        `json:"line_width"`
	FillColor string         `json:"fill_color,omitempty"`
	FillAlpha int            `json:"fill_alpha,omitempty"`
	Selected  bool           `json:"selected"`
	Visible   bool           `json:"visible"`
	CreatedAt time.Time      `json:"created_at"`
}

// DrawModeState reports the armed tool and interaction state.
type DrawModeState struct {
	Mode  string `json:"mode"`
	State string `json:"state"`
}

// HistoryState reports the undo/redo availability and collection size.
type HistoryState struct {
	CanUndo    bool `json:"can_undo"`
	CanRedo    bool `json:"can_redo"`
	ShapeCount int  `json:"shape_count"`
}

// PointerEvent is one injected pointer event in device pixels, with the
// modifier-key state that traveled with it.
type PointerEvent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Shift bool    `json:"shift,omitempty"`
	Ctrl  bool    `json:"ctrl,omitempty"`
}

func (e PointerEvent) modifiers() annotate.Modifiers {
	return annotate.Modifiers{Shift: e.Shift, Control: e.Ctrl}
}

// LoadResult reports the outcome of a document load.
type LoadResult struct {
	Name    string `json:"name"`
	Loaded  int    `json:"loaded"`
	Skipped int    `json:"skipped"`
}

// Service drives the engine on behalf of a host UI.
type Service struct {
	mu      sync.Mutex
	session *annotate.Session
	mgr     *annotate.Manager
	reg     *annotate.Registry
	store   *codec.Store
	journal *journal.Writer
}

// NewService wires the engine pieces together. The journal may be nil.
func NewService(session *annotate.Session, mgr *annotate.Manager, reg *annotate.Registry, store *codec.Store, jw *journal.Writer) *Service {
	return &Service{session: session, mgr: mgr, reg: reg, store: store, journal: jw}
}

func (s *Service) record(op, command, shapeID, kind string) {
	if s.journal == nil {
		return
	}
	s.journal.Record(journal.Entry{
		Op:      op,
		Command: command,
		ShapeID: shapeID,
		Kind:    kind,
		Count:   s.mgr.Count(),
	})
}

// GetDrawMode returns the current draw mode and interaction state.
func (s *Service) GetDrawMode(ctx context.Context) (DrawModeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DrawModeState{Mode: s.session.DrawMode().String(), State: s.session.State().String()}, nil
}

// SetDrawMode arms a shape kind by name; "None" returns to selection mode.
func (s *Service) SetDrawMode(ctx context.Context, kind string) (DrawModeState, error) {
	k, ok := annotate.ParseShapeKind(kind)
	if !ok {
		return DrawModeState{}, annotate.NewError(annotate.CodeUnknownKind, "unknown shape kind: "+kind, nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.SetDrawMode(k)
	return DrawModeState{Mode: s.session.DrawMode().String(), State: s.session.State().String()}, nil
}

// PointerDown injects a pointer-down event.
func (s *Service) PointerDown(ctx context.Context, ev PointerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.PointerDown(ev.X, ev.Y, ev.modifiers())
}

// PointerMove injects a pointer-move event.
func (s *Service) PointerMove(ctx context.Context, ev PointerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.PointerMove(ev.X, ev.Y, ev.modifiers())
}

// PointerUp injects a pointer-up event; a completed drag returns the
// committed shape.
func (s *Service) PointerUp(ctx context.Context, ev PointerEvent) (*ShapeInfo, error) {
	s.mu.Lock()
	shape, err := s.session.PointerUp(ev.X, ev.Y, ev.modifiers())
	s.mu.Unlock()
	if err != nil || shape == nil {
		return nil, err
	}
	s.record("execute", "add", shape.ID, shape.Kind.String())
	info := shapeInfo(shape)
	return &info, nil
}

// CancelGesture discards any in-progress drag.
func (s *Service) CancelGesture(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Cancel()
	return nil
}

// ListShapes returns the collection in insertion order.
func (s *Service) ListShapes(ctx context.Context) ([]ShapeInfo, error) {
	shapes := s.mgr.Shapes()
	out := make([]ShapeInfo, 0, len(shapes))
	for _, sh := range shapes {
		out = append(out, shapeInfo(sh))
	}
	return out, nil
}

// GetShape returns one shape by ID.
func (s *Service) GetShape(ctx context.Context, id string) (ShapeInfo, error) {
	sh, ok := s.mgr.GetShapeByID(id)
	if !ok {
		return ShapeInfo{}, annotate.NewError(annotate.CodeNotFound, "shape not found: "+id, nil)
	}
	return shapeInfo(sh), nil
}

// SetSelected sets one shape's selection flag directly (keyboard-driven
// hosts; pointer selection goes through PointerDown).
func (s *Service) SetSelected(ctx context.Context, id string, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mgr.SetSelected(id, selected)
}

// DeleteSelected removes every selected shape, one undoable command each.
func (s *Service) DeleteSelected(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, sh := range s.mgr.SelectedShapes() {
		if err := s.mgr.ExecuteCommand(annotate.NewDeleteCommand(s.mgr, sh)); err != nil {
			return deleted, err
		}
		s.record("execute", "delete", sh.ID, sh.Kind.String())
		deleted++
	}
	return deleted, nil
}

// Undo reverses the most recent command; false means nothing to undo.
func (s *Service) Undo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.mgr.Undo()
	if ok {
		s.record("undo", "", "", "")
	}
	return ok, nil
}

// Redo re-applies the most recently undone command.
func (s *Service) Redo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.mgr.Redo()
	if ok {
		s.record("redo", "", "", "")
	}
	return ok, nil
}

// History reports undo/redo availability.
func (s *Service) History(ctx context.Context) (HistoryState, error) {
	return HistoryState{
		CanUndo:    s.mgr.CanUndo(),
		CanRedo:    s.mgr.CanRedo(),
		ShapeCount: s.mgr.Count(),
	}, nil
}

// Clear empties the collection and history.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mgr.Clear()
	s.record("clear", "", "", "")
	return nil
}

// SaveDocument persists the collection under a document name.
func (s *Service) SaveDocument(ctx context.Context, name string) (codec.DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mgr.Attached() {
		return codec.DocumentInfo{}, annotate.NewError(annotate.CodeInvalidState, "manager not attached", nil)
	}
	shapes := s.mgr.Shapes()
	if err := s.store.Save(name, codec.Encode(shapes)); err != nil {
		return codec.DocumentInfo{}, err
	}
	s.record("save", name, "", "")
	slog.Info("annotations saved", "name", name, "shapes", len(shapes))
	return codec.DocumentInfo{Name: name, ShapeCount: len(shapes), ModifiedAt: time.Now().UTC()}, nil
}

// LoadDocument replaces the collection with a stored document. The existing
// shapes stay untouched until the document has been read successfully.
func (s *Service) LoadDocument(ctx context.Context, name string) (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.store.Load(name)
	if err != nil {
		return LoadResult{}, err
	}
	shapes, skipped := codec.Materialize(doc, s.reg)
	if err := s.mgr.Replace(shapes); err != nil {
		return LoadResult{}, err
	}
	s.record("load", name, "", "")
	slog.Info("annotations loaded", "name", name, "shapes", len(shapes), "skipped", skipped)
	return LoadResult{Name: name, Loaded: len(shapes), Skipped: skipped}, nil
}

// ListDocuments returns the stored documents.
func (s *Service) ListDocuments(ctx context.Context) ([]codec.DocumentInfo, error) {
	return s.store.List()
}

// DeleteDocument removes a stored document.
func (s *Service) DeleteDocument(ctx context.Context, name string) error {
	return s.store.Delete(name)
}

// SaveToFile persists the collection to an explicit path, for hosts that
// manage their own files instead of the named store.
func (s *Service) SaveToFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mgr.Attached() {
		return annotate.NewError(annotate.CodeInvalidState, "manager not attached", nil)
	}
	return codec.WriteFile(path, codec.Encode(s.mgr.Shapes()))
}

// LoadFromFile replaces the collection from an explicit path.
func (s *Service) LoadFromFile(ctx context.Context, path string) (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := codec.ReadFile(path)
	if err != nil {
		return LoadResult{}, err
	}
	shapes, skipped := codec.Materialize(doc, s.reg)
	if err := s.mgr.Replace(shapes); err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Name: path, Loaded: len(shapes), Skipped: skipped}, nil
}

func shapeInfo(sh *annotate.Shape) ShapeInfo {
	return ShapeInfo{
		ID:        sh.ID,
		Kind:      sh.Kind.String(),
		Start:     sh.Start,
		End:       sh.End,
		LineColor: sh.Style.LineColor,
		LineWidth: sh.Style.LineWidth,
		FillColor: sh.Style.FillColor,
		FillAlpha: int(sh.Style.FillAlpha),
		Selected:  sh.Selected,
		Visible:   sh.Visible,
		CreatedAt: sh.CreatedAt,
	}
}
