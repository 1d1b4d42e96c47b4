package controller

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/chartmark/internal/annotate"
	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/codec"
	"github.com/dgnsrekt/chartmark/internal/geometry"
)

func newTestService(t *testing.T) (*Service, *canvas.Memory) {
	t.Helper()
	visible := geometry.Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 500}
	mem := canvas.NewMemory(geometry.Point{}, 1, 1, visible)

	mgr := annotate.NewManager()
	if err := mgr.Attach(mem); err != nil {
		t.Fatalf("Attach() = %v; want nil", err)
	}
	reg := annotate.NewRegistry()
	session := annotate.NewSession(mgr, reg, mem, annotate.SessionOptions{})

	store, err := codec.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() = %v; want nil", err)
	}
	return NewService(session, mgr, reg, store, nil), mem
}

func drawShape(t *testing.T, svc *Service, kind string, x1, y1, x2, y2 float64) ShapeInfo {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.SetDrawMode(ctx, kind); err != nil {
		t.Fatalf("SetDrawMode(%q) = %v; want nil", kind, err)
	}
	if err := svc.PointerDown(ctx, PointerEvent{X: x1, Y: y1}); err != nil {
		t.Fatalf("PointerDown() = %v; want nil", err)
	}
	if err := svc.PointerMove(ctx, PointerEvent{X: x2, Y: y2}); err != nil {
		t.Fatalf("PointerMove() = %v; want nil", err)
	}
	shape, err := svc.PointerUp(ctx, PointerEvent{X: x2, Y: y2})
	if err != nil {
		t.Fatalf("PointerUp() = %v; want nil", err)
	}
	if shape == nil {
		t.Fatal("PointerUp() returned no shape")
	}
	return *shape
}

func TestDrawGestureThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	state, err := svc.SetDrawMode(ctx, "TrendLine")
	if err != nil {
		t.Fatalf("SetDrawMode() = %v; want nil", err)
	}
	if state.Mode != "TrendLine" || state.State != "armed" {
		t.Fatalf("state = %+v; want TrendLine/armed", state)
	}

	shape := drawShape(t, svc, "Rectangle", 10, 10, 60, 50)
	if shape.Kind != "Rectangle" {
		t.Fatalf("committed kind = %q; want Rectangle", shape.Kind)
	}

	// Mode auto-resets after each committed shape.
	state, err = svc.GetDrawMode(ctx)
	if err != nil {
		t.Fatalf("GetDrawMode() = %v; want nil", err)
	}
	if state.Mode != "None" || state.State != "idle" {
		t.Fatalf("state after commit = %+v; want None/idle", state)
	}

	shapes, err := svc.ListShapes(ctx)
	if err != nil {
		t.Fatalf("ListShapes() = %v; want nil", err)
	}
	if len(shapes) != 1 || shapes[0].ID != shape.ID {
		t.Fatalf("ListShapes() = %v; want the committed shape", shapes)
	}
}

func TestSetDrawModeUnknownKind(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SetDrawMode(context.Background(), "Scribble")
	var coded *annotate.CodedError
	if !errors.As(err, &coded) || coded.Code != annotate.CodeUnknownKind {
		t.Fatalf("SetDrawMode(Scribble) = %v; want UNKNOWN_KIND", err)
	}
}

func TestHistoryThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	drawShape(t, svc, "TrendLine", 0, 0, 50, 50)

	hist, err := svc.History(ctx)
	if err != nil {
		t.Fatalf("History() = %v; want nil", err)
	}
	if !hist.CanUndo || hist.CanRedo || hist.ShapeCount != 1 {
		t.Fatalf("History() = %+v; want undoable, nothing to redo, one shape", hist)
	}

	ok, err := svc.Undo(ctx)
	if err != nil || !ok {
		t.Fatalf("Undo() = %v, %v; want true, nil", ok, err)
	}
	hist, _ = svc.History(ctx)
	if hist.ShapeCount != 0 || !hist.CanRedo {
		t.Fatalf("History() after undo = %+v; want zero shapes, redoable", hist)
	}

	ok, err = svc.Redo(ctx)
	if err != nil || !ok {
		t.Fatalf("Redo() = %v, %v; want true, nil", ok, err)
	}
	hist, _ = svc.History(ctx)
	if hist.ShapeCount != 1 {
		t.Fatalf("ShapeCount after redo = %d; want 1", hist.ShapeCount)
	}
}

func TestDeleteSelectedThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := drawShape(t, svc, "Rectangle", 0, 0, 20, 20)
	b := drawShape(t, svc, "Rectangle", 100, 100, 140, 140)

	if err := svc.SetSelected(ctx, a.ID, true); err != nil {
		t.Fatalf("SetSelected() = %v; want nil", err)
	}
	deleted, err := svc.DeleteSelected(ctx)
	if err != nil {
		t.Fatalf("DeleteSelected() = %v; want nil", err)
	}
	if deleted != 1 {
		t.Fatalf("DeleteSelected() = %d; want 1", deleted)
	}

	shapes, _ := svc.ListShapes(ctx)
	if len(shapes) != 1 || shapes[0].ID != b.ID {
		t.Fatalf("remaining shapes = %v; want only %s", shapes, b.ID)
	}

	// The deletion is undoable.
	if ok, _ := svc.Undo(ctx); !ok {
		t.Fatal("Undo() of delete = false; want true")
	}
	shapes, _ = svc.ListShapes(ctx)
	if len(shapes) != 2 {
		t.Fatalf("shapes after undo = %d; want 2", len(shapes))
	}
}

func TestGetShapeUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetShape(context.Background(), "shape-missing")
	var coded *annotate.CodedError
	if !errors.As(err, &coded) || coded.Code != annotate.CodeNotFound {
		t.Fatalf("GetShape(missing) = %v; want NOT_FOUND", err)
	}
}

func TestSaveLoadDocumentThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	drawShape(t, svc, "TrendLine", 0, 0, 50, 50)
	drawShape(t, svc, "Circle", 100, 100, 140, 160)

	info, err := svc.SaveDocument(ctx, "session-a")
	if err != nil {
		t.Fatalf("SaveDocument() = %v; want nil", err)
	}
	if info.ShapeCount != 2 {
		t.Fatalf("saved ShapeCount = %d; want 2", info.ShapeCount)
	}

	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear() = %v; want nil", err)
	}
	drawShape(t, svc, "Rectangle", 5, 5, 15, 15)

	result, err := svc.LoadDocument(ctx, "session-a")
	if err != nil {
		t.Fatalf("LoadDocument() = %v; want nil", err)
	}
	if result.Loaded != 2 || result.Skipped != 0 {
		t.Fatalf("LoadDocument() = %+v; want 2 loaded, 0 skipped", result)
	}

	shapes, _ := svc.ListShapes(ctx)
	if len(shapes) != 2 {
		t.Fatalf("shapes after load = %d; want the document to fully replace", len(shapes))
	}
	if shapes[0].Kind != "TrendLine" || shapes[1].Kind != "Circle" {
		t.Fatalf("loaded kinds = %s,%s; want TrendLine,Circle in order", shapes[0].Kind, shapes[1].Kind)
	}

	// Loading clears history; the pre-load state is not recoverable.
	hist, _ := svc.History(ctx)
	if hist.CanUndo || hist.CanRedo {
		t.Fatalf("History() after load = %+v; want empty", hist)
	}
}

func TestLoadMissingDocumentKeepsState(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	drawShape(t, svc, "TrendLine", 0, 0, 10, 10)

	_, err := svc.LoadDocument(ctx, "never-saved")
	var coded *annotate.CodedError
	if !errors.As(err, &coded) || coded.Code != annotate.CodeNotFound {
		t.Fatalf("LoadDocument(missing) = %v; want NOT_FOUND", err)
	}
	shapes, _ := svc.ListShapes(ctx)
	if len(shapes) != 1 {
		t.Fatalf("shapes after failed load = %d; want untouched collection", len(shapes))
	}
}

func TestListDocuments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	drawShape(t, svc, "TrendLine", 0, 0, 10, 10)
	if _, err := svc.SaveDocument(ctx, "one"); err != nil {
		t.Fatalf("SaveDocument() = %v; want nil", err)
	}
	if _, err := svc.SaveDocument(ctx, "two"); err != nil {
		t.Fatalf("SaveDocument() = %v; want nil", err)
	}

	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments() = %v; want nil", err)
	}
	if len(docs) != 2 {
		t.Fatalf("ListDocuments() = %d; want 2", len(docs))
	}

	if err := svc.DeleteDocument(ctx, "one"); err != nil {
		t.Fatalf("DeleteDocument() = %v; want nil", err)
	}
	docs, _ = svc.ListDocuments(ctx)
	if len(docs) != 1 || docs[0].Name != "two" {
		t.Fatalf("ListDocuments() after delete = %v; want only two", docs)
	}
}

func TestSaveLoadFileThroughService(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	drawShape(t, svc, "TrendLine", 0, 0, 30, 30)
	path := filepath.Join(t.TempDir(), "annotations.json")

	if err := svc.SaveToFile(ctx, path); err != nil {
		t.Fatalf("SaveToFile() = %v; want nil", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear() = %v; want nil", err)
	}

	result, err := svc.LoadFromFile(ctx, path)
	if err != nil {
		t.Fatalf("LoadFromFile() = %v; want nil", err)
	}
	if result.Loaded != 1 {
		t.Fatalf("LoadFromFile() loaded = %d; want 1", result.Loaded)
	}
	shapes, _ := svc.ListShapes(ctx)
	if len(shapes) != 1 || shapes[0].Kind != "TrendLine" {
		t.Fatalf("shapes after file load = %v; want the trend line", shapes)
	}
}

func TestCancelGestureThroughService(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	if _, err := svc.SetDrawMode(ctx, "Circle"); err != nil {
		t.Fatalf("SetDrawMode() = %v; want nil", err)
	}
	if err := svc.PointerDown(ctx, PointerEvent{X: 10, Y: 10}); err != nil {
		t.Fatalf("PointerDown() = %v; want nil", err)
	}
	if err := svc.CancelGesture(ctx); err != nil {
		t.Fatalf("CancelGesture() = %v; want nil", err)
	}
	if mem.VisualCount() != 0 {
		t.Fatalf("VisualCount() after cancel = %d; want 0", mem.VisualCount())
	}
	shapes, _ := svc.ListShapes(ctx)
	if len(shapes) != 0 {
		t.Fatal("cancelled gesture committed a shape")
	}
}
