package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgnsrekt/chartmark/internal/annotate"
	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/codec"
	"github.com/dgnsrekt/chartmark/internal/controller"
	"github.com/dgnsrekt/chartmark/internal/geometry"
	"github.com/dgnsrekt/chartmark/internal/relay"
)

func newTestServer(t *testing.T) *httptest.Server {
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

	svc := controller.NewService(session, mgr, reg, store, nil)
	srv := httptest.NewServer(NewServer(svc, relay.NewBroker()))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body failed: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("http.NewRequest() failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
}

type modeBody struct {
	Mode  string `json:"mode"`
	State string `json:"state"`
}

func TestSetDrawModeEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/session/mode", map[string]string{"mode": "TrendLine"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT mode status = %d; want 200", resp.StatusCode)
	}
	var got modeBody
	decodeBody(t, resp, &got)
	if got.Mode != "TrendLine" || got.State != "armed" {
		t.Fatalf("mode response = %+v; want TrendLine/armed", got)
	}
}

func TestSetDrawModeUnknownKindIs400(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/session/mode", map[string]string{"mode": "Scribble"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("PUT unknown mode status = %d; want 400", resp.StatusCode)
	}
}

func TestDrawGestureOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	if resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/session/mode", map[string]string{"mode": "Rectangle"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT mode status = %d; want 200", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/session/pointer/down", map[string]float64{"x": 10, "y": 10}); resp.StatusCode != http.StatusOK {
		t.Fatalf("pointer down status = %d; want 200", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/session/pointer/move", map[string]float64{"x": 40, "y": 30}); resp.StatusCode != http.StatusOK {
		t.Fatalf("pointer move status = %d; want 200", resp.StatusCode)
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/session/pointer/up", map[string]float64{"x": 60, "y": 50})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pointer up status = %d; want 200", resp.StatusCode)
	}
	var up struct {
		Status string                `json:"status"`
		Shape  *controller.ShapeInfo `json:"shape"`
	}
	decodeBody(t, resp, &up)
	if up.Shape == nil || up.Shape.Kind != "Rectangle" {
		t.Fatalf("pointer up body = %+v; want a committed Rectangle", up)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/shapes", nil)
	var list struct {
		Shapes []controller.ShapeInfo `json:"shapes"`
		Count  int                    `json:"count"`
	}
	decodeBody(t, resp, &list)
	if list.Count != 1 || len(list.Shapes) != 1 {
		t.Fatalf("shape list = %+v; want one shape", list)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/shapes/"+up.Shape.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET shape status = %d; want 200", resp.StatusCode)
	}
}

func TestGetShapeMissingIs404(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/shapes/shape-missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET missing shape status = %d; want 404", resp.StatusCode)
	}
}

func TestUndoRedoEndpoints(t *testing.T) {
	srv := newTestServer(t)
	drawOverHTTP(t, srv, "TrendLine", 0, 0, 50, 50)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/history/undo", nil)
	var step struct {
		Applied bool                    `json:"applied"`
		History controller.HistoryState `json:"history"`
	}
	decodeBody(t, resp, &step)
	if !step.Applied || step.History.ShapeCount != 0 || !step.History.CanRedo {
		t.Fatalf("undo response = %+v; want applied with empty collection", step)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/history/redo", nil)
	decodeBody(t, resp, &step)
	if !step.Applied || step.History.ShapeCount != 1 {
		t.Fatalf("redo response = %+v; want the shape restored", step)
	}

	// Undo on an empty stack reports applied=false, not an error.
	doJSON(t, http.MethodPost, srv.URL+"/api/v1/history/undo", nil)
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/history/undo", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("undo on empty stack status = %d; want 200", resp.StatusCode)
	}
	decodeBody(t, resp, &step)
	if step.Applied {
		t.Fatal("undo on empty stack reported applied=true")
	}
}

func TestDocumentEndpoints(t *testing.T) {
	srv := newTestServer(t)
	drawOverHTTP(t, srv, "Circle", 10, 10, 40, 40)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/documents/session-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save document status = %d; want 200", resp.StatusCode)
	}
	var info codec.DocumentInfo
	decodeBody(t, resp, &info)
	if info.Name != "session-1" || info.ShapeCount != 1 {
		t.Fatalf("saved document info = %+v; want session-1 with one shape", info)
	}

	if resp := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/shapes", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d; want 200", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/documents/session-1/load", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load document status = %d; want 200", resp.StatusCode)
	}
	var result controller.LoadResult
	decodeBody(t, resp, &result)
	if result.Loaded != 1 || result.Skipped != 0 {
		t.Fatalf("load result = %+v; want one shape loaded", result)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/documents/absent/load", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("load missing document status = %d; want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/documents/session-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete document status = %d; want 200", resp.StatusCode)
	}
}

func TestOpenAPIAndDocsServed(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/openapi.json", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /openapi.json status = %d; want 200", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/docs", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /docs status = %d; want 200", resp.StatusCode)
	}
}

func drawOverHTTP(t *testing.T, srv *httptest.Server, kind string, x1, y1, x2, y2 float64) {
	t.Helper()
	steps := []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, "/api/v1/session/mode", map[string]string{"mode": kind}},
		{http.MethodPost, "/api/v1/session/pointer/down", map[string]float64{"x": x1, "y": y1}},
		{http.MethodPost, "/api/v1/session/pointer/up", map[string]float64{"x": x2, "y": y2}},
	}
	for _, step := range steps {
		resp := doJSON(t, step.method, srv.URL+step.path, step.body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s %s status = %d; want 200", step.method, step.path, resp.StatusCode)
		}
	}
}
