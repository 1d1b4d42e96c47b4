// Package tvcanvas implements the host canvas boundary on top of a live
// TradingView chart tab driven over the Chrome DevTools Protocol. Committed
// visuals become native TradingView line tools; the page keeps ownership of
// rendering, axis scaling and pan/zoom, exactly as the engine expects of a
// host canvas.
package tvcanvas

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/dgnsrekt/chartmark/internal/annotate"
	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/geometry"
)

// viewCacheTTL bounds how stale the cached pixel mapping may get before the
// next coordinate conversion re-reads the page.
const viewCacheTTL = 2 * time.Second

type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

type viewState struct {
	visible   geometry.Rect
	widthPx   float64
	heightPx  float64
	fetchedAt time.Time
}

// Canvas is a HostCanvas backed by one TradingView browser tab.
type Canvas struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	evalTimeout time.Duration

	mu   sync.Mutex
	view viewState
}

// Connect attaches to the first page target whose URL contains tabFilter.
// Construction fails fast when the browser or a matching tab is unreachable;
// after that, eval failures degrade per-call.
func Connect(ctx context.Context, cdpURL, tabFilter string, evalTimeout time.Duration) (*Canvas, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cdpURL)

	tempCtx, tempCancel := chromedp.NewContext(allocCtx)
	defer tempCancel()
	if err := chromedp.Run(tempCtx); err != nil {
		allocCancel()
		return nil, annotate.NewError(annotate.CodeCanvasUnavailable, "connect to browser", err)
	}

	targets, err := chromedp.Targets(tempCtx)
	if err != nil {
		allocCancel()
		return nil, annotate.NewError(annotate.CodeCanvasUnavailable, "enumerate targets", err)
	}

	filter := strings.ToLower(strings.TrimSpace(tabFilter))
	for _, t := range targets {
		if t.Type != "page" || !strings.Contains(strings.ToLower(t.URL), filter) {
			continue
		}
		tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithTargetID(t.TargetID))
		if err := chromedp.Run(tabCtx); err != nil {
			tabCancel()
			continue
		}
		slog.Info("tvcanvas attached", "url", t.URL, "target_id", t.TargetID)
		return &Canvas{
			allocCtx:    allocCtx,
			allocCancel: allocCancel,
			tabCtx:      tabCtx,
			tabCancel:   tabCancel,
			evalTimeout: evalTimeout,
		}, nil
	}

	allocCancel()
	return nil, annotate.NewError(annotate.CodeCanvasUnavailable,
		fmt.Sprintf("no tab matching %q", tabFilter), nil)
}

// Close detaches from the tab without closing it.
func (c *Canvas) Close() {
	if c.tabCancel != nil {
		c.tabCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
}

func (c *Canvas) eval(expr string, out any) error {
	ctx, cancel := context.WithTimeout(c.tabCtx, c.evalTimeout)
	defer cancel()

	var raw string
	err := chromedp.Run(ctx, chromedp.Evaluate(expr, &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return annotate.NewError(annotate.CodeCanvasUnavailable, "eval failed", err)
	}

	var env evalEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return annotate.NewError(annotate.CodeCanvasUnavailable, "malformed eval envelope", err)
	}
	if !env.OK {
		return annotate.NewError(annotate.CodeCanvasUnavailable,
			env.ErrorCode+": "+env.ErrorMessage, nil)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return annotate.NewError(annotate.CodeCanvasUnavailable, "decode eval data", err)
		}
	}
	return nil
}

// AddVisual creates the matching native line tool and returns its entity ID
// as the opaque handle.
func (c *Canvas) AddVisual(v canvas.Visual) (canvas.ID, error) {
	points, options, ok := shapePayload(v)
	if !ok {
		return "", annotate.NewError(annotate.CodeCanvasUnavailable, "no line tool for "+v.Tool, nil)
	}
	var data struct {
		ID string `json:"id"`
	}
	if err := c.eval(jsCreateShape(points, options), &data); err != nil {
		return "", err
	}
	if v.Hidden {
		if err := c.eval(jsSetVisibility(data.ID, false), nil); err != nil {
			slog.Warn("tvcanvas hide visual failed", "entity_id", data.ID, "error", err)
		}
	}
	return canvas.ID(data.ID), nil
}

// RemoveVisual removes the entity behind the handle.
func (c *Canvas) RemoveVisual(id canvas.ID) error {
	return c.eval(jsRemoveShape(string(id)), nil)
}

// Refresh is a no-op: the page repaints itself.
func (c *Canvas) Refresh() {}

// SetInputEnabled toggles the chart's own scroll/zoom handling. Best effort:
// a chart build without the toggles keeps its input live and drawing still
// works, so the failure only logs.
func (c *Canvas) SetInputEnabled(enabled bool) {
	if err := c.eval(jsSetInputEnabled(enabled), nil); err != nil {
		slog.Debug("tvcanvas input toggle failed", "enabled", enabled, "error", err)
	}
}

// PixelToCoordinate maps device pixels to (time, price) with a linear fit of
// the visible window.
func (c *Canvas) PixelToCoordinate(px, py float64) geometry.Point {
	view := c.currentView()
	if view.widthPx <= 0 || view.heightPx <= 0 {
		return geometry.Point{}
	}
	return geometry.Point{
		X: view.visible.MinX + px/view.widthPx*view.visible.Width(),
		// Pixel y grows downward, price grows upward.
		Y: view.visible.MaxY - py/view.heightPx*view.visible.Height(),
	}
}

// UnitsPerPixel returns chart units per device pixel on each axis.
func (c *Canvas) UnitsPerPixel() (float64, float64) {
	view := c.currentView()
	if view.widthPx <= 0 || view.heightPx <= 0 {
		return 1, 1
	}
	return view.visible.Width() / view.widthPx, view.visible.Height() / view.heightPx
}

// VisibleRange returns the visible time/price window.
func (c *Canvas) VisibleRange() geometry.Rect {
	return c.currentView().visible
}

func (c *Canvas) currentView() viewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.view.fetchedAt) < viewCacheTTL {
		return c.view
	}

	var data struct {
		From     float64 `json:"from"`
		To       float64 `json:"to"`
		MinPrice float64 `json:"min_price"`
		MaxPrice float64 `json:"max_price"`
		WidthPx  float64 `json:"width_px"`
		HeightPx float64 `json:"height_px"`
	}
	if err := c.eval(jsViewInfo(), &data); err != nil {
		slog.Debug("tvcanvas view info failed, keeping cached view", "error", err)
		return c.view
	}
	c.view = viewState{
		visible: geometry.Rect{
			MinX: data.From, MaxX: data.To,
			MinY: data.MinPrice, MaxY: data.MaxPrice,
		},
		widthPx:   data.WidthPx,
		heightPx:  data.HeightPx,
		fetchedAt: time.Now(),
	}
	return c.view
}
