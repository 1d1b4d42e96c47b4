package annotate

import (
	"fmt"
	"math"

	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/geometry"
)

// Strategy converts a (start, end) anchor pair into renderable visuals. Both
// methods are pure functions of the two points; ok=false means the strategy
// produces nothing (the no-op strategy for reserved and unknown kinds).
type Strategy interface {
	Preview(start, end geometry.Point) (canvas.Visual, bool)
	Final(start, end geometry.Point) (canvas.Visual, bool)
}

// Registry maps shape kinds to their draw strategies. Adding a kind means
// registering a strategy here; the session and manager never change.
type Registry struct {
	strategies map[ShapeKind]Strategy
}

// NewRegistry returns a registry with every built-in strategy registered.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[ShapeKind]Strategy)}
	r.Register(KindTrendLine, trendLineStrategy{})
	r.Register(KindHorizontalLine, levelLineStrategy{horizontal: true})
	r.Register(KindVerticalLine, levelLineStrategy{horizontal: false})
	r.Register(KindRectangle, rectangleStrategy{})
	r.Register(KindCircle, circleStrategy{})
	r.Register(KindFibonacciRetracement, fibRetracementStrategy{})
	return r
}

// Register installs or replaces the strategy for a kind.
func (r *Registry) Register(kind ShapeKind, s Strategy) {
	r.strategies[kind] = s
}

// Lookup returns the strategy for a kind. Unknown and reserved kinds get the
// no-op strategy, never nil.
func (r *Registry) Lookup(kind ShapeKind) Strategy {
	if s, ok := r.strategies[kind]; ok {
		return s
	}
	return noopStrategy{}
}

// Registered reports whether the kind has a real (non-noop) strategy.
func (r *Registry) Registered(kind ShapeKind) bool {
	_, ok := r.strategies[kind]
	return ok
}

type noopStrategy struct{}

func (noopStrategy) Preview(_, _ geometry.Point) (canvas.Visual, bool) {
	return canvas.Visual{}, false
}

func (noopStrategy) Final(_, _ geometry.Point) (canvas.Visual, bool) {
	return canvas.Visual{}, false
}

type trendLineStrategy struct{}

func (trendLineStrategy) Preview(start, end geometry.Point) (canvas.Visual, bool) {
	return lineVisual(KindTrendLine, start, end, PreviewStyle(), true), true
}

func (trendLineStrategy) Final(start, end geometry.Point) (canvas.Visual, bool) {
	return lineVisual(KindTrendLine, start, end, DefaultStyle(KindTrendLine), false), true
}

func lineVisual(kind ShapeKind, start, end geometry.Point, st canvas.Style, preview bool) canvas.Visual {
	return canvas.Visual{
		Tool:    kind.String(),
		Preview: preview,
		Anchors: [2]geometry.Point{start, end},
		Style:   st,
	}
}

// levelLineStrategy draws horizontal or vertical level lines. Only the end
// point's relevant coordinate matters; the host sweeps the full axis.
type levelLineStrategy struct {
	horizontal bool
}

func (s levelLineStrategy) kind() ShapeKind {
	if s.horizontal {
		return KindHorizontalLine
	}
	return KindVerticalLine
}

func (s levelLineStrategy) build(start, end geometry.Point, st canvas.Style, preview bool) canvas.Visual {
	v := lineVisual(s.kind(), start, end, st, preview)
	if s.horizontal {
		v.SweepX = true
	} else {
		v.SweepY = true
	}
	return v
}

func (s levelLineStrategy) Preview(start, end geometry.Point) (canvas.Visual, bool) {
	return s.build(start, end, PreviewStyle(), true), true
}

func (s levelLineStrategy) Final(start, end geometry.Point) (canvas.Visual, bool) {
	return s.build(start, end, DefaultStyle(s.kind()), false), true
}

type rectangleStrategy struct{}

func (rectangleStrategy) build(start, end geometry.Point, st canvas.Style, preview bool) canvas.Visual {
	box := geometry.RectFromPoints(start, end)
	v := lineVisual(KindRectangle, start, end, st, preview)
	v.Box = &box
	return v
}

func (s rectangleStrategy) Preview(start, end geometry.Point) (canvas.Visual, bool) {
	return s.build(start, end, PreviewStyle(), true), true
}

func (s rectangleStrategy) Final(start, end geometry.Point) (canvas.Visual, bool) {
	return s.build(start, end, DefaultStyle(KindRectangle), false), true
}

// circleStrategy draws an ellipse centered at the anchor midpoint with radii
// of half the absolute deltas, so it stays correct when the host scales the
// axes unevenly.
type circleStrategy struct{}

func (circleStrategy) build(start, end geometry.Point, st canvas.Style, preview bool) canvas.Visual {
	v := lineVisual(KindCircle, start, end, st, preview)
	v.Ellipse = &canvas.Ellipse{
		Center:  geometry.Mid(start, end),
		RadiusX: math.Abs(end.X-start.X) / 2,
		RadiusY: math.Abs(end.Y-start.Y) / 2,
	}
	return v
}

func (s circleStrategy) Preview(start, end geometry.Point) (canvas.Visual, bool) {
	return s.build(start, end, PreviewStyle(), true), true
}

func (s circleStrategy) Final(start, end geometry.Point) (canvas.Visual, bool) {
	return s.build(start, end, DefaultStyle(KindCircle), false), true
}

// FibLevels are the retracement ratios rendered by the Fibonacci strategy,
// in drawing order from the start anchor's price to the end anchor's price.
var FibLevels = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// fibLevelColors follows the conventional TradingView level palette.
var fibLevelColors = map[float64]string{
	0:     "#787B86",
	0.236: "#F23645",
	0.382: "#FF9800",
	0.5:   "#4CAF50",
	0.618: "#089981",
	0.786: "#00BCD4",
	1:     "#787B86",
}

type fibRetracementStrategy struct{}

func (fibRetracementStrategy) Preview(start, end geometry.Point) (canvas.Visual, bool) {
	// The drag preview is just the anchor diagonal; levels appear on commit.
	return lineVisual(KindFibonacciRetracement, start, end, PreviewStyle(), true), true
}

func (fibRetracementStrategy) Final(start, end geometry.Point) (canvas.Visual, bool) {
	v := lineVisual(KindFibonacciRetracement, start, end, DefaultStyle(KindFibonacciRetracement), false)
	v.Segments = fibSegments(start, end)
	return v, true
}

// fibSegments builds one labeled horizontal segment per retracement level.
// Level 0 sits at the end anchor's price, level 1 at the start anchor's, and
// the rest interpolate between them.
func fibSegments(start, end geometry.Point) []canvas.Segment {
	segs := make([]canvas.Segment, 0, len(FibLevels))
	for _, ratio := range FibLevels {
		y := end.Y + (start.Y-end.Y)*ratio
		segs = append(segs, canvas.Segment{
			A:     geometry.Point{X: start.X, Y: y},
			B:     geometry.Point{X: end.X, Y: y},
			Label: fmt.Sprintf("%.3g (%.2f)", ratio, y),
			Color: fibLevelColors[ratio],
		})
	}
	return segs
}
