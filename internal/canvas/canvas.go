// Package canvas defines the boundary between the annotation engine and the
// host surface that actually renders. The engine only ever describes what to
// draw (a Visual) and holds the opaque handle the host returns; rasterization,
// axis scaling and input capture live on the other side of this interface.
package canvas

import "github.com/dgnsrekt/chartmark/internal/geometry"

// Style carries the stroke and fill attributes of a visual. FillColor is
// empty for non-fillable shapes; FillAlpha is only meaningful when FillColor
// is set.
type Style struct {
	LineColor string
	LineWidth float64
	FillColor string
	FillAlpha uint8
}

// Segment is one labeled sub-segment of a composite visual, e.g. a single
// Fibonacci level. Color overrides the visual's line color when set.
type Segment struct {
	A, B  geometry.Point
	Label string
	Color string
}

// Ellipse describes an ellipse by center and per-axis radii, which keeps it
// correct under non-uniform x/y scaling of the host axes.
type Ellipse struct {
	Center  geometry.Point
	RadiusX float64
	RadiusY float64
}

// Visual is the renderable description of one shape, produced by a draw
// strategy. Exactly one of the geometry fields beyond Anchors is populated
// for composite tools; simple two-point tools use Anchors alone.
type Visual struct {
	// Tool is the shape kind name, a hint for hosts with native drawing
	// tools (e.g. a TradingView line tool).
	Tool    string
	Preview bool
	// Hidden visuals stay attached but are not painted.
	Hidden  bool
	Anchors [2]geometry.Point
	Style   Style

	// Box is set for axis-aligned rectangles, normalized.
	Box *geometry.Rect
	// Ellipse is set for circle/ellipse tools.
	Ellipse *Ellipse
	// Segments holds extra labeled sub-segments (Fibonacci levels).
	Segments []Segment
	// SweepX/SweepY request that the host extend the visual across the
	// full visible axis (horizontal/vertical level lines).
	SweepX bool
	SweepY bool
}

// ID is the opaque handle a host canvas returns for an attached visual. The
// engine stores it and hands it back for removal; it carries no meaning
// beyond identity.
type ID string

// HostCanvas is the external rendering and input surface. Implementations own
// every visual they attach and must release them on RemoveVisual; the engine
// guarantees Add/Remove calls are paired.
type HostCanvas interface {
	// PixelToCoordinate maps a device pixel position to chart coordinates.
	PixelToCoordinate(px, py float64) geometry.Point
	// UnitsPerPixel returns the chart-unit size of one device pixel on
	// each axis, used to translate pixel tolerances into chart space.
	UnitsPerPixel() (ux, uy float64)
	// VisibleRange returns the chart-space region currently on screen.
	VisibleRange() geometry.Rect
	// AddVisual attaches a visual and returns its handle.
	AddVisual(v Visual) (ID, error)
	// RemoveVisual detaches a previously attached visual.
	RemoveVisual(id ID) error
	// Refresh asks the host to repaint.
	Refresh()
	// SetInputEnabled toggles the host's own pan/zoom input handling.
	// Drawing gestures disable it so drags are not interpreted as pans.
	SetInputEnabled(enabled bool)
}
