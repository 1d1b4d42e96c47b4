package annotate

import "github.com/dgnsrekt/chartmark/internal/canvas"

// Preview visuals always use the same low-emphasis style regardless of kind.
var previewStyle = canvas.Style{
	LineColor: "#808080",
	LineWidth: 1,
}

// selectionExtraWidth is the stroke weight added when a shape is selected.
// Selection emphasis re-applies style only; geometry is never touched.
const selectionExtraWidth = 1.5

var defaultStyles = map[ShapeKind]canvas.Style{
	KindTrendLine:            {LineColor: "#0000FF", LineWidth: 2},
	KindHorizontalLine:       {LineColor: "#008000", LineWidth: 1.5},
	KindVerticalLine:         {LineColor: "#008000", LineWidth: 1.5},
	KindRectangle:            {LineColor: "#800080", LineWidth: 2, FillColor: "#800080", FillAlpha: 25},
	KindCircle:               {LineColor: "#FF8C00", LineWidth: 2, FillColor: "#FF8C00", FillAlpha: 25},
	KindFibonacciRetracement: {LineColor: "#787B86", LineWidth: 1},
}

// DefaultStyle returns the committed style for a kind.
func DefaultStyle(kind ShapeKind) canvas.Style {
	if st, ok := defaultStyles[kind]; ok {
		return st
	}
	return canvas.Style{LineColor: "#000000", LineWidth: 1}
}

// PreviewStyle returns the fixed translucent style used while dragging.
func PreviewStyle() canvas.Style { return previewStyle }

// emphasize returns the style with selection weight applied.
func emphasize(st canvas.Style) canvas.Style {
	st.LineWidth += selectionExtraWidth
	return st
}
