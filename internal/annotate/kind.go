// Package annotate implements the interactive annotation engine: the draw
// strategies that turn a pair of anchor points into renderable visuals, the
// pointer-driven drawing session, and the command-tracked shape manager with
// undo/redo history.
package annotate

// ShapeKind enumerates the annotation tools. The reserved kinds are declared
// so their names round-trip through documents, but they have no registered
// strategy: arming one is a no-op and loading one is skipped.
type ShapeKind int

const (
	KindNone ShapeKind = iota
	KindTrendLine
	KindHorizontalLine
	KindVerticalLine
	KindRectangle
	KindCircle
	KindFibonacciRetracement
	KindFibonacciExtension // reserved
	KindChannel            // reserved
	KindTriangle           // reserved
	KindText               // reserved
)

var kindNames = map[ShapeKind]string{
	KindNone:                 "None",
	KindTrendLine:            "TrendLine",
	KindHorizontalLine:       "HorizontalLine",
	KindVerticalLine:         "VerticalLine",
	KindRectangle:            "Rectangle",
	KindCircle:               "Circle",
	KindFibonacciRetracement: "FibonacciRetracement",
	KindFibonacciExtension:   "FibonacciExtension",
	KindChannel:              "Channel",
	KindTriangle:             "Triangle",
	KindText:                 "Text",
}

// String returns the canonical enumeration name. These names are the
// case-sensitive ShapeType values of the persistence format.
func (k ShapeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "None"
}

// ParseShapeKind resolves a canonical kind name. The match is exact and
// case-sensitive; unknown names report ok=false.
func ParseShapeKind(name string) (ShapeKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindNone, false
}

// Fillable reports whether the kind carries a meaningful fill.
func (k ShapeKind) Fillable() bool {
	return k == KindRectangle || k == KindCircle
}
