// Package geometry provides the chart-space primitives shared by the
// annotation engine: points in (time, price) coordinates and axis-aligned
// rectangles used for bounds and hit testing.
package geometry

import "math"

// Point is an immutable coordinate in chart space. X runs along the
// time-like axis, Y along the price-like axis.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mid returns the midpoint of a and b.
func Mid(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Rect is an axis-aligned rectangle in chart space. MinX <= MaxX and
// MinY <= MaxY hold for every Rect produced by this package.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// RectFromPoints returns the normalized bounding rectangle of a and b,
// regardless of the order the corners were given in.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Expand grows the rectangle by dx on the left and right and dy on the top
// and bottom. Negative values shrink it; the result is re-normalized so a
// shrink can never invert the bounds.
func (r Rect) Expand(dx, dy float64) Rect {
	out := Rect{
		MinX: r.MinX - dx,
		MinY: r.MinY - dy,
		MaxX: r.MaxX + dx,
		MaxY: r.MaxY + dy,
	}
	if out.MinX > out.MaxX {
		mid := (r.MinX + r.MaxX) / 2
		out.MinX, out.MaxX = mid, mid
	}
	if out.MinY > out.MaxY {
		mid := (r.MinY + r.MaxY) / 2
		out.MinY, out.MaxY = mid, mid
	}
	return out
}

// Contains reports whether p lies inside the rectangle, borders included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}
