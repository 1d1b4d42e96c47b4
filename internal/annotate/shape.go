package annotate

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgnsrekt/chartmark/internal/canvas"
	"github.com/dgnsrekt/chartmark/internal/geometry"
)

// Shape is one committed annotation. The manager's collection holds the
// canonical record; the host canvas owns the rendering behind the visual
// handle. A shape is a member of the collection iff its handle is attached.
type Shape struct {
	ID        string
	Kind      ShapeKind
	Start     geometry.Point
	End       geometry.Point
	Style     canvas.Style
	Visual    canvas.Visual
	Selected  bool
	Visible   bool
	CreatedAt time.Time

	// visualID is the host canvas handle, set while attached. Owned by the
	// manager; empty when the shape is not in a collection.
	visualID canvas.ID
}

// NewShape builds an unattached shape from a finalized visual.
func NewShape(kind ShapeKind, start, end geometry.Point, style canvas.Style, visual canvas.Visual) *Shape {
	return &Shape{
		ID:        newShapeID(),
		Kind:      kind,
		Start:     start,
		End:       end,
		Style:     style,
		Visual:    visual,
		Visible:   true,
		CreatedAt: time.Now().UTC(),
	}
}

// VisualID returns the current host canvas handle, empty when detached.
func (s *Shape) VisualID() canvas.ID { return s.visualID }

// bounds returns the shape's axis-aligned extent. Level lines extend across
// the full visible axis, so their swept dimension comes from the viewport.
func (s *Shape) bounds(visible geometry.Rect) geometry.Rect {
	r := geometry.RectFromPoints(s.Start, s.End)
	switch s.Kind {
	case KindHorizontalLine:
		r.MinX, r.MaxX = visible.MinX, visible.MaxX
		r.MinY, r.MaxY = s.End.Y, s.End.Y
	case KindVerticalLine:
		r.MinX, r.MaxX = s.End.X, s.End.X
		r.MinY, r.MaxY = visible.MinY, visible.MaxY
	}
	return r
}

func newShapeID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		// IDs only need local uniqueness.
		return fmt.Sprintf("shape-%d", time.Now().UnixNano())
	}
	return "shape-" + hex.EncodeToString(b[:])
}
