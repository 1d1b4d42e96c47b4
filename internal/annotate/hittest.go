package annotate

import "github.com/dgnsrekt/chartmark/internal/geometry"

// proportionalMargin inflates each hit box by a share of its own extent to
// keep thin shapes pickable at any zoom.
const proportionalMargin = 0.02

// hitTestLocked picks the topmost visible shape under p: shapes are tested
// most-recently-added first, so later shapes occlude earlier ones. The hit
// box is the shape's axis-aligned extent inflated by the pixel tolerance
// translated to chart units plus the proportional margin.
func (s *Session) hitTestLocked(p geometry.Point) *Shape {
	ux, uy := s.canvas.UnitsPerPixel()
	tolX := s.opts.HitTolerancePx * abs(ux)
	tolY := s.opts.HitTolerancePx * abs(uy)
	visible := s.canvas.VisibleRange()

	shapes := s.mgr.Shapes()
	for i := len(shapes) - 1; i >= 0; i-- {
		sh := shapes[i]
		if !sh.Visible {
			continue
		}
		b := sh.bounds(visible)
		box := b.Expand(tolX+b.Width()*proportionalMargin, tolY+b.Height()*proportionalMargin)
		if box.Contains(p) {
			return sh
		}
	}
	return nil
}

// applyClickSelection implements the idle-mode click semantics: a plain
// click toggles the hit shape and clears every other selection; a
// modifier-click toggles only the hit shape; a plain click on empty space
// clears all selections.
func (s *Session) applyClickSelection(hit *Shape, mods Modifiers) error {
	if hit == nil {
		if !mods.multiSelect() {
			return s.mgr.ClearSelection()
		}
		return nil
	}
	if mods.multiSelect() {
		return s.mgr.SetSelected(hit.ID, !hit.Selected)
	}
	wasSelected := hit.Selected
	if err := s.mgr.ClearSelection(); err != nil {
		return err
	}
	if !wasSelected {
		return s.mgr.SetSelected(hit.ID, true)
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
