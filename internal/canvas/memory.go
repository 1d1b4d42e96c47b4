package canvas

import (
	"fmt"
	"sync"

	"github.com/dgnsrekt/chartmark/internal/geometry"
)

// Memory is an in-process HostCanvas with a linear pixel-to-chart mapping.
// It is the default backend for headless operation and the canvas used by
// the engine tests: it tracks exactly which visuals are attached so the
// collection/canvas consistency invariant can be checked from outside.
type Memory struct {
	mu           sync.Mutex
	origin       geometry.Point
	unitsPerPxX  float64
	unitsPerPxY  float64
	visible      geometry.Rect
	visuals      map[ID]Visual
	nextID       int
	inputEnabled bool
	refreshes    int
}

// NewMemory creates a memory canvas mapping pixel (0,0) to origin with the
// given chart units per device pixel and the given visible chart region.
func NewMemory(origin geometry.Point, unitsPerPxX, unitsPerPxY float64, visible geometry.Rect) *Memory {
	if unitsPerPxX == 0 {
		unitsPerPxX = 1
	}
	if unitsPerPxY == 0 {
		unitsPerPxY = 1
	}
	return &Memory{
		origin:       origin,
		unitsPerPxX:  unitsPerPxX,
		unitsPerPxY:  unitsPerPxY,
		visible:      visible,
		visuals:      make(map[ID]Visual),
		inputEnabled: true,
	}
}

func (m *Memory) PixelToCoordinate(px, py float64) geometry.Point {
	return geometry.Point{
		X: m.origin.X + px*m.unitsPerPxX,
		Y: m.origin.Y + py*m.unitsPerPxY,
	}
}

func (m *Memory) UnitsPerPixel() (float64, float64) {
	return m.unitsPerPxX, m.unitsPerPxY
}

func (m *Memory) VisibleRange() geometry.Rect {
	return m.visible
}

func (m *Memory) AddVisual(v Visual) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := ID(fmt.Sprintf("vis-%d", m.nextID))
	m.visuals[id] = v
	return id, nil
}

func (m *Memory) RemoveVisual(id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visuals[id]; !ok {
		return fmt.Errorf("memory canvas: remove unknown visual %q", id)
	}
	delete(m.visuals, id)
	return nil
}

func (m *Memory) Refresh() {
	m.mu.Lock()
	m.refreshes++
	m.mu.Unlock()
}

func (m *Memory) SetInputEnabled(enabled bool) {
	m.mu.Lock()
	m.inputEnabled = enabled
	m.mu.Unlock()
}

// InputEnabled reports the current pan/zoom input state.
func (m *Memory) InputEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputEnabled
}

// VisualCount returns the number of currently attached visuals.
func (m *Memory) VisualCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visuals)
}

// Attached reports whether the given handle is currently attached.
func (m *Memory) Attached(id ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.visuals[id]
	return ok
}

// Visual returns the attached visual for a handle.
func (m *Memory) Visual(id ID) (Visual, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visuals[id]
	return v, ok
}
