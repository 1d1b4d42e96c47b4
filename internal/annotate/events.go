package annotate

// EventType labels an annotation change published by the manager.
type EventType string

const (
	EventShapeAdded       EventType = "shape_added"
	EventShapeRemoved     EventType = "shape_removed"
	EventSelectionChanged EventType = "selection_changed"
	EventHistoryChanged   EventType = "history_changed"
	EventCleared          EventType = "cleared"
	EventLoaded           EventType = "loaded"
)

// Event describes one committed mutation. Events are emitted after the
// mutation is applied, outside the manager's lock.
type Event struct {
	Type    EventType `json:"type"`
	ShapeID string    `json:"shape_id,omitempty"`
	Kind    string    `json:"kind,omitempty"`
	Count   int       `json:"count"`
	CanUndo bool      `json:"can_undo"`
	CanRedo bool      `json:"can_redo"`
}

// EventFunc receives manager events. Callbacks must not block; slow
// consumers should hand off to their own buffering.
type EventFunc func(Event)
