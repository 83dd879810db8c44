package domain

import "time"

// EventType defines the category of an edit event.
type EventType string

const (
	EventImport            EventType = "import"
	EventExport            EventType = "export"
	EventReset             EventType = "reset"
	EventBuild             EventType = "build"
	EventStateAdded        EventType = "state_added"
	EventStateUpdated      EventType = "state_updated"
	EventTransitionAdded   EventType = "transition_added"
	EventTransitionUpdated EventType = "transition_updated"
	EventDeleted           EventType = "deleted"
	EventDocumentRenamed   EventType = "document_renamed"
	EventUndo              EventType = "undo"
	EventRedo              EventType = "redo"
)

// EditEvent is emitted after every document operation, successful or not.
type EditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Document  string    `json:"document,omitempty"`
	Element   string    `json:"element,omitempty"`
	Bytes     int       `json:"bytes,omitempty"` // import/export payload size
	Err       error     `json:"-"`
}

// Hooks defines callbacks for editor observability.
type Hooks struct {
	OnEdit   func(*EditEvent)
	OnImport func(*EditEvent)
	OnExport func(*EditEvent)
}

// Merge returns hooks that call h first and then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnEdit:   chain(h.OnEdit, other.OnEdit),
		OnImport: chain(h.OnImport, other.OnImport),
		OnExport: chain(h.OnExport, other.OnExport),
	}
}

func chain(a, b func(*EditEvent)) func(*EditEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e *EditEvent) {
		a(e)
		b(e)
	}
}
