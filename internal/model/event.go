package model

// EventType tags a presentation event.
type EventType string

const (
	EventMessage EventType = "message"
	EventChunk   EventType = "chunk"
	EventResult  EventType = "result"
	EventError   EventType = "error"
)

// Event is one presentation event for the external UI. Chunks arrive
// strictly between pipeline start and the terminal result or error.
type Event struct {
	Type    EventType `json:"type"`
	Text    string    `json:"text"`
	IsUser  bool      `json:"is_user,omitempty"`
	Options []string  `json:"options,omitempty"`
}

// EventSink receives presentation events in delivery order. Implementations
// must not block for long; the conversation engine calls them inline.
type EventSink interface {
	ShowMessage(text string, isUser bool, options []string)
	StreamChunk(text string)
	ShowResult(text string)
	ShowError(text string)
}
