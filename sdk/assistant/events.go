package assistant

import (
	"strings"

	"github.com/tidwall/gjson"
)

// EventType discriminates protocol events on the wire.
type EventType string

const (
	EventToken     EventType = "token"
	EventToolStart EventType = "tool_start"
	EventToolEnd   EventType = "tool_end"
	EventThinking  EventType = "thinking"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// eventMarker prefixes every protocol event line. Lines without it are
// ignored.
const eventMarker = "data: "

// Event is one decoded unit from the response stream.
type Event struct {
	Type EventType

	// Content is set for token events.
	Content string
	// Name is set for tool_start and tool_end events.
	Name string
	// Message is set for error events. Logged, never rendered.
	Message string
}

// Terminal reports whether the event ends the stream. Exactly one terminal
// event is expected per stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// ParseEventLine decodes one physical line into a protocol event. It
// returns ok=false for lines that do not carry the marker, carry invalid
// JSON, or carry an unknown type; the transport drops those.
func ParseEventLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, eventMarker) {
		return Event{}, false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, eventMarker))
	if payload == "" || !gjson.Valid(payload) {
		return Event{}, false
	}

	switch EventType(gjson.Get(payload, "type").String()) {
	case EventToken:
		return Event{Type: EventToken, Content: gjson.Get(payload, "content").String()}, true
	case EventToolStart:
		return Event{Type: EventToolStart, Name: gjson.Get(payload, "name").String()}, true
	case EventToolEnd:
		return Event{Type: EventToolEnd, Name: gjson.Get(payload, "name").String()}, true
	case EventThinking:
		return Event{Type: EventThinking}, true
	case EventDone:
		return Event{Type: EventDone}, true
	case EventError:
		return Event{Type: EventError, Message: gjson.Get(payload, "error").String()}, true
	}

	return Event{}, false
}
