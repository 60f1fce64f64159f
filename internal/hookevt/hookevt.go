package hookevt

import (
	"errors"
	"fmt"
	"time"
)

// EventType identifies one of the agent lifecycle points a hook fires at.
// The set is closed — the collector only understands these six values, so
// anything else is a caller error, not data.
type EventType string

const (
	PreToolUse       EventType = "PreToolUse"
	PostToolUse      EventType = "PostToolUse"
	UserPromptSubmit EventType = "UserPromptSubmit"
	Notification     EventType = "Notification"
	Stop             EventType = "Stop"
	SubagentStop     EventType = "SubagentStop"
)

// ErrInvalidEventType is returned for event types outside the closed set.
// This signals an integration error, not a runtime failure.
var ErrInvalidEventType = errors.New("invalid hook event type")

// eventTypes is the fixed membership set, in lifecycle order.
var eventTypes = []EventType{
	PreToolUse,
	PostToolUse,
	UserPromptSubmit,
	Notification,
	Stop,
	SubagentStop,
}

// ParseEventType validates s against the closed event type set.
func ParseEventType(s string) (EventType, error) {
	for _, et := range eventTypes {
		if s == string(et) {
			return et, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
}

// Valid reports whether et is one of the six recognized event types.
func (et EventType) Valid() bool {
	_, err := ParseEventType(string(et))
	return err == nil
}

// EventTypeNames returns the recognized event type names, in lifecycle order.
func EventTypeNames() []string {
	names := make([]string, len(eventTypes))
	for i, et := range eventTypes {
		names[i] = string(et)
	}
	return names
}

// TimestampFormat is the wire timestamp layout: ISO-8601 UTC with
// millisecond precision and a literal Z suffix.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in the wire timestamp layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// Envelope matches the JSON wire format expected by the observability
// collector at POST /events. This is an independent definition — no imports
// from the collector module. The contract between the two programs is the
// JSON schema, not Go types.
type Envelope struct {
	SourceApp     string           `json:"source_app"`
	SessionID     string           `json:"session_id"`
	HookEventType EventType        `json:"hook_event_type"`
	Payload       map[string]any   `json:"payload"`
	Timestamp     string           `json:"timestamp"`
	Chat          []map[string]any `json:"chat,omitempty"`
	Summary       string           `json:"summary,omitempty"`
}

// StringField retrieves a string value from a JSON-unmarshaled map.
// Returns ("", false) if the key is missing or the value is not a string.
func StringField(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MapField retrieves a nested map from a JSON-unmarshaled map.
func MapField(data map[string]any, key string) (map[string]any, bool) {
	v, ok := data[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// BoolField retrieves a boolean value from a JSON-unmarshaled map.
func BoolField(data map[string]any, key string) (bool, bool) {
	v, ok := data[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float64Field retrieves a float64 value from a JSON-unmarshaled map.
// JSON numbers unmarshal to float64 by default in Go.
func Float64Field(data map[string]any, key string) (float64, bool) {
	v, ok := data[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
