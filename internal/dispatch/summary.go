package dispatch

import (
	"strings"

	"event-capture/internal/hookevt"
)

// Summarizer derives a short description of an envelope. The second return
// reports whether a summary was produced. Implementations must not fail:
// a summarizer that cannot summarize returns ("", false).
//
// The default is a field concatenation placeholder — the seam exists so a
// real model-backed summarizer can be plugged in without touching dispatch.
type Summarizer func(env hookevt.Envelope) (string, bool)

// SummarizeFields is the default Summarizer. It joins the event type with
// the tool, command, and error payload fields, when present.
func SummarizeFields(env hookevt.Envelope) (string, bool) {
	parts := []string{"Event: " + string(env.HookEventType)}

	if tool, ok := hookevt.StringField(env.Payload, "tool"); ok && tool != "" {
		parts = append(parts, "Tool: "+tool)
	}
	if cmd, ok := hookevt.StringField(env.Payload, "command"); ok && cmd != "" {
		parts = append(parts, "Command: "+cmd)
	}
	if errMsg, ok := hookevt.StringField(env.Payload, "error"); ok && errMsg != "" {
		parts = append(parts, "Error: "+errMsg)
	}

	return strings.Join(parts, " | "), true
}
