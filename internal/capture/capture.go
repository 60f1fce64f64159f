// Package capture derives the small per-hook annotation objects that ride
// along with each event. Annotations live under the reserved "_capture"
// payload key; user-supplied payload fields are never modified, so the
// payload stays reproducible from the agent's point of view.
package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"

	"event-capture/internal/hookevt"
	"event-capture/internal/validate"
)

// AnnotationKey is the reserved payload key for hook-derived metadata.
const AnnotationKey = "_capture"

// ValidationKey is the reserved payload key for the pre-tool-use verdict.
const ValidationKey = "_validation"

// Annotate returns a shallow copy of payload with the annotation attached.
// The original map is left untouched — callers may still print or forward
// the verbatim payload.
func Annotate(payload map[string]any, key string, annotation any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out[key] = annotation
	return out
}

// ExecutionStatus classifies a tool result as "error", "success", or
// "unknown", checking the conventional result fields in order: an explicit
// error wins, then a success flag, then the exit code, then the mere
// presence of output.
func ExecutionStatus(payload map[string]any) string {
	if _, ok := payload["error"]; ok {
		return "error"
	}
	if success, ok := hookevt.BoolField(payload, "success"); ok {
		if success {
			return "success"
		}
		return "error"
	}
	if code, ok := hookevt.Float64Field(payload, "exit_code"); ok {
		if code == 0 {
			return "success"
		}
		return "error"
	}
	if _, ok := payload["output"]; ok {
		return "success"
	}
	if _, ok := payload["result"]; ok {
		return "success"
	}
	return "unknown"
}

// PostToolUse summarizes a tool execution result.
func PostToolUse(payload map[string]any) map[string]any {
	return map[string]any{
		"execution_status": ExecutionStatus(payload),
		"output_analysis":  OutputAnalysis(payload),
	}
}

// errorOutputRe marks output that reads like a failure even when the result
// fields claim otherwise.
var errorOutputRe = regexp.MustCompile(`(?i)error|exception|traceback|failed`)

// OutputAnalysis describes the tool's textual output: whether there is any,
// how much, and whether it looks like an error log. Output is taken from
// the first non-empty of the "output", "result", and "stdout" fields.
func OutputAnalysis(payload map[string]any) map[string]any {
	analysis := map[string]any{
		"has_output":      false,
		"output_length":   0,
		"output_lines":    0,
		"contains_errors": false,
	}

	content := outputContent(payload)
	if content == "" {
		return analysis
	}

	analysis["has_output"] = true
	analysis["output_length"] = len(content)
	analysis["output_lines"] = strings.Count(content, "\n") + 1
	analysis["contains_errors"] = errorOutputRe.MatchString(content)
	return analysis
}

func outputContent(payload map[string]any) string {
	for _, field := range []string{"output", "result", "stdout"} {
		if s, ok := hookevt.StringField(payload, field); ok && s != "" {
			return s
		}
	}
	return ""
}

// promptFields are the known spellings for the user prompt text, in
// priority order.
var promptFields = []string{"prompt", "text", "message", "input", "user_input", "content"}

// PromptText extracts the user prompt from its known field spellings.
// Returns "" when no prompt text is identifiable.
func PromptText(payload map[string]any) string {
	for _, field := range promptFields {
		if s, ok := hookevt.StringField(payload, field); ok && s != "" {
			return s
		}
	}
	return ""
}

// UserPromptSubmit summarizes a submitted prompt: its length, a bounded
// preview, a dedup hash, and an injection screen. The screen is
// informational — unlike the pre-tool-use verdict it never changes the
// exit code.
func UserPromptSubmit(payload map[string]any) map[string]any {
	prompt := PromptText(payload)
	preview, truncated := truncate(prompt, 200)
	return map[string]any{
		"prompt_length":    len(prompt),
		"prompt_preview":   preview,
		"prompt_truncated": truncated,
		"prompt_hash":      promptHash(prompt),
		"validation":       validate.ScreenPrompt(prompt),
	}
}

// promptHash identifies a prompt for deduplication without storing its
// text: the first 16 hex characters of its SHA-256. Empty prompts hash to
// the empty string.
func promptHash(prompt string) string {
	if prompt == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])[:16]
}

// Notification summarizes an agent notification event.
func Notification(payload map[string]any) map[string]any {
	return map[string]any{
		"notification_type": stringOr(payload, "type", "unknown"),
		"message":           stringOr(payload, "message", ""),
		"severity":          stringOr(payload, "severity", "info"),
	}
}

// Stop summarizes a session completion event.
func Stop(payload map[string]any) map[string]any {
	return map[string]any{
		"session_completed": true,
		"exit_reason":       stringOr(payload, "reason", "completed"),
		"final_status":      stringOr(payload, "status", "success"),
	}
}

// SubagentStop summarizes a sub-agent completion event.
func SubagentStop(payload map[string]any) map[string]any {
	return map[string]any{
		"subagent_id":       stringOr(payload, "subagent_id", "unknown"),
		"parent_session_id": stringOr(payload, "parent_session_id", ""),
		"task_type":         stringOr(payload, "task_type", "unknown"),
		"exit_reason":       stringOr(payload, "reason", "completed"),
		"final_status":      stringOr(payload, "status", "success"),
	}
}

func stringOr(payload map[string]any, key, fallback string) string {
	if s, ok := hookevt.StringField(payload, key); ok && s != "" {
		return s
	}
	return fallback
}

// truncate cuts s to at most max bytes, backing up to a rune boundary so
// the preview never ends in a mangled partial character.
func truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
