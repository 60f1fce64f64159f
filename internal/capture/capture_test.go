package capture

import (
	"strings"
	"testing"
	"unicode/utf8"

	"event-capture/internal/validate"
)

func TestAnnotate_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	payload := map[string]any{"tool": "bash"}
	annotated := Annotate(payload, AnnotationKey, map[string]any{"x": 1})

	if _, ok := payload[AnnotationKey]; ok {
		t.Error("original payload was mutated")
	}
	if annotated["tool"] != "bash" {
		t.Error("user field lost in annotated copy")
	}
	if _, ok := annotated[AnnotationKey]; !ok {
		t.Error("annotation missing from copy")
	}
}

func TestExecutionStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"explicit error", map[string]any{"error": "boom", "output": "partial"}, "error"},
		{"success flag true", map[string]any{"success": true}, "success"},
		{"success flag false", map[string]any{"success": false}, "error"},
		{"zero exit code", map[string]any{"exit_code": float64(0)}, "success"},
		{"nonzero exit code", map[string]any{"exit_code": float64(2)}, "error"},
		{"output only", map[string]any{"output": "hello"}, "success"},
		{"result only", map[string]any{"result": "done"}, "success"},
		{"nothing recognizable", map[string]any{"meta": "x"}, "unknown"},
		{"empty payload", map[string]any{}, "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExecutionStatus(tc.payload); got != tc.want {
				t.Errorf("ExecutionStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOutputAnalysis(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload map[string]any
		want    map[string]any
	}{
		{
			"no output",
			map[string]any{"exit_code": float64(0)},
			map[string]any{"has_output": false, "output_length": 0, "output_lines": 0, "contains_errors": false},
		},
		{
			"clean single line",
			map[string]any{"output": "done"},
			map[string]any{"has_output": true, "output_length": 4, "output_lines": 1, "contains_errors": false},
		},
		{
			"multiline output",
			map[string]any{"output": "one\ntwo\nthree"},
			map[string]any{"has_output": true, "output_length": 13, "output_lines": 3, "contains_errors": false},
		},
		{
			"error log output",
			map[string]any{"output": "Traceback (most recent call last):\nValueError"},
			map[string]any{"has_output": true, "output_length": 45, "output_lines": 2, "contains_errors": true},
		},
		{
			"failed keyword",
			map[string]any{"output": "2 tests FAILED"},
			map[string]any{"has_output": true, "output_length": 14, "output_lines": 1, "contains_errors": true},
		},
		{
			"result field fallback",
			map[string]any{"result": "ok"},
			map[string]any{"has_output": true, "output_length": 2, "output_lines": 1, "contains_errors": false},
		},
		{
			"stdout field fallback",
			map[string]any{"stdout": "hello"},
			map[string]any{"has_output": true, "output_length": 5, "output_lines": 1, "contains_errors": false},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := OutputAnalysis(tc.payload)
			for key, want := range tc.want {
				if got[key] != want {
					t.Errorf("%s = %v, want %v", key, got[key], want)
				}
			}
		})
	}
}

func TestPostToolUse_IncludesOutputAnalysis(t *testing.T) {
	t.Parallel()

	ann := PostToolUse(map[string]any{"exit_code": float64(1), "output": "permission denied error"})
	if ann["execution_status"] != "error" {
		t.Errorf("execution_status = %v, want error", ann["execution_status"])
	}
	analysis, ok := ann["output_analysis"].(map[string]any)
	if !ok {
		t.Fatalf("output_analysis missing: %v", ann)
	}
	if analysis["contains_errors"] != true {
		t.Errorf("contains_errors = %v, want true", analysis["contains_errors"])
	}
}

func TestPromptText_PriorityOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"prompt wins", map[string]any{"prompt": "a", "text": "b", "message": "c"}, "a"},
		{"text second", map[string]any{"text": "b", "message": "c"}, "b"},
		{"content last", map[string]any{"content": "z"}, "z"},
		{"nothing", map[string]any{"other": "x"}, ""},
		{"non-string ignored", map[string]any{"prompt": float64(5), "text": "b"}, "b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PromptText(tc.payload); got != tc.want {
				t.Errorf("PromptText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUserPromptSubmit_Truncation(t *testing.T) {
	t.Parallel()

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	ann := UserPromptSubmit(map[string]any{"prompt": string(long)})

	if ann["prompt_length"] != 500 {
		t.Errorf("prompt_length = %v, want 500", ann["prompt_length"])
	}
	preview, _ := ann["prompt_preview"].(string)
	if len(preview) != 200 {
		t.Errorf("preview length = %d, want 200", len(preview))
	}
	if ann["prompt_truncated"] != true {
		t.Error("prompt_truncated should be true")
	}

	short := UserPromptSubmit(map[string]any{"prompt": "hi"})
	if short["prompt_truncated"] != false {
		t.Error("short prompt should not be marked truncated")
	}
}

func TestUserPromptSubmit_TruncationKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	// 198 ASCII bytes followed by multi-byte runes straddling the 200-byte
	// preview boundary.
	prompt := strings.Repeat("a", 198) + "日本語"
	ann := UserPromptSubmit(map[string]any{"prompt": prompt})

	preview, _ := ann["prompt_preview"].(string)
	if !utf8.ValidString(preview) {
		t.Errorf("preview is not valid UTF-8: %q", preview)
	}
	if len(preview) > 200 {
		t.Errorf("preview length = %d, want <= 200", len(preview))
	}
	if len(preview) != 198 {
		t.Errorf("preview length = %d, want 198 (cut backed up to a rune boundary)", len(preview))
	}
	if ann["prompt_truncated"] != true {
		t.Error("prompt_truncated should be true")
	}
}

func TestUserPromptSubmit_Hash(t *testing.T) {
	t.Parallel()

	first := UserPromptSubmit(map[string]any{"prompt": "refactor the parser"})
	second := UserPromptSubmit(map[string]any{"prompt": "refactor the parser"})
	other := UserPromptSubmit(map[string]any{"prompt": "something else"})

	hash, _ := first["prompt_hash"].(string)
	if len(hash) != 16 {
		t.Fatalf("prompt_hash = %q, want 16 hex chars", hash)
	}
	if second["prompt_hash"] != hash {
		t.Error("identical prompts must hash identically")
	}
	if other["prompt_hash"] == hash {
		t.Error("different prompts should not collide")
	}

	empty := UserPromptSubmit(map[string]any{})
	if empty["prompt_hash"] != "" {
		t.Errorf("empty prompt hash = %v, want empty string", empty["prompt_hash"])
	}
}

func TestUserPromptSubmit_Screening(t *testing.T) {
	t.Parallel()

	clean := UserPromptSubmit(map[string]any{"prompt": "write a test for the dispatcher"})
	screen, ok := clean["validation"].(validate.PromptScreen)
	if !ok {
		t.Fatalf("validation missing: %v", clean)
	}
	if !screen.IsSafe || len(screen.SuspiciousPatterns) != 0 {
		t.Errorf("clean prompt flagged: %+v", screen)
	}

	sus := UserPromptSubmit(map[string]any{"prompt": `render <script>alert(1)</script>`})
	screen, _ = sus["validation"].(validate.PromptScreen)
	if screen.IsSafe {
		t.Error("IsSafe = true, want false for script injection")
	}
	if len(screen.SuspiciousPatterns) != 1 || screen.SuspiciousPatterns[0] != "script-injection" {
		t.Errorf("SuspiciousPatterns = %v, want [script-injection]", screen.SuspiciousPatterns)
	}
}

func TestNotificationDefaults(t *testing.T) {
	t.Parallel()

	ann := Notification(map[string]any{})
	if ann["notification_type"] != "unknown" {
		t.Errorf("notification_type = %v, want unknown", ann["notification_type"])
	}
	if ann["severity"] != "info" {
		t.Errorf("severity = %v, want info", ann["severity"])
	}

	ann = Notification(map[string]any{"type": "confirmation", "message": "proceed?", "severity": "warning"})
	if ann["notification_type"] != "confirmation" || ann["message"] != "proceed?" || ann["severity"] != "warning" {
		t.Errorf("notification fields not carried through: %v", ann)
	}
}

func TestStopAndSubagentStop(t *testing.T) {
	t.Parallel()

	stop := Stop(map[string]any{"reason": "user_exit", "status": "aborted"})
	if stop["session_completed"] != true {
		t.Error("session_completed should be true")
	}
	if stop["exit_reason"] != "user_exit" || stop["final_status"] != "aborted" {
		t.Errorf("stop fields = %v", stop)
	}

	sub := SubagentStop(map[string]any{"subagent_id": "sub-7", "parent_session_id": "sess-1", "task_type": "search"})
	if sub["subagent_id"] != "sub-7" || sub["parent_session_id"] != "sess-1" || sub["task_type"] != "search" {
		t.Errorf("subagent fields = %v", sub)
	}

	defaults := SubagentStop(map[string]any{})
	if defaults["subagent_id"] != "unknown" || defaults["exit_reason"] != "completed" || defaults["final_status"] != "success" {
		t.Errorf("subagent defaults = %v", defaults)
	}
}
