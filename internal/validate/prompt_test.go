package validate

import (
	"reflect"
	"strings"
	"testing"
)

func TestScreenPrompt_Suspicious(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		prompt string
		want   []string
	}{
		{
			"script tag",
			`please render <script>alert(1)</script> for me`,
			[]string{"script-injection"},
		},
		{
			"script tag spanning lines",
			"see <script type=\"text/javascript\">\nsteal()\n</script> above",
			[]string{"script-injection"},
		},
		{
			"javascript url",
			"click javascript:doEvil()",
			[]string{"javascript-url"},
		},
		{
			"data html url",
			"open data:text/html,<h1>x</h1>",
			[]string{"data-html-url"},
		},
		{
			"eval call",
			"run eval (payload) please",
			[]string{"eval-call"},
		},
		{
			"exec call",
			"then exec(cmd)",
			[]string{"exec-call"},
		},
		{
			"case insensitive",
			"JAVASCRIPT:void(0)",
			[]string{"javascript-url"},
		},
		{
			"multiple matches reported in order",
			`<script>eval(x)</script>`,
			[]string{"script-injection", "eval-call"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			screen := ScreenPrompt(tc.prompt)
			if screen.IsSafe {
				t.Error("IsSafe = true, want false")
			}
			if !reflect.DeepEqual(screen.SuspiciousPatterns, tc.want) {
				t.Errorf("SuspiciousPatterns = %v, want %v", screen.SuspiciousPatterns, tc.want)
			}
		})
	}
}

func TestScreenPrompt_Safe(t *testing.T) {
	t.Parallel()

	for _, prompt := range []string{
		"",
		"please refactor the parser in internal/validate",
		"how do I write a table-driven test?",
		"the word javascript alone is fine",
	} {
		screen := ScreenPrompt(prompt)
		if !screen.IsSafe {
			t.Errorf("ScreenPrompt(%q).IsSafe = false, want true", prompt)
		}
		if len(screen.SuspiciousPatterns) != 0 {
			t.Errorf("ScreenPrompt(%q) matched %v", prompt, screen.SuspiciousPatterns)
		}
	}
}

func TestScreenPrompt_LengthWarning(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", maxPromptLength+1)
	screen := ScreenPrompt(long)

	if !screen.IsSafe {
		t.Error("length alone must not mark a prompt unsafe")
	}
	if len(screen.Warnings) != 1 || !strings.Contains(screen.Warnings[0], "long prompt") {
		t.Errorf("Warnings = %v, want a length warning", screen.Warnings)
	}

	if w := ScreenPrompt(strings.Repeat("a", maxPromptLength)).Warnings; len(w) != 0 {
		t.Errorf("prompt at the limit warned: %v", w)
	}
}

func TestScreenPrompt_NonASCIIWarning(t *testing.T) {
	t.Parallel()

	screen := ScreenPrompt(strings.Repeat("日", maxNonASCIIRunes+1))
	if !screen.IsSafe {
		t.Error("encoding alone must not mark a prompt unsafe")
	}
	if len(screen.Warnings) != 1 || !strings.Contains(screen.Warnings[0], "non-ASCII") {
		t.Errorf("Warnings = %v, want a non-ASCII warning", screen.Warnings)
	}

	// At or below the threshold stays quiet.
	if w := ScreenPrompt(strings.Repeat("é", maxNonASCIIRunes)).Warnings; len(w) != 0 {
		t.Errorf("prompt at the threshold warned: %v", w)
	}
}

func TestScreenPrompt_EmptySlicesNotNil(t *testing.T) {
	t.Parallel()

	// Clean screens serialize with [] rather than null.
	screen := ScreenPrompt("hello")
	if screen.SuspiciousPatterns == nil || screen.Warnings == nil {
		t.Errorf("screen slices must be empty, not nil: %+v", screen)
	}
}
