package validate

import (
	"fmt"
	"unicode"
)

// suspiciousPromptPatterns flag injection attempts in user prompt text.
// A match never blocks anything — prompts are free text and the agent
// decides what to do with them — it only marks the event for review.
var suspiciousPromptPatterns = []Pattern{
	mustPattern("script-injection", `(?s)<script[^>]*>.*?</script>`),
	mustPattern("javascript-url", `javascript:`),
	mustPattern("data-html-url", `data:text/html`),
	mustPattern("eval-call", `eval\s*\(`),
	mustPattern("exec-call", `exec\s*\(`),
}

const (
	// maxPromptLength is the size above which a prompt gets a length warning.
	maxPromptLength = 50000

	// maxNonASCIIRunes is the non-ASCII rune count above which a prompt gets
	// an encoding warning.
	maxNonASCIIRunes = 100
)

// PromptScreen is the screening result for one submitted prompt.
// Unlike a Verdict it carries no exit-code mapping: a suspicious prompt is
// reported, never rejected.
type PromptScreen struct {
	IsSafe             bool     `json:"is_safe"`
	SuspiciousPatterns []string `json:"suspicious_patterns"`
	Warnings           []string `json:"warnings"`
}

// ScreenPrompt tests prompt text against the suspicious pattern set and
// adds soft warnings for unusual size or encoding. All matches are
// reported, in pattern-list order.
func ScreenPrompt(prompt string) PromptScreen {
	screen := PromptScreen{
		IsSafe:             true,
		SuspiciousPatterns: []string{},
		Warnings:           []string{},
	}

	if matches := matchAll(suspiciousPromptPatterns, prompt); len(matches) > 0 {
		screen.IsSafe = false
		screen.SuspiciousPatterns = matches
	}

	if len(prompt) > maxPromptLength {
		screen.Warnings = append(screen.Warnings,
			fmt.Sprintf("unusually long prompt (>%d chars)", maxPromptLength))
	}

	nonASCII := 0
	for _, r := range prompt {
		if r > unicode.MaxASCII {
			nonASCII++
		}
	}
	if nonASCII > maxNonASCIIRunes {
		screen.Warnings = append(screen.Warnings,
			fmt.Sprintf("high non-ASCII character count: %d", nonASCII))
	}

	return screen
}
