// Package validate classifies pending tool commands against fixed danger
// pattern sets. It is a best-effort safety net over free-text commands from
// a foreign agent, not a shell sandbox: matching is intentionally simple
// regex, and unknown input fails open. Only a positive match on a block
// pattern fails closed.
package validate

import (
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	shellwords "github.com/mattn/go-shellwords"

	"event-capture/internal/hookevt"
)

// Status is the validation outcome category.
type Status string

const (
	StatusApproved Status = "approved"
	StatusWarned   Status = "warned"
	StatusBlocked  Status = "blocked"
)

// Pattern is a named regular-expression rule. The ID is what gets reported
// in verdicts; the expression itself stays an implementation detail.
type Pattern struct {
	ID string
	re *regexp.Regexp
}

func mustPattern(id, expr string) Pattern {
	return Pattern{ID: id, re: regexp.MustCompile(`(?i)` + expr)}
}

// blockPatterns are destructive operations. Any match blocks the tool call.
// Order is fixed; all matches are reported, not just the first.
var blockPatterns = []Pattern{
	mustPattern("recursive-root-delete", `rm\s+-rf\s+/`),
	mustPattern("raw-disk-write", `dd\s+if=.*of=/dev/`),
	mustPattern("mkfs", `mkfs\.`),
	mustPattern("fdisk", `fdisk`),
	mustPattern("sudo-rm", `sudo\s+rm`),
	mustPattern("disk-device-redirect", `>\s*/dev/sd[a-z]`),
	mustPattern("curl-pipe-shell", `curl.*\|\s*bash`),
	mustPattern("wget-pipe-shell", `wget.*\|\s*sh`),
}

// warnPatterns are risky but not destructive. Only evaluated when no block
// pattern matched.
var warnPatterns = []Pattern{
	mustPattern("sudo", `sudo`),
	mustPattern("chmod-777", `chmod\s+777`),
	mustPattern("force-push", `git\s+push.*--force`),
	mustPattern("privileged-container", `docker\s+run.*--privileged`),
}

// CommandMetadata carries diagnostic facts about the extracted command.
// It never influences the verdict.
type CommandMetadata struct {
	CommandLength int  `json:"command_length"`
	HasSudo       bool `json:"has_sudo"`
	HasPipes      bool `json:"has_pipes"`
	HasRedirects  bool `json:"has_redirects"`
}

// Verdict is the classification result for one pre-tool-use payload.
// Created fresh per invocation and discarded after being printed.
type Verdict struct {
	Status               Status          `json:"status"`
	ToolName             string          `json:"tool_name"`
	ExtractedCommand     string          `json:"extracted_command"`
	MatchedBlockPatterns []string        `json:"matched_block_patterns"`
	MatchedWarnPatterns  []string        `json:"matched_warn_patterns"`
	Warnings             []string        `json:"warnings"`
	Metadata             CommandMetadata `json:"metadata"`
}

// ExitCode maps the verdict to the hook process exit code: 1 blocks the
// calling agent's tool execution, everything else continues normally.
func (v Verdict) ExitCode() int {
	if v.Status == StatusBlocked {
		return 1
	}
	return 0
}

// Validator classifies tool payloads. The counters are diagnostic only and
// live for one validator instance.
type Validator struct {
	blocked atomic.Int64
	warned  atomic.Int64
}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// BlockedCount returns how many payloads this instance has blocked.
func (v *Validator) BlockedCount() int64 { return v.blocked.Load() }

// WarnedCount returns how many payloads this instance has warned on.
func (v *Validator) WarnedCount() int64 { return v.warned.Load() }

// ExtractCommand searches the payload for a command string in fixed
// priority order: top-level "command", then "tool_input.command", then
// "parameters.command". Failing those, it falls back to the first
// non-empty string value in lexicographic key order — map iteration order
// would make the fallback nondeterministic. An empty result is a valid,
// non-error outcome.
func ExtractCommand(payload map[string]any) string {
	if cmd, ok := hookevt.StringField(payload, "command"); ok && cmd != "" {
		return cmd
	}
	for _, nested := range []string{"tool_input", "parameters"} {
		if m, ok := hookevt.MapField(payload, nested); ok {
			if cmd, ok := hookevt.StringField(m, "command"); ok && cmd != "" {
				return cmd
			}
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := payload[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// MatchBlockPatterns returns the IDs of every block pattern the command
// matches, in pattern-list order.
func MatchBlockPatterns(command string) []string {
	return matchAll(blockPatterns, command)
}

// MatchWarnPatterns returns the IDs of every warn pattern the command
// matches, in pattern-list order.
func MatchWarnPatterns(command string) []string {
	return matchAll(warnPatterns, command)
}

func matchAll(patterns []Pattern, command string) []string {
	var ids []string
	for _, p := range patterns {
		if p.re.MatchString(command) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Validate classifies the payload. Block patterns take precedence over warn
// patterns; warn patterns are not evaluated once a block matched. A payload
// with no identifiable command is approved with a warning — absence of
// evidence is not danger.
func (v *Validator) Validate(payload map[string]any) Verdict {
	command := ExtractCommand(payload)

	verdict := Verdict{
		Status:               StatusApproved,
		ToolName:             toolName(payload),
		ExtractedCommand:     command,
		MatchedBlockPatterns: []string{},
		MatchedWarnPatterns:  []string{},
		Warnings:             []string{},
		Metadata:             commandMetadata(command),
	}

	if command == "" {
		verdict.Warnings = append(verdict.Warnings, "no command found in tool data")
		return verdict
	}

	if blocks := MatchBlockPatterns(command); len(blocks) > 0 {
		verdict.Status = StatusBlocked
		verdict.MatchedBlockPatterns = blocks
		v.blocked.Add(1)
		return verdict
	}

	if warns := MatchWarnPatterns(command); len(warns) > 0 {
		verdict.Status = StatusWarned
		verdict.MatchedWarnPatterns = warns
		v.warned.Add(1)
	}

	return verdict
}

// toolName pulls the tool identity from the payload, tolerating both field
// spellings seen on the wire.
func toolName(payload map[string]any) string {
	if name, ok := hookevt.StringField(payload, "tool"); ok && name != "" {
		return name
	}
	if name, ok := hookevt.StringField(payload, "tool_name"); ok && name != "" {
		return name
	}
	return "unknown"
}

// commandMetadata derives diagnostic facts about the command. The sudo
// check is token-accurate: "sudoedit" or a path containing "sudo" does not
// count, a standalone sudo word does. A command shellwords cannot parse
// (unclosed quote) falls back to whitespace splitting.
func commandMetadata(command string) CommandMetadata {
	md := CommandMetadata{
		CommandLength: len(command),
		HasPipes:      strings.Contains(command, "|"),
		HasRedirects:  strings.ContainsAny(command, "<>"),
	}

	tokens, err := shellwords.Parse(command)
	if err != nil {
		tokens = strings.Fields(command)
	}
	for _, tok := range tokens {
		if tok == "sudo" {
			md.HasSudo = true
			break
		}
	}
	return md
}
