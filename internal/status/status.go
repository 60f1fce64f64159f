// Package status renders the human-readable stderr lines hooks emit while
// they work. stderr is never parsed by consumers, so styling is free.
package status

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// eventTypeStyles mirrors the collector dashboard palette for visual
// consistency across the pipeline.
var eventTypeStyles = map[string]lipgloss.Style{
	"PreToolUse":       lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
	"PostToolUse":      lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
	"UserPromptSubmit": lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true),
	"Notification":     lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	"Stop":             lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	"SubagentStop":     lipgloss.NewStyle().Foreground(lipgloss.Color("87")).Bold(true),
}

var (
	defaultEventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))

	blockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	sepStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
)

func eventStyle(eventType string) lipgloss.Style {
	if s, ok := eventTypeStyles[eventType]; ok {
		return s
	}
	return defaultEventStyle
}

// Printer writes styled status lines to a single destination, normally
// os.Stderr.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w. A nil writer discards output.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = io.Discard
	}
	return &Printer{w: w}
}

// Successf prints a "✓" line for completed operations.
func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.w, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warnf prints a "⚠" line for recoverable problems.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintln(p.w, warnStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Failf prints a "✗" line for failed attempts.
func (p *Printer) Failf(format string, args ...any) {
	fmt.Fprintln(p.w, warnStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Blockf prints a "🚫" line when a tool call is blocked.
func (p *Printer) Blockf(format string, args ...any) {
	fmt.Fprintln(p.w, blockStyle.Render("🚫 "+fmt.Sprintf(format, args...)))
}

// Infof prints a dim informational line.
func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintln(p.w, dimStyle.Render(fmt.Sprintf(format, args...)))
}

// EventLine prints one received-event row: colored event type, tool name,
// body size, and wall-clock time.
func (p *Printer) EventLine(eventType, toolName string, bodySize int, clock string) {
	if toolName == "" {
		toolName = "---"
	}
	fmt.Fprintf(p.w, "  %s %s %s   %s\n",
		eventStyle(eventType).Render(fmt.Sprintf("%-18s", eventType)),
		dimStyle.Render(fmt.Sprintf("%-14s", toolName)),
		dimStyle.Render(fmt.Sprintf("%8s", FormatBytes(bodySize))),
		dimStyle.Render(clock),
	)
}

// Banner prints the framed startup header used by the sink command.
func (p *Printer) Banner(title string, lines ...string) {
	sep := sepStyle.Render(strings.Repeat("─", 50))
	fmt.Fprintln(p.w, sep)
	fmt.Fprintln(p.w, "  "+titleStyle.Render(title))
	fmt.Fprintln(p.w, sep)
	for _, line := range lines {
		fmt.Fprintln(p.w, "  "+dimStyle.Render(line))
	}
	fmt.Fprintln(p.w, sep)
}

// FormatBytes renders a byte count in human units.
func FormatBytes(b int) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
