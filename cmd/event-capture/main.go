package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"event-capture/internal/dispatch"
	"event-capture/internal/status"
)

var version = "dev"

// maxStdinBytes caps stdin reads. Hook payloads are small JSON objects;
// 1 MiB is generous headroom that prevents unbounded allocation.
const maxStdinBytes = 1 << 20

// blockExit is set by the pre-tool-use command when a dangerous command is
// detected. It is the only path that produces a non-zero exit: delivery
// failures and malformed input always exit 0 so the agent keeps running.
var blockExit bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
	if blockExit {
		os.Exit(1)
	}
}

// rootFlags holds the collector connection overrides shared by every
// subcommand. Defaults are seeded from the environment so a flag left
// unset falls back to the env-or-default chain.
type rootFlags struct {
	serverURL  string
	sourceApp  string
	sessionID  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

func newRootCmd() *cobra.Command {
	env := dispatch.ConfigFromEnv()
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "event-capture",
		Short:         "Forward agent hook events to an observability collector",
		Long: `event-capture reads one JSON hook payload from stdin, wraps it in a
canonical event envelope, and delivers it to the collector's /events
endpoint. Delivery failures never break the calling agent; only the
pre-tool-use command exits non-zero, and only to block a dangerous
tool call.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.serverURL, "server-url", env.ServerURL, "collector base URL")
	pf.StringVar(&flags.sourceApp, "source-app", env.SourceApp, "source application name")
	pf.StringVar(&flags.sessionID, "session-id", env.SessionID, "session id (generated if empty)")
	pf.DurationVar(&flags.timeout, "timeout", env.Timeout, "per-request timeout")
	pf.IntVar(&flags.maxRetries, "max-retries", env.MaxRetries, "additional delivery attempts after the first")
	pf.DurationVar(&flags.retryDelay, "retry-delay", env.RetryDelay, "fixed delay between delivery attempts")

	cmd.AddCommand(newSendEventCmd(flags))
	cmd.AddCommand(newPreToolUseCmd(flags))
	cmd.AddCommand(newPostToolUseCmd(flags))
	cmd.AddCommand(newUserPromptSubmitCmd(flags))
	cmd.AddCommand(newNotificationCmd(flags))
	cmd.AddCommand(newStopCmd(flags))
	cmd.AddCommand(newSubagentStopCmd(flags))
	cmd.AddCommand(newSinkCmd())

	return cmd
}

func (f *rootFlags) config() dispatch.Config {
	return dispatch.Config{
		ServerURL:  strings.TrimRight(f.serverURL, "/"),
		SourceApp:  f.sourceApp,
		SessionID:  f.sessionID,
		Timeout:    f.timeout,
		MaxRetries: f.maxRetries,
		RetryDelay: f.retryDelay,
	}
}

func (f *rootFlags) dispatcher() *dispatch.Dispatcher {
	return dispatch.NewDispatcher(f.config(), os.Stderr)
}

// readStdinPayload reads one JSON object from stdin. Empty or malformed
// input yields an empty payload, never an error — a hook that cannot parse
// its input must still report the event and let the agent continue.
func readStdinPayload(out *status.Printer) map[string]any {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinBytes))
	if err != nil {
		out.Warnf("error reading stdin: %v", err)
		return map[string]any{}
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return map[string]any{}
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		out.Warnf("invalid JSON from stdin: %v", err)
		return map[string]any{}
	}
	if payload == nil {
		return map[string]any{}
	}
	return payload
}

// printJSON writes v to stdout as the final (and only) stdout line, for
// consumption by a downstream pipe.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}
