package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"event-capture/internal/capture"
	"event-capture/internal/dispatch"
	"event-capture/internal/hookevt"
	"event-capture/internal/status"
)

// newSendEventCmd creates the universal sender: any of the six event types,
// payload from stdin, optional chat transcript and summary.
func newSendEventCmd(flags *rootFlags) *cobra.Command {
	var (
		eventTypeName string
		chatFile      string
		summarize     bool
	)

	cmd := &cobra.Command{
		Use:   "send-event --event-type <type>",
		Short: "Read a hook payload from stdin and forward it to the collector",
		Example: `  echo '{"tool": "bash"}' | event-capture send-event --event-type PreToolUse
  echo '{"result": "ok"}' | event-capture send-event --event-type PostToolUse --summarize
  echo '{"prompt": "Hi"}' | event-capture send-event --event-type UserPromptSubmit --add-chat chat.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eventType, err := hookevt.ParseEventType(eventTypeName)
			if err != nil {
				return fmt.Errorf("%w (expected one of: %s)", err, strings.Join(hookevt.EventTypeNames(), ", "))
			}

			out := status.NewPrinter(os.Stderr)
			payload := readStdinPayload(out)

			d := flags.dispatcher()
			env, _ := d.Dispatch(cmd.Context(), eventType, payload, dispatch.BuildOptions{
				ChatFile:  chatFile,
				Summarize: summarize,
			})
			return printJSON(env)
		},
	}

	cmd.Flags().StringVar(&eventTypeName, "event-type", "", "hook event type ("+strings.Join(hookevt.EventTypeNames(), "|")+")")
	cmd.Flags().StringVar(&chatFile, "add-chat", "", "path to a .jsonl chat transcript to attach")
	cmd.Flags().BoolVar(&summarize, "summarize", false, "attach a derived summary to the event")
	cmd.MarkFlagRequired("event-type")

	return cmd
}

// newCaptureCmd builds a fixed-type hook command that annotates the payload
// under the reserved _capture key and forwards the event. All of them exit
// 0 unconditionally.
func newCaptureCmd(flags *rootFlags, use, short string, eventType hookevt.EventType, annotate func(map[string]any) map[string]any) *cobra.Command {
	var (
		chatFile  string
		summarize bool
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := status.NewPrinter(os.Stderr)
			payload := readStdinPayload(out)
			annotated := capture.Annotate(payload, capture.AnnotationKey, annotate(payload))

			d := flags.dispatcher()
			env, _ := d.Dispatch(cmd.Context(), eventType, annotated, dispatch.BuildOptions{
				ChatFile:  chatFile,
				Summarize: summarize,
			})
			return printJSON(env)
		},
	}

	cmd.Flags().StringVar(&chatFile, "add-chat", "", "path to a .jsonl chat transcript to attach")
	cmd.Flags().BoolVar(&summarize, "summarize", false, "attach a derived summary to the event")

	return cmd
}

func newPostToolUseCmd(flags *rootFlags) *cobra.Command {
	return newCaptureCmd(flags, "post-tool-use",
		"PostToolUse hook — capture a tool execution result",
		hookevt.PostToolUse, capture.PostToolUse)
}

func newUserPromptSubmitCmd(flags *rootFlags) *cobra.Command {
	return newCaptureCmd(flags, "user-prompt-submit",
		"UserPromptSubmit hook — capture a submitted user prompt",
		hookevt.UserPromptSubmit, capture.UserPromptSubmit)
}

func newNotificationCmd(flags *rootFlags) *cobra.Command {
	return newCaptureCmd(flags, "notification",
		"Notification hook — capture an agent/user notification",
		hookevt.Notification, capture.Notification)
}

func newStopCmd(flags *rootFlags) *cobra.Command {
	return newCaptureCmd(flags, "stop",
		"Stop hook — capture session completion",
		hookevt.Stop, capture.Stop)
}

func newSubagentStopCmd(flags *rootFlags) *cobra.Command {
	return newCaptureCmd(flags, "subagent-stop",
		"SubagentStop hook — capture sub-agent completion",
		hookevt.SubagentStop, capture.SubagentStop)
}
