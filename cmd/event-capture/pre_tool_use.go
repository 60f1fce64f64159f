package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"event-capture/internal/capture"
	"event-capture/internal/dispatch"
	"event-capture/internal/hookevt"
	"event-capture/internal/status"
	"event-capture/internal/validate"
)

// newPreToolUseCmd creates the pre-execution hook. This is the one command
// with teeth: a blocked verdict exits 1 to halt the agent's tool call.
// Everything else — warnings, missing commands, delivery failures — exits 0.
func newPreToolUseCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pre-tool-use",
		Short: "PreToolUse hook — validate a pending tool command, block if dangerous",
		Long: `Reads the pending tool payload from stdin, classifies the extracted
command against the block and warn pattern sets, forwards the event to
the collector, and prints the verdict on stdout.

Exit code 1 blocks the tool call; it is returned only on a blocked
verdict, never for delivery failures or unparsable input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := status.NewPrinter(os.Stderr)
			payload := readStdinPayload(out)

			verdict := validate.New().Validate(payload)

			switch verdict.Status {
			case validate.StatusBlocked:
				out.Blockf("blocked dangerous command: %s", verdict.ExtractedCommand)
				out.Infof("matched patterns: %s", strings.Join(verdict.MatchedBlockPatterns, ", "))
			case validate.StatusWarned:
				out.Warnf("risky command: %s", verdict.ExtractedCommand)
				out.Infof("matched patterns: %s", strings.Join(verdict.MatchedWarnPatterns, ", "))
			default:
				for _, w := range verdict.Warnings {
					out.Warnf("%s", w)
				}
				out.Successf("tool validated: %s", verdict.ToolName)
			}

			// The event is forwarded regardless of the verdict — a blocked
			// call is exactly what the collector wants to see.
			annotated := capture.Annotate(payload, capture.ValidationKey, verdict)
			d := flags.dispatcher()
			d.Dispatch(cmd.Context(), hookevt.PreToolUse, annotated, dispatch.BuildOptions{})

			if err := printJSON(verdict); err != nil {
				return err
			}

			if verdict.ExitCode() != 0 {
				blockExit = true
			}
			return nil
		},
	}

	return cmd
}
