// Package dispatch builds canonical event envelopes and delivers them to
// the observability collector. Delivery is exactly-once-effort: bounded
// retries, then give up with a logged failure. Nothing in this package may
// crash or block the host agent — a hook that dies is as disruptive as a
// hook that wrongly blocks.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"event-capture/internal/hookevt"
	"event-capture/internal/status"
)

// BuildOptions control the optional envelope attachments.
type BuildOptions struct {
	// ChatFile is a path to a JSONL transcript to attach. Empty means no chat.
	ChatFile string

	// Summarize attaches a derived summary string.
	Summarize bool
}

// Dispatcher builds and delivers event envelopes. One instance per hook
// process; methods are not safe for concurrent use, which matches the
// single-threaded hook lifecycle.
type Dispatcher struct {
	cfg    Config
	client *http.Client
	out    *status.Printer

	// now and sleep are injectable for deterministic tests.
	now   func() time.Time
	sleep func(time.Duration)

	// lastStamp enforces non-decreasing envelope timestamps within one
	// process even if the wall clock steps backwards.
	lastStamp time.Time

	summarize Summarizer
}

// NewDispatcher creates a Dispatcher with the given config, filling unset
// fields with defaults. Status lines go to errw (normally os.Stderr).
func NewDispatcher(cfg Config, errw io.Writer) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		out:       status.NewPrinter(errw),
		now:       time.Now,
		sleep:     time.Sleep,
		summarize: SummarizeFields,
	}
}

// SetSummarizer replaces the default summarizer. A nil summarizer disables
// summaries entirely.
func (d *Dispatcher) SetSummarizer(s Summarizer) {
	d.summarize = s
}

// SessionID returns the resolved session identity.
func (d *Dispatcher) SessionID() string {
	return d.cfg.SessionID
}

// stamp returns the current wire timestamp, clamped so successive envelopes
// never move backwards in time.
func (d *Dispatcher) stamp() time.Time {
	t := d.now()
	if t.Before(d.lastStamp) {
		t = d.lastStamp
	}
	d.lastStamp = t
	return t
}

// BuildEnvelope wraps a raw payload into the canonical envelope. The only
// error it can return is ErrInvalidEventType, which indicates a programmer
// error and is never retried. A nil payload becomes an empty object so the
// wire never carries "payload": null.
func (d *Dispatcher) BuildEnvelope(payload map[string]any, eventType hookevt.EventType, opts BuildOptions) (hookevt.Envelope, error) {
	if !eventType.Valid() {
		return hookevt.Envelope{}, fmt.Errorf("%w: %q", hookevt.ErrInvalidEventType, eventType)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	env := hookevt.Envelope{
		SourceApp:     d.cfg.SourceApp,
		SessionID:     d.cfg.SessionID,
		HookEventType: eventType,
		Payload:       payload,
		Timestamp:     hookevt.FormatTimestamp(d.stamp()),
	}

	if opts.ChatFile != "" {
		chat, skipped, err := ReadChatFile(opts.ChatFile)
		switch {
		case err != nil:
			d.out.Warnf("chat file %s: %v", opts.ChatFile, err)
		case len(chat) > 0:
			env.Chat = chat
			d.out.Infof("loaded %d chat entries from %s (%d skipped)", len(chat), opts.ChatFile, skipped)
		}
	}

	if opts.Summarize && d.summarize != nil {
		if summary, ok := d.summarize(env); ok {
			env.Summary = summary
		}
	}

	return env, nil
}

// Deliver serializes the envelope and POSTs it to {server}/events, retrying
// on timeout, connection failure, and non-2xx responses alike. It reports
// success or failure but never returns an error: delivery problems must stay
// invisible to the calling agent. A payload that cannot be serialized fails
// immediately with zero network attempts — retrying cannot fix it.
func (d *Dispatcher) Deliver(ctx context.Context, env hookevt.Envelope) bool {
	body, err := json.Marshal(env)
	if err != nil {
		d.out.Failf("event not serializable: %v", err)
		return false
	}

	endpoint := d.cfg.ServerURL + "/events"
	attempts := d.cfg.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			d.sleep(d.cfg.RetryDelay)
		}
		d.out.Infof("sending %s event to %s (attempt %d/%d)", env.HookEventType, endpoint, attempt, attempts)

		code, err := d.post(ctx, endpoint, body)
		if err != nil {
			d.out.Failf("attempt %d: %v", attempt, err)
			continue
		}
		if code == http.StatusOK || code == http.StatusCreated {
			d.out.Successf("event sent: %d", code)
			return true
		}
		d.out.Failf("attempt %d: server returned %d", attempt, code)
	}

	d.out.Failf("failed to send event after %d attempts", attempts)
	return false
}

// post performs one HTTP attempt and returns the status code. The response
// body is drained and discarded — the contract only cares about the code,
// and an unparsable body on a 2xx must still count as success.
func (d *Dispatcher) post(ctx context.Context, endpoint string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "EventCaptureAgent/"+d.cfg.SourceApp)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return resp.StatusCode, nil
}

// Dispatch is the top-level orchestration for a non-blocking hook: build
// the envelope, attempt delivery, and return exit code 0 no matter what.
// Only the pre-tool-use path, which maps a blocked Verdict to exit code 1
// itself, ever halts the agent.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType hookevt.EventType, payload map[string]any, opts BuildOptions) (hookevt.Envelope, int) {
	env, err := d.BuildEnvelope(payload, eventType, opts)
	if err != nil {
		d.out.Failf("%v", err)
		return hookevt.Envelope{}, 0
	}

	if !d.Deliver(ctx, env) {
		d.out.Infof("event delivery failed, continuing agent execution")
	}
	return env, 0
}
