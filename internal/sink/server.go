// Package sink is a stand-in collector for local development: it speaks
// the same wire contract as the real observability server (POST /events,
// 200 on success) but keeps nothing — received envelopes are handed to a
// callback and forgotten.
package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"event-capture/internal/hookevt"
)

const (
	maxBodyLen   = 1 << 20 // 1 MiB — matches the hook sender's stdin cap.
	maxJSONDepth = 100
)

// Received is a lightweight value type carrying only the fields the
// terminal output needs, decoupled from the full Envelope.
type Received struct {
	EventType string
	SourceApp string
	SessionID string
	ToolName  string
	BodySize  int
	Timestamp string
}

// Server is the HTTP sink for receiving hook event envelopes.
type Server struct {
	mux       *http.ServeMux
	received  atomic.Int64
	errors    atomic.Int64
	lastEvent atomic.Value // stores time.Time
	onReceive func(Received)
}

// New creates a sink Server. onReceive, if non-nil, is invoked after each
// accepted envelope and must be non-blocking.
func New(onReceive func(Received)) *Server {
	srv := &Server{onReceive: onReceive}
	mux := http.NewServeMux()
	mux.HandleFunc("/events", srv.handleEvents)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/stats", srv.handleStats)
	srv.mux = mux
	return srv
}

// Handler returns the HTTP handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ReceivedCount returns the number of accepted envelopes.
func (s *Server) ReceivedCount() int64 { return s.received.Load() }

// ErrorCount returns the number of rejected requests.
func (s *Server) ErrorCount() int64 { return s.errors.Load() }

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.reject(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyLen+1))
	if err != nil {
		s.reject(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyLen {
		s.reject(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(body) == 0 {
		s.reject(w, "empty body", http.StatusBadRequest)
		return
	}

	if err := checkJSONDepth(body, maxJSONDepth); err != nil {
		s.reject(w, err.Error(), http.StatusBadRequest)
		return
	}

	var env hookevt.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.reject(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if !env.HookEventType.Valid() {
		s.reject(w, fmt.Sprintf("unrecognized hook_event_type %q", env.HookEventType), http.StatusBadRequest)
		return
	}

	s.received.Add(1)
	s.lastEvent.Store(time.Now())

	if s.onReceive != nil {
		toolName, _ := hookevt.StringField(env.Payload, "tool")
		if toolName == "" {
			toolName, _ = hookevt.StringField(env.Payload, "tool_name")
		}
		s.onReceive(Received{
			EventType: string(env.HookEventType),
			SourceApp: env.SourceApp,
			SessionID: env.SessionID,
			ToolName:  toolName,
			BodySize:  len(body),
			Timestamp: env.Timestamp,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
}

// reject writes a JSON error response and bumps the error counter.
func (s *Server) reject(w http.ResponseWriter, msg string, code int) {
	s.errors.Add(1)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.reject(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.reject(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]any{
		"received": s.received.Load(),
		"errors":   s.errors.Load(),
	}
	if last := s.lastEvent.Load(); last != nil {
		if t, ok := last.(time.Time); ok {
			resp["last_event"] = t.Format(time.RFC3339)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// checkJSONDepth scans raw JSON tokens to reject payloads that exceed
// maxDepth nesting levels.
func checkJSONDepth(data []byte, maxDepth int) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		t, err := dec.Token()
		if err != nil {
			return nil // io.EOF or parse error — let Unmarshal handle it
		}
		switch t {
		case json.Delim('{'), json.Delim('['):
			depth++
			if depth > maxDepth {
				return fmt.Errorf("JSON nesting exceeds maximum depth of %d", maxDepth)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
}
