package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bdobrica/goomy/common/trace"
	"github.com/bdobrica/goomy/common/version"
	"github.com/bdobrica/goomy/internal/goomy/session"
	"github.com/bdobrica/goomy/internal/goomy/store"
)

const (
	// maxRequestBytes bounds JSON request bodies.
	maxRequestBytes = 64 << 10

	// defaultTechnicalLimit is the number of technical notes /v1/technical
	// returns without a limit parameter.
	defaultTechnicalLimit = 3
)

// HTTPServer exposes /health, /status and the chat API.
type HTTPServer struct {
	addr      string
	registry  *session.Registry
	turns     turnLog
	logger    *slog.Logger
	startedAt time.Time
	mux       *http.ServeMux
}

// turnLog is the part of the store the HTTP API reads.
type turnLog interface {
	CountTurns(ctx context.Context) (int, error)
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]store.Turn, error)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

type statusResponse struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Commit       string    `json:"commit"`
	BuildTime    string    `json:"build_time"`
	StartedAt    time.Time `json:"started_at"`
	UptimeSecs   float64   `json:"uptime_seconds"`
	Sessions     int       `json:"sessions"`
	AuditedTurns int       `json:"audited_turns"`
}

type chatRequest struct {
	Session string `json:"session"`
	Text    string `json:"text"`
}

type chatResponse struct {
	Reply   string `json:"reply"`
	TurnID  string `json:"turn_id"`
	Branch  string `json:"branch"`
	DelayMS int64  `json:"delay_ms"`
}

type quickRequest struct {
	Session string `json:"session"`
	Topic   string `json:"topic"`
}

type turnView struct {
	TurnID     string    `json:"turn_id"`
	Message    string    `json:"message"`
	Reply      string    `json:"reply"`
	Branch     string    `json:"branch"`
	Topic      string    `json:"topic,omitempty"`
	Sentiment  string    `json:"sentiment"`
	Complexity int       `json:"complexity"`
	Continuity string    `json:"continuity"`
	DelayMS    int64     `json:"delay_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type turnsResponse struct {
	Session string     `json:"session"`
	Turns   []turnView `json:"turns"`
}

type technicalNote struct {
	Message    string    `json:"message"`
	Keywords   []string  `json:"keywords"`
	Complexity int       `json:"complexity"`
	Timestamp  time.Time `json:"timestamp"`
}

type technicalResponse struct {
	Session string          `json:"session"`
	Topic   string          `json:"topic"`
	Notes   []technicalNote `json:"notes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPServer creates the server (does not start it). turns may be nil
// when no audit store is configured.
func NewHTTPServer(addr string, reg *session.Registry, turns turnLog, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{
		addr:      addr,
		registry:  reg,
		turns:     turns,
		logger:    logger,
		startedAt: time.Now(),
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("POST /v1/chat", s.handleChat)
	s.mux.HandleFunc("POST /v1/quick", s.handleQuick)
	s.mux.HandleFunc("GET /v1/stats", s.handleStats)
	s.mux.HandleFunc("GET /v1/turns", s.handleTurns)
	s.mux.HandleFunc("GET /v1/technical", s.handleTechnical)
	return s
}

// ServeHTTP implements http.Handler.
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("http server: listen %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: session.MaxDelay + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown error", "err", err)
	}
	return nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	audited := 0
	if s.turns != nil {
		n, err := s.turns.CountTurns(r.Context())
		if err != nil {
			s.logger.Warn("status: count turns", "err", err)
		} else {
			audited = n
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:       "ok",
		Version:      version.Version,
		Commit:       version.GitCommit,
		BuildTime:    version.BuildTime,
		StartedAt:    s.startedAt,
		UptimeSecs:   time.Since(s.startedAt).Seconds(),
		Sessions:     s.registry.Len(),
		AuditedTurns: audited,
	})
}

func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Session == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	ctx := trace.WithTraceID(r.Context(), trace.GenerateID())
	reply, err := s.registry.Get(req.Session).Turn(ctx, req.Text)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Reply:   reply.Text,
		TurnID:  reply.TurnID,
		Branch:  string(reply.Branch),
		DelayMS: reply.Delay.Milliseconds(),
	})
}

func (s *HTTPServer) handleQuick(w http.ResponseWriter, r *http.Request) {
	var req quickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Session == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	ctx := trace.WithTraceID(r.Context(), trace.GenerateID())
	qr, err := s.registry.Get(req.Session).QuickTopic(ctx, req.Topic)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Stats())
}

// handleTurns lists a live session's audited turns, newest first.
func (s *HTTPServer) handleTurns(w http.ResponseWriter, r *http.Request) {
	if s.turns == nil {
		writeError(w, http.StatusNotFound, "turn audit log is disabled")
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	limit, ok := queryLimit(w, r, 0)
	if !ok {
		return
	}

	turns, err := s.turns.RecentTurns(r.Context(), sess.ID(), limit)
	if err != nil {
		s.logger.Error("turns: query audit log", "session_id", sess.ID(), "err", err)
		writeError(w, http.StatusInternalServerError, "could not read the turn audit log")
		return
	}

	views := make([]turnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, turnView{
			TurnID:     t.TurnID,
			Message:    t.Message,
			Reply:      t.Reply,
			Branch:     t.Branch,
			Topic:      t.Topic,
			Sentiment:  string(t.Sentiment),
			Complexity: t.Complexity,
			Continuity: string(t.Continuity),
			DelayMS:    t.Delay.Milliseconds(),
			CreatedAt:  t.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, turnsResponse{Session: sess.Key(), Turns: views})
}

// handleTechnical lists the latest technical-context notes a live session
// holds for one topic.
func (s *HTTPServer) handleTechnical(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if _, known := s.registry.Topics().Topic(topic); !known {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown topic %q", topic))
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	limit, ok := queryLimit(w, r, defaultTechnicalLimit)
	if !ok {
		return
	}

	notes := sess.Snapshot().RecentTechnical(topic, limit)
	out := make([]technicalNote, 0, len(notes))
	for _, n := range notes {
		out = append(out, technicalNote{
			Message:    n.Message,
			Keywords:   n.Keywords,
			Complexity: n.Complexity,
			Timestamp:  n.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, technicalResponse{Session: sess.Key(), Topic: topic, Notes: out})
}

// lookupSession resolves the session query parameter to a live session,
// answering 400 or 404 when it cannot.
func (s *HTTPServer) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	key := r.URL.Query().Get("session")
	if key == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return nil, false
	}
	sess, ok := s.registry.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil, false
	}
	return sess, true
}

// queryLimit parses the optional limit query parameter.
func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyInput), errors.Is(err, session.ErrUnknownTopic):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("http: failed to encode JSON response", "err", err)
	}
}
