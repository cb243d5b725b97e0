package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pbaille/reflect/internal/chat"
	"github.com/pbaille/reflect/internal/domain"
	"github.com/pbaille/reflect/internal/fetcher"
	"github.com/pbaille/reflect/internal/journal"
	"github.com/pbaille/reflect/internal/observability"
	"github.com/pbaille/reflect/internal/state"
)

// Server handles HTTP requests for the study journal API
type Server struct {
	state *state.Store
	chat  *chat.Service
	addr  string
}

// New creates a new API server
func New(st *state.Store, chatSvc *chat.Service, addr string) *Server {
	return &Server{state: st, chat: chatSvc, addr: addr}
}

// Handler builds the routed, instrumented handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// State
	mux.HandleFunc("GET /state", s.getState)
	mux.HandleFunc("PUT /mode", s.setMode)
	mux.HandleFunc("PUT /chapter", s.setChapter)

	// Chat
	mux.HandleFunc("GET /chat", s.transcript)
	mux.HandleFunc("POST /chat", s.sendMessage)

	// Journal
	mux.HandleFunc("GET /journal", s.listJournal)
	mux.HandleFunc("GET /journal/{id}", s.getJournalEntry)
	mux.HandleFunc("GET /dashboard", s.dashboard)
	mux.HandleFunc("GET /analytics", s.analytics)

	// Library
	mux.HandleFunc("GET /books", s.listBooks)
	mux.HandleFunc("PATCH /books/{book}", s.updateBook)
	mux.HandleFunc("GET /books/{book}/chapters", s.listChapters)
	mux.HandleFunc("POST /books/{book}/chapters/import", s.importChapter)
	mux.HandleFunc("GET /books/{book}/chapters/{chapter}", s.getChapter)
	mux.HandleFunc("PATCH /books/{book}/chapters/{chapter}", s.updateChapterExtras)
	mux.HandleFunc("POST /books/{book}/chapters/{chapter}/bookmark", s.toggleBookmark)
	mux.HandleFunc("POST /books/{book}/chapters/{chapter}/notes", s.addNote)
	mux.HandleFunc("DELETE /books/{book}/chapters/{chapter}/notes/{id}", s.deleteNote)
	mux.HandleFunc("POST /books/{book}/chapters/{chapter}/highlights", s.addHighlight)
	mux.HandleFunc("DELETE /books/{book}/chapters/{chapter}/highlights/{id}", s.deleteHighlight)
	mux.HandleFunc("GET /books/{book}/chapters/{chapter}/export", s.exportStudySet)
	mux.HandleFunc("GET /themes", s.themes)

	// Health check and metrics
	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return withCORS(observe(mux))
}

// Run starts the HTTP server and stops it when ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Logger().Info("starting server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// observe tags each request with an id, logs it and records its latency
func observe(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", reqID)

		r = r.WithContext(observability.WithRequestID(r.Context(), reqID))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		observability.HTTPRequests.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(elapsed.Seconds())
		observability.LoggerFromContext(r.Context()).Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

// ModeRequest is the request body for changing the mode
type ModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.state.SetMode(r.Context(), mode); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Mode{"mode": mode})
}

// ChapterRequest is the request body for changing the active chapter
type ChapterRequest struct {
	ChapterID string `json:"chapter_id"`
}

func (s *Server) setChapter(w http.ResponseWriter, r *http.Request) {
	var req ChapterRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.state.SetActiveChapter(r.Context(), req.ChapterID); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_chapter_id": req.ChapterID})
}

func (s *Server) transcript(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": snap.ActiveChat,
		"mode":     snap.CurrentMode,
		"pending":  s.state.Pending(),
	})
}

// SendRequest is the request body for a chat turn
type SendRequest struct {
	Message string `json:"message"`
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !decode(w, r, &req) {
		return
	}
	turn, err := s.chat.Send(r.Context(), req.Message)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, turn)
}

func (s *Server) listJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := journal.Query{
		Mode:  q.Get("mode"),
		Text:  q.Get("q"),
		From:  q.Get("from"),
		To:    q.Get("to"),
		Order: journal.ParseOrder(q.Get("order")),
	}

	entries := journal.Filter(s.state.Snapshot().JournalEntries, query)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
		"query":   query,
	})
}

func (s *Server) getJournalEntry(w http.ResponseWriter, r *http.Request) {
	// Support prefix matching
	entry, ok := journal.FindEntry(s.state.Snapshot().JournalEntries, r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, journal.BuildDashboard(s.state.Snapshot()))
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, journal.BuildAnalytics(s.state.Snapshot().JournalEntries))
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeFailure maps domain errors to HTTP statuses
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, state.ErrUnknownBook),
		errors.Is(err, state.ErrUnknownChapter),
		errors.Is(err, state.ErrUnknownNote),
		errors.Is(err, state.ErrUnknownHighlight):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, state.ErrBusy),
		errors.Is(err, state.ErrDuplicateChapter):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, state.ErrEmptyMessage),
		errors.Is(err, fetcher.ErrNoContent):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
