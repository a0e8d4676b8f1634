// Package web exposes the visit store and the chat command handler over HTTP.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"padelbot/internal/bot"
	"padelbot/internal/config"
	"padelbot/internal/ics"
	appLog "padelbot/internal/log"
	"padelbot/internal/visit"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// Server provides the HTTP API.
type Server struct {
	cfg   *config.Config
	store *visit.Store
	bot   *bot.Handler
	now   func() time.Time
}

// NewServer constructs a new Server. handler may be nil, in which case
// /api/messages is not mounted.
func NewServer(cfg *config.Config, store *visit.Store, handler *bot.Handler) *Server {
	return &Server{
		cfg:   cfg,
		store: store,
		bot:   handler,
		now:   time.Now,
	}
}

// Handler returns the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RequestLogger(requestLogger{}))
	r.Use(middleware.Recoverer)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		r.Use(s.basicAuthMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/visits", s.handleAddVisit)
		r.Get("/visits", s.handleListVisits)
		r.Get("/visits/text", s.handleListText)
		r.Get("/visits.ics", s.handleListICS)
		if s.bot != nil {
			r.Post("/messages", s.handleMessage)
		}
	})
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	appLog.Info("stopping HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="padelbot", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type ctxKey int

const requestIDKey ctxKey = iota

// requestID propagates X-Request-ID or assigns a fresh UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestIDFrom returns the request id stored by the middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type requestLogger struct{}

func (requestLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return logEntry{r: r}
}

type logEntry struct {
	r *http.Request
}

func (e logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	appLog.Info("http request",
		"request_id", RequestIDFrom(e.r.Context()),
		"method", e.r.Method,
		"path", e.r.URL.Path,
		"status", status,
		"bytes", bytes,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

func (e logEntry) Panic(v any, _ []byte) {
	appLog.Error("http handler panic", errors.New("panic"), "request_id", RequestIDFrom(e.r.Context()), "value", v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type addVisitRequest struct {
	Text string `json:"text"`
}

type visitResponse struct {
	visit.Visit
	Date string `json:"date"`
	Time string `json:"time"`
}

func toResponse(v visit.Visit) visitResponse {
	return visitResponse{Visit: v, Date: v.DateString(), Time: v.TimeRangeString()}
}

func (s *Server) handleAddVisit(w http.ResponseWriter, r *http.Request) {
	var req addVisitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	v, err := s.store.Add(req.Text, s.now())
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, toResponse(v))
	case errors.Is(err, visit.ErrDuplicate):
		writeJSON(w, http.StatusConflict, struct {
			Error string        `json:"error"`
			Visit visitResponse `json:"visit"`
		}{Error: err.Error(), Visit: toResponse(v)})
	default:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

func (s *Server) upcoming(r *http.Request) []visit.Visit {
	days := parseIntDefault(r.URL.Query().Get("days"), s.cfg.HorizonDays)
	if days <= 0 {
		days = s.cfg.HorizonDays
	}
	return s.store.ListUpcoming(days, s.now())
}

func (s *Server) handleListVisits(w http.ResponseWriter, r *http.Request) {
	visits := s.upcoming(r)
	resp := make([]visitResponse, 0, len(visits))
	for _, v := range visits {
		resp = append(resp, toResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(visit.Render(s.upcoming(r))))
}

func (s *Server) handleListICS(w http.ResponseWriter, r *http.Request) {
	body := ics.Encode(s.upcoming(r), ics.Options{Now: s.now()})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="visits.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg bot.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, ok := s.bot.Handle(r.Context(), msg)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
