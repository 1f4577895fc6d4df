// Package http implements the REST API: authentication, study state,
// mentor views, tips, and the export endpoint.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/language-study/study-hub/internal/application/command"
	"github.com/language-study/study-hub/internal/application/query"
	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/internal/infrastructure/export"
	"github.com/language-study/study-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	EnableCORS     bool
	AllowedOrigins []string

	// SessionCookie is the cookie name checked when no Authorization
	// header is present.
	SessionCookie string

	// RateLimitPerMinute caps requests per client IP. 0 disables the
	// limiter.
	RateLimitPerMinute int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		SessionCookie:  "session",

		RateLimitPerMinute: 100,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the handlers need.
type Dependencies struct {
	// Auth
	Auth identity.AuthProvider

	// Commands (CQRS write side)
	AddVocabulary *command.AddVocabularyHandler
	AddSkills     *command.AddSkillsHandler
	UpdateStatus  *command.UpdateStatusHandler
	DeleteItem    *command.DeleteItemHandler
	Categories    *command.CategoryHandler
	Subtasks      *command.SubtaskHandler
	Portfolio     *command.PortfolioHandler
	Settings      *command.SettingsHandler
	MentorSharing *command.MentorSharingHandler
	RequestTip    *command.RequestTipHandler
	DeleteAccount *command.DeleteAccountHandler

	// Queries (CQRS read side)
	GetSnapshot       *query.GetSnapshotHandler
	ResolveMentorView *query.ResolveMentorViewHandler
	GetUsage          *query.GetUsageHandler

	// Exporter renders snapshots as XLSX. Optional.
	Exporter *export.ExcelExporter

	Logger *logger.Logger

	// ReadyCheck reports backing store health for the readiness probe.
	// Optional.
	ReadyCheck func(ctx context.Context) error
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	log        *logger.Logger

	rateLimiter *rateLimiter

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates the server and wires its routes.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		log:    deps.Logger,
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if config.RateLimitPerMinute > 0 {
		s.rateLimiter = newRateLimiter(config.RateLimitPerMinute, time.Minute)
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.buildMiddlewareChain(s.router),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & status
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)

	// ─────────────────────────────────────────────────────────────────────────
	// Authentication
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/auth/signup", s.handleSignUp)
	s.router.HandleFunc("POST /api/v1/auth/signin", s.handleSignIn)
	s.router.HandleFunc("POST /api/v1/auth/signout", s.handleSignOut)
	s.router.HandleFunc("POST /api/v1/auth/action-codes", s.handleIssueActionCode)
	s.router.HandleFunc("POST /api/v1/auth/action-codes/apply", s.handleApplyActionCode)
	s.router.HandleFunc("PUT /api/v1/auth/password", s.handleUpdatePassword)

	// ─────────────────────────────────────────────────────────────────────────
	// Study state
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/snapshot", s.handleGetSnapshot)
	s.router.HandleFunc("GET /api/v1/snapshot/export", s.handleExportSnapshot)
	s.router.HandleFunc("GET /api/v1/stats", s.handleGetStats)

	s.router.HandleFunc("POST /api/v1/vocabulary", s.handleAddVocabulary)
	s.router.HandleFunc("PUT /api/v1/vocabulary/{id}/status", s.handleUpdateVocabularyStatus)
	s.router.HandleFunc("DELETE /api/v1/vocabulary/{id}", s.handleDeleteVocabulary)

	s.router.HandleFunc("POST /api/v1/skills", s.handleAddSkills)
	s.router.HandleFunc("PUT /api/v1/skills/{id}/status", s.handleUpdateSkillStatus)
	s.router.HandleFunc("DELETE /api/v1/skills/{id}", s.handleDeleteSkill)
	s.router.HandleFunc("POST /api/v1/skills/{id}/subtasks", s.handleAddSubtask)
	s.router.HandleFunc("PUT /api/v1/skills/{id}/subtasks/{subtaskId}/status", s.handleUpdateSubtaskStatus)
	s.router.HandleFunc("DELETE /api/v1/skills/{id}/subtasks/{subtaskId}", s.handleDeleteSubtask)

	s.router.HandleFunc("POST /api/v1/categories", s.handleAddCategory)
	s.router.HandleFunc("DELETE /api/v1/categories/{name}", s.handleDeleteCategory)

	s.router.HandleFunc("POST /api/v1/portfolio", s.handleAddPortfolio)
	s.router.HandleFunc("PUT /api/v1/portfolio/{id}/top", s.handleToggleTop)
	s.router.HandleFunc("DELETE /api/v1/portfolio/{id}", s.handleDeletePortfolio)

	// ─────────────────────────────────────────────────────────────────────────
	// Settings & account
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("PUT /api/v1/settings/flags/{flag}", s.handleUpdateSettingsFlag)
	s.router.HandleFunc("POST /api/v1/settings/first-login-done", s.handleFirstLoginDone)
	s.router.HandleFunc("DELETE /api/v1/account", s.handleDeleteAccount)

	// ─────────────────────────────────────────────────────────────────────────
	// Mentor sharing
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/mentor-code", s.handleGetMentorCode)
	s.router.HandleFunc("POST /api/v1/mentor-code", s.handleGetOrCreateMentorCode)
	s.router.HandleFunc("PUT /api/v1/mentor-code", s.handleSetMentorCodeEnabled)
	s.router.HandleFunc("POST /api/v1/mentor-code/regenerate", s.handleRegenerateMentorCode)

	// ─────────────────────────────────────────────────────────────────────────
	// Tips & usage
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/tips", s.handleRequestTip)
	s.router.HandleFunc("GET /api/v1/usage", s.handleGetUsage)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	h := handler
	h = s.requestIDMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)
	if s.config.EnableCORS {
		h = s.corsMiddleware(h)
	}
	if s.rateLimiter != nil {
		h = s.rateLimitMiddleware(h)
	}
	return h
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.log.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Duration("duration", time.Since(start)),
			logger.RequestID(getRequestID(r.Context())),
		)
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
					logger.RequestID(getRequestID(r.Context())),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := false
		for _, o := range s.config.AllowedOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}
		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// rateLimiter is a sliding-window per-key request counter.
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow records a request for the key and reports whether it is within
// the limit. Stale entries for the key are pruned on each call.
func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	valid := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// clientIP extracts the client IP, honoring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION RESOLUTION
// ══════════════════════════════════════════════════════════════════════════════

// sessionToken extracts the bearer token or session cookie, if any.
func (s *Server) sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(s.config.SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// ownerSession resolves the request to an authenticated owner session.
func (s *Server) ownerSession(r *http.Request) (identity.SessionContext, error) {
	token := s.sessionToken(r)
	if token == "" {
		return identity.SessionContext{}, shared.ErrUnauthorized
	}
	user, err := s.deps.Auth.UserBySession(r.Context(), token)
	if err != nil {
		return identity.SessionContext{}, err
	}
	return identity.NewOwnerSession(user.UID), nil
}

// viewSession resolves the request to either a mentor view session (when
// the mentor query parameter is present) or an owner session. Mentor
// views work without authentication; the actor uid is then empty.
func (s *Server) viewSession(r *http.Request) (identity.SessionContext, error) {
	if code := r.URL.Query().Get("mentor"); code != "" {
		actorUID := ""
		if token := s.sessionToken(r); token != "" {
			if user, err := s.deps.Auth.UserBySession(r.Context(), token); err == nil {
				actorUID = user.UID
			}
		}
		return s.deps.ResolveMentorView.Handle(r.Context(), actorUID, code)
	}
	return s.ownerSession(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start runs the server until Shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.log.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the full middleware chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the standard response envelope.
type JSONResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the error payload of the envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// writeError maps the error taxonomy to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.RequestID(getRequestID(r.Context())),
			logger.Err(err),
		)
		writeJSONError(w, status, code, "An unexpected error occurred")
		return
	}
	writeJSONError(w, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized),
		errors.Is(err, shared.ErrNoAuthUser),
		errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrReadOnlySession),
		errors.Is(err, shared.ErrCodeDisabled),
		errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrLimitExceeded),
		errors.Is(err, shared.ErrExhausted):
		return http.StatusTooManyRequests, "limit_exceeded"
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrEmptyValue),
		errors.Is(err, shared.ErrInvalidFormat),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidState):
		return http.StatusBadRequest, "validation_failed"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}

// decodeJSON reads a JSON body with a size cap.
func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: malformed JSON body", shared.ErrInvalidInput)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
