package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"todo/api/internal/auth"
	"todo/api/internal/htmx"
	"todo/api/internal/render"
	"todo/api/internal/validate"
)

const defaultMaxBodyBytes = 64 << 10

type HTTPServer struct {
	service      *Service
	gate         *auth.BasicAuth
	logger       *log.Logger
	maxBodyBytes int64
}

func NewHTTPServer(service *Service, gate *auth.BasicAuth, logger *log.Logger, maxBodyBytes int64) *HTTPServer {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPServer{service: service, gate: gate, logger: logger, maxBodyBytes: maxBodyBytes}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/healthz" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/readyz" {
		s.handleReady(w, r)
		return
	}

	if err := s.gate.Check(r); err != nil {
		s.gate.Challenge(w)
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}

	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 0:
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}
		s.handleIndex(w, r)
	case len(parts) == 1 && parts[0] == "todo":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		s.handleCreate(w, r)
	case len(parts) == 2 && parts[0] == "todo" && parts[1] == "search":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		s.handleSearch(w, r)
	case len(parts) == 2 && parts[0] == "todo":
		switch r.Method {
		case http.MethodPut:
			s.handleUpdate(w, r, parts[1])
		case http.MethodDelete:
			s.handleDelete(w, r, parts[1])
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"store": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		s.logger.Warn("readiness check failed", "request_id", requestIDFrom(r.Context()), "err", err)
		checks["store"] = map[string]any{"status": "error"}
	}

	// The store fallback always answers searches, so an unhealthy index only degrades.
	if s.service.SearchEnabled() {
		searchStatus := "ok"
		if !s.service.SearchHealthy() {
			searchStatus = "degraded"
		}
		checks["search"] = map[string]any{"status": searchStatus}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	list := render.List(items)
	htmx.RenderPage(w, r, list, render.Page(list))
}

func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	title, err := validate.DecodeTitle(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	item, err := s.service.Create(r.Context(), title)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	htmx.Render(w, r, http.StatusOK, render.Item(item))
}

func (s *HTTPServer) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	title, err := validate.DecodeTitle(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.service.Update(r.Context(), id, title); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.service.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be a positive integer", map[string]any{"field": "limit"})
			return
		}
		limit = parsed
	}
	items, err := s.service.Search(r.Context(), query, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	htmx.Render(w, r, http.StatusOK, render.Results(items))
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", requestIDFrom(r.Context()), "code", code, "err", err)
	} else {
		s.logger.Debug("request rejected", "request_id", requestIDFrom(r.Context()), "code", code, "err", err)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		writer.Header().Set("Cache-Control", "no-store")
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
