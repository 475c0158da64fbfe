package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aviralrabbit1/nextNotes/internal/server/repository"
	"github.com/aviralrabbit1/nextNotes/internal/server/service"
	"github.com/aviralrabbit1/nextNotes/internal/shared/models"
)

type Router struct {
	services        *service.Services
	logger          *zap.Logger
	maxRequestBytes int64
	metrics         *metrics
}

// NewRouter builds the HTTP handler. The JSON API lives under /api; /metrics
// is served only when reg is non-nil.
func NewRouter(services *service.Services, logger *zap.Logger, maxRequestBytes int64, reg *prometheus.Registry) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{services: services, logger: logger, maxRequestBytes: maxRequestBytes}
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP, r.logRequests, middleware.Recoverer)
	if reg != nil {
		r.metrics = newMetrics(reg)
		mux.Use(r.metrics.middleware)
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	mux.Get("/health", r.handleHealth)
	mux.Get("/openapi.yaml", r.handleOpenAPI)

	mux.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", r.handleRegister)
		api.Post("/auth/login", r.handleLogin)
		api.Post("/auth/token/refresh", r.handleRefresh)
		api.Post("/auth/logout", r.handleLogout)

		api.Group(func(pr chi.Router) {
			pr.Use(r.authMiddleware)
			pr.Get("/notes", r.handleListNotes)
			pr.Post("/notes", r.handleCreateNote)
			pr.Get("/notes/{id}", r.handleGetNote)
			pr.Put("/notes/{id}", r.handleUpdateNote)
			pr.Delete("/notes/{id}", r.handleDeleteNote)
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// writeError maps service and repository errors to status codes.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid input", Fields: verr.Fields})
	case errors.Is(err, service.ErrEmailTaken):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:  err.Error(),
			Fields: map[string][]string{"email": {"already registered"}},
		})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	default:
		r.logger.Error("request failed",
			zap.String("path", req.URL.Path),
			zap.String("request_id", middleware.GetReqID(req.Context())),
			zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a size-limited JSON body into v. It writes the error
// response itself and reports whether decoding succeeded.
func (r *Router) decodeJSON(w http.ResponseWriter, req *http.Request, v any) bool {
	if r.maxRequestBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.maxRequestBytes)
	}
	err := json.NewDecoder(req.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		writeMessage(w, http.StatusBadRequest, "empty body")
	case errors.As(err, &tooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, "request entity too large")
	default:
		writeMessage(w, http.StatusBadRequest, "invalid json")
	}
	return false
}
