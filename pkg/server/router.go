package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/seeding-service/pkg/dto"
)

// Version is reported by the health endpoint.
var Version = "v0.1.0"

// Option customizes the router before routes are registered.
type Option func(r chi.Router)

// WithMiddleware appends middleware after the defaults.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(r chi.Router) {
		r.Use(mw...)
	}
}

// WithHandler mounts an unauthenticated handler such as /metrics.
func WithHandler(pattern string, h http.Handler) Option {
	return func(r chi.Router) {
		r.Method(http.MethodGet, pattern, h)
	}
}

// NewRouter returns a chi router pre-configured with default middleware and a health endpoint.
func NewRouter(service string, register func(r chi.Router), opts ...Option) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	for _, opt := range opts {
		opt(r)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Service: service, Version: Version})
	})

	if register != nil {
		register(r)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
