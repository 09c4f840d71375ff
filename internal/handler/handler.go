package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"url-redirector/internal/auth"
	"url-redirector/internal/service"
)

type Handler struct {
	Service  *service.Service
	Verifier *auth.Verifier
	// RateLimiter guards the redirect surface; nil disables it.
	RateLimiter *SimpleRateLimiter
	logger      *slog.Logger
}

func NewHandler(s *service.Service, v *auth.Verifier, rl *SimpleRateLimiter, logger *slog.Logger) *Handler {
	return &Handler{
		Service:     s,
		Verifier:    v,
		RateLimiter: rl,
		logger:      logger,
	}
}

func (h *Handler) Routes() http.Handler {
	// Paths are lookup keys, so they are not cleaned.
	r := mux.NewRouter().SkipClean(true)
	r.Use(h.logRequests)

	admin := r.PathPrefix("/admin/mappings").Subrouter()
	admin.Use(h.AdminAuth)
	admin.HandleFunc("/all", h.ListMappings).Methods(http.MethodGet)
	admin.HandleFunc("/new", h.CreateMapping).Methods(http.MethodPost)
	admin.HandleFunc("/root", h.SetRoot).Methods(http.MethodPost)
	admin.HandleFunc("/404", h.SetNotFound).Methods(http.MethodPost)
	// POST rather than DELETE so browsers skip the CORS preflight.
	admin.HandleFunc("/delete/{id}", h.DeleteMapping).Methods(http.MethodPost)

	r.PathPrefix("/").HandlerFunc(h.Redirect).Methods(http.MethodGet, http.MethodHead)
	return r
}

// Redirect serves every non-admin path through the resolver.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	if h.RateLimiter != nil && !h.RateLimiter.Allow(r.Host+"|"+clientIP(r)) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	// A client that goes away still gets its answer written and counted.
	ctx := context.WithoutCancel(r.Context())
	d, err := h.Service.Resolver.Resolve(ctx, r.Host, r.URL.Path, r.URL.RawQuery)
	if err != nil {
		h.logger.Error("resolve failed", "host", r.Host, "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if d.IsRedirect() {
		http.Redirect(w, r, d.Location, d.Status)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(d.Status)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(d.Body))
		}
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.Service.Resolver.Track(d)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, req)
		h.logger.Info("request",
			"method", req.Method,
			"host", req.Host,
			"path", req.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
