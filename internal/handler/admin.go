package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"url-redirector/internal/auth"
	"url-redirector/internal/model"
	"url-redirector/internal/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Mappings []model.Mapping `json:"mappings"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// AdminAuth verifies the bearer token and stores the caller's capability for
// the request host in the context.
func (h *Handler) AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "MISSING AUTH"})
			return
		}
		c, err := h.Verifier.Authorize(strings.TrimSpace(token), r.Host)
		if err != nil {
			h.logger.Warn("admin auth rejected", "host", r.Host, "error", err)
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "UNAUTHORIZED"})
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithCapability(r.Context(), c)))
	})
}

// capability returns the caller's capability, or a zero one that every admin
// operation rejects.
func capability(r *http.Request) auth.Capability {
	c, _ := auth.FromContext(r.Context())
	return c
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Msg})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "UNAUTHORIZED"})
	default:
		h.logger.Error("admin request failed", "host", r.Host, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON request body"})
		return false
	}
	return true
}

func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Admin.List(r.Context(), capability(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Mappings: list})
}

func (h *Handler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	if _, err := h.Service.Admin.Create(r.Context(), capability(r), in); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct{}{})
}

func (h *Handler) SetRoot(w http.ResponseWriter, r *http.Request) {
	var in service.RootInput
	if !decodeBody(w, r, &in) {
		return
	}
	if _, err := h.Service.Admin.SetRoot(r.Context(), capability(r), in); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct{}{})
}

func (h *Handler) SetNotFound(w http.ResponseWriter, r *http.Request) {
	var in service.NotFoundInput
	if !decodeBody(w, r, &in) {
		return
	}
	if _, err := h.Service.Admin.SetNotFound(r.Context(), capability(r), in); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct{}{})
}

func (h *Handler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.Admin.Delete(r.Context(), capability(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}
