// Package api exposes HTTP handlers for the stats service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"example.com/timestats/internal/auth"
	"example.com/timestats/internal/observability"
	"example.com/timestats/internal/stats"
)

// Repository captures the read side of the metrics store.
type Repository interface {
	ListRecords(ctx context.Context) (stats.Snapshot, error)
}

// Handler coordinates HTTP requests with the metrics store.
type Handler struct {
	repo   Repository
	logger zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(repo Repository, logger zerolog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/timestats", h.timestats)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) timestats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	if !auth.Allowed(r.Context(), auth.ScopeStatsRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope timestats:read required")
		return
	}

	snap, err := h.repo.ListRecords(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list records")
		writeError(w, http.StatusInternalServerError, "server_error", "unable to load stats")
		return
	}
	if snap == nil {
		snap = stats.Snapshot{}
	}

	observability.RecordRecordsServed(len(snap))
	writeJSON(w, http.StatusOK, snap)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
