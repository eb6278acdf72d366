// Package handler exposes the merchant override routes. Overrides are
// manual corrections that win over the automatic description normalizer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/granadev/grana/internal/api/middleware"
	"github.com/granadev/grana/internal/domain/import/normalizer"
)

// OverrideStore is the persistence surface the handler needs.
type OverrideStore interface {
	List(ctx context.Context) ([]normalizer.MerchantOverride, error)
	Save(ctx context.Context, override normalizer.MerchantOverride) (*normalizer.MerchantOverride, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OverridesHandler serves the merchant override routes.
type OverridesHandler struct {
	store  OverrideStore
	logger *slog.Logger
}

// NewOverridesHandler constructs the handler.
func NewOverridesHandler(store OverrideStore, logger *slog.Logger) *OverridesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverridesHandler{store: store, logger: logger}
}

// Register mounts the routes on the mux.
func (h *OverridesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/merchants/overrides", h.list)
	mux.HandleFunc("POST /api/merchants/overrides", h.save)
	mux.HandleFunc("DELETE /api/merchants/overrides/{id}", h.delete)
}

func (h *OverridesHandler) list(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list merchant overrides", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list overrides")
		return
	}
	if overrides == nil {
		overrides = []normalizer.MerchantOverride{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"overrides": overrides})
}

func (h *OverridesHandler) save(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MatchPattern string  `json:"match_pattern"`
		MatchType    string  `json:"match_type"`
		MerchantName string  `json:"merchant_name"`
		Category     *string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MatchPattern == "" || req.MerchantName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "match_pattern and merchant_name are required")
		return
	}
	if req.MatchType == "" {
		req.MatchType = "exact"
	}
	if req.MatchType != "exact" && req.MatchType != "contains" {
		middleware.WriteError(w, http.StatusBadRequest, "match_type must be exact or contains")
		return
	}

	override := normalizer.MerchantOverride{
		MatchPattern: req.MatchPattern,
		MatchType:    req.MatchType,
		MerchantName: req.MerchantName,
		Category:     req.Category,
	}
	saved, err := h.store.Save(r.Context(), override)
	if err != nil {
		h.logger.Error("failed to save merchant override", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to save override")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, saved)
}

func (h *OverridesHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid override ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			middleware.WriteError(w, http.StatusNotFound, "override not found")
			return
		}
		h.logger.Error("failed to delete merchant override", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to delete override")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
