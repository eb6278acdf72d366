package categorization

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/granadev/grana/internal/api/middleware"
)

// Handler serves the category and rule routes.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs the handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/categories/suggest", h.suggest)
	mux.HandleFunc("GET /api/categories/rules", h.listRules)
	mux.HandleFunc("POST /api/categories/rules", h.createRule)
	mux.HandleFunc("DELETE /api/categories/rules/{id}", h.deleteRule)
}

func (h *Handler) listCategories(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"categories": Categories()})
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		middleware.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"suggestions": h.svc.Suggest(query, limit),
	})
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.ListRules(r.Context())
	if err != nil {
		h.logger.Error("failed to list rules", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}
	if rules == nil {
		rules = []Rule{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword  string `json:"keyword"`
		Category string `json:"category"`
		Priority int    `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.svc.CreateRule(r.Context(), req.Keyword, Category(req.Category), req.Priority)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid rule ID")
		return
	}

	if err := h.svc.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "rule not found")
			return
		}
		h.logger.Error("failed to delete rule", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
