// Package admin exposes maintenance endpoints: data reset and health.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/granadev/grana/internal/api/middleware"
)

// Wiper removes all stored data for one domain.
type Wiper interface {
	DeleteAll(ctx context.Context) error
}

// Handler serves the admin routes.
type Handler struct {
	transactions Wiper
	budgets      Wiper
	logger       *slog.Logger
}

// NewHandler constructs the handler.
func NewHandler(transactions, budgets Wiper, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{transactions: transactions, budgets: budgets, logger: logger}
}

// Register mounts the routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/reset", h.reset)
	mux.HandleFunc("GET /api/health", h.health)
}

// reset wipes transactions and budgets. Destructive and unauthenticated;
// the server is single-user and meant to sit behind a private network.
func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.transactions.DeleteAll(r.Context()); err != nil {
		h.logger.Error("failed to wipe transactions", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	if err := h.budgets.DeleteAll(r.Context()); err != nil {
		h.logger.Error("failed to wipe budgets", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "reset failed")
		return
	}

	h.logger.Info("all data wiped")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
