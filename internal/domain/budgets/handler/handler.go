// Package handler exposes the caixinhas REST surface.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/api/middleware"
	"github.com/granadev/grana/internal/domain/budgets/repository"
	"github.com/granadev/grana/internal/domain/budgets/service"
	"github.com/granadev/grana/internal/domain/categorization"
)

// BudgetsHandler serves the caixinha routes.
type BudgetsHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewBudgetsHandler constructs the handler.
func NewBudgetsHandler(svc *service.Service, logger *slog.Logger) *BudgetsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetsHandler{svc: svc, logger: logger}
}

// Register mounts the routes on the mux.
func (h *BudgetsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/budgets", h.list)
	mux.HandleFunc("POST /api/budgets", h.create)
	mux.HandleFunc("PUT /api/budgets/{id}", h.update)
	mux.HandleFunc("DELETE /api/budgets/{id}", h.delete)
	mux.HandleFunc("POST /api/budgets/{id}/deposit", h.deposit)
}

type budgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
	Month    string `json:"month"`
}

func (h *BudgetsHandler) list(w http.ResponseWriter, r *http.Request) {
	caixinhas, err := h.svc.List(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.logger.Error("failed to list caixinhas", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}
	if caixinhas == nil {
		caixinhas = []*repository.Caixinha{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"budgets": caixinhas})
}

func (h *BudgetsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	limit, err := decimal.NewFromString(req.Limit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "limit must be a decimal string")
		return
	}

	c, err := h.svc.Create(r.Context(), categorization.Category(req.Category), limit, req.Month)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, c)
}

func (h *BudgetsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid budget ID")
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	limit, err := decimal.NewFromString(req.Limit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "limit must be a decimal string")
		return
	}

	c, err := h.svc.Update(r.Context(), id, categorization.Category(req.Category), limit)
	if err != nil {
		if errors.Is(err, repository.ErrCaixinhaNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "budget not found")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, c)
}

func (h *BudgetsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid budget ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrCaixinhaNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "budget not found")
			return
		}
		h.logger.Error("failed to delete caixinha", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BudgetsHandler) deposit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid budget ID")
		return
	}

	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be a decimal string")
		return
	}

	c, err := h.svc.Deposit(r.Context(), id, amount)
	if err != nil {
		if errors.Is(err, repository.ErrCaixinhaNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "budget not found")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, c)
}
