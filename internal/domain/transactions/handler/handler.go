// Package handler exposes the transactions REST surface, including the
// statement import endpoint.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/api/middleware"
	"github.com/granadev/grana/internal/domain/categorization"
	importsvc "github.com/granadev/grana/internal/domain/import/service"
	"github.com/granadev/grana/internal/domain/transactions/repository"
	"github.com/granadev/grana/internal/domain/transactions/service"
)

// maxUploadSize caps statement uploads at 10 MiB.
const maxUploadSize = 10 << 20

// TransactionsHandler serves the transaction routes.
type TransactionsHandler struct {
	svc       *service.Service
	importSvc *importsvc.ImportService
	logger    *slog.Logger
}

// NewTransactionsHandler constructs the handler.
func NewTransactionsHandler(svc *service.Service, importSvc *importsvc.ImportService, logger *slog.Logger) *TransactionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionsHandler{svc: svc, importSvc: importSvc, logger: logger}
}

// Register mounts the routes on the mux.
func (h *TransactionsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/transactions", h.list)
	mux.HandleFunc("POST /api/transactions", h.create)
	mux.HandleFunc("POST /api/transactions/bulk", h.bulkCreate)
	mux.HandleFunc("POST /api/transactions/import", h.importStatement)
	mux.HandleFunc("GET /api/transactions/search", h.search)
	mux.HandleFunc("PUT /api/transactions/{id}", h.update)
	mux.HandleFunc("DELETE /api/transactions/{id}", h.delete)
	mux.HandleFunc("GET /api/stats", h.stats)
}

type transactionRequest struct {
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	PaymentMethod string `json:"payment_method"`
}

func (req transactionRequest) toModel() (*repository.Transaction, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, errors.New("amount must be a decimal string")
	}
	return &repository.Transaction{
		Description:   req.Description,
		Amount:        amount,
		Date:          req.Date,
		Category:      categorization.Category(req.Category),
		Type:          categorization.TransactionType(req.Type),
		PaymentMethod: categorization.PaymentMethod(req.PaymentMethod),
	}, nil
}

func (h *TransactionsHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := repository.ListFilter{
		Month:    r.URL.Query().Get("month"),
		Category: categorization.Category(r.URL.Query().Get("category")),
		Type:     categorization.TransactionType(r.URL.Query().Get("type")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list transactions", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []*repository.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

func (h *TransactionsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := req.toModel()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Create(r.Context(), tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

func (h *TransactionsHandler) bulkCreate(w http.ResponseWriter, r *http.Request) {
	var reqs []transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(reqs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "empty transaction list")
		return
	}

	classified := make([]importsvc.ClassifiedTransaction, 0, len(reqs))
	for i, req := range reqs {
		tx, err := req.toModel()
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest,
				"transaction "+strconv.Itoa(i+1)+": "+err.Error())
			return
		}
		classified = append(classified, importsvc.ClassifiedTransaction{
			Date:          tx.Date,
			Description:   tx.Description,
			Amount:        tx.Amount,
			Category:      tx.Category,
			Type:          tx.Type,
			PaymentMethod: tx.PaymentMethod,
		})
	}

	inserted, err := h.svc.BulkImport(r.Context(), classified)
	if err != nil {
		h.logger.Error("bulk insert failed", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to store transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]int{"inserted": inserted})
}

// importStatement accepts a statement upload, either as a multipart form
// with a "file" field or as a raw body, runs the pipeline and stores the
// result.
func (h *TransactionsHandler) importStatement(w http.ResponseWriter, r *http.Request) {
	fileData, filename, err := readUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.importSvc.ImportStatement(r.Context(), fileData, filename)
	if errors.Is(err, importsvc.ErrNoTransactions) {
		middleware.WriteError(w, http.StatusUnprocessableEntity,
			"no transactions recognized in the uploaded file")
		return
	}
	if err != nil {
		h.logger.Error("statement import failed", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to process statement")
		return
	}

	inserted, err := h.svc.BulkImport(r.Context(), result.Transactions)
	if err != nil {
		h.logger.Error("failed to store imported transactions", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to store transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"inserted":     inserted,
		"total_rows":   result.TotalRows,
		"parsed_rows":  result.ParsedRows,
		"skipped_rows": result.SkippedRows,
		"errors":       result.Errors,
	})
}

func readUpload(r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, "", errors.New("invalid multipart form")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("missing file field")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", errors.New("failed to read uploaded file")
		}
		return data, header.Filename, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", errors.New("failed to read request body")
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty upload")
	}
	return data, "statement.csv", nil
}

func (h *TransactionsHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		middleware.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	hits, err := h.svc.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("search failed", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]map[string]any, 0, len(hits))
	for _, hit := range hits {
		results = append(results, map[string]any{
			"id":          hit.Document.ID,
			"description": hit.Document.Description,
			"category":    hit.Document.Category,
			"date":        hit.Document.Date,
			"score":       hit.Score,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *TransactionsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := req.toModel()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx.ID = id

	if err := h.svc.Update(r.Context(), tx); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "transaction not found")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.logger.Error("failed to delete transaction", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionsHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.logger.Error("failed to compute stats", slog.Any("error", err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stats)
}
