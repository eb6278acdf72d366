// Package service provides business logic for transactions: CRUD, bulk
// statement imports, monthly stats and the search surface.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/granadev/grana/internal/domain/categorization"
	importsvc "github.com/granadev/grana/internal/domain/import/service"
	"github.com/granadev/grana/internal/domain/search"
	"github.com/granadev/grana/internal/domain/transactions/repository"
)

// Stats is the dashboard aggregate for one month.
type Stats struct {
	Month      string                     `json:"month"`
	Income     decimal.Decimal            `json:"income"`
	Expense    decimal.Decimal            `json:"expense"`
	Invested   decimal.Decimal            `json:"invested"`
	Balance    decimal.Decimal            `json:"balance"`
	ByCategory []repository.CategoryTotal `json:"by_category"`
	Ranking    []repository.MerchantTotal `json:"ranking"`
}

// Service provides transaction business logic.
type Service struct {
	repo     repository.TransactionRepository
	index    *search.Index
	category *categorization.Service
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewService creates the service. The search index is optional; when nil,
// search returns empty results and writes skip indexing.
func NewService(repo repository.TransactionRepository, index *search.Index, category *categorization.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		index:    index,
		category: category,
		logger:   logger,
		tracer:   otel.Tracer("transactions"),
	}
}

// Create validates and stores one transaction.
func (s *Service) Create(ctx context.Context, tx *repository.Transaction) error {
	if err := validate(tx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return err
	}
	s.indexTransaction(tx)
	return nil
}

// Get retrieves one transaction.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves transactions, optionally filtered by month, category or type.
func (s *Service) List(ctx context.Context, filter repository.ListFilter) ([]*repository.Transaction, error) {
	return s.repo.List(ctx, filter)
}

// Update replaces the mutable fields of a transaction.
func (s *Service) Update(ctx context.Context, tx *repository.Transaction) error {
	if err := validate(tx); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, tx); err != nil {
		return err
	}
	s.indexTransaction(tx)
	return nil
}

// Delete removes a transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(id); err != nil {
			s.logger.Warn("failed to remove transaction from search index", slog.Any("error", err))
		}
	}
	return nil
}

// BulkImport persists the output of a statement import. Returns the number
// of transactions stored.
func (s *Service) BulkImport(ctx context.Context, classified []importsvc.ClassifiedTransaction) (int, error) {
	ctx, span := s.tracer.Start(ctx, "BulkImport")
	defer span.End()

	txs := make([]*repository.Transaction, 0, len(classified))
	for _, c := range classified {
		txs = append(txs, &repository.Transaction{
			ID:            uuid.New(),
			Description:   c.Description,
			Amount:        c.Amount,
			Date:          c.Date,
			Category:      c.Category,
			Type:          c.Type,
			PaymentMethod: c.PaymentMethod,
		})
	}

	inserted, err := s.repo.BulkInsert(ctx, txs)
	if err != nil {
		return inserted, fmt.Errorf("failed to store imported transactions: %w", err)
	}
	span.SetAttributes(attribute.Int("transactions.inserted", inserted))

	if s.index != nil {
		docs := make([]search.Document, 0, len(txs))
		for _, tx := range txs {
			docs = append(docs, searchDocument(tx))
		}
		if err := s.index.IndexBatch(docs); err != nil {
			s.logger.Warn("failed to index imported transactions", slog.Any("error", err))
		}
	}

	return inserted, nil
}

// Stats computes the monthly dashboard numbers. Month defaults to the
// current month when empty.
func (s *Service) Stats(ctx context.Context, month string) (*Stats, error) {
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	totals, err := s.repo.MonthlyTotals(ctx, month)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repo.ExpenseByCategory(ctx, month)
	if err != nil {
		return nil, err
	}
	ranking, err := s.repo.ExpenseRanking(ctx, month, 10)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Month:      month,
		Income:     totals.Income,
		Expense:    totals.Expense,
		Invested:   totals.Invested,
		Balance:    totals.Balance(),
		ByCategory: byCategory,
		Ranking:    ranking,
	}, nil
}

// Search runs a full-text query over indexed transactions.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(query, limit)
}

// ReindexAll rebuilds the search index from the store. Called on startup.
func (s *Service) ReindexAll(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	txs, err := s.repo.List(ctx, repository.ListFilter{})
	if err != nil {
		return fmt.Errorf("failed to load transactions for reindex: %w", err)
	}

	docs := make([]search.Document, 0, len(txs))
	for _, tx := range txs {
		docs = append(docs, searchDocument(tx))
	}
	if err := s.index.IndexBatch(docs); err != nil {
		return fmt.Errorf("failed to rebuild search index: %w", err)
	}
	s.logger.Info("search index rebuilt", slog.Int("documents", len(docs)))
	return nil
}

// RecategorizeUncategorized re-runs the classifier over transactions still
// in the fallback category and applies any new matches. Used by the
// nightly scheduler and after rule changes.
func (s *Service) RecategorizeUncategorized(ctx context.Context, oracle categorization.Oracle) (int, error) {
	ctx, span := s.tracer.Start(ctx, "RecategorizeUncategorized")
	defer span.End()

	txs, err := s.repo.ListUncategorized(ctx, 500)
	if err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, nil
	}

	resolved := make(map[uuid.UUID]categorization.Category)
	var stillUnknown []*repository.Transaction
	for _, tx := range txs {
		if category, ok := s.category.CategoryMatch(tx.Description); ok {
			resolved[tx.ID] = category
		} else {
			stillUnknown = append(stillUnknown, tx)
		}
	}

	if oracle != nil && len(stillUnknown) > 0 {
		descriptions := make([]string, 0, len(stillUnknown))
		for _, tx := range stillUnknown {
			descriptions = append(descriptions, tx.Description)
		}
		suggestions, err := oracle.SuggestCategories(ctx, descriptions)
		if err != nil {
			s.logger.Warn("oracle failed during recategorization", slog.Any("error", err))
		} else {
			for _, tx := range stillUnknown {
				if category, ok := suggestions[tx.Description]; ok {
					resolved[tx.ID] = category
				}
			}
		}
	}

	updated := 0
	for id, category := range resolved {
		if err := s.repo.UpdateCategory(ctx, id, category); err != nil {
			s.logger.Warn("failed to update category",
				slog.String("transaction_id", id.String()), slog.Any("error", err))
			continue
		}
		updated++
	}

	span.SetAttributes(attribute.Int("transactions.recategorized", updated))
	if updated > 0 {
		s.logger.Info("recategorized transactions",
			slog.Int("candidates", len(txs)), slog.Int("updated", updated))
	}
	return updated, nil
}

// DeleteAll wipes every transaction and the search index.
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Clear(); err != nil {
			s.logger.Warn("failed to clear search index", slog.Any("error", err))
		}
	}
	return nil
}

func (s *Service) indexTransaction(tx *repository.Transaction) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexTransaction(searchDocument(tx)); err != nil {
		s.logger.Warn("failed to index transaction", slog.Any("error", err))
	}
}

func searchDocument(tx *repository.Transaction) search.Document {
	return search.Document{
		ID:          tx.ID.String(),
		Description: tx.Description,
		Category:    string(tx.Category),
		Date:        tx.Date,
	}
}

func validate(tx *repository.Transaction) error {
	if tx.Description == "" {
		return fmt.Errorf("description is required")
	}
	if tx.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if _, err := time.Parse("2006-01-02", tx.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	if !tx.Category.Valid() {
		return fmt.Errorf("unknown category %q", tx.Category)
	}
	if !tx.Type.Valid() {
		return fmt.Errorf("unknown type %q", tx.Type)
	}
	if !tx.PaymentMethod.Valid() {
		return fmt.Errorf("unknown payment method %q", tx.PaymentMethod)
	}
	return nil
}
