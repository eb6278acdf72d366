// Package service provides business logic for caixinhas: monthly budget
// envelopes and the deposit flow that records money set aside.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/domain/budgets/repository"
	"github.com/granadev/grana/internal/domain/categorization"
	txrepo "github.com/granadev/grana/internal/domain/transactions/repository"
)

// TransactionRecorder stores the transaction produced by a deposit.
type TransactionRecorder interface {
	Create(ctx context.Context, tx *txrepo.Transaction) error
}

// Service provides caixinha business logic.
type Service struct {
	repo         repository.BudgetRepository
	transactions TransactionRecorder
	logger       *slog.Logger
}

// NewService creates the service.
func NewService(repo repository.BudgetRepository, transactions TransactionRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, transactions: transactions, logger: logger}
}

// Create stores a caixinha, replacing the limit when one already exists
// for the same category and month.
func (s *Service) Create(ctx context.Context, category categorization.Category, limit decimal.Decimal, month string) (*repository.Caixinha, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if !limit.IsPositive() {
		return nil, fmt.Errorf("limit must be positive")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, fmt.Errorf("month must be YYYY-MM: %w", err)
	}

	c := &repository.Caixinha{
		ID:            uuid.New(),
		Category:      category,
		LimitAmount:   limit,
		CurrentAmount: decimal.Zero,
		Month:         month,
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves a caixinha.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Caixinha, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves caixinhas, filtered by month when given.
func (s *Service) List(ctx context.Context, month string) ([]*repository.Caixinha, error) {
	return s.repo.ListByMonth(ctx, month)
}

// Update changes the limit and category of a caixinha.
func (s *Service) Update(ctx context.Context, id uuid.UUID, category categorization.Category, limit decimal.Decimal) (*repository.Caixinha, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if !limit.IsPositive() {
		return nil, fmt.Errorf("limit must be positive")
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Category = category
	c.LimitAmount = limit

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a caixinha.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// DeleteAll wipes every caixinha. Used by the admin reset.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

// Deposit sets money aside in a caixinha and records the matching
// Investimento transaction. This is the only flow that produces the
// Investimento type; the statement classifier never infers it.
func (s *Service) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*repository.Caixinha, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddToCurrent(ctx, id, amount); err != nil {
		return nil, err
	}

	tx := &txrepo.Transaction{
		ID:            uuid.New(),
		Description:   fmt.Sprintf("Depósito caixinha %s", c.Category),
		Amount:        amount,
		Date:          time.Now().Format("2006-01-02"),
		Category:      c.Category,
		Type:          categorization.TypeInvestment,
		PaymentMethod: categorization.MethodOther,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		s.logger.Warn("deposit recorded but transaction creation failed",
			slog.String("caixinha_id", id.String()), slog.Any("error", err))
	}

	return s.repo.GetByID(ctx, id)
}
