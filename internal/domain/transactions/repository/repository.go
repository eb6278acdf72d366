// Package repository defines the transaction model and its persistence
// interface.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/domain/categorization"
)

// Transaction is one financial movement. Date is kept as an ISO string
// (YYYY-MM-DD); statement imports never carry a time of day.
type Transaction struct {
	ID            uuid.UUID                      `json:"id"`
	Description   string                         `json:"description"`
	Amount        decimal.Decimal                `json:"amount"`
	Date          string                         `json:"date"`
	Category      categorization.Category        `json:"category"`
	Type          categorization.TransactionType `json:"type"`
	PaymentMethod categorization.PaymentMethod   `json:"payment_method"`
	CreatedAt     time.Time                      `json:"created_at"`
}

// MonthlyTotals aggregates one month of movement by type.
type MonthlyTotals struct {
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Invested decimal.Decimal `json:"invested"`
}

// Balance is income minus expense minus invested.
func (t MonthlyTotals) Balance() decimal.Decimal {
	return t.Income.Sub(t.Expense).Sub(t.Invested)
}

// CategoryTotal is the expense total for one category.
type CategoryTotal struct {
	Category categorization.Category `json:"category"`
	Total    decimal.Decimal         `json:"total"`
}

// MerchantTotal ranks spending by merchant title.
type MerchantTotal struct {
	Description string          `json:"description"`
	Total       decimal.Decimal `json:"total"`
	Count       int             `json:"count"`
}

// ListFilter narrows List results. Zero values mean no filter.
type ListFilter struct {
	Month    string // YYYY-MM
	Category categorization.Category
	Type     categorization.TransactionType
	Limit    int
}

// TransactionRepository is the persistence contract for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	Update(ctx context.Context, tx *Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	BulkInsert(ctx context.Context, txs []*Transaction) (int, error)
	DeleteAll(ctx context.Context) error
	ListUncategorized(ctx context.Context, limit int) ([]*Transaction, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, category categorization.Category) error
	MonthlyTotals(ctx context.Context, month string) (*MonthlyTotals, error)
	ExpenseByCategory(ctx context.Context, month string) ([]CategoryTotal, error)
	ExpenseRanking(ctx context.Context, month string, limit int) ([]MerchantTotal, error)
}
