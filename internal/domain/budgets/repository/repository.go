// Package repository defines the caixinha (budget envelope) model and its
// persistence interface.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/domain/categorization"
)

// Caixinha is a monthly budget envelope for one category. LimitAmount is
// the ceiling, CurrentAmount the money set aside so far.
type Caixinha struct {
	ID            uuid.UUID               `json:"id"`
	Category      categorization.Category `json:"category"`
	LimitAmount   decimal.Decimal         `json:"limit_amount"`
	CurrentAmount decimal.Decimal         `json:"current_amount"`
	Month         string                  `json:"month"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// Remaining is the unspent part of the envelope, never negative.
func (c *Caixinha) Remaining() decimal.Decimal {
	remaining := c.LimitAmount.Sub(c.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// BudgetRepository is the persistence contract for caixinhas.
type BudgetRepository interface {
	Upsert(ctx context.Context, c *Caixinha) error
	GetByID(ctx context.Context, id uuid.UUID) (*Caixinha, error)
	ListByMonth(ctx context.Context, month string) ([]*Caixinha, error)
	Update(ctx context.Context, c *Caixinha) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddToCurrent(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	DeleteAll(ctx context.Context) error
}
