package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/domain/categorization"
)

// ErrCaixinhaNotFound is returned when an ID does not exist.
var ErrCaixinhaNotFound = errors.New("caixinha not found")

// PostgresBudgetRepository implements BudgetRepository using PostgreSQL.
type PostgresBudgetRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBudgetRepository creates a new PostgreSQL budget repository.
func NewPostgresBudgetRepository(pool *pgxpool.Pool) *PostgresBudgetRepository {
	return &PostgresBudgetRepository{pool: pool}
}

// Upsert creates a caixinha or, when one already exists for the same
// category and month, replaces its limit.
func (r *PostgresBudgetRepository) Upsert(ctx context.Context, c *Caixinha) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	query := `
		INSERT INTO budgets (id, category, limit_amount, current_amount, month)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (category, month) DO UPDATE
		SET limit_amount = EXCLUDED.limit_amount, updated_at = now()
		RETURNING id, current_amount, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.ID,
		string(c.Category),
		c.LimitAmount,
		c.CurrentAmount,
		c.Month,
	).Scan(&c.ID, &c.CurrentAmount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert caixinha: %w", err)
	}
	return nil
}

// GetByID retrieves a caixinha by ID.
func (r *PostgresBudgetRepository) GetByID(ctx context.Context, id uuid.UUID) (*Caixinha, error) {
	query := `
		SELECT id, category, limit_amount, current_amount, month, created_at, updated_at
		FROM budgets
		WHERE id = $1`

	c := &Caixinha{}
	var category string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&category,
		&c.LimitAmount,
		&c.CurrentAmount,
		&c.Month,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCaixinhaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get caixinha: %w", err)
	}
	c.Category = categorization.Category(category)
	return c, nil
}

// ListByMonth retrieves the caixinhas for one month, every month when empty.
func (r *PostgresBudgetRepository) ListByMonth(ctx context.Context, month string) ([]*Caixinha, error) {
	query := `
		SELECT id, category, limit_amount, current_amount, month, created_at, updated_at
		FROM budgets`
	var args []any
	if month != "" {
		query += ` WHERE month = $1`
		args = append(args, month)
	}
	query += ` ORDER BY month DESC, category ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list caixinhas: %w", err)
	}
	defer rows.Close()

	var caixinhas []*Caixinha
	for rows.Next() {
		c := &Caixinha{}
		var category string
		err := rows.Scan(
			&c.ID,
			&category,
			&c.LimitAmount,
			&c.CurrentAmount,
			&c.Month,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan caixinha: %w", err)
		}
		c.Category = categorization.Category(category)
		caixinhas = append(caixinhas, c)
	}
	return caixinhas, rows.Err()
}

// Update replaces the limit and category of a caixinha.
func (r *PostgresBudgetRepository) Update(ctx context.Context, c *Caixinha) error {
	query := `
		UPDATE budgets
		SET category = $2, limit_amount = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, c.ID, string(c.Category), c.LimitAmount).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCaixinhaNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update caixinha: %w", err)
	}
	return nil
}

// Delete removes a caixinha.
func (r *PostgresBudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete caixinha: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCaixinhaNotFound
	}
	return nil
}

// AddToCurrent increments the amount set aside in a caixinha.
func (r *PostgresBudgetRepository) AddToCurrent(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE budgets SET current_amount = current_amount + $2, updated_at = now() WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to add to caixinha: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCaixinhaNotFound
	}
	return nil
}

// DeleteAll wipes the table. Used by the admin reset.
func (r *PostgresBudgetRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM budgets`); err != nil {
		return fmt.Errorf("failed to delete all caixinhas: %w", err)
	}
	return nil
}
