package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/domain/categorization"
)

// ErrTransactionNotFound is returned when an ID does not exist.
var ErrTransactionNotFound = errors.New("transaction not found")

// DB is the subset of pgxpool.Pool the repository needs. pgxmock
// implements the same signatures.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresTransactionRepository implements TransactionRepository on Postgres.
type PostgresTransactionRepository struct {
	db DB
}

// NewPostgresTransactionRepository creates the repository.
func NewPostgresTransactionRepository(db DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

const transactionColumns = `id, description, amount, date, category, type, payment_method, created_at`

// Create inserts a new transaction, assigning an ID when absent.
func (r *PostgresTransactionRepository) Create(ctx context.Context, tx *Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	query := `
		INSERT INTO transactions (id, description, amount, date, category, type, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		tx.ID,
		tx.Description,
		tx.Amount,
		tx.Date,
		string(tx.Category),
		string(tx.Type),
		string(tx.PaymentMethod),
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves one transaction.
func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// List retrieves transactions newest first, optionally filtered.
func (r *PostgresTransactionRepository) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	var args []any

	if filter.Month != "" {
		args = append(args, filter.Month+"%")
		query += fmt.Sprintf(` AND date LIKE $%d`, len(args))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	query += ` ORDER BY date DESC, created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Update replaces the mutable fields of a transaction.
func (r *PostgresTransactionRepository) Update(ctx context.Context, tx *Transaction) error {
	query := `
		UPDATE transactions
		SET description = $2, amount = $3, date = $4, category = $5, type = $6, payment_method = $7
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.Description,
		tx.Amount,
		tx.Date,
		string(tx.Category),
		string(tx.Type),
		string(tx.PaymentMethod),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// Delete removes a transaction.
func (r *PostgresTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// BulkInsert stores a batch of imported transactions, assigning IDs.
// Returns the number of rows inserted.
func (r *PostgresTransactionRepository) BulkInsert(ctx context.Context, txs []*Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO transactions (id, description, amount, date, category, type, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	inserted := 0
	for _, tx := range txs {
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		_, err := r.db.Exec(ctx, query,
			tx.ID,
			tx.Description,
			tx.Amount,
			tx.Date,
			string(tx.Category),
			string(tx.Type),
			string(tx.PaymentMethod),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert transaction %d of %d: %w", inserted+1, len(txs), err)
		}
		inserted++
	}
	return inserted, nil
}

// DeleteAll wipes the table. Used by the admin reset.
func (r *PostgresTransactionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to delete all transactions: %w", err)
	}
	return nil
}

// ListUncategorized returns transactions still in the fallback category,
// oldest first so the nightly recategorization works through the backlog.
func (r *PostgresTransactionRepository) ListUncategorized(ctx context.Context, limit int) ([]*Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE category = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, string(categorization.CategoryOther), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uncategorized transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// UpdateCategory reassigns a single transaction's category.
func (r *PostgresTransactionRepository) UpdateCategory(ctx context.Context, id uuid.UUID, category categorization.Category) error {
	result, err := r.db.Exec(ctx, `UPDATE transactions SET category = $2 WHERE id = $1`, id, string(category))
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// MonthlyTotals sums income, expense and invested amounts for a month.
func (r *PostgresTransactionRepository) MonthlyTotals(ctx context.Context, month string) (*MonthlyTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = $2), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = $3), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = $4), 0)
		FROM transactions
		WHERE date LIKE $1`

	totals := &MonthlyTotals{}
	err := r.db.QueryRow(ctx, query,
		month+"%",
		string(categorization.TypeIncome),
		string(categorization.TypeExpense),
		string(categorization.TypeInvestment),
	).Scan(&totals.Income, &totals.Expense, &totals.Invested)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly totals: %w", err)
	}
	return totals, nil
}

// ExpenseByCategory sums the month's expenses per category, largest first.
func (r *PostgresTransactionRepository) ExpenseByCategory(ctx context.Context, month string) ([]CategoryTotal, error) {
	query := `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE date LIKE $1 AND type = $2
		GROUP BY category
		ORDER BY 2 DESC`

	rows, err := r.db.Query(ctx, query, month+"%", string(categorization.TypeExpense))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate expenses by category: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var category string
		var total decimal.Decimal
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, CategoryTotal{Category: categorization.Category(category), Total: total})
	}
	return totals, rows.Err()
}

// ExpenseRanking groups the month's expenses by merchant title.
func (r *PostgresTransactionRepository) ExpenseRanking(ctx context.Context, month string, limit int) ([]MerchantTotal, error) {
	query := `
		SELECT description, COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE date LIKE $1 AND type = $2
		GROUP BY description
		ORDER BY 2 DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, month+"%", string(categorization.TypeExpense), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank expenses: %w", err)
	}
	defer rows.Close()

	var totals []MerchantTotal
	for rows.Next() {
		var mt MerchantTotal
		if err := rows.Scan(&mt.Description, &mt.Total, &mt.Count); err != nil {
			return nil, fmt.Errorf("failed to scan merchant total: %w", err)
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	tx := &Transaction{}
	var category, txType, method string
	err := row.Scan(
		&tx.ID,
		&tx.Description,
		&tx.Amount,
		&tx.Date,
		&category,
		&txType,
		&method,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Category = categorization.Category(category)
	tx.Type = categorization.TransactionType(txType)
	tx.PaymentMethod = categorization.PaymentMethod(method)
	return tx, nil
}

func collectTransactions(rows pgx.Rows) ([]*Transaction, error) {
	var txs []*Transaction
	for rows.Next() {
		tx := &Transaction{}
		var category, txType, method string
		err := rows.Scan(
			&tx.ID,
			&tx.Description,
			&tx.Amount,
			&tx.Date,
			&category,
			&txType,
			&method,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Category = categorization.Category(category)
		tx.Type = categorization.TransactionType(txType)
		tx.PaymentMethod = categorization.PaymentMethod(method)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
