package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granadev/grana/internal/domain/categorization"
)

func newMockRepo(t *testing.T) (*PostgresTransactionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresTransactionRepository(mock), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	tx := &Transaction{
		Description:   "Supermercado Bom Preço",
		Amount:        decimal.RequireFromString("45.90"),
		Date:          "2024-03-15",
		Category:      categorization.CategoryFood,
		Type:          categorization.TypeExpense,
		PaymentMethod: categorization.MethodDebitCard,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(pgxmock.AnyArg(), tx.Description, tx.Amount, tx.Date,
			"Alimentação", "Saída", "Cartão de Débito").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	require.NoError(t, repo.Create(context.Background(), tx))
	assert.NotEqual(t, uuid.Nil, tx.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{
			"id", "description", "amount", "date", "category", "type", "payment_method", "created_at",
		}).AddRow(id, "iFood", decimal.RequireFromString("32.50"), "2024-03-10",
			"Alimentação", "Saída", "Cartão de Crédito", time.Now())

		mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(rows)

		tx, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "iFood", tx.Description)
		assert.Equal(t, categorization.CategoryFood, tx.Category)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(context.Background(), id)
		require.ErrorIs(t, err, ErrTransactionNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{
		"id", "description", "amount", "date", "category", "type", "payment_method", "created_at",
	}).
		AddRow(uuid.New(), "Uber", decimal.RequireFromString("18.40"), "2024-03-12",
			"Transporte", "Saída", "Cartão de Crédito", time.Now()).
		AddRow(uuid.New(), "Salário", decimal.RequireFromString("5000"), "2024-03-05",
			"Outros", "Entrada", "Pix", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("AND date LIKE $1")).
		WithArgs("2024-03%").
		WillReturnRows(rows)

	txs, err := repo.List(context.Background(), ListFilter{Month: "2024-03"})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, categorization.TypeIncome, txs[1].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	t.Run("deletes", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM transactions WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		require.NoError(t, repo.Delete(context.Background(), id))
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM transactions WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		require.ErrorIs(t, repo.Delete(context.Background(), id), ErrTransactionNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	txs := []*Transaction{
		{Description: "Padaria", Amount: decimal.RequireFromString("12.00"), Date: "2024-03-01",
			Category: categorization.CategoryFood, Type: categorization.TypeExpense,
			PaymentMethod: categorization.MethodDebitCard},
		{Description: "Drogasil", Amount: decimal.RequireFromString("55.20"), Date: "2024-03-02",
			Category: categorization.CategoryHealth, Type: categorization.TypeExpense,
			PaymentMethod: categorization.MethodCreditCard},
	}

	for _, tx := range txs {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
			WithArgs(pgxmock.AnyArg(), tx.Description, tx.Amount, tx.Date,
				string(tx.Category), string(tx.Type), string(tx.PaymentMethod)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	n, err := repo.BulkInsert(context.Background(), txs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, tx := range txs {
		assert.NotEqual(t, uuid.Nil, tx.ID)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyTotals(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions")).
		WithArgs("2024-03%", "Entrada", "Saída", "Investimento").
		WillReturnRows(pgxmock.NewRows([]string{"income", "expense", "invested"}).
			AddRow(decimal.RequireFromString("5000"), decimal.RequireFromString("3200.50"),
				decimal.RequireFromString("400")))

	totals, err := repo.MonthlyTotals(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, "1399.5", totals.Balance().String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseByCategory(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY category")).
		WithArgs("2024-03%", "Saída").
		WillReturnRows(pgxmock.NewRows([]string{"category", "total"}).
			AddRow("Alimentação", decimal.RequireFromString("1200")).
			AddRow("Transporte", decimal.RequireFromString("300")))

	totals, err := repo.ExpenseByCategory(context.Background(), "2024-03")
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, categorization.CategoryFood, totals[0].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCategory(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET category = $2")).
		WithArgs(id, "Lazer").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateCategory(context.Background(), id, categorization.CategoryLeisure))
	require.NoError(t, mock.ExpectationsWereMet())
}
