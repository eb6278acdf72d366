package categorization

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryListRules(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, keyword, category, priority, created_at`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "keyword", "category", "priority", "created_at"}).
			AddRow(uuid.New(), "condusvi", "Habitação", 10, now).
			AddRow(uuid.New(), "barbearia", "Outros", 0, now))

	repo := NewRepository(mock)
	rules, err := repo.ListRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "condusvi", rules[0].Keyword)
	assert.Equal(t, CategoryHousing, rules[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateRule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO category_rules`).
		WithArgs("barbearia", CategoryOther, 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, now))

	repo := NewRepository(mock)
	rule := &Rule{Keyword: "barbearia", Category: CategoryOther, Priority: 5}
	require.NoError(t, repo.CreateRule(context.Background(), rule))
	assert.Equal(t, id, rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteRule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM category_rules`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewRepository(mock)
	require.NoError(t, repo.DeleteRule(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteRuleNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM category_rules`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewRepository(mock)
	assert.ErrorIs(t, repo.DeleteRule(context.Background(), id), ErrRuleNotFound)
}
