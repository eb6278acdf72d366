package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granadev/grana/internal/domain/categorization"
	"github.com/granadev/grana/internal/domain/import/normalizer"
	importsvc "github.com/granadev/grana/internal/domain/import/service"
	"github.com/granadev/grana/internal/domain/search"
	"github.com/granadev/grana/internal/domain/transactions/repository"
	"github.com/granadev/grana/internal/domain/transactions/service"
)

type memRepo struct {
	byID map[uuid.UUID]*repository.Transaction
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[uuid.UUID]*repository.Transaction)}
}

func (m *memRepo) Create(_ context.Context, tx *repository.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	m.byID[tx.ID] = tx
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.Transaction, error) {
	tx, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *memRepo) List(context.Context, repository.ListFilter) ([]*repository.Transaction, error) {
	txs := make([]*repository.Transaction, 0, len(m.byID))
	for _, tx := range m.byID {
		txs = append(txs, tx)
	}
	return txs, nil
}

func (m *memRepo) Update(_ context.Context, tx *repository.Transaction) error {
	if _, ok := m.byID[tx.ID]; !ok {
		return repository.ErrTransactionNotFound
	}
	m.byID[tx.ID] = tx
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrTransactionNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memRepo) BulkInsert(_ context.Context, txs []*repository.Transaction) (int, error) {
	for _, tx := range txs {
		m.byID[tx.ID] = tx
	}
	return len(txs), nil
}

func (m *memRepo) DeleteAll(context.Context) error {
	m.byID = make(map[uuid.UUID]*repository.Transaction)
	return nil
}

func (m *memRepo) ListUncategorized(context.Context, int) ([]*repository.Transaction, error) {
	return nil, nil
}

func (m *memRepo) UpdateCategory(context.Context, uuid.UUID, categorization.Category) error {
	return nil
}

func (m *memRepo) MonthlyTotals(context.Context, string) (*repository.MonthlyTotals, error) {
	return &repository.MonthlyTotals{
		Income:  decimal.RequireFromString("100"),
		Expense: decimal.RequireFromString("40"),
	}, nil
}

func (m *memRepo) ExpenseByCategory(context.Context, string) ([]repository.CategoryTotal, error) {
	return nil, nil
}

func (m *memRepo) ExpenseRanking(context.Context, string, int) ([]repository.MerchantTotal, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*http.ServeMux, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	idx, err := search.NewIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	catSvc := categorization.NewService(nil, logger)
	txSvc := service.NewService(repo, idx, catSvc, logger)
	impSvc := importsvc.NewImportService(normalizer.New(), catSvc, logger)

	mux := http.NewServeMux()
	NewTransactionsHandler(txSvc, impSvc, logger).Register(mux)
	return mux, repo
}

func TestCreateTransaction(t *testing.T) {
	mux, repo := newTestServer(t)

	t.Run("created", func(t *testing.T) {
		body := `{
			"description": "Supermercado Bom Preço",
			"amount": "45.90",
			"date": "2024-03-15",
			"category": "Alimentação",
			"type": "Saída",
			"payment_method": "Cartão de Débito"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Len(t, repo.byID, 1)
	})

	t.Run("invalid category rejected", func(t *testing.T) {
		body := `{
			"description": "x", "amount": "1", "date": "2024-03-15",
			"category": "Viagens", "type": "Saída", "payment_method": "Pix"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad amount rejected", func(t *testing.T) {
		body := `{"description": "x", "amount": "abc", "date": "2024-03-15",
			"category": "Outros", "type": "Saída", "payment_method": "Pix"}`
		req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestImportStatement(t *testing.T) {
	mux, repo := newTestServer(t)

	csv := "Data,Valor,Identificador,Descrição\n" +
		"15/03/2024,-45.90,abc,Compra no débito - Supermercado Bom Preço - 12.345.678/0001-99\n"

	t.Run("multipart upload", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "extrato.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Inserted   int `json:"inserted"`
			ParsedRows int `json:"parsed_rows"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Inserted)
		assert.Equal(t, 1, resp.ParsedRows)

		var stored *repository.Transaction
		for _, tx := range repo.byID {
			stored = tx
		}
		require.NotNil(t, stored)
		assert.Equal(t, "Supermercado Bom Preço", stored.Description)
		assert.Equal(t, categorization.CategoryFood, stored.Category)
	})

	t.Run("raw body upload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader(csv))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("unrecognized file is 422", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader("garbage\ncontent\n"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("empty body is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/transactions/import", strings.NewReader(""))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateAndDelete(t *testing.T) {
	mux, repo := newTestServer(t)

	tx := &repository.Transaction{
		ID:            uuid.New(),
		Description:   "Uber",
		Amount:        decimal.RequireFromString("18.40"),
		Date:          "2024-03-12",
		Category:      categorization.CategoryTransport,
		Type:          categorization.TypeExpense,
		PaymentMethod: categorization.MethodCreditCard,
	}
	repo.byID[tx.ID] = tx

	t.Run("update", func(t *testing.T) {
		body := `{"description": "Uber Viagem", "amount": "18.40", "date": "2024-03-12",
			"category": "Transporte", "type": "Saída", "payment_method": "Cartão de Crédito"}`
		req := httptest.NewRequest(http.MethodPut, "/api/transactions/"+tx.ID.String(), strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Uber Viagem", repo.byID[tx.ID].Description)
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/transactions/"+tx.ID.String(), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, repo.byID)
	})

	t.Run("delete unknown id is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/transactions/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/transactions/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatsEndpoint(t *testing.T) {
	mux, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats?month=2024-03", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Month   string `json:"month"`
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "2024-03", stats.Month)
	assert.Equal(t, "60", stats.Balance)
}

func TestSearchEndpoint(t *testing.T) {
	mux, _ := newTestServer(t)

	t.Run("missing query is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/transactions/search", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("finds indexed transaction", func(t *testing.T) {
		body := `{"description": "Cinema Shopping", "amount": "30", "date": "2024-03-20",
			"category": "Lazer", "type": "Saída", "payment_method": "Pix"}`
		create := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
		createRec := httptest.NewRecorder()
		mux.ServeHTTP(createRec, create)
		require.Equal(t, http.StatusCreated, createRec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/transactions/search?q=cinema", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Cinema Shopping")
	})
}
