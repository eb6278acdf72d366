package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/granadev/grana/internal/domain/admin"
	budgetshandler "github.com/granadev/grana/internal/domain/budgets/handler"
	budgetsrepo "github.com/granadev/grana/internal/domain/budgets/repository"
	budgetsservice "github.com/granadev/grana/internal/domain/budgets/service"
	"github.com/granadev/grana/internal/domain/categorization"
	importhandler "github.com/granadev/grana/internal/domain/import/handler"
	"github.com/granadev/grana/internal/domain/import/normalizer"
	importservice "github.com/granadev/grana/internal/domain/import/service"
	"github.com/granadev/grana/internal/domain/search"
	txhandler "github.com/granadev/grana/internal/domain/transactions/handler"
	txrepo "github.com/granadev/grana/internal/domain/transactions/repository"
	txservice "github.com/granadev/grana/internal/domain/transactions/service"
	"github.com/granadev/grana/pkg/config"
	"github.com/granadev/grana/pkg/cron"
	"github.com/granadev/grana/pkg/db"
	"github.com/granadev/grana/pkg/mailer"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	// Repositories
	TransactionsRepo   txrepo.TransactionRepository
	BudgetsRepo        budgetsrepo.BudgetRepository
	CategorizationRepo *categorization.Repository
	OverrideStore      *normalizer.OverrideStore

	// Services
	CategorizationService *categorization.Service
	ImportService         *importservice.ImportService
	TransactionsService   *txservice.Service
	BudgetsService        *budgetsservice.Service
	SearchIndex           *search.Index
	Oracle                categorization.Oracle
	Mailer                *mailer.Mailer
	Scheduler             *cron.Scheduler

	// Handlers
	TransactionsHandler   *txhandler.TransactionsHandler
	BudgetsHandler        *budgetshandler.BudgetsHandler
	CategorizationHandler *categorization.Handler
	OverridesHandler      *importhandler.OverridesHandler
	AdminHandler          *admin.Handler
}

// buildDependencies wires the whole application graph.
func buildDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	pool, err := db.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	deps := &Dependencies{Config: cfg, Pool: pool, Logger: logger}

	// Repositories
	deps.TransactionsRepo = txrepo.NewPostgresTransactionRepository(pool)
	deps.BudgetsRepo = budgetsrepo.NewPostgresBudgetRepository(pool)
	deps.CategorizationRepo = categorization.NewRepository(pool)
	deps.OverrideStore = normalizer.NewOverrideStore(pool)

	// Categorization with custom rules loaded from the store.
	deps.CategorizationService = categorization.NewService(deps.CategorizationRepo, logger)
	if err := deps.CategorizationService.Reload(ctx); err != nil {
		logger.Warn("failed to load custom rules, using built-in rules only", slog.Any("error", err))
	}

	// Optional Gemini oracle. Missing key just means rule-table-only
	// classification.
	if cfg.Gemini.APIKey != "" {
		oracle, err := categorization.NewGeminiOracle(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, 10*time.Second, logger)
		if err != nil {
			logger.Warn("failed to create categorization oracle", slog.Any("error", err))
		} else {
			deps.Oracle = oracle
		}
	}

	deps.SearchIndex, err = search.NewIndex(cfg.Search.IndexPath)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	// Services
	deps.ImportService = importservice.NewImportService(normalizer.New(), deps.CategorizationService, logger).
		WithOverrideStore(deps.OverrideStore)
	if deps.Oracle != nil {
		deps.ImportService.WithOracle(deps.Oracle)
	}

	deps.TransactionsService = txservice.NewService(deps.TransactionsRepo, deps.SearchIndex, deps.CategorizationService, logger)
	if err := deps.TransactionsService.ReindexAll(ctx); err != nil {
		logger.Warn("failed to rebuild search index", slog.Any("error", err))
	}

	deps.BudgetsService = budgetsservice.NewService(deps.BudgetsRepo, deps.TransactionsService, logger)

	deps.Mailer = mailer.New(cfg.Mailer.APIKey, cfg.Mailer.From, cfg.Mailer.To, logger)
	deps.Scheduler = cron.NewScheduler(deps.TransactionsService, deps.Oracle, deps.Mailer, logger)

	// Handlers
	deps.TransactionsHandler = txhandler.NewTransactionsHandler(deps.TransactionsService, deps.ImportService, logger)
	deps.BudgetsHandler = budgetshandler.NewBudgetsHandler(deps.BudgetsService, logger)
	deps.CategorizationHandler = categorization.NewHandler(deps.CategorizationService, logger)
	deps.OverridesHandler = importhandler.NewOverridesHandler(deps.OverrideStore, logger)
	deps.AdminHandler = admin.NewHandler(deps.TransactionsService, deps.BudgetsService, logger)

	return deps, nil
}

// Close releases held resources.
func (d *Dependencies) Close() {
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}
