// Package service orchestrates the statement import pipeline: sniff, parse,
// normalize, classify. It owns no storage; callers receive the classified
// transactions and decide what to persist.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/granadev/grana/internal/domain/categorization"
	"github.com/granadev/grana/internal/domain/import/normalizer"
	"github.com/granadev/grana/internal/domain/import/parser"
	"github.com/granadev/grana/pkg/metrics"
)

// ErrNoTransactions signals that the file parsed but produced zero usable
// rows, i.e. the format was not recognized. Distinct from processing
// failures so the caller can word the two differently.
var ErrNoTransactions = errors.New("no transactions recognized in statement")

// ClassifiedTransaction is one fully processed statement line, ready for
// persistence. Identity is assigned by the store, not here.
type ClassifiedTransaction struct {
	Date           string                         `json:"date"`
	Description    string                         `json:"description"`
	RawDescription string                         `json:"raw_description,omitempty"`
	Amount         decimal.Decimal                `json:"amount"`
	Category       categorization.Category        `json:"category"`
	Type           categorization.TransactionType `json:"type"`
	PaymentMethod  categorization.PaymentMethod   `json:"payment_method"`
}

// Result is the outcome of one import.
type Result struct {
	Transactions []ClassifiedTransaction `json:"transactions"`
	TotalRows    int                     `json:"total_rows"`
	ParsedRows   int                     `json:"parsed_rows"`
	SkippedRows  int                     `json:"skipped_rows"`
	Errors       []string                `json:"errors,omitempty"`
}

// CategorizationService classifies one cleaned statement line.
type CategorizationService interface {
	Classify(cleanDesc, rawDesc string, rawAmount decimal.Decimal) categorization.Classification
}

// OverrideStore resolves manual merchant corrections. Optional.
type OverrideStore interface {
	FindMatching(ctx context.Context, rawDescription string) (*normalizer.MerchantOverride, error)
}

// ImportService runs the pipeline.
type ImportService struct {
	normalizer *normalizer.Normalizer
	catService CategorizationService
	oracle     categorization.Oracle
	overrides  OverrideStore
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewImportService creates the service. Both arguments are required; the
// oracle and override store are attached with the With helpers.
func NewImportService(n *normalizer.Normalizer, catService CategorizationService, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		normalizer: n,
		catService: catService,
		logger:     logger,
		tracer:     otel.Tracer("import"),
	}
}

// WithOracle attaches a categorization oracle consulted for lines the rule
// engine could not place. Best effort: oracle failures never fail imports.
func (s *ImportService) WithOracle(oracle categorization.Oracle) *ImportService {
	s.oracle = oracle
	return s
}

// WithOverrideStore attaches manual merchant corrections.
func (s *ImportService) WithOverrideStore(store OverrideStore) *ImportService {
	s.overrides = store
	return s
}

// ImportStatement processes one uploaded statement. The filename is used
// only to pick the Excel parser for .xlsx uploads; everything else goes
// through the CSV path.
func (s *ImportService) ImportStatement(ctx context.Context, fileData []byte, filename string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "ImportStatement")
	defer span.End()

	start := time.Now()

	parsed, err := s.parse(fileData, filename)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to process statement: %w", err)
	}

	if len(parsed.Rows) == 0 {
		metrics.ImportsTotal.WithLabelValues("empty").Inc()
		return nil, ErrNoTransactions
	}

	result := &Result{
		Transactions: make([]ClassifiedTransaction, 0, len(parsed.Rows)),
		TotalRows:    parsed.TotalRows,
		ParsedRows:   parsed.ParsedRows,
		SkippedRows:  parsed.SkippedRows,
	}
	for _, parseErr := range parsed.Errors {
		result.Errors = append(result.Errors, parseErr.Error())
	}

	for _, row := range parsed.Rows {
		tx := s.classifyRow(ctx, row)
		result.Transactions = append(result.Transactions, tx)
	}

	s.enrichWithOracle(ctx, result.Transactions)

	span.SetAttributes(
		attribute.Int("import.total_rows", result.TotalRows),
		attribute.Int("import.parsed_rows", result.ParsedRows),
		attribute.Int("import.skipped_rows", result.SkippedRows),
	)
	metrics.ImportsTotal.WithLabelValues("succeeded").Inc()
	metrics.ImportRowsTotal.WithLabelValues("parsed").Add(float64(result.ParsedRows))
	metrics.ImportRowsTotal.WithLabelValues("skipped").Add(float64(result.SkippedRows))
	metrics.ImportDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("statement imported",
		slog.String("filename", filename),
		slog.Int("parsed", result.ParsedRows),
		slog.Int("skipped", result.SkippedRows),
		slog.Duration("took", time.Since(start)))

	return result, nil
}

func (s *ImportService) parse(fileData []byte, filename string) (*parser.ParseResult, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return parser.ParseExcel(bytes.NewReader(fileData))
	}

	data := normalizeStatementBytes(fileData)
	if header, ok := firstLine(data); ok && parser.IsCardExport(header) {
		return parser.ParseCard(bytes.NewReader(data))
	}
	return parser.Parse(bytes.NewReader(data))
}

func (s *ImportService) classifyRow(ctx context.Context, row parser.Row) ClassifiedTransaction {
	clean := s.resolveDescription(ctx, row.Description)
	classification := s.catService.Classify(clean, row.Description, row.RawAmount)

	tx := ClassifiedTransaction{
		Date:          row.Date,
		Description:   clean,
		Amount:        row.Amount,
		Category:      classification.Category,
		Type:          classification.Type,
		PaymentMethod: classification.PaymentMethod,
	}
	if clean != row.Description {
		tx.RawDescription = row.Description
	}
	return tx
}

// resolveDescription applies manual overrides first, then the automatic
// normalizer. Override lookups fail open.
func (s *ImportService) resolveDescription(ctx context.Context, raw string) string {
	if s.overrides != nil {
		override, err := s.overrides.FindMatching(ctx, raw)
		if err != nil {
			s.logger.Warn("merchant override lookup failed", slog.Any("error", err))
		} else if override != nil {
			return override.MerchantName
		}
	}
	return s.normalizer.Normalize(raw)
}

// enrichWithOracle asks the oracle about lines the rule engine left in
// Outros. Any failure keeps the rule-based result.
func (s *ImportService) enrichWithOracle(ctx context.Context, transactions []ClassifiedTransaction) {
	if s.oracle == nil {
		return
	}

	var unknown []string
	for i := range transactions {
		if transactions[i].Category == categorization.CategoryOther {
			unknown = append(unknown, transactions[i].Description)
		}
	}
	if len(unknown) == 0 {
		return
	}

	suggestions, err := s.oracle.SuggestCategories(ctx, unknown)
	if err != nil {
		s.logger.Warn("categorization oracle failed, keeping rule-based categories", slog.Any("error", err))
		return
	}

	applied := 0
	for i := range transactions {
		if transactions[i].Category != categorization.CategoryOther {
			continue
		}
		if category, ok := suggestions[transactions[i].Description]; ok {
			transactions[i].Category = category
			applied++
		}
	}
	if applied > 0 {
		s.logger.Info("oracle categorized unknown merchants", slog.Int("applied", applied))
	}
}

// normalizeStatementBytes strips the UTF-8 BOM and transcodes Latin-1
// exports, which some banks still produce.
func normalizeStatementBytes(data []byte) []byte {
	data = stripUTF8BOM(data)
	if utf8.Valid(data) {
		return data
	}
	return decodeLatin1(data)
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func decodeLatin1(data []byte) []byte {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}

func firstLine(data []byte) (string, bool) {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
	return "", false
}
