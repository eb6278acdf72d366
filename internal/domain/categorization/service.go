package categorization

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service combines the rule engine, the fuzzy matcher and the custom rule
// store. Without a repository it still classifies with the built-in groups,
// so the pipeline never depends on the database being up.
type Service struct {
	repo       *Repository
	engine     *Engine
	fuzzy      *FuzzyMatcher
	classifier *Classifier
	logger     *slog.Logger
}

// NewService builds a service. repo may be nil, in which case only the
// built-in rule groups apply and Reload is a no-op.
func NewService(repo *Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	engine := NewEngine(nil)
	return &Service{
		repo:       repo,
		engine:     engine,
		fuzzy:      NewFuzzyMatcher(nil),
		classifier: NewClassifier(engine),
		logger:     logger,
	}
}

// Classify assigns category, type and payment method for one line.
func (s *Service) Classify(cleanDesc, rawDesc string, rawAmount decimal.Decimal) Classification {
	return s.classifier.Classify(cleanDesc, rawDesc, rawAmount)
}

// CategoryMatch reports the rule-table category for a description and
// whether any rule actually matched.
func (s *Service) CategoryMatch(description string) (Category, bool) {
	return s.engine.Match(description)
}

// CategoryBatch classifies many cleaned descriptions in one engine pass.
func (s *Service) CategoryBatch(descriptions []string) []Category {
	return s.engine.MatchBatch(descriptions)
}

// Suggest returns the closest keyword matches for a description, for the
// rule-builder UI when the exact engine finds nothing.
func (s *Service) Suggest(description string, limit int) []FuzzyResult {
	return s.fuzzy.Rank(description, limit)
}

// Reload fetches custom rules and rebuilds both matchers. Custom rules sit
// in front of the built-in groups, each as its own group so their relative
// priority is preserved.
func (s *Service) Reload(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load category rules: %w", err)
	}

	groups := make([]RuleGroup, 0, len(rules)+6)
	for _, rule := range rules {
		if !rule.Category.Valid() {
			s.logger.Warn("skipping rule with unknown category",
				slog.String("keyword", rule.Keyword),
				slog.String("category", string(rule.Category)))
			continue
		}
		groups = append(groups, RuleGroup{
			Name:     "custom:" + rule.Keyword,
			Category: rule.Category,
			Keywords: []string{rule.Keyword},
		})
	}
	groups = append(groups, defaultRuleGroups()...)

	s.engine.Build(groups)
	s.fuzzy.Build(groups)

	s.logger.Info("categorization rules reloaded",
		slog.Int("custom_rules", len(rules)),
		slog.Int("keywords", s.engine.KeywordCount()))
	return nil
}

// ListRules returns the custom rules.
func (s *Service) ListRules(ctx context.Context) ([]Rule, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListRules(ctx)
}

// CreateRule stores a rule and rebuilds the matchers.
func (s *Service) CreateRule(ctx context.Context, keyword string, category Category, priority int) (*Rule, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("rule store not configured")
	}
	if keyword == "" {
		return nil, fmt.Errorf("keyword must not be empty")
	}
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	rule := &Rule{Keyword: keyword, Category: category, Priority: priority}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	if err := s.Reload(ctx); err != nil {
		s.logger.Error("rule created but reload failed", slog.Any("error", err))
	}
	return rule, nil
}

// DeleteRule removes a rule and rebuilds the matchers.
func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if s.repo == nil {
		return fmt.Errorf("rule store not configured")
	}
	if err := s.repo.DeleteRule(ctx, id); err != nil {
		return err
	}
	return s.Reload(ctx)
}
