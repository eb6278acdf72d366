package categorization

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Rule is a user-defined keyword rule. Custom rules always take precedence
// over the built-in groups, ordered among themselves by priority.
type Rule struct {
	ID        uuid.UUID `json:"id"`
	Keyword   string    `json:"keyword"`
	Category  Category  `json:"category"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrRuleNotFound is returned when a rule id does not exist.
var ErrRuleNotFound = errors.New("categorization: rule not found")

// DB is the slice of pgxpool.Pool the repository needs. pgxmock satisfies it
// for tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists custom rules.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// ListRules returns all custom rules, highest priority first.
func (r *Repository) ListRules(ctx context.Context) ([]Rule, error) {
	query := `
		SELECT id, keyword, category, priority, created_at
		FROM category_rules
		ORDER BY priority DESC, created_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var (
			rule     Rule
			category string
		)
		if err := rows.Scan(&rule.ID, &rule.Keyword, &category, &rule.Priority, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rule.Category = Category(category)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CreateRule inserts a rule, updating category and priority when the keyword
// already exists.
func (r *Repository) CreateRule(ctx context.Context, rule *Rule) error {
	query := `
		INSERT INTO category_rules (keyword, category, priority)
		VALUES ($1, $2, $3)
		ON CONFLICT (keyword) DO UPDATE SET
			category = EXCLUDED.category,
			priority = EXCLUDED.priority
		RETURNING id, created_at
	`

	return r.db.QueryRow(ctx, query, rule.Keyword, rule.Category, rule.Priority).
		Scan(&rule.ID, &rule.CreatedAt)
}

// DeleteRule removes a rule by id.
func (r *Repository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM category_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}
