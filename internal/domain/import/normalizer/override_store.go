package normalizer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MerchantOverride is a manual correction for a merchant: when a raw
// description matches the pattern, the override's name (and category, when
// set) win over automatic normalization.
type MerchantOverride struct {
	ID            uuid.UUID  `json:"id"`
	MatchPattern  string     `json:"match_pattern"`
	MatchType     string     `json:"match_type"` // "exact" or "contains"
	MerchantName  string     `json:"merchant_name"`
	Category      *string    `json:"category,omitempty"`
	MatchCount    int        `json:"match_count"`
	LastMatchedAt *time.Time `json:"last_matched_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OverrideStore persists merchant overrides.
type OverrideStore struct {
	db *pgxpool.Pool
}

func NewOverrideStore(db *pgxpool.Pool) *OverrideStore {
	return &OverrideStore{db: db}
}

// Save creates or updates an override keyed by its match pattern.
func (s *OverrideStore) Save(ctx context.Context, override MerchantOverride) (*MerchantOverride, error) {
	query := `
		INSERT INTO merchant_overrides (match_pattern, match_type, merchant_name, category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (match_pattern) DO UPDATE SET
			match_type = EXCLUDED.match_type,
			merchant_name = EXCLUDED.merchant_name,
			category = EXCLUDED.category,
			updated_at = now()
		RETURNING id, match_pattern, match_type, merchant_name, category,
			match_count, last_matched_at, created_at, updated_at
	`

	var result MerchantOverride
	err := s.db.QueryRow(ctx, query,
		override.MatchPattern,
		override.MatchType,
		override.MerchantName,
		override.Category,
	).Scan(
		&result.ID, &result.MatchPattern, &result.MatchType, &result.MerchantName,
		&result.Category, &result.MatchCount, &result.LastMatchedAt,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns all overrides, most used first.
func (s *OverrideStore) List(ctx context.Context) ([]MerchantOverride, error) {
	query := `
		SELECT id, match_pattern, match_type, merchant_name, category,
			match_count, last_matched_at, created_at, updated_at
		FROM merchant_overrides
		ORDER BY match_count DESC, updated_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []MerchantOverride
	for rows.Next() {
		var o MerchantOverride
		err := rows.Scan(
			&o.ID, &o.MatchPattern, &o.MatchType, &o.MerchantName,
			&o.Category, &o.MatchCount, &o.LastMatchedAt,
			&o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// FindMatching returns the first override matching the raw description, or
// nil. Matching is accent-insensitive.
func (s *OverrideStore) FindMatching(ctx context.Context, rawDescription string) (*MerchantOverride, error) {
	overrides, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	folded := Fold(rawDescription)

	for i := range overrides {
		o := &overrides[i]

		var matched bool
		switch o.MatchType {
		case "exact":
			matched = folded == Fold(o.MatchPattern)
		default:
			matched = strings.Contains(folded, Fold(o.MatchPattern))
		}

		if matched {
			go s.incrementMatchCount(context.WithoutCancel(ctx), o.ID)
			return o, nil
		}
	}

	return nil, nil
}

func (s *OverrideStore) incrementMatchCount(ctx context.Context, id uuid.UUID) {
	query := `
		UPDATE merchant_overrides
		SET match_count = match_count + 1, last_matched_at = now()
		WHERE id = $1
	`
	_, _ = s.db.Exec(ctx, query, id)
}

// Delete removes an override.
func (s *OverrideStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM merchant_overrides WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
