package categorization

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/granadev/grana/internal/domain/import/normalizer"
)

// FuzzyResult is a fuzzy match with its similarity score.
type FuzzyResult struct {
	Keyword  string
	Category Category
	Score    int // 0-100, higher is closer
	Distance int // Levenshtein distance
}

// FuzzyMatcher scores descriptions against the rule keywords by edit
// distance. The exact engine misses misspellings like "netlfix"; the fuzzy
// matcher powers category suggestions for those, behind a threshold so it
// never silently miscategorizes during import.
type FuzzyMatcher struct {
	patterns []fuzzyPattern
	mu       sync.RWMutex
}

type fuzzyPattern struct {
	folded   string
	keyword  string
	category Category
	order    int
}

// NewFuzzyMatcher builds a matcher from the given groups, or the default
// rule table when groups is nil.
func NewFuzzyMatcher(groups []RuleGroup) *FuzzyMatcher {
	if groups == nil {
		groups = defaultRuleGroups()
	}
	fm := &FuzzyMatcher{}
	fm.Build(groups)
	return fm
}

// Build reconstructs the pattern list from the groups.
func (fm *FuzzyMatcher) Build(groups []RuleGroup) {
	streaming := make(map[string]struct{})
	for _, kw := range streamingKeywords() {
		streaming[normalizer.Fold(kw)] = struct{}{}
	}

	var patterns []fuzzyPattern
	for order, group := range groups {
		for _, kw := range group.Keywords {
			folded := normalizer.Fold(kw)
			// Very short keywords ("net", "oi", "99") drown out real matches
			// via the containment score; leave those to the exact engine.
			if len(folded) < 4 {
				continue
			}
			category := group.Category
			// Mirror the engine's streaming redirect so suggestions agree
			// with what an import would actually assign.
			if category == CategoryHousing {
				if _, ok := streaming[folded]; ok {
					category = CategoryLeisure
				}
			}
			patterns = append(patterns, fuzzyPattern{
				folded:   folded,
				keyword:  kw,
				category: category,
				order:    order,
			})
		}
	}

	fm.mu.Lock()
	fm.patterns = patterns
	fm.mu.Unlock()
}

// Match returns the best fuzzy match scoring at or above the threshold
// (0-100), or nil. Ties go to the earlier rule group.
func (fm *FuzzyMatcher) Match(description string, threshold int) *FuzzyResult {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	folded := normalizer.Fold(description)

	var best *FuzzyResult
	bestOrder := 0
	for _, p := range fm.patterns {
		score := fuzzyScore(folded, p.folded)
		if score < threshold {
			continue
		}
		if best == nil || score > best.Score || (score == best.Score && p.order < bestOrder) {
			best = &FuzzyResult{
				Keyword:  p.keyword,
				Category: p.category,
				Score:    score,
				Distance: levenshteinDistance(folded, p.folded),
			}
			bestOrder = p.order
		}
	}

	return best
}

// Rank returns the closest keywords to the input, best first, capped at
// limit when limit > 0.
func (fm *FuzzyMatcher) Rank(description string, limit int) []FuzzyResult {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	folded := normalizer.Fold(description)

	results := make([]FuzzyResult, 0, len(fm.patterns))
	for _, p := range fm.patterns {
		results = append(results, FuzzyResult{
			Keyword:  p.keyword,
			Category: p.category,
			Score:    fuzzyScore(folded, p.folded),
			Distance: levenshteinDistance(folded, p.folded),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}

// PatternCount returns the number of keywords loaded.
func (fm *FuzzyMatcher) PatternCount() int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return len(fm.patterns)
}

// fuzzyScore combines containment, Levenshtein distance and subsequence
// ranking into a single 0-100 similarity score.
func fuzzyScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}

	// Containment is the common case for merchant variations
	// ("starbucks 001" vs "starbucks").
	if strings.Contains(s1, s2) {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len(s1) / len(s2))
	}

	distance := levenshteinDistance(s1, s2)
	maxLen := max(len(s1), len(s2))
	if maxLen == 0 {
		return 0
	}
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	fuzzyLibScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		fuzzyLibScore = 60 - (rank * 40 / len(s1))
	}

	return max(levenshteinScore, fuzzyLibScore)
}

// levenshteinDistance computes edit distance using two rolling rows.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for j := 0; j <= len(r2); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
