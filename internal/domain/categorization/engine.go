package categorization

import (
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/granadev/grana/internal/domain/import/normalizer"
)

// Engine matches descriptions against ordered keyword groups using the
// Aho-Corasick algorithm: one pass through the text finds every keyword
// regardless of how many are loaded. Precedence is by group order, not by
// match position, so rule priority stays auditable in the group table.
type Engine struct {
	matcher   *ahocorasick.Matcher
	keywords  []string
	metadata  [][]keywordMeta
	streaming *ahocorasick.Matcher
	mu        sync.RWMutex
}

type keywordMeta struct {
	keyword  string
	category Category
	order    int // group position, lower wins
}

// NewEngine builds an engine from the given groups. Passing nil loads the
// default rule table.
func NewEngine(groups []RuleGroup) *Engine {
	if groups == nil {
		groups = defaultRuleGroups()
	}
	e := &Engine{}
	e.Build(groups)
	return e
}

// Build reconstructs the matcher from the groups. Safe to call while other
// goroutines match; they see either the old or the new table.
func (e *Engine) Build(groups []RuleGroup) {
	keywordToIndex := make(map[string]int)
	var keywords []string
	var metadata [][]keywordMeta

	for order, group := range groups {
		for _, kw := range group.Keywords {
			folded := normalizer.Fold(kw)
			if folded == "" {
				continue
			}

			meta := keywordMeta{keyword: kw, category: group.Category, order: order}
			if idx, ok := keywordToIndex[folded]; ok {
				metadata[idx] = append(metadata[idx], meta)
			} else {
				keywordToIndex[folded] = len(keywords)
				keywords = append(keywords, folded)
				metadata = append(metadata, []keywordMeta{meta})
			}
		}
	}

	var matcher *ahocorasick.Matcher
	if len(keywords) > 0 {
		matcher = ahocorasick.NewStringMatcher(keywords)
	}

	streamingSet := make([]string, 0, len(streamingKeywords()))
	for _, kw := range streamingKeywords() {
		streamingSet = append(streamingSet, normalizer.Fold(kw))
	}

	e.mu.Lock()
	e.matcher = matcher
	e.keywords = keywords
	e.metadata = metadata
	e.streaming = ahocorasick.NewStringMatcher(streamingSet)
	e.mu.Unlock()
}

// Match classifies one description. The earliest group with any matching
// keyword wins; a housing match that also hits a streaming keyword is
// redirected to Lazer. Returns false when nothing matches.
func (e *Engine) Match(description string) (Category, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.matchLocked(normalizer.Fold(description))
}

// MatchBatch classifies many descriptions under a single read lock.
func (e *Engine) MatchBatch(descriptions []string) []Category {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]Category, len(descriptions))
	for i, desc := range descriptions {
		category, ok := e.matchLocked(normalizer.Fold(desc))
		if !ok {
			category = CategoryOther
		}
		results[i] = category
	}
	return results
}

func (e *Engine) matchLocked(folded string) (Category, bool) {
	if e.matcher == nil || len(e.keywords) == 0 {
		return "", false
	}

	matches := e.matcher.MatchThreadSafe([]byte(folded))
	if len(matches) == 0 {
		return "", false
	}

	var best *keywordMeta
	for _, idx := range matches {
		if idx < 0 || idx >= len(e.metadata) {
			continue
		}
		for i := range e.metadata[idx] {
			meta := &e.metadata[idx][i]
			if best == nil || meta.order < best.order {
				best = meta
			}
		}
	}
	if best == nil {
		return "", false
	}

	category := best.category
	if category == CategoryHousing && len(e.streaming.MatchThreadSafe([]byte(folded))) > 0 {
		category = CategoryLeisure
	}

	return category, true
}

// KeywordCount returns the number of distinct keywords loaded.
func (e *Engine) KeywordCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.keywords)
}

// IsEmpty reports whether the engine has no keywords loaded.
func (e *Engine) IsEmpty() bool {
	return e.KeywordCount() == 0
}
