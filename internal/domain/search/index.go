// Package search maintains a full-text index over transactions using Bleve.
// The index is rebuilt from the store on startup and kept current by the
// transactions service on writes.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
)

// Document is the indexed projection of a transaction.
type Document struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

// Result is one search hit.
type Result struct {
	Document Document
	Score    float64
}

// Index wraps a Bleve index over transactions.
type Index struct {
	index bleve.Index
	mu    sync.RWMutex
	path  string
}

// NewIndex creates an index. Empty path means in-memory; otherwise the
// index is created or reopened at the given location.
func NewIndex(path string) (*Index, error) {
	indexMapping := buildIndexMapping()

	var index bleve.Index
	var err error
	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
		}
		index, err = bleve.New(path, indexMapping)
	} else {
		index, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &Index{index: index, path: path}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("date", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// IndexTransaction adds or replaces one document.
func (i *Index) IndexTransaction(doc Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.index.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to index transaction %s: %w", doc.ID, err)
	}
	return nil
}

// IndexBatch adds or replaces many documents in one batch.
func (i *Index) IndexBatch(docs []Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to batch transaction %s: %w", doc.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Remove deletes one document. Unknown IDs are a no-op.
func (i *Index) Remove(id uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.index.Delete(id.String()); err != nil {
		return fmt.Errorf("failed to remove transaction from index: %w", err)
	}
	return nil
}

// Clear drops every document. Used by the admin reset.
func (i *Index) Clear() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	count, err := i.index.DocCount()
	if err != nil {
		return fmt.Errorf("failed to count index docs: %w", err)
	}
	if count == 0 {
		return nil
	}

	query := bleve.NewMatchAllQuery()
	req := bleve.NewSearchRequest(query)
	req.Size = int(count)
	results, err := i.index.Search(req)
	if err != nil {
		return fmt.Errorf("failed to enumerate index docs: %w", err)
	}

	batch := i.index.NewBatch()
	for _, hit := range results.Hits {
		batch.Delete(hit.ID)
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return nil
}

// Search runs a fuzzy match query over descriptions and categories.
func (i *Index) Search(query string, limit int) ([]Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.Fields = []string{"*"}

	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		doc := Document{ID: hit.ID}
		if v, ok := hit.Fields["description"].(string); ok {
			doc.Description = v
		}
		if v, ok := hit.Fields["category"].(string); ok {
			doc.Category = v
		}
		if v, ok := hit.Fields["date"].(string); ok {
			doc.Date = v
		}
		hits = append(hits, Result{Document: doc, Score: hit.Score})
	}
	return hits, nil
}

// Close releases the underlying index.
func (i *Index) Close() error {
	return i.index.Close()
}
