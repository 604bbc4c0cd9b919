package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Hit is one search result with a short excerpt.
type Hit struct {
	Path    string
	Title   string
	Score   float64
	Excerpt string
}

// excerptLimit caps the snippet stored for each hit.
const excerptLimit = 600

// Index is a full-text index over the documents of one corpus root.
type Index struct {
	root  string
	index bleve.Index
}

// Open creates or reopens the index for a corpus root. The bleve directory
// lives next to the corpus at <root>/.corpus.bleve; a corrupted index is
// deleted and rebuilt rather than failing the open.
func Open(root string) (*Index, error) {
	indexPath := filepath.Join(root, ".corpus.bleve")

	idx, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create corpus index: %w", err)
		}
	} else if err != nil {
		if idx != nil {
			idx.Close()
		}
		if rmErr := os.RemoveAll(indexPath); rmErr != nil {
			return nil, fmt.Errorf("failed to remove corrupted index: %w", rmErr)
		}
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate corpus index: %w", err)
		}
	}

	return &Index{root: root, index: idx}, nil
}

// buildIndexMapping defines the document schema: exact-match metadata fields
// and analyzed text fields.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	pathField.Index = true
	docMapping.AddFieldMappingsAt("path", pathField)

	hashField := bleve.NewTextFieldMapping()
	hashField.Analyzer = keyword.Name
	hashField.Store = true
	hashField.Index = true
	docMapping.AddFieldMappingsAt("hash", hashField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = true
	titleField.Index = true
	docMapping.AddFieldMappingsAt("title", titleField)

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Analyzer = standard.Name
	bodyField.Store = true
	bodyField.Index = true
	docMapping.AddFieldMappingsAt("body", bodyField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// IndexDocument reads and indexes one document. The relative path is the
// document ID, so reindexing a changed file replaces the old entry.
func (ix *Index) IndexDocument(doc Document) error {
	body, err := os.ReadFile(filepath.Join(ix.root, doc.Path))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", doc.Path, err)
	}
	return ix.index.Index(doc.Path, map[string]interface{}{
		"path":  doc.Path,
		"hash":  doc.Hash,
		"title": doc.Title,
		"body":  string(body),
	})
}

// Delete removes a document from the index.
func (ix *Index) Delete(relPath string) error {
	return ix.index.Delete(relPath)
}

// Rebuild walks the corpus and indexes every document in one batch.
func (ix *Index) Rebuild(w *Walker) (int, error) {
	docs, err := w.Walk()
	if err != nil {
		return 0, err
	}

	batch := ix.index.NewBatch()
	for _, doc := range docs {
		body, err := os.ReadFile(filepath.Join(ix.root, doc.Path))
		if err != nil {
			continue
		}
		err = batch.Index(doc.Path, map[string]interface{}{
			"path":  doc.Path,
			"hash":  doc.Hash,
			"title": doc.Title,
			"body":  string(body),
		})
		if err != nil {
			return 0, fmt.Errorf("failed to batch %s: %w", doc.Path, err)
		}
	}
	if err := ix.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("corpus batch index failed: %w", err)
	}
	return len(docs), nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() (uint64, error) {
	return ix.index.DocCount()
}

// Search returns the top k documents matching the query, each with a body
// excerpt around the match.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 5
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = k
	req.Fields = []string{"path", "title", "body"}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("corpus search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Path: h.ID, Score: h.Score}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		if body, ok := h.Fields["body"].(string); ok {
			hit.Excerpt = excerptAround(body, query)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close closes the underlying bleve index.
func (ix *Index) Close() error {
	return ix.index.Close()
}

// excerptAround returns a window of the body centered on the first query
// term that appears in it, falling back to the document head.
func excerptAround(body, query string) string {
	lower := strings.ToLower(body)
	at := -1
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if i := strings.Index(lower, term); i >= 0 && (at < 0 || i < at) {
			at = i
		}
	}

	start := 0
	if at > excerptLimit/2 {
		start = at - excerptLimit/2
	}
	end := start + excerptLimit
	if end > len(body) {
		end = len(body)
	}

	excerpt := strings.TrimSpace(body[start:end])
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(body) {
		excerpt += "..."
	}
	return excerpt
}
