// Package textindex keeps a bleve full-text index of chunk documents used for
// keyword matching alongside vector search.
package textindex

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// Doc is the indexed form of one chunk.
type Doc struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title"`
	Document string `json:"document"`
}

// Hit is a keyword match. Score is bleve's relevance score, unbounded above.
type Hit struct {
	ID    string
	Score float64
}

// Index wraps a bleve index.
type Index struct {
	index bleve.Index
}

// Create removes anything at dir and creates an empty index there.
func Create(dir string) (*Index, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset text index dir: %w", err)
	}
	index, err := bleve.New(dir, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// Open opens an existing index.
func Open(dir string) (*Index, error) {
	index, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// OpenOrCreate opens the index at dir, creating it when missing.
func OpenOrCreate(dir string) (*Index, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return Create(dir)
	}
	return Open(dir)
}

// NewMemory returns an index that lives only in memory.
func NewMemory() (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// IndexDocs adds or replaces documents in a single batch.
func (i *Index) IndexDocs(ids []string, docs []Doc) error {
	if len(ids) != len(docs) {
		return fmt.Errorf("ids and docs length mismatch: %d vs %d", len(ids), len(docs))
	}
	batch := i.index.NewBatch()
	for n, id := range ids {
		if err := batch.Index(id, docs[n]); err != nil {
			return fmt.Errorf("index %s: %w", id, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("apply text index batch: %w", err)
	}
	return nil
}

// Search matches query against the document and title fields.
func (i *Index) Search(query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = 10
	}

	docQuery := bleve.NewMatchQuery(query)
	docQuery.SetField("document")
	docQuery.SetBoost(1.0)
	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)

	disjunction := bleve.NewDisjunctionQuery([]blevequery.Query{docQuery, titleQuery}...)
	req := bleve.NewSearchRequestOptions(disjunction, topK, 0, false)

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// buildIndexMapping uses the CJK analyzer so Korean text is split into
// bigrams; it still tokenizes Latin text on word boundaries.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = cjk.AnalyzerName
	indexMapping.DefaultField = "document"

	docMapping := bleve.NewDocumentMapping()

	documentField := bleve.NewTextFieldMapping()
	documentField.Store = false
	documentField.Index = true
	docMapping.AddFieldMappingsAt("document", documentField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Store = false
	titleField.Index = true
	docMapping.AddFieldMappingsAt("title", titleField)

	videoField := bleve.NewTextFieldMapping()
	videoField.Store = true
	videoField.Index = true
	videoField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("video_id", videoField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
