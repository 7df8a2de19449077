// Package search turns a free-text query into ranked subtitle chunks with
// deep links into the source videos.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DreamCats/tubeindex/internal/store"
	"github.com/DreamCats/tubeindex/internal/subtitle"
	"github.com/DreamCats/tubeindex/internal/textindex"
	"github.com/DreamCats/tubeindex/internal/youtube"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query is empty")

// DefaultTopK is used when neither the caller nor the options set k.
const DefaultTopK = 5

// Embedder embeds a query.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorQuerier is the part of the vector store the searcher needs.
type VectorQuerier interface {
	Query(ctx context.Context, collection string, vector []float32, k int) ([]store.Hit, error)
	Get(ctx context.Context, collection string, ids []string) ([]store.Record, error)
}

// KeywordSearcher is the part of the keyword index the searcher needs.
type KeywordSearcher interface {
	Search(query string, topK int) ([]textindex.Hit, error)
}

// Result is one search hit ready for display.
type Result struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	VideoID    string  `json:"video_id"`
	ChunkID    int     `json:"chunk_id"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Timestamp  string  `json:"timestamp"`
	URL        string  `json:"url"`
	Thumbnail  string  `json:"thumbnail"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"`
	// Score is the ranking score; it equals Similarity unless keyword
	// matching is enabled.
	Score float64 `json:"score"`
}

// Options configures a Searcher.
type Options struct {
	Collection    string
	Metric        string
	DefaultTopK   int
	KeywordWeight float64 // 0 disables keyword matching
	Keywords      KeywordSearcher
}

// Searcher runs queries against one collection.
type Searcher struct {
	embedder Embedder
	vectors  VectorQuerier
	opts     Options
}

// New creates a searcher.
func New(embedder Embedder, vectors VectorQuerier, opts Options) *Searcher {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = DefaultTopK
	}
	if opts.Metric == "" {
		opts.Metric = store.MetricCosine
	}
	if opts.Keywords == nil {
		opts.KeywordWeight = 0
	}
	return &Searcher{embedder: embedder, vectors: vectors, opts: opts}
}

// DefaultTopK returns the k used when Search is called with k <= 0.
func (s *Searcher) DefaultTopK() int {
	return s.opts.DefaultTopK
}

// Search returns up to k results, best first.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = s.opts.DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if s.opts.KeywordWeight > 0 {
		return s.hybridSearch(ctx, query, vector, k)
	}

	hits, err := s.vectors.Query(ctx, s.opts.Collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		r := newResult(h.ID, h.Metadata, h.Document, 1-h.Distance)
		results = append(results, r)
	}
	return results, nil
}

func newResult(id string, m store.Metadata, document string, similarity float64) Result {
	return Result{
		ID:         id,
		Title:      m.Title,
		VideoID:    m.VideoID,
		ChunkID:    m.ChunkID,
		StartTime:  m.StartTime,
		EndTime:    m.EndTime,
		Timestamp:  subtitle.FormatTimestamp(m.StartTime),
		URL:        youtube.DeepLink(m.VideoID, m.StartTime),
		Thumbnail:  youtube.ThumbnailURL(m.VideoID),
		Snippet:    document,
		Similarity: similarity,
		Score:      similarity,
	}
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}
