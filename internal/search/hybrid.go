package search

import (
	"context"
	"fmt"

	"github.com/DreamCats/tubeindex/internal/store"
)

// candidateFactor widens each candidate list before the combined rerank.
const candidateFactor = 2

type combinedResult struct {
	result       Result
	vectorScore  float64
	keywordScore float64
}

// hybridSearch merges vector and keyword candidates and reranks them by
// (1-w)*similarity + w*keywordScore, where keywordScore is rank based.
func (s *Searcher) hybridSearch(ctx context.Context, query string, vector []float32, k int) ([]Result, error) {
	w := s.opts.KeywordWeight
	if w > 1 {
		w = 1
	}
	limit := k * candidateFactor

	hits, err := s.vectors.Query(ctx, s.opts.Collection, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	combined := make(map[string]*combinedResult, len(hits))
	for _, h := range hits {
		sim := 1 - h.Distance
		combined[h.ID] = &combinedResult{
			result:      newResult(h.ID, h.Metadata, h.Document, sim),
			vectorScore: sim,
		}
	}

	kHits, err := s.opts.Keywords.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	var missing []string
	for i, kh := range kHits {
		score := 1.0 - float64(i)/float64(len(kHits))
		if existing, ok := combined[kh.ID]; ok {
			existing.keywordScore = score
			continue
		}
		combined[kh.ID] = &combinedResult{keywordScore: score}
		missing = append(missing, kh.ID)
	}

	// Keyword-only candidates need their stored record for metadata and a
	// similarity measured against the query.
	if len(missing) > 0 {
		records, err := s.vectors.Get(ctx, s.opts.Collection, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to load keyword matches: %w", err)
		}
		for _, r := range records {
			c := combined[r.ID]
			sim := 0.0
			if len(r.Vector) == len(vector) {
				sim = 1 - store.Distance(s.opts.Metric, vector, r.Vector)
			}
			c.result = newResult(r.ID, r.Metadata, r.Document, sim)
			c.vectorScore = sim
		}
	}

	results := make([]Result, 0, len(combined))
	for _, c := range combined {
		if c.result.ID == "" {
			// In the keyword index but no longer in the store.
			continue
		}
		c.result.Score = (1-w)*c.vectorScore + w*c.keywordScore
		results = append(results, c.result)
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
