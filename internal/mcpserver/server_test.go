package mcpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/tubeindex/internal/indexer"
	"github.com/DreamCats/tubeindex/internal/search"
	"github.com/DreamCats/tubeindex/internal/store"
)

type stubSearcher struct {
	gotK    int
	results []search.Result
	err     error
}

func (s *stubSearcher) Search(_ context.Context, _ string, k int) ([]search.Result, error) {
	s.gotK = k
	return s.results, s.err
}

type stubStats struct {
	stats *indexer.Stats
	err   error
}

func (s *stubStats) Stats(context.Context) (*indexer.Stats, error) {
	return s.stats, s.err
}

func TestSearchTool(t *testing.T) {
	searcher := &stubSearcher{results: []search.Result{{
		Title:      "ISA 계좌",
		VideoID:    "abc",
		Timestamp:  "02:05",
		StartTime:  125,
		URL:        "https://www.youtube.com/watch?v=abc&t=125s",
		Snippet:    "ISA 계좌를 활용하는 방법",
		Similarity: 0.8,
		Score:      0.8,
	}}}
	s := New(searcher, &stubStats{}, "test")

	_, out, err := s.searchTool(context.Background(), nil, SearchInput{Query: "ISA", TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, searcher.gotK)
	assert.Equal(t, "ISA", out.Query)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "02:05", out.Results[0].Timestamp)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc&t=125s", out.Results[0].URL)
}

func TestSearchToolErrors(t *testing.T) {
	s := New(&stubSearcher{err: errors.New("boom")}, &stubStats{}, "test")

	_, _, err := s.searchTool(context.Background(), nil, SearchInput{})
	assert.Error(t, err)

	_, _, err = s.searchTool(context.Background(), nil, SearchInput{Query: "q", TopK: -1})
	assert.Error(t, err)

	_, _, err = s.searchTool(context.Background(), nil, SearchInput{Query: "q"})
	assert.EqualError(t, err, "boom")
}

func TestStatusTool(t *testing.T) {
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := New(&stubSearcher{}, &stubStats{stats: &indexer.Stats{
		Collection:   &store.Collection{Name: "youtube_subtitles", Model: "m", Dimension: 768, UpdatedAt: updated},
		Records:      42,
		Videos:       3,
		DatabasePath: "/tmp/x.db",
		DatabaseSize: 2048,
	}}, "test")

	_, out, err := s.statusTool(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.True(t, out.Indexed)
	assert.Equal(t, 42, out.Chunks)
	assert.Equal(t, 768, out.Dimension)
	assert.Equal(t, "2.0 KB", out.DatabaseSizeStr)
	assert.Equal(t, "2024-05-01T10:00:00Z", out.LastUpdated)
	assert.Empty(t, out.Reason)
}

func TestStatusToolMissingCollection(t *testing.T) {
	s := New(&stubSearcher{}, &stubStats{stats: &indexer.Stats{}}, "test")
	_, out, err := s.statusTool(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.False(t, out.Indexed)
	assert.Contains(t, out.Reason, "tubeindex build")

	s = New(&stubSearcher{}, &stubStats{err: errors.New("locked")}, "test")
	_, out, err = s.statusTool(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.Contains(t, out.Reason, "locked")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}
