package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/tubeindex/internal/search"
)

type stubSearcher struct {
	gotQuery string
	gotK     int
	results  []search.Result
	err      error
}

func (s *stubSearcher) Search(_ context.Context, q string, k int) ([]search.Result, error) {
	s.gotQuery = q
	s.gotK = k
	return s.results, s.err
}

func sampleResults() []search.Result {
	return []search.Result{{
		ID:         "chunk_0",
		Title:      "ISA <계좌> 활용법",
		VideoID:    "abc",
		Timestamp:  "01:15",
		StartTime:  75,
		URL:        "https://www.youtube.com/watch?v=abc&t=75s",
		Thumbnail:  "https://img.youtube.com/vi/abc/hqdefault.jpg",
		Snippet:    "text",
		Similarity: 0.9,
		Score:      0.9,
	}}
}

func TestIndexWithoutQuery(t *testing.T) {
	searcher := &stubSearcher{}
	s := New(searcher, Options{Title: "Channel Search", SuggestedQueries: []string{"사회초년생 투자"}})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Channel Search</title>")
	assert.Contains(t, body, "사회초년생 투자")
	assert.Empty(t, searcher.gotQuery)
}

func TestIndexRendersResults(t *testing.T) {
	searcher := &stubSearcher{results: sampleResults()}
	s := New(searcher, Options{TopK: 2})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?q=ISA+%EA%B3%84%EC%A2%8C", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ISA 계좌", searcher.gotQuery)
	assert.Equal(t, 2, searcher.gotK)

	body := rec.Body.String()
	assert.Contains(t, body, "1. ISA &lt;계좌&gt; 활용법")
	assert.Contains(t, body, "from 01:15")
	assert.Contains(t, body, "https://www.youtube.com/watch?v=abc&amp;t=75s")
	assert.Contains(t, body, "hqdefault.jpg")
}

func TestIndexShowsSearchError(t *testing.T) {
	s := New(&stubSearcher{err: errors.New("embedding backend down")}, Options{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?q=x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Search failed: embedding backend down")
}

func TestIndexUnknownPath(t *testing.T) {
	s := New(&stubSearcher{}, Options{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPISearch(t *testing.T) {
	searcher := &stubSearcher{results: sampleResults()}
	s := New(searcher, Options{TopK: 2})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=isa&k=4", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, searcher.gotK)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "isa", resp.Query)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc&t=75s", resp.Results[0].URL)
	assert.InDelta(t, 0.9, resp.Results[0].Similarity, 1e-9)
}

func TestAPISearchEmptyResults(t *testing.T) {
	s := New(&stubSearcher{}, Options{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=none", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"query":"none","count":0,"results":[]}`, rec.Body.String())
}

func TestAPISearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		err    error
		status int
	}{
		{"missing query", "/api/search", nil, http.StatusBadRequest},
		{"bad k", "/api/search?q=x&k=abc", nil, http.StatusBadRequest},
		{"zero k", "/api/search?q=x&k=0", nil, http.StatusBadRequest},
		{"search failure", "/api/search?q=x", errors.New("store closed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&stubSearcher{err: tt.err}, Options{})
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	s := New(&stubSearcher{}, Options{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search?q=x", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	s := New(&stubSearcher{}, Options{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestServeStopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	s := New(&stubSearcher{}, Options{})
	go func() { done <- s.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
