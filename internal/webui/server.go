// Package webui serves the single-page search UI and a small JSON API.
package webui

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DreamCats/tubeindex/internal/search"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(indexHTML))

// maxQueryLength bounds the query accepted from a request.
const maxQueryLength = 500

// Searcher runs a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]search.Result, error)
}

// Options configures the page.
type Options struct {
	Title            string
	Description      string
	Placeholder      string
	TopK             int
	SuggestedQueries []string
}

// Server renders search results.
type Server struct {
	searcher Searcher
	opts     Options
}

// New creates a server. TopK <= 0 defers to the searcher's default.
func New(searcher Searcher, opts Options) *Server {
	if opts.Title == "" {
		opts.Title = "YouTube Subtitle Search"
	}
	return &Server{searcher: searcher, opts: opts}
}

type pageData struct {
	Title       string
	Description string
	Placeholder string
	Query       string
	Results     []search.Result
	Error       string
	Suggestions []string
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleIndex)
	mux.HandleFunc("/api/search", s.HandleSearch)
	mux.HandleFunc("/healthz", s.HandleHealth)
	return mux
}

// HandleIndex renders the search page, running the search when q is set.
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := pageData{
		Title:       s.opts.Title,
		Description: s.opts.Description,
		Placeholder: s.opts.Placeholder,
		Query:       queryParam(r),
		Suggestions: s.opts.SuggestedQueries,
	}

	if data.Query != "" {
		start := time.Now()
		results, err := s.searcher.Search(r.Context(), data.Query, s.opts.TopK)
		if err != nil {
			log.Printf("Search failed for %q: %v", data.Query, err)
			data.Error = "Search failed: " + err.Error()
		} else {
			data.Results = results
			log.Printf("Search %q returned %d results in %s", data.Query, len(results), time.Since(start).Round(time.Millisecond))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("Failed to render page: %v", err)
	}
}

type searchResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []search.Result `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleSearch serves GET /api/search?q=&k=.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := queryParam(r)
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "q is required"})
		return
	}

	k := s.opts.TopK
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "k must be a positive integer"})
			return
		}
		k = n
	}

	results, err := s.searcher.Search(r.Context(), q, k)
	if err != nil {
		log.Printf("Search failed for %q: %v", q, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Count: len(results), Results: results})
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"time_utc": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Web UI listening on http://%s", listener.Addr())
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func queryParam(r *http.Request) string {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) > maxQueryLength {
		q = string([]rune(q)[:maxQueryLength])
	}
	return q
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
