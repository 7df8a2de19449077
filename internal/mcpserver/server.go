package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DreamCats/tubeindex/internal/indexer"
	"github.com/DreamCats/tubeindex/internal/search"
)

// Searcher runs a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]search.Result, error)
}

// StatsProvider reports index statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (*indexer.Stats, error)
}

// Server exposes tubeindex search via MCP stdio.
type Server struct {
	searcher Searcher
	stats    StatsProvider
	version  string
}

// New creates a new MCP server wrapper.
func New(searcher Searcher, stats StatsProvider, version string) *Server {
	return &Server{searcher: searcher, stats: stats, version: version}
}

// Run starts the MCP stdio server.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tubeindex",
		Title:   "TubeIndex",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "tubeindex_search",
		Description: `Search the indexed YouTube channel subtitles.

Returns the best matching subtitle chunks with the video title, the timestamp
where the chunk starts, a link that opens the video at that point, and the
chunk text.`,
	}, s.searchTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tubeindex_status",
		Description: "Report how many chunks and videos are indexed and which embedding model built the index.",
	}, s.statusTool)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) searchTool(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	if input.TopK < 0 {
		return nil, SearchOutput{}, fmt.Errorf("top_k must be positive")
	}

	results, err := s.searcher.Search(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	items := make([]SearchResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, SearchResultItem{
			Title:      r.Title,
			VideoID:    r.VideoID,
			Timestamp:  r.Timestamp,
			StartTime:  r.StartTime,
			EndTime:    r.EndTime,
			URL:        r.URL,
			Snippet:    r.Snippet,
			Similarity: r.Similarity,
			Score:      r.Score,
		})
	}

	return nil, SearchOutput{
		Query:   input.Query,
		Count:   len(items),
		Results: items,
	}, nil
}

func (s *Server) statusTool(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	st, err := s.stats.Stats(ctx)
	if err != nil {
		return nil, StatusOutput{Reason: fmt.Sprintf("Failed to read index: %v", err)}, nil
	}

	output := StatusOutput{
		Chunks:          st.Records,
		Videos:          st.Videos,
		KeywordDocs:     st.TextDocs,
		DatabasePath:    st.DatabasePath,
		DatabaseSizeStr: formatBytes(st.DatabaseSize),
	}
	if st.Collection == nil {
		output.Reason = "Collection does not exist. Run 'tubeindex build' to create it."
		return nil, output, nil
	}

	output.Collection = st.Collection.Name
	output.Model = st.Collection.Model
	output.Dimension = st.Collection.Dimension
	output.LastUpdated = st.Collection.UpdatedAt.Format(time.RFC3339)
	output.Indexed = st.Records > 0
	if !output.Indexed {
		output.Reason = "Collection is empty. Run 'tubeindex build' to index chunks."
	}
	return nil, output, nil
}

// formatBytes formats bytes to human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
