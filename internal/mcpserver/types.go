package mcpserver

// SearchInput defines inputs for the tubeindex_search MCP tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"natural language search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return"`
}

// SearchResultItem is one matching subtitle chunk.
type SearchResultItem struct {
	Title      string  `json:"title"`
	VideoID    string  `json:"video_id"`
	Timestamp  string  `json:"timestamp"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	URL        string  `json:"url"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"`
	Score      float64 `json:"score"`
}

// SearchOutput is the output for tubeindex_search.
type SearchOutput struct {
	Query   string             `json:"query"`
	Count   int                `json:"count"`
	Results []SearchResultItem `json:"results"`
}

// StatusInput defines inputs for the tubeindex_status MCP tool.
type StatusInput struct{}

// StatusOutput describes what is indexed.
type StatusOutput struct {
	Indexed         bool   `json:"indexed"`
	Collection      string `json:"collection"`
	Model           string `json:"model,omitempty"`
	Dimension       int    `json:"dimension,omitempty"`
	Chunks          int    `json:"chunks"`
	Videos          int    `json:"videos"`
	KeywordDocs     uint64 `json:"keyword_docs"`
	DatabasePath    string `json:"database_path"`
	DatabaseSizeStr string `json:"database_size"`
	LastUpdated     string `json:"last_updated,omitempty"`
	Reason          string `json:"reason,omitempty"`
}
