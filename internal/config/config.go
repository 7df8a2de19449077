package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the file looked up in the working directory when no
// explicit -config path is given.
const DefaultFileName = "tubeindex.yaml"

// Config holds the application configuration
type Config struct {
	Channel   ChannelConfig   `yaml:"channel"`
	Data      DataConfig      `yaml:"data"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Fetch     FetchConfig     `yaml:"fetch,omitempty"`
}

// ChannelConfig describes the YouTube channel to ingest
type ChannelConfig struct {
	URL       string   `yaml:"url"`
	DaysLimit int      `yaml:"days_limit"`           // Only keep videos uploaded within this many days (0 = no limit)
	MaxVideos int      `yaml:"max_videos,omitempty"` // Passed to yt-dlp --playlist-end (0 = all)
	Languages []string `yaml:"languages"`            // Preferred subtitle languages, in order
}

// DataConfig holds the on-disk layout of intermediate artifacts
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// VideosFile is the channel metadata file written by the collect stage.
func (d DataConfig) VideosFile() string {
	return filepath.Join(d.Dir, "videos_metadata.json")
}

// SubtitlesDir holds one transcript file per video.
func (d DataConfig) SubtitlesDir() string {
	return filepath.Join(d.Dir, "subtitles")
}

// ChunksFile is the chunk list written by the chunk stage.
func (d DataConfig) ChunksFile() string {
	return filepath.Join(d.Dir, "chunks.json")
}

// ChunkingConfig holds subtitle chunking parameters
type ChunkingConfig struct {
	Duration float64 `yaml:"duration"` // Target chunk duration in seconds
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	Provider  string       `yaml:"provider"` // "local" | "openai"
	BatchSize int          `yaml:"batch_size"`
	Local     LocalConfig  `yaml:"local,omitempty"`
	OpenAI    OpenAIConfig `yaml:"openai,omitempty"`
}

// LocalConfig configures the on-device ONNX sentence embedding model
type LocalConfig struct {
	ModelName     string `yaml:"model_name,omitempty"` // Recorded with the collection
	ModelPath     string `yaml:"model_path"`
	TokenizerPath string `yaml:"tokenizer_path"`
	LibraryPath   string `yaml:"library_path,omitempty"` // onnxruntime shared library
	Dimensions    int    `yaml:"dimensions"`
	Pooling       string `yaml:"pooling,omitempty"` // "mean" | "cls"
	MaxSeqLen     int    `yaml:"max_seq_len,omitempty"`
}

// OpenAIConfig configures the hosted embedding API
type OpenAIConfig struct {
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

// DatabaseConfig holds vector store configuration
type DatabaseConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	Metric     string `yaml:"metric,omitempty"` // "cosine" | "l2"
}

// SearchConfig holds search-specific configuration
type SearchConfig struct {
	DefaultTopK   int      `yaml:"default_top_k,omitempty"`
	KeywordWeight float64  `yaml:"keyword_weight,omitempty"` // 0 disables hybrid ranking
	TextIndexDir  string   `yaml:"text_index_dir,omitempty"` // bleve index location
	EvalQueries   []string `yaml:"eval_queries,omitempty"`   // Used by "tubeindex eval"
	SnippetLength int      `yaml:"snippet_length,omitempty"` // Characters shown by CLI output
}

// ServerConfig holds web UI configuration
type ServerConfig struct {
	Addr             string   `yaml:"addr,omitempty"`
	TopK             int      `yaml:"top_k,omitempty"`
	Title            string   `yaml:"title,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	SuggestedQueries []string `yaml:"suggested_queries,omitempty"`
}

// FetchConfig controls outbound requests to YouTube
type FetchConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"`
	Burst             int           `yaml:"burst,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	MaxRetries        int           `yaml:"max_retries,omitempty"` // 0 disables retries
	YtDlpPath         string        `yaml:"yt_dlp_path,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load resolves the configuration without an explicit path.
// Lookup order: ./tubeindex.yaml, ~/.tubeindex/config/tubeindex.yaml, built-in defaults.
func Load() (*Config, error) {
	if _, err := os.Stat(DefaultFileName); err == nil {
		return LoadFromFile(DefaultFileName)
	}

	defaultPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(defaultPath); err == nil {
		return LoadFromFile(defaultPath)
	}

	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns ~/.tubeindex/config/tubeindex.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tubeindex", "config", DefaultFileName), nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			defaultPath, _ := DefaultPath()
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag\n"+
		"  3. Run 'tubeindex init' to write a template",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Channel.DaysLimit == 0 {
		c.Channel.DaysLimit = 365
	}
	if len(c.Channel.Languages) == 0 {
		c.Channel.Languages = []string{"ko"}
	}

	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	c.Data.Dir = expandPath(c.Data.Dir)

	if c.Chunking.Duration == 0 {
		c.Chunking.Duration = 120
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 32
	}
	local := &c.Embedding.Local
	if local.ModelName == "" {
		local.ModelName = "jhgan/ko-sbert-multitask"
	}
	if local.ModelPath == "" {
		local.ModelPath = filepath.Join("models", "ko-sbert-multitask", "model.onnx")
	}
	if local.TokenizerPath == "" {
		local.TokenizerPath = filepath.Join(filepath.Dir(local.ModelPath), "tokenizer.json")
	}
	local.ModelPath = expandPath(local.ModelPath)
	local.TokenizerPath = expandPath(local.TokenizerPath)
	local.LibraryPath = expandPath(local.LibraryPath)
	if local.Dimensions == 0 {
		local.Dimensions = 768
	}
	if local.Pooling == "" {
		local.Pooling = "mean"
	}
	if local.MaxSeqLen == 0 {
		local.MaxSeqLen = 128
	}
	if c.Embedding.OpenAI.Endpoint == "" {
		c.Embedding.OpenAI.Endpoint = "https://api.openai.com/v1"
	}
	if c.Embedding.OpenAI.Model == "" {
		c.Embedding.OpenAI.Model = "text-embedding-3-large"
	}

	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.Data.Dir, "tubeindex.db")
	}
	c.Database.Path = expandPath(c.Database.Path)
	if c.Database.Collection == "" {
		c.Database.Collection = "youtube_subtitles"
	}
	if c.Database.Metric == "" {
		c.Database.Metric = "cosine"
	}

	if c.Search.DefaultTopK == 0 {
		c.Search.DefaultTopK = 5
	}
	if c.Search.TextIndexDir == "" {
		c.Search.TextIndexDir = filepath.Join(c.Data.Dir, "text.bleve")
	}
	c.Search.TextIndexDir = expandPath(c.Search.TextIndexDir)
	if c.Search.SnippetLength == 0 {
		c.Search.SnippetLength = 200
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.Server.TopK == 0 {
		c.Server.TopK = 2
	}
	if c.Server.Title == "" {
		c.Server.Title = "YouTube Subtitle Search"
	}

	if c.Fetch.RequestsPerSecond == 0 {
		c.Fetch.RequestsPerSecond = 10
	}
	if c.Fetch.Burst == 0 {
		c.Fetch.Burst = 1
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.YtDlpPath == "" {
		c.Fetch.YtDlpPath = "yt-dlp"
	}
}

// applyEnv overrides file values with environment knobs.
// Malformed numeric values are ignored.
func (c *Config) applyEnv() {
	if v := os.Getenv("TUBEINDEX_CHUNK_DURATION"); v != "" {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			c.Chunking.Duration = d
		}
	}
	if v := os.Getenv("TUBEINDEX_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("TUBEINDEX_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			c.Server.TopK = k
		}
	}
	if v := os.Getenv("TUBEINDEX_DB_PATH"); v != "" {
		c.Database.Path = expandPath(v)
	}
	if v := os.Getenv("TUBEINDEX_COLLECTION"); v != "" {
		c.Database.Collection = v
	}
	if v := os.Getenv("TUBEINDEX_CHANNEL_URL"); v != "" {
		c.Channel.URL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.Embedding.OpenAI.APIKey == "" {
		c.Embedding.OpenAI.APIKey = v
	}
	if v := os.Getenv("ONNXRUNTIME_LIB"); v != "" && c.Embedding.Local.LibraryPath == "" {
		c.Embedding.Local.LibraryPath = v
	}
}

// Validate validates the configuration. Credentials are checked lazily when
// the embedding client is created, so offline stages work without them.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "local", "openai":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Chunking.Duration <= 0 {
		return fmt.Errorf("chunking.duration must be positive, got: %v", c.Chunking.Duration)
	}

	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 256 {
		return fmt.Errorf("batch_size must be between 1 and 256, got: %d", c.Embedding.BatchSize)
	}

	switch c.Embedding.Local.Pooling {
	case "mean", "cls":
	default:
		return fmt.Errorf("unsupported pooling: %s", c.Embedding.Local.Pooling)
	}

	switch c.Database.Metric {
	case "cosine", "l2":
	default:
		return fmt.Errorf("unsupported metric: %s", c.Database.Metric)
	}

	if c.Search.KeywordWeight < 0 || c.Search.KeywordWeight > 1 {
		return fmt.Errorf("keyword_weight must be between 0 and 1, got: %v", c.Search.KeywordWeight)
	}

	if c.Server.TopK <= 0 || c.Search.DefaultTopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}

	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got: %d", c.Fetch.MaxRetries)
	}

	if c.Channel.DaysLimit < 0 {
		return fmt.Errorf("days_limit must not be negative, got: %d", c.Channel.DaysLimit)
	}

	return nil
}

const defaultConfigTemplate = `# tubeindex configuration
#
# Default lookup: ./tubeindex.yaml, then $HOME/.tubeindex/config/tubeindex.yaml

channel:
  url: https://www.youtube.com/@yourchannel/videos
  days_limit: 365         # 0 keeps every video
  # max_videos: 200
  languages: [ko]

data:
  dir: data               # videos_metadata.json, subtitles/, chunks.json

chunking:
  duration: 120           # seconds per chunk

embedding:
  # Provider: "local" (ONNX sentence-transformer) or "openai"
  provider: local
  batch_size: 32
  local:
    model_name: jhgan/ko-sbert-multitask
    model_path: models/ko-sbert-multitask/model.onnx
    tokenizer_path: models/ko-sbert-multitask/tokenizer.json
    # library_path: /usr/local/lib/libonnxruntime.so
    dimensions: 768
    pooling: mean
  # openai:
  #   api_key: your-openai-api-key   # or OPENAI_API_KEY
  #   model: text-embedding-3-large

database:
  path: data/tubeindex.db
  collection: youtube_subtitles
  metric: cosine

search:
  default_top_k: 5
  keyword_weight: 0       # > 0 blends bleve keyword scores into ranking
  eval_queries:
    - "주식 투자 방법"
    - "경제 전망"

server:
  addr: ":8501"
  top_k: 2
  title: YouTube Subtitle Search
  suggested_queries:
    - "주식 투자 방법"
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
