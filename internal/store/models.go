package store

import "time"

// Distance metrics supported by a collection.
const (
	MetricCosine = "cosine"
	MetricL2     = "l2"
)

// Collection is a named set of vectors sharing one dimension and metric.
type Collection struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Metric      string    `json:"metric"`
	Dimension   int       `json:"dimension"` // 0 until the first record is added
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Metadata is stored alongside every vector.
type Metadata struct {
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title"`
	ChunkID   int     `json:"chunk_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
}

// Record is one stored item: an id, its vector, metadata and document text.
type Record struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"-"`
	Metadata Metadata  `json:"metadata"`
	Document string    `json:"document"`
}

// Hit is a query result. Smaller Distance means more similar.
type Hit struct {
	ID       string   `json:"id"`
	Document string   `json:"document"`
	Metadata Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}
