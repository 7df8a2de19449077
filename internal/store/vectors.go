package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/DreamCats/tubeindex/internal/embedding"
)

// VectorStore provides vector storage and similarity search operations
type VectorStore struct {
	db          *DB
	collections *CollectionStore
}

// NewVectorStore creates a new vector store
func NewVectorStore(db *DB) *VectorStore {
	return &VectorStore{db: db, collections: NewCollectionStore(db)}
}

// Collections exposes collection management on the same database.
func (v *VectorStore) Collections() *CollectionStore {
	return v.collections
}

// Add inserts or replaces records in one transaction. All vectors must have
// the collection's dimension; an empty collection adopts the first one.
func (v *VectorStore) Add(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	col, err := v.collections.Get(ctx, collection)
	if err != nil {
		return err
	}
	if col == nil {
		return fmt.Errorf("collection not found: %s", collection)
	}

	dim := col.Dimension
	if dim == 0 {
		dim = len(records[0].Vector)
	}
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record %d has no id", i)
		}
		if len(r.Vector) == 0 {
			return fmt.Errorf("record %s has an empty vector", r.ID)
		}
		if len(r.Vector) != dim {
			return fmt.Errorf("record %s: vector dimension %d does not match collection dimension %d", r.ID, len(r.Vector), dim)
		}
	}

	tx, err := v.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if col.Dimension == 0 {
		if err := v.collections.setDimension(ctx, tx, collection, dim); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO embeddings (
			collection, id, video_id, title, chunk_id, start_time, end_time,
			duration, document, vector, dimension, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		m := r.Metadata
		if _, err := stmt.ExecContext(ctx,
			collection, r.ID, m.VideoID, m.Title, m.ChunkID, m.StartTime, m.EndTime,
			m.Duration, r.Document, vectorToBlob(r.Vector), len(r.Vector), now,
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Query returns the k records nearest to vector, ordered by ascending distance.
// Cosine collections report 1 - cosine similarity; l2 collections report the
// Euclidean distance.
func (v *VectorStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]Hit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if k <= 0 {
		return nil, nil
	}

	col, err := v.collections.Get(ctx, collection)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, fmt.Errorf("collection not found: %s", collection)
	}
	if col.Dimension != 0 && col.Dimension != len(vector) {
		return nil, fmt.Errorf("query dimension %d does not match collection dimension %d", len(vector), col.Dimension)
	}

	// Brute force scan; a channel's worth of chunks fits comfortably in memory.
	rows, err := v.db.sqlDB.QueryContext(ctx, `
		SELECT id, video_id, title, chunk_id, start_time, end_time, duration, document, vector
		FROM embeddings WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, k)
	for rows.Next() {
		var h Hit
		var blob []byte
		if err := rows.Scan(
			&h.ID, &h.Metadata.VideoID, &h.Metadata.Title, &h.Metadata.ChunkID,
			&h.Metadata.StartTime, &h.Metadata.EndTime, &h.Metadata.Duration,
			&h.Document, &blob,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		stored, err := blobToVector(blob)
		if err != nil || len(stored) != len(vector) {
			continue
		}

		h.Distance = Distance(col.Metric, vector, stored)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns the records with the given ids, in the order requested.
// Unknown ids are skipped.
func (v *VectorStore) Get(ctx context.Context, collection string, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := v.db.sqlDB.QueryContext(ctx, `
		SELECT id, video_id, title, chunk_id, start_time, end_time, duration, document, vector
		FROM embeddings WHERE collection = ? AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]Record, len(ids))
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	out := make([]Record, 0, len(byID))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Count returns the number of records in a collection
func (v *VectorStore) Count(ctx context.Context, collection string) (int, error) {
	var count int
	err := v.db.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embeddings WHERE collection = ?", collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return count, nil
}

// CountVideos returns the number of distinct videos in a collection
func (v *VectorStore) CountVideos(ctx context.Context, collection string) (int, error) {
	var count int
	err := v.db.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT video_id) FROM embeddings WHERE collection = ?", collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	var blob []byte
	if err := row.Scan(
		&r.ID, &r.Metadata.VideoID, &r.Metadata.Title, &r.Metadata.ChunkID,
		&r.Metadata.StartTime, &r.Metadata.EndTime, &r.Metadata.Duration,
		&r.Document, &blob,
	); err != nil {
		if err == sql.ErrNoRows {
			return r, err
		}
		return r, fmt.Errorf("failed to scan record: %w", err)
	}
	vec, err := blobToVector(blob)
	if err != nil {
		return r, fmt.Errorf("record %s: %w", r.ID, err)
	}
	r.Vector = vec
	return r, nil
}

// vectorToBlob converts a float32 slice to a little-endian binary blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:i*4+4], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to a float32 slice
func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob size %d is not a multiple of 4", len(blob))
	}

	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4 : i*4+4]))
	}
	return vector, nil
}

// Distance compares two vectors of equal length under metric.
func Distance(metric string, a, b []float32) float64 {
	if metric == MetricL2 {
		return float64(embedding.L2Distance(a, b))
	}
	return 1 - float64(embedding.Similarity(a, b))
}

// sortHits orders by ascending distance, breaking ties by id.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
}
