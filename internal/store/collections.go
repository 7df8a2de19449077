package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CollectionStore manages collection records.
type CollectionStore struct {
	db *DB
}

// NewCollectionStore creates a new collection store.
func NewCollectionStore(db *DB) *CollectionStore {
	return &CollectionStore{db: db}
}

// Create inserts a collection. It fails if the name is taken.
func (c *CollectionStore) Create(ctx context.Context, col *Collection) error {
	if col == nil || col.Name == "" {
		return fmt.Errorf("collection name is required")
	}
	if col.Metric == "" {
		col.Metric = MetricCosine
	}
	if col.Metric != MetricCosine && col.Metric != MetricL2 {
		return fmt.Errorf("unsupported metric: %s", col.Metric)
	}

	now := time.Now().UTC()
	col.CreatedAt = now
	col.UpdatedAt = now

	_, err := c.db.sqlDB.ExecContext(ctx, `
		INSERT INTO collections (name, description, metric, dimension, model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, col.Name, col.Description, col.Metric, col.Dimension, col.Model,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", col.Name, err)
	}
	return nil
}

// Get returns the named collection, or nil if it does not exist.
func (c *CollectionStore) Get(ctx context.Context, name string) (*Collection, error) {
	row := c.db.sqlDB.QueryRowContext(ctx, `
		SELECT name, description, metric, dimension, model, created_at, updated_at
		FROM collections WHERE name = ?
	`, name)

	col, err := scanCollection(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return col, nil
}

// List returns every collection ordered by name.
func (c *CollectionStore) List(ctx context.Context) ([]*Collection, error) {
	rows, err := c.db.sqlDB.QueryContext(ctx, `
		SELECT name, description, metric, dimension, model, created_at, updated_at
		FROM collections ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var out []*Collection
	for rows.Next() {
		col, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// Delete removes a collection and all of its vectors.
func (c *CollectionStore) Delete(ctx context.Context, name string) error {
	tx, err := c.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE collection = ?", name); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return tx.Commit()
}

// Reset drops the collection if present and creates it again empty.
func (c *CollectionStore) Reset(ctx context.Context, col *Collection) error {
	if err := c.Delete(ctx, col.Name); err != nil {
		return err
	}
	return c.Create(ctx, col)
}

// setDimension records the vector dimension on first insert.
func (c *CollectionStore) setDimension(ctx context.Context, tx *sql.Tx, name string, dim int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE collections SET dimension = ?, updated_at = ? WHERE name = ?",
		dim, time.Now().UTC().Format(time.RFC3339Nano), name)
	if err != nil {
		return fmt.Errorf("failed to set collection dimension: %w", err)
	}
	return nil
}

func scanCollection(row rowScanner) (*Collection, error) {
	var col Collection
	var createdAtValue any
	var updatedAtValue any

	if err := row.Scan(
		&col.Name, &col.Description, &col.Metric, &col.Dimension, &col.Model,
		&createdAtValue, &updatedAtValue,
	); err != nil {
		return nil, err
	}

	createdAt, err := parseTimeValue(createdAtValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	col.CreatedAt = createdAt

	updatedAt, err := parseTimeValue(updatedAtValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	col.UpdatedAt = updatedAt

	return &col, nil
}
