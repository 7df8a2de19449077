// Package indexer owns the resources shared by ingestion and search: the
// database handle, the vector store, the keyword index and the embedding
// service. Create one with NewIndexer and release it with Close.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/DreamCats/tubeindex/internal/config"
	"github.com/DreamCats/tubeindex/internal/embedding"
	"github.com/DreamCats/tubeindex/internal/search"
	"github.com/DreamCats/tubeindex/internal/store"
	"github.com/DreamCats/tubeindex/internal/subtitle"
	"github.com/DreamCats/tubeindex/internal/textindex"
)

const collectionDescription = "YouTube subtitle chunks"

// Embedder is the embedding surface the indexer needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
	Close() error
}

// Indexer handles writing chunks and building searchers over them
type Indexer struct {
	cfg          *config.Config
	db           *store.DB
	vectorStore  *store.VectorStore
	textIndex    *textindex.Index
	textIndexDir string
	embedService Embedder
}

// NewIndexer opens the database, the keyword index (when configured) and
// the embedding service.
func NewIndexer(cfg *config.Config) (*Indexer, error) {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	embedService, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	var text *textindex.Index
	if dir := cfg.Search.TextIndexDir; dir != "" {
		text, err = textindex.OpenOrCreate(dir)
		if err != nil {
			embedService.Close()
			db.Close()
			return nil, fmt.Errorf("failed to open text index: %w", err)
		}
	}

	return &Indexer{
		cfg:          cfg,
		db:           db,
		vectorStore:  store.NewVectorStore(db),
		textIndex:    text,
		textIndexDir: cfg.Search.TextIndexDir,
		embedService: embedService,
	}, nil
}

// NewWithComponents assembles an indexer from already opened parts. text may
// be nil; an in-memory text index is recreated in memory on Reset.
func NewWithComponents(cfg *config.Config, db *store.DB, embedder Embedder, text *textindex.Index) *Indexer {
	return &Indexer{
		cfg:          cfg,
		db:           db,
		vectorStore:  store.NewVectorStore(db),
		textIndex:    text,
		embedService: embedder,
	}
}

// Collection returns the configured collection name.
func (idx *Indexer) Collection() string {
	return idx.cfg.Database.Collection
}

// Reset drops and recreates the collection and the keyword index.
func (idx *Indexer) Reset(ctx context.Context) error {
	col := &store.Collection{
		Name:        idx.Collection(),
		Description: collectionDescription,
		Metric:      idx.cfg.Database.Metric,
		Model:       idx.embedService.Model(),
	}
	if err := idx.vectorStore.Collections().Reset(ctx, col); err != nil {
		return fmt.Errorf("failed to reset collection: %w", err)
	}

	if idx.textIndex == nil {
		return nil
	}
	if err := idx.textIndex.Close(); err != nil {
		log.Printf("Warning: failed to close text index: %v", err)
	}
	var (
		text *textindex.Index
		err  error
	)
	if idx.textIndexDir != "" {
		text, err = textindex.Create(idx.textIndexDir)
	} else {
		text, err = textindex.NewMemory()
	}
	if err != nil {
		idx.textIndex = nil
		return fmt.Errorf("failed to reset text index: %w", err)
	}
	idx.textIndex = text
	return nil
}

// EnsureCollection creates the collection if it does not exist yet.
func (idx *Indexer) EnsureCollection(ctx context.Context) error {
	col, err := idx.vectorStore.Collections().Get(ctx, idx.Collection())
	if err != nil {
		return err
	}
	if col != nil {
		return nil
	}
	return idx.vectorStore.Collections().Create(ctx, &store.Collection{
		Name:        idx.Collection(),
		Description: collectionDescription,
		Metric:      idx.cfg.Database.Metric,
		Model:       idx.embedService.Model(),
	})
}

// AddChunks embeds each chunk's full text and stores it under the matching
// id. The stored document is the chunk text without the title prefix.
func (idx *Indexer) AddChunks(ctx context.Context, ids []string, chunks []subtitle.Chunk) error {
	if len(ids) != len(chunks) {
		return fmt.Errorf("ids and chunks length mismatch: %d vs %d", len(ids), len(chunks))
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.FullText
		if texts[i] == "" {
			texts[i] = subtitle.FullText(c.Title, c.Text)
		}
	}

	vectors, err := idx.embedService.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(chunks))
	}

	records := make([]store.Record, len(chunks))
	for i, c := range chunks {
		records[i] = store.Record{
			ID:     ids[i],
			Vector: vectors[i],
			Metadata: store.Metadata{
				VideoID:   c.VideoID,
				Title:     c.Title,
				ChunkID:   c.ChunkID,
				StartTime: c.StartTime,
				EndTime:   c.EndTime,
				Duration:  c.Duration,
			},
			Document: c.Text,
		}
	}
	if err := idx.vectorStore.Add(ctx, idx.Collection(), records); err != nil {
		return fmt.Errorf("failed to store embeddings: %w", err)
	}

	if idx.textIndex != nil {
		docs := make([]textindex.Doc, len(chunks))
		for i, c := range chunks {
			docs[i] = textindex.Doc{VideoID: c.VideoID, Title: c.Title, Document: c.Text}
		}
		if err := idx.textIndex.IndexDocs(ids, docs); err != nil {
			return fmt.Errorf("failed to index chunk text: %w", err)
		}
	}
	return nil
}

// Searcher returns a searcher bound to this indexer's handles.
func (idx *Indexer) Searcher() *search.Searcher {
	opts := search.Options{
		Collection:    idx.Collection(),
		Metric:        idx.cfg.Database.Metric,
		DefaultTopK:   idx.cfg.Search.DefaultTopK,
		KeywordWeight: idx.cfg.Search.KeywordWeight,
	}
	if idx.textIndex != nil {
		opts.Keywords = idx.textIndex
	}
	return search.New(idx.embedService, idx.vectorStore, opts)
}

// Stats summarizes what is indexed.
type Stats struct {
	Collection   *store.Collection
	Records      int
	Videos       int
	TextDocs     uint64
	DatabasePath string
	DatabaseSize int64
}

// Stats reports counts for the configured collection.
func (idx *Indexer) Stats(ctx context.Context) (*Stats, error) {
	col, err := idx.vectorStore.Collections().Get(ctx, idx.Collection())
	if err != nil {
		return nil, err
	}
	st := &Stats{Collection: col, DatabasePath: idx.db.Path()}

	if st.Records, err = idx.vectorStore.Count(ctx, idx.Collection()); err != nil {
		return nil, err
	}
	if st.Videos, err = idx.vectorStore.CountVideos(ctx, idx.Collection()); err != nil {
		return nil, err
	}
	dbStats, err := idx.db.Stats(ctx)
	if err != nil {
		return nil, err
	}
	st.DatabaseSize = dbStats.SizeBytes

	if idx.textIndex != nil {
		if st.TextDocs, err = idx.textIndex.Count(); err != nil {
			return nil, fmt.Errorf("failed to count text index: %w", err)
		}
	}
	return st, nil
}

// Close releases the embedding service, the text index and the database.
func (idx *Indexer) Close() error {
	var errs []error
	if idx.embedService != nil {
		errs = append(errs, idx.embedService.Close())
	}
	if idx.textIndex != nil {
		errs = append(errs, idx.textIndex.Close())
	}
	if idx.db != nil {
		errs = append(errs, idx.db.Close())
	}
	return errors.Join(errs...)
}
