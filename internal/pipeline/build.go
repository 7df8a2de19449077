package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/DreamCats/tubeindex/internal/subtitle"
)

// DefaultBatchSize is the number of chunks embedded per request.
const DefaultBatchSize = 32

// ChunkIndexer stores embedded chunks.
type ChunkIndexer interface {
	Reset(ctx context.Context) error
	AddChunks(ctx context.Context, ids []string, chunks []subtitle.Chunk) error
}

// ChunkRecordID is the store id of the chunk at position i of the chunk list.
func ChunkRecordID(i int) string {
	return fmt.Sprintf("chunk_%d", i)
}

// BuildIndex resets the index and adds chunks in sequential batches. A batch
// that fails is recorded and the build moves on to the next one.
func BuildIndex(ctx context.Context, ix ChunkIndexer, chunks []subtitle.Chunk, batchSize int, progress ProgressReporter) (*Report, error) {
	report := newReport("build")
	report.Total = len(chunks)
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if err := ix.Reset(ctx); err != nil {
		return report, err
	}
	log.Printf("Embedding %d chunks in batches of %d", len(chunks), batchSize)

	batches := (len(chunks) + batchSize - 1) / batchSize
	progressStart(progress, batches)
	defer progressFinish(progress)

	for start := 0; start < len(chunks); start += batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		ids := make([]string, len(batch))
		for j := range batch {
			ids[j] = ChunkRecordID(start + j)
		}

		if err := ix.AddChunks(ctx, ids, batch); err != nil {
			log.Printf("Batch %s..%s failed: %v", ids[0], ids[len(ids)-1], err)
			report.Failed += len(batch)
			report.Failures = append(report.Failures, Failure{
				ID:     fmt.Sprintf("%s..%s", ids[0], ids[len(ids)-1]),
				Reason: err.Error(),
			})
		} else {
			report.Succeeded += len(batch)
		}
		progressIncrement(progress)
	}
	return report, nil
}
