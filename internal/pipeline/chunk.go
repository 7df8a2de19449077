package pipeline

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DreamCats/tubeindex/internal/subtitle"
)

// DefaultTranscriptPattern matches the transcript files in a subtitles dir.
const DefaultTranscriptPattern = "*.json"

// ChunkSubtitles chunks every transcript in dir matching pattern and writes
// the combined chunk list to outFile. A transcript that fails to decode is
// recorded and skipped.
func ChunkSubtitles(dir, pattern, outFile string, duration float64, progress ProgressReporter) ([]subtitle.Chunk, *Report, error) {
	report := newReport("chunk")
	if pattern == "" {
		pattern = DefaultTranscriptPattern
	}
	if duration <= 0 {
		duration = subtitle.DefaultChunkDuration
	}

	files, err := transcriptFiles(dir, pattern)
	if err != nil {
		return nil, report, err
	}
	report.Total = len(files)
	if len(files) == 0 {
		log.Printf("No transcript files in %s", dir)
	}
	log.Printf("Chunking %d transcript files (chunk duration %.0fs)", len(files), duration)

	progressStart(progress, len(files))
	all := make([]subtitle.Chunk, 0)
	for _, rel := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		t, err := subtitle.ReadTranscript(p)
		if err != nil {
			log.Printf("Skipping %s: %v", rel, err)
			report.fail(strings.TrimSuffix(path.Base(rel), ".json"), "", err)
			progressIncrement(progress)
			continue
		}
		all = append(all, subtitle.ChunkTranscript(t, duration)...)
		report.success()
		progressIncrement(progress)
	}
	progressFinish(progress)

	if err := subtitle.WriteChunks(outFile, all); err != nil {
		return all, report, err
	}

	stats := subtitle.Stats(all)
	log.Printf("Wrote %d chunks to %s (avg %.1fs, %.0f chars per chunk)",
		stats.Count, outFile, stats.AverageDuration, stats.AverageChars)
	return all, report, nil
}

// transcriptFiles returns the slash-separated paths under dir matching
// pattern, sorted, without the failure log.
func transcriptFiles(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("subtitles directory not found: %s", dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	files := matches[:0]
	for _, m := range matches {
		if path.Base(m) == FailedVideosFile {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}
