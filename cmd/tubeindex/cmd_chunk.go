package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/tubeindex/internal/config"
	"github.com/DreamCats/tubeindex/internal/pipeline"
	"github.com/DreamCats/tubeindex/internal/subtitle"
)

// handleChunk implements the chunk subcommand
func handleChunk(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("chunk", flag.ExitOnError)
	dir := fs.String("dir", cfg.Data.SubtitlesDir(), "Directory containing transcript files")
	pattern := fs.String("pattern", pipeline.DefaultTranscriptPattern, "Glob selecting transcript files (doublestar syntax)")
	out := fs.String("out", cfg.Data.ChunksFile(), "Output chunk list file")
	duration := fs.Float64("duration", cfg.Chunking.Duration, "Target chunk duration in seconds")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex chunk [options]

DESCRIPTION:
    Group transcript fragments into time-window chunks and write them to
    a single JSON file.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # 60 second chunks
    tubeindex chunk -duration 60

    # Only transcripts in nested folders
    tubeindex chunk -pattern "**/*.json"
`)
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if *duration <= 0 {
		log.Fatalf("Chunk duration must be positive, got: %v", *duration)
	}

	progress := pipeline.NewProgress(pipeline.DefaultProgressEnabled(), "Chunking")
	chunks, report, err := pipeline.ChunkSubtitles(*dir, *pattern, *out, *duration, progress)
	if err != nil {
		log.Fatalf("Chunking failed: %v", err)
	}

	stats := subtitle.Stats(chunks)
	fmt.Println()
	report.PrintSummary(os.Stdout)
	fmt.Println("\n📊 Chunk Statistics:")
	fmt.Printf("   Chunks:         %6d\n", stats.Count)
	fmt.Printf("   Avg duration:   %6.1fs\n", stats.AverageDuration)
	fmt.Printf("   Avg characters: %6.0f\n", stats.AverageChars)
	fmt.Printf("\nWrote %s\n", *out)
}
