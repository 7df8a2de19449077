package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/DreamCats/tubeindex/cmd/tubeindex/internal"
	"github.com/DreamCats/tubeindex/internal/config"
	"github.com/DreamCats/tubeindex/internal/indexer"
	"github.com/DreamCats/tubeindex/internal/pipeline"
	"github.com/DreamCats/tubeindex/internal/subtitle"
)

// handleBuild implements the build subcommand
func handleBuild(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	in := fs.String("chunks", cfg.Data.ChunksFile(), "Chunk list file written by chunk")
	batchSize := fs.Int("batch", pipeline.DefaultBatchSize, "Chunks per embedding batch")
	verbose := fs.Bool("v", false, "Verbose output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex build [options]

DESCRIPTION:
    Rebuild the vector collection from the chunk list. The existing
    collection is dropped first. A failing batch is reported and the
    build continues with the next one.

OPTIONS:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if *verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	chunks, err := subtitle.ReadChunks(*in)
	if err != nil {
		log.Fatalf("Failed to read chunks: %v", err)
	}
	if len(chunks) == 0 {
		log.Fatalf("No chunks in %s. Run `tubeindex chunk` first.", *in)
	}

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		log.Fatalf("Failed to create indexer: %v", err)
	}
	defer idx.Close()

	ctx, stop := internal.SignalContext()
	defer stop()

	fmt.Printf("🏗️  Building collection %q from %d chunks\n\n", idx.Collection(), len(chunks))
	startTime := time.Now()

	progress := pipeline.NewProgress(pipeline.DefaultProgressEnabled(), "Embedding")
	report, err := pipeline.BuildIndex(ctx, idx, chunks, *batchSize, progress)
	if err != nil {
		log.Fatalf("Build failed: %v", err)
	}

	fmt.Println()
	report.PrintSummary(os.Stdout)
	fmt.Printf("\n⏱️  Duration: %v\n", time.Since(startTime).Round(time.Millisecond))

	if stats, err := idx.Stats(ctx); err == nil {
		fmt.Println("\n📊 Statistics:")
		fmt.Printf("   Records:    %6d\n", stats.Records)
		fmt.Printf("   Videos:     %6d\n", stats.Videos)
		fmt.Printf("   Text docs:  %6d\n", stats.TextDocs)
	}
}
