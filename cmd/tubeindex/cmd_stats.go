package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/DreamCats/tubeindex/internal/config"
	"github.com/DreamCats/tubeindex/internal/indexer"
	"github.com/DreamCats/tubeindex/internal/store"
	"github.com/DreamCats/tubeindex/internal/textindex"
)

// handleStats implements the stats subcommand
func handleStats(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex stats [options]

DESCRIPTION:
    Show statistics about the current index. Does not load the
    embedding model.

OPTIONS:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	var text *textindex.Index
	if dir := cfg.Search.TextIndexDir; dir != "" {
		if _, statErr := os.Stat(dir); statErr == nil {
			if text, err = textindex.Open(dir); err != nil {
				log.Printf("Warning: failed to open text index: %v", err)
			}
		}
	}

	idx := indexer.NewWithComponents(cfg, db, nil, text)
	defer idx.Close()

	stats, err := idx.Stats(context.Background())
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}

	if jsonOutput {
		out := map[string]interface{}{
			"collection":    idx.Collection(),
			"exists":        stats.Collection != nil,
			"chunks":        stats.Records,
			"videos":        stats.Videos,
			"text_docs":     stats.TextDocs,
			"database_path": stats.DatabasePath,
			"database_size": stats.DatabaseSize,
		}
		if stats.Collection != nil {
			out["model"] = stats.Collection.Model
			out["dimension"] = stats.Collection.Dimension
			out["metric"] = stats.Collection.Metric
			out["updated_at"] = stats.Collection.UpdatedAt.Format(time.RFC3339)
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("📊 Index Statistics")
	fmt.Println()
	if stats.Collection == nil {
		fmt.Printf("Collection %q does not exist. Run `tubeindex build` first.\n", idx.Collection())
		return
	}
	fmt.Printf("Collection: %s\n", stats.Collection.Name)
	fmt.Printf("Model:      %s (%d dims, %s)\n", stats.Collection.Model, stats.Collection.Dimension, stats.Collection.Metric)
	fmt.Printf("Updated:    %s\n", stats.Collection.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Chunks:     %6d\n", stats.Records)
	fmt.Printf("Videos:     %6d\n", stats.Videos)
	fmt.Printf("Text docs:  %6d\n", stats.TextDocs)
	fmt.Printf("Database:   %s (%s)\n", stats.DatabasePath, humanize.IBytes(uint64(stats.DatabaseSize)))
}
