package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/tubeindex/cmd/tubeindex/internal"
	"github.com/DreamCats/tubeindex/internal/config"
	"github.com/DreamCats/tubeindex/internal/indexer"
	"github.com/DreamCats/tubeindex/internal/webui"
)

// handleServe implements the serve subcommand
func handleServe(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "Listen address")
	topK := fs.Int("k", cfg.Server.TopK, "Results shown per search")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex serve [options]

DESCRIPTION:
    Serve the search page and a JSON API:
      GET /             search page (?q= runs a search)
      GET /api/search   ?q=<query>&k=<n>
      GET /healthz

OPTIONS:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		log.Fatalf("Failed to create indexer: %v", err)
	}
	defer idx.Close()

	ctx, stop := internal.SignalContext()
	defer stop()

	if stats, err := idx.Stats(ctx); err != nil {
		log.Printf("Warning: failed to read index stats: %v", err)
	} else if stats.Records == 0 {
		log.Printf("Warning: collection %q is empty. Run `tubeindex build` first.", idx.Collection())
	} else {
		log.Printf("Serving %d chunks from %d videos", stats.Records, stats.Videos)
	}

	server := webui.New(idx.Searcher(), webui.Options{
		Title:            cfg.Server.Title,
		Description:      cfg.Server.Description,
		Placeholder:      placeholder(cfg.Server.SuggestedQueries),
		TopK:             *topK,
		SuggestedQueries: cfg.Server.SuggestedQueries,
	})
	if err := server.ListenAndServe(ctx, *addr); err != nil {
		log.Fatalf("Web server failed: %v", err)
	}
	log.Printf("Web server stopped")
}

func placeholder(suggestions []string) string {
	if len(suggestions) > 0 {
		return "e.g. " + suggestions[0]
	}
	return "Ask a question about the channel"
}
