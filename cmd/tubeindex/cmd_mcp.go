package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/tubeindex/cmd/tubeindex/internal"
	"github.com/DreamCats/tubeindex/internal/config"
	"github.com/DreamCats/tubeindex/internal/indexer"
	"github.com/DreamCats/tubeindex/internal/mcpserver"
)

// handleMCP implements the MCP stdio server subcommand
func handleMCP(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex mcp

DESCRIPTION:
    Run an MCP stdio server exposing:
      - tubeindex_search
      - tubeindex_status
`)
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

	server := mcpserver.New(idx.Searcher(), idx, internal.Version)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}
