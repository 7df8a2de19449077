package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/tubeindex/cmd/tubeindex/internal"
	"github.com/DreamCats/tubeindex/internal/config"
	"github.com/DreamCats/tubeindex/internal/indexer"
	"github.com/DreamCats/tubeindex/internal/search"
	"github.com/DreamCats/tubeindex/internal/subtitle"
)

// handleSearch implements the search subcommand
func handleSearch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var topK int
	var jsonOutput, verbose bool
	fs.IntVar(&topK, "k", cfg.Search.DefaultTopK, "Number of results to return")
	fs.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	fs.BoolVar(&verbose, "v", false, "Verbose output (show scores)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex search [options] "<query>"

DESCRIPTION:
    Search the indexed subtitles with a natural language query. Each
    result links to the moment in the video where the chunk starts.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    tubeindex search "사회초년생 투자 시작 방법 알려줘"
    tubeindex search "ISA 만기" -k 10 -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: search query is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	query := strings.Join(fs.Args(), " ")

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		log.Fatalf("Failed to create indexer: %v", err)
	}
	defer idx.Close()

	ctx, stop := internal.SignalContext()
	defer stop()

	results, err := idx.Searcher().Search(ctx, query, topK)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	if jsonOutput {
		outputJSON(results, query)
	} else {
		outputText(results, query, cfg.Search.SnippetLength, verbose)
	}
}

// handleEval implements the eval subcommand
func handleEval(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	topK := fs.Int("k", search.DefaultTopK, "Results per query")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex eval [options] ["<query>" ...]

DESCRIPTION:
    Run a fixed list of queries and print the results of each, for eyeballing
    retrieval quality after a rebuild. Queries given as arguments replace
    search.eval_queries from the config.

OPTIONS:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	queries := cfg.Search.EvalQueries
	if fs.NArg() > 0 {
		queries = fs.Args()
	}
	if len(queries) == 0 {
		log.Fatalf("No evaluation queries. Set search.eval_queries or pass queries as arguments.")
	}

	idx, err := indexer.NewIndexer(cfg)
	if err != nil {
		log.Fatalf("Failed to create indexer: %v", err)
	}
	defer idx.Close()

	ctx, stop := internal.SignalContext()
	defer stop()

	searcher := idx.Searcher()
	failed := 0
	for i, query := range queries {
		fmt.Printf("=== [%d/%d] %s ===\n\n", i+1, len(queries), query)
		results, err := searcher.Search(ctx, query, *topK)
		if err != nil {
			log.Printf("Query %q failed: %v", query, err)
			failed++
			continue
		}
		outputText(results, query, cfg.Search.SnippetLength, true)
	}
	if failed > 0 {
		fmt.Printf("%d of %d queries failed\n", failed, len(queries))
		os.Exit(1)
	}
}

// outputText outputs search results as human-readable text
func outputText(results []search.Result, query string, snippetLength int, verbose bool) {
	if len(results) == 0 {
		fmt.Println("No results found")
		fmt.Println()
		return
	}

	fmt.Printf("Found %d result(s) for: %s\n\n", len(results), query)

	for i, r := range results {
		fmt.Printf("%d. %s\n", i+1, r.Title)
		fmt.Printf("   Time:  %s\n", r.Timestamp)
		fmt.Printf("   URL:   %s\n", r.URL)
		if verbose {
			fmt.Printf("   Similarity: %.3f\n", r.Similarity)
			if r.Score != r.Similarity {
				fmt.Printf("   Score:      %.3f\n", r.Score)
			}
		}
		if r.Snippet != "" {
			fmt.Printf("   %s\n", subtitle.Truncate(r.Snippet, snippetLength))
		}
		fmt.Println()
	}
}

// outputJSON outputs search results as JSON
func outputJSON(results []search.Result, query string) {
	if results == nil {
		results = []search.Result{}
	}
	output := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}

	fmt.Println(string(jsonData))
}
