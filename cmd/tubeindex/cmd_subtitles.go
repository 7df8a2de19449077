package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/tubeindex/cmd/tubeindex/internal"
	"github.com/DreamCats/tubeindex/internal/config"
	"github.com/DreamCats/tubeindex/internal/pipeline"
	"github.com/DreamCats/tubeindex/internal/youtube"
)

// handleSubtitles implements the subtitles subcommand
func handleSubtitles(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("subtitles", flag.ExitOnError)
	in := fs.String("in", cfg.Data.VideosFile(), "Video metadata file written by collect")
	out := fs.String("out", cfg.Data.SubtitlesDir(), "Directory for transcript files")
	var langs internal.StringList
	fs.Var(&langs, "lang", "Preferred subtitle language, repeatable (default: channel.languages)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex subtitles [options]

DESCRIPTION:
    Download one transcript per video. Videos without captions are
    skipped and listed in failed_videos.json next to the transcripts.

OPTIONS:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if len(langs) == 0 {
		langs = cfg.Channel.Languages
	}

	ctx, stop := internal.SignalContext()
	defer stop()

	fetcher := youtube.NewFetcher(langs, cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst, cfg.Fetch.Timeout, cfg.Fetch.MaxRetries)
	progress := pipeline.NewProgress(pipeline.DefaultProgressEnabled(), "Downloading subtitles")

	report, err := pipeline.DownloadSubtitles(ctx, fetcher, *in, *out, progress)
	if err != nil {
		log.Fatalf("Subtitle download failed: %v", err)
	}

	fmt.Println()
	report.PrintSummary(os.Stdout)
	fmt.Printf("Success rate: %.1f%%\n", report.SuccessRate())
}
