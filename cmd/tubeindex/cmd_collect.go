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

// handleCollect implements the collect subcommand
func handleCollect(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	channelURL := fs.String("url", cfg.Channel.URL, "Channel videos URL")
	days := fs.Int("days", cfg.Channel.DaysLimit, "Only keep videos uploaded within this many days (0 = all)")
	maxVideos := fs.Int("max", cfg.Channel.MaxVideos, "Maximum number of playlist entries to read (0 = all)")
	out := fs.String("out", cfg.Data.VideosFile(), "Output metadata file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    tubeindex collect [options]

DESCRIPTION:
    List the channel's uploads with yt-dlp and write their metadata.

OPTIONS:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if *channelURL == "" {
		log.Fatalf("Channel URL is not configured. Set channel.url or pass -url.")
	}

	ctx, stop := internal.SignalContext()
	defer stop()

	lister := youtube.NewChannelLister(cfg.Fetch.YtDlpPath)
	done := pipeline.StartSpinner(pipeline.DefaultProgressEnabled(), "Listing channel videos")
	videos, report, err := pipeline.CollectVideos(ctx, lister, *channelURL, youtube.ListOptions{
		DaysLimit: *days,
		MaxVideos: *maxVideos,
	}, *out)
	done()
	if err != nil {
		log.Fatalf("Collect failed: %v", err)
	}

	fmt.Printf("\n✅ Collected %d videos into %s\n\n", len(videos), *out)
	report.PrintSummary(os.Stdout)
}
