package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/tubeindex/internal/subtitle"
	"github.com/DreamCats/tubeindex/internal/youtube"
)

// VideoLister lists a channel's videos.
type VideoLister interface {
	List(ctx context.Context, channelURL string, opts youtube.ListOptions) ([]youtube.Video, error)
}

// CollectVideos lists the channel and writes the metadata file.
func CollectVideos(ctx context.Context, lister VideoLister, channelURL string, opts youtube.ListOptions, outFile string) ([]youtube.Video, *Report, error) {
	report := newReport("collect")

	log.Printf("Listing videos from %s (days_limit=%d, max_videos=%d)", channelURL, opts.DaysLimit, opts.MaxVideos)
	videos, err := lister.List(ctx, channelURL, opts)
	if err != nil {
		return nil, report, err
	}
	if videos == nil {
		videos = []youtube.Video{}
	}

	report.Total = len(videos)
	report.Succeeded = len(videos)
	for _, v := range videos {
		log.Printf("Collected %s (%s) %s", v.VideoID, v.UploadDate, subtitle.Truncate(v.Title, 50))
	}

	if err := subtitle.WriteJSON(outFile, videos); err != nil {
		return videos, report, fmt.Errorf("write video metadata: %w", err)
	}
	log.Printf("Wrote %d videos to %s", len(videos), outFile)
	return videos, report, nil
}

// ReadVideos loads a metadata file written by CollectVideos.
func ReadVideos(path string) ([]youtube.Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read video metadata: %w", err)
	}
	var videos []youtube.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("parse video metadata %s: %w", path, err)
	}
	return videos, nil
}
