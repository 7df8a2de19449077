package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/DreamCats/tubeindex/internal/subtitle"
	"github.com/DreamCats/tubeindex/internal/youtube"
)

// FailedVideosFile is written next to the transcripts when any video was
// skipped or failed.
const FailedVideosFile = "failed_videos.json"

// TranscriptFetcher fetches one video's subtitles.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (youtube.Track, []subtitle.Fragment, error)
}

// DownloadSubtitles fetches a transcript for every video in videosFile,
// writes <outDir>/<video_id>.json for each one found and rewrites videosFile
// with the per-video outcome. Videos without subtitles count as skipped;
// any other error counts as failed.
func DownloadSubtitles(ctx context.Context, fetcher TranscriptFetcher, videosFile, outDir string, progress ProgressReporter) (*Report, error) {
	report := newReport("subtitles")

	videos, err := ReadVideos(videosFile)
	if err != nil {
		return report, err
	}
	report.Total = len(videos)
	log.Printf("Downloading subtitles for %d videos into %s", len(videos), outDir)

	progressStart(progress, len(videos))
	defer progressFinish(progress)

	for i := range videos {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		v := &videos[i]
		downloadOne(ctx, fetcher, v, outDir, report)
		progressIncrement(progress)
	}

	if err := subtitle.WriteJSON(videosFile, videos); err != nil {
		return report, fmt.Errorf("update video metadata: %w", err)
	}

	if len(report.Failures) > 0 {
		path := filepath.Join(outDir, FailedVideosFile)
		if err := subtitle.WriteJSON(path, report.Failures); err != nil {
			return report, fmt.Errorf("write failure log: %w", err)
		}
		log.Printf("Wrote failure log to %s", path)
	}
	return report, nil
}

func downloadOne(ctx context.Context, fetcher TranscriptFetcher, v *youtube.Video, outDir string, report *Report) {
	track, fragments, err := fetcher.Fetch(ctx, v.VideoID)
	if err != nil {
		v.HasSubtitle = boolPtr(false)
		v.SubtitleFile = ""
		v.SubtitleError = err.Error()
		if youtube.IsSkippable(err) {
			log.Printf("No subtitles for %s: %v", v.VideoID, err)
			report.skip(v.VideoID, v.Title, err.Error())
			return
		}
		log.Printf("Failed to fetch subtitles for %s: %v", v.VideoID, err)
		report.fail(v.VideoID, v.Title, err)
		return
	}

	path, err := subtitle.WriteTranscript(outDir, subtitle.Transcript{
		VideoID:   v.VideoID,
		Title:     v.Title,
		Language:  track.LanguageCode,
		Subtitles: fragments,
	})
	if err != nil {
		v.HasSubtitle = boolPtr(false)
		v.SubtitleError = err.Error()
		report.fail(v.VideoID, v.Title, err)
		return
	}

	v.HasSubtitle = boolPtr(true)
	v.SubtitleFile = path
	v.SubtitleError = ""
	report.success()
}

func boolPtr(b bool) *bool {
	return &b
}
