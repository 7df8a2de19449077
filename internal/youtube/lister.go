package youtube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner runs an external program and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec. Stderr is included in the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// ListOptions narrows a channel listing.
type ListOptions struct {
	DaysLimit int // keep videos uploaded within this many days; 0 keeps all
	MaxVideos int // passed to --playlist-end; 0 lists everything
}

// ChannelLister lists channel uploads with yt-dlp.
type ChannelLister struct {
	Path   string
	Runner CommandRunner
	Now    func() time.Time
}

// NewChannelLister returns a lister that runs the yt-dlp binary at path.
func NewChannelLister(path string) *ChannelLister {
	if path == "" {
		path = "yt-dlp"
	}
	return &ChannelLister{Path: path, Runner: ExecRunner, Now: time.Now}
}

// List returns the channel's videos, newest first as yt-dlp reports them.
func (l *ChannelLister) List(ctx context.Context, channelURL string, opts ListOptions) ([]Video, error) {
	if channelURL == "" {
		return nil, fmt.Errorf("channel url is empty")
	}

	args := []string{"--flat-playlist", "--dump-json", "--skip-download"}
	if opts.MaxVideos > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(opts.MaxVideos))
	}
	args = append(args, channelURL)

	out, err := l.Runner(ctx, l.Path, args...)
	if err != nil {
		return nil, fmt.Errorf("list channel: %w", err)
	}

	var cutoff time.Time
	if opts.DaysLimit > 0 {
		cutoff = l.Now().AddDate(0, 0, -opts.DaysLimit)
	}

	videos, malformed := ParseVideoLines(out, cutoff)
	if malformed > 0 {
		log.Printf("Skipped %d malformed yt-dlp lines", malformed)
	}
	return videos, nil
}

type ytdlpEntry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	UploadDate  string  `json:"upload_date"`
	Duration    float64 `json:"duration"`
	ViewCount   float64 `json:"view_count"`
	LikeCount   float64 `json:"like_count"`
}

// ParseVideoLines decodes yt-dlp --dump-json output, one object per line.
// Entries uploaded before cutoff are dropped; entries without an upload date
// are kept. It also returns the number of lines that failed to decode.
func ParseVideoLines(data []byte, cutoff time.Time) ([]Video, int) {
	var videos []Video
	malformed := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var e ytdlpEntry
		if err := json.Unmarshal(line, &e); err != nil || e.ID == "" {
			malformed++
			continue
		}

		if e.UploadDate != "" && !cutoff.IsZero() {
			uploaded, err := time.ParseInLocation("20060102", e.UploadDate, cutoff.Location())
			if err == nil && uploaded.Before(cutoff) {
				continue
			}
		}

		videos = append(videos, Video{
			VideoID:     e.ID,
			Title:       e.Title,
			Description: e.Description,
			UploadDate:  e.UploadDate,
			URL:         WatchURL(e.ID),
			Duration:    e.Duration,
			ViewCount:   int64(e.ViewCount),
			LikeCount:   int64(e.LikeCount),
		})
	}
	return videos, malformed
}
