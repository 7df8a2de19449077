// Package youtube lists a channel's videos through yt-dlp and fetches video
// transcripts from YouTube's watch page and timedtext endpoint.
package youtube

import "fmt"

// Video is one entry of the channel metadata file.
type Video struct {
	VideoID     string  `json:"video_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	UploadDate  string  `json:"upload_date,omitempty"` // YYYYMMDD
	URL         string  `json:"url"`
	Duration    float64 `json:"duration,omitempty"`
	ViewCount   int64   `json:"view_count,omitempty"`
	LikeCount   int64   `json:"like_count,omitempty"`

	HasSubtitle   *bool  `json:"has_subtitle,omitempty"`
	SubtitleFile  string `json:"subtitle_file,omitempty"`
	SubtitleError string `json:"subtitle_error,omitempty"`
}

// WatchURL is the plain watch page link for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// DeepLink links to id starting at start seconds, truncated to whole seconds.
func DeepLink(id string, start float64) string {
	if start < 0 {
		start = 0
	}
	return fmt.Sprintf("%s&t=%ds", WatchURL(id), int64(start))
}

// ThumbnailURL returns the high-quality thumbnail for id.
func ThumbnailURL(id string) string {
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}
