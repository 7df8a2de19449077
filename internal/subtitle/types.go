// Package subtitle turns timed subtitle fragments into fixed-duration chunks
// and reads and writes the JSON files exchanged between pipeline stages.
package subtitle

import (
	"encoding/json"
	"fmt"
)

// DefaultChunkDuration is the target chunk span in seconds.
const DefaultChunkDuration = 120.0

// FullTextPrefix precedes the video title in Chunk.FullText.
const FullTextPrefix = "Title: "

// Fragment is one caption line with its timing.
type Fragment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// End returns Start + Duration.
func (f Fragment) End() float64 {
	return f.Start + f.Duration
}

// UnmarshalJSON rejects fragments missing any of start, duration or text.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start    *float64 `json:"start"`
		Duration *float64 `json:"duration"`
		Text     *string  `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Start == nil:
		return fmt.Errorf("fragment missing key %q", "start")
	case raw.Duration == nil:
		return fmt.Errorf("fragment missing key %q", "duration")
	case raw.Text == nil:
		return fmt.Errorf("fragment missing key %q", "text")
	}
	f.Start = *raw.Start
	f.Duration = *raw.Duration
	f.Text = *raw.Text
	return nil
}

// Chunk is a contiguous run of fragments from one video.
type Chunk struct {
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title"`
	ChunkID   int     `json:"chunk_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Duration  float64 `json:"duration"`
	FullText  string  `json:"full_text"`
}

// Transcript is the per-video file written by the subtitle download stage.
type Transcript struct {
	VideoID   string     `json:"video_id"`
	Title     string     `json:"title"`
	Language  string     `json:"language"`
	Subtitles []Fragment `json:"subtitles"`
}

// UnmarshalJSON requires video_id and subtitles; title and language may be empty.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	var raw struct {
		VideoID   *string    `json:"video_id"`
		Title     string     `json:"title"`
		Language  string     `json:"language"`
		Subtitles []Fragment `json:"subtitles"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.VideoID == nil {
		return fmt.Errorf("transcript missing key %q", "video_id")
	}
	if raw.Subtitles == nil {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return err
		}
		if _, ok := probe["subtitles"]; !ok {
			return fmt.Errorf("transcript missing key %q", "subtitles")
		}
	}
	t.VideoID = *raw.VideoID
	t.Title = raw.Title
	t.Language = raw.Language
	t.Subtitles = raw.Subtitles
	return nil
}
