package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DreamCats/tubeindex/internal/subtitle"
)

var (
	// ErrTranscriptsDisabled means the video has no captions at all.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	// ErrNoTranscript means captions exist but none could be selected.
	ErrNoTranscript = errors.New("no transcript found for this video")
	// ErrVideoUnavailable means the watch page reported the video as unplayable.
	ErrVideoUnavailable = errors.New("video is unavailable")
)

// IsSkippable reports whether err means the video simply has no usable
// subtitles, as opposed to a fetch failure.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrTranscriptsDisabled) || errors.Is(err, ErrNoTranscript)
}

const (
	defaultBaseURL   = "https://www.youtube.com"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	playerResponseMarker = "ytInitialPlayerResponse = "
	maxWatchPageBytes    = 8 << 20
	maxTimedTextBytes    = 4 << 20
)

// Track is the caption track chosen for a video.
type Track struct {
	LanguageCode string
	Name         string
	Generated    bool
	BaseURL      string
}

// Fetcher downloads transcripts. Requests are paced by Limiter when set.
type Fetcher struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Languages  []string
	BaseURL    string
	UserAgent  string
	Retry      RetryConfig
}

// NewFetcher returns a fetcher preferring langs, limited to rps requests per
// second. rps <= 0 disables pacing.
func NewFetcher(langs []string, rps float64, burst int, timeout time.Duration, maxRetries int) *Fetcher {
	f := &Fetcher{
		HTTPClient: &http.Client{Timeout: timeout},
		Languages:  langs,
		BaseURL:    defaultBaseURL,
		UserAgent:  defaultUserAgent,
		Retry:      NoRetry,
	}
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		f.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if maxRetries > 0 {
		f.Retry = BackoffConfig(maxRetries)
	}
	return f
}

// Fetch returns the fragments of the preferred caption track of videoID.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (Track, []subtitle.Fragment, error) {
	tracks, err := f.listTracks(ctx, videoID)
	if err != nil {
		return Track{}, nil, err
	}

	track, ok := PickTrack(tracks, f.Languages)
	if !ok {
		return Track{}, nil, ErrNoTranscript
	}

	body, err := f.get(ctx, track.BaseURL, maxTimedTextBytes)
	if err != nil {
		return track, nil, fmt.Errorf("fetch timedtext: %w", err)
	}

	fragments, err := ParseTimedText(body)
	if err != nil {
		return track, nil, err
	}
	return track, fragments, nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

func (f *Fetcher) listTracks(ctx context.Context, videoID string) ([]Track, error) {
	base := f.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	body, err := f.get(ctx, base+"/watch?v="+videoID, maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := strings.Index(string(body), playerResponseMarker)
	if idx < 0 {
		return nil, fmt.Errorf("%w: player response not found in watch page", ErrVideoUnavailable)
	}
	data := extractJSON(body[idx+len(playerResponseMarker):])
	if data == nil {
		return nil, errors.New("failed to extract player response JSON")
	}

	var resp playerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	if resp.Captions == nil {
		if ps := resp.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
			if ps.Reason != "" {
				return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, ps.Reason)
			}
			return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, ps.Status)
		}
		return nil, ErrTranscriptsDisabled
	}

	raw := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]Track, 0, len(raw))
	for _, t := range raw {
		if t.BaseURL == "" {
			continue
		}
		name := t.Name.SimpleText
		if name == "" && len(t.Name.Runs) > 0 {
			name = t.Name.Runs[0].Text
		}
		tracks = append(tracks, Track{
			LanguageCode: t.LanguageCode,
			Name:         name,
			Generated:    t.Kind == "asr",
			BaseURL:      html.UnescapeString(t.BaseURL),
		})
	}
	if len(tracks) == 0 {
		return nil, ErrNoTranscript
	}
	return tracks, nil
}

// PickTrack chooses a track: a manual track in a preferred language, then a
// generated one in a preferred language, then the first manual track, then
// the first generated track.
func PickTrack(tracks []Track, langs []string) (Track, bool) {
	for _, generated := range []bool{false, true} {
		for _, lang := range langs {
			for _, t := range tracks {
				if t.LanguageCode == lang && t.Generated == generated {
					return t, true
				}
			}
		}
	}
	for _, generated := range []bool{false, true} {
		for _, t := range tracks {
			if t.Generated == generated {
				return t, true
			}
		}
	}
	return Track{}, false
}

func (f *Fetcher) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := RetryHTTP(ctx, f.Retry, func() (*http.Response, error) {
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		ua := f.UserAgent
		if ua == "" {
			ua = defaultUserAgent
		}
		req.Header.Set("User-Agent", ua)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return client.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// extractJSON returns the first balanced JSON object in data, or nil.
func extractJSON(data []byte) []byte {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, c := range data {
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[start : i+1]
			}
		}
	}
	return nil
}

type timedText struct {
	Texts []timedTextLine `xml:"text"`
	Body  struct {
		Paras []timedTextPara `xml:"p"`
	} `xml:"body"`
}

// timedTextLine is the default format: seconds as decimals.
type timedTextLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Inner string `xml:",innerxml"`
}

// timedTextPara is format 3: milliseconds as integers.
type timedTextPara struct {
	T     string `xml:"t,attr"`
	D     string `xml:"d,attr"`
	Inner string `xml:",innerxml"`
}

var (
	tagRE        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// ParseTimedText decodes a timedtext XML document. Empty lines are dropped.
func ParseTimedText(data []byte) ([]subtitle.Fragment, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	fragments := make([]subtitle.Fragment, 0, len(tt.Texts)+len(tt.Body.Paras))
	for _, line := range tt.Texts {
		text := cleanCaption(line.Inner)
		if text == "" {
			continue
		}
		fragments = append(fragments, subtitle.Fragment{
			Start:    parseFloat(line.Start),
			Duration: parseFloat(line.Dur),
			Text:     text,
		})
	}
	for _, p := range tt.Body.Paras {
		text := cleanCaption(p.Inner)
		if text == "" {
			continue
		}
		fragments = append(fragments, subtitle.Fragment{
			Start:    parseFloat(p.T) / 1000,
			Duration: parseFloat(p.D) / 1000,
			Text:     text,
		})
	}
	return fragments, nil
}

// cleanCaption strips markup from raw inner XML and decodes entities. Caption
// text is entity-encoded twice, once by the XML layer and once by YouTube.
func cleanCaption(inner string) string {
	s := tagRE.ReplaceAllString(inner, "")
	s = html.UnescapeString(html.UnescapeString(s))
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
