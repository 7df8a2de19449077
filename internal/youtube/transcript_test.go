package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func watchPage(playerJSON string) string {
	return `<html><head><script>var ytInitialPlayerResponse = ` + playerJSON + `;var meta = {};</script></head></html>`
}

func tracksJSON(baseURL string) string {
	return fmt.Sprintf(`{
		"playabilityStatus": {"status": "OK"},
		"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
			{"baseUrl": "%[1]s/api/timedtext?v=abc&lang=en", "languageCode": "en", "name": {"simpleText": "English"}},
			{"baseUrl": "%[1]s/api/timedtext?v=abc&lang=ko&kind=asr", "languageCode": "ko", "kind": "asr", "name": {"simpleText": "Korean (auto)"}}
		]}}
	}`, baseURL)
}

const timedTextXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="2.1">안녕하세요</text>
<text start="2.6" dur="3">it&amp;#39;s  a
test</text>
<text start="5.6" dur="1"></text>
</transcript>`

func newTestServer(t *testing.T, player func(base string) string) (*httptest.Server, *int32) {
	t.Helper()
	var requests int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprint(w, watchPage(player(srv.URL)))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, "ko", r.URL.Query().Get("lang"))
		fmt.Fprint(w, timedTextXML)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestFetchPrefersLanguage(t *testing.T) {
	srv, requests := newTestServer(t, tracksJSON)

	f := NewFetcher([]string{"ko"}, 0, 0, 5*time.Second, 0)
	f.BaseURL = srv.URL

	track, fragments, err := f.Fetch(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ko", track.LanguageCode)
	assert.True(t, track.Generated)
	require.Len(t, fragments, 2)
	assert.Equal(t, 0.5, fragments[0].Start)
	assert.Equal(t, 2.1, fragments[0].Duration)
	assert.Equal(t, "안녕하세요", fragments[0].Text)
	assert.Equal(t, "it's a test", fragments[1].Text)
	assert.EqualValues(t, 2, atomic.LoadInt32(requests))
}

func TestFetchTranscriptsDisabled(t *testing.T) {
	srv, _ := newTestServer(t, func(string) string {
		return `{"playabilityStatus": {"status": "OK"}}`
	})
	f := NewFetcher([]string{"ko"}, 0, 0, time.Second, 0)
	f.BaseURL = srv.URL

	_, _, err := f.Fetch(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranscriptsDisabled))
	assert.True(t, IsSkippable(err))
}

func TestFetchNoTracks(t *testing.T) {
	srv, _ := newTestServer(t, func(string) string {
		return `{"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": []}}}`
	})
	f := NewFetcher(nil, 0, 0, time.Second, 0)
	f.BaseURL = srv.URL

	_, _, err := f.Fetch(context.Background(), "abc")
	assert.True(t, errors.Is(err, ErrNoTranscript))
	assert.True(t, IsSkippable(err))
}

func TestFetchUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, func(string) string {
		return `{"playabilityStatus": {"status": "ERROR", "reason": "Video unavailable"}}`
	})
	f := NewFetcher(nil, 0, 0, time.Second, 0)
	f.BaseURL = srv.URL

	_, _, err := f.Fetch(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVideoUnavailable))
	assert.False(t, IsSkippable(err))
	assert.Contains(t, err.Error(), "Video unavailable")
}

func TestFetchHTTPErrorNotRetriedByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(nil, 0, 0, time.Second, 0)
	f.BaseURL = srv.URL

	_, _, err := f.Fetch(context.Background(), "abc")
	require.Error(t, err)
	assert.False(t, IsSkippable(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchRetriesWhenEnabled(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, watchPage(`{}`))
	}))
	defer srv.Close()

	f := NewFetcher(nil, 0, 0, time.Second, 2)
	f.BaseURL = srv.URL
	f.Retry.InitialWait = time.Millisecond

	_, _, err := f.Fetch(context.Background(), "abc")
	assert.True(t, errors.Is(err, ErrTranscriptsDisabled))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestPickTrack(t *testing.T) {
	manualEN := Track{LanguageCode: "en"}
	autoKO := Track{LanguageCode: "ko", Generated: true}
	manualKO := Track{LanguageCode: "ko"}
	autoJA := Track{LanguageCode: "ja", Generated: true}

	tests := []struct {
		name   string
		tracks []Track
		langs  []string
		want   Track
		ok     bool
	}{
		{"manual preferred over generated", []Track{autoKO, manualKO}, []string{"ko"}, manualKO, true},
		{"generated in preferred language", []Track{manualEN, autoKO}, []string{"ko"}, autoKO, true},
		{"language order", []Track{manualEN, manualKO}, []string{"ja", "en", "ko"}, manualEN, true},
		{"first manual fallback", []Track{autoJA, manualEN}, []string{"ko"}, manualEN, true},
		{"first generated fallback", []Track{autoJA}, []string{"ko"}, autoJA, true},
		{"empty", nil, []string{"ko"}, Track{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickTrack(tt.tracks, tt.langs)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	data := []byte(`{"a": "}{\"", "b": {"c": 1}}; var x = {}`)
	assert.Equal(t, `{"a": "}{\"", "b": {"c": 1}}`, string(extractJSON(data)))
	assert.Nil(t, extractJSON([]byte(`{"open": {`)))
	assert.Nil(t, extractJSON([]byte(`no json`)))
}

func TestParseTimedTextFormat3(t *testing.T) {
	data := []byte(`<timedtext format="3"><body>
<p t="1000" d="2500"><s>hello</s><s> there</s></p>
<p t="3500" d="500">&amp;lt;music&amp;gt;</p>
</body></timedtext>`)

	fragments, err := ParseTimedText(data)
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, 1.0, fragments[0].Start)
	assert.Equal(t, 2.5, fragments[0].Duration)
	assert.Equal(t, "hello there", fragments[0].Text)
	assert.Equal(t, "<music>", fragments[1].Text)
}

func TestParseTimedTextInvalid(t *testing.T) {
	_, err := ParseTimedText([]byte("<transcript><text"))
	assert.Error(t, err)
}
