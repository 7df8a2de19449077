package subtitle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptRoundTripFile(t *testing.T) {
	dir := t.TempDir()
	tr := Transcript{
		VideoID:  "xyz",
		Title:    "Q&A <live>",
		Language: "ko",
		Subtitles: []Fragment{
			{Start: 0.5, Duration: 2.25, Text: "첫 줄"},
		},
	}

	path, err := WriteTranscript(dir, tr)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "xyz.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"title": "Q&A <live>"`)
	assert.Contains(t, string(raw), "첫 줄")

	got, err := ReadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, tr, got)
}

func TestReadTranscriptMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"fragment without start", `{"video_id":"a","subtitles":[{"duration":1,"text":"x"}]}`, `"start"`},
		{"fragment without duration", `{"video_id":"a","subtitles":[{"start":1,"text":"x"}]}`, `"duration"`},
		{"fragment without text", `{"video_id":"a","subtitles":[{"start":1,"duration":1}]}`, `"text"`},
		{"no video id", `{"subtitles":[]}`, `"video_id"`},
		{"no subtitles", `{"video_id":"a"}`, `"subtitles"`},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			_, err := ReadTranscript(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadTranscriptEmptySubtitles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"video_id":"a","title":"t","subtitles":[]}`), 0644))

	tr, err := ReadTranscript(path)
	require.NoError(t, err)
	assert.Empty(t, tr.Subtitles)
	assert.Empty(t, ChunkTranscript(tr, DefaultChunkDuration))
}

func TestWriteChunksFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chunks.json")
	chunks := ChunkFragments("v", "t", []Fragment{{Start: 0, Duration: 1, Text: "a"}}, 120)

	require.NoError(t, WriteChunks(path, chunks))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {\n    \"video_id\": \"v\""))

	var keys []map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	for _, k := range []string{"video_id", "title", "chunk_id", "start_time", "end_time", "text", "duration", "full_text"} {
		assert.Contains(t, keys[0], k)
	}

	got, err := ReadChunks(path)
	require.NoError(t, err)
	assert.Equal(t, chunks, got)
}

func TestWriteChunksEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.json")
	require.NoError(t, WriteChunks(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}
