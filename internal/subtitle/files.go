package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ReadTranscript decodes a per-video transcript file.
func ReadTranscript(path string) (Transcript, error) {
	var t Transcript
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read transcript: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("decode transcript %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// WriteTranscript writes t to dir/<video_id>.json and returns the path.
func WriteTranscript(dir string, t Transcript) (string, error) {
	if t.VideoID == "" {
		return "", fmt.Errorf("transcript has no video id")
	}
	if t.Subtitles == nil {
		t.Subtitles = []Fragment{}
	}
	path := filepath.Join(dir, t.VideoID+".json")
	if err := WriteJSON(path, t); err != nil {
		return "", err
	}
	return path, nil
}

// ReadChunks decodes a chunk list file.
func ReadChunks(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	return chunks, nil
}

// WriteChunks writes chunks as an indented JSON array.
func WriteChunks(path string, chunks []Chunk) error {
	if chunks == nil {
		chunks = []Chunk{}
	}
	return WriteJSON(path, chunks)
}

// WriteJSON writes v as two-space indented UTF-8 JSON without HTML escaping,
// creating parent directories as needed.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
