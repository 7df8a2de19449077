package subtitle

import (
	"strings"
	"unicode/utf8"
)

// ChunkFragments groups ordered fragments into chunks of roughly target seconds.
//
// A chunk's start is the start of its first fragment. A fragment joins the
// current chunk while its start is before StartTime+target; the end of the
// fragment is not considered, so the last fragment of a chunk may extend past
// the window. Fragments are never split.
func ChunkFragments(videoID, title string, fragments []Fragment, target float64) []Chunk {
	if len(fragments) == 0 {
		return nil
	}

	var (
		chunks []Chunk
		texts  []string
		start  float64
		end    float64
	)

	flush := func() {
		text := strings.Join(texts, " ")
		chunks = append(chunks, Chunk{
			VideoID:   videoID,
			Title:     title,
			ChunkID:   len(chunks),
			StartTime: start,
			EndTime:   end,
			Text:      text,
			Duration:  end - start,
			FullText:  FullText(title, text),
		})
	}

	for i, frag := range fragments {
		if i > 0 && frag.Start >= start+target {
			flush()
			texts = texts[:0]
		}
		if len(texts) == 0 {
			start = frag.Start
		}
		texts = append(texts, frag.Text)
		end = frag.End()
	}
	flush()

	return chunks
}

// ChunkTranscript chunks a decoded transcript file.
func ChunkTranscript(t Transcript, target float64) []Chunk {
	return ChunkFragments(t.VideoID, t.Title, t.Subtitles, target)
}

// FullText is the text that gets embedded: the title followed by the chunk text.
func FullText(title, text string) string {
	return FullTextPrefix + title + "\n\n" + text
}

// ChunkStats summarizes a chunk list.
type ChunkStats struct {
	Count           int
	AverageDuration float64
	AverageChars    float64
}

// Stats computes averages over chunks. Characters are counted as runes.
func Stats(chunks []Chunk) ChunkStats {
	stats := ChunkStats{Count: len(chunks)}
	if len(chunks) == 0 {
		return stats
	}
	var duration float64
	var chars int
	for _, c := range chunks {
		duration += c.Duration
		chars += utf8.RuneCountInString(c.Text)
	}
	stats.AverageDuration = duration / float64(len(chunks))
	stats.AverageChars = float64(chars) / float64(len(chunks))
	return stats
}
