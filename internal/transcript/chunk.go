package transcript

import (
	"math"
	"strings"
)

const (
	// DefaultChunkSize is the number of words per plain or modern subtitle.
	DefaultChunkSize = 4
	// KaraokeChunkSize is the number of words per karaoke subtitle.
	KaraokeChunkSize = 3
)

// Chunk is a short run of words displayed together.
type Chunk struct {
	Words []Word
	Start float64
	End   float64
}

// Text joins the chunk words with single spaces.
func (c Chunk) Text() string {
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Split groups the transcript into chunks of at most size words.
//
// The flat word list wins when present. Otherwise each segment contributes its
// own timed words, or, lacking those, its whitespace-split text with word
// timing interpolated evenly across the segment. Interpolated timing is an
// approximation of where each word was spoken.
func Split(t Transcript, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(t.Words) > 0 {
		return groupWords(nil, t.Words, size)
	}
	var chunks []Chunk
	for _, seg := range t.Segments {
		if len(seg.Words) > 0 {
			chunks = groupWords(chunks, seg.Words, size)
			continue
		}
		chunks = interpolate(chunks, seg, size)
	}
	return chunks
}

func groupWords(dst []Chunk, words []Word, size int) []Chunk {
	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		group := words[i:end]
		chunk := Chunk{
			Words: append([]Word(nil), group...),
			Start: group[0].Start,
			End:   group[len(group)-1].End,
		}
		if resolvable(chunk) {
			dst = append(dst, chunk)
		}
	}
	return dst
}

func interpolate(dst []Chunk, seg Segment, size int) []Chunk {
	tokens := strings.Fields(seg.Text)
	if len(tokens) == 0 {
		return dst
	}
	wordDuration := (seg.End - seg.Start) / float64(len(tokens))
	for i := 0; i < len(tokens); i += size {
		end := min(i+size, len(tokens))
		words := make([]Word, 0, end-i)
		for j := i; j < end; j++ {
			words = append(words, Word{
				Text:  tokens[j],
				Start: seg.Start + float64(j)*wordDuration,
				End:   seg.Start + float64(j+1)*wordDuration,
			})
		}
		chunk := Chunk{
			Words: words,
			Start: seg.Start + float64(i)*wordDuration,
			End:   seg.Start + float64(end)*wordDuration,
		}
		if resolvable(chunk) {
			dst = append(dst, chunk)
		}
	}
	return dst
}

func resolvable(c Chunk) bool {
	if len(c.Words) == 0 {
		return false
	}
	if math.IsNaN(c.Start) || math.IsNaN(c.End) || math.IsInf(c.Start, 0) || math.IsInf(c.End, 0) {
		return false
	}
	return c.Start >= 0 && c.End >= c.Start
}
