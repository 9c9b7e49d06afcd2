package transcript_test

import (
	"fmt"
	"math"
	"testing"

	"contentengine/internal/transcript"
)

func flatWords(n int) []transcript.Word {
	words := make([]transcript.Word, n)
	for i := range words {
		words[i] = transcript.Word{Text: fmt.Sprintf("w%d", i), Start: float64(i) * 0.5, End: float64(i)*0.5 + 0.4}
	}
	return words
}

func TestSplitFlatWordsCardinality(t *testing.T) {
	for _, size := range []int{3, 4} {
		for n := 0; n <= 13; n++ {
			chunks := transcript.Split(transcript.Transcript{Words: flatWords(n)}, size)
			want := (n + size - 1) / size
			if len(chunks) != want {
				t.Fatalf("n=%d size=%d: got %d chunks, want %d", n, size, len(chunks), want)
			}
			for i, c := range chunks {
				if len(c.Words) == 0 || len(c.Words) > size {
					t.Fatalf("n=%d size=%d: chunk %d has %d words", n, size, i, len(c.Words))
				}
			}
			if n == 0 {
				continue
			}
			last := chunks[len(chunks)-1]
			wantLast := n % size
			if wantLast == 0 {
				wantLast = size
			}
			if len(last.Words) != wantLast {
				t.Fatalf("n=%d size=%d: last chunk has %d words, want %d", n, size, len(last.Words), wantLast)
			}
		}
	}
}

func TestSplitConcreteScenario(t *testing.T) {
	tr := transcript.Transcript{Words: []transcript.Word{
		{Text: "This", Start: 0.5, End: 0.9},
		{Text: "is", Start: 0.9, End: 1.1},
		{Text: "a", Start: 1.1, End: 1.3},
		{Text: "test", Start: 1.3, End: 1.8},
	}}
	chunks := transcript.Split(tr, transcript.DefaultChunkSize)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if chunks[0].Start != 0.5 || chunks[0].End != 1.8 {
		t.Fatalf("unexpected span %v-%v", chunks[0].Start, chunks[0].End)
	}
	if chunks[0].Text() != "This is a test" {
		t.Fatalf("unexpected text %q", chunks[0].Text())
	}
}

func TestSplitInterpolatesSegmentText(t *testing.T) {
	tr := transcript.Transcript{Segments: []transcript.Segment{
		{Start: 10, End: 15, Text: "one two three four five"},
	}}
	chunks := transcript.Split(tr, 4)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Start != 10 || chunks[0].End != 14 {
		t.Fatalf("first chunk span %v-%v, want 10-14", chunks[0].Start, chunks[0].End)
	}
	if chunks[1].Start != 14 || chunks[1].End != 15 {
		t.Fatalf("second chunk span %v-%v, want 14-15", chunks[1].Start, chunks[1].End)
	}
	if got := chunks[1].Words[0]; got.Text != "five" || math.Abs(got.Duration()-1) > 1e-9 {
		t.Fatalf("unexpected interpolated word %+v", got)
	}
}

func TestSplitPrefersSegmentWordsOverInterpolation(t *testing.T) {
	tr := transcript.Transcript{Segments: []transcript.Segment{
		{Start: 0, End: 10, Text: "ignored text here", Words: []transcript.Word{
			{Text: "real", Start: 1, End: 1.5},
			{Text: "timing", Start: 2, End: 2.5},
		}},
	}}
	chunks := transcript.Split(tr, 4)
	if len(chunks) != 1 || chunks[0].Start != 1 || chunks[0].End != 2.5 {
		t.Fatalf("unexpected chunks %+v", chunks)
	}
}

func TestSplitEmptyInputs(t *testing.T) {
	if got := transcript.Split(transcript.Transcript{}, 4); len(got) != 0 {
		t.Fatalf("expected no chunks, got %d", len(got))
	}
	tr := transcript.Transcript{Segments: []transcript.Segment{{Start: 0, End: 1, Text: "   "}}}
	if got := transcript.Split(tr, 4); len(got) != 0 {
		t.Fatalf("expected no chunks for blank segment, got %d", len(got))
	}
}

func TestSplitDropsInvertedSpans(t *testing.T) {
	tr := transcript.Transcript{Segments: []transcript.Segment{{Start: 5, End: 2, Text: "bad span"}}}
	if got := transcript.Split(tr, 4); len(got) != 0 {
		t.Fatalf("expected inverted segment to be dropped, got %+v", got)
	}
}
