package transcript

import "strings"

// Word is a single recognised token with its measured time span in seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the span covered by the word.
func (w Word) Duration() float64 {
	return w.End - w.Start
}

// Segment is a sentence-level span. Words is optional; when absent the
// chunker interpolates word timing across Text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the full recognition result for one media file.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
	Words    []Word    `json:"words,omitempty"`
}

// PlainText returns the transcript text, falling back to the joined segment
// text when the service omitted the top-level field.
func (t Transcript) PlainText() string {
	if text := strings.TrimSpace(t.Text); text != "" {
		return text
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// HasTiming reports whether any timing source is usable.
func (t Transcript) HasTiming() bool {
	if len(t.Words) > 0 {
		return true
	}
	for _, seg := range t.Segments {
		if len(seg.Words) > 0 || len(strings.Fields(seg.Text)) > 0 {
			return true
		}
	}
	return false
}

// WordCount counts the words available to the chunker.
func (t Transcript) WordCount() int {
	if len(t.Words) > 0 {
		return len(t.Words)
	}
	total := 0
	for _, seg := range t.Segments {
		if len(seg.Words) > 0 {
			total += len(seg.Words)
			continue
		}
		total += len(strings.Fields(seg.Text))
	}
	return total
}
