package transcript_test

import (
	"strings"
	"testing"

	"contentengine/internal/transcript"
)

func TestParseWhisperVerboseJSON(t *testing.T) {
	payload := `{
		"text": " This is a test.",
		"language": "english",
		"segments": [{"start": 0.5, "end": 1.8, "text": " This is a test."}],
		"words": [
			{"word": "This", "start": 0.5, "end": 0.9},
			{"word": "is", "start": 0.9, "end": 1.1},
			{"word": "a", "start": 1.1, "end": 1.3},
			{"word": "test", "start": 1.3, "end": 1.8}
		]
	}`
	tr, err := transcript.Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tr.Text != "This is a test." {
		t.Fatalf("unexpected text %q", tr.Text)
	}
	if len(tr.Words) != 4 || tr.Words[3].End != 1.8 {
		t.Fatalf("unexpected words %+v", tr.Words)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Start != 0.5 {
		t.Fatalf("unexpected segments %+v", tr.Segments)
	}
}

func TestParseWhisperXDropsUntimedWords(t *testing.T) {
	payload := `{"segments": [{"start": 0, "end": 2, "text": "hello 42 world", "words": [
		{"word": "hello", "start": 0.1, "end": 0.4, "score": 0.9},
		{"word": "42"},
		{"word": "world", "start": 0.8, "end": 1.2}
	]}]}`
	tr, err := transcript.Decode(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	words := tr.Segments[0].Words
	if len(words) != 2 || words[0].Text != "hello" || words[1].Text != "world" {
		t.Fatalf("expected untimed word dropped, got %+v", words)
	}
	if tr.PlainText() != "hello 42 world" {
		t.Fatalf("unexpected plain text %q", tr.PlainText())
	}
	if tr.WordCount() != 2 {
		t.Fatalf("unexpected word count %d", tr.WordCount())
	}
}

func TestParseDropsSegmentsWithoutTiming(t *testing.T) {
	tr, err := transcript.Parse([]byte(`{"segments": [{"text": "no timing"}, {"start": "1.5", "end": "2", "text": "quoted"}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Text != "quoted" || tr.Segments[0].Start != 1.5 {
		t.Fatalf("unexpected segments %+v", tr.Segments)
	}
	if !tr.HasTiming() {
		t.Fatal("expected timing source")
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := transcript.Parse([]byte("{")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	tr, err := transcript.Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse empty object: %v", err)
	}
	if tr.HasTiming() {
		t.Fatal("expected no timing source for empty transcript")
	}
}
