package strategy_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"contentengine/internal/strategy"
)

type fakeCompleter struct {
	system, user string
	reply        string
	err          error
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func TestTextFormat(t *testing.T) {
	s := strategy.Strategy{Title: "Hook *NOW*", Caption: "cap", Hashtags: "#a #b"}
	want := "TITLE: Hook *NOW*\n\nCAPTION: cap\n\nHASHTAGS: #a #b"
	if got := s.Text(); got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
	s.LinkedInPost = "long post"
	s.TikTokCaption = "tt"
	if got := s.Text(); !strings.HasSuffix(got, "\n\nLINKEDIN: long post\n\nTIKTOK: tt") {
		t.Fatalf("unexpected optional sections %q", got)
	}
	if got := (strategy.Strategy{}).Text(); got != "TITLE: N/A\n\nCAPTION: N/A\n\nHASHTAGS: N/A" {
		t.Fatalf("empty strategy text = %q", got)
	}
}

func TestPlatforms(t *testing.T) {
	if got := strings.Join(strategy.Platforms("portrait"), ", "); got != "TikTok, Instagram Reels, YouTube Shorts" {
		t.Fatalf("portrait platforms = %q", got)
	}
	if got := strings.Join(strategy.Platforms("landscape"), ", "); got != "YouTube Long-form, LinkedIn" {
		t.Fatalf("landscape platforms = %q", got)
	}
}

func TestBuildPromptTruncatesTranscript(t *testing.T) {
	long := strings.Repeat("é", strategy.TranscriptLimit+50)
	prompt := strategy.BuildPrompt(long, strategy.Context{Orientation: "portrait", LengthCategory: "short"})
	if strings.Count(prompt, "é") != strategy.TranscriptLimit {
		t.Fatalf("expected transcript cut to %d runes", strategy.TranscriptLimit)
	}
	for _, fragment := range []string{"... (truncated)", "Duration Category: short", "Orientation: portrait", "'tiktok_caption'", "asterisks (*)"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q", fragment)
		}
	}
	short := strategy.BuildPrompt("hello", strategy.Context{})
	if strings.Contains(short, "truncated") {
		t.Fatal("short transcripts must not be marked truncated")
	}
}

func TestParseHashtagShapes(t *testing.T) {
	cases := map[string]string{
		`{"title":"T","hashtags":"#One two, #one #Three"}`:   "#One #two #Three",
		`{"title":"T","hashtags":["#a","b c"]}`:              "#a #b #c",
		"```json\n{\"title\":\"T\",\"hashtags\":\"x\"}\n```": "#x",
		`{"title":"T"}`: "",
	}
	for input, want := range cases {
		s, err := strategy.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", input, err)
		}
		if s.Hashtags != want || s.Title != "T" {
			t.Fatalf("Parse(%q) = %#v, want hashtags %q", input, s, want)
		}
	}
	if _, err := strategy.Parse("no json"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGeneratorUsesSystemPrompt(t *testing.T) {
	fake := &fakeCompleter{reply: `{"title":"Fix *SLEEP*","caption":"c","tiktok_caption":"tt"}`}
	s, err := strategy.NewGenerator(fake).Generate(context.Background(), "words", strategy.Context{Orientation: "portrait", LengthCategory: "short"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if fake.system != strategy.SystemPrompt || !strings.Contains(fake.user, "Transcript: words") {
		t.Fatalf("unexpected prompts %q / %q", fake.system, fake.user)
	}
	if s.TitleOr("Watch This!") != "Fix *SLEEP*" || s.TikTokCaption != "tt" || s.Empty() {
		t.Fatalf("unexpected strategy %#v", s)
	}

	fake.err = errors.New("down")
	if _, err := strategy.NewGenerator(fake).Generate(context.Background(), "w", strategy.Context{}); err == nil {
		t.Fatal("expected error from completer")
	}
	if (strategy.Strategy{}).TitleOr("Watch This!") != "Watch This!" {
		t.Fatal("expected fallback title")
	}
}
