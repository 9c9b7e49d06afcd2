package subtitles_test

import (
	"math"
	"strings"
	"testing"

	"contentengine/internal/subtitles"
	"contentengine/internal/transcript"
)

func scenarioTranscript() transcript.Transcript {
	return transcript.Transcript{Words: []transcript.Word{
		{Text: "This", Start: 0.5, End: 0.9},
		{Text: "is", Start: 0.9, End: 1.1},
		{Text: "a", Start: 1.1, End: 1.3},
		{Text: "test", Start: 1.3, End: 1.8},
	}}
}

func TestCompilePlainScenario(t *testing.T) {
	c := subtitles.NewCompiler(nil, subtitles.DefaultOptions())
	events := c.Compile(scenarioTranscript(), subtitles.ModePlain)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	want := `Dialogue: 0,0:00:00.50,0:00:01.80,Default,,0,0,0,,THIS IS A TEST`
	if got := subtitles.DialogueLine(events[0]); got != want {
		t.Fatalf("unexpected dialogue\n got: %s\nwant: %s", got, want)
	}
}

func TestCompileModernDefaultsToUniformStyling(t *testing.T) {
	c := subtitles.NewCompiler(nil, subtitles.DefaultOptions())
	plain := c.Compile(scenarioTranscript(), subtitles.ModePlain)
	modern := c.Compile(scenarioTranscript(), subtitles.ModeModern)
	if len(plain) != len(modern) || plain[0] != modern[0] {
		t.Fatalf("expected modern to match plain, got %+v vs %+v", modern, plain)
	}
}

func TestCompileModernHighlightHeuristic(t *testing.T) {
	opts := subtitles.DefaultOptions()
	opts.HighlightWords = true
	opts.HighlightMinLength = 6
	c := subtitles.NewCompiler(nil, opts)
	tr := transcript.Transcript{Words: []transcript.Word{
		{Text: "an", Start: 0, End: 0.2},
		{Text: "amazing", Start: 0.2, End: 0.6},
		{Text: "NASA", Start: 0.6, End: 1.0},
		{Text: "I", Start: 1.0, End: 1.1},
	}}
	events := c.Compile(tr, subtitles.ModeModern)
	want := `AN {\rHighlight}AMAZING{\r} {\rHighlight}NASA{\r} I`
	if events[0].Payload != want {
		t.Fatalf("unexpected payload %q", events[0].Payload)
	}
}

func TestCompileKaraokePayload(t *testing.T) {
	c := subtitles.NewCompiler(nil, subtitles.DefaultOptions())
	events := c.Compile(scenarioTranscript(), subtitles.ModeKaraoke)
	if len(events) != 2 {
		t.Fatalf("expected two karaoke events for four words, got %d", len(events))
	}
	if events[0].Style != subtitles.StyleKaraoke {
		t.Fatalf("unexpected style %q", events[0].Style)
	}
	if want := `{\k40}THIS {\k20}IS {\k20}A`; events[0].Payload != want {
		t.Fatalf("payload = %q, want %q", events[0].Payload, want)
	}
	if want := `{\k50}TEST`; events[1].Payload != want {
		t.Fatalf("payload = %q, want %q", events[1].Payload, want)
	}
}

func TestCompileKaraokeEmitsSilenceHold(t *testing.T) {
	c := subtitles.NewCompiler(nil, subtitles.DefaultOptions())
	tr := transcript.Transcript{Words: []transcript.Word{
		{Text: "wait", Start: 0, End: 0.3},
		{Text: "for", Start: 0.32, End: 0.5},
		{Text: "it", Start: 1.2, End: 1.4},
	}}
	events := c.Compile(tr, subtitles.ModeKaraoke)
	if want := `{\k30}WAIT {\k20}FOR {\k70}{\k20}IT`; events[0].Payload != want {
		t.Fatalf("payload = %q, want %q", events[0].Payload, want)
	}
}

func TestKaraokeDurationConservation(t *testing.T) {
	c := subtitles.NewCompiler(nil, subtitles.DefaultOptions())
	var words []transcript.Word
	cursor := 0.137
	for i := range 40 {
		gap := float64(i%5) * 0.031
		length := 0.05 + float64(i%7)*0.043
		words = append(words, transcript.Word{Text: "w", Start: cursor + gap, End: cursor + gap + length})
		cursor += gap + length
	}
	requireKaraokeLandsOnLastWord(t, c, transcript.Transcript{Words: words})

	// Zero-length trailing words still get a tick without running past the chunk.
	requireKaraokeLandsOnLastWord(t, c, transcript.Transcript{Words: []transcript.Word{
		{Text: "go", Start: 1.0, End: 1.5},
		{Text: "uh", Start: 1.5, End: 1.5},
		{Text: "oh", Start: 1.5, End: 1.5},
	}})
}

func TestKaraokeZeroLengthTailKeepsTicks(t *testing.T) {
	c := subtitles.NewCompiler(nil, subtitles.DefaultOptions())
	tr := transcript.Transcript{Words: []transcript.Word{
		{Text: "go", Start: 1.0, End: 1.5},
		{Text: "uh", Start: 1.5, End: 1.5},
		{Text: "oh", Start: 1.5, End: 1.5},
	}}
	events := c.Compile(tr, subtitles.ModeKaraoke)
	if want := `{\k48}GO {\k1}UH {\k1}OH`; len(events) != 1 || events[0].Payload != want {
		t.Fatalf("payload = %+v, want %q", events, want)
	}
}

func requireKaraokeLandsOnLastWord(t *testing.T, c *subtitles.Compiler, tr transcript.Transcript) {
	t.Helper()
	events := c.Compile(tr, subtitles.ModeKaraoke)
	chunks := transcript.Split(tr, subtitles.ChunkSize(subtitles.ModeKaraoke))
	if len(events) != len(chunks) {
		t.Fatalf("event count %d != chunk count %d", len(events), len(chunks))
	}
	for i, ev := range events {
		last := chunks[i].Words[len(chunks[i].Words)-1]
		landed := ev.Start + float64(subtitles.DirectiveTotal(ev.Payload))/100
		if math.Abs(landed-last.End) > 0.01 {
			t.Fatalf("event %d: cursor landed at %.4f, last word ends %.4f (%s)", i, landed, last.End, ev.Payload)
		}
		if strings.Contains(ev.Payload, `{\k-`) {
			t.Fatalf("event %d has negative directive: %s", i, ev.Payload)
		}
	}
}

func TestCompileWithoutTimingIsEmpty(t *testing.T) {
	c := subtitles.NewCompiler(nil, subtitles.DefaultOptions())
	for _, mode := range []subtitles.Mode{subtitles.ModePlain, subtitles.ModeModern, subtitles.ModeKaraoke} {
		if got := c.Compile(transcript.Transcript{Text: "no timing at all"}, mode); len(got) != 0 {
			t.Fatalf("mode %s: expected no events, got %d", mode, len(got))
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := subtitles.ParseMode(" Karaoke "); err != nil || m != subtitles.ModeKaraoke {
		t.Fatalf("ParseMode karaoke = %q, %v", m, err)
	}
	if m, err := subtitles.ParseMode(""); err != nil || m != subtitles.ModeModern {
		t.Fatalf("ParseMode empty = %q, %v", m, err)
	}
	if _, err := subtitles.ParseMode("fancy"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
