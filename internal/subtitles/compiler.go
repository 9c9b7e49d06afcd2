package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"contentengine/internal/timecode"
	"contentengine/internal/transcript"
)

// Mode selects how chunks become events.
type Mode string

const (
	ModePlain   Mode = "plain"
	ModeModern  Mode = "modern"
	ModeKaraoke Mode = "karaoke"
)

// ParseMode validates a configured mode name.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModePlain:
		return ModePlain, nil
	case ModeModern, "":
		return ModeModern, nil
	case ModeKaraoke:
		return ModeKaraoke, nil
	default:
		return "", fmt.Errorf("unsupported subtitle mode %q", value)
	}
}

// ChunkSize returns the words-per-event for mode.
func ChunkSize(mode Mode) int {
	if mode == ModeKaraoke {
		return transcript.KaraokeChunkSize
	}
	return transcript.DefaultChunkSize
}

const (
	// silenceHoldCentis is the smallest inter-word gap rendered as its own hold.
	silenceHoldCentis = 5
	minTickCentis     = 1
)

// Event is one timed subtitle line.
type Event struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Style   StyleID `json:"style"`
	Payload string  `json:"payload"`
}

// Options tunes the compiler output.
type Options struct {
	PlayResX int
	PlayResY int
	// HighlightWords enables the modern-mode heuristic that switches long or
	// already upper-case words to the Highlight style.
	HighlightWords     bool
	HighlightMinLength int
}

// DefaultOptions matches a 1080x1920 portrait canvas with highlighting off.
func DefaultOptions() Options {
	return Options{PlayResX: 1080, PlayResY: 1920, HighlightMinLength: 7}
}

// Compiler turns transcripts into subtitle events and files.
type Compiler struct {
	styles StyleTable
	opts   Options
}

// NewCompiler constructs a compiler. An empty table falls back to DefaultStyles.
func NewCompiler(styles StyleTable, opts Options) *Compiler {
	if len(styles) == 0 {
		styles = DefaultStyles()
	}
	defaults := DefaultOptions()
	if opts.PlayResX <= 0 {
		opts.PlayResX = defaults.PlayResX
	}
	if opts.PlayResY <= 0 {
		opts.PlayResY = defaults.PlayResY
	}
	if opts.HighlightMinLength <= 0 {
		opts.HighlightMinLength = defaults.HighlightMinLength
	}
	return &Compiler{styles: styles, opts: opts}
}

// Styles exposes the table the compiler writes into ASS headers.
func (c *Compiler) Styles() StyleTable {
	return c.styles
}

// Compile converts t into events for mode. No timing source yields nil.
func (c *Compiler) Compile(t transcript.Transcript, mode Mode) []Event {
	chunks := transcript.Split(t, ChunkSize(mode))
	if len(chunks) == 0 {
		return nil
	}
	upper := cases.Upper(language.Und)
	events := make([]Event, 0, len(chunks))
	for _, chunk := range chunks {
		event := Event{Start: chunk.Start, End: chunk.End, Style: StyleDefault}
		switch mode {
		case ModeKaraoke:
			event.Style = StyleKaraoke
			event.Payload = karaokePayload(chunk, upper)
		case ModeModern:
			if c.opts.HighlightWords {
				event.Payload = c.highlightPayload(chunk, upper)
			} else {
				event.Payload = upper.String(chunk.Text())
			}
		default:
			event.Payload = upper.String(chunk.Text())
		}
		events = append(events, event)
	}
	return events
}

func (c *Compiler) highlightPayload(chunk transcript.Chunk, upper cases.Caser) string {
	parts := make([]string, len(chunk.Words))
	for i, w := range chunk.Words {
		text := upper.String(w.Text)
		if c.emphasise(w.Text) {
			text = `{\r` + string(StyleHighlight) + `}` + text + `{\r}`
		}
		parts[i] = text
	}
	return strings.Join(parts, " ")
}

func (c *Compiler) emphasise(word string) bool {
	letters := 0
	allUpper := true
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if !unicode.IsUpper(r) {
			allUpper = false
		}
	}
	if letters >= c.opts.HighlightMinLength {
		return true
	}
	return letters > 1 && allUpper
}

// karaokePayload emits {\kN}WORD directives. Durations are truncated
// centiseconds measured from the chunk start and the cursor only moves
// forward. Every word gets at least one tick, so holds and reveals are capped
// to leave room for the words still to come; the running total lands on the
// last word's end unless the chunk is shorter than one tick per word.
func karaokePayload(chunk transcript.Chunk, upper cases.Caser) string {
	parts := make([]string, 0, len(chunk.Words))
	n := len(chunk.Words)
	if n == 0 {
		return ""
	}
	lastEndCS := timecode.CentisecondSpan(chunk.Start, chunk.Words[n-1].End)
	cursor := 0
	for i, w := range chunk.Words {
		var b strings.Builder
		ceiling := lastEndCS - (n-1-i)*minTickCentis
		startCS := timecode.CentisecondSpan(chunk.Start, w.Start)
		endCS := min(timecode.CentisecondSpan(chunk.Start, w.End), ceiling)
		if gap := min(startCS, ceiling-minTickCentis) - cursor; gap >= silenceHoldCentis {
			writeDirective(&b, gap)
			cursor += gap
		}
		reveal := max(endCS-cursor, minTickCentis)
		writeDirective(&b, reveal)
		cursor += reveal
		b.WriteString(upper.String(w.Text))
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}

func writeDirective(b *strings.Builder, centis int) {
	b.WriteString(`{\k`)
	b.WriteString(strconv.Itoa(centis))
	b.WriteByte('}')
}
