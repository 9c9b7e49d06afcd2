package subtitles

import (
	"regexp"
	"strconv"
	"strings"

	"contentengine/internal/timecode"
)

const (
	styleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
	eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

var overrideBlock = regexp.MustCompile(`\{[^}]*\}`)

// EncodeASS serialises events with the compiler's header and style table.
func (c *Compiler) EncodeASS(events []Event) string {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("PlayResX: " + strconv.Itoa(c.opts.PlayResX) + "\n")
	b.WriteString("PlayResY: " + strconv.Itoa(c.opts.PlayResY) + "\n")
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString(styleFormat + "\n")
	for _, style := range c.styles {
		b.WriteString(style.Line())
		b.WriteByte('\n')
	}
	b.WriteString("\n[Events]\n")
	b.WriteString(eventFormat + "\n")
	for _, ev := range events {
		b.WriteString(DialogueLine(ev))
		b.WriteByte('\n')
	}
	return b.String()
}

// DialogueLine renders a single ASS Dialogue row.
func DialogueLine(ev Event) string {
	return "Dialogue: 0," + timecode.EncodeASS(ev.Start) + "," + timecode.EncodeASS(ev.End) + "," +
		string(ev.Style) + ",,0,0,0,," + ev.Payload
}

// EncodeSRT serialises events as numbered SRT blocks. Override tags are
// stripped since SRT has no equivalent.
func EncodeSRT(events []Event) string {
	var b strings.Builder
	index := 0
	for _, ev := range events {
		text := strings.Join(strings.Fields(overrideBlock.ReplaceAllString(ev.Payload, "")), " ")
		if text == "" {
			continue
		}
		index++
		b.WriteString(strconv.Itoa(index))
		b.WriteByte('\n')
		b.WriteString(timecode.EncodeSRT(ev.Start))
		b.WriteString(" --> ")
		b.WriteString(timecode.EncodeSRT(ev.End))
		b.WriteByte('\n')
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// DirectiveTotal sums the \k durations in a karaoke payload, in centiseconds.
func DirectiveTotal(payload string) int {
	total := 0
	for _, match := range karaokeDirective.FindAllStringSubmatch(payload, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		total += n
	}
	return total
}

var karaokeDirective = regexp.MustCompile(`\{\\k(\d+)\}`)
