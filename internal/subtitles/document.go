package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"contentengine/internal/timecode"
	"contentengine/internal/transcript"
)

// Format selects the serialised subtitle notation.
type Format string

const (
	FormatASS Format = "ass"
	FormatSRT Format = "srt"
)

// ParseFormat validates a configured format name.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))) {
	case FormatASS, "":
		return FormatASS, nil
	case FormatSRT:
		return FormatSRT, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", value)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Document is a compiled subtitle file body.
type Document struct {
	Format Format
	Mode   Mode
	Events []Event
	Body   string
}

// Empty reports whether nothing was compiled.
func (d Document) Empty() bool {
	return len(d.Events) == 0
}

// Render compiles t and serialises it. SRT cannot carry karaoke timing, so a
// karaoke request in SRT format falls back to plain chunking.
func (c *Compiler) Render(t transcript.Transcript, mode Mode, format Format) Document {
	if format == FormatSRT && mode == ModeKaraoke {
		mode = ModePlain
	}
	events := c.Compile(t, mode)
	doc := Document{Format: format, Mode: mode, Events: events}
	if len(events) == 0 {
		return doc
	}
	switch format {
	case FormatSRT:
		doc.Body = EncodeSRT(events)
	default:
		doc.Body = c.EncodeASS(events)
	}
	return doc
}

// WriteFile writes the document body to path via a temp file and rename.
func WriteFile(path string, doc Document) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".subtitle-*")
	if err != nil {
		return fmt.Errorf("create temp subtitle: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(doc.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write subtitle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close subtitle: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename subtitle: %w", err)
	}
	return nil
}

// ReadASSEvents parses the Dialogue rows of an ASS file.
func ReadASSEvents(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var events []Event
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		rest, ok := strings.CutPrefix(text, "Dialogue:")
		if !ok {
			continue
		}
		fields := strings.SplitN(strings.TrimSpace(rest), ",", 10)
		if len(fields) != 10 {
			return nil, fmt.Errorf("line %d: expected 10 dialogue fields, got %d", line, len(fields))
		}
		start, err := timecode.DecodeASS(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		end, err := timecode.DecodeASS(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, Event{
			Start:   start,
			End:     end,
			Style:   StyleID(strings.TrimSpace(fields[3])),
			Payload: fields[9],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan subtitles: %w", err)
	}
	return events, nil
}
