package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// wire mirrors the union of the Whisper verbose_json and WhisperX payloads.
type wire struct {
	Text     string        `json:"text"`
	Language string        `json:"language"`
	Segments []wireSegment `json:"segments"`
	Words    []wireWord    `json:"words"`
}

type wireSegment struct {
	Text  string           `json:"text"`
	Start *decimal.Decimal `json:"start"`
	End   *decimal.Decimal `json:"end"`
	Words []wireWord       `json:"words"`
}

type wireWord struct {
	Word  string           `json:"word"`
	Text  string           `json:"text"`
	Start *decimal.Decimal `json:"start"`
	End   *decimal.Decimal `json:"end"`
}

// Decode reads a transcript JSON document from r.
func Decode(r io.Reader) (Transcript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Transcript{}, fmt.Errorf("read transcript: %w", err)
	}
	return Parse(data)
}

// Parse decodes a transcript JSON document. Only syntactically invalid JSON is
// an error; entries without usable timing are silently dropped.
func Parse(data []byte) (Transcript, error) {
	var payload wire
	if err := json.Unmarshal(data, &payload); err != nil {
		return Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}

	out := Transcript{
		Text:     strings.TrimSpace(payload.Text),
		Language: strings.TrimSpace(payload.Language),
		Words:    convertWords(payload.Words),
	}
	for _, seg := range payload.Segments {
		start, end, ok := span(seg.Start, seg.End)
		if !ok {
			continue
		}
		out.Segments = append(out.Segments, Segment{
			Start: start,
			End:   end,
			Text:  strings.TrimSpace(seg.Text),
			Words: convertWords(seg.Words),
		})
	}
	return out, nil
}

func convertWords(in []wireWord) []Word {
	if len(in) == 0 {
		return nil
	}
	out := make([]Word, 0, len(in))
	for _, w := range in {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			text = strings.TrimSpace(w.Text)
		}
		if text == "" {
			continue
		}
		start, end, ok := span(w.Start, w.End)
		if !ok {
			continue
		}
		out = append(out, Word{Text: text, Start: start, End: end})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func span(start, end *decimal.Decimal) (float64, float64, bool) {
	if start == nil || end == nil {
		return 0, 0, false
	}
	if start.IsNegative() || end.LessThan(*start) {
		return 0, 0, false
	}
	return start.InexactFloat64(), end.InexactFloat64(), true
}
