package layout

import (
	"math"
	"strings"
)

// Measurer reports the rendered pixel width of text.
type Measurer interface {
	Measure(text string) float64
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(text string) float64

// Measure implements Measurer.
func (f MeasureFunc) Measure(text string) float64 { return f(text) }

// Canvas is the target image size in pixels.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Portrait reports whether the canvas is taller than it is wide.
func (c Canvas) Portrait() bool {
	return c.Height > c.Width
}

// Options controls wrapping and box geometry.
type Options struct {
	MaxWidthFraction float64
	LineHeightFactor float64
	LineSpacing      float64
	PaddingX         float64
	PaddingY         float64
	CornerRadius     float64
}

// DefaultOptions returns the stock title-card geometry.
func DefaultOptions() Options {
	return Options{
		MaxWidthFraction: 0.85,
		LineHeightFactor: 1.2,
		LineSpacing:      5,
		PaddingX:         30,
		PaddingY:         15,
		CornerRadius:     20,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxWidthFraction <= 0 || o.MaxWidthFraction > 1 {
		o.MaxWidthFraction = d.MaxWidthFraction
	}
	if o.LineHeightFactor <= 0 {
		o.LineHeightFactor = d.LineHeightFactor
	}
	if o.LineSpacing < 0 {
		o.LineSpacing = d.LineSpacing
	}
	if o.PaddingX < 0 {
		o.PaddingX = d.PaddingX
	}
	if o.PaddingY < 0 {
		o.PaddingY = d.PaddingY
	}
	if o.CornerRadius < 0 {
		o.CornerRadius = d.CornerRadius
	}
	return o
}

// Box is an axis-aligned rectangle in canvas pixels.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width of the box.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height of the box.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Word is one display token.
type Word struct {
	Text      string  `json:"text"`
	Highlight bool    `json:"highlight,omitempty"`
	Offset    float64 `json:"offset"`
}

// Line is one wrapped row with its own hugging background box.
type Line struct {
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
	Width float64 `json:"width"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Box   Box     `json:"box"`
}

// Spec is the computed overlay geometry.
type Spec struct {
	Canvas       Canvas  `json:"canvas"`
	Lines        []Line  `json:"lines"`
	Box          Box     `json:"box"`
	FontSize     int     `json:"font_size"`
	LineHeight   int     `json:"line_height"`
	LineSpacing  float64 `json:"line_spacing"`
	CornerRadius float64 `json:"corner_radius"`
	MaxWidth     float64 `json:"max_width"`
}

// Texts returns the plain text of each line.
func (s Spec) Texts() []string {
	out := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Text
	}
	return out
}

// FontSizeFor returns the title font size for a canvas: 5% of the height in
// portrait, 6% otherwise.
func FontSizeFor(c Canvas) int {
	if c.Portrait() {
		return int(float64(c.Height) * 0.05)
	}
	return int(float64(c.Height) * 0.06)
}

// Layout wraps title and positions the block at the canvas centre. fontSize
// is the size the measurer was built for; zero derives it from the canvas.
func Layout(title string, canvas Canvas, fontSize int, m Measurer, opts Options) Spec {
	opts = opts.withDefaults()
	if fontSize <= 0 {
		fontSize = FontSizeFor(canvas)
	}
	lineHeight := int(float64(fontSize) * opts.LineHeightFactor)
	maxWidth := float64(canvas.Width) * opts.MaxWidthFraction

	spec := Spec{
		Canvas:       canvas,
		FontSize:     fontSize,
		LineHeight:   lineHeight,
		LineSpacing:  opts.LineSpacing,
		CornerRadius: opts.CornerRadius,
		MaxWidth:     maxWidth,
	}

	rows := Wrap(ParseMarkup(title), m, maxWidth)
	if len(rows) == 0 {
		return spec
	}

	n := float64(len(rows))
	blockHeight := n*float64(lineHeight) + (n-1)*opts.LineSpacing
	startY := math.Floor((float64(canvas.Height) - blockHeight) / 2)

	blockWidth := 0.0
	for i, words := range rows {
		text := joinWords(words)
		width := m.Measure(text)
		blockWidth = math.Max(blockWidth, width)
		x := math.Floor((float64(canvas.Width) - width) / 2)
		y := startY + float64(i)*(float64(lineHeight)+opts.LineSpacing)
		spec.Lines = append(spec.Lines, Line{
			Text:  text,
			Words: withOffsets(words, m),
			Width: width,
			X:     x,
			Y:     y,
			Box: Box{
				X1: x - opts.PaddingX,
				Y1: y - opts.PaddingY,
				X2: x + width + opts.PaddingX,
				Y2: y + float64(lineHeight) + opts.PaddingY,
			},
		})
	}
	blockX := math.Floor((float64(canvas.Width) - blockWidth) / 2)
	spec.Box = Box{
		X1: blockX - opts.PaddingX,
		Y1: startY - opts.PaddingY,
		X2: blockX + blockWidth + opts.PaddingX,
		Y2: startY + blockHeight + opts.PaddingY,
	}
	return spec
}

// ParseMarkup splits title on whitespace and resolves *highlight* spans. A
// span may cover several words; markers are removed from the text.
func ParseMarkup(title string) []Word {
	tokens := strings.Fields(title)
	words := make([]Word, 0, len(tokens))
	inSpan := false
	for _, token := range tokens {
		if token == "*" {
			inSpan = !inSpan
			continue
		}
		opens := strings.HasPrefix(token, "*")
		closes := strings.HasSuffix(token, "*")
		highlight := inSpan || opens
		switch {
		case opens && !closes:
			inSpan = true
		case closes && !opens && inSpan:
			inSpan = false
		}
		text := strings.ReplaceAll(token, "*", "")
		if text == "" {
			continue
		}
		words = append(words, Word{Text: text, Highlight: highlight})
	}
	return words
}

// Wrap greedily packs words into rows no wider than maxWidth. A word that is
// wider than maxWidth on its own occupies a row by itself.
func Wrap(words []Word, m Measurer, maxWidth float64) [][]Word {
	var rows [][]Word
	var current []Word
	for _, w := range words {
		if len(current) == 0 {
			current = []Word{w}
			continue
		}
		candidate := joinWords(current) + " " + w.Text
		if m.Measure(candidate) <= maxWidth {
			current = append(current, w)
			continue
		}
		rows = append(rows, current)
		current = []Word{w}
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}
	return rows
}

func joinWords(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func withOffsets(words []Word, m Measurer) []Word {
	out := make([]Word, len(words))
	prefix := ""
	for i, w := range words {
		if i > 0 {
			prefix += " "
			w.Offset = m.Measure(prefix)
		}
		out[i] = w
		prefix += w.Text
	}
	return out
}
