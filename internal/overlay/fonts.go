package overlay

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontProvider builds sized faces from a TrueType/OpenType file, falling back
// to the embedded Go Bold font when no path is configured.
type FontProvider struct {
	path string

	once  sync.Once
	font  *opentype.Font
	err   error
	mu    sync.Mutex
	faces map[int]font.Face
}

// NewFontProvider returns a provider for the font at path. An empty path uses
// the embedded fallback.
func NewFontProvider(path string) *FontProvider {
	return &FontProvider{path: strings.TrimSpace(path), faces: make(map[int]font.Face)}
}

// Source describes where glyphs come from, for logs.
func (p *FontProvider) Source() string {
	if p.path == "" {
		return "embedded:gobold"
	}
	return p.path
}

func (p *FontProvider) load() (*opentype.Font, error) {
	p.once.Do(func() {
		data := gobold.TTF
		if p.path != "" {
			raw, err := os.ReadFile(p.path)
			if err != nil {
				p.err = fmt.Errorf("read font %s: %w", p.path, err)
				return
			}
			data = raw
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			p.err = fmt.Errorf("parse font %s: %w", p.Source(), err)
			return
		}
		p.font = parsed
	})
	return p.font, p.err
}

// Face returns a face at size pixels. Faces are cached per size.
func (p *FontProvider) Face(size int) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %d", size)
	}
	parsed, err := p.load()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if face, ok := p.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build face: %w", err)
	}
	p.faces[size] = face
	return face, nil
}

// faceMeasurer measures advance width with a font face.
type faceMeasurer struct {
	face font.Face
}

func (m faceMeasurer) Measure(text string) float64 {
	return fixedToFloat(font.MeasureString(m.face, text))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
