package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"contentengine/internal/layout"
)

// Palette holds the overlay colours.
type Palette struct {
	Box       color.RGBA
	Text      color.RGBA
	Highlight color.RGBA
}

// DefaultPalette is black text on white boxes with a red accent.
func DefaultPalette() Palette {
	return Palette{
		Box:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Text:      color.RGBA{A: 255},
		Highlight: color.RGBA{R: 220, G: 20, B: 60, A: 255},
	}
}

// Renderer draws title cards.
type Renderer struct {
	fonts   *FontProvider
	opts    layout.Options
	palette Palette
}

// NewRenderer constructs a renderer.
func NewRenderer(fonts *FontProvider, opts layout.Options, palette Palette) *Renderer {
	if fonts == nil {
		fonts = NewFontProvider("")
	}
	return &Renderer{fonts: fonts, opts: opts, palette: palette}
}

// Render lays out title for canvas and paints it onto a transparent image.
func (r *Renderer) Render(title string, canvas layout.Canvas) (*image.RGBA, layout.Spec, error) {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return nil, layout.Spec{}, fmt.Errorf("invalid canvas %dx%d", canvas.Width, canvas.Height)
	}
	size := layout.FontSizeFor(canvas)
	face, err := r.fonts.Face(size)
	if err != nil {
		return nil, layout.Spec{}, err
	}
	spec := layout.Layout(title, canvas, size, faceMeasurer{face: face}, r.opts)

	img := image.NewRGBA(image.Rect(0, 0, canvas.Width, canvas.Height))
	for _, line := range spec.Lines {
		fillRoundedRect(img, line.Box, spec.CornerRadius, r.palette.Box)
	}

	metrics := face.Metrics()
	ascent := fixedToFloat(metrics.Ascent)
	textHeight := ascent + fixedToFloat(metrics.Descent)
	for _, line := range spec.Lines {
		baseline := line.Y + (float64(spec.LineHeight)-textHeight)/2 + ascent
		for _, word := range line.Words {
			ink := r.palette.Text
			if word.Highlight {
				ink = r.palette.Highlight
			}
			d := font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(ink),
				Face: face,
				Dot:  fixed.Point26_6{X: floatToFixed(line.X + word.Offset), Y: floatToFixed(baseline)},
			}
			d.DrawString(word.Text)
		}
	}
	return img, spec, nil
}

// fillRoundedRect paints an opaque rounded rectangle clipped to dst.
func fillRoundedRect(dst *image.RGBA, box layout.Box, radius float64, c color.RGBA) {
	bounds := dst.Bounds()
	x0 := max(int(math.Floor(box.X1)), bounds.Min.X)
	y0 := max(int(math.Floor(box.Y1)), bounds.Min.Y)
	x1 := min(int(math.Ceil(box.X2)), bounds.Max.X)
	y1 := min(int(math.Ceil(box.Y2)), bounds.Max.Y)
	radius = math.Min(radius, math.Min(box.Width(), box.Height())/2)
	for y := y0; y < y1; y++ {
		py := float64(y) + 0.5
		for x := x0; x < x1; x++ {
			if insideRounded(float64(x)+0.5, py, box, radius) {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

func insideRounded(px, py float64, box layout.Box, radius float64) bool {
	if px < box.X1 || px > box.X2 || py < box.Y1 || py > box.Y2 {
		return false
	}
	cx := math.Min(math.Max(px, box.X1+radius), box.X2-radius)
	cy := math.Min(math.Max(py, box.Y1+radius), box.Y2-radius)
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= radius*radius
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// Composite draws overlay on top of frame, scaling the overlay to the frame
// size when they differ.
func Composite(frame image.Image, overlay image.Image) *image.RGBA {
	bounds := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(out, out.Bounds(), frame, bounds.Min, xdraw.Src)
	if overlay.Bounds().Size() == bounds.Size() {
		xdraw.Draw(out, out.Bounds(), overlay, overlay.Bounds().Min, xdraw.Over)
		return out
	}
	xdraw.CatmullRom.Scale(out, out.Bounds(), overlay, overlay.Bounds(), xdraw.Over, nil)
	return out
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create overlay dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create overlay: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode overlay: %w", err)
	}
	return f.Close()
}

// ReadPNG decodes a PNG from path.
func ReadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
