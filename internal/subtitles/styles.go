package subtitles

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StyleID names a style row in the ASS style table.
type StyleID string

const (
	StyleDefault   StyleID = "Default"
	StyleHighlight StyleID = "Highlight"
	StyleKaraoke   StyleID = "Karaoke"
)

// Style mirrors one V4+ style row. Colours use the &HAABBGGRR notation.
type Style struct {
	Name            StyleID `toml:"name"`
	Fontname        string  `toml:"font"`
	Fontsize        int     `toml:"size"`
	PrimaryColour   string  `toml:"primary_colour"`
	SecondaryColour string  `toml:"secondary_colour"`
	OutlineColour   string  `toml:"outline_colour"`
	BackColour      string  `toml:"back_colour"`
	Bold            bool    `toml:"bold"`
	Italic          bool    `toml:"italic"`
	Underline       bool    `toml:"underline"`
	StrikeOut       bool    `toml:"strike_out"`
	ScaleX          int     `toml:"scale_x"`
	ScaleY          int     `toml:"scale_y"`
	Spacing         float64 `toml:"spacing"`
	Angle           float64 `toml:"angle"`
	BorderStyle     int     `toml:"border_style"`
	Outline         float64 `toml:"outline"`
	Shadow          float64 `toml:"shadow"`
	Alignment       int     `toml:"alignment"`
	MarginL         int     `toml:"margin_l"`
	MarginR         int     `toml:"margin_r"`
	MarginV         int     `toml:"margin_v"`
	Encoding        int     `toml:"encoding"`
}

// Line renders the style as an ASS "Style:" row.
func (s Style) Line() string {
	fields := []string{
		string(s.Name),
		s.Fontname,
		strconv.Itoa(s.Fontsize),
		s.PrimaryColour,
		s.SecondaryColour,
		s.OutlineColour,
		s.BackColour,
		assBool(s.Bold),
		assBool(s.Italic),
		assBool(s.Underline),
		assBool(s.StrikeOut),
		strconv.Itoa(s.ScaleX),
		strconv.Itoa(s.ScaleY),
		assNumber(s.Spacing),
		assNumber(s.Angle),
		strconv.Itoa(s.BorderStyle),
		assNumber(s.Outline),
		assNumber(s.Shadow),
		strconv.Itoa(s.Alignment),
		strconv.Itoa(s.MarginL),
		strconv.Itoa(s.MarginR),
		strconv.Itoa(s.MarginV),
		strconv.Itoa(s.Encoding),
	}
	return "Style: " + strings.Join(fields, ",")
}

// StyleTable is the ordered set of styles written into the ASS header.
type StyleTable []Style

// DefaultStyles returns the stock table: a bold white caption, a yellow
// highlight variant, and a boxed karaoke style.
func DefaultStyles() StyleTable {
	base := Style{
		Name:            StyleDefault,
		Fontname:        "Impact",
		Fontsize:        90,
		PrimaryColour:   "&H00FFFFFF",
		SecondaryColour: "&H000000FF",
		OutlineColour:   "&H00000000",
		BackColour:      "&H00000000",
		Bold:            true,
		ScaleX:          100,
		ScaleY:          100,
		BorderStyle:     1,
		Outline:         8,
		Alignment:       2,
		MarginL:         50,
		MarginR:         50,
		MarginV:         200,
		Encoding:        1,
	}
	highlight := base
	highlight.Name = StyleHighlight
	highlight.PrimaryColour = "&H0000FFFF"
	highlight.ScaleX = 105
	highlight.ScaleY = 105

	karaoke := base
	karaoke.Name = StyleKaraoke
	karaoke.Fontname = "Montserrat"
	karaoke.Fontsize = 80
	karaoke.PrimaryColour = "&H00372F72"
	karaoke.SecondaryColour = "&H00FFFFFF"
	karaoke.OutlineColour = "&H00FFFFFF"
	karaoke.BorderStyle = 3
	karaoke.Outline = 6

	return StyleTable{base, highlight, karaoke}
}

// Lookup returns the style with the given name.
func (t StyleTable) Lookup(id StyleID) (Style, bool) {
	for _, s := range t {
		if s.Name == id {
			return s, true
		}
	}
	return Style{}, false
}

// Validate checks that the table carries every style the compiler emits.
func (t StyleTable) Validate() error {
	seen := make(map[StyleID]struct{}, len(t))
	for _, s := range t {
		if strings.TrimSpace(string(s.Name)) == "" {
			return errors.New("subtitle style missing name")
		}
		if strings.ContainsAny(string(s.Name)+s.Fontname, ",\n") {
			return fmt.Errorf("subtitle style %q: name and font must not contain commas or newlines", s.Name)
		}
		if s.Fontsize <= 0 {
			return fmt.Errorf("subtitle style %q: font size must be positive", s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("subtitle style %q defined twice", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	for _, required := range []StyleID{StyleDefault, StyleHighlight, StyleKaraoke} {
		if _, ok := seen[required]; !ok {
			return fmt.Errorf("subtitle style %q is required", required)
		}
	}
	return nil
}

func assBool(v bool) string {
	if v {
		return "-1"
	}
	return "0"
}

func assNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
