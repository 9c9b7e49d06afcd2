package ffprobe

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ShortMaxSeconds is the longest duration still classed as short-form.
const ShortMaxSeconds = 180

// Orientation and length classes.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
	LengthShort          = "short"
	LengthLong           = "long"
)

// ErrNoVideoStream reports a container without a video stream.
var ErrNoVideoStream = errors.New("no video stream")

// Metadata summarizes what the pipeline decides on.
type Metadata struct {
	Width          int
	Height         int
	Duration       float64
	Orientation    string
	LengthCategory string
	HasAudio       bool
}

// Portrait reports whether the displayed frame is taller than wide.
func (m Metadata) Portrait() bool {
	return m.Orientation == OrientationPortrait
}

// Short reports whether the video falls in the short-form class.
func (m Metadata) Short() bool {
	return m.LengthCategory == LengthShort
}

// Metadata derives display geometry and classes using shortMax seconds as
// the short-form limit (ShortMaxSeconds when <= 0). Width >= height counts as
// landscape, so square video is landscape.
func (r Result) Metadata(shortMax float64) (Metadata, error) {
	stream, ok := r.VideoStream()
	if !ok {
		return Metadata{}, ErrNoVideoStream
	}
	if shortMax <= 0 {
		shortMax = ShortMaxSeconds
	}
	width, height := stream.Width, stream.Height
	if quarterTurn(stream.rotation()) {
		width, height = height, width
	}
	duration := parseSeconds(stream.Duration)
	if duration == 0 {
		duration = r.DurationSeconds()
	}
	meta := Metadata{
		Width:          width,
		Height:         height,
		Duration:       duration,
		Orientation:    OrientationLandscape,
		LengthCategory: LengthLong,
		HasAudio:       r.CountStreams("audio") > 0,
	}
	if width < height {
		meta.Orientation = OrientationPortrait
	}
	if duration <= shortMax {
		meta.LengthCategory = LengthShort
	}
	return meta, nil
}

func (s Stream) rotation() float64 {
	for _, side := range s.SideDataList {
		if side.Rotation != 0 {
			return side.Rotation
		}
	}
	if raw, ok := s.Tags["rotate"]; ok {
		if value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return value
		}
	}
	return 0
}

func quarterTurn(degrees float64) bool {
	turns := math.Mod(math.Abs(degrees), 180)
	return math.Abs(turns-90) < 1
}
