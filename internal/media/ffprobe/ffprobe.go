package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Only the fields the pipeline decides on are requested.
const showEntries = "stream=index,codec_name,codec_type,width,height,duration:" +
	"stream_tags=rotate:stream_side_data=side_data_type,rotation:format=duration"

// Result is the decoded ffprobe report.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one elementary stream. Duration is a decimal string as ffprobe
// prints it.
type Stream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []SideData        `json:"side_data_list"`
}

// SideData carries the display matrix rotation phones record.
type SideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// Format is the container section.
type Format struct {
	Duration string `json:"duration"`
}

// Inspect runs binary (ffprobe when empty) on path.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner",
		"-show_entries", showEntries, "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(output)
}

// Parse decodes an ffprobe JSON report.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, s := range r.Streams {
		if s.isType("video") {
			return s, true
		}
	}
	return Stream{}, false
}

// CountStreams counts streams of codecType ("video", "audio", ...).
func (r Result) CountStreams(codecType string) int {
	n := 0
	for _, s := range r.Streams {
		if s.isType(codecType) {
			n++
		}
	}
	return n
}

// DurationSeconds is the container duration, 0 when missing or malformed.
func (r Result) DurationSeconds() float64 {
	return parseSeconds(r.Format.Duration)
}

func (s Stream) isType(codecType string) bool {
	return strings.EqualFold(s.CodecType, codecType)
}

func parseSeconds(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
