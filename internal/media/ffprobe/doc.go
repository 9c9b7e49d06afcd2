// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Metadata: the display geometry and length class the pipeline decides on
//
// Inspect executes ffprobe and returns the parsed Result; Result.Metadata
// applies rotation side data so phone footage recorded sideways still
// reports its displayed orientation.
package ffprobe
