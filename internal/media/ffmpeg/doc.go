// Package ffmpeg runs the encoder operations behind the render stages:
// audio extraction for transcription, subtitle burn-in, first-frame capture,
// intro clip generation, overlay compositing and concatenation.
package ffmpeg
