// Package transcript holds the typed transcript model shared by the subtitle
// compiler and the pipeline, decodes the JSON shapes returned by Whisper style
// speech-to-text services, and groups timed words into display chunks.
//
// Decoding happens once at the service boundary. Words or segments without
// usable timing are dropped there, so the rest of the repository works with a
// single concrete shape and never probes for optional fields.
package transcript
