// Package timecode converts second offsets into the two subtitle timestamp
// notations the compiler emits: comma-millisecond (SRT) and colon-centisecond
// (ASS).
//
// Conversions go through shopspring/decimal so values such as 61.123 render
// exactly instead of picking up binary floating point residue. Negative input
// is a programming error and panics.
package timecode
