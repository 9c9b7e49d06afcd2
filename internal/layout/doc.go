// Package layout computes title-card geometry: greedy line wrapping against a
// caller-supplied text measurer, *word* highlight markers, and the rounded
// background boxes drawn behind each line.
//
// Layout is a pure function of its inputs. Font metrics arrive through the
// Measurer interface so the engine can be exercised with synthetic metrics in
// tests and with real font faces in the overlay renderer.
package layout
