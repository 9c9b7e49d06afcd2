// Package strategy drafts the per-video posting plan: a title for the intro
// card, captions, hashtags and platform-specific copy.
//
// Generator sends the transcript (cut to TranscriptLimit characters) plus the
// video's orientation and length class to a JSON-only chat model. Parse is
// lenient about the reply's shape; Text renders the block stored in the
// tracking ledger; Platforms picks the target platforms from orientation.
package strategy
