package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

// Removal reasons reported by Filter.
const (
	RemovedIsolated = "isolated_hallucination"
	RemovedRepeated = "repeated_hallucination"
	RemovedMusic    = "music_symbols"
	RemovedTrailing = "trailing_hallucination"
)

// Phrases speech-to-text models emit over silence, in normalized form.
var hallucinationPhrases = map[string]bool{
	"thank you":              true,
	"thank you for watching": true,
	"thanks for watching":    true,
	"please subscribe":       true,
	"like and subscribe":     true,
	"bye":                    true,
	"bye bye":                true,
	"see you next time":      true,
	"see you later":          true,
	"you":                    true,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// FilterOptions tunes hallucination removal. Thresholds are in seconds.
type FilterOptions struct {
	// IsolationSeconds is the silence required on both sides of a segment
	// before a stock phrase is treated as invented.
	IsolationSeconds float64
	// RepeatGapSeconds is the minimum gap between identical segments for a
	// run of them to count as a loop.
	RepeatGapSeconds float64
	RepeatRun        int
	// TrailingSeconds is the window at the end of the video in which stock
	// phrases are dropped without the isolation requirement.
	TrailingSeconds float64
}

// DefaultFilterOptions is sized for clips of a few minutes.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{IsolationSeconds: 2, RepeatGapSeconds: 2, RepeatRun: 3, TrailingSeconds: 5}
}

// Removal records one dropped segment.
type Removal struct {
	Segment Segment
	Reason  string
}

// Filter drops segments that are silence artifacts rather than speech: stock
// sign-off phrases surrounded by silence, loops of the same line, bare music
// symbols, and stock phrases in the last seconds of the video. Words inside a
// dropped segment's span are removed from the flat word list as well.
// duration is the video length in seconds; zero disables the trailing sweep.
func Filter(t Transcript, duration float64, opts FilterOptions) (Transcript, []Removal) {
	if len(t.Segments) == 0 {
		return t, nil
	}
	drop := make([]string, len(t.Segments))
	markRepeated(t.Segments, drop, opts)

	segs := t.Segments
	trailingFrom := -1.0
	if duration > 0 && opts.TrailingSeconds > 0 && duration >= 2*opts.TrailingSeconds {
		trailingFrom = duration - opts.TrailingSeconds
	}
	for i, seg := range segs {
		if drop[i] != "" {
			continue
		}
		norm := normalize(seg.Text)
		isolated := gapBefore(segs, i) >= opts.IsolationSeconds && gapAfter(segs, i) >= opts.IsolationSeconds
		switch {
		case isMusicOnly(seg.Text) && (isolated || (trailingFrom >= 0 && seg.Start >= trailingFrom)):
			drop[i] = RemovedMusic
		case hallucinationPhrases[norm] && isolated:
			drop[i] = RemovedIsolated
		case hallucinationPhrases[norm] && trailingFrom >= 0 && seg.Start >= trailingFrom:
			drop[i] = RemovedTrailing
		}
	}

	var removals []Removal
	kept := make([]Segment, 0, len(segs))
	for i, seg := range segs {
		if drop[i] == "" {
			kept = append(kept, seg)
			continue
		}
		removals = append(removals, Removal{Segment: seg, Reason: drop[i]})
	}
	if len(removals) == 0 {
		return t, nil
	}

	out := t
	out.Segments = kept
	out.Words = wordsOutside(t.Words, removals)
	parts := make([]string, 0, len(kept))
	for _, seg := range kept {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	out.Text = strings.Join(parts, " ")
	return out, removals
}

func markRepeated(segs []Segment, drop []string, opts FilterOptions) {
	minRun := opts.RepeatRun
	if minRun < 2 {
		return
	}
	for i := 0; i < len(segs); {
		norm := normalize(segs[i].Text)
		if norm == "" {
			i++
			continue
		}
		end := i + 1
		for end < len(segs) && normalize(segs[end].Text) == norm && segs[end].Start-segs[end-1].End > opts.RepeatGapSeconds {
			end++
		}
		if end-i >= minRun {
			for j := i; j < end; j++ {
				drop[j] = RemovedRepeated
			}
		}
		i = end
	}
}

func gapBefore(segs []Segment, i int) float64 {
	if i == 0 {
		return segs[i].Start
	}
	return segs[i].Start - segs[i-1].End
}

func gapAfter(segs []Segment, i int) float64 {
	if i >= len(segs)-1 {
		return 1e9
	}
	return segs[i+1].Start - segs[i].End
}

func wordsOutside(words []Word, removals []Removal) []Word {
	if len(words) == 0 {
		return words
	}
	out := make([]Word, 0, len(words))
	for _, w := range words {
		// Word spans often overhang segment edges by a few ms; the midpoint
		// decides which segment a word belongs to.
		mid := (w.Start + w.End) / 2
		inside := false
		for _, r := range removals {
			if mid >= r.Segment.Start && mid <= r.Segment.End {
				inside = true
				break
			}
		}
		if !inside {
			out = append(out, w)
		}
	}
	return out
}

func normalize(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "")
	return strings.Join(strings.Fields(s), " ")
}

// isMusicOnly reports text made only of music notation and whitespace.
func isMusicOnly(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, r := range text {
		switch {
		case r == '¶', r == '♪', r == '♫', r == '*':
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return true
}
