package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"contentengine/internal/services/llm"
)

// TranscriptLimit bounds how much transcript text reaches the prompt.
const TranscriptLimit = 4000

// SystemPrompt pins the model to raw JSON output.
const SystemPrompt = "You are a social media expert. Output ONLY valid raw JSON."

const notAvailable = "N/A"

// Orientation values reported by the media probe.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Context describes the video the strategy is for.
type Context struct {
	Orientation    string
	LengthCategory string
}

// Strategy is the decoded model reply.
type Strategy struct {
	Title         string
	Caption       string
	Hashtags      string
	LinkedInPost  string
	TikTokCaption string
	Raw           string
}

// Empty reports whether the model produced nothing usable.
func (s Strategy) Empty() bool {
	return s.Title == "" && s.Caption == "" && s.Hashtags == "" && s.LinkedInPost == "" && s.TikTokCaption == ""
}

// TitleOr returns the title, or fallback when the model gave none.
func (s Strategy) TitleOr(fallback string) string {
	if s.Title != "" {
		return s.Title
	}
	return fallback
}

// Text renders the strategy block written to the ledger.
func (s Strategy) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n\nCAPTION: %s\n\nHASHTAGS: %s", orNA(s.Title), orNA(s.Caption), orNA(s.Hashtags))
	if s.LinkedInPost != "" {
		fmt.Fprintf(&b, "\n\nLINKEDIN: %s", s.LinkedInPost)
	}
	if s.TikTokCaption != "" {
		fmt.Fprintf(&b, "\n\nTIKTOK: %s", s.TikTokCaption)
	}
	return b.String()
}

func orNA(value string) string {
	if value == "" {
		return notAvailable
	}
	return value
}

// Platforms lists the publishing targets for an orientation.
func Platforms(orientation string) []string {
	if strings.EqualFold(strings.TrimSpace(orientation), OrientationPortrait) {
		return []string{"TikTok", "Instagram Reels", "YouTube Shorts"}
	}
	return []string{"YouTube Long-form", "LinkedIn"}
}

// BuildPrompt renders the user prompt for a transcript.
func BuildPrompt(transcriptText string, c Context) string {
	excerpt := strings.TrimSpace(transcriptText)
	if runes := []rune(excerpt); len(runes) > TranscriptLimit {
		excerpt = string(runes[:TranscriptLimit]) + "... (truncated)"
	}
	var b strings.Builder
	b.WriteString("Video Context:\n")
	fmt.Fprintf(&b, "Transcript: %s\n", excerpt)
	fmt.Fprintf(&b, "Duration Category: %s\n", c.LengthCategory)
	fmt.Fprintf(&b, "Orientation: %s\n\n", c.Orientation)
	b.WriteString("Task: Generate social media content.\n")
	b.WriteString("Output JSON with keys: 'title', 'caption', 'hashtags', 'linkedin_post' (if landscape/long), 'tiktok_caption' (if portrait).\n\n")
	b.WriteString("IMPORTANT: For the 'title', wrap 1-2 most important \"impact\" keywords in asterisks (*) for highlighting.\n")
	b.WriteString("Example: \"Watch This *INSANE* Trick\" or \"How to *FIX* Your *SLEEP*\"")
	return b.String()
}

type wireStrategy struct {
	Title         string          `json:"title"`
	Caption       string          `json:"caption"`
	Hashtags      json.RawMessage `json:"hashtags"`
	LinkedInPost  string          `json:"linkedin_post"`
	TikTokCaption string          `json:"tiktok_caption"`
}

// Parse decodes a model reply. Hashtags may arrive as a string or a list.
func Parse(content string) (Strategy, error) {
	var wire wireStrategy
	if err := llm.DecodeJSON(content, &wire); err != nil {
		return Strategy{}, fmt.Errorf("parse strategy: %w", err)
	}
	return Strategy{
		Title:         strings.TrimSpace(wire.Title),
		Caption:       strings.TrimSpace(wire.Caption),
		Hashtags:      normalizeHashtags(wire.Hashtags),
		LinkedInPost:  strings.TrimSpace(wire.LinkedInPost),
		TikTokCaption: strings.TrimSpace(wire.TikTokCaption),
		Raw:           content,
	}, nil
}

// normalizeHashtags prefixes every tag with '#' and drops case-insensitive
// duplicates, keeping first spellings.
func normalizeHashtags(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var tags []string
	var list []string
	var single string
	switch {
	case json.Unmarshal(raw, &list) == nil:
		for _, entry := range list {
			tags = append(tags, strings.Fields(entry)...)
		}
	case json.Unmarshal(raw, &single) == nil:
		tags = strings.Fields(strings.ReplaceAll(single, ",", " "))
	default:
		return ""
	}

	fold := cases.Fold()
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Trim(tag, ",;")
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		key := fold.String(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return strings.Join(out, " ")
}

// Completer is the chat capability Generator needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator drafts strategies through a chat model.
type Generator struct {
	client Completer
}

// NewGenerator wraps a chat client.
func NewGenerator(client Completer) *Generator {
	return &Generator{client: client}
}

// Generate asks the model for a strategy.
func (g *Generator) Generate(ctx context.Context, transcriptText string, c Context) (Strategy, error) {
	content, err := g.client.CompleteJSON(ctx, SystemPrompt, BuildPrompt(transcriptText, c))
	if err != nil {
		return Strategy{}, err
	}
	return Parse(content)
}
