package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"contentengine/internal/logging"
	"contentengine/internal/stage"
	"contentengine/internal/strategy"
)

// Strategist asks the chat model for a title and captions. A failed or empty
// reply degrades to the configured default title instead of failing the item.
type Strategist struct {
	generator    StrategyGenerator
	defaultTitle string
	keyIsSet     bool
	logger       *slog.Logger
}

// NewStrategist constructs the strategy stage.
func NewStrategist(d Dependencies) *Strategist {
	s := &Strategist{generator: d.Strategist, defaultTitle: "Watch This!", logger: d.Logger}
	if d.Config != nil {
		if title := strings.TrimSpace(d.Config.Intro.DefaultTitle); title != "" {
			s.defaultTitle = title
		}
		s.keyIsSet = strings.TrimSpace(d.Config.LLM.APIKey) != ""
	}
	return s
}

// SetLogger implements stage.LoggerAware.
func (s *Strategist) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *Strategist) Prepare(_ context.Context, job *stage.Job) error {
	if err := stage.Require("strategy", job.Metadata != nil, "video metadata"); err != nil {
		return err
	}
	return stage.Require("strategy", job.Transcript != nil, "transcript")
}

func (s *Strategist) Execute(ctx context.Context, job *stage.Job) error {
	text := job.Transcript.PlainText()
	var result strategy.Strategy
	switch {
	case strings.TrimSpace(text) == "":
		logging.WarnWithContext(s.logger, "transcript is empty; using default strategy", "strategy_defaulted",
			logging.String(logging.FieldImpact, "video is published with the default title"),
			logging.String(logging.FieldErrorHint, "check the audio track if speech was expected"),
		)
	case s.generator == nil:
		logging.WarnWithContext(s.logger, "strategy generator unavailable; using default strategy", "strategy_defaulted",
			logging.String(logging.FieldImpact, "video is published with the default title"),
			logging.String(logging.FieldErrorHint, "set llm.api_key"),
		)
	default:
		generated, err := s.generator.Generate(ctx, text, strategy.Context{
			Orientation:    job.Metadata.Orientation,
			LengthCategory: job.Metadata.LengthCategory,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.WarnWithContext(s.logger, "strategy generation failed; using default strategy", "strategy_defaulted",
				logging.Error(err),
				logging.String(logging.FieldImpact, "video is published with the default title"),
				logging.String(logging.FieldErrorHint, "check llm.model and the OpenRouter account"),
			)
		} else {
			result = generated
		}
	}

	strat := result
	strat.Title = result.TitleOr(s.defaultTitle)
	job.Strategy = &strat
	job.Item.Title = strat.Title
	job.Item.StrategyText = strat.Text()
	job.Item.Platforms = strategy.Platforms(job.Metadata.Orientation)
	if s.logger != nil {
		s.logger.Info("strategy ready",
			logging.String(logging.FieldEventType, "strategy_complete"),
			logging.String("title", strat.Title),
			logging.String("platforms", job.Item.PlatformList()),
		)
	}
	return nil
}

func (s *Strategist) HealthCheck(context.Context) stage.Health {
	if s.generator == nil || !s.keyIsSet {
		return stage.Unhealthy("strategy", "llm.api_key not set; default titles will be used")
	}
	return stage.Healthy("strategy")
}
