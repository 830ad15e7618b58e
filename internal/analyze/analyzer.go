// Package analyze turns a gathered data bundle into a coaching analysis via
// a configurable LLM provider.
package analyze

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Options configures the analyzer's model and sampling.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
}

// Analyzer drives one model with the embedded coaching prompts.
type Analyzer struct {
	model  llms.Model
	opts   Options
	logger *slog.Logger
}

// NewAnalyzer validates the prompts and builds the provider's model.
func NewAnalyzer(ctx context.Context, opts Options, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidatePrompts(); err != nil {
		return nil, err
	}

	model, err := newModel(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("analyzer initialized",
		slog.String("provider", opts.Provider), slog.String("model", opts.Model))

	return &Analyzer{model: model, opts: opts, logger: logger}, nil
}

// NewAnalyzerWithModel builds an analyzer around an existing model. Tests
// use it to inject fakes.
func NewAnalyzerWithModel(model llms.Model, opts Options, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidatePrompts(); err != nil {
		return nil, err
	}
	return &Analyzer{model: model, opts: opts, logger: logger}, nil
}

func newModel(ctx context.Context, opts Options) (llms.Model, error) {
	switch opts.Provider {
	case "anthropic":
		return anthropic.New(
			anthropic.WithToken(opts.APIKey),
			anthropic.WithModel(opts.Model),
		)
	case "openai":
		return openai.New(
			openai.WithToken(opts.APIKey),
			openai.WithModel(opts.Model),
		)
	case "googleai":
		return googleai.New(ctx,
			googleai.WithAPIKey(opts.APIKey),
			googleai.WithDefaultModel(opts.Model),
		)
	default:
		return nil, errors.Errorf("unsupported LLM provider: %s", opts.Provider)
	}
}

// Analyze formats the bundle and asks the model for a coaching analysis.
// An empty bundle short-circuits without calling the model.
func (a *Analyzer) Analyze(ctx context.Context, bundle *Bundle) (string, error) {
	if len(bundle.Activities) == 0 {
		a.logger.Warn("no activities to analyze")
		return "No activities found in the selected period.", nil
	}

	system, err := SystemPrompt()
	if err != nil {
		return "", err
	}
	tmpl, err := UserTemplate()
	if err != nil {
		return "", err
	}
	plan := formatTrainingPlan(bundle)
	if plan == "" {
		plan = "No structured training plan provided."
	}
	sleep := formatSleep(bundle)
	if sleep == "" {
		sleep = "SLEEP:\n  No sleep data available in this period"
	}
	data := renderUserPrompt(tmpl, map[string]string{
		"{athlete_name}":          bundle.AthleteName(),
		"{activities_text}":       formatActivities(bundle),
		"{body_composition_text}": formatBodyComposition(bundle),
		"{sleep_text}":            sleep,
		"{training_plan_section}": plan,
	})

	a.logger.Info("requesting analysis",
		slog.String("provider", a.opts.Provider),
		slog.Int("activities", len(bundle.Activities)),
		slog.Int("data_bytes", len(data)))

	resp, err := a.model.GenerateContent(ctx,
		[]llms.MessageContent{
			{Role: schema.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(system)}},
			{Role: schema.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(data)}},
		},
		llms.WithMaxTokens(a.opts.MaxTokens),
		llms.WithTemperature(a.opts.Temperature),
	)
	if err != nil {
		return "", errors.Wrap(err, "analysis request failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned an empty response")
	}
	return resp.Choices[0].Content, nil
}
