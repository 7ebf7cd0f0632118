package generate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"reviewrouter/internal/document"
)

// Request is one generation request from the end-user survey pages.
type Request struct {
	Tier                string `json:"tier"`
	PromptKey           string `json:"promptKey"`
	SubmissionTimestamp string `json:"submissionTimestamp"`
	ResponseID          string `json:"responseId"`

	// ModelOverride comes from the ?model= query parameter, for operators
	// comparing model output without editing stored settings.
	ModelOverride string `json:"-"`
}

// ResultAISettings echoes the non-secret settings the frontend renders.
type ResultAISettings struct {
	MapsLink string `json:"mapsLink"`
	Model    string `json:"model"`
}

// Result is the generation response payload.
type Result struct {
	Text       string                         `json:"text"`
	MapsLink   string                         `json:"mapsLink"`
	PromptKey  string                         `json:"promptKey"`
	Prompts    map[string]document.PromptPage `json:"prompts"`
	AISettings ResultAISettings               `json:"aiSettings"`
}

// Service assembles the final prompt from stored configuration plus survey
// samples and forwards it to the generation provider.
type Service struct {
	repo      *document.Repository
	collector *Collector
	generator TextGenerator
	logger    *zap.Logger
}

// NewService wires the generation flow.
func NewService(repo *document.Repository, collector *Collector, generator TextGenerator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, collector: collector, generator: generator, logger: logger}
}

// Generate resolves the prompt page, validates the stored settings, fetches
// sample answers from the collector, and calls the generation provider.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	promptKey := ResolvePromptKey(req.PromptKey, req.Tier)
	formKey := FormKeyForPrompt(promptKey)

	doc := s.repo.Load(ctx)
	ai := doc.AISettings

	if strings.TrimSpace(ai.GeminiAPIKey) == "" {
		return Result{}, ErrMissingAPIKey
	}

	page := doc.Prompts[promptKey]
	gasURL := strings.TrimSpace(page.GASURL)
	if gasURL == "" {
		gasURL = strings.TrimSpace(ai.GASURL)
	}
	if gasURL == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingGASURL, promptKey)
	}

	promptText := strings.TrimSpace(page.Prompt)
	if promptText == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingPrompt, promptKey)
	}

	spreadsheetURL := strings.TrimSpace(doc.SurveyResults.SpreadsheetURL)
	samples, err := s.collector.FetchSamples(ctx, gasURL, SampleQuery{
		SpreadsheetID:  SpreadsheetID(spreadsheetURL),
		SpreadsheetURL: spreadsheetURL,
		FormKey:        formKey,
		SubmittedAt:    strings.TrimSpace(req.SubmissionTimestamp),
		ResponseID:     strings.TrimSpace(req.ResponseID),
	})
	if err != nil {
		s.logger.Error("sample fetch failed", zap.String("prompt_key", promptKey), zap.Error(err))
		return Result{}, err
	}

	model := strings.TrimSpace(req.ModelOverride)
	if model == "" {
		model = strings.TrimSpace(ai.Model)
	}
	if model == "" {
		model = DefaultModel
	}

	prompt := BuildPrompt(promptText, samples)
	text, err := s.generator.GenerateText(ctx, ai.GeminiAPIKey, model, prompt)
	if err != nil {
		s.logger.Error("generation failed", zap.String("model", model), zap.Error(err))
		return Result{}, err
	}

	return Result{
		Text:      text,
		MapsLink:  ai.MapsLink,
		PromptKey: promptKey,
		Prompts: map[string]document.PromptPage{
			promptKey: {GASURL: page.GASURL, Prompt: page.Prompt},
		},
		AISettings: ResultAISettings{MapsLink: ai.MapsLink, Model: model},
	}, nil
}
