package di

import (
	"context"
	"fmt"
	"log/slog"

	"foodlog_backend/internal/app/config"
	"foodlog_backend/internal/feature/analysis/adapters/gemini"
	"foodlog_backend/internal/feature/analysis/adapters/openai"
	"foodlog_backend/internal/feature/analysis/adapters/vision"
	"foodlog_backend/internal/feature/analysis/usecase"
	infrahttp "foodlog_backend/internal/platform/http"
)

// NewVisionModel creates the vision model selected by ANALYSIS_PROVIDER.
func NewVisionModel(ctx context.Context, cfg config.AnalysisConfig) (usecase.VisionModel, error) {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		slog.Info("analysis provider: openai", "model", cfg.OpenAIModel)
		return openai.NewOpenAIModel(httpClient, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, int(cfg.MaxOutputTokens)), nil
	case config.ProviderGemini, "":
		slog.Info("analysis provider: gemini", "model", cfg.GeminiModel)
		m, err := gemini.NewGeminiModel(ctx, httpClient, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxOutputTokens)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Provider)
	}
}

// NewLabelHinter creates the optional Vision label hinter and its cleanup.
// It returns a nil hinter when hints are disabled or the client cannot be created.
func NewLabelHinter(ctx context.Context, cfg config.AnalysisConfig) (usecase.LabelHinter, func() error) {
	noop := func() error { return nil }
	if !cfg.VisionHints {
		return nil, noop
	}
	h, err := vision.NewVisionLabelHinter(ctx)
	if err != nil {
		slog.Warn("vision label hints disabled", "error", err)
		return nil, noop
	}
	return h, h.Close
}
