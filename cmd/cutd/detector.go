package main

import (
	"log/slog"
	"time"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/config"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/detect"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/llm"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/logging"
)

const (
	llmRetryAttempts = 3
	llmRetryBackoff  = time.Second
)

// newDetector builds the model-backed detector from config. It fails when no
// API key or an unknown provider is configured.
func newDetector(cfg *config.EnvConfig, logger *slog.Logger) (*detect.Detector, error) {
	llmLogger := logging.WithComponent(logger, "llm")
	completer, err := llm.New(llm.Config{
		Provider: cfg.LLMProvider(),
		APIKey:   cfg.LLMAPIKey(),
		Model:    cfg.LLMModel(),
		BaseURL:  cfg.LLMBaseURL(),
		Timeout:  cfg.LLMTimeout(),
	}, llmLogger)
	if err != nil {
		return nil, err
	}

	logger.Info("cut detection enabled",
		"provider", cfg.LLMProvider(),
		"model", cfg.LLMModel(),
		"api_key", logging.SanitizeToken(cfg.LLMAPIKey()),
		"concurrency", cfg.DetectConcurrency(),
		"chunk_seconds", cfg.ChunkSeconds(),
	)

	return detect.New(
		llm.WithRetry(completer, llmRetryAttempts, llmRetryBackoff),
		detect.Config{
			ChunkSeconds: cfg.ChunkSeconds(),
			Concurrency:  cfg.DetectConcurrency(),
			Options: llm.Options{
				Model:       cfg.LLMModel(),
				MaxTokens:   cfg.LLMMaxTokens(),
				Temperature: cfg.LLMTemperature(),
			},
			PromptOverrides: cfg.PromptOverrides(),
		},
		logging.WithComponent(logger, "detect"),
	), nil
}
