// Package gemini wraps the Gemini API for natural-language task summaries.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"remindbot/pkg/logx"
)

const defaultModel = "gemini-2.0-flash"

// Config holds the Gemini client settings.
type Config struct {
	APIKey string
	Model  string
}

// Summarizer turns a task digest into a short conversational summary.
type Summarizer struct {
	client *genai.Client
	model  string
	log    logx.Logger
}

func New(ctx context.Context, cfg Config, log logx.Logger) (*Summarizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Summarizer{client: client, model: model, log: log}, nil
}

// Summarize asks the model for a brief, friendly rendition of the stats block.
func (s *Summarizer) Summarize(ctx context.Context, statsBlock string) (string, error) {
	prompt := "You are a personal task assistant. Summarize the following task statistics " +
		"in two or three friendly sentences, mentioning anything overdue first:\n\n" + statsBlock

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty summary")
	}
	s.log.Debug("summary generated", logx.Int("chars", len(text)))
	return text, nil
}
