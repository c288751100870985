package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-pro"

type Gemini struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.GoogleAPIKey == "" {
		return nil, errors.New("gemini provider requires GOOGLE_API_KEY")
	}
	client, err := genai.NewClient(ctx, geminiClientConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := cfg.GeminiModel
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		client:      client,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// geminiClientConfig is shared by the Gemini and agent providers. An empty
// GeminiBaseURL keeps the SDK default endpoint.
func geminiClientConfig(cfg Config) *genai.ClientConfig {
	return &genai.ClientConfig{
		APIKey:      cfg.GoogleAPIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.GeminiBaseURL},
	}
}

func (p *Gemini) Name() string { return string(NameGemini) }

func (p *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.temperature),
	}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if p.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.maxTokens)
	}

	res, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", errorFromStatus(p.Name(), apiErr.Code, apiErr.Message, err)
		}
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}
