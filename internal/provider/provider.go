// Package provider adapts generative-text backends (Azure/OpenAI chat completions,
// Gemini, an ADK agent) to a single Generate call.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
)

type Name string

const (
	NameAzure  Name = "azure"
	NameOpenAI Name = "openai"
	NameGemini Name = "gemini"
	NameAgent  Name = "agent"
)

// Provider performs one round-trip to a generative-text service.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Call binds a prompt to a provider as a pipeline.ProviderCall.
func Call(p Provider, system, prompt string) pipeline.ProviderCall {
	return func(ctx context.Context) (string, error) {
		return p.Generate(ctx, system, prompt)
	}
}

// Config selects and configures the backend. Only the fields of the selected
// backend are read.
type Config struct {
	Provider Name

	AzureEndpoint   string
	AzureAPIKey     string
	AzureDeployment string
	AzureAPIVersion string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GoogleAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	AgentName        string
	AgentInstruction string

	MaxTokens   int
	Temperature float32
	Timeout     time.Duration

	// RateLimit caps outgoing calls per second; zero disables it.
	RateLimit float64
}

// New builds the configured provider, wrapped in a rate limiter when set.
func New(ctx context.Context, cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch Name(strings.ToLower(string(cfg.Provider))) {
	case NameAzure:
		p, err = NewAzure(cfg)
	case NameOpenAI:
		p, err = NewOpenAI(cfg)
	case NameGemini:
		p, err = NewGemini(ctx, cfg)
	case NameAgent:
		p, err = NewAgent(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit > 0 {
		p = NewLimited(p, cfg.RateLimit, 1)
	}
	return p, nil
}
