package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultAzureAPIVersion = "2024-02-15-preview"

// OpenAI talks to any OpenAI-compatible chat-completion endpoint, Azure included.
type OpenAI struct {
	client      *openai.Client
	name        string
	model       string
	maxTokens   int
	temperature float32
}

// NewAzure targets an Azure OpenAI deployment.
func NewAzure(cfg Config) (*OpenAI, error) {
	if cfg.AzureEndpoint == "" || cfg.AzureAPIKey == "" {
		return nil, errors.New("azure provider requires AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY")
	}
	if cfg.AzureDeployment == "" {
		return nil, errors.New("azure provider requires a deployment name")
	}
	endpoint := strings.TrimRight(cfg.AzureEndpoint, "/")
	if i := strings.Index(endpoint, "/openai/v1"); i >= 0 {
		endpoint = endpoint[:i]
	}

	oc := openai.DefaultAzureConfig(cfg.AzureAPIKey, endpoint)
	oc.APIVersion = cfg.AzureAPIVersion
	if oc.APIVersion == "" {
		oc.APIVersion = defaultAzureAPIVersion
	}
	deployment := cfg.AzureDeployment
	oc.AzureModelMapperFunc = func(string) string { return deployment }
	oc.HTTPClient = httpClient(cfg)

	return &OpenAI{
		client:      openai.NewClientWithConfig(oc),
		name:        string(NameAzure),
		model:       deployment,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// NewOpenAI targets api.openai.com or a compatible base URL.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("openai provider requires OPENAI_API_KEY")
	}
	if cfg.OpenAIModel == "" {
		return nil, errors.New("openai provider requires a model")
	}
	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}
	oc.HTTPClient = httpClient(cfg)

	return &OpenAI{
		client:      openai.NewClientWithConfig(oc),
		name:        string(NameOpenAI),
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (p *OpenAI) Name() string { return p.name }

func (p *OpenAI) Generate(ctx context.Context, system, prompt string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", classifyOpenAI(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response", p.name)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}
	return content, nil
}

func classifyOpenAI(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return errorFromStatus(name, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return errorFromStatus(name, reqErr.HTTPStatusCode, string(reqErr.Body), err)
	}
	return fmt.Errorf("%s: %w", name, err)
}

func httpClient(cfg Config) *http.Client {
	if cfg.Timeout <= 0 {
		return http.DefaultClient
	}
	return &http.Client{Timeout: cfg.Timeout}
}
