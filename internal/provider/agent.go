package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const defaultAgentName = "talent analyzer"

// Agent runs prompts through an ADK llm agent. Every Generate call gets its own
// agent session, so retried calls never see each other's history.
type Agent struct {
	name     string
	runner   *runner.Runner
	sessions session.Service
}

func NewAgent(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.GoogleAPIKey == "" {
		return nil, errors.New("agent provider requires GOOGLE_API_KEY")
	}
	modelName := cfg.GeminiModel
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	model, err := gemini.NewModel(ctx, modelName, geminiClientConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	name := cfg.AgentName
	if name == "" {
		name = defaultAgentName
	}
	customAgent, err := llmagent.New(llmagent.Config{
		Name:        name,
		Model:       model,
		Description: "Hiring workflow analyst",
		Instruction: cfg.AgentInstruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        customAgent.Name(),
		Agent:          customAgent,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return &Agent{name: name, runner: r, sessions: sessions}, nil
}

func (a *Agent) Name() string { return string(NameAgent) }

// Generate sends system and prompt as one user message; the agent's own
// instruction stays in force.
func (a *Agent) Generate(ctx context.Context, system, prompt string) (string, error) {
	msg := prompt
	if system != "" {
		msg = system + "\n\n" + prompt
	}

	created, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.name,
		UserID:    "pipeline",
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create agent session: %w", err)
	}
	s := created.Session
	defer a.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
		AppName:   s.AppName(),
		UserID:    s.UserID(),
		SessionID: s.ID(),
	})

	stream := a.runner.Run(ctx, s.UserID(), s.ID(), &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: msg}},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", fmt.Errorf("agent stream: %w", err)
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}
	if output == "" {
		return "", fmt.Errorf("agent: %w", ErrEmptyResponse)
	}
	return output, nil
}
