// Package hiring implements the HR workflows on top of the prompt pipeline:
// resume matching, interview question generation and customization, call
// analysis and the hiring assistant.
package hiring

import (
	"context"
	"errors"
	"fmt"

	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/provider"
	"github.com/muhammadolammi/talentpipeline/internal/recorder"
	"github.com/muhammadolammi/talentpipeline/internal/transcribe"
	"github.com/sirupsen/logrus"
)

// ErrInvalidRequest wraps every input validation failure.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

type Service struct {
	pipe        *pipeline.Pipeline
	llm         provider.Provider
	transcriber transcribe.Transcriber
	system      string
	log         logrus.FieldLogger
}

type Option func(*Service)

// WithTranscriber enables audio uploads in AnalyzeCall.
func WithTranscriber(t transcribe.Transcriber) Option {
	return func(s *Service) { s.transcriber = t }
}

// WithSystemPrompt replaces SystemPrompt.
func WithSystemPrompt(p string) Option {
	return func(s *Service) { s.system = p }
}

func NewService(pipe *pipeline.Pipeline, llm provider.Provider, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{pipe: pipe, llm: llm, system: SystemPrompt, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) call(prompt string) pipeline.ProviderCall {
	return provider.Call(s.llm, s.system, prompt)
}

func (s *Service) logger(ctx context.Context) logrus.FieldLogger {
	if id := recorder.RequestID(ctx); id != "" {
		return s.log.WithField("request_id", id)
	}
	return s.log
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
