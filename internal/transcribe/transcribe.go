// Package transcribe turns interview audio into text.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoSpeech is returned when the service answered but recognised nothing.
var ErrNoSpeech = errors.New("no transcript recognized")

type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Whisper uses the OpenAI (or Azure OpenAI) audio transcription endpoint.
type Whisper struct {
	client   *openai.Client
	model    string
	language string
}

type Config struct {
	APIKey   string
	BaseURL  string
	Azure    bool
	Model    string // or the Azure deployment name
	Language string
}

func NewWhisper(cfg Config) (*Whisper, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("transcription requires an API key")
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	var oc openai.ClientConfig
	if cfg.Azure {
		oc = openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.BaseURL, "/"))
		oc.APIVersion = "2024-02-15-preview"
		oc.AzureModelMapperFunc = func(string) string { return model }
	} else {
		oc = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
	}
	return &Whisper{
		client:   openai.NewClientWithConfig(oc),
		model:    model,
		language: cfg.Language,
	}, nil
}

func (w *Whisper) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio upload")
	}
	if filename == "" {
		filename = "audio.wav"
	}
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filepath.Base(filename),
		Reader:   bytes.NewReader(audio),
		Language: w.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
