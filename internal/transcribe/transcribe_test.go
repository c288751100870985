package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeWhisper(t *testing.T, path, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		assert.Equal(t, "call.wav", header.Filename)
		assert.Equal(t, "RIFF", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"`+text+`"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWhisperTranscribe(t *testing.T) {
	srv := fakeWhisper(t, "/audio/transcriptions", " hello there ")
	w, err := NewWhisper(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := w.Transcribe(context.Background(), "/uploads/call.wav", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestWhisperAzureDeploymentPath(t *testing.T) {
	srv := fakeWhisper(t, "/openai/deployments/whisper-prod/audio/transcriptions", "hi")
	w, err := NewWhisper(Config{APIKey: "k", BaseURL: srv.URL, Azure: true, Model: "whisper-prod"})
	require.NoError(t, err)

	text, err := w.Transcribe(context.Background(), "call.wav", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestWhisperNoSpeech(t *testing.T) {
	srv := fakeWhisper(t, "/audio/transcriptions", "  ")
	w, err := NewWhisper(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = w.Transcribe(context.Background(), "call.wav", []byte("RIFF"))
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestWhisperRejectsEmptyInput(t *testing.T) {
	_, err := NewWhisper(Config{})
	assert.Error(t, err)

	w, err := NewWhisper(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	require.NoError(t, err)
	_, err = w.Transcribe(context.Background(), "call.wav", nil)
	assert.EqualError(t, err, "empty audio upload")
}
