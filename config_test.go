package main

import (
	"testing"
	"time"

	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, provider.NameAzure, cfg.LLM.Provider)
	assert.Equal(t, "Phi-4-mini-instruct", cfg.LLM.AzureDeployment)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, pipeline.DefaultRetryPolicy, cfg.Retry)
	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Nil(t, cfg.R2)
	assert.Nil(t, cfg.Redis)
	assert.False(t, cfg.WorkerEnabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(envFrom(map[string]string{
		"PORT":                "9000",
		"LLM_PROVIDER":        "OpenAI",
		"LLM_MAX_RETRIES":     "5",
		"LLM_ATTEMPT_TIMEOUT": "45",
		"LLM_HTTP_TIMEOUT":    "1m30s",
		"DB_URL":              "postgres://localhost/talent",
		"RABBITMQ_URL":        "amqp://localhost",
		"R2_ACCCOUNT_ID":      "acct",
		"R2_BUCKET":           "resumes",
		"R2_ACCESS_KEY":       "ak",
		"R2_SECRET_KEY":       "sk",
		"REDIS_ADDR":          "localhost:6379",
		"REDIS_DB":            "2",
	}))
	require.NoError(t, err)

	assert.Equal(t, provider.NameOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 45*time.Second, cfg.Retry.AttemptTimeout)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	require.NotNil(t, cfg.R2)
	assert.Equal(t, "resumes", cfg.R2.Bucket)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.WorkerEnabled())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "http"}},
		{"bad int", map[string]string{"LLM_MAX_TOKENS": "lots"}},
		{"bad duration", map[string]string{"LLM_ATTEMPT_TIMEOUT": "soon"}},
		{"zero retries", map[string]string{"LLM_MAX_RETRIES": "0"}},
		{"negative workers", map[string]string{"WORKER_COUNT": "-1"}},
		{"partial r2", map[string]string{"R2_BUCKET": "resumes"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(envFrom(tc.env))
			assert.Error(t, err)
		})
	}
}
