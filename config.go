package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/provider"
)

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Port     string
	LogLevel string

	LLM             provider.Config
	Retry           pipeline.RetryPolicy
	TranscribeModel string

	DBURL       string
	R2          *R2Config
	RabbitMQURL string
	WorkerCount int
	Redis       *RedisConfig
}

// LoadConfig reads the configuration through getenv (os.Getenv in main).
// Optional subsystems stay nil when their variables are absent.
func LoadConfig(getenv func(string) string) (Config, error) {
	env := envReader{getenv: getenv}
	cfg := Config{
		Port:     env.str("PORT", "8080"),
		LogLevel: env.str("LOG_LEVEL", "info"),
		LLM: provider.Config{
			Provider:         provider.Name(strings.ToLower(env.str("LLM_PROVIDER", string(provider.NameAzure)))),
			AzureEndpoint:    getenv("AZURE_OPENAI_ENDPOINT"),
			AzureAPIKey:      getenv("AZURE_OPENAI_API_KEY"),
			AzureDeployment:  env.str("AZURE_DEPLOYMENT_NAME", "Phi-4-mini-instruct"),
			AzureAPIVersion:  env.str("AZURE_OPENAI_API_VERSION", "2024-02-15-preview"),
			OpenAIAPIKey:     getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:    getenv("OPENAI_BASE_URL"),
			OpenAIModel:      env.str("OPENAI_MODEL", "gpt-4o-mini"),
			GoogleAPIKey:     getenv("GOOGLE_API_KEY"),
			GeminiModel:      env.str("GEMINI_MODEL", "gemini-2.5-pro"),
			GeminiBaseURL:    getenv("GEMINI_BASE_URL"),
			AgentName:        env.str("AGENT_NAME", "talent analyzer"),
			MaxTokens:        env.int("LLM_MAX_TOKENS", 2000),
			Temperature:      float32(env.float("LLM_TEMPERATURE", 0.7)),
			Timeout:          env.duration("LLM_HTTP_TIMEOUT", 0),
			RateLimit:        env.float("LLM_RATE_LIMIT", 0),
		},
		Retry: pipeline.RetryPolicy{
			MaxRetries:     env.int("LLM_MAX_RETRIES", pipeline.DefaultRetryPolicy.MaxRetries),
			BaseDelay:      pipeline.DefaultRetryPolicy.BaseDelay,
			Jitter:         pipeline.DefaultRetryPolicy.Jitter,
			AttemptTimeout: env.duration("LLM_ATTEMPT_TIMEOUT", pipeline.DefaultRetryPolicy.AttemptTimeout),
		},
		TranscribeModel: env.str("TRANSCRIBE_MODEL", "whisper-1"),
		DBURL:           getenv("DB_URL"),
		RabbitMQURL:     getenv("RABBITMQ_URL"),
		WorkerCount:     env.int("WORKER_COUNT", 3),
	}

	r2 := R2Config{
		AccountID: getenv("R2_ACCCOUNT_ID"),
		Bucket:    getenv("R2_BUCKET"),
		AccessKey: getenv("R2_ACCESS_KEY"),
		SecretKey: getenv("R2_SECRET_KEY"),
	}
	if r2 != (R2Config{}) {
		cfg.R2 = &r2
	}
	if addr := getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis = &RedisConfig{
			Addr:     addr,
			Password: getenv("REDIS_PASSWORD"),
			DB:       env.int("REDIS_DB", 0),
		}
	}

	if env.err != nil {
		return Config{}, env.err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("LLM_MAX_RETRIES must be at least 1, got %d", c.Retry.MaxRetries)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("WORKER_COUNT must not be negative, got %d", c.WorkerCount)
	}
	if r2 := c.R2; r2 != nil && (r2.AccountID == "" || r2.Bucket == "" || r2.AccessKey == "" || r2.SecretKey == "") {
		return fmt.Errorf("incomplete R2 configuration: R2_ACCCOUNT_ID, R2_BUCKET, R2_ACCESS_KEY and R2_SECRET_KEY are all required")
	}
	return nil
}

// WorkerEnabled reports whether the batch resume worker can run.
func (c Config) WorkerEnabled() bool {
	return c.DBURL != "" && c.R2 != nil && c.RabbitMQURL != "" && c.WorkerCount > 0
}

// envReader keeps the first parse error so LoadConfig can report it once.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return f
}

// duration accepts Go durations ("45s") or plain seconds ("45").
func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v)
		return def
	}
	return d
}

func (e *envReader) fail(key, value string) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s value %q", key, value)
	}
}
