package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	NatsURL             string
	NatsGradedSubject   string
	JWTSecret           string
	LLMProvider         string
	EmbeddingProvider   string
	OpenAIAPIKey        string
	LLMModel            string
	EmbeddingModel      string
	EmbeddingDimensions int
	PlagiarismThreshold float64
	MaxGrade            float64
	ProgressCacheTTL    time.Duration
}

// Provider names accepted for the LLM and embedding backends.
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FEEDBACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Feedback API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.graded_subject", "feedback.graded")
	v.SetDefault("llm.provider", ProviderMock)
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("embedding.provider", ProviderHash)
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 64)
	v.SetDefault("plagiarism.threshold", 0.90)
	v.SetDefault("grading.max_grade", 100.0)
	v.SetDefault("progress.cache_ttl", "5m")

	ttlString := v.GetString("progress.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NatsURL:             v.GetString("nats.url"),
		NatsGradedSubject:   v.GetString("nats.graded_subject"),
		JWTSecret:           v.GetString("jwt.secret"),
		LLMProvider:         strings.ToLower(v.GetString("llm.provider")),
		EmbeddingProvider:   strings.ToLower(v.GetString("embedding.provider")),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		LLMModel:            v.GetString("llm.model"),
		EmbeddingModel:      v.GetString("embedding.model"),
		EmbeddingDimensions: v.GetInt("embedding.dimensions"),
		PlagiarismThreshold: v.GetFloat64("plagiarism.threshold"),
		MaxGrade:            v.GetFloat64("grading.max_grade"),
		ProgressCacheTTL:    ttl,
	}

	if cfg.PlagiarismThreshold <= 0 || cfg.PlagiarismThreshold > 1 {
		return Config{}, fmt.Errorf("plagiarism threshold must be in (0, 1]")
	}

	if cfg.MaxGrade <= 0 {
		return Config{}, fmt.Errorf("max grade must be positive")
	}

	if cfg.EmbeddingDimensions <= 0 {
		cfg.EmbeddingDimensions = 64
	}

	if cfg.LLMProvider == ProviderOpenAI && cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided for the openai llm provider")
	}

	return cfg, nil
}
