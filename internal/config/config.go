package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	LogLevel  string
	LogFormat string

	LLMProvider string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIChatModel   string
	OpenAIEmbedModel  string
	OpenAITemperature float64

	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string

	LLMRequestsPerSecond float64

	CorpusPath   string
	ChunkSize    int
	ChunkOverlap int

	TopK        int
	GuardK      int
	MaxRounds   int
	TargetScore float64

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	BreakerEnabled      bool

	MetricsPort string
}

func Load() Config {
	return Config{
		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "json"),

		LLMProvider: mustEnv("LLM_PROVIDER", "openai"),

		OpenAIAPIKey:      mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     mustEnv("OPENAI_BASE_URL", ""),
		OpenAIChatModel:   mustEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel:  mustEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		OpenAITemperature: mustEnvFloat("OPENAI_TEMPERATURE", 0),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		LLMRequestsPerSecond: mustEnvFloat("LLM_REQUESTS_PER_SECOND", 5),

		CorpusPath:   mustEnv("CORPUS_PATH", ""),
		ChunkSize:    mustEnvInt("CHUNK_SIZE", 600),
		ChunkOverlap: mustEnvInt("CHUNK_OVERLAP", 80),

		TopK:        mustEnvInt("RETRIEVAL_TOP_K", 5),
		GuardK:      mustEnvInt("GUARD_KEEP_K", 3),
		MaxRounds:   mustEnvInt("MAX_ROUNDS", 3),
		TargetScore: mustEnvFloat("TARGET_SCORE", 0.75),

		RetryMaxAttempts:    mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialBackoff: time.Duration(mustEnvInt("RETRY_INITIAL_BACKOFF_MS", 200)) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(mustEnvInt("RETRY_MAX_BACKOFF_MS", 2000)) * time.Millisecond,
		BreakerEnabled:      mustEnvBool("BREAKER_ENABLED", true),

		MetricsPort: mustEnv("METRICS_PORT", ""),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
