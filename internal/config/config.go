package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	StoragePath string
	DataPath    string

	GeminiURL    string
	GeminiAPIKey string
	GeminiModel  string

	LLMTimeoutSeconds int
	LLMMaxAttempts    int
	LLMRatePerSecond  float64
	LLMBurst          int

	MHTConvertCommand string
	PDFRenderCommand  string

	CategoryVocabPath string

	QueueEnabled bool
	NATSURL      string
	NATSSubject  string

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		StoragePath: mustEnv("STORAGE_PATH", "./data/storage"),
		DataPath:    mustEnv("DATA_PATH", "./data"),

		GeminiURL:    mustEnv("GEMINI_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey: mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:  mustEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		LLMTimeoutSeconds: mustEnvInt("LLM_TIMEOUT_SECONDS", 60),
		LLMMaxAttempts:    mustEnvInt("LLM_MAX_ATTEMPTS", 3),
		LLMRatePerSecond:  mustEnvFloat("LLM_RATE_PER_SECOND", 1),
		LLMBurst:          mustEnvInt("LLM_BURST", 2),

		MHTConvertCommand: mustEnv("MHT_CONVERT_COMMAND", ""),
		PDFRenderCommand:  mustEnv("PDF_RENDER_COMMAND", "wkhtmltopdf"),

		CategoryVocabPath: mustEnv("CATEGORY_VOCAB_PATH", ""),

		QueueEnabled: mustEnvBool("QUEUE_ENABLED", false),
		NATSURL:      mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject:  mustEnv("NATS_SUBJECT", "documents.stored"),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
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
