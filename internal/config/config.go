package config

import (
	"os"
	"strings"
	"time"
)

// DefaultPromptInstruction is appended to a bot's knowledge base when building
// the chat prompt. Changing it changes model behavior for every bot.
const DefaultPromptInstruction = "Provide a concise response based on the knowledge base only. " +
	"Limit your reply to a maximum of 50 words, ensuring clarity and relevance to the query. " +
	"Note: Only give answers which are related to knowledgebase. " +
	"Strictly don't give answers outside of knowledgebase"

// DefaultGeminiModel is the model used for chat completions unless
// GEMINI_MODEL overrides it.
const DefaultGeminiModel = "gemini-2.5-flash"

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	AdminUser     string
	AdminPassword string

	// DatabaseURL is a postgres:// URL in production. sqlite:// URLs are
	// accepted for local development.
	DatabaseURL string

	ListenAddr string

	// CORSOrigins lists the origins allowed to call the public chat
	// endpoints from a browser. "*" allows any origin.
	CORSOrigins []string

	LogLevel  string
	LogFormat string

	// GeminiAPIKey is the credential for the generative AI API. If empty,
	// chat requests fail with a generic error instead of calling out.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	PromptInstruction string

	// AITimeout bounds a single AI call. Zero means no timeout.
	AITimeout time.Duration
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		AdminUser:         getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:     getenv("APP_ADMIN_PASSWORD", "changeme"),
		DatabaseURL:       os.Getenv("APP_DATABASE_URL"),
		ListenAddr:        getenv("APP_LISTEN_ADDR", ":8080"),
		CORSOrigins:       splitList(getenv("APP_CORS_ORIGINS", "*")),
		LogLevel:          getenv("APP_LOG_LEVEL", "info"),
		LogFormat:         getenv("APP_LOG_FORMAT", "text"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getenv("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		PromptInstruction: getenv("CHAT_PROMPT_INSTRUCTION", DefaultPromptInstruction),
	}

	if v := os.Getenv("CHAT_AI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AITimeout = d
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
