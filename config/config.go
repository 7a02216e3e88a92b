// Package config loads process configuration from the environment. A local
// .env file is honored when present so development setups do not need to
// export variables manually.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the Symposium server.
type Config struct {
	Port      int
	DBDSN     string
	JWTSecret string

	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	LogLevel  string
	LogFormat string

	// Per-user chat request rate limit (requests per second + burst).
	ChatRPS   float64
	ChatBurst int
}

// Load reads configuration from the environment, applying defaults where a
// variable is unset.
func Load() Config {
	_ = godotenv.Load()

	port := 8080
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	rps := 2.0
	if v := os.Getenv("CHAT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	burst := 5
	if v := os.Getenv("CHAT_BURST"); v != "" {
		if b, err := strconv.Atoi(v); err == nil && b > 0 {
			burst = b
		}
	}

	return Config{
		Port:            port,
		DBDSN:           os.Getenv("DB_DSN"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		LogFormat:       os.Getenv("LOG_FORMAT"),
		ChatRPS:         rps,
		ChatBurst:       burst,
	}
}
