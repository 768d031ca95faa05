package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// OpenAI (vision analysis, print prompt extraction)
	OpenAIAPIKey string
	OpenAIModel  string

	// Gemini (image generation / editing)
	GeminiAPIKey string
	GeminiModel  string

	// Meshy (3D reconstruction)
	MeshyAPIKey       string
	MeshyAPIBaseURL   string
	MeshyWebhookToken string

	// CloudConvert (EPS conversion)
	CloudConvertAPIKey  string
	CloudConvertBaseURL string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
	BaseURL     string

	// Logging: "immediate" flushes every write, "batched" relies on Sync at shutdown
	LogFlushMode string
}

func Load() (*Config, error) {
	// .env is optional; real deployments inject env vars directly
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),

		MeshyAPIKey:       getEnv("MESHY_API_KEY", ""),
		MeshyAPIBaseURL:   getEnv("MESHY_API_BASE_URL", "https://api.meshy.ai/openapi/v1/"),
		MeshyWebhookToken: getEnv("MESHY_WEBHOOK_TOKEN", ""),

		CloudConvertAPIKey:  getEnv("CLOUDCONVERT_API_KEY", ""),
		CloudConvertBaseURL: getEnv("CLOUDCONVERT_API_BASE_URL", "https://api.cloudconvert.com/v2/"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "product-images"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		LogFlushMode: getEnv("LOG_FLUSH_MODE", "immediate"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.MeshyAPIKey == "" {
		return fmt.Errorf("MESHY_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.LogFlushMode != "immediate" && c.LogFlushMode != "batched" {
		return fmt.Errorf("LOG_FLUSH_MODE must be \"immediate\" or \"batched\", got %q", c.LogFlushMode)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
