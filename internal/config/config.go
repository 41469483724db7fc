// Package config loads service configuration from the environment, with an
// optional YAML file supplying defaults underneath it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LLM provider names accepted in PLANFORGE_LLM_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	Addr      string
	OutputDir string

	// LLM planning
	LLMProvider     string
	LLMModel        string
	Temperature     float64
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
	BedrockRegion   string

	// Strava API
	StravaClientID     string
	StravaClientSecret string
	StravaAccessToken  string
	StravaRefreshToken string

	// Workout research (optional)
	TavilyAPIKey string

	// SurrealDB job mirror (optional, disabled when URL is empty)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// CLI client
	ServerURL string
}

// fileConfig is the YAML shape accepted via PLANFORGE_CONFIG. Every field is
// optional; environment variables win over file values.
type fileConfig struct {
	Addr        string   `yaml:"addr"`
	OutputDir   string   `yaml:"output_dir"`
	LogFile     string   `yaml:"log_file"`
	LogLevel    string   `yaml:"log_level"`
	ServerURL   string   `yaml:"server_url"`
	LLM         llmYAML  `yaml:"llm"`
	SurrealDB   dbYAML   `yaml:"surrealdb"`
	Temperature *float64 `yaml:"temperature"`
}

type llmYAML struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	OllamaHost    string `yaml:"ollama_host"`
	BedrockRegion string `yaml:"bedrock_region"`
}

type dbYAML struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace"`
	Database  string `yaml:"database"`
	User      string `yaml:"user"`
	AuthLevel string `yaml:"auth_level"`
}

// Load reads configuration from the environment. When PLANFORGE_CONFIG names
// a YAML file, its values act as defaults beneath the environment.
func Load() (Config, error) {
	var file fileConfig
	if path := os.Getenv("PLANFORGE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	temperature := 0.2
	if file.Temperature != nil {
		temperature = *file.Temperature
	}
	if v := os.Getenv("PLANFORGE_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse PLANFORGE_TEMPERATURE: %w", err)
		}
		temperature = f
	}

	cfg := Config{
		Addr:      getEnv("PLANFORGE_ADDR", defaulted(file.Addr, ":8000")),
		OutputDir: getEnv("PLANFORGE_OUTPUT_DIR", defaulted(file.OutputDir, "training_plans")),

		LLMProvider:     getEnv("PLANFORGE_LLM_PROVIDER", defaulted(file.LLM.Provider, ProviderOpenAI)),
		LLMModel:        getEnv("PLANFORGE_LLM_MODEL", defaulted(file.LLM.Model, "gpt-4o")),
		Temperature:     temperature,
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", defaulted(file.LLM.OllamaHost, "http://localhost:11434")),
		BedrockRegion:   getEnv("AWS_REGION", file.LLM.BedrockRegion),

		StravaClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		StravaClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		StravaAccessToken:  os.Getenv("STRAVA_ACCESS_TOKEN"),
		StravaRefreshToken: os.Getenv("STRAVA_REFRESH_TOKEN"),

		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),

		SurrealDBURL:       getEnv("SURREALDB_URL", file.SurrealDB.URL),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", defaulted(file.SurrealDB.Namespace, "planforge")),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", defaulted(file.SurrealDB.Database, "jobs")),
		SurrealDBUser:      getEnv("SURREALDB_USER", defaulted(file.SurrealDB.User, "root")),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", defaulted(file.SurrealDB.AuthLevel, "root")),

		LogFile:  getEnv("PLANFORGE_LOG_FILE", file.LogFile),
		LogLevel: parseLogLevel(getEnv("PLANFORGE_LOG_LEVEL", defaulted(file.LogLevel, "INFO"))),

		ServerURL: getEnv("PLANFORGE_SERVER_URL", defaulted(file.ServerURL, "http://localhost:8000")),
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func defaulted(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
