package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"

	"github.com/naga-ia/agente/backend/internal/service/ai"
)

// Providers understood by AIConfig.
const (
	ProviderDeepSeek = "deepseek"
	ProviderArk      = "ark"
)

// Config aggregates the service configuration.
type Config struct {
	Server ServerConfig
	Data   DataConfig
	AI     AIConfig
	Log    LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	aiCfg, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Data:   DataConfig{Dir: getEnvOrDefault("DATA_DIR", "data")},
		AI:     aiCfg,
		Log:    logCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// ParseAddr turns a PORT value into a listen address.
func ParseAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Accept ":8000" or "127.0.0.1:8000" as given.
		return port, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

func loadServerConfig() (ServerConfig, error) {
	addr, err := ParseAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{Addr: addr}, nil
}

// DataConfig locates the files the service reads and writes.
type DataConfig struct {
	Dir string
}

func (c DataConfig) KnowledgePath() string  { return filepath.Join(c.Dir, "base.csv") }
func (c DataConfig) AuditPath() string      { return filepath.Join(c.Dir, "qa_log.csv") }
func (c DataConfig) UnansweredPath() string { return filepath.Join(c.Dir, "perguntas_sem_resposta.csv") }
func (c DataConfig) PromptPath() string     { return filepath.Join(c.Dir, "prompt.txt") }

// AIConfig describes the completion model.
type AIConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Region   string
	Timeout  time.Duration
}

// Validate reports missing credentials. There is deliberately no built-in
// key: the service refuses to start without one.
func (c AIConfig) Validate() error {
	switch c.Provider {
	case ProviderDeepSeek:
		if c.APIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required")
		}
	case ProviderArk:
		if c.APIKey == "" || c.Model == "" {
			return fmt.Errorf("ARK_API_KEY and ARK_MODEL are required for the ark provider")
		}
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.Provider)
	}
	return nil
}

// NewChatModel builds the configured chat model.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	maxTokens := ai.DefaultMaxTokens
	temperature := ai.DefaultTemperature

	if c.Provider == ProviderArk {
		chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			Model:       c.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create ark chat model: %w", err)
		}
		return chatModel, nil
	}

	chatModel, err := ai.NewDeepSeekModel(ai.DeepSeekConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		HTTPClient:  &http.Client{Timeout: c.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create deepseek chat model: %w", err)
	}
	return chatModel, nil
}

func loadAIConfig() (AIConfig, error) {
	timeout := ai.DefaultTimeout
	if seconds, err := parseOptionalIntEnv("AI_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if seconds != nil {
		if *seconds < 1 {
			return AIConfig{}, fmt.Errorf("AI_TIMEOUT_SECONDS must be positive, got %d", *seconds)
		}
		timeout = time.Duration(*seconds) * time.Second
	}

	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderDeepSeek))

	var cfg AIConfig
	switch provider {
	case ProviderArk:
		cfg = AIConfig{
			Provider: ProviderArk,
			APIKey:   strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			Model:    strings.TrimSpace(os.Getenv("ARK_MODEL")),
			BaseURL:  getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:   getEnvOrDefault("ARK_REGION", "cn-beijing"),
		}
	default:
		cfg = AIConfig{
			Provider: provider,
			APIKey:   strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")),
			Model:    getEnvOrDefault("DEEPSEEK_MODEL", ai.DefaultDeepSeekModel),
			BaseURL:  getEnvOrDefault("DEEPSEEK_BASE_URL", ai.DefaultDeepSeekBaseURL),
		}
	}
	cfg.Timeout = timeout

	if err := cfg.Validate(); err != nil {
		return AIConfig{}, err
	}
	return cfg, nil
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level zerolog.Level
}

// ParseLevel parses a log level name, defaulting to info.
func ParseLevel(raw string) (zerolog.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
	}
	return level, nil
}

func loadLogConfig() (LogConfig, error) {
	level, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{Level: level}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
