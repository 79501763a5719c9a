package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/kitbuilder587/ctxchat/internal/domain"
)

var (
	ErrMissingToken        = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingDB           = errors.New("DATABASE_URL is required for the postgres store")
	ErrInvalidProvider     = errors.New("invalid llm provider")
	ErrInvalidStoreBackend = errors.New("invalid store backend")
	ErrInvalidMaxHistory   = errors.New("MAX_HISTORY must be at least 2")
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGigaChat   = "gigachat"
	ProviderMock       = "mock"
)

const (
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	LLM      LLMConfig
	Chat     ChatConfig
	Store    StoreConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Terminal TerminalConfig
	Telegram TelegramConfig
}

type LLMConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	GigaChat GigaChatConfig
}

type GigaChatConfig struct {
	AuthURL string
	Scope   string
}

type ChatConfig struct {
	SystemPrompt string
	MaxHistory   int
	RetryDelay   time.Duration
}

type StoreConfig struct {
	Backend     string
	Dir         string
	Slot        string
	BoltPath    string
	SQLitePath  string
	DatabaseURL string
}

type LogConfig struct {
	Level string
	File  string
}

type MetricsConfig struct {
	Addr string
}

type TerminalConfig struct {
	HistoryFile string
}

type TelegramConfig struct {
	Token             string
	RequestsPerMinute int
	SessionTTL        time.Duration
}

// Load reads configuration from the environment. When path is not empty the
// YAML file is read first and environment variables override its values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	src := source{}
	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file.values()
	}

	cfg := &Config{
		LLM: LLMConfig{
			Provider: src.getOrDefault("LLM_PROVIDER", ProviderOpenAI),
			APIKey:   src.get("API_KEY"),
			BaseURL:  src.get("BASE_URL"),
			Model:    src.getOrDefault("MODEL", "gpt-4o-mini"),
			Timeout:  time.Duration(src.getIntOrDefault("REQUEST_TIMEOUT_SEC", 60)) * time.Second,
			GigaChat: GigaChatConfig{
				AuthURL: src.get("GIGACHAT_AUTH_URL"),
				Scope:   src.get("GIGACHAT_SCOPE"),
			},
		},
		Chat: ChatConfig{
			SystemPrompt: src.getOrDefault("SYSTEM_PROMPT", domain.DefaultSystemPrompt),
			MaxHistory:   src.getIntOrDefault("MAX_HISTORY", domain.DefaultMaxHistory),
			RetryDelay:   time.Duration(src.getIntOrDefault("RETRY_DELAY_SEC", 5)) * time.Second,
		},
		Store: StoreConfig{
			Backend:     src.getOrDefault("STORE_BACKEND", BackendFile),
			Dir:         src.getOrDefault("STORE_DIR", "."),
			Slot:        src.getOrDefault("STORE_SLOT", "conversation"),
			BoltPath:    src.getOrDefault("BOLT_PATH", "conversation.bolt"),
			SQLitePath:  src.getOrDefault("SQLITE_PATH", "conversation.db"),
			DatabaseURL: src.get("DATABASE_URL"),
		},
		Log: LogConfig{
			Level: src.getOrDefault("LOG_LEVEL", "warn"),
			File:  src.get("LOG_FILE"),
		},
		Metrics: MetricsConfig{
			Addr: src.get("METRICS_ADDR"),
		},
		Terminal: TerminalConfig{
			HistoryFile: ExpandPath(src.getOrDefault("HISTORY_FILE", "~/.ctxchat_history")),
		},
		Telegram: TelegramConfig{
			Token:             src.get("TELEGRAM_BOT_TOKEN"),
			RequestsPerMinute: src.getIntOrDefault("RATE_LIMIT_PER_MINUTE", 10),
			SessionTTL:        time.Duration(src.getIntOrDefault("SESSION_TTL_SEC", 3600)) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks local settings only. Missing credentials are not an error
// here: they surface as a failed request.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderGigaChat, ProviderMock:
	default:
		return ErrInvalidProvider
	}
	if c.Chat.MaxHistory < domain.MinMaxHistory {
		return ErrInvalidMaxHistory
	}
	switch c.Store.Backend {
	case BackendFile, BackendBolt, BackendSQLite:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return ErrMissingDB
		}
	default:
		return ErrInvalidStoreBackend
	}
	return nil
}

// ValidateBot adds the checks the Telegram front-end needs.
func (c *Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	return c.Validate()
}

// source - env поверх значений из файла
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	return s.getOrDefault(key, "")
}

func (s source) getOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := s.file[key]; value != "" {
		return value
	}
	return defaultValue
}

func (s source) getIntOrDefault(key string, defaultValue int) int {
	if value := s.get(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
