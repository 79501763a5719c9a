package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML config file. Keys mirror the environment
// variables in snake case.
type FileConfig struct {
	Provider          string `yaml:"provider"`
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url"`
	Model             string `yaml:"model"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	GigaChatAuthURL   string `yaml:"gigachat_auth_url"`
	GigaChatScope     string `yaml:"gigachat_scope"`

	SystemPrompt  string `yaml:"system_prompt"`
	MaxHistory    int    `yaml:"max_history"`
	RetryDelaySec int    `yaml:"retry_delay_sec"`

	StoreBackend string `yaml:"store_backend"`
	StoreDir     string `yaml:"store_dir"`
	StoreSlot    string `yaml:"store_slot"`
	BoltPath     string `yaml:"bolt_path"`
	SQLitePath   string `yaml:"sqlite_path"`
	DatabaseURL  string `yaml:"database_url"`

	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr"`
	HistoryFile string `yaml:"history_file"`

	TelegramToken      string `yaml:"telegram_token"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	SessionTTLSec      int    `yaml:"session_ttl_sec"`
}

func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// values maps the file onto environment variable names.
func (f *FileConfig) values() map[string]string {
	return map[string]string{
		"LLM_PROVIDER":          f.Provider,
		"API_KEY":               f.APIKey,
		"BASE_URL":              f.BaseURL,
		"MODEL":                 f.Model,
		"REQUEST_TIMEOUT_SEC":   itoa(f.RequestTimeoutSec),
		"GIGACHAT_AUTH_URL":     f.GigaChatAuthURL,
		"GIGACHAT_SCOPE":        f.GigaChatScope,
		"SYSTEM_PROMPT":         f.SystemPrompt,
		"MAX_HISTORY":           itoa(f.MaxHistory),
		"RETRY_DELAY_SEC":       itoa(f.RetryDelaySec),
		"STORE_BACKEND":         f.StoreBackend,
		"STORE_DIR":             f.StoreDir,
		"STORE_SLOT":            f.StoreSlot,
		"BOLT_PATH":             f.BoltPath,
		"SQLITE_PATH":           f.SQLitePath,
		"DATABASE_URL":          f.DatabaseURL,
		"LOG_LEVEL":             f.LogLevel,
		"LOG_FILE":              f.LogFile,
		"METRICS_ADDR":          f.MetricsAddr,
		"HISTORY_FILE":          f.HistoryFile,
		"TELEGRAM_BOT_TOKEN":    f.TelegramToken,
		"RATE_LIMIT_PER_MINUTE": itoa(f.RateLimitPerMinute),
		"SESSION_TTL_SEC":       itoa(f.SessionTTLSec),
	}
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
