// Package app builds providers and repositories from config.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ctxchat/internal/config"
	"github.com/kitbuilder587/ctxchat/internal/llm"
	"github.com/kitbuilder587/ctxchat/internal/llm/gigachat"
	llmMock "github.com/kitbuilder587/ctxchat/internal/llm/mock"
	"github.com/kitbuilder587/ctxchat/internal/llm/openai"
	"github.com/kitbuilder587/ctxchat/internal/llm/openrouter"
	"github.com/kitbuilder587/ctxchat/internal/metrics"
	"github.com/kitbuilder587/ctxchat/internal/repository"
	"github.com/kitbuilder587/ctxchat/internal/repository/bolt"
	"github.com/kitbuilder587/ctxchat/internal/repository/file"
	"github.com/kitbuilder587/ctxchat/internal/repository/postgres"
	"github.com/kitbuilder587/ctxchat/internal/repository/sqlite"
	"github.com/kitbuilder587/ctxchat/internal/service"
)

// MockReply - ответ провайдера mock
const MockReply = "This is a canned reply from the mock provider."

func NewLLMClient(cfg config.LLMConfig, logger *zap.Logger) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return openai.New(openai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}, logger), nil
	case config.ProviderOpenRouter:
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}, logger), nil
	case config.ProviderGigaChat:
		return gigachat.New(gigachat.Config{
			AuthKey: cfg.APIKey,
			Scope:   cfg.GigaChat.Scope,
			AuthURL: cfg.GigaChat.AuthURL,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil
	case config.ProviderMock:
		return llmMock.New().WithResponse(MockReply), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidProvider, cfg.Provider)
	}
}

// ChatServiceDeps fills the completion adapter settings. The retry pause
// applies to the interactive client only: the bot serves every chat from one
// update loop.
func ChatServiceDeps(cfg *config.Config, client llm.Client, interactive bool, logger *zap.Logger, m *metrics.Metrics) service.ChatServiceDeps {
	deps := service.ChatServiceDeps{
		LLM:      client,
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		Logger:   logger,
		Metrics:  m,
	}
	if interactive {
		deps.RetryDelay = cfg.Chat.RetryDelay
	}
	return deps
}

// OpenRepository opens the snapshot backend. The caller closes it.
func OpenRepository(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (repository.SnapshotRepository, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return file.New(config.ExpandPath(cfg.Dir)), nil
	case config.BackendBolt:
		repo, err := bolt.Open(config.ExpandPath(cfg.BoltPath))
		if err != nil {
			return nil, fmt.Errorf("open bolt store: %w", err)
		}
		return repo, nil
	case config.BackendSQLite:
		repo, err := sqlite.Open(ctx, config.ExpandPath(cfg.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return repo, nil
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("connected to postgres")
		return postgres.NewSnapshotRepo(db), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidStoreBackend, cfg.Backend)
	}
}
