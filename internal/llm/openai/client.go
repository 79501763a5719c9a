package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ctxchat/internal/llm"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// Transport - свой транспорт, например с OAuth токеном вместо APIKey
	Transport http.RoundTripper
	// Provider - имя для логов, по умолчанию openai
	Provider string
}

// Client - провайдер по умолчанию, любой OpenAI-совместимый endpoint через SDK
type Client struct {
	api      *goopenai.Client
	model    string
	provider string
	logger   *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT4oMini
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}

	return &Client{
		api:      goopenai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   logger,
	}
}

func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(messages),
		Stream:   false,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.mapError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", llm.ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) mapError(err error) error {
	// ошибки транспорта уже несут sentinel
	if errors.Is(err, llm.ErrAuthFailed) {
		return err
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", llm.ErrAuthFailed, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", llm.ErrRateLimit, err)
	}

	c.logger.Error(c.provider+" request failed",
		zap.Int("status", status),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %v", llm.ErrRequestFailed, err)
}

func toChatMessages(messages []llm.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}

var _ llm.Client = (*Client)(nil)
