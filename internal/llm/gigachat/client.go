// Package gigachat talks to GigaChat through its OpenAI-compatible chat
// endpoint. Only the OAuth token exchange is GigaChat specific.
package gigachat

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ctxchat/internal/llm"
	"github.com/kitbuilder587/ctxchat/internal/llm/openai"
)

const (
	defaultAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultBaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
	defaultScope   = "GIGACHAT_API_PERS"
	defaultModel   = "GigaChat"
)

type Config struct {
	// AuthKey - base64(client_id:client_secret) из личного кабинета
	AuthKey string
	Scope   string
	AuthURL string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Client struct {
	chat   *openai.Client
	tokens *tokenSource
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Scope == "" {
		cfg.Scope = defaultScope
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	// У Сбера самоподписанный сертификат, приходится отключать проверку
	base := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	tokens := &tokenSource{
		authKey: cfg.AuthKey,
		scope:   cfg.Scope,
		authURL: cfg.AuthURL,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: base},
		logger:  logger,
	}

	chat := openai.New(openai.Config{
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		Transport: &authTransport{base: base, tokens: tokens},
		Provider:  "gigachat",
	}, logger)

	return &Client{chat: chat, tokens: tokens}
}

func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	return c.chat.Complete(ctx, messages)
}

var _ llm.Client = (*Client)(nil)
