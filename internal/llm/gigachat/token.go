package gigachat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ctxchat/internal/llm"
)

// tokenRefreshMargin - токен обновляем заранее, до истечения
const tokenRefreshMargin = 5 * time.Minute

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// tokenSource caches the OAuth access token and fetches a new one when it is
// about to expire or was rejected.
type tokenSource struct {
	authKey string
	scope   string
	authURL string
	client  *http.Client
	logger  *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiry.Add(-tokenRefreshMargin)) {
		return s.token, nil
	}

	token, expiry, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token, s.expiry = token, expiry

	s.logger.Debug("gigachat token refreshed", zap.Time("expires", expiry))
	return token, nil
}

func (s *tokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiry = time.Time{}
	s.mu.Unlock()
}

func (s *tokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	form := url.Values{"scope": {s.scope}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+s.authKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String()) // Сбер требует уникальный id запроса

	resp, err := s.client.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", llm.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error("gigachat auth failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return "", time.Time{}, fmt.Errorf("%w: auth status %d", llm.ErrAuthFailed, resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: decode auth response: %v", llm.ErrAuthFailed, err)
	}
	if auth.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty access token", llm.ErrAuthFailed)
	}

	return auth.AccessToken, time.UnixMilli(auth.ExpiresAt), nil
}

// authTransport puts the bearer token on every chat request. A 401 drops the
// cached token and the request is sent once more with a fresh one.
type authTransport struct {
	base   http.RoundTripper
	tokens *tokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.send(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || req.GetBody == nil {
		return resp, err
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	t.tokens.Invalidate()

	retry := req.Clone(req.Context())
	if retry.Body, err = req.GetBody(); err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	return t.send(retry)
}

func (t *authTransport) send(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		return nil, err
	}

	// RoundTrip не должен менять исходный запрос
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(out)
}
