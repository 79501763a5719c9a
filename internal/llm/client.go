package llm

import (
	"context"
	"errors"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

// Client sends the whole ordered conversation and returns one reply.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
