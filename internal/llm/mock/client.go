package mock

import (
	"context"
	"time"

	"github.com/kitbuilder587/ctxchat/internal/llm"
)

type Client struct {
	Response string
	Error    error
	Delay    time.Duration
	// Panic заставляет Complete паниковать, нужно для тестов восстановления
	Panic any

	CallCount    int
	LastMessages []llm.Message
	AllCalls     [][]llm.Message
}

func New() *Client {
	return &Client{
		Response: "This is a mock response.",
	}
}

func (c *Client) WithResponse(response string) *Client {
	c.Response = response
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	c.CallCount++
	c.LastMessages = append([]llm.Message(nil), messages...)
	c.AllCalls = append(c.AllCalls, c.LastMessages)

	if c.Panic != nil {
		panic(c.Panic)
	}

	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if c.Error != nil {
		return "", c.Error
	}

	return c.Response, nil
}

func (c *Client) Reset() {
	c.CallCount = 0
	c.LastMessages = nil
	c.AllCalls = nil
}

var _ llm.Client = (*Client)(nil)
