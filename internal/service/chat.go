package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ctxchat/internal/domain"
	"github.com/kitbuilder587/ctxchat/internal/llm"
	"github.com/kitbuilder587/ctxchat/internal/metrics"
)

// ProgressFunc draws a wait indicator on w and returns a func that clears it.
type ProgressFunc func(w io.Writer) (stop func())

// ChatService - адаптер к LLM: один запрос на ход, без повторной отправки.
type ChatService interface {
	// Reply returns the reply text, or false when there is no response for
	// this turn. Failures are reported on w and never returned.
	Reply(ctx context.Context, w io.Writer, entries []domain.Entry) (string, bool)
	Model() string
}

type ChatServiceDeps struct {
	LLM      llm.Client
	Provider string
	Model    string
	Logger   *zap.Logger
	Metrics  *metrics.Metrics

	// RetryDelay - пауза после ошибки, 0 отключает паузу
	RetryDelay time.Duration
	Progress   ProgressFunc
}

type chatService struct {
	llm        llm.Client
	provider   string
	model      string
	logger     *zap.Logger
	metrics    *metrics.Metrics
	retryDelay time.Duration
	progress   ProgressFunc
}

func NewChatService(deps ChatServiceDeps) ChatService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Provider == "" {
		deps.Provider = "unknown"
	}

	return &chatService{
		llm:        deps.LLM,
		provider:   deps.Provider,
		model:      deps.Model,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		retryDelay: deps.RetryDelay,
		progress:   deps.Progress,
	}
}

func (s *chatService) Model() string {
	return s.model
}

func (s *chatService) Reply(ctx context.Context, w io.Writer, entries []domain.Entry) (string, bool) {
	messages := toMessages(entries)

	stop := func() {}
	if s.progress != nil {
		stop = s.progress(w)
	}

	startTime := time.Now()
	reply, err := s.llm.Complete(ctx, messages)
	elapsed := time.Since(startTime)
	stop()

	if err != nil {
		s.metrics.RecordLLMRequest(s.provider, "error", elapsed)
		s.logger.Warn("completion failed",
			zap.String("provider", s.provider),
			zap.String("model", s.model),
			zap.Int("messages", len(messages)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)

		fmt.Fprintf(w, "\n⚠️ API error: %v\n", err)
		if s.retryDelay > 0 {
			fmt.Fprintf(w, "🔄 retrying in %s...\n", formatDelay(s.retryDelay))
			s.pause(ctx)
		}
		return "", false
	}

	s.metrics.RecordLLMRequest(s.provider, "ok", elapsed)
	s.logger.Info("completion done",
		zap.String("provider", s.provider),
		zap.String("model", s.model),
		zap.Int("messages", len(messages)),
		zap.Duration("duration", elapsed),
		zap.Int("reply_length", len(reply)),
	)

	fmt.Fprintf(w, "⏱️ response time: %.2fs\n", elapsed.Seconds())
	return reply, true
}

// pause ждёт retryDelay, отмена контекста прерывает ожидание
func (s *chatService) pause(ctx context.Context) {
	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func toMessages(entries []domain.Entry) []llm.Message {
	messages := make([]llm.Message, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, llm.Message{Role: e.Role.String(), Content: e.Content})
	}
	return messages
}

func formatDelay(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}
