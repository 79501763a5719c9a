package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ctxchat/internal/cache/memory"
	"github.com/kitbuilder587/ctxchat/internal/metrics"
	"github.com/kitbuilder587/ctxchat/internal/ratelimit"
	"github.com/kitbuilder587/ctxchat/internal/session"
)

// lowQuota - с какого остатка показывать, сколько сообщений ещё можно отправить
const lowQuota = 2

type BotConfig struct {
	Token             string
	Debug             bool
	RequestsPerMinute int
	// SessionTTL - сколько хранить неактивную сессию чата
	SessionTTL time.Duration
}

// Sender delivers plain text to a chat.
type Sender interface {
	Send(chatID int64, text string) error
}

// SessionFactory builds a fresh session for a chat; all of its output goes to out.
type SessionFactory func(chatID int64, out io.Writer) *session.Session

type chatSession struct {
	sess *session.Session
	out  *bytes.Buffer
}

type Bot struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	newSession  SessionFactory
	sessions    *memory.Cache[int64, *chatSession]
	rateLimiter *ratelimit.Limiter
	ttl         time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func New(ctx context.Context, cfg BotConfig, factory SessionFactory, logger *zap.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.Debug = cfg.Debug

	bot := newBot(ctx, cfg, nil, factory, logger, m)
	bot.api = api
	bot.sender = apiSender{api: api}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
	)

	return bot, nil
}

func newBot(ctx context.Context, cfg BotConfig, sender Sender, factory SessionFactory, logger *zap.Logger, m *metrics.Metrics) *Bot {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}

	bot := &Bot{
		sender:     sender,
		newSession: factory,
		ttl:        cfg.SessionTTL,
		logger:     logger,
		metrics:    m,
		rateLimiter: ratelimit.NewWithContext(ctx, ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
	}

	bot.sessions = memory.NewWithContext(ctx, memory.Config[int64, *chatSession]{
		OnEvict: func(chatID int64, cs *chatSession) {
			bot.logger.Info("chat session expired",
				zap.Int64("chat_id", chatID),
				zap.String("session_id", cs.sess.ID()),
			)
			bot.metrics.SetActiveSessions(bot.sessions.Len())
		},
	})

	return bot
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started, waiting for updates")

	// обрабатываем последовательно: в сессии один ход за раз
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping")
			b.api.StopReceivingUpdates()
			b.sessions.Stop()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			b.HandleMessage(ctx, update.Message.Chat.ID, update.Message.Text)
		}
	}
}

// HandleMessage feeds one incoming message into the chat's session and sends
// back everything the session printed.
func (b *Bot) HandleMessage(ctx context.Context, chatID int64, text string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic in message handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID),
			)
		}
	}()

	if !b.rateLimiter.Allow(chatID) {
		b.metrics.RecordRateLimitHit()
		wait := time.Until(b.rateLimiter.ResetTime(chatID)).Round(time.Second)
		b.send(chatID, FormatRateLimited(wait))
		return
	}

	line := ToSessionLine(text)
	if line == "" {
		return
	}

	b.SendTyping(chatID)

	cs := b.session(chatID)
	state := cs.sess.HandleLine(ctx, line)

	output := cs.out.String()
	cs.out.Reset()

	usage := cs.sess.Usage()
	if state == session.Terminated {
		b.sessions.Delete(chatID)
		b.metrics.SetActiveSessions(b.sessions.Len())
		b.logger.Info("chat session closed",
			zap.Int64("chat_id", chatID),
			zap.String("session_id", cs.sess.ID()),
		)
		usage = ""
	} else {
		b.sessions.Set(chatID, cs, b.ttl)
		if left := b.rateLimiter.RemainingRequests(chatID); left <= lowQuota {
			usage += FormatRemaining(left)
		}
	}

	for _, chunk := range FormatReply(output, usage) {
		b.send(chatID, chunk)
	}
}

func (b *Bot) session(chatID int64) *chatSession {
	if cs, ok := b.sessions.Get(chatID); ok {
		return cs
	}

	out := &bytes.Buffer{}
	cs := &chatSession{
		sess: b.newSession(chatID, out),
		out:  out,
	}
	b.sessions.Set(chatID, cs, b.ttl)
	b.metrics.SetActiveSessions(b.sessions.Len())

	b.logger.Info("chat session started",
		zap.Int64("chat_id", chatID),
		zap.String("session_id", cs.sess.ID()),
	)

	return cs
}

func (b *Bot) send(chatID int64, text string) {
	if err := b.sender.Send(chatID, text); err != nil {
		b.logger.Error("failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func (b *Bot) SendTyping(chatID int64) {
	if b.api == nil {
		return
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	b.api.Send(action)
}

// SlotName is the snapshot slot used by a chat.
func SlotName(chatID int64) string {
	return fmt.Sprintf("chat-%d", chatID)
}

type apiSender struct {
	api *tgbotapi.BotAPI
}

// ответы модели отправляем как plain text, без parse mode
func (s apiSender) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := s.api.Send(msg)
	return err
}
