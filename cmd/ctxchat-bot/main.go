package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/ctxchat/internal/app"
	"github.com/kitbuilder587/ctxchat/internal/config"
	"github.com/kitbuilder587/ctxchat/internal/metrics"
	"github.com/kitbuilder587/ctxchat/internal/service"
	"github.com/kitbuilder587/ctxchat/internal/session"
	"github.com/kitbuilder587/ctxchat/internal/telegram"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "YAML config file (env values override it)")
	debug := flag.Bool("debug", false, "Log Telegram API traffic")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ctxchat-bot %s\n", version)
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.ValidateBot()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *debug, logger); err != nil {
		logger.Error("bot stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, debug bool, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.NewRegistry())

	client, err := app.NewLLMClient(cfg.LLM, logger)
	if err != nil {
		return err
	}

	store, err := app.OpenRepository(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	chat := service.NewChatService(app.ChatServiceDeps(cfg, client, false, logger, m))

	factory := func(chatID int64, out io.Writer) *session.Session {
		return session.New(session.Deps{
			Chat:         chat,
			Store:        store,
			Slot:         telegram.SlotName(chatID),
			SystemPrompt: cfg.Chat.SystemPrompt,
			MaxHistory:   cfg.Chat.MaxHistory,
			Out:          out,
			Logger:       logger.With(zap.Int64("chat_id", chatID)),
			Metrics:      m,
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	bot, err := telegram.New(gctx, telegram.BotConfig{
		Token:             cfg.Telegram.Token,
		Debug:             debug,
		RequestsPerMinute: cfg.Telegram.RequestsPerMinute,
		SessionTTL:        cfg.Telegram.SessionTTL,
	}, factory, logger, m)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			logger.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
			return m.Serve(gctx, cfg.Metrics.Addr)
		})
	}

	g.Go(func() error {
		return bot.Run(gctx)
	})

	logger.Info("ctxchat bot started",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("store", cfg.Store.Backend),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("ctxchat bot stopped")
	return nil
}
