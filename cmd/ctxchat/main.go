package main

import (
	"context"
	"flag"
	"fmt"
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
	"github.com/kitbuilder587/ctxchat/internal/terminal"
)

const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitRuntimeError = 2
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "YAML config file (env values override it)")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ctxchat [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Interactive chat with a bounded conversation history.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("ctxchat %s\n", version)
		os.Exit(ExitSuccess)
	}

	os.Exit(run(*configPath))
}

func run(configPath string) int {
	// .env не обязателен
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return ExitConfigError
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return ExitConfigError
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.NewRegistry())

	client, err := app.NewLLMClient(cfg.LLM, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "llm error: %v\n", err)
		return ExitConfigError
	}

	store, err := app.OpenRepository(ctx, cfg.Store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store error: %v\n", err)
		return ExitConfigError
	}
	defer store.Close()

	reader, err := terminal.New(terminal.Config{HistoryFile: cfg.Terminal.HistoryFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal error: %v\n", err)
		return ExitConfigError
	}
	defer reader.Close()

	chatDeps := app.ChatServiceDeps(cfg, client, true, logger, m)
	chatDeps.Progress = terminal.Progress("thinking...", terminal.IsTerminal(os.Stdout))
	chat := service.NewChatService(chatDeps)

	sess := session.New(session.Deps{
		Chat:         chat,
		Store:        store,
		Slot:         cfg.Store.Slot,
		SystemPrompt: cfg.Chat.SystemPrompt,
		MaxHistory:   cfg.Chat.MaxHistory,
		Out:          os.Stdout,
		Logger:       logger,
		Metrics:      m,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			logger.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
			return m.Serve(gctx, cfg.Metrics.Addr)
		})
	}

	g.Go(func() error {
		// после выхода из сессии гасим metrics сервер
		defer cancel()
		return sess.Run(gctx, reader)
	})

	if err := g.Wait(); err != nil {
		logger.Error("session failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitRuntimeError
	}

	return ExitSuccess
}
