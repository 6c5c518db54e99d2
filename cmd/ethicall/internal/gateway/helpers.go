package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slack-go/slack"

	"github.com/tinyland-inc/ethicall/cmd/ethicall/internal"
	"github.com/tinyland-inc/ethicall/pkg/bus"
	"github.com/tinyland-inc/ethicall/pkg/channels"
	"github.com/tinyland-inc/ethicall/pkg/completion"
	"github.com/tinyland-inc/ethicall/pkg/config"
	"github.com/tinyland-inc/ethicall/pkg/logger"
	"github.com/tinyland-inc/ethicall/pkg/providers"
	"github.com/tinyland-inc/ethicall/pkg/slackbot"
)

const shutdownTimeout = 10 * time.Second

func gatewayCmd(debug bool, configPath string) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	provider, modelID, err := providers.CreateProvider(cfg)
	if err != nil {
		return fmt.Errorf("error creating provider: %w", err)
	}
	completer := completion.NewClient(provider, modelID,
		completion.WithDefaultSystemPrompt(cfg.LLM.SystemPrompt),
		completion.WithChatOptions(providers.ChatOptions(cfg)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := newSlackClient(cfg)
	platform := slackbot.NewSlackPlatform(api)
	identity, err := platform.Identify(ctx)
	if err != nil {
		return fmt.Errorf("error authenticating with Slack: %w", err)
	}

	handlers := slackbot.NewHandlers(platform, completer, slackbot.NewMemoryContextStore(), cfg.Assistant, identity.UserID)
	router := slackbot.NewRouter()
	router.IgnoreSelf(identity.UserID, identity.BotID)
	router.Register(handlers.Bindings()...)

	eventBus := bus.NewEventBus()
	receiver := newReceiver(cfg, api, eventBus)

	logger.InfoCF("gateway", "Gateway initialized", map[string]any{
		"provider": cfg.LLM.Provider,
		"model":    completer.Model(),
		"bot_user": identity.UserID,
		"team":     identity.TeamID,
		"receiver": receiver.Name(),
	})

	if err := receiver.Start(ctx); err != nil {
		return fmt.Errorf("error starting %s: %w", receiver.Name(), err)
	}
	fmt.Printf("✓ %s started (%s, model %s)\n", receiver.Name(), cfg.LLM.Provider, completer.Model())
	fmt.Println("Press Ctrl+C to stop")

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		router.Run(ctx, eventBus)
	}()

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := receiver.Stop(stopCtx); err != nil {
		logger.ErrorCF("gateway", "Receiver shutdown failed", map[string]any{"error": err.Error()})
	}
	eventBus.Close()
	<-dispatched

	fmt.Println("✓ Gateway stopped")
	return nil
}

func newSlackClient(cfg *config.Config) *slack.Client {
	opts := []slack.Option{slack.OptionDebug(cfg.Slack.Debug)}
	if cfg.Slack.SocketMode() {
		opts = append(opts, slack.OptionAppLevelToken(cfg.Slack.AppToken))
	}
	return slack.New(cfg.Slack.BotToken, opts...)
}

// newReceiver prefers Socket Mode when an app-level token is configured.
func newReceiver(cfg *config.Config, api *slack.Client, eventBus *bus.EventBus) channels.Channel {
	if cfg.Slack.SocketMode() {
		return channels.NewSlackSocketChannel(api, eventBus, cfg.Slack.AllowFrom, cfg.Slack.Debug)
	}
	return channels.NewSlackEventsChannel(
		cfg.Slack.SigningSecret,
		cfg.Gateway.Host,
		cfg.Gateway.Port,
		cfg.Gateway.EventsPath,
		eventBus,
		cfg.Slack.AllowFrom,
	)
}
