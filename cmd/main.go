package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"tg-relay-bot/handler"
	"tg-relay-bot/internal/bot"
	"tg-relay-bot/internal/config"
	"tg-relay-bot/internal/integrations/openai"
	"tg-relay-bot/internal/integrations/paramstore"
	"tg-relay-bot/internal/integrations/telegram"
	"tg-relay-bot/internal/repository"
	"tg-relay-bot/internal/usecase"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using process environment")
	}

	awsCfg := lazyAWSConfig(ctx)

	// ---- Configuration (read only here) ----
	var params config.Getter
	if config.ParamPrefix(os.LookupEnv) != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg()))
		if err != nil {
			fatal("failed to create SSM client", err)
		}
		params = ssmClient
	}
	cfg, err := config.Load(ctx, os.LookupEnv, params)
	if err != nil {
		fatal("invalid configuration", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("service", "tg-relay-bot")
	slog.SetDefault(logger)

	// ---- Clients ----
	tg, err := telegram.NewClient(cfg.TelegramToken)
	if err != nil {
		fatal("failed to create Telegram client", err)
	}

	llmOpts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		llmOpts = append(llmOpts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.NewClient(cfg.CompletionKey, llmOpts...)
	if err != nil {
		fatal("failed to create completion client", err)
	}

	// ---- Dispatch ----
	dispatcher, err := usecase.NewDispatcher(llm, tg, usecase.BuildSystemPrompt(cfg.PromptSecret), logger)
	if err != nil {
		fatal("failed to create dispatcher", err)
	}
	router, err := bot.NewRouter(dispatcher, logger)
	if err != nil {
		fatal("failed to create router", err)
	}

	switch cfg.Mode {
	case config.ModeLambda:
		var claims handler.UpdateClaimer
		if cfg.UpdatesTable != "" {
			repo, err := repository.New(awsdynamodb.NewFromConfig(awsCfg()), cfg.UpdatesTable)
			if err != nil {
				fatal("failed to create update store", err)
			}
			claims = repo
		}
		h, err := handler.NewHandler(router, claims, cfg.WebhookSecret, logger)
		if err != nil {
			fatal("failed to create handler", err)
		}
		logger.Info("starting webhook handler", "model", llm.Model(), "dedup", cfg.UpdatesTable != "")
		lambda.Start(h.Handle)

	default:
		runPoller(ctx, logger, tg, router, cfg, llm.Model())
	}
}

func runPoller(ctx context.Context, logger *slog.Logger, tg *telegram.Client, router *bot.Router, cfg config.Config, model string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	me, err := tg.GetMe(ctx)
	if err != nil {
		fatal("failed to reach Telegram", err)
	}

	poller, err := bot.NewPoller(tg, router, cfg.PollTimeout, logger)
	if err != nil {
		fatal("failed to create poller", err)
	}
	logger.Info("bot is starting to poll for messages", "bot", me.Username, "model", model)
	if err := poller.Run(ctx); err != nil {
		fatal("polling failed", err)
	}
}

// lazyAWSConfig loads the default AWS config on first use only, so local
// polling runs without AWS credentials.
func lazyAWSConfig(ctx context.Context) func() aws.Config {
	return sync.OnceValue(func() aws.Config {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			fatal("failed to load AWS config", err)
		}
		return cfg
	})
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
