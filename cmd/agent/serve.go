package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/Spok95/catalog-agent/internal/agent"
	"github.com/Spok95/catalog-agent/internal/assistant"
	"github.com/Spok95/catalog-agent/internal/bot"
	"github.com/Spok95/catalog-agent/internal/config"
	"github.com/Spok95/catalog-agent/internal/dialog"
	"github.com/Spok95/catalog-agent/internal/domain/feedback"
	"github.com/Spok95/catalog-agent/internal/gateway"
	"github.com/Spok95/catalog-agent/internal/infra/db"
	httpx "github.com/Spok95/catalog-agent/internal/infra/http"
	"github.com/Spok95/catalog-agent/internal/infra/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket server and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger.New(cfg.App.Env))
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// оценки пишем в postgres только если он настроен
	var (
		ratings   agent.Ratings
		summaries bot.RatingSummaries
	)
	if cfg.Postgres.DSN != "" {
		if err := db.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("db connect failed: %w", err)
		}
		defer pool.Close()
		log.Info("db connected")

		repo := feedback.NewRepo(pool)
		ratings, summaries = repo, repo
	} else {
		log.Warn("postgres.dsn is empty, ratings will only be logged")
	}

	client := gateway.NewClient(gateway.Options{
		BaseURL:   cfg.Gateway.BaseURL,
		Username:  cfg.Gateway.Username,
		Password:  cfg.Gateway.Password,
		Token:     cfg.Gateway.Token,
		Timeout:   cfg.Gateway.Timeout,
		Retries:   cfg.Gateway.Retries,
		RetryWait: cfg.Gateway.RetryWait,
		Paths:     gatewayPaths(cfg),
		Log:       log,
	})
	gw, err := gateway.NewCached(client, cfg.Gateway.CacheSize)
	if err != nil {
		return fmt.Errorf("gateway cache: %w", err)
	}

	var asst agent.Assistant
	if cfg.Assistant.APIKey != "" {
		g, err := assistant.NewGemini(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model)
		if err != nil {
			return fmt.Errorf("assistant: %w", err)
		}
		asst = g
	} else {
		log.Warn("assistant.api_key is empty, free-form mode is unavailable")
	}

	ag := agent.New(dialog.NewProcessor(gw, log), asst, ratings, log, cfg.Agent.StartStructured)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, httpx.Deps{Chat: ag, Lister: gw, Log: log})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	botDone := make(chan struct{})
	if cfg.Telegram.Enabled {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		log.Info("telegram bot authorized", "username", botAPI.Self.UserName)

		b := bot.New(botAPI, log, ag, gw, summaries, cfg.Telegram.AdminChatID)
		go func() {
			defer close(botDone)
			if err := b.Run(ctx, botAPI, cfg.Telegram.PollTimeout); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("telegram bot stopped", "err", err)
			}
		}()
	} else {
		close(botDone)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn("telegram handlers did not finish in time")
	}
	log.Info("graceful shutdown complete")
	return nil
}

func gatewayPaths(cfg config.Config) map[gateway.Kind]string {
	paths := map[gateway.Kind]string{}
	if p := cfg.Gateway.SpecificationPath; p != "" {
		paths[gateway.KindSpecification] = p
	}
	if p := cfg.Gateway.OfferingPath; p != "" {
		paths[gateway.KindOffering] = p
	}
	return paths
}
