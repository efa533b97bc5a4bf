package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nova-ai-bot/internal/ai"
	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/internal/config"
	"nova-ai-bot/internal/handlers"
	"nova-ai-bot/internal/middleware"
	"nova-ai-bot/internal/payments"
	"nova-ai-bot/internal/scheduler"
	"nova-ai-bot/internal/server"
	"nova-ai-bot/pkg/logger"
	"nova-ai-bot/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New()
	defer logg.Sync()

	if err := catalog.Validate(); err != nil {
		logg.Fatalw("catalog validation failed", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb, err := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	if err != nil {
		logg.Fatalw("redis connection failed", "error", err)
	}
	defer rdb.Close()
	stateStore := store.NewRedisStateStore(rdb, 24)

	pgStore, err := store.NewPostgresStore(ctx, cfg.Postgres.DSN)
	if err != nil {
		logg.Fatalw("postgres connection failed", "error", err)
	}
	defer pgStore.Close()

	invoicer := payments.NewInvoicer(cfg.Telegram.YooKassaToken)
	stripeClient := payments.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	aiClient := ai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.TextModel, cfg.OpenAI.AdvancedModel)

	httpClient := &http.Client{Timeout: 10 * time.Minute}
	b, err := bot.New(cfg.Telegram.Token, bot.WithHTTPClient(50*time.Second, httpClient))
	if err != nil {
		logg.Fatalw("creating bot failed", "error", err)
	}

	h := handlers.New(pgStore, pgStore, stateStore, invoicer, stripeClient, aiClient, logg, cfg.Telegram.AdminChatID)
	mw := middleware.New(pgStore, stateStore, logg)

	sweeper := scheduler.NewSweeper(pgStore, scheduler.NewTelegramNotifier(b), logg, scheduler.Config{
		Interval:  cfg.Sweep.Interval,
		BatchSize: cfg.Sweep.BatchSize,
	})
	sweeper.Start()
	defer sweeper.Stop()

	handlerChain := mw.EnsureUserMiddleware(
		mw.AnalyzeUpdateMiddleware(
			h.MainHandler,
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.PreCheckoutQuery != nil
	}, handlerChain)

	srv := server.New(cfg.Server.Port, stripeClient, h, b, logg)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Errorw("http server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logg.Errorw("http server shutdown failed", "error", err)
		}
	}()

	logg.Info("bot started")
	b.Start(ctx)
}
