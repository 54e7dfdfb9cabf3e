package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"akasync/internal/domain/notification"
	syncdomain "akasync/internal/domain/sync"
	"akasync/internal/infrastructure/akahu"
	"akasync/internal/infrastructure/postgres"
	"akasync/internal/infrastructure/telegram"
	"akasync/internal/shared/auth"
	"akasync/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB              *postgres.DB
	Feed            akahu.FeedClient
	TransactionRepo *postgres.TransactionRepository
	Reconciler      *syncdomain.Reconciler
	Orchestrator    *syncdomain.Orchestrator
	Notifier        *notification.Service
	Keys            *auth.KeyVerifier
}

// NewDependencies initializes all application dependencies and verifies
// the transaction store is reachable and writable.
func NewDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to database")

	verifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := postgres.Verify(verifyCtx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Msg("transaction store verified")

	transactionRepo := postgres.NewTransactionRepository(db)
	feed := akahu.NewClient(cfg.Akahu.BaseURL, cfg.Akahu.AppToken, cfg.Akahu.UserToken)

	reconciler := syncdomain.NewReconciler(feed, transactionRepo, cfg.Sync.Window, log)
	orchestrator := syncdomain.NewOrchestrator(feed, reconciler, cfg.Refresh.PollInterval, cfg.Refresh.PollAttempts, log)

	var messenger notification.Messenger
	if cfg.Telegram.Enabled() {
		messenger = telegram.NewClient("", cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		log.Info().Msg("telegram notifications enabled")
	} else {
		if cfg.Telegram.Partial() {
			log.Warn().Msg("only one of TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID is set, notifications disabled")
		} else {
			log.Info().Msg("telegram notifications disabled")
		}
	}

	notifier, err := notification.NewService(feed, messenger, cfg.Notification.Timezone, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Dependencies{
		DB:              db,
		Feed:            feed,
		TransactionRepo: transactionRepo,
		Reconciler:      reconciler,
		Orchestrator:    orchestrator,
		Notifier:        notifier,
		Keys:            auth.NewKeyVerifier(cfg.API.Key, cfg.API.KeyHash),
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
