package main

import (
	"net/http"

	"github.com/rs/zerolog"

	httphandlers "akasync/internal/interfaces/http"
	"akasync/internal/interfaces/scheduler"
	"akasync/internal/shared/config"
	"akasync/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler
// with middleware applied.
func SetupRoutes(deps *Dependencies, sched *scheduler.Scheduler, cfg *config.Config, log zerolog.Logger) http.Handler {
	submitRefresh := func(accountID string) error {
		return sched.Submit(scheduler.NewRefreshJob(accountID, deps.Orchestrator))
	}

	accountsHandler := httphandlers.NewAccountsHandler(deps.Feed, deps.TransactionRepo, deps.Keys, submitRefresh, log)
	webhookHandler := httphandlers.NewWebhookHandler(deps.Notifier, log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /accounts", accountsHandler.HandleListAccounts)
	mux.HandleFunc("GET /accounts/{id}", accountsHandler.HandleAccountTransactions)
	mux.HandleFunc("GET /accounts/{id}/refresh", accountsHandler.HandleRefresh)
	mux.HandleFunc("POST /webhook", webhookHandler.Handle)

	handler := middleware.Logging(log, middleware.SecurityHeaders(middleware.CORS(cfg.Server.AllowedOrigins, mux)))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	return handler
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
