package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"akasync/internal/domain/notification"
	"akasync/internal/domain/transaction"
)

// transactionsTable is the store table whose insert events drive
// notifications.
const transactionsTable = "akahu_transactions"

// WebhookHandler accepts store-level insert events and drives the
// notification dispatcher. Delivery failure never fails the webhook.
type WebhookHandler struct {
	notifier *notification.Service
	log      zerolog.Logger
}

func NewWebhookHandler(notifier *notification.Service, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		notifier: notifier,
		log:      log.With().Str("component", "webhook").Logger(),
	}
}

// webhookEvent is the store's database-event payload.
type webhookEvent struct {
	Type   string          `json:"type"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var event webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if event.Type != "INSERT" || event.Table != transactionsTable {
		respondMessage(w, "Webhook received")
		return
	}

	var tx transaction.Transaction
	if err := json.Unmarshal(event.Record, &tx); err != nil {
		h.log.Warn().Err(err).Msg("failed to decode webhook record")
		respondMessage(w, "Webhook received")
		return
	}

	if tx.ID == transaction.DummyID {
		respondMessage(w, "Webhook received")
		return
	}

	if err := h.notifier.NotifyTransaction(r.Context(), tx); err != nil {
		// The record is already persisted; notification failures are
		// logged and swallowed.
		h.log.Error().Err(err).Str("transaction", tx.ID).Msg("notification failed")
	}

	respondMessage(w, "Webhook received")
}
