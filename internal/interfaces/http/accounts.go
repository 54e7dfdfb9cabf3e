package http

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"akasync/internal/domain/account"
	"akasync/internal/domain/transaction"
	"akasync/internal/infrastructure/akahu"
	"akasync/internal/shared/auth"
)

// AccountsHandler serves the account and transaction endpoints. Callers
// presenting the shared secret get full detail; everyone else gets the
// redacted view.
type AccountsHandler struct {
	feed          akahu.FeedClient
	repo          transaction.Repository
	keys          *auth.KeyVerifier
	submitRefresh func(accountID string) error
	log           zerolog.Logger
}

func NewAccountsHandler(
	feed akahu.FeedClient,
	repo transaction.Repository,
	keys *auth.KeyVerifier,
	submitRefresh func(accountID string) error,
	log zerolog.Logger,
) *AccountsHandler {
	return &AccountsHandler{
		feed:          feed,
		repo:          repo,
		keys:          keys,
		submitRefresh: submitRefresh,
		log:           log.With().Str("component", "http").Logger(),
	}
}

func (h *AccountsHandler) authorized(r *http.Request) bool {
	return h.keys.Verify(r.URL.Query().Get("apiKey"))
}

// HandleListAccounts returns the account list from the aggregator.
func (h *AccountsHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.feed.ListAccounts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to fetch accounts")
		respondError(w, http.StatusInternalServerError, "Failed to fetch accounts")
		return
	}

	full := h.authorized(r)
	views := make([]account.View, 0, len(accounts))
	for _, acct := range accounts {
		view := account.FromFeed(acct)
		if !full {
			view = view.Public()
		}
		views = append(views, view)
	}

	respondJSON(w, http.StatusOK, views)
}

// transactionResponse is the transport form of a stored transaction; the
// description is omitted for unauthorized callers.
type transactionResponse struct {
	ID          string          `json:"_id"`
	Account     string          `json:"_account"`
	Connection  string          `json:"_connection"`
	CreatedAt   string          `json:"created_at"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Type        string          `json:"type"`
}

// HandleAccountTransactions returns the stored transactions for one account.
func (h *AccountsHandler) HandleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	txs, err := h.repo.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.log.Error().Err(err).Str("account", accountID).Msg("failed to fetch transactions")
		respondError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	full := h.authorized(r)
	response := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		item := transactionResponse{
			ID:         tx.ID,
			Account:    tx.Account,
			Connection: tx.Connection,
			CreatedAt:  tx.CreatedAt,
			Date:       tx.Date,
			Amount:     tx.Amount,
			Balance:    tx.Balance,
			Type:       tx.Type,
		}
		if full {
			item.Description = tx.Description
		}
		response = append(response, item)
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleRefresh enqueues a refresh-and-sync for one account and returns
// immediately. Requires the shared secret.
func (h *AccountsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		respondError(w, http.StatusBadRequest, "Account ID is required")
		return
	}

	if err := h.submitRefresh(accountID); err != nil {
		h.log.Error().Err(err).Str("account", accountID).Msg("failed to enqueue refresh")
		respondError(w, http.StatusServiceUnavailable, "Refresh queue is full")
		return
	}

	respondMessage(w, "Refresh requested")
}
