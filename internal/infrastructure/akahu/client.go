// Package akahu implements the remote feed client against the Akahu API.
package akahu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"akasync/internal/domain/transaction"
)

const (
	defaultBaseURL   = "https://api.akahu.io/v1"
	defaultTimeout   = 60 * time.Second
	accountsPath     = "/accounts"
	transactionsPath = "/transactions"
	refreshPath      = "/refresh"
)

// Client handles communication with the Akahu API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appToken   string
	userToken  string
}

// Ensure Client implements FeedClient
var _ FeedClient = (*Client)(nil)

// NewClient creates a new Akahu API client. baseURL may be empty to use
// the production endpoint.
func NewClient(baseURL, appToken, userToken string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		appToken:   appToken,
		userToken:  userToken,
	}
}

// Account is a bank account as reported by the aggregator.
type Account struct {
	ID               string     `json:"_id"`
	Connection       Connection `json:"connection"`
	Name             string     `json:"name"`
	FormattedAccount string     `json:"formatted_account"`
	Status           string     `json:"status"`
	Balance          *Balance   `json:"balance,omitempty"`
	Meta             *Meta      `json:"meta,omitempty"`
	Refreshed        *Refreshed `json:"refreshed,omitempty"`
}

// Connection identifies the bank link an account belongs to.
type Connection struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type Balance struct {
	Current  decimal.Decimal `json:"current"`
	Currency string          `json:"currency"`
}

type Meta struct {
	Holder string `json:"holder"`
}

// Refreshed carries the aggregator's last-refresh timestamps as ISO-8601
// strings.
type Refreshed struct {
	Balance      string `json:"balance"`
	Meta         string `json:"meta"`
	Transactions string `json:"transactions"`
}

// TransactionsTime parses the transactions-refreshed timestamp.
func (r *Refreshed) TransactionsTime() (*time.Time, error) {
	if r == nil || r.Transactions == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, r.Transactions)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, r.Transactions)
		if err != nil {
			return nil, fmt.Errorf("failed to parse refreshed.transactions %q: %w", r.Transactions, err)
		}
	}
	return &parsed, nil
}

type accountsResponse struct {
	Success bool      `json:"success"`
	Items   []Account `json:"items"`
}

type transactionsResponse struct {
	Success bool                      `json:"success"`
	Items   []transaction.Transaction `json:"items"`
	Cursor  struct {
		Next *string `json:"next"`
	} `json:"cursor"`
}

type refreshResponse struct {
	Success bool `json:"success"`
}

// ListAccounts returns all accounts visible to the user token.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var resp accountsResponse
	if err := c.get(ctx, accountsPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("accounts request was not successful")
	}
	return resp.Items, nil
}

// GetAccount returns one account by identifier, or nil when the identifier
// is unknown.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID == accountID {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

// ListTransactions fetches one page of transactions for the query window.
func (c *Client) ListTransactions(ctx context.Context, query TransactionQuery) (*TransactionPage, error) {
	params := url.Values{}
	params.Set("start", query.Start.UTC().Format(time.RFC3339))
	params.Set("end", query.End.UTC().Format(time.RFC3339))
	if query.Cursor != "" {
		params.Set("cursor", query.Cursor)
	}

	var resp transactionsResponse
	if err := c.get(ctx, transactionsPath, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("transactions request was not successful")
	}

	page := &TransactionPage{Items: resp.Items}
	if resp.Cursor.Next != nil {
		page.Cursor = *resp.Cursor.Next
	}
	return page, nil
}

// RefreshAccount asks the aggregator to pull fresh data for one account.
// Completion is asynchronous on the aggregator side.
func (c *Client) RefreshAccount(ctx context.Context, accountID string) error {
	var resp refreshResponse
	if err := c.do(ctx, http.MethodPost, refreshPath+"/"+accountID, nil, &resp); err != nil {
		return fmt.Errorf("failed to refresh account %s: %w", accountID, err)
	}
	if !resp.Success {
		return fmt.Errorf("refresh request for account %s was not successful", accountID)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.userToken)
	req.Header.Set("X-Akahu-Id", c.appToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
