package akahu

import (
	"context"
	"time"

	"akasync/internal/domain/transaction"
)

// TransactionQuery bounds one page request. Start/End are the query window;
// Cursor is the opaque pagination token from the previous page, empty for
// the first page.
type TransactionQuery struct {
	Start  time.Time
	End    time.Time
	Cursor string
}

// TransactionPage is one page of the paginated transaction feed. Cursor is
// the token for the next page, empty when no further page exists.
type TransactionPage struct {
	Items  []transaction.Transaction
	Cursor string
}

// FeedClient is the remote aggregator contract: read-only paginated access
// to transactions and accounts, plus an account refresh trigger with no
// synchronous completion guarantee.
type FeedClient interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	ListTransactions(ctx context.Context, query TransactionQuery) (*TransactionPage, error)
	RefreshAccount(ctx context.Context, accountID string) error
}
