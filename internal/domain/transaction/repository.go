package transaction

import "context"

// Repository is the persistent store contract for transaction records.
type Repository interface {
	// Latest returns the record with the maximum date, or nil when the
	// store is empty. Ties on date are broken by the store's ordering.
	Latest(ctx context.Context) (*Transaction, error)

	// UpsertBatch writes records in a single idempotent statement keyed by
	// identifier; a conflicting identifier overwrites the stored record.
	// Returns the number of records submitted.
	UpsertBatch(ctx context.Context, txs []Transaction) (int, error)

	// ListByAccount returns the stored records for one account, most
	// recent first.
	ListByAccount(ctx context.Context, accountID string) ([]Transaction, error)
}
