package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"akasync/internal/domain/transaction"
)

// upsertChunkSize keeps each statement well under the postgres placeholder
// limit (9 columns per row).
const upsertChunkSize = 1000

const transactionColumns = `_id, _account, _connection, created_at, date, description, amount, balance, type`

type TransactionRepository struct {
	db *DB
}

var _ transaction.Repository = (*TransactionRepository)(nil)

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Latest returns the stored record with the maximum date, or nil when the
// table is empty.
func (r *TransactionRepository) Latest(ctx context.Context) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM akahu_transactions
		ORDER BY date DESC
		LIMIT 1
	`

	var tx transaction.Transaction
	err := r.db.QueryRowContext(ctx, query).Scan(
		&tx.ID, &tx.Account, &tx.Connection, &tx.CreatedAt, &tx.Date,
		&tx.Description, &tx.Amount, &tx.Balance, &tx.Type,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest transaction: %w", err)
	}
	return &tx, nil
}

// UpsertBatch writes records keyed by identifier; conflicts overwrite the
// stored record, making retried runs safe. Returns the number of records
// submitted.
func (r *TransactionRepository) UpsertBatch(ctx context.Context, txs []transaction.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	for start := 0; start < len(txs); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(txs) {
			end = len(txs)
		}
		if err := r.upsertChunk(ctx, txs[start:end]); err != nil {
			return start, err
		}
	}
	return len(txs), nil
}

func (r *TransactionRepository) upsertChunk(ctx context.Context, txs []transaction.Transaction) error {
	var b strings.Builder
	b.WriteString(`INSERT INTO akahu_transactions (` + transactionColumns + `) VALUES `)

	args := make([]any, 0, len(txs)*9)
	for i, tx := range txs {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 9
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args,
			tx.ID, tx.Account, tx.Connection, tx.CreatedAt, tx.Date,
			tx.Description, tx.Amount, tx.Balance, tx.Type,
		)
	}

	b.WriteString(`
		ON CONFLICT (_id) DO UPDATE SET
			_account = EXCLUDED._account,
			_connection = EXCLUDED._connection,
			created_at = EXCLUDED.created_at,
			date = EXCLUDED.date,
			description = EXCLUDED.description,
			amount = EXCLUDED.amount,
			balance = EXCLUDED.balance,
			type = EXCLUDED.type`)

	if _, err := r.db.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("failed to upsert %d transactions: %w", len(txs), err)
	}
	return nil
}

// ListByAccount returns the stored records for one account, most recent
// first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string) ([]transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM akahu_transactions
		WHERE _account = $1
		ORDER BY date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	txs := make([]transaction.Transaction, 0)
	for rows.Next() {
		var tx transaction.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.Account, &tx.Connection, &tx.CreatedAt, &tx.Date,
			&tx.Description, &tx.Amount, &tx.Balance, &tx.Type,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}
