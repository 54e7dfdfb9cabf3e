package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"akasync/internal/domain/transaction"
)

// undefinedTable is the postgres error code returned when the target
// table does not exist.
const undefinedTable = "42P01"

// schemaHint is printed when the transactions table is missing so the
// operator can create it by hand; schema migration beyond this is out of
// scope.
const schemaHint = `
CREATE TABLE akahu_transactions (
	_id TEXT CHECK (_id LIKE 'trans_%') NOT NULL PRIMARY KEY,
	_account TEXT CHECK (_account LIKE 'acc_%') NOT NULL,
	_connection TEXT CHECK (_connection LIKE 'conn_%') NOT NULL,
	created_at TEXT NOT NULL,
	date TEXT NOT NULL,
	description TEXT NOT NULL,
	amount DECIMAL(10,2) NOT NULL,
	balance DECIMAL(10,2) NOT NULL,
	type TEXT NOT NULL
);`

// Verify confirms at startup that the transactions table exists and is
// writable: a select probe, then insert and delete of a known dummy row.
// Any failure here is fatal to process startup.
func Verify(ctx context.Context, db *DB) error {
	var probe string
	err := db.QueryRowContext(ctx, `SELECT _id FROM akahu_transactions LIMIT 1`).Scan(&probe)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
			return fmt.Errorf("missing table 'akahu_transactions'; create it with:\n%s", schemaHint)
		}
		return fmt.Errorf("failed to probe akahu_transactions: %w", err)
	}

	now := time.Now().UTC()
	dummy := transaction.Transaction{
		ID:          transaction.DummyID,
		Account:     "acc_dummy",
		Connection:  "conn_dummy",
		CreatedAt:   now.Format(time.RFC3339),
		Date:        now.Format("2006-01-02"),
		Description: "Dummy transaction for verification",
		Amount:      decimal.Zero,
		Balance:     decimal.Zero,
		Type:        "TEST",
	}

	insert := `
		INSERT INTO akahu_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := db.ExecContext(ctx, insert,
		dummy.ID, dummy.Account, dummy.Connection, dummy.CreatedAt, dummy.Date,
		dummy.Description, dummy.Amount, dummy.Balance, dummy.Type,
	); err != nil {
		return fmt.Errorf("failed to insert verification row: %w", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM akahu_transactions WHERE _id = $1`, dummy.ID); err != nil {
		return fmt.Errorf("failed to delete verification row: %w", err)
	}

	return nil
}
