package transaction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Identifier prefixes assigned by the aggregator. The store schema enforces
// them with CHECK constraints.
const (
	IDPrefix         = "trans_"
	AccountPrefix    = "acc_"
	ConnectionPrefix = "conn_"
)

// DummyID is the identifier of the transient startup verification record.
// It is inserted and deleted during store verification and must never be
// treated as real traffic.
const DummyID = "trans_dummy"

// Transaction is one financial ledger line as delivered by the aggregator.
// Timestamps are kept as the ISO-8601 strings the feed produced; Date may
// carry only day precision depending on the source bank.
type Transaction struct {
	ID          string          `json:"_id"`
	Account     string          `json:"_account"`
	Connection  string          `json:"_connection"`
	CreatedAt   string          `json:"created_at"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Type        string          `json:"type"`
}

// Time parses the transaction date. Day-only dates parse to midnight UTC.
func (t *Transaction) Time() (time.Time, error) {
	return ParseDate(t.Date)
}

// dateLayouts covers the forms the feed is known to emit, most specific
// first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 date string that may carry full timestamp
// or day-only precision.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
