package notification

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"akasync/internal/domain/account"
	"akasync/internal/domain/transaction"
)

// FormatTransaction renders the chat message for one persisted
// transaction. acct may be nil when the owning account could not be
// resolved; loc controls the timezone the transaction time is shown in.
func FormatTransaction(tx transaction.Transaction, acct *account.View, now time.Time, loc *time.Location) string {
	txTime, err := tx.Time()
	if err != nil {
		txTime = now
	}
	local := txTime.In(loc)

	date := local.Format("Jan 2, 2006")
	// 24-hour clock without a leading zero on the hour.
	clock := fmt.Sprintf("%d:%02d", local.Hour(), local.Minute())
	zone := local.Format("MST")
	relative := RelativeTime(txTime, now)

	amount := FormatAmount(tx.Amount)
	balance := FormatAmount(tx.Balance)

	var connection, holder string
	if acct != nil {
		connection = acct.ConnectionName
		holder = acct.HolderName
	}

	if tx.Amount.IsPositive() {
		return fmt.Sprintf(`💸 *Income: %s*
📝 %s (%s)
🏦 %s
🪪 %s
🗓️ %s at %s %s
⏱️ %s
⚖️ New balance: %s`,
			amount, tx.Description, tx.Type, connection, holder, date, clock, zone, relative, balance)
	}

	return fmt.Sprintf(`💰 *Expense: %s*
📝 %s (%s)
🏦 %s (%s)
🗓️ %s at %s (%s)
⏱️ %s
⚖️ New balance: %s`,
		amount, tx.Description, tx.Type, connection, holder, date, clock, zone, relative, balance)
}

// FormatAmount renders a signed decimal as a dollar amount, sign before
// the currency symbol.
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

type relativeUnit struct {
	limit   float64 // upper bound in seconds
	divisor float64
	name    string
}

var relativeUnits = []relativeUnit{
	{60, 1, "second"},
	{3600, 60, "minute"},
	{86400, 3600, "hour"},
	{604800, 86400, "day"},
	{2592000, 604800, "week"},
	{31536000, 2592000, "month"},
	{math.MaxFloat64, 31536000, "year"},
}

// RelativeTime renders the distance between t and now as a human phrase,
// e.g. "5 minutes ago" or "in 2 hours".
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t).Seconds()
	future := diff < 0
	if future {
		diff = -diff
	}

	for _, unit := range relativeUnits {
		if diff >= unit.limit {
			continue
		}
		n := int(math.Round(diff / unit.divisor))
		name := unit.name
		if n != 1 {
			name += "s"
		}
		if future {
			return fmt.Sprintf("in %d %s", n, name)
		}
		return fmt.Sprintf("%d %s ago", n, name)
	}
	return ""
}
