// Package account flattens aggregator accounts into the view the API serves.
package account

import (
	"github.com/shopspring/decimal"

	"akasync/internal/infrastructure/akahu"
)

// View is the flattened account representation served by the API. The
// last three fields identify the holder and are withheld from callers
// without the shared secret.
type View struct {
	Account         string           `json:"_account"`
	Connection      string           `json:"_connection"`
	ConnectionName  string           `json:"connection_name"`
	ConnectionLogo  string           `json:"connection_logo"`
	Status          string           `json:"status"`
	Balance         *decimal.Decimal `json:"balance,omitempty"`
	LastRefreshed   string           `json:"last_refreshed,omitempty"`
	InternalName    string           `json:"internal_name,omitempty"`
	FormattedNumber string           `json:"formatted_number,omitempty"`
	HolderName      string           `json:"holder_name,omitempty"`
}

// FromFeed flattens one aggregator account.
func FromFeed(a akahu.Account) View {
	v := View{
		Account:         a.ID,
		Connection:      a.Connection.ID,
		ConnectionName:  a.Connection.Name,
		ConnectionLogo:  a.Connection.Logo,
		Status:          a.Status,
		InternalName:    a.Name,
		FormattedNumber: a.FormattedAccount,
	}
	if a.Balance != nil {
		balance := a.Balance.Current
		v.Balance = &balance
	}
	if a.Meta != nil {
		v.HolderName = a.Meta.Holder
	}
	if a.Refreshed != nil {
		v.LastRefreshed = a.Refreshed.Transactions
	}
	return v
}

// Public returns a copy with the holder-identifying fields cleared.
func (v View) Public() View {
	v.InternalName = ""
	v.FormattedNumber = ""
	v.HolderName = ""
	return v
}
