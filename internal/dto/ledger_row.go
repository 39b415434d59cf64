package dto

// LedgerRow is the strict schema for one raw ledger transaction as returned
// by the budget API. It is validated once at the classifier boundary so
// malformed input surfaces in a single place instead of scattering
// missing-key risk through the resolver.
type LedgerRow struct {
	ID                    string    `json:"id"`
	Date                  string    `json:"date"` // YYYY-MM-DD
	Amount                int64     `json:"amount"`
	Memo                  *string   `json:"memo"`
	Cleared               string    `json:"cleared"`
	Approved              bool      `json:"approved"`
	FlagColor             *string   `json:"flag_color"`
	AccountID             string    `json:"account_id"`
	PayeeID               *string   `json:"payee_id"`
	PayeeName             *string   `json:"payee_name"`
	CategoryID            *string   `json:"category_id"`
	CategoryName          *string   `json:"category_name"`
	TransferAccountID     *string   `json:"transfer_account_id"`
	TransferTransactionID *string   `json:"transfer_transaction_id"`
	ImportID              *string   `json:"import_id"`
	Deleted               bool      `json:"deleted"`
	Subtransactions       []SubRow  `json:"subtransactions"`
}

// SubRow is one sub-entry of a split ledger transaction.
type SubRow struct {
	ID                    string  `json:"id"`
	TransactionID         string  `json:"transaction_id"`
	Amount                int64   `json:"amount"`
	Memo                  *string `json:"memo"`
	PayeeID               *string `json:"payee_id"`
	PayeeName             *string `json:"payee_name"`
	CategoryID            *string `json:"category_id"`
	CategoryName          *string `json:"category_name"`
	TransferAccountID     *string `json:"transfer_account_id"`
	TransferTransactionID *string `json:"transfer_transaction_id"`
	Deleted               bool    `json:"deleted"`
}

// StringOrEmpty dereferences an optional string field.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
