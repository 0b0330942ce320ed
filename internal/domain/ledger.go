package domain

import "time"

// TransactionType enumerates the business reason for a ledger entry.
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionUsage    TransactionType = "usage"
	TransactionRefund   TransactionType = "refund"
	TransactionBonus    TransactionType = "bonus"
)

// TokenAccount holds the current credit balance for a user or anonymous
// session. The balance is mutated only through ledger operations and never
// goes negative.
type TokenAccount struct {
	AccountID string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenTransaction is one append-only ledger entry. Amount is signed: usage
// entries are negative, everything else positive. For any account the sum of
// all entries equals the account balance.
type TokenTransaction struct {
	ID            string
	AccountID     string
	Type          TransactionType
	Amount        int64
	Description   string
	RelatedTaskID string
	Reference     string
	Metadata      map[string]any
	CreatedAt     time.Time
}
