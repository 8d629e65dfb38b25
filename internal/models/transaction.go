package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TxnStatusDraft     TransactionStatus = "draft"
	TxnStatusPending   TransactionStatus = "pending"
	TxnStatusApproved  TransactionStatus = "approved"
	TxnStatusPosted    TransactionStatus = "posted"
	TxnStatusCancelled TransactionStatus = "cancelled"
	TxnStatusReversed  TransactionStatus = "reversed"
)

// Postable reports whether a transaction in this status may be posted.
func (s TransactionStatus) Postable() bool {
	switch s {
	case TxnStatusDraft, TxnStatusPending, TxnStatusApproved:
		return true
	}
	return false
}

// Cancellable reports whether a transaction in this status may be cancelled.
// Posted transactions can only be undone via reversal.
func (s TransactionStatus) Cancellable() bool {
	return s.Postable()
}

// Transaction groups a balanced set of journal entries.
type Transaction struct {
	ID                    string            `json:"id" db:"id"`
	EntityID              string            `json:"entity_id" db:"entity_id"`
	Description           string            `json:"description" db:"description"`
	Reference             string            `json:"reference" db:"reference"`
	TransactionDate       time.Time         `json:"transaction_date" db:"transaction_date"`
	PostingDate           *time.Time        `json:"posting_date,omitempty" db:"posting_date"`
	Status                TransactionStatus `json:"status" db:"status"`
	ReversedTransactionID string            `json:"reversed_transaction_id,omitempty" db:"reversed_transaction_id"`
	Entries               []*JournalEntry   `json:"entries,omitempty"`
	CreatedAt             time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at" db:"updated_at"`
}

// TotalDebits sums the debit side of all entries.
func (t *Transaction) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Entries {
		total = total.Add(e.Debit)
	}
	return total
}

// TotalCredits sums the credit side of all entries.
func (t *Transaction) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Entries {
		total = total.Add(e.Credit)
	}
	return total
}

// BaseTotals sums debit and credit sides in the base currency.
func (t *Transaction) BaseTotals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, e := range t.Entries {
		if e.Debit.IsPositive() {
			debits = debits.Add(e.BaseAmount)
		} else {
			credits = credits.Add(e.BaseAmount)
		}
	}
	return debits, credits
}

// JournalEntry is one side of a double-entry: exactly one of Debit/Credit
// is non-zero and positive.
type JournalEntry struct {
	ID            string          `json:"id" db:"id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	AccountID     string          `json:"account_id" db:"account_id"`
	Debit         decimal.Decimal `json:"debit" db:"debit"`
	Credit        decimal.Decimal `json:"credit" db:"credit"`
	Currency      string          `json:"currency" db:"currency"`
	BaseAmount    decimal.Decimal `json:"base_amount" db:"base_amount"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate" db:"exchange_rate"`
	Memo          string          `json:"memo" db:"memo"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// CreateTransactionRequest is the payload for creating a draft transaction.
type CreateTransactionRequest struct {
	Description     string         `json:"description" binding:"required"`
	Reference       string         `json:"reference"`
	TransactionDate time.Time      `json:"transaction_date" binding:"required"`
	Entries         []EntryRequest `json:"entries" binding:"required"`
}

// EntryRequest is a single entry line in a transaction request. The account
// may be referenced by id or by code.
type EntryRequest struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Currency    string          `json:"currency"`
	Memo        string          `json:"memo"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	EntityID  string
	From      *time.Time
	To        *time.Time
	AccountID string
	Status    TransactionStatus
	Search    string
	Page      int
	Limit     int
}

// TransactionPage is one page of a transaction listing.
type TransactionPage struct {
	Transactions []*Transaction `json:"transactions"`
	Total        int            `json:"total"`
	Page         int            `json:"page"`
	Limit        int            `json:"limit"`
}
