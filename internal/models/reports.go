package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is a point-in-time balance for a single account.
type AccountBalance struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	Balance     decimal.Decimal `json:"balance"`
	AsOf        time.Time       `json:"as_of"`
}

// TrialBalanceRow holds per-account debit/credit totals over posted entries.
type TrialBalanceRow struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType AccountType     `json:"account_type"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

// TrialBalance lists all active accounts with their totals. For consistent
// data TotalDebits always equals TotalCredits.
type TrialBalance struct {
	AsOf         time.Time         `json:"as_of"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	Balanced     bool              `json:"balanced"`
}

// ReportLine is one account line in a financial statement section.
type ReportLine struct {
	AccountID   string          `json:"account_id,omitempty"`
	AccountCode string          `json:"account_code,omitempty"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
}

// BalanceSheet groups account balances by classification as of a date.
type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []ReportLine    `json:"assets"`
	Liabilities      []ReportLine    `json:"liabilities"`
	Equity           []ReportLine    `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
}

// IncomeStatement sums revenue and expense activity over a period.
type IncomeStatement struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Revenues      []ReportLine    `json:"revenues"`
	Expenses      []ReportLine    `json:"expenses"`
	TotalRevenues decimal.Decimal `json:"total_revenues"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

// CashFlowStatement buckets cash movements by the counterpart account's
// configured activity tag. Movements against untagged accounts land in
// Unclassified rather than being guessed into a bucket.
type CashFlowStatement struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Operating    decimal.Decimal `json:"operating"`
	Investing    decimal.Decimal `json:"investing"`
	Financing    decimal.Decimal `json:"financing"`
	Unclassified decimal.Decimal `json:"unclassified"`
	NetChange    decimal.Decimal `json:"net_change"`
}

// CashFlowEntry is one journal entry within a cash-touching transaction,
// annotated with its account's cash classification. Amounts are in the
// base currency.
type CashFlowEntry struct {
	IsCash   bool
	Activity CashFlowActivity
	Debit    decimal.Decimal
	Credit   decimal.Decimal
}

// ReconciliationReport summarizes a period's posted activity and any
// transactions whose entries do not balance.
type ReconciliationReport struct {
	ID                string          `json:"id" db:"id"`
	EntityID          string          `json:"entity_id" db:"entity_id"`
	StartDate         time.Time       `json:"start_date" db:"start_date"`
	EndDate           time.Time       `json:"end_date" db:"end_date"`
	TotalTransactions int             `json:"total_transactions" db:"total_transactions"`
	TotalDebits       decimal.Decimal `json:"total_debits" db:"total_debits"`
	TotalCredits      decimal.Decimal `json:"total_credits" db:"total_credits"`
	IsBalanced        bool            `json:"is_balanced" db:"is_balanced"`
	Discrepancies     []string        `json:"discrepancies" db:"discrepancies"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// ExchangeRate is a base-currency conversion rate supplied by configuration.
type ExchangeRate struct {
	FromCurrency string          `json:"from_currency" db:"from_currency"`
	ToCurrency   string          `json:"to_currency" db:"to_currency"`
	Rate         decimal.Decimal `json:"rate" db:"rate"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}
