package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string
type NormalBalance string
type CashFlowActivity string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"

	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"

	ActivityOperating CashFlowActivity = "operating"
	ActivityInvesting CashFlowActivity = "investing"
	ActivityFinancing CashFlowActivity = "financing"
)

// PathSeparator joins ancestor codes into the materialized path.
const PathSeparator = "/"

// Account is a node in the chart of accounts.
type Account struct {
	ID                string           `json:"id" db:"id"`
	EntityID          string           `json:"entity_id" db:"entity_id"`
	Code              string           `json:"code" db:"code"`
	Name              string           `json:"name" db:"name"`
	Description       string           `json:"description" db:"description"`
	Type              AccountType      `json:"type" db:"type"`
	NormalBalance     NormalBalance    `json:"normal_balance" db:"normal_balance"`
	ParentID          string           `json:"parent_id,omitempty" db:"parent_id"`
	Level             int              `json:"level" db:"level"`
	Path              string           `json:"path" db:"path"`
	IsActive          bool             `json:"is_active" db:"is_active"`
	IsSystem          bool             `json:"is_system" db:"is_system"`
	AllowTransactions bool             `json:"allow_transactions" db:"allow_transactions"`
	IsCash            bool             `json:"is_cash" db:"is_cash"`
	CashFlowActivity  CashFlowActivity `json:"cash_flow_activity,omitempty" db:"cash_flow_activity"`
	CurrentBalance    decimal.Decimal  `json:"current_balance" db:"current_balance"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// ValidType reports whether t is one of the five account classifications.
func ValidType(t AccountType) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalanceFor returns the conventional balance side for an account type.
// Assets and expenses increase on the debit side, everything else on credit.
func NormalBalanceFor(t AccountType) NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// BalanceDelta returns the signed effect of a debit/credit pair on this
// account's balance, following its normal balance convention.
func (a *Account) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if a.NormalBalance == NormalBalanceDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// CreateAccountRequest is the payload for creating an account.
type CreateAccountRequest struct {
	Code              string           `json:"code" binding:"required"`
	Name              string           `json:"name" binding:"required"`
	Description       string           `json:"description"`
	Type              AccountType      `json:"type" binding:"required"`
	NormalBalance     NormalBalance    `json:"normal_balance"`
	ParentID          string           `json:"parent_id"`
	AllowTransactions *bool            `json:"allow_transactions"`
	IsCash            bool             `json:"is_cash"`
	CashFlowActivity  CashFlowActivity `json:"cash_flow_activity"`
}

// UpdateAccountRequest is the payload for updating mutable account fields.
// Code and type are immutable once the account has journal entries.
type UpdateAccountRequest struct {
	Name             *string           `json:"name"`
	Description      *string           `json:"description"`
	Code             *string           `json:"code"`
	Type             *AccountType      `json:"type"`
	IsCash           *bool             `json:"is_cash"`
	CashFlowActivity *CashFlowActivity `json:"cash_flow_activity"`
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	EntityID string
	Type     AccountType
	IsActive *bool
	Search   string
}

// AccountStats summarizes the chart of accounts for an entity.
type AccountStats struct {
	Total        int                 `json:"total"`
	Active       int                 `json:"active"`
	ByType       map[AccountType]int `json:"by_type"`
	TotalDebits  decimal.Decimal     `json:"total_debits"`
	TotalCredits decimal.Decimal     `json:"total_credits"`
}
