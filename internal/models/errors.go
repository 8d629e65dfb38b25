package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing account or transaction.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// DuplicateCodeError reports a chart-of-accounts code collision.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("account code %s already exists", e.Code)
}

// HasActiveChildrenError reports an attempt to deactivate an account that
// still has active children.
type HasActiveChildrenError struct {
	Code string
}

func (e *HasActiveChildrenError) Error() string {
	return fmt.Sprintf("account %s has active child accounts", e.Code)
}

// UnbalancedTransactionError reports debits != credits, carrying the delta.
type UnbalancedTransactionError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedTransactionError) Delta() decimal.Decimal {
	return e.Debits.Sub(e.Credits).Abs()
}

func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("transaction is unbalanced: debits %s != credits %s (delta %s)",
		e.Debits.StringFixed(2), e.Credits.StringFixed(2), e.Delta().StringFixed(2))
}

// InvalidStateTransitionError reports an illegal transaction status move.
type InvalidStateTransitionError struct {
	ID   string
	From TransactionStatus
	To   TransactionStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("transaction %s cannot move from %s to %s", e.ID, e.From, e.To)
}

// AccountingEquationError reports a balance sheet that does not balance.
// This indicates data corruption upstream and is never auto-corrected.
type AccountingEquationError struct {
	Assets               decimal.Decimal
	LiabilitiesAndEquity decimal.Decimal
}

func (e *AccountingEquationError) Delta() decimal.Decimal {
	return e.Assets.Sub(e.LiabilitiesAndEquity).Abs()
}

func (e *AccountingEquationError) Error() string {
	return fmt.Sprintf("accounting equation violated: assets %s != liabilities+equity %s (delta %s)",
		e.Assets.StringFixed(2), e.LiabilitiesAndEquity.StringFixed(2), e.Delta().StringFixed(2))
}
