package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"general-ledger/internal/models"
)

var (
	postingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_postings_total",
		Help: "Total transactions posted.",
	})
	reversalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_reversals_total",
		Help: "Total transactions reversed.",
	})
)

// TransactionStore is the persistence surface the ledger service needs.
type TransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) error
	Get(ctx context.Context, entityID, id string) (*models.Transaction, error)
	List(ctx context.Context, filter models.TransactionFilter) (*models.TransactionPage, error)
	ApplyPosting(ctx context.Context, entityID, txnID string, postingDate time.Time, deltas map[string]decimal.Decimal) error
	ApplyReversal(ctx context.Context, original, reversal *models.Transaction, deltas map[string]decimal.Decimal) error
	Cancel(ctx context.Context, entityID, txnID string) error
}

// BalanceStore provides entry aggregation for as-of balances.
type BalanceStore interface {
	BalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (debits, credits decimal.Decimal, err error)
}

// RateProvider converts entry amounts into the base currency.
type RateProvider interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// LedgerService implements transaction lifecycle and balance calculation.
type LedgerService struct {
	txns         TransactionStore
	accounts     AccountStore
	balances     BalanceStore
	rates        RateProvider
	cache        *SnapshotCache
	baseCurrency string
	logger       *zap.Logger
}

func NewLedgerService(txns TransactionStore, accounts AccountStore, balances BalanceStore, rates RateProvider, cache *SnapshotCache, baseCurrency string, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		txns:         txns,
		accounts:     accounts,
		balances:     balances,
		rates:        rates,
		cache:        cache,
		baseCurrency: baseCurrency,
		logger:       logger,
	}
}

// CreateTransaction validates and persists a draft transaction. Balances are
// not affected until the transaction is posted.
func (s *LedgerService) CreateTransaction(ctx context.Context, entityID string, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	if len(req.Entries) < 2 {
		return nil, &models.ValidationError{Field: "entries", Reason: "a transaction requires at least two entries"}
	}
	if req.TransactionDate.IsZero() {
		return nil, &models.ValidationError{Field: "transaction_date", Reason: "required"}
	}

	now := time.Now()
	txn := &models.Transaction{
		ID:              uuid.New().String(),
		EntityID:        entityID,
		Description:     req.Description,
		Reference:       req.Reference,
		TransactionDate: req.TransactionDate,
		Status:          models.TxnStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for i, er := range req.Entries {
		entry, err := s.buildEntry(ctx, entityID, txn.ID, i, &er)
		if err != nil {
			return nil, err
		}
		txn.Entries = append(txn.Entries, entry)
	}

	if err := checkBalanced(txn.Entries); err != nil {
		return nil, err
	}

	if err := s.txns.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.logger.Info("transaction created",
		zap.String("entity_id", entityID),
		zap.String("transaction_id", txn.ID),
		zap.Int("entries", len(txn.Entries)))

	return txn, nil
}

func (s *LedgerService) buildEntry(ctx context.Context, entityID, txnID string, idx int, er *models.EntryRequest) (*models.JournalEntry, error) {
	field := fmt.Sprintf("entries[%d]", idx)

	hasDebit := er.Debit.IsPositive()
	hasCredit := er.Credit.IsPositive()
	if er.Debit.IsNegative() || er.Credit.IsNegative() {
		return nil, &models.ValidationError{Field: field, Reason: "amounts must be positive"}
	}
	if hasDebit == hasCredit {
		return nil, &models.ValidationError{Field: field, Reason: "exactly one of debit or credit must be set"}
	}

	amount := er.Debit
	if hasCredit {
		amount = er.Credit
	}
	if amount.Exponent() < -2 {
		return nil, &models.ValidationError{Field: field, Reason: "amounts cannot have more than 2 decimal places"}
	}

	account, err := s.resolveAccount(ctx, entityID, er.AccountID, er.AccountCode)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, &models.ValidationError{Field: field, Reason: fmt.Sprintf("account %s is inactive", account.Code)}
	}
	if !account.AllowTransactions {
		return nil, &models.ValidationError{Field: field, Reason: fmt.Sprintf("account %s does not allow transactions", account.Code)}
	}

	currency := er.Currency
	if currency == "" {
		currency = s.baseCurrency
	}

	rate := decimal.NewFromInt(1)
	baseAmount := amount
	if currency != s.baseCurrency {
		rate, err = s.rates.GetRate(ctx, currency, s.baseCurrency)
		if err != nil {
			return nil, &models.ValidationError{Field: field, Reason: fmt.Sprintf("no exchange rate for %s", currency)}
		}
		baseAmount = amount.Mul(rate).Round(2)
	}

	return &models.JournalEntry{
		ID:            uuid.New().String(),
		TransactionID: txnID,
		AccountID:     account.ID,
		Debit:         er.Debit,
		Credit:        er.Credit,
		Currency:      currency,
		BaseAmount:    baseAmount,
		ExchangeRate:  rate,
		Memo:          er.Memo,
		CreatedAt:     time.Now(),
	}, nil
}

func (s *LedgerService) resolveAccount(ctx context.Context, entityID, id, code string) (*models.Account, error) {
	if id != "" {
		return s.accounts.GetByID(ctx, entityID, id)
	}
	if code != "" {
		return s.accounts.GetByCode(ctx, entityID, code)
	}
	return nil, &models.ValidationError{Field: "account_id", Reason: "account reference required"}
}

// checkBalanced verifies total base-currency debits equal total credits.
func checkBalanced(entries []*models.JournalEntry) error {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, e := range entries {
		if e.Debit.IsPositive() {
			debits = debits.Add(e.BaseAmount)
		} else {
			credits = credits.Add(e.BaseAmount)
		}
	}
	if !debits.Equal(credits) {
		return &models.UnbalancedTransactionError{Debits: debits, Credits: credits}
	}
	return nil
}

// PostTransaction applies a draft transaction's entries to account balances.
// The balance is re-validated before posting and the status change plus
// balance updates happen atomically, so a double post is rejected rather
// than double-applied.
func (s *LedgerService) PostTransaction(ctx context.Context, entityID, id string) (*models.Transaction, error) {
	txn, err := s.txns.Get(ctx, entityID, id)
	if err != nil {
		return nil, err
	}
	if !txn.Status.Postable() {
		return nil, &models.InvalidStateTransitionError{ID: id, From: txn.Status, To: models.TxnStatusPosted}
	}
	if err := checkBalanced(txn.Entries); err != nil {
		return nil, err
	}

	deltas, err := s.balanceDeltas(ctx, entityID, txn.Entries)
	if err != nil {
		return nil, err
	}

	postingDate := time.Now()
	if err := s.txns.ApplyPosting(ctx, entityID, id, postingDate, deltas); err != nil {
		return nil, err
	}

	postingsTotal.Inc()
	s.cache.InvalidateEntity(ctx, entityID)
	s.logger.Info("transaction posted",
		zap.String("entity_id", entityID),
		zap.String("transaction_id", id))

	return s.txns.Get(ctx, entityID, id)
}

// ReverseTransaction creates and posts a mirror transaction for a posted
// original, then links the two. The original becomes immutable in REVERSED
// status.
func (s *LedgerService) ReverseTransaction(ctx context.Context, entityID, id string) (*models.Transaction, error) {
	original, err := s.txns.Get(ctx, entityID, id)
	if err != nil {
		return nil, err
	}
	if original.Status != models.TxnStatusPosted {
		return nil, &models.InvalidStateTransitionError{ID: id, From: original.Status, To: models.TxnStatusReversed}
	}

	now := time.Now()
	reversal := &models.Transaction{
		ID:                    uuid.New().String(),
		EntityID:              entityID,
		Description:           "Reversal of: " + original.Description,
		Reference:             original.Reference,
		TransactionDate:       now,
		PostingDate:           &now,
		Status:                models.TxnStatusPosted,
		ReversedTransactionID: original.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	for _, e := range original.Entries {
		reversal.Entries = append(reversal.Entries, &models.JournalEntry{
			ID:            uuid.New().String(),
			TransactionID: reversal.ID,
			AccountID:     e.AccountID,
			Debit:         e.Credit,
			Credit:        e.Debit,
			Currency:      e.Currency,
			BaseAmount:    e.BaseAmount,
			ExchangeRate:  e.ExchangeRate,
			Memo:          e.Memo,
			CreatedAt:     now,
		})
	}

	deltas, err := s.balanceDeltas(ctx, entityID, reversal.Entries)
	if err != nil {
		return nil, err
	}

	if err := s.txns.ApplyReversal(ctx, original, reversal, deltas); err != nil {
		return nil, err
	}

	reversalsTotal.Inc()
	s.cache.InvalidateEntity(ctx, entityID)
	s.logger.Info("transaction reversed",
		zap.String("entity_id", entityID),
		zap.String("transaction_id", id),
		zap.String("reversal_id", reversal.ID))

	return reversal, nil
}

// CancelTransaction moves a pre-posted transaction to its terminal cancelled
// state. No balances are affected.
func (s *LedgerService) CancelTransaction(ctx context.Context, entityID, id string) error {
	if err := s.txns.Cancel(ctx, entityID, id); err != nil {
		return err
	}
	s.logger.Info("transaction cancelled",
		zap.String("entity_id", entityID),
		zap.String("transaction_id", id))
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, entityID, id string) (*models.Transaction, error) {
	return s.txns.Get(ctx, entityID, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, filter models.TransactionFilter) (*models.TransactionPage, error) {
	return s.txns.List(ctx, filter)
}

// balanceDeltas computes the signed effect per account of a set of entries,
// following each account's normal balance convention.
func (s *LedgerService) balanceDeltas(ctx context.Context, entityID string, entries []*models.JournalEntry) (map[string]decimal.Decimal, error) {
	deltas := make(map[string]decimal.Decimal)
	for _, e := range entries {
		account, err := s.accounts.GetByID(ctx, entityID, e.AccountID)
		if err != nil {
			return nil, err
		}
		debit, credit := decimal.Zero, decimal.Zero
		if e.Debit.IsPositive() {
			debit = e.BaseAmount
		} else {
			credit = e.BaseAmount
		}
		deltas[e.AccountID] = deltas[e.AccountID].Add(account.BalanceDelta(debit, credit))
	}
	return deltas, nil
}

// GetBalance returns an account balance. Without an as-of date, the eagerly
// maintained current balance is returned; with one, the balance is recomputed
// from posted entries up to that date.
func (s *LedgerService) GetBalance(ctx context.Context, entityID, key string, asOf *time.Time) (*models.AccountBalance, error) {
	account, err := s.getByKey(ctx, entityID, key)
	if err != nil {
		return nil, err
	}

	if asOf == nil {
		return &models.AccountBalance{
			AccountID:   account.ID,
			AccountCode: account.Code,
			Balance:     account.CurrentBalance,
			AsOf:        time.Now(),
		}, nil
	}

	debits, credits, err := s.balances.BalanceAsOf(ctx, account.ID, *asOf)
	if err != nil {
		return nil, err
	}
	return &models.AccountBalance{
		AccountID:   account.ID,
		AccountCode: account.Code,
		Balance:     account.BalanceDelta(debits, credits),
		AsOf:        *asOf,
	}, nil
}

// VerifyBalance recomputes an account balance from posted entries and
// compares it to the stored current balance. A mismatch means the ledger
// and the denormalized balance column have diverged.
func (s *LedgerService) VerifyBalance(ctx context.Context, entityID, key string) (stored, computed decimal.Decimal, consistent bool, err error) {
	account, err := s.getByKey(ctx, entityID, key)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, err
	}
	debits, credits, err := s.balances.BalanceAsOf(ctx, account.ID, time.Now())
	if err != nil {
		return decimal.Zero, decimal.Zero, false, err
	}
	computed = account.BalanceDelta(debits, credits)
	return account.CurrentBalance, computed, account.CurrentBalance.Equal(computed), nil
}

func (s *LedgerService) getByKey(ctx context.Context, entityID, key string) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, entityID, key)
	if err == nil {
		return account, nil
	}
	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		return s.accounts.GetByCode(ctx, entityID, key)
	}
	return nil, err
}
