package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"general-ledger/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// memStore is an in-memory implementation of the store interfaces, used to
// exercise the services without a database.
type memStore struct {
	accounts map[string]*models.Account
	txns     map[string]*models.Transaction
	reports  []*models.ReconciliationReport
	rates    []*models.ExchangeRate
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]*models.Account),
		txns:     make(map[string]*models.Transaction),
	}
}

// AccountStore

func (m *memStore) Create(ctx context.Context, a *models.Account) error {
	for _, existing := range m.accounts {
		if existing.EntityID == a.EntityID && existing.Code == a.Code {
			return &models.DuplicateCodeError{Code: a.Code}
		}
	}
	clone := *a
	m.accounts[a.ID] = &clone
	return nil
}

func (m *memStore) GetByID(ctx context.Context, entityID, id string) (*models.Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.EntityID != entityID {
		return nil, &models.NotFoundError{Kind: "account", Key: id}
	}
	clone := *a
	return &clone, nil
}

func (m *memStore) GetByCode(ctx context.Context, entityID, code string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.EntityID == entityID && a.Code == code {
			clone := *a
			return &clone, nil
		}
	}
	return nil, &models.NotFoundError{Kind: "account", Key: code}
}

func (m *memStore) List(ctx context.Context, filter models.AccountFilter) ([]*models.Account, error) {
	var result []*models.Account
	for _, a := range m.accounts {
		if a.EntityID != filter.EntityID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.IsActive != nil && a.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" {
			name := strings.Contains(strings.ToLower(a.Name), strings.ToLower(filter.Search))
			code := strings.HasPrefix(a.Code, filter.Search)
			if !name && !code {
				continue
			}
		}
		clone := *a
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *memStore) Children(ctx context.Context, entityID, parentID string) ([]*models.Account, error) {
	var result []*models.Account
	for _, a := range m.accounts {
		if a.EntityID == entityID && a.ParentID == parentID {
			clone := *a
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *memStore) Update(ctx context.Context, a *models.Account) error {
	existing, ok := m.accounts[a.ID]
	if !ok {
		return &models.NotFoundError{Kind: "account", Key: a.ID}
	}
	for _, other := range m.accounts {
		if other.ID != a.ID && other.EntityID == a.EntityID && other.Code == a.Code {
			return &models.DuplicateCodeError{Code: a.Code}
		}
	}
	clone := *a
	clone.CurrentBalance = existing.CurrentBalance
	m.accounts[a.ID] = &clone
	return nil
}

func (m *memStore) HasEntries(ctx context.Context, accountID string) (bool, error) {
	for _, txn := range m.txns {
		for _, e := range txn.Entries {
			if e.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memStore) CountActiveChildren(ctx context.Context, accountID string) (int, error) {
	count := 0
	for _, a := range m.accounts {
		if a.ParentID == accountID && a.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *memStore) Stats(ctx context.Context, entityID string) (*models.AccountStats, error) {
	stats := &models.AccountStats{
		ByType:       make(map[models.AccountType]int),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, a := range m.accounts {
		if a.EntityID != entityID {
			continue
		}
		stats.Total++
		stats.ByType[a.Type]++
		if a.IsActive {
			stats.Active++
		}
	}
	for _, txn := range m.txns {
		if txn.EntityID != entityID || txn.Status != models.TxnStatusPosted {
			continue
		}
		debits, credits := txn.BaseTotals()
		stats.TotalDebits = stats.TotalDebits.Add(debits)
		stats.TotalCredits = stats.TotalCredits.Add(credits)
	}
	return stats, nil
}

// TransactionStore

func (m *memStore) CreateTxn(txn *models.Transaction) {
	m.txns[txn.ID] = txn
}

func (m *memStore) Get(ctx context.Context, entityID, id string) (*models.Transaction, error) {
	txn, ok := m.txns[id]
	if !ok || txn.EntityID != entityID {
		return nil, &models.NotFoundError{Kind: "transaction", Key: id}
	}
	return txn, nil
}

func (m *memStore) ListTxns(ctx context.Context, filter models.TransactionFilter) (*models.TransactionPage, error) {
	var matched []*models.Transaction
	for _, txn := range m.txns {
		if txn.EntityID != filter.EntityID {
			continue
		}
		if filter.Status != "" && txn.Status != filter.Status {
			continue
		}
		if filter.From != nil && txn.TransactionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && txn.TransactionDate.After(*filter.To) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(txn.Description), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.AccountID != "" {
			found := false
			for _, e := range txn.Entries {
				if e.AccountID == filter.AccountID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		matched = append(matched, txn)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].TransactionDate.After(matched[j].TransactionDate)
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return &models.TransactionPage{
		Transactions: matched[start:end],
		Total:        len(matched),
		Page:         page,
		Limit:        limit,
	}, nil
}

func (m *memStore) ApplyPosting(ctx context.Context, entityID, txnID string, postingDate time.Time, deltas map[string]decimal.Decimal) error {
	txn, ok := m.txns[txnID]
	if !ok || txn.EntityID != entityID {
		return &models.NotFoundError{Kind: "transaction", Key: txnID}
	}
	if !txn.Status.Postable() {
		return &models.InvalidStateTransitionError{ID: txnID, From: txn.Status, To: models.TxnStatusPosted}
	}
	m.applyDeltas(deltas)
	txn.Status = models.TxnStatusPosted
	txn.PostingDate = &postingDate
	return nil
}

func (m *memStore) ApplyReversal(ctx context.Context, original, reversal *models.Transaction, deltas map[string]decimal.Decimal) error {
	stored, ok := m.txns[original.ID]
	if !ok {
		return &models.NotFoundError{Kind: "transaction", Key: original.ID}
	}
	if stored.Status != models.TxnStatusPosted {
		return &models.InvalidStateTransitionError{ID: original.ID, From: stored.Status, To: models.TxnStatusReversed}
	}
	m.txns[reversal.ID] = reversal
	m.applyDeltas(deltas)
	stored.Status = models.TxnStatusReversed
	stored.ReversedTransactionID = reversal.ID
	return nil
}

func (m *memStore) Cancel(ctx context.Context, entityID, txnID string) error {
	txn, ok := m.txns[txnID]
	if !ok || txn.EntityID != entityID {
		return &models.NotFoundError{Kind: "transaction", Key: txnID}
	}
	if !txn.Status.Cancellable() {
		return &models.InvalidStateTransitionError{ID: txnID, From: txn.Status, To: models.TxnStatusCancelled}
	}
	txn.Status = models.TxnStatusCancelled
	return nil
}

func (m *memStore) applyDeltas(deltas map[string]decimal.Decimal) {
	for id, delta := range deltas {
		if a, ok := m.accounts[id]; ok {
			a.CurrentBalance = a.CurrentBalance.Add(delta)
		}
	}
}

// BalanceStore

func (m *memStore) BalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	debits, credits := decimal.Zero, decimal.Zero
	for _, txn := range m.txns {
		if txn.Status != models.TxnStatusPosted || txn.TransactionDate.After(asOf) {
			continue
		}
		for _, e := range txn.Entries {
			if e.AccountID != accountID {
				continue
			}
			if e.Debit.IsPositive() {
				debits = debits.Add(e.BaseAmount)
			} else {
				credits = credits.Add(e.BaseAmount)
			}
		}
	}
	return debits, credits, nil
}

// ReportStore

func (m *memStore) AccountTotals(ctx context.Context, entityID string, from *time.Time, to time.Time) ([]models.TrialBalanceRow, error) {
	var rows []models.TrialBalanceRow
	var sorted []*models.Account
	for _, a := range m.accounts {
		if a.EntityID == entityID && a.IsActive {
			sorted = append(sorted, a)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	for _, a := range sorted {
		row := models.TrialBalanceRow{
			AccountID:   a.ID,
			AccountCode: a.Code,
			AccountName: a.Name,
			AccountType: a.Type,
			DebitTotal:  decimal.Zero,
			CreditTotal: decimal.Zero,
		}
		for _, txn := range m.txns {
			if txn.Status != models.TxnStatusPosted || txn.TransactionDate.After(to) {
				continue
			}
			if from != nil && txn.TransactionDate.Before(*from) {
				continue
			}
			for _, e := range txn.Entries {
				if e.AccountID != a.ID {
					continue
				}
				if e.Debit.IsPositive() {
					row.DebitTotal = row.DebitTotal.Add(e.BaseAmount)
				} else {
					row.CreditTotal = row.CreditTotal.Add(e.BaseAmount)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *memStore) CashFlowRows(ctx context.Context, entityID string, from, to time.Time) ([]models.CashFlowEntry, error) {
	var rows []models.CashFlowEntry
	for _, txn := range m.txns {
		if txn.EntityID != entityID || txn.Status != models.TxnStatusPosted {
			continue
		}
		if txn.TransactionDate.Before(from) || txn.TransactionDate.After(to) {
			continue
		}
		touchesCash := false
		for _, e := range txn.Entries {
			if a, ok := m.accounts[e.AccountID]; ok && a.IsCash {
				touchesCash = true
				break
			}
		}
		if !touchesCash {
			continue
		}
		for _, e := range txn.Entries {
			a := m.accounts[e.AccountID]
			row := models.CashFlowEntry{IsCash: a.IsCash, Activity: a.CashFlowActivity, Debit: decimal.Zero, Credit: decimal.Zero}
			if e.Debit.IsPositive() {
				row.Debit = e.BaseAmount
			} else {
				row.Credit = e.BaseAmount
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *memStore) PostedTransactions(ctx context.Context, entityID string, from, to time.Time) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for _, txn := range m.txns {
		if txn.EntityID != entityID || txn.Status != models.TxnStatusPosted {
			continue
		}
		if txn.TransactionDate.Before(from) || txn.TransactionDate.After(to) {
			continue
		}
		result = append(result, txn)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TransactionDate.Before(result[j].TransactionDate)
	})
	return result, nil
}

func (m *memStore) SaveReconciliationReport(ctx context.Context, report *models.ReconciliationReport) error {
	m.reports = append(m.reports, report)
	return nil
}

// RateStore

func (m *memStore) SaveRate(ctx context.Context, rate *models.ExchangeRate) error {
	m.rates = append(m.rates, rate)
	return nil
}

func (m *memStore) GetLatestRate(ctx context.Context, from, to string) (*models.ExchangeRate, error) {
	for i := len(m.rates) - 1; i >= 0; i-- {
		if m.rates[i].FromCurrency == from && m.rates[i].ToCurrency == to {
			return m.rates[i], nil
		}
	}
	return nil, &models.NotFoundError{Kind: "exchange rate", Key: from + "/" + to}
}

// txnStoreAdapter exposes memStore's transaction methods under the
// TransactionStore method set.
type txnStoreAdapter struct{ *memStore }

func (a txnStoreAdapter) Create(ctx context.Context, txn *models.Transaction) error {
	a.CreateTxn(txn)
	return nil
}

func (a txnStoreAdapter) List(ctx context.Context, filter models.TransactionFilter) (*models.TransactionPage, error) {
	return a.ListTxns(ctx, filter)
}

// newTestServices wires all services over a shared in-memory store.
func newTestServices(store *memStore) (*AccountService, *LedgerService, *ReportService) {
	log := zap.NewNop()
	cache := NewSnapshotCache(nil, time.Minute, log)
	rates := NewRateService(store, nil, map[string]decimal.Decimal{"EUR_USD": dec("1.10")}, log)
	accounts := NewAccountService(store, cache, log)
	ledger := NewLedgerService(txnStoreAdapter{store}, store, store, rates, cache, "USD", log)
	reports := NewReportService(store, cache, log)
	return accounts, ledger, reports
}
