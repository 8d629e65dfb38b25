package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"general-ledger/internal/models"
)

// equationTolerance is the presentation-boundary epsilon for the accounting
// equation check. Internal arithmetic is exact decimal.
var equationTolerance = decimal.NewFromFloat(0.01)

// ReportStore is the aggregation surface the report service needs.
type ReportStore interface {
	AccountTotals(ctx context.Context, entityID string, from *time.Time, to time.Time) ([]models.TrialBalanceRow, error)
	CashFlowRows(ctx context.Context, entityID string, from, to time.Time) ([]models.CashFlowEntry, error)
	PostedTransactions(ctx context.Context, entityID string, from, to time.Time) ([]*models.Transaction, error)
	SaveReconciliationReport(ctx context.Context, report *models.ReconciliationReport) error
}

// ReportService projects posted ledger activity into financial statements.
type ReportService struct {
	store  ReportStore
	cache  *SnapshotCache
	logger *zap.Logger
}

func NewReportService(store ReportStore, cache *SnapshotCache, logger *zap.Logger) *ReportService {
	return &ReportService{store: store, cache: cache, logger: logger}
}

// TrialBalance lists every active account with debit/credit totals over
// posted entries up to asOf. Grand totals must match for consistent data.
func (s *ReportService) TrialBalance(ctx context.Context, entityID string, asOf time.Time) (*models.TrialBalance, error) {
	// Keys carry the full timestamp so two as-of moments on the same day
	// never share a snapshot.
	cacheKey := "trial-balance:" + asOf.Format(time.RFC3339)
	cached := &models.TrialBalance{}
	if s.cache.Get(ctx, entityID, cacheKey, cached) {
		return cached, nil
	}

	rows, err := s.store.AccountTotals(ctx, entityID, nil, asOf)
	if err != nil {
		return nil, err
	}

	tb := &models.TrialBalance{AsOf: asOf, Rows: rows, TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}
	for _, row := range rows {
		tb.TotalDebits = tb.TotalDebits.Add(row.DebitTotal)
		tb.TotalCredits = tb.TotalCredits.Add(row.CreditTotal)
	}
	tb.Balanced = tb.TotalDebits.Equal(tb.TotalCredits)
	if !tb.Balanced {
		s.logger.Error("trial balance does not balance",
			zap.String("entity_id", entityID),
			zap.String("total_debits", tb.TotalDebits.StringFixed(2)),
			zap.String("total_credits", tb.TotalCredits.StringFixed(2)))
	}

	s.cache.Set(ctx, entityID, cacheKey, tb)
	return tb, nil
}

// BalanceSheet groups account balances by classification as of a date.
// Revenue and expense activity not yet closed to equity appears as a
// computed current-earnings line. If the accounting equation does not hold
// the report is refused rather than rendered wrong.
func (s *ReportService) BalanceSheet(ctx context.Context, entityID string, asOf time.Time) (*models.BalanceSheet, error) {
	cacheKey := "balance-sheet:" + asOf.Format(time.RFC3339)
	cached := &models.BalanceSheet{}
	if s.cache.Get(ctx, entityID, cacheKey, cached) {
		return cached, nil
	}

	rows, err := s.store.AccountTotals(ctx, entityID, nil, asOf)
	if err != nil {
		return nil, err
	}

	bs := &models.BalanceSheet{
		AsOf:             asOf,
		Assets:           []models.ReportLine{},
		Liabilities:      []models.ReportLine{},
		Equity:           []models.ReportLine{},
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	currentEarnings := decimal.Zero

	for _, row := range rows {
		balance := signedBalance(row)
		switch row.AccountType {
		case models.AccountTypeAsset:
			bs.TotalAssets = bs.TotalAssets.Add(balance)
			if !balance.IsZero() {
				bs.Assets = append(bs.Assets, line(row, balance))
			}
		case models.AccountTypeLiability:
			bs.TotalLiabilities = bs.TotalLiabilities.Add(balance)
			if !balance.IsZero() {
				bs.Liabilities = append(bs.Liabilities, line(row, balance))
			}
		case models.AccountTypeEquity:
			bs.TotalEquity = bs.TotalEquity.Add(balance)
			if !balance.IsZero() {
				bs.Equity = append(bs.Equity, line(row, balance))
			}
		case models.AccountTypeRevenue:
			currentEarnings = currentEarnings.Add(balance)
		case models.AccountTypeExpense:
			currentEarnings = currentEarnings.Sub(balance)
		}
	}

	if !currentEarnings.IsZero() {
		bs.Equity = append(bs.Equity, models.ReportLine{Name: "Current period earnings", Amount: currentEarnings})
	}
	bs.TotalEquity = bs.TotalEquity.Add(currentEarnings)

	liabilitiesAndEquity := bs.TotalLiabilities.Add(bs.TotalEquity)
	if bs.TotalAssets.Sub(liabilitiesAndEquity).Abs().GreaterThanOrEqual(equationTolerance) {
		err := &models.AccountingEquationError{
			Assets:               bs.TotalAssets,
			LiabilitiesAndEquity: liabilitiesAndEquity,
		}
		s.logger.Error("accounting equation violated",
			zap.String("entity_id", entityID),
			zap.Error(err))
		return nil, err
	}

	s.cache.Set(ctx, entityID, cacheKey, bs)
	return bs, nil
}

// IncomeStatement sums revenue and expense activity over a period.
func (s *ReportService) IncomeStatement(ctx context.Context, entityID string, from, to time.Time) (*models.IncomeStatement, error) {
	cacheKey := fmt.Sprintf("income-statement:%s:%s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	cached := &models.IncomeStatement{}
	if s.cache.Get(ctx, entityID, cacheKey, cached) {
		return cached, nil
	}

	rows, err := s.store.AccountTotals(ctx, entityID, &from, to)
	if err != nil {
		return nil, err
	}

	is := &models.IncomeStatement{
		From:          from,
		To:            to,
		Revenues:      []models.ReportLine{},
		Expenses:      []models.ReportLine{},
		TotalRevenues: decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, row := range rows {
		activity := signedBalance(row)
		switch row.AccountType {
		case models.AccountTypeRevenue:
			is.TotalRevenues = is.TotalRevenues.Add(activity)
			if !activity.IsZero() {
				is.Revenues = append(is.Revenues, line(row, activity))
			}
		case models.AccountTypeExpense:
			is.TotalExpenses = is.TotalExpenses.Add(activity)
			if !activity.IsZero() {
				is.Expenses = append(is.Expenses, line(row, activity))
			}
		}
	}
	is.NetIncome = is.TotalRevenues.Sub(is.TotalExpenses)

	s.cache.Set(ctx, entityID, cacheKey, is)
	return is, nil
}

// CashFlow buckets cash movements over a period by the counterpart account's
// configured activity. For a non-cash entry in a cash-touching transaction,
// credit minus debit is the entry's effect on cash. Movements against
// untagged accounts are reported as unclassified, never guessed.
func (s *ReportService) CashFlow(ctx context.Context, entityID string, from, to time.Time) (*models.CashFlowStatement, error) {
	cacheKey := fmt.Sprintf("cash-flow:%s:%s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	cached := &models.CashFlowStatement{}
	if s.cache.Get(ctx, entityID, cacheKey, cached) {
		return cached, nil
	}

	rows, err := s.store.CashFlowRows(ctx, entityID, from, to)
	if err != nil {
		return nil, err
	}

	cf := &models.CashFlowStatement{
		From:         from,
		To:           to,
		Operating:    decimal.Zero,
		Investing:    decimal.Zero,
		Financing:    decimal.Zero,
		Unclassified: decimal.Zero,
		NetChange:    decimal.Zero,
	}
	for _, row := range rows {
		if row.IsCash {
			cf.NetChange = cf.NetChange.Add(row.Debit.Sub(row.Credit))
			continue
		}
		effect := row.Credit.Sub(row.Debit)
		switch row.Activity {
		case models.ActivityOperating:
			cf.Operating = cf.Operating.Add(effect)
		case models.ActivityInvesting:
			cf.Investing = cf.Investing.Add(effect)
		case models.ActivityFinancing:
			cf.Financing = cf.Financing.Add(effect)
		default:
			cf.Unclassified = cf.Unclassified.Add(effect)
		}
	}

	s.cache.Set(ctx, entityID, cacheKey, cf)
	return cf, nil
}

// Reconcile checks every posted transaction in a period for balance and
// persists a report with period totals and any discrepancies found.
func (s *ReportService) Reconcile(ctx context.Context, entityID string, from, to time.Time) (*models.ReconciliationReport, error) {
	txns, err := s.store.PostedTransactions(ctx, entityID, from, to)
	if err != nil {
		return nil, err
	}

	report := &models.ReconciliationReport{
		ID:                uuid.New().String(),
		EntityID:          entityID,
		StartDate:         from,
		EndDate:           to,
		TotalTransactions: len(txns),
		TotalDebits:       decimal.Zero,
		TotalCredits:      decimal.Zero,
		CreatedAt:         time.Now(),
	}

	for _, txn := range txns {
		debits, credits := txn.BaseTotals()
		report.TotalDebits = report.TotalDebits.Add(debits)
		report.TotalCredits = report.TotalCredits.Add(credits)

		if !debits.Equal(credits) {
			report.Discrepancies = append(report.Discrepancies,
				fmt.Sprintf("transaction %s: debits %s != credits %s",
					txn.ID, debits.StringFixed(2), credits.StringFixed(2)))
		}
	}
	report.IsBalanced = len(report.Discrepancies) == 0 && report.TotalDebits.Equal(report.TotalCredits)

	if err := s.store.SaveReconciliationReport(ctx, report); err != nil {
		s.logger.Error("failed to save reconciliation report", zap.Error(err))
	}

	return report, nil
}

// signedBalance nets a row's totals following the conventional polarity of
// its account type.
func signedBalance(row models.TrialBalanceRow) decimal.Decimal {
	if models.NormalBalanceFor(row.AccountType) == models.NormalBalanceDebit {
		return row.DebitTotal.Sub(row.CreditTotal)
	}
	return row.CreditTotal.Sub(row.DebitTotal)
}

func line(row models.TrialBalanceRow, amount decimal.Decimal) models.ReportLine {
	return models.ReportLine{
		AccountID:   row.AccountID,
		AccountCode: row.AccountCode,
		Name:        row.AccountName,
		Amount:      amount,
	}
}
