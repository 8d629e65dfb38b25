package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"general-ledger/internal/models"
)

// seedReportingLedger sets up a chart and posts a month of activity:
//
//	Mar 01  cash sale            1000  (cash <- revenue, operating)
//	Mar 05  rent paid             300  (rent <- cash, operating)
//	Mar 10  equipment purchase    400  (equipment <- cash, investing)
//	Mar 15  loan received         500  (cash <- loan, financing)
//	Mar 20  credit sale           200  (receivable <- revenue, no cash)
//	Mar 25  receivable collected  150  (cash <- receivable, untagged)
func seedReportingLedger(t *testing.T, accounts *AccountService, ledger *LedgerService) {
	t.Helper()
	ctx := context.Background()

	for _, seed := range []models.CreateAccountRequest{
		{Code: "1000", Name: "Cash", Type: models.AccountTypeAsset, IsCash: true},
		{Code: "1100", Name: "Accounts Receivable", Type: models.AccountTypeAsset},
		{Code: "1500", Name: "Equipment", Type: models.AccountTypeAsset, CashFlowActivity: models.ActivityInvesting},
		{Code: "2500", Name: "Bank Loan", Type: models.AccountTypeLiability, CashFlowActivity: models.ActivityFinancing},
		{Code: "4000", Name: "Service Revenue", Type: models.AccountTypeRevenue, CashFlowActivity: models.ActivityOperating},
		{Code: "5000", Name: "Rent Expense", Type: models.AccountTypeExpense, CashFlowActivity: models.ActivityOperating},
	} {
		_, err := accounts.Create(ctx, testEntity, &seed)
		require.NoError(t, err)
	}

	post := func(day int, description, debitCode, creditCode, amount string) {
		txn, err := ledger.CreateTransaction(ctx, testEntity, &models.CreateTransactionRequest{
			Description:     description,
			TransactionDate: date(2025, 3, day),
			Entries: []models.EntryRequest{
				{AccountCode: debitCode, Debit: dec(amount)},
				{AccountCode: creditCode, Credit: dec(amount)},
			},
		})
		require.NoError(t, err)
		_, err = ledger.PostTransaction(ctx, testEntity, txn.ID)
		require.NoError(t, err)
	}

	post(1, "Cash sale", "1000", "4000", "1000.00")
	post(5, "March rent", "5000", "1000", "300.00")
	post(10, "Equipment purchase", "1500", "1000", "400.00")
	post(15, "Loan drawdown", "1000", "2500", "500.00")
	post(20, "Credit sale", "1100", "4000", "200.00")
	post(25, "Receivable collection", "1000", "1100", "150.00")
}

func TestTrialBalance(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedReportingLedger(t, accounts, ledger)

	tb, err := reports.TrialBalance(context.Background(), testEntity, date(2025, 4, 1))
	require.NoError(t, err)

	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebits.Equal(dec("2550.00")))
	assert.True(t, tb.TotalCredits.Equal(dec("2550.00")))

	byCode := make(map[string]models.TrialBalanceRow)
	for _, row := range tb.Rows {
		byCode[row.AccountCode] = row
	}
	cash := byCode["1000"]
	assert.True(t, cash.DebitTotal.Equal(dec("1650.00")))
	assert.True(t, cash.CreditTotal.Equal(dec("700.00")))
	revenue := byCode["4000"]
	assert.True(t, revenue.CreditTotal.Equal(dec("1200.00")))
}

func TestTrialBalance_ExcludesDrafts(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedReportingLedger(t, accounts, ledger)
	ctx := context.Background()

	// A draft after the fact changes nothing.
	_, err := ledger.CreateTransaction(ctx, testEntity, &models.CreateTransactionRequest{
		Description:     "Unposted sale",
		TransactionDate: date(2025, 3, 28),
		Entries: []models.EntryRequest{
			{AccountCode: "1000", Debit: dec("5000.00")},
			{AccountCode: "4000", Credit: dec("5000.00")},
		},
	})
	require.NoError(t, err)

	tb, err := reports.TrialBalance(ctx, testEntity, date(2025, 4, 1))
	require.NoError(t, err)
	assert.True(t, tb.TotalDebits.Equal(dec("2550.00")))
}

func TestBalanceSheet(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedReportingLedger(t, accounts, ledger)

	bs, err := reports.BalanceSheet(context.Background(), testEntity, date(2025, 4, 1))
	require.NoError(t, err)

	// Cash 950 + Receivable 50 + Equipment 400.
	assert.True(t, bs.TotalAssets.Equal(dec("1400.00")))
	assert.True(t, bs.TotalLiabilities.Equal(dec("500.00")))
	// No explicit equity postings, so all equity is current earnings.
	assert.True(t, bs.TotalEquity.Equal(dec("900.00")))
	require.NotEmpty(t, bs.Equity)
	assert.Equal(t, "Current period earnings", bs.Equity[len(bs.Equity)-1].Name)

	assert.True(t, bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity)))
}

func TestBalanceSheet_EquationViolationRefused(t *testing.T) {
	store := newMemStore()
	accounts, ledger, reports := newTestServices(store)
	seedReportingLedger(t, accounts, ledger)

	// Inject a corrupt posted transaction that only touches one side.
	corrupt := unbalancedTransaction(t, store, date(2025, 3, 30))
	store.txns[corrupt.ID] = corrupt

	_, err := reports.BalanceSheet(context.Background(), testEntity, date(2025, 4, 1))
	var eqErr *models.AccountingEquationError
	require.ErrorAs(t, err, &eqErr)
	assert.True(t, eqErr.Delta().Abs().GreaterThanOrEqual(dec("0.01")))
}

func TestIncomeStatement(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedReportingLedger(t, accounts, ledger)

	is, err := reports.IncomeStatement(context.Background(), testEntity, date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	assert.True(t, is.TotalRevenues.Equal(dec("1200.00")))
	assert.True(t, is.TotalExpenses.Equal(dec("300.00")))
	assert.True(t, is.NetIncome.Equal(dec("900.00")))
	require.Len(t, is.Revenues, 1)
	assert.Equal(t, "4000", is.Revenues[0].AccountCode)
}

func TestIncomeStatement_PeriodFiltering(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedReportingLedger(t, accounts, ledger)
	ctx := context.Background()

	// Only the Mar 1 sale falls in the first week.
	firstWeek, err := reports.IncomeStatement(ctx, testEntity, date(2025, 3, 1), date(2025, 3, 7))
	require.NoError(t, err)
	assert.True(t, firstWeek.TotalRevenues.Equal(dec("1000.00")))
	assert.True(t, firstWeek.TotalExpenses.Equal(dec("300.00")))

	// An empty period reports zeros, not errors.
	empty, err := reports.IncomeStatement(ctx, testEntity, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	assert.True(t, empty.TotalRevenues.IsZero())
	assert.True(t, empty.TotalExpenses.IsZero())
	assert.True(t, empty.NetIncome.IsZero())
	assert.Empty(t, empty.Revenues)
}

func TestCashFlow(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedReportingLedger(t, accounts, ledger)

	cf, err := reports.CashFlow(context.Background(), testEntity, date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	// Sale +1000 and rent -300 are operating; the equipment purchase is
	// investing, the loan financing. The credit sale never touches cash.
	// The receivable collection hits an untagged account, so it lands in
	// the unclassified bucket instead of being guessed into operating.
	assert.True(t, cf.Operating.Equal(dec("700.00")))
	assert.True(t, cf.Investing.Equal(dec("-400.00")))
	assert.True(t, cf.Financing.Equal(dec("500.00")))
	assert.True(t, cf.Unclassified.Equal(dec("150.00")))
	assert.True(t, cf.NetChange.Equal(dec("950.00")))

	// Buckets fully explain the net change in cash.
	sum := cf.Operating.Add(cf.Investing).Add(cf.Financing).Add(cf.Unclassified)
	assert.True(t, sum.Equal(cf.NetChange))
}

func TestCashFlow_EmptyPeriod(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedReportingLedger(t, accounts, ledger)

	cf, err := reports.CashFlow(context.Background(), testEntity, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	assert.True(t, cf.NetChange.IsZero())
	assert.True(t, cf.Operating.IsZero())
	assert.True(t, cf.Unclassified.IsZero())
}

func TestCashFlow_RetagRefreshesSnapshot(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedReportingLedger(t, accounts, ledger)
	ctx := context.Background()

	cf, err := reports.CashFlow(ctx, testEntity, date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)
	assert.True(t, cf.Operating.Equal(dec("700.00")))
	assert.True(t, cf.Unclassified.Equal(dec("150.00")))

	// Tagging the receivable account drops the cached statement, so the
	// next request reclassifies the collection instead of reading stale
	// buckets for the rest of the TTL.
	receivable, err := accounts.Get(ctx, testEntity, "1100")
	require.NoError(t, err)
	activity := models.ActivityOperating
	_, err = accounts.Update(ctx, testEntity, receivable.ID, &models.UpdateAccountRequest{CashFlowActivity: &activity})
	require.NoError(t, err)

	cf, err = reports.CashFlow(ctx, testEntity, date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)
	assert.True(t, cf.Operating.Equal(dec("850.00")))
	assert.True(t, cf.Unclassified.IsZero())
	assert.True(t, cf.NetChange.Equal(dec("950.00")))
}

func TestTrialBalance_IntraDayAsOf(t *testing.T) {
	accounts, ledger, reports := newTestServices(newMemStore())
	seedSalesChart(t, accounts)
	ctx := context.Background()

	txn, err := ledger.CreateTransaction(ctx, testEntity, &models.CreateTransactionRequest{
		Description:     "Midday sale",
		TransactionDate: date(2025, 3, 15).Add(12 * time.Hour),
		Entries: []models.EntryRequest{
			{AccountCode: "1000", Debit: dec("500.00")},
			{AccountCode: "4000", Credit: dec("500.00")},
		},
	})
	require.NoError(t, err)
	_, err = ledger.PostTransaction(ctx, testEntity, txn.ID)
	require.NoError(t, err)

	// Two as-of moments on the same day see different ledgers; the morning
	// snapshot must not be served for the evening request.
	morning, err := reports.TrialBalance(ctx, testEntity, date(2025, 3, 15))
	require.NoError(t, err)
	assert.True(t, morning.TotalDebits.IsZero())

	evening, err := reports.TrialBalance(ctx, testEntity, date(2025, 3, 15).Add(23*time.Hour))
	require.NoError(t, err)
	assert.True(t, evening.TotalDebits.Equal(dec("500.00")))
}

func TestReconcile(t *testing.T) {
	store := newMemStore()
	accounts, ledger, reports := newTestServices(store)
	seedReportingLedger(t, accounts, ledger)

	report, err := reports.Reconcile(context.Background(), testEntity, date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	assert.Equal(t, 6, report.TotalTransactions)
	assert.True(t, report.IsBalanced)
	assert.Empty(t, report.Discrepancies)
	assert.True(t, report.TotalDebits.Equal(report.TotalCredits))

	// The report is persisted.
	require.Len(t, store.reports, 1)
	assert.Equal(t, report.ID, store.reports[0].ID)
}

func TestReconcile_FlagsUnbalanced(t *testing.T) {
	store := newMemStore()
	accounts, ledger, reports := newTestServices(store)
	seedReportingLedger(t, accounts, ledger)

	corrupt := unbalancedTransaction(t, store, date(2025, 3, 30))
	store.txns[corrupt.ID] = corrupt

	report, err := reports.Reconcile(context.Background(), testEntity, date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	assert.False(t, report.IsBalanced)
	require.Len(t, report.Discrepancies, 1)
	assert.Contains(t, report.Discrepancies[0], corrupt.ID)
}

// unbalancedTransaction fabricates a posted transaction whose entries do not
// balance, simulating data corruption the reports must surface.
func unbalancedTransaction(t *testing.T, store *memStore, txnDate time.Time) *models.Transaction {
	t.Helper()
	cash, err := store.GetByCode(context.Background(), testEntity, "1000")
	require.NoError(t, err)

	now := time.Now()
	txn := &models.Transaction{
		ID:              uuid.New().String(),
		EntityID:        testEntity,
		Description:     "Corrupt entry",
		TransactionDate: txnDate,
		PostingDate:     &now,
		Status:          models.TxnStatusPosted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	txn.Entries = []*models.JournalEntry{{
		ID:            uuid.New().String(),
		TransactionID: txn.ID,
		AccountID:     cash.ID,
		Debit:         dec("77.00"),
		Credit:        decimal.Zero,
		Currency:      "USD",
		BaseAmount:    dec("77.00"),
		ExchangeRate:  decimal.NewFromInt(1),
		CreatedAt:     now,
	}}
	return txn
}
