package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"general-ledger/internal/models"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Balances aggregate on base_amount so multi-currency entries and the
// eagerly maintained current_balance column agree. The side of an entry is
// determined by which of debit/credit is non-zero.
const sidedTotals = `
	COALESCE(SUM(CASE WHEN e.debit > 0 THEN e.base_amount ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN e.credit > 0 THEN e.base_amount ELSE 0 END), 0)`

// BalanceAsOf sums posted debit/credit totals for one account up to a date.
func (r *ReportRepository) BalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (debits, credits decimal.Decimal, err error) {
	query := `
		SELECT ` + sidedTotals + `
		FROM journal_entries e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE e.account_id = $1 AND t.status = $2 AND t.transaction_date <= $3
	`
	err = r.db.QueryRowContext(ctx, query, accountID, models.TxnStatusPosted, asOf).Scan(&debits, &credits)
	return debits, credits, err
}

// AccountTotals returns per-account debit/credit totals over posted entries in
// a period. A nil from means totals since the beginning of time, which is what
// balance sheet and trial balance queries use.
func (r *ReportRepository) AccountTotals(ctx context.Context, entityID string, from *time.Time, to time.Time) ([]models.TrialBalanceRow, error) {
	query := `
		SELECT a.id, a.code, a.name, a.type,
			` + sidedTotals + `
		FROM accounts a
		LEFT JOIN (
			journal_entries e
			JOIN transactions t ON t.id = e.transaction_id
				AND t.status = $2
				AND t.transaction_date <= $3
				AND ($4::timestamp IS NULL OR t.transaction_date >= $4)
		) ON e.account_id = a.id
		WHERE a.entity_id = $1 AND a.is_active = TRUE
		GROUP BY a.id, a.code, a.name, a.type
		ORDER BY a.code
	`
	var fromArg interface{}
	if from != nil {
		fromArg = *from
	}
	rows, err := r.db.QueryContext(ctx, query, entityID, models.TxnStatusPosted, to, fromArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.TrialBalanceRow
	for rows.Next() {
		var row models.TrialBalanceRow
		var debit, credit decimal.Decimal
		if err := rows.Scan(&row.AccountID, &row.AccountCode, &row.AccountName, &row.AccountType, &debit, &credit); err != nil {
			return nil, err
		}
		row.DebitTotal = debit
		row.CreditTotal = credit
		result = append(result, row)
	}
	return result, rows.Err()
}

// CashFlowRows returns all entries of posted transactions that touch at
// least one cash account in the period.
func (r *ReportRepository) CashFlowRows(ctx context.Context, entityID string, from, to time.Time) ([]models.CashFlowEntry, error) {
	query := `
		SELECT a.is_cash, a.cash_flow_activity,
			CASE WHEN e.debit > 0 THEN e.base_amount ELSE 0 END,
			CASE WHEN e.credit > 0 THEN e.base_amount ELSE 0 END
		FROM journal_entries e
		JOIN accounts a ON a.id = e.account_id
		JOIN transactions t ON t.id = e.transaction_id
		WHERE t.entity_id = $1
			AND t.status = $2
			AND t.transaction_date >= $3 AND t.transaction_date <= $4
			AND EXISTS (
				SELECT 1 FROM journal_entries ce
				JOIN accounts ca ON ca.id = ce.account_id
				WHERE ce.transaction_id = t.id AND ca.is_cash = TRUE
			)
	`
	rows, err := r.db.QueryContext(ctx, query, entityID, models.TxnStatusPosted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.CashFlowEntry
	for rows.Next() {
		var row models.CashFlowEntry
		if err := rows.Scan(&row.IsCash, &row.Activity, &row.Debit, &row.Credit); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// PostedTransactions returns posted transactions with entries for a period.
func (r *ReportRepository) PostedTransactions(ctx context.Context, entityID string, from, to time.Time) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE entity_id = $1 AND status = $2
			AND transaction_date >= $3 AND transaction_date <= $4
		ORDER BY transaction_date
	`
	rows, err := r.db.QueryContext(ctx, query, entityID, models.TxnStatusPosted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entryRepo := &TransactionRepository{db: r.db}
	for _, txn := range txns {
		entries, err := entryRepo.Entries(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		txn.Entries = entries
	}
	return txns, nil
}

// SaveReconciliationReport persists a reconciliation report.
func (r *ReportRepository) SaveReconciliationReport(ctx context.Context, report *models.ReconciliationReport) error {
	query := `
		INSERT INTO reconciliation_reports
		(id, entity_id, start_date, end_date, total_transactions, total_debits, total_credits, is_balanced, discrepancies, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.EntityID,
		report.StartDate,
		report.EndDate,
		report.TotalTransactions,
		report.TotalDebits,
		report.TotalCredits,
		report.IsBalanced,
		pq.Array(report.Discrepancies),
		report.CreatedAt,
	)
	return err
}
