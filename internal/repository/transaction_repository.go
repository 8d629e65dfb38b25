package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"general-ledger/internal/models"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, entity_id, description, reference, transaction_date,
	posting_date, status, COALESCE(reversed_transaction_id, ''), created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*models.Transaction, error) {
	t := &models.Transaction{}
	var postingDate sql.NullTime
	err := row.Scan(
		&t.ID,
		&t.EntityID,
		&t.Description,
		&t.Reference,
		&t.TransactionDate,
		&postingDate,
		&t.Status,
		&t.ReversedTransactionID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if postingDate.Valid {
		t.PostingDate = &postingDate.Time
	}
	return t, nil
}

// Create persists a transaction and its entries atomically.
func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}
	if err := insertEntries(ctx, tx, txn.Entries); err != nil {
		return err
	}

	return tx.Commit()
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, entity_id, description, reference, transaction_date,
			posting_date, status, reversed_transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		txn.ID,
		txn.EntityID,
		txn.Description,
		txn.Reference,
		txn.TransactionDate,
		txn.PostingDate,
		txn.Status,
		nullable(txn.ReversedTransactionID),
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	return err
}

func insertEntries(ctx context.Context, tx *sql.Tx, entries []*models.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (id, transaction_id, account_id, debit, credit,
			currency, base_amount, exchange_rate, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, query,
			e.ID,
			e.TransactionID,
			e.AccountID,
			e.Debit,
			e.Credit,
			e.Currency,
			e.BaseAmount,
			e.ExchangeRate,
			e.Memo,
			e.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *TransactionRepository) Get(ctx context.Context, entityID, id string) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE entity_id = $1 AND id = $2`, transactionColumns)
	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, entityID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "transaction", Key: id}
	}
	if err != nil {
		return nil, err
	}

	entries, err := r.Entries(ctx, id)
	if err != nil {
		return nil, err
	}
	txn.Entries = entries
	return txn, nil
}

func (r *TransactionRepository) Entries(ctx context.Context, txnID string) ([]*models.JournalEntry, error) {
	query := `
		SELECT id, transaction_id, account_id, debit, credit, currency, base_amount,
			exchange_rate, memo, created_at
		FROM journal_entries
		WHERE transaction_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, txnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.JournalEntry
	for rows.Next() {
		e := &models.JournalEntry{}
		err := rows.Scan(
			&e.ID,
			&e.TransactionID,
			&e.AccountID,
			&e.Debit,
			&e.Credit,
			&e.Currency,
			&e.BaseAmount,
			&e.ExchangeRate,
			&e.Memo,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// List returns one page of transactions ordered by transaction date descending.
func (r *TransactionRepository) List(ctx context.Context, filter models.TransactionFilter) (*models.TransactionPage, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, fmt.Sprintf("t.entity_id = $%d", len(args)+1))
	args = append(args, filter.EntityID)

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("t.transaction_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("t.transaction_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(t.description ILIKE $%d OR t.reference ILIKE $%d)", len(args)+1, len(args)+2))
		args = append(args, "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if filter.AccountID != "" {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM journal_entries e WHERE e.transaction_id = t.id AND e.account_id = $%d)", len(args)+1))
		args = append(args, filter.AccountID)
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM transactions t WHERE %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions t
		WHERE %s
		ORDER BY t.transaction_date DESC, t.created_at DESC
		LIMIT $%d OFFSET $%d
	`, transactionColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &models.TransactionPage{Total: total, Page: page, Limit: limit}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, txn)
	}
	return result, rows.Err()
}

// ApplyPosting marks a transaction posted and applies the per-account balance
// deltas, all inside one database transaction. The status is re-checked under
// a row lock so concurrent posts of the same transaction cannot both succeed,
// and account rows are locked in a stable order to serialize balance updates.
func (r *TransactionRepository) ApplyPosting(ctx context.Context, entityID, txnID string, postingDate time.Time, deltas map[string]decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status, err := lockTransactionStatus(ctx, tx, entityID, txnID)
	if err != nil {
		return err
	}
	if !status.Postable() {
		return &models.InvalidStateTransitionError{ID: txnID, From: status, To: models.TxnStatusPosted}
	}

	if err := applyDeltas(ctx, tx, deltas); err != nil {
		return err
	}

	query := `UPDATE transactions SET status = $1, posting_date = $2, updated_at = $3 WHERE id = $4`
	if _, err := tx.ExecContext(ctx, query, models.TxnStatusPosted, postingDate, time.Now(), txnID); err != nil {
		return err
	}

	return tx.Commit()
}

// ApplyReversal inserts a posted reversal transaction, applies its balance
// deltas, and marks the original reversed, all atomically.
func (r *TransactionRepository) ApplyReversal(ctx context.Context, original *models.Transaction, reversal *models.Transaction, deltas map[string]decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status, err := lockTransactionStatus(ctx, tx, original.EntityID, original.ID)
	if err != nil {
		return err
	}
	if status != models.TxnStatusPosted {
		return &models.InvalidStateTransitionError{ID: original.ID, From: status, To: models.TxnStatusReversed}
	}

	if err := insertTransaction(ctx, tx, reversal); err != nil {
		return err
	}
	if err := insertEntries(ctx, tx, reversal.Entries); err != nil {
		return err
	}
	if err := applyDeltas(ctx, tx, deltas); err != nil {
		return err
	}

	query := `UPDATE transactions SET status = $1, reversed_transaction_id = $2, updated_at = $3 WHERE id = $4`
	if _, err := tx.ExecContext(ctx, query, models.TxnStatusReversed, reversal.ID, time.Now(), original.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// Cancel moves a pre-posted transaction to cancelled under a row lock.
func (r *TransactionRepository) Cancel(ctx context.Context, entityID, txnID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status, err := lockTransactionStatus(ctx, tx, entityID, txnID)
	if err != nil {
		return err
	}
	if !status.Cancellable() {
		return &models.InvalidStateTransitionError{ID: txnID, From: status, To: models.TxnStatusCancelled}
	}

	query := `UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, models.TxnStatusCancelled, time.Now(), txnID); err != nil {
		return err
	}

	return tx.Commit()
}

func lockTransactionStatus(ctx context.Context, tx *sql.Tx, entityID, txnID string) (models.TransactionStatus, error) {
	var status models.TransactionStatus
	query := `SELECT status FROM transactions WHERE entity_id = $1 AND id = $2 FOR UPDATE`
	err := tx.QueryRowContext(ctx, query, entityID, txnID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &models.NotFoundError{Kind: "transaction", Key: txnID}
	}
	return status, err
}

func applyDeltas(ctx context.Context, tx *sql.Tx, deltas map[string]decimal.Decimal) error {
	// Stable lock order across concurrent postings.
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	query := `UPDATE accounts SET current_balance = current_balance + $1, updated_at = $2 WHERE id = $3`
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, query, deltas[id], time.Now(), id); err != nil {
			return err
		}
	}
	return nil
}
