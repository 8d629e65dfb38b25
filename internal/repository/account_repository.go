package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"general-ledger/internal/models"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, entity_id, code, name, description, type, normal_balance,
	COALESCE(parent_id, ''), level, path, is_active, is_system, allow_transactions,
	is_cash, cash_flow_activity, current_balance, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(
		&a.ID,
		&a.EntityID,
		&a.Code,
		&a.Name,
		&a.Description,
		&a.Type,
		&a.NormalBalance,
		&a.ParentID,
		&a.Level,
		&a.Path,
		&a.IsActive,
		&a.IsSystem,
		&a.AllowTransactions,
		&a.IsCash,
		&a.CashFlowActivity,
		&a.CurrentBalance,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (id, entity_id, code, name, description, type, normal_balance,
			parent_id, level, path, is_active, is_system, allow_transactions, is_cash,
			cash_flow_activity, current_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.EntityID,
		a.Code,
		a.Name,
		a.Description,
		a.Type,
		a.NormalBalance,
		nullable(a.ParentID),
		a.Level,
		a.Path,
		a.IsActive,
		a.IsSystem,
		a.AllowTransactions,
		a.IsCash,
		a.CashFlowActivity,
		a.CurrentBalance,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return &models.DuplicateCodeError{Code: a.Code}
	}
	return err
}

func (r *AccountRepository) GetByID(ctx context.Context, entityID, id string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE entity_id = $1 AND id = $2`, accountColumns)
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, entityID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "account", Key: id}
	}
	return a, err
}

func (r *AccountRepository) GetByCode(ctx context.Context, entityID, code string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE entity_id = $1 AND code = $2`, accountColumns)
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, entityID, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "account", Key: code}
	}
	return a, err
}

func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]*models.Account, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)+1))
	args = append(args, filter.EntityID)

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code LIKE $%d)", len(args)+1, len(args)+2))
		args = append(args, "%"+filter.Search+"%", filter.Search+"%")
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s ORDER BY code`,
		accountColumns, strings.Join(conditions, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) Children(ctx context.Context, entityID, parentID string) ([]*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE entity_id = $1 AND parent_id = $2 ORDER BY code`, accountColumns)
	rows, err := r.db.QueryContext(ctx, query, entityID, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) Update(ctx context.Context, a *models.Account) error {
	query := `
		UPDATE accounts
		SET code = $1, name = $2, description = $3, type = $4, normal_balance = $5,
			path = $6, is_active = $7, is_cash = $8, cash_flow_activity = $9, updated_at = $10
		WHERE entity_id = $11 AND id = $12
	`
	_, err := r.db.ExecContext(ctx, query,
		a.Code,
		a.Name,
		a.Description,
		a.Type,
		a.NormalBalance,
		a.Path,
		a.IsActive,
		a.IsCash,
		a.CashFlowActivity,
		time.Now(),
		a.EntityID,
		a.ID,
	)
	if isUniqueViolation(err) {
		return &models.DuplicateCodeError{Code: a.Code}
	}
	return err
}

// HasEntries reports whether any journal entry references the account.
func (r *AccountRepository) HasEntries(ctx context.Context, accountID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM journal_entries WHERE account_id = $1`
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActiveChildren counts active direct children of an account.
func (r *AccountRepository) CountActiveChildren(ctx context.Context, accountID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM accounts WHERE parent_id = $1 AND is_active = TRUE`
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&count)
	return count, err
}

func (r *AccountRepository) Stats(ctx context.Context, entityID string) (*models.AccountStats, error) {
	stats := &models.AccountStats{ByType: make(map[models.AccountType]int)}

	query := `
		SELECT type, COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM accounts
		WHERE entity_id = $1
		GROUP BY type
	`
	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.AccountType
		var total, active int
		if err := rows.Scan(&t, &total, &active); err != nil {
			return nil, err
		}
		stats.ByType[t] = total
		stats.Total += total
		stats.Active += active
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalsQuery := `
		SELECT
			COALESCE(SUM(CASE WHEN e.debit > 0 THEN e.base_amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN e.credit > 0 THEN e.base_amount ELSE 0 END), 0)
		FROM journal_entries e
		JOIN transactions t ON t.id = e.transaction_id
		WHERE t.entity_id = $1 AND t.status = $2
	`
	var debits, credits decimal.Decimal
	if err := r.db.QueryRowContext(ctx, totalsQuery, entityID, models.TxnStatusPosted).Scan(&debits, &credits); err != nil {
		return nil, err
	}
	stats.TotalDebits = debits
	stats.TotalCredits = credits

	return stats, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
