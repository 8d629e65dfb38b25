package repository

import (
	"context"
	"database/sql"
	"errors"

	"general-ledger/internal/models"
)

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// SaveRate records a rate observation for historical tracking.
func (r *RateRepository) SaveRate(ctx context.Context, rate *models.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (from_currency, to_currency, rate, timestamp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_currency, to_currency, timestamp) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, rate.FromCurrency, rate.ToCurrency, rate.Rate, rate.Timestamp)
	return err
}

// GetLatestRate returns the most recent stored rate for a currency pair.
func (r *RateRepository) GetLatestRate(ctx context.Context, from, to string) (*models.ExchangeRate, error) {
	query := `
		SELECT from_currency, to_currency, rate, timestamp
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2
		ORDER BY timestamp DESC
		LIMIT 1
	`
	rate := &models.ExchangeRate{}
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(
		&rate.FromCurrency,
		&rate.ToCurrency,
		&rate.Rate,
		&rate.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "exchange rate", Key: from + "/" + to}
	}
	if err != nil {
		return nil, err
	}
	return rate, nil
}
