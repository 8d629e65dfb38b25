package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"general-ledger/internal/models"
	"general-ledger/pkg/redis"
)

// RateStore persists rate observations for historical fallback.
type RateStore interface {
	SaveRate(ctx context.Context, rate *models.ExchangeRate) error
	GetLatestRate(ctx context.Context, from, to string) (*models.ExchangeRate, error)
}

// RateService resolves exchange rates from an explicitly configured table.
// Rates are never fetched from external services: multi-currency posting
// requires the operator to supply rates, with the configured table cached
// in memory and Redis and persisted for history.
type RateService struct {
	store  RateStore
	redis  *redis.Client // nil disables the redis layer
	logger *zap.Logger

	table map[string]decimal.Decimal // configured rates, keyed FROM_TO

	mu     sync.RWMutex
	cached map[string]cachedRate
	ttl    time.Duration
}

type cachedRate struct {
	rate     decimal.Decimal
	cachedAt time.Time
}

func NewRateService(store RateStore, redisClient *redis.Client, table map[string]decimal.Decimal, logger *zap.Logger) *RateService {
	return &RateService{
		store:  store,
		redis:  redisClient,
		logger: logger,
		table:  table,
		cached: make(map[string]cachedRate),
		ttl:    5 * time.Minute,
	}
}

func rateKey(from, to string) string {
	return fmt.Sprintf("rate:%s:%s", from, to)
}

// GetRate returns the conversion rate from one currency to another.
func (s *RateService) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	key := rateKey(from, to)

	s.mu.RLock()
	entry, ok := s.cached[key]
	s.mu.RUnlock()
	if ok && time.Since(entry.cachedAt) < s.ttl {
		return entry.rate, nil
	}

	if s.redis != nil {
		if val, err := s.redis.Get(ctx, key); err == nil {
			if rate, err := decimal.NewFromString(val); err == nil {
				s.remember(key, rate)
				return rate, nil
			}
		}
	}

	if rate, ok := s.table[from+"_"+to]; ok {
		s.cacheRate(ctx, key, rate)
		s.persistRate(ctx, from, to, rate)
		return rate, nil
	}
	// Derive from the inverse pair when only one direction is configured.
	if inverse, ok := s.table[to+"_"+from]; ok && !inverse.IsZero() {
		rate := decimal.NewFromInt(1).DivRound(inverse, 8)
		s.cacheRate(ctx, key, rate)
		return rate, nil
	}

	if s.store != nil {
		if stored, err := s.store.GetLatestRate(ctx, from, to); err == nil {
			s.logger.Warn("using stored fallback for exchange rate",
				zap.String("from", from),
				zap.String("to", to))
			s.remember(key, stored.Rate)
			return stored.Rate, nil
		}
	}

	return decimal.Zero, &models.NotFoundError{Kind: "exchange rate", Key: from + "/" + to}
}

func (s *RateService) remember(key string, rate decimal.Decimal) {
	s.mu.Lock()
	s.cached[key] = cachedRate{rate: rate, cachedAt: time.Now()}
	s.mu.Unlock()
}

func (s *RateService) cacheRate(ctx context.Context, key string, rate decimal.Decimal) {
	s.remember(key, rate)
	if s.redis != nil {
		if err := s.redis.Set(ctx, key, rate.String(), s.ttl); err != nil {
			s.logger.Warn("failed to cache exchange rate", zap.Error(err))
		}
	}
}

func (s *RateService) persistRate(ctx context.Context, from, to string, rate decimal.Decimal) {
	if s.store == nil {
		return
	}
	err := s.store.SaveRate(ctx, &models.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Timestamp:    time.Now().Truncate(time.Hour),
	})
	if err != nil {
		s.logger.Error("failed to save exchange rate", zap.Error(err))
	}
}
