package repository

import (
	"context"
	"errors"

	"kabu-advisor/internal/entity"
	"kabu-advisor/pkg/ratelimit"

	"gorm.io/gorm"
)

type IntradayQuoteRepository interface {
	Latest(ctx context.Context, code, tradeDate string) (*entity.IntradayQuote, error)
}

type intradayQuoteRepository struct {
	db      *gorm.DB
	limiter *ratelimit.TokenLimiter
}

// NewIntradayQuoteRepository creates a repository whose reads go through a
// per-minute limiter so a burst of survival ticks cannot hammer the quote table.
func NewIntradayQuoteRepository(db *gorm.DB, maxReadsPerMinute int) IntradayQuoteRepository {
	return &intradayQuoteRepository{
		db:      db,
		limiter: ratelimit.NewTokenLimiter(maxReadsPerMinute),
	}
}

// Latest returns the newest intraday sample for the trade day, or nil when the
// feed has not published one yet.
func (r *intradayQuoteRepository) Latest(ctx context.Context, code, tradeDate string) (*entity.IntradayQuote, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var quote entity.IntradayQuote
	err := r.db.WithContext(ctx).
		Where("code = ? AND ts_jst LIKE ?", code, tradeDate+"%").
		Order("ts_jst DESC").
		First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}
