package repository

import (
	"context"
	"errors"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/dto"
	"kabu-advisor/internal/rules"

	"gorm.io/gorm"
)

type MarketDataRepository interface {
	Snapshot(ctx context.Context, param dto.SnapshotParam) (*rules.Snapshot, error)
	QuoteOn(ctx context.Context, code, date string) (*entity.DailyQuote, error)
	LastTwoQuotes(ctx context.Context, code, tradeDate string) ([]entity.DailyQuote, error)
}

type marketDataRepository struct {
	db *gorm.DB
}

func NewMarketDataRepository(db *gorm.DB) MarketDataRepository {
	return &marketDataRepository{db: db}
}

// Snapshot loads the as-of view the evaluator consumes. Everything is bounded
// by DateTo so reruns over historical dates see the same data.
func (r *marketDataRepository) Snapshot(ctx context.Context, param dto.SnapshotParam) (*rules.Snapshot, error) {
	snap := &rules.Snapshot{}

	if err := r.db.WithContext(ctx).
		Where("code = ? AND date >= ? AND date <= ?", param.Code, param.DateFrom, param.DateTo).
		Order("date ASC").
		Find(&snap.Quotes).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("code = ? AND disclosed_date <= ?", param.Code, param.DateTo).
		Order("disclosed_date ASC").
		Find(&snap.Statements).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("code = ? AND record_date <= ?", param.Code, param.DateTo).
		Order("record_date ASC").
		Find(&snap.Dividends).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("code = ? AND date >= ?", param.Code, param.DateTo).
		Order("date ASC").
		Find(&snap.Announcements).Error; err != nil {
		return nil, err
	}

	newsLimit := param.NewsLimit
	if newsLimit <= 0 {
		newsLimit = 20
	}
	if err := r.db.WithContext(ctx).
		Where("code = ? AND published_at <= ?", param.Code, param.DateTo+"T23:59:59+09:00").
		Order("published_at DESC").
		Limit(newsLimit).
		Find(&snap.News).Error; err != nil {
		return nil, err
	}

	return snap, nil
}

// QuoteOn returns the daily quote for one exact date, or nil when the fetcher
// has not written it yet.
func (r *marketDataRepository) QuoteOn(ctx context.Context, code, date string) (*entity.DailyQuote, error) {
	var quote entity.DailyQuote
	err := r.db.WithContext(ctx).
		Where("code = ? AND date = ?", code, date).
		First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// LastTwoQuotes returns the most recent daily quotes strictly before tradeDate,
// newest first. The gap-up selector needs exactly the prior close and volume.
func (r *marketDataRepository) LastTwoQuotes(ctx context.Context, code, tradeDate string) ([]entity.DailyQuote, error) {
	var quotes []entity.DailyQuote
	if err := r.db.WithContext(ctx).
		Where("code = ? AND date < ?", code, tradeDate).
		Order("date DESC").
		Limit(2).
		Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}
