package repository

import (
	"context"
	"errors"

	"kabu-advisor/internal/entity"

	"gorm.io/gorm"
)

type QsSnapshotRepository interface {
	Create(ctx context.Context, snapshot *entity.QsSurvivalSnapshot) error
	Latest(ctx context.Context, tradeDate, code string) (*entity.QsSurvivalSnapshot, error)
	FirstBase(ctx context.Context, tradeDate, code string) (*float64, error)
}

type qsSnapshotRepository struct {
	db *gorm.DB
}

func NewQsSnapshotRepository(db *gorm.DB) QsSnapshotRepository {
	return &qsSnapshotRepository{db: db}
}

func (r *qsSnapshotRepository) Create(ctx context.Context, snapshot *entity.QsSurvivalSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// Latest returns the most recent sample for the candidate on the trade day.
func (r *qsSnapshotRepository) Latest(ctx context.Context, tradeDate, code string) (*entity.QsSurvivalSnapshot, error) {
	var snap entity.QsSurvivalSnapshot
	err := r.db.WithContext(ctx).
		Where("trade_date = ? AND code = ?", tradeDate, code).
		Order("ts_jst DESC, id DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// FirstBase returns the first recorded base_price_1500 for the candidate, if
// any. The base is first-write-wins: once a sample carries it, later samples
// reuse the same value.
func (r *qsSnapshotRepository) FirstBase(ctx context.Context, tradeDate, code string) (*float64, error) {
	var snap entity.QsSurvivalSnapshot
	err := r.db.WithContext(ctx).
		Where("trade_date = ? AND code = ? AND base_price_1500 IS NOT NULL", tradeDate, code).
		Order("ts_jst ASC, id ASC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap.BasePrice1500, nil
}
