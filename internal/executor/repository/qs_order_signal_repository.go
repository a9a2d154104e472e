package repository

import (
	"context"
	"fmt"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/dto"

	"gorm.io/gorm"
)

type QsOrderSignalRepository interface {
	Create(ctx context.Context, signal *entity.QsOrderSignal) error
	Get(ctx context.Context, param dto.GetOrderSignalsParam) ([]entity.QsOrderSignal, error)
	HasUnresolved(ctx context.Context, tradeDate, code string, signalType entity.SignalType) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status entity.SignalStatus) error
}

type qsOrderSignalRepository struct {
	db *gorm.DB
}

func NewQsOrderSignalRepository(db *gorm.DB) QsOrderSignalRepository {
	return &qsOrderSignalRepository{db: db}
}

func (r *qsOrderSignalRepository) Create(ctx context.Context, signal *entity.QsOrderSignal) error {
	err := r.db.WithContext(ctx).Create(signal).Error
	return translateDuplicate(err, "qs_order_signals",
		fmt.Sprintf("%s/%s/%s", signal.TradeDate, signal.Code, signal.SignalType))
}

func (r *qsOrderSignalRepository) Get(ctx context.Context, param dto.GetOrderSignalsParam) ([]entity.QsOrderSignal, error) {
	q := r.db.WithContext(ctx).Model(&entity.QsOrderSignal{})
	if param.TradeDate != "" {
		q = q.Where("trade_date = ?", param.TradeDate)
	}
	if param.Code != "" {
		q = q.Where("code = ?", param.Code)
	}
	if param.SignalType != "" {
		q = q.Where("signal_type = ?", param.SignalType)
	}
	if param.Status != "" {
		q = q.Where("status = ?", param.Status)
	}
	var signals []entity.QsOrderSignal
	if err := q.Order("ts_jst ASC, id ASC").Find(&signals).Error; err != nil {
		return nil, err
	}
	return signals, nil
}

// HasUnresolved reports whether any signal of the given type already exists for
// (trade day, security), regardless of status. The emitters use this for
// at-most-one-signal idempotency.
func (r *qsOrderSignalRepository) HasUnresolved(ctx context.Context, tradeDate, code string, signalType entity.SignalType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.QsOrderSignal{}).
		Where("trade_date = ? AND code = ? AND signal_type = ?", tradeDate, code, signalType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *qsOrderSignalRepository) UpdateStatus(ctx context.Context, id int64, status entity.SignalStatus) error {
	return r.db.WithContext(ctx).Model(&entity.QsOrderSignal{}).
		Where("id = ?", id).
		Update("status", status).Error
}
