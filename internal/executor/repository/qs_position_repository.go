package repository

import (
	"context"
	"errors"
	"fmt"

	"kabu-advisor/internal/entity"
	"kabu-advisor/pkg/apperrors"

	"gorm.io/gorm"
)

type QsPositionRepository interface {
	Create(ctx context.Context, position *entity.QsPosition) error
	GetOpen(ctx context.Context) ([]entity.QsPosition, error)
	GetOpenByCode(ctx context.Context, code string) (*entity.QsPosition, error)
	CountOpenedOn(ctx context.Context, entryDate string) (int64, error)
	Close(ctx context.Context, position *entity.QsPosition) error
}

type qsPositionRepository struct {
	db *gorm.DB
}

func NewQsPositionRepository(db *gorm.DB) QsPositionRepository {
	return &qsPositionRepository{db: db}
}

// Create inserts an open position. The partial unique index on (code) WHERE
// state='open' enforces the one-open-position invariant; a violation is
// translated so the caller sees the broken invariant, not a raw SQL error.
func (r *qsPositionRepository) Create(ctx context.Context, position *entity.QsPosition) error {
	err := r.db.WithContext(ctx).Create(position).Error
	return translateDuplicate(err, "qs_positions", fmt.Sprintf("open/%s", position.Code))
}

func (r *qsPositionRepository) GetOpen(ctx context.Context) ([]entity.QsPosition, error) {
	var positions []entity.QsPosition
	if err := r.db.WithContext(ctx).
		Where("state = ?", entity.PositionStateOpen).
		Order("entry_ts_jst ASC, id ASC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *qsPositionRepository) GetOpenByCode(ctx context.Context, code string) (*entity.QsPosition, error) {
	var position entity.QsPosition
	err := r.db.WithContext(ctx).
		Where("code = ? AND state = ?", code, entity.PositionStateOpen).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// CountOpenedOn counts positions entered on the given trade day, whatever their
// current state. The entry budget counts entries, not survivors.
func (r *qsPositionRepository) CountOpenedOn(ctx context.Context, entryDate string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.QsPosition{}).
		Where("entry_date = ?", entryDate).
		Count(&count).Error
	return count, err
}

// Close flips the position to closed exactly once; closing an already-closed
// position hits zero rows and is reported as a constraint violation.
func (r *qsPositionRepository) Close(ctx context.Context, position *entity.QsPosition) error {
	res := r.db.WithContext(ctx).Model(&entity.QsPosition{}).
		Where("id = ? AND state = ?", position.ID, entity.PositionStateOpen).
		Updates(map[string]interface{}{
			"state":       entity.PositionStateClosed,
			"exit_date":   position.ExitDate,
			"exit_ts_jst": position.ExitTsJST,
			"exit_price":  position.ExitPrice,
			"exit_reason": position.ExitReason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewConstraintViolation("qs_positions",
			fmt.Sprintf("%d", position.ID), "position is not open")
	}
	return nil
}
