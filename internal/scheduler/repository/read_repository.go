package repository

import (
	"context"
	"errors"

	"kabu-advisor/internal/entity"

	"gorm.io/gorm"
)

// ReadRepository is the read-only query surface behind the inspection API.
// Nothing here mutates state.
type ReadRepository interface {
	LatestRun(ctx context.Context) (*entity.BatchRun, error)
	ListRuns(ctx context.Context, limit int) ([]entity.BatchRun, error)
	JudgmentsByRun(ctx context.Context, runID int64, signal string) ([]entity.Judgment, error)
	CandidatesByDate(ctx context.Context, tradeDate string) ([]entity.QsCandidate, error)
	SignalsByDate(ctx context.Context, tradeDate string) ([]entity.QsOrderSignal, error)
	ListPositions(ctx context.Context, state string) ([]entity.QsPosition, error)
}

type readRepository struct {
	db *gorm.DB
}

func NewReadRepository(db *gorm.DB) ReadRepository {
	return &readRepository{db: db}
}

func (r *readRepository) LatestRun(ctx context.Context) (*entity.BatchRun, error) {
	var run entity.BatchRun
	err := r.db.WithContext(ctx).Order("id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *readRepository) ListRuns(ctx context.Context, limit int) ([]entity.BatchRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []entity.BatchRun
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *readRepository) JudgmentsByRun(ctx context.Context, runID int64, signal string) ([]entity.Judgment, error) {
	q := r.db.WithContext(ctx).Where("batch_run_id = ?", runID)
	if signal != "" {
		q = q.Where("signal = ?", signal)
	}
	var judgments []entity.Judgment
	if err := q.Order("score DESC, code ASC").Find(&judgments).Error; err != nil {
		return nil, err
	}
	return judgments, nil
}

func (r *readRepository) CandidatesByDate(ctx context.Context, tradeDate string) ([]entity.QsCandidate, error) {
	var candidates []entity.QsCandidate
	if err := r.db.WithContext(ctx).
		Where("trade_date = ?", tradeDate).
		Order("gap_up_rate DESC, code ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *readRepository) SignalsByDate(ctx context.Context, tradeDate string) ([]entity.QsOrderSignal, error) {
	var signals []entity.QsOrderSignal
	if err := r.db.WithContext(ctx).
		Where("trade_date = ?", tradeDate).
		Order("ts_jst ASC, id ASC").
		Find(&signals).Error; err != nil {
		return nil, err
	}
	return signals, nil
}

func (r *readRepository) ListPositions(ctx context.Context, state string) ([]entity.QsPosition, error) {
	q := r.db.WithContext(ctx).Model(&entity.QsPosition{})
	if state != "" {
		q = q.Where("state = ?", state)
	}
	var positions []entity.QsPosition
	if err := q.Order("id DESC").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}
