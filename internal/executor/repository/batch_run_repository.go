package repository

import (
	"context"

	"kabu-advisor/internal/entity"

	"gorm.io/gorm"
)

type BatchRunRepository interface {
	Create(ctx context.Context, run *entity.BatchRun) error
	UpdateTarget(ctx context.Context, id int64, targetCount int) error
	Finish(ctx context.Context, run *entity.BatchRun) error
	FindRunning(ctx context.Context) ([]entity.BatchRun, error)
}

type batchRunRepository struct {
	db *gorm.DB
}

func NewBatchRunRepository(db *gorm.DB) BatchRunRepository {
	return &batchRunRepository{db: db}
}

func (r *batchRunRepository) Create(ctx context.Context, run *entity.BatchRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *batchRunRepository) UpdateTarget(ctx context.Context, id int64, targetCount int) error {
	return r.db.WithContext(ctx).Model(&entity.BatchRun{}).
		Where("id = ?", id).
		Update("target_count", targetCount).Error
}

// Finish writes the terminal status exactly once; a run that already left
// status=running is not touched again.
func (r *batchRunRepository) Finish(ctx context.Context, run *entity.BatchRun) error {
	return r.db.WithContext(ctx).Model(&entity.BatchRun{}).
		Where("id = ? AND status = ?", run.ID, entity.RunStatusRunning).
		Updates(map[string]interface{}{
			"finished_at":   run.FinishedAt,
			"status":        run.Status,
			"success_count": run.SuccessCount,
			"error_count":   run.ErrorCount,
			"message":       run.Message,
		}).Error
}

func (r *batchRunRepository) FindRunning(ctx context.Context) ([]entity.BatchRun, error) {
	var runs []entity.BatchRun
	if err := r.db.WithContext(ctx).
		Where("status = ?", entity.RunStatusRunning).
		Order("id ASC").
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
