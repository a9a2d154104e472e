package repository

import (
	"context"
	"fmt"

	"kabu-advisor/internal/entity"

	"gorm.io/gorm"
)

type JudgmentRepository interface {
	Create(ctx context.Context, judgment *entity.Judgment) error
}

type judgmentRepository struct {
	db *gorm.DB
}

func NewJudgmentRepository(db *gorm.DB) JudgmentRepository {
	return &judgmentRepository{db: db}
}

func (r *judgmentRepository) Create(ctx context.Context, judgment *entity.Judgment) error {
	err := r.db.WithContext(ctx).Create(judgment).Error
	return translateDuplicate(err, "judgments",
		fmt.Sprintf("%d/%s/%s", judgment.BatchRunID, judgment.Code, judgment.Strategy))
}
