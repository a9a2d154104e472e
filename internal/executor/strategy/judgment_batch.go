package strategy

import (
	"context"

	"kabu-advisor/internal/entity"
)

// JudgmentBatchStrategy runs the end-of-day batch on a judgment_batch tick.
type JudgmentBatchStrategy struct {
	judgments JudgmentRunner
}

func NewJudgmentBatchStrategy(judgments JudgmentRunner) *JudgmentBatchStrategy {
	return &JudgmentBatchStrategy{judgments: judgments}
}

func (s *JudgmentBatchStrategy) GetType() entity.TickType {
	return entity.TickTypeJudgmentBatch
}

func (s *JudgmentBatchStrategy) Execute(ctx context.Context, tick *entity.Tick) (string, error) {
	if _, err := s.judgments.RunBatch(ctx, tick.TradeDate); err != nil {
		return FAILED, err
	}
	return SUCCESS, nil
}
