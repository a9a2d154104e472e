package strategy

import (
	"context"
	"fmt"

	"kabu-advisor/internal/entity"
)

const (
	SUCCESS = "SUCCESS"
	FAILED  = "FAILED"
	SKIPPED = "SKIPPED"
)

// TickExecutionStrategy handles one tick type from the scheduler stream.
type TickExecutionStrategy interface {
	Execute(ctx context.Context, tick *entity.Tick) (string, error)
	GetType() entity.TickType
}

// JudgmentRunner runs the end-of-day judgment batch. Implemented by the
// judgment service.
type JudgmentRunner interface {
	RunBatch(ctx context.Context, tradeDate string) (*entity.BatchRun, error)
}

// PositionManager resolves order signals into position changes. Implemented by
// the position service.
type PositionManager interface {
	ConfirmEntry(ctx context.Context, signal *entity.QsOrderSignal) (*entity.QsPosition, error)
	ConfirmExit(ctx context.Context, signal *entity.QsOrderSignal, position *entity.QsPosition) error
}

// Registry dispatches ticks to their handlers.
type Registry struct {
	strategies map[entity.TickType]TickExecutionStrategy
}

func NewRegistry(strategies ...TickExecutionStrategy) *Registry {
	m := make(map[entity.TickType]TickExecutionStrategy, len(strategies))
	for _, s := range strategies {
		m[s.GetType()] = s
	}
	return &Registry{strategies: m}
}

func (r *Registry) Execute(ctx context.Context, tick *entity.Tick) (string, error) {
	s, ok := r.strategies[tick.Type]
	if !ok {
		return FAILED, fmt.Errorf("no strategy registered for tick type %q", tick.Type)
	}
	return s.Execute(ctx, tick)
}
