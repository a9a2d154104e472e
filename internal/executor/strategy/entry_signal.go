package strategy

import (
	"context"
	"fmt"
	"time"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/config"
	"kabu-advisor/internal/executor/dto"
	"kabu-advisor/internal/executor/repository"
	"kabu-advisor/pkg/logger"
	"kabu-advisor/pkg/utils"
)

// EntrySignalStrategy proposes entries for candidates still alive at the
// decision cutoff and hands them to the position manager for resolution.
type EntrySignalStrategy struct {
	cfg        *config.Config
	log        *logger.Logger
	candidates repository.QsCandidateRepository
	signals    repository.QsOrderSignalRepository
	positions  PositionManager
	nowFn      func() time.Time
}

func NewEntrySignalStrategy(
	cfg *config.Config,
	log *logger.Logger,
	candidates repository.QsCandidateRepository,
	signals repository.QsOrderSignalRepository,
	positions PositionManager,
) *EntrySignalStrategy {
	return &EntrySignalStrategy{
		cfg:        cfg,
		log:        log,
		candidates: candidates,
		signals:    signals,
		positions:  positions,
		nowFn:      utils.TimeNowJST,
	}
}

func (s *EntrySignalStrategy) GetType() entity.TickType {
	return entity.TickTypeEntrySignal
}

func (s *EntrySignalStrategy) Execute(ctx context.Context, tick *entity.Tick) (string, error) {
	alive, err := s.candidates.Get(ctx, dto.GetCandidatesParam{
		TradeDate: tick.TradeDate,
		Statuses:  []entity.CandidateStatus{entity.CandidateStatusAlive},
	})
	if err != nil {
		return FAILED, err
	}
	if len(alive) == 0 {
		return SKIPPED, nil
	}

	emitted := 0
	for i := range alive {
		ok, err := s.emit(ctx, tick.TradeDate, &alive[i])
		if err != nil {
			s.log.Warn("entry emission failed",
				logger.StringField("code", alive[i].Code),
				logger.ErrorField(err))
			continue
		}
		if ok {
			emitted++
		}
	}

	if err := s.resolve(ctx, tick.TradeDate); err != nil {
		return FAILED, err
	}

	s.log.Info("entry signal tick finished",
		logger.StringField("trade_date", tick.TradeDate),
		logger.IntField("alive", len(alive)),
		logger.IntField("emitted", emitted))
	return SUCCESS, nil
}

// emit writes at most one entry proposal per (trade day, security).
func (s *EntrySignalStrategy) emit(ctx context.Context, tradeDate string, candidate *entity.QsCandidate) (bool, error) {
	exists, err := s.signals.HasUnresolved(ctx, tradeDate, candidate.Code, entity.SignalTypeEntry)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if candidate.LatestPrice == nil {
		return false, nil
	}

	reason := "alive at entry cutoff"
	if candidate.HighDistance != nil {
		reason = fmt.Sprintf("alive at entry cutoff, %.1f%% below day high", *candidate.HighDistance*100)
	}
	signal := &entity.QsOrderSignal{
		TradeDate:  tradeDate,
		TsJST:      utils.TimestampJST(s.nowFn()),
		Code:       candidate.Code,
		Side:       entity.OrderSideBuy,
		SignalType: entity.SignalTypeEntry,
		Price:      *candidate.LatestPrice,
		Reason:     reason,
		Status:     entity.SignalStatusNew,
	}
	if err := s.signals.Create(ctx, signal); err != nil {
		return false, err
	}
	return true, nil
}

// resolve feeds every unresolved entry proposal to the position manager in
// emission order; the manager confirms within budget and skips the rest.
func (s *EntrySignalStrategy) resolve(ctx context.Context, tradeDate string) error {
	pending, err := s.signals.Get(ctx, dto.GetOrderSignalsParam{
		TradeDate:  tradeDate,
		SignalType: entity.SignalTypeEntry,
		Status:     entity.SignalStatusNew,
	})
	if err != nil {
		return err
	}
	for i := range pending {
		if _, err := s.positions.ConfirmEntry(ctx, &pending[i]); err != nil {
			s.log.Warn("entry confirmation failed",
				logger.StringField("code", pending[i].Code),
				logger.ErrorField(err))
		}
	}
	return nil
}
