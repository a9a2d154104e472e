package service

import (
	"context"
	"fmt"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/config"
	"kabu-advisor/internal/executor/repository"
	"kabu-advisor/pkg/apperrors"
	"kabu-advisor/pkg/logger"
	"kabu-advisor/pkg/telegram"
)

// PositionService resolves order signals into position changes. Signals are
// proposals; this is the only writer of qs_positions.
type PositionService interface {
	ConfirmEntry(ctx context.Context, signal *entity.QsOrderSignal) (*entity.QsPosition, error)
	ConfirmExit(ctx context.Context, signal *entity.QsOrderSignal, position *entity.QsPosition) error
}

type positionService struct {
	cfg       *config.Config
	log       *logger.Logger
	positions repository.QsPositionRepository
	signals   repository.QsOrderSignalRepository
	stocks    repository.StocksRepository
	notifier  telegram.Notifier
}

func NewPositionService(
	cfg *config.Config,
	log *logger.Logger,
	positions repository.QsPositionRepository,
	signals repository.QsOrderSignalRepository,
	stocks repository.StocksRepository,
	notifier telegram.Notifier,
) PositionService {
	return &positionService{
		cfg:       cfg,
		log:       log,
		positions: positions,
		signals:   signals,
		stocks:    stocks,
		notifier:  notifier,
	}
}

// ConfirmEntry resolves an entry signal. An entry for a security that already
// has an open position violates the one-open-position invariant: the signal is
// resolved to skipped and a ConstraintViolation is returned. A spent daily
// entry budget only skips the signal; it is not an invariant breach.
func (s *positionService) ConfirmEntry(ctx context.Context, signal *entity.QsOrderSignal) (*entity.QsPosition, error) {
	if signal.SignalType != entity.SignalTypeEntry || signal.Side != entity.OrderSideBuy {
		return nil, apperrors.NewConstraintViolation("qs_order_signals",
			fmt.Sprintf("%d", signal.ID), "not a buy entry signal")
	}

	existing, err := s.positions.GetOpenByCode(ctx, signal.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.skip(ctx, signal, "position already open"); err != nil {
			return nil, err
		}
		return nil, apperrors.NewConstraintViolation("qs_positions",
			signal.Code, "position already open")
	}

	opened, err := s.positions.CountOpenedOn(ctx, signal.TradeDate)
	if err != nil {
		return nil, err
	}
	if opened >= int64(s.cfg.Quickstart.MaxEntriesPerDay) {
		return nil, s.skip(ctx, signal, "daily entry budget spent")
	}

	position := &entity.QsPosition{
		Code:          signal.Code,
		EntryDate:     signal.TradeDate,
		EntryTsJST:    signal.TsJST,
		EntryPrice:    signal.Price,
		AllocationPct: s.cfg.Quickstart.EntryAllocationPct,
		State:         entity.PositionStateOpen,
	}
	if err := s.positions.Create(ctx, position); err != nil {
		return nil, err
	}
	if err := s.signals.UpdateStatus(ctx, signal.ID, entity.SignalStatusConfirmed); err != nil {
		return nil, err
	}

	s.log.Info("position opened",
		logger.StringField("code", signal.Code),
		logger.Float64Field("entry_price", signal.Price))
	s.notify(telegram.FormatOrderSignal(
		string(signal.SignalType), string(signal.Side), s.displayName(ctx, signal.Code),
		signal.Price, signal.Reason, signal.TsJST))
	return position, nil
}

// ConfirmExit resolves an exit signal against its open position. The position
// transitions open -> closed exactly once.
func (s *positionService) ConfirmExit(ctx context.Context, signal *entity.QsOrderSignal, position *entity.QsPosition) error {
	if signal.SignalType != entity.SignalTypeExit || signal.Side != entity.OrderSideSell {
		return apperrors.NewConstraintViolation("qs_order_signals",
			fmt.Sprintf("%d", signal.ID), "not a sell exit signal")
	}
	if !position.State.CanTransitionTo(entity.PositionStateClosed) {
		return apperrors.NewConstraintViolation("qs_positions",
			fmt.Sprintf("%d", position.ID), fmt.Sprintf("illegal transition %s -> closed", position.State))
	}

	position.ExitDate = &signal.TradeDate
	position.ExitTsJST = &signal.TsJST
	position.ExitPrice = &signal.Price
	position.ExitReason = &signal.Reason
	if err := s.positions.Close(ctx, position); err != nil {
		return err
	}
	if err := s.signals.UpdateStatus(ctx, signal.ID, entity.SignalStatusConfirmed); err != nil {
		return err
	}

	s.log.Info("position closed",
		logger.StringField("code", position.Code),
		logger.Float64Field("entry_price", position.EntryPrice),
		logger.Float64Field("exit_price", signal.Price),
		logger.StringField("reason", signal.Reason))
	s.notify(telegram.FormatPositionClosed(s.displayName(ctx, position.Code),
		position.EntryPrice, signal.Price, signal.Reason))
	return nil
}

// displayName resolves "code (name)" for notifications; lookups go through the
// cached stocks repository and fall back to the bare code.
func (s *positionService) displayName(ctx context.Context, code string) string {
	stock, err := s.stocks.GetByCode(ctx, code)
	if err != nil || stock == nil || stock.Name == "" {
		return code
	}
	return fmt.Sprintf("%s (%s)", code, stock.Name)
}

func (s *positionService) skip(ctx context.Context, signal *entity.QsOrderSignal, reason string) error {
	s.log.Info("entry signal skipped",
		logger.StringField("code", signal.Code),
		logger.StringField("reason", reason))
	return s.signals.UpdateStatus(ctx, signal.ID, entity.SignalStatusSkipped)
}

func (s *positionService) notify(text string) {
	if err := s.notifier.SendMessage(text); err != nil {
		s.log.Warn("telegram notification failed", logger.ErrorField(err))
	}
}
