package strategy

import (
	"context"
	"fmt"
	"time"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/config"
	"kabu-advisor/internal/executor/repository"
	"kabu-advisor/pkg/logger"
	"kabu-advisor/pkg/utils"
)

// Exit reasons recorded on the position.
const (
	ExitReasonTakeProfit = "take_profit"
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTimeStop   = "time_stop"
)

// ExitSignalStrategy proposes exits for open positions during the morning exit
// window: take-profit, stop-loss, or the time-stop at the window cutoff.
type ExitSignalStrategy struct {
	cfg       *config.Config
	log       *logger.Logger
	positions repository.QsPositionRepository
	signals   repository.QsOrderSignalRepository
	intraday  repository.IntradayQuoteRepository
	manager   PositionManager
	nowFn     func() time.Time
}

func NewExitSignalStrategy(
	cfg *config.Config,
	log *logger.Logger,
	positions repository.QsPositionRepository,
	signals repository.QsOrderSignalRepository,
	intraday repository.IntradayQuoteRepository,
	manager PositionManager,
) *ExitSignalStrategy {
	return &ExitSignalStrategy{
		cfg:       cfg,
		log:       log,
		positions: positions,
		signals:   signals,
		intraday:  intraday,
		manager:   manager,
		nowFn:     utils.TimeNowJST,
	}
}

func (s *ExitSignalStrategy) GetType() entity.TickType {
	return entity.TickTypeExitSignal
}

func (s *ExitSignalStrategy) Execute(ctx context.Context, tick *entity.Tick) (string, error) {
	open, err := s.positions.GetOpen(ctx)
	if err != nil {
		return FAILED, err
	}
	if len(open) == 0 {
		return SKIPPED, nil
	}

	closed := 0
	for i := range open {
		ok, err := s.evaluate(ctx, tick.TradeDate, &open[i])
		if err != nil {
			s.log.Warn("exit evaluation failed",
				logger.StringField("code", open[i].Code),
				logger.ErrorField(err))
			continue
		}
		if ok {
			closed++
		}
	}

	s.log.Info("exit signal tick finished",
		logger.StringField("trade_date", tick.TradeDate),
		logger.IntField("open", len(open)),
		logger.IntField("closed", closed))
	return SUCCESS, nil
}

// evaluate checks one open position against the exit rules and, when one
// fires, emits the proposal and confirms it immediately.
func (s *ExitSignalStrategy) evaluate(ctx context.Context, tradeDate string, position *entity.QsPosition) (bool, error) {
	exists, err := s.signals.HasUnresolved(ctx, tradeDate, position.Code, entity.SignalTypeExit)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	quote, err := s.intraday.Latest(ctx, position.Code, tradeDate)
	if err != nil {
		return false, err
	}
	if quote == nil {
		return false, nil
	}
	price := quote.Price

	reason := s.exitReason(position.EntryPrice, price)
	if reason == "" {
		return false, nil
	}

	pnl := price/position.EntryPrice - 1
	signal := &entity.QsOrderSignal{
		TradeDate:  tradeDate,
		TsJST:      utils.TimestampJST(s.nowFn()),
		Code:       position.Code,
		Side:       entity.OrderSideSell,
		SignalType: entity.SignalTypeExit,
		Price:      price,
		Reason:     fmt.Sprintf("%s: pnl %+.2f%%", reason, pnl*100),
		Status:     entity.SignalStatusNew,
	}
	if err := s.signals.Create(ctx, signal); err != nil {
		return false, err
	}
	if err := s.manager.ConfirmExit(ctx, signal, position); err != nil {
		return false, err
	}
	return true, nil
}

// exitReason applies the exit rules in priority order: take-profit, stop-loss,
// then the time-stop once the window cutoff is reached.
func (s *ExitSignalStrategy) exitReason(entryPrice, price float64) string {
	if entryPrice <= 0 {
		return ""
	}
	pnl := price/entryPrice - 1
	switch {
	case pnl >= s.cfg.Quickstart.TakeProfitRate:
		return ExitReasonTakeProfit
	case pnl <= s.cfg.Quickstart.StopLossRate:
		return ExitReasonStopLoss
	case clockAtOrAfter(s.nowFn(), s.cfg.Quickstart.TimeStopClock):
		return ExitReasonTimeStop
	default:
		return ""
	}
}
