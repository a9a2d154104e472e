package service

import (
	"context"
	"testing"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/config"
	"kabu-advisor/internal/executor/dto"
	"kabu-advisor/pkg/apperrors"
	"kabu-advisor/pkg/logger"
	"kabu-advisor/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePositionRepo struct {
	positions []*entity.QsPosition
	nextID    int64
}

func (f *fakePositionRepo) Create(_ context.Context, position *entity.QsPosition) error {
	for _, p := range f.positions {
		if p.Code == position.Code && p.State == entity.PositionStateOpen {
			return apperrors.NewConstraintViolation("qs_positions", "open/"+position.Code, "duplicate key")
		}
	}
	f.nextID++
	position.ID = f.nextID
	f.positions = append(f.positions, position)
	return nil
}

func (f *fakePositionRepo) GetOpen(_ context.Context) ([]entity.QsPosition, error) {
	var out []entity.QsPosition
	for _, p := range f.positions {
		if p.State == entity.PositionStateOpen {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePositionRepo) GetOpenByCode(_ context.Context, code string) (*entity.QsPosition, error) {
	for _, p := range f.positions {
		if p.Code == code && p.State == entity.PositionStateOpen {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakePositionRepo) CountOpenedOn(_ context.Context, entryDate string) (int64, error) {
	var count int64
	for _, p := range f.positions {
		if p.EntryDate == entryDate {
			count++
		}
	}
	return count, nil
}

func (f *fakePositionRepo) Close(_ context.Context, position *entity.QsPosition) error {
	for _, p := range f.positions {
		if p.ID == position.ID && p.State == entity.PositionStateOpen {
			p.State = entity.PositionStateClosed
			p.ExitDate = position.ExitDate
			p.ExitTsJST = position.ExitTsJST
			p.ExitPrice = position.ExitPrice
			p.ExitReason = position.ExitReason
			return nil
		}
	}
	return apperrors.NewConstraintViolation("qs_positions", "", "position is not open")
}

type fakeSignalRepo struct {
	signals []*entity.QsOrderSignal
	nextID  int64
}

func (f *fakeSignalRepo) Create(_ context.Context, signal *entity.QsOrderSignal) error {
	for _, s := range f.signals {
		if s.TradeDate == signal.TradeDate && s.Code == signal.Code && s.SignalType == signal.SignalType {
			return apperrors.NewConstraintViolation("qs_order_signals", signal.Code, "duplicate key")
		}
	}
	f.nextID++
	signal.ID = f.nextID
	f.signals = append(f.signals, signal)
	return nil
}

func (f *fakeSignalRepo) Get(_ context.Context, param dto.GetOrderSignalsParam) ([]entity.QsOrderSignal, error) {
	var out []entity.QsOrderSignal
	for _, s := range f.signals {
		if param.TradeDate != "" && s.TradeDate != param.TradeDate {
			continue
		}
		if param.Code != "" && s.Code != param.Code {
			continue
		}
		if param.SignalType != "" && s.SignalType != param.SignalType {
			continue
		}
		if param.Status != "" && s.Status != param.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSignalRepo) HasUnresolved(_ context.Context, tradeDate, code string, signalType entity.SignalType) (bool, error) {
	for _, s := range f.signals {
		if s.TradeDate == tradeDate && s.Code == code && s.SignalType == signalType {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSignalRepo) UpdateStatus(_ context.Context, id int64, status entity.SignalStatus) error {
	for _, s := range f.signals {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.messages = append(n.messages, text)
	return nil
}

func newTestPositionService(positions *fakePositionRepo, signals *fakeSignalRepo) PositionService {
	log, _ := logger.New("error", "console")
	cfg := &config.Config{Quickstart: config.DefaultQuickstart()}
	return NewPositionService(cfg, log, positions, signals, &fakeStocksRepo{}, telegram.NoopNotifier{})
}

func entrySignal(signals *fakeSignalRepo, code string, price float64) *entity.QsOrderSignal {
	signal := &entity.QsOrderSignal{
		TradeDate:  "2026-08-28",
		TsJST:      "2026-08-28T15:06:00+09:00",
		Code:       code,
		Side:       entity.OrderSideBuy,
		SignalType: entity.SignalTypeEntry,
		Price:      price,
		Reason:     "alive at entry cutoff",
		Status:     entity.SignalStatusNew,
	}
	_ = signals.Create(context.Background(), signal)
	return signal
}

func TestConfirmEntryOpensPosition(t *testing.T) {
	positions := &fakePositionRepo{}
	signals := &fakeSignalRepo{}
	svc := newTestPositionService(positions, signals)

	signal := entrySignal(signals, "7203", 1100)
	position, err := svc.ConfirmEntry(context.Background(), signal)
	require.NoError(t, err)
	require.NotNil(t, position)

	assert.Equal(t, entity.PositionStateOpen, position.State)
	assert.Equal(t, "7203", position.Code)
	assert.InDelta(t, 1100.0, position.EntryPrice, 1e-9)
	assert.InDelta(t, 0.02, position.AllocationPct, 1e-9)
	assert.Equal(t, signal.TradeDate, position.EntryDate)
	assert.Equal(t, entity.SignalStatusConfirmed, signals.signals[0].Status)
}

func TestConfirmEntryFailsWhenPositionAlreadyOpen(t *testing.T) {
	positions := &fakePositionRepo{}
	signals := &fakeSignalRepo{}
	svc := newTestPositionService(positions, signals)

	first := entrySignal(signals, "7203", 1100)
	_, err := svc.ConfirmEntry(context.Background(), first)
	require.NoError(t, err)

	second := &entity.QsOrderSignal{
		TradeDate:  "2026-08-29",
		TsJST:      "2026-08-29T15:06:00+09:00",
		Code:       "7203",
		Side:       entity.OrderSideBuy,
		SignalType: entity.SignalTypeEntry,
		Price:      1200,
		Status:     entity.SignalStatusNew,
	}
	require.NoError(t, signals.Create(context.Background(), second))

	position, err := svc.ConfirmEntry(context.Background(), second)
	require.Error(t, err)
	assert.True(t, apperrors.IsConstraintViolation(err))
	assert.Nil(t, position)
	// The signal is still resolved so it is never reconsidered.
	assert.Equal(t, entity.SignalStatusSkipped, second.Status)
	assert.Len(t, positions.positions, 1)
}

func TestConfirmEntryNotifiesWithStockName(t *testing.T) {
	positions := &fakePositionRepo{}
	signals := &fakeSignalRepo{}
	notifier := &recordingNotifier{}
	log, _ := logger.New("error", "console")
	cfg := &config.Config{Quickstart: config.DefaultQuickstart()}
	stocks := &fakeStocksRepo{stocks: []entity.Stock{{Code: "7203", Name: "トヨタ自動車"}}}
	svc := NewPositionService(cfg, log, positions, signals, stocks, notifier)

	_, err := svc.ConfirmEntry(context.Background(), entrySignal(signals, "7203", 1100))
	require.NoError(t, err)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "7203 (トヨタ自動車)")
}

func TestConfirmEntryRespectsDailyBudget(t *testing.T) {
	positions := &fakePositionRepo{}
	signals := &fakeSignalRepo{}
	svc := newTestPositionService(positions, signals)

	codes := []string{"7203", "6758", "9984"}
	var opened int
	for _, code := range codes {
		signal := entrySignal(signals, code, 1000)
		position, err := svc.ConfirmEntry(context.Background(), signal)
		require.NoError(t, err)
		if position != nil {
			opened++
		}
	}

	// Default budget is two entries per trade day; the third is skipped.
	assert.Equal(t, 2, opened)
	assert.Equal(t, entity.SignalStatusSkipped, signals.signals[2].Status)
}

func TestConfirmEntryRejectsWrongSignalType(t *testing.T) {
	svc := newTestPositionService(&fakePositionRepo{}, &fakeSignalRepo{})
	_, err := svc.ConfirmEntry(context.Background(), &entity.QsOrderSignal{
		ID:         1,
		Side:       entity.OrderSideSell,
		SignalType: entity.SignalTypeExit,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConstraintViolation(err))
}

func TestConfirmExitClosesPosition(t *testing.T) {
	positions := &fakePositionRepo{}
	signals := &fakeSignalRepo{}
	svc := newTestPositionService(positions, signals)

	entry := entrySignal(signals, "7203", 1000)
	position, err := svc.ConfirmEntry(context.Background(), entry)
	require.NoError(t, err)

	exit := &entity.QsOrderSignal{
		TradeDate:  "2026-08-29",
		TsJST:      "2026-08-29T09:05:00+09:00",
		Code:       "7203",
		Side:       entity.OrderSideSell,
		SignalType: entity.SignalTypeExit,
		Price:      1060,
		Reason:     "take_profit: pnl +6.00%",
		Status:     entity.SignalStatusNew,
	}
	require.NoError(t, signals.Create(context.Background(), exit))
	require.NoError(t, svc.ConfirmExit(context.Background(), exit, position))

	stored := positions.positions[0]
	assert.Equal(t, entity.PositionStateClosed, stored.State)
	require.NotNil(t, stored.ExitPrice)
	assert.InDelta(t, 1060.0, *stored.ExitPrice, 1e-9)
	require.NotNil(t, stored.ExitReason)
	assert.Contains(t, *stored.ExitReason, "take_profit")
	assert.Equal(t, entity.SignalStatusConfirmed, exit.Status)
}

func TestConfirmExitOnClosedPositionFails(t *testing.T) {
	positions := &fakePositionRepo{}
	signals := &fakeSignalRepo{}
	svc := newTestPositionService(positions, signals)

	closed := &entity.QsPosition{
		ID:         42,
		Code:       "7203",
		EntryPrice: 1000,
		State:      entity.PositionStateClosed,
	}
	err := svc.ConfirmExit(context.Background(), &entity.QsOrderSignal{
		ID:         9,
		TradeDate:  "2026-08-29",
		Code:       "7203",
		Side:       entity.OrderSideSell,
		SignalType: entity.SignalTypeExit,
		Price:      990,
	}, closed)
	require.Error(t, err)
	assert.True(t, apperrors.IsConstraintViolation(err))
}
