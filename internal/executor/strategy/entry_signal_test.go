package strategy

import (
	"context"
	"testing"
	"time"

	"kabu-advisor/internal/entity"
	"kabu-advisor/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aliveCandidate(repo *fakeCandidateRepo, code string, latestPrice float64) {
	repo.byKey[repo.key(testTradeDate, code)] = &entity.QsCandidate{
		TradeDate:    testTradeDate,
		Code:         code,
		GapUpRate:    0.12,
		PrevClose:    1000,
		DayOpen:      1120,
		LatestPrice:  utils.ToPointer(latestPrice),
		HighDistance: utils.ToPointer(0.01),
		Status:       entity.CandidateStatusAlive,
	}
}

func newEntryStrategy(candidates *fakeCandidateRepo, signals *fakeSignalRepo, manager *fakePositionManager) *EntrySignalStrategy {
	s := NewEntrySignalStrategy(testConfig(), testLogger(), candidates, signals, manager)
	s.nowFn = func() time.Time {
		return time.Date(2026, 8, 28, 15, 6, 0, 0, utils.GetJSTLocation())
	}
	return s
}

func TestEntrySignalEmitsForAliveCandidates(t *testing.T) {
	candidates := newFakeCandidateRepo()
	aliveCandidate(candidates, "7203", 1125)
	aliveCandidate(candidates, "6758", 1150)
	signals := &fakeSignalRepo{}
	manager := &fakePositionManager{signals: signals}

	s := newEntryStrategy(candidates, signals, manager)
	result, err := s.Execute(context.Background(), &entity.Tick{Type: entity.TickTypeEntrySignal, TradeDate: testTradeDate})
	require.NoError(t, err)
	assert.Equal(t, SUCCESS, result)

	require.Len(t, signals.signals, 2)
	for _, signal := range signals.signals {
		assert.Equal(t, entity.OrderSideBuy, signal.Side)
		assert.Equal(t, entity.SignalTypeEntry, signal.SignalType)
		assert.Contains(t, signal.Reason, "alive")
	}
	assert.Len(t, manager.entries, 2)
}

func TestEntrySignalIsIdempotentPerDay(t *testing.T) {
	candidates := newFakeCandidateRepo()
	aliveCandidate(candidates, "7203", 1125)
	signals := &fakeSignalRepo{}
	manager := &fakePositionManager{signals: signals}

	s := newEntryStrategy(candidates, signals, manager)
	tick := &entity.Tick{Type: entity.TickTypeEntrySignal, TradeDate: testTradeDate}
	_, err := s.Execute(context.Background(), tick)
	require.NoError(t, err)
	_, err = s.Execute(context.Background(), tick)
	require.NoError(t, err)

	// One signal per (trade day, security), however many ticks fire.
	assert.Len(t, signals.signals, 1)
	assert.Len(t, manager.entries, 1)
}

func TestEntrySignalSkipsRejectedCandidates(t *testing.T) {
	candidates := newFakeCandidateRepo()
	candidates.byKey[candidates.key(testTradeDate, "7203")] = &entity.QsCandidate{
		TradeDate:   testTradeDate,
		Code:        "7203",
		PrevClose:   1000,
		LatestPrice: utils.ToPointer(980.0),
		Status:      entity.CandidateStatusRejected,
	}
	signals := &fakeSignalRepo{}
	manager := &fakePositionManager{signals: signals}

	s := newEntryStrategy(candidates, signals, manager)
	result, err := s.Execute(context.Background(), &entity.Tick{Type: entity.TickTypeEntrySignal, TradeDate: testTradeDate})
	require.NoError(t, err)
	assert.Equal(t, SKIPPED, result)
	assert.Empty(t, signals.signals)
}

func TestEntrySignalSkipsCandidateWithoutPrice(t *testing.T) {
	candidates := newFakeCandidateRepo()
	candidates.byKey[candidates.key(testTradeDate, "7203")] = &entity.QsCandidate{
		TradeDate: testTradeDate,
		Code:      "7203",
		PrevClose: 1000,
		Status:    entity.CandidateStatusAlive,
	}
	signals := &fakeSignalRepo{}
	manager := &fakePositionManager{signals: signals}

	s := newEntryStrategy(candidates, signals, manager)
	_, err := s.Execute(context.Background(), &entity.Tick{Type: entity.TickTypeEntrySignal, TradeDate: testTradeDate})
	require.NoError(t, err)
	assert.Empty(t, signals.signals)
}
