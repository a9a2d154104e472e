package strategy

import (
	"context"
	"strings"
	"testing"
	"time"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/config"
	"kabu-advisor/pkg/logger"
	redisclient "kabu-advisor/pkg/redis"
	"kabu-advisor/pkg/utils"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTradeDate = "2026-08-28"

func testLogger() *logger.Logger {
	log, _ := logger.New("error", "console")
	return log
}

func testConfig() *config.Config {
	return &config.Config{Quickstart: config.DefaultQuickstart()}
}

// offlineRedis returns a client pointing nowhere; cache writes fail and are
// logged, which is exactly the degradation the monitor tolerates.
func offlineRedis() *redisclient.Client {
	return &redisclient.Client{Client: goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})}
}

func jstClock(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 28, hour, minute, 0, 0, utils.GetJSTLocation())
	}
}

func pickedCandidate(repo *fakeCandidateRepo, code string, prevClose float64) {
	repo.byKey[repo.key(testTradeDate, code)] = &entity.QsCandidate{
		TradeDate: testTradeDate,
		Code:      code,
		GapUpRate: 0.12,
		PrevClose: prevClose,
		DayOpen:   prevClose * 1.12,
		Status:    entity.CandidateStatusPicked,
	}
}

func intradaySamples(code string, prices []float64, volumes []float64) *fakeIntradayRepo {
	quotes := make([]entity.IntradayQuote, len(prices))
	for i, p := range prices {
		quotes[i] = entity.IntradayQuote{Code: code, Price: p}
		if volumes != nil {
			quotes[i].CumVolume = utils.ToPointer(volumes[i])
		}
	}
	return &fakeIntradayRepo{quotes: map[string][]entity.IntradayQuote{code: quotes}}
}

func newSurvivalStrategy(candidates *fakeCandidateRepo, snapshots *fakeSnapshotRepo, intraday *fakeIntradayRepo, now func() time.Time) *SurvivalTestStrategy {
	return newSurvivalStrategyWithMarket(candidates, snapshots, intraday, &fakeMarketDataRepo{}, now)
}

func newSurvivalStrategyWithMarket(candidates *fakeCandidateRepo, snapshots *fakeSnapshotRepo, intraday *fakeIntradayRepo, market *fakeMarketDataRepo, now func() time.Time) *SurvivalTestStrategy {
	s := NewSurvivalTestStrategy(testConfig(), testLogger(), candidates, snapshots, intraday, market, offlineRedis())
	s.nowFn = now
	return s
}

func runTicks(t *testing.T, s *SurvivalTestStrategy, n int) {
	t.Helper()
	tick := &entity.Tick{Type: entity.TickTypeSurvivalTest, TradeDate: testTradeDate}
	for i := 0; i < n; i++ {
		_, err := s.Execute(context.Background(), tick)
		require.NoError(t, err)
	}
}

func TestSurvivalRejectsBelowPrevClose(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 1000)
	snapshots := &fakeSnapshotRepo{}
	intraday := intradaySamples("7203", []float64{1060, 1040, 980}, []float64{100, 200, 300})

	s := newSurvivalStrategy(candidates, snapshots, intraday, jstClock(15, 1))
	runTicks(t, s, 3)

	stored := candidates.byKey[candidates.key(testTradeDate, "7203")]
	assert.Equal(t, entity.CandidateStatusRejected, stored.Status)
	require.NotNil(t, stored.RejectReason)
	assert.True(t, strings.HasPrefix(*stored.RejectReason, RejectPriceBelowPrevClose))
	require.NotNil(t, stored.LatestPrice)
	assert.InDelta(t, 980.0, *stored.LatestPrice, 1e-9)
	require.NotNil(t, stored.DayHigh)
	assert.InDelta(t, 1060.0, *stored.DayHigh, 1e-9)
	assert.Len(t, snapshots.rows, 3)
}

func TestSurvivalBasePriceFirstWriteWins(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 1000)
	snapshots := &fakeSnapshotRepo{}
	intraday := intradaySamples("7203", []float64{1060, 1055, 1050}, []float64{100, 200, 300})

	s := newSurvivalStrategy(candidates, snapshots, intraday, jstClock(15, 0))
	runTicks(t, s, 3)

	require.Len(t, snapshots.rows, 3)
	for _, row := range snapshots.rows {
		require.NotNil(t, row.BasePrice1500)
		assert.InDelta(t, 1060.0, *row.BasePrice1500, 1e-9)
	}
	// Drops are computed against the captured base, not the latest price.
	require.NotNil(t, snapshots.rows[2].DropFrom1500)
	assert.InDelta(t, 1050.0/1060.0-1, *snapshots.rows[2].DropFrom1500, 1e-9)

	stored := candidates.byKey[candidates.key(testTradeDate, "7203")]
	assert.Equal(t, entity.CandidateStatusAlive, stored.Status)
}

func TestSurvivalNoBaseBeforeReferenceTime(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 1000)
	snapshots := &fakeSnapshotRepo{}
	intraday := intradaySamples("7203", []float64{1060}, []float64{100})

	s := newSurvivalStrategy(candidates, snapshots, intraday, jstClock(14, 55))
	runTicks(t, s, 1)

	require.Len(t, snapshots.rows, 1)
	assert.Nil(t, snapshots.rows[0].BasePrice1500)
	assert.Nil(t, snapshots.rows[0].DropFrom1500)
}

func TestSurvivalRejectsOnDropFromBase(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 1000)
	snapshots := &fakeSnapshotRepo{}
	// 1030/1060 - 1 = -2.83%, past the -2% limit.
	intraday := intradaySamples("7203", []float64{1060, 1030}, []float64{100, 200})

	s := newSurvivalStrategy(candidates, snapshots, intraday, jstClock(15, 2))
	runTicks(t, s, 2)

	stored := candidates.byKey[candidates.key(testTradeDate, "7203")]
	assert.Equal(t, entity.CandidateStatusRejected, stored.Status)
	require.NotNil(t, stored.RejectReason)
	assert.True(t, strings.HasPrefix(*stored.RejectReason, RejectDropFrom1500))
}

func TestSurvivalRejectsOnStalledVolume(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 1000)
	snapshots := &fakeSnapshotRepo{}
	intraday := intradaySamples("7203", []float64{1060, 1061}, []float64{500, 500})

	s := newSurvivalStrategy(candidates, snapshots, intraday, jstClock(15, 3))
	runTicks(t, s, 2)

	stored := candidates.byKey[candidates.key(testTradeDate, "7203")]
	assert.Equal(t, entity.CandidateStatusRejected, stored.Status)
	require.NotNil(t, stored.RejectReason)
	assert.True(t, strings.HasPrefix(*stored.RejectReason, RejectVolumeStalled))
	require.NotNil(t, snapshots.rows[1].DeltaVolume)
	assert.InDelta(t, 0.0, *snapshots.rows[1].DeltaVolume, 1e-9)
}

func TestSurvivalRejectedCandidateIsNotSampledAgain(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 1000)
	snapshots := &fakeSnapshotRepo{}
	intraday := intradaySamples("7203", []float64{980, 990}, []float64{100, 200})

	s := newSurvivalStrategy(candidates, snapshots, intraday, jstClock(15, 1))
	runTicks(t, s, 1)
	require.Len(t, snapshots.rows, 1)

	// The candidate is terminal: the next tick skips it entirely.
	tick := &entity.Tick{Type: entity.TickTypeSurvivalTest, TradeDate: testTradeDate}
	result, err := s.Execute(context.Background(), tick)
	require.NoError(t, err)
	assert.Equal(t, SKIPPED, result)
	assert.Len(t, snapshots.rows, 1)
}

func TestSurvivalRefreshesSelectionMetrics(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 950)
	snapshots := &fakeSnapshotRepo{}
	intraday := intradaySamples("7203", []float64{1060, 1040}, []float64{2000, 2500})
	market := &fakeMarketDataRepo{prevQuotes: map[string][]entity.DailyQuote{
		"7203": prevQuote(950, 1000),
	}}

	s := newSurvivalStrategyWithMarket(candidates, snapshots, intraday, market, jstClock(15, 2))
	runTicks(t, s, 2)

	stored := candidates.byKey[candidates.key(testTradeDate, "7203")]
	assert.Equal(t, entity.CandidateStatusAlive, stored.Status)
	// Both selection metrics track the latest sample, not the scan.
	require.NotNil(t, stored.HighDistance)
	assert.InDelta(t, (1060.0-1040.0)/1060.0, *stored.HighDistance, 1e-9)
	require.NotNil(t, stored.VolumeRatio)
	assert.InDelta(t, 2500.0/1000.0, *stored.VolumeRatio, 1e-9)
}

func TestSurvivalRejectsAtExactDropLimit(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 700)
	snapshots := &fakeSnapshotRepo{}
	intraday := intradaySamples("7203", []float64{1000, 750}, []float64{100, 200})

	s := newSurvivalStrategy(candidates, snapshots, intraday, jstClock(15, 2))
	// A drop exactly at the limit is a rejection, not a survival.
	s.cfg.Quickstart.SurvivalDropLimit = -0.25
	runTicks(t, s, 2)

	stored := candidates.byKey[candidates.key(testTradeDate, "7203")]
	assert.Equal(t, entity.CandidateStatusRejected, stored.Status)
	require.NotNil(t, stored.RejectReason)
	assert.True(t, strings.HasPrefix(*stored.RejectReason, RejectDropFrom1500))
}

func TestSurvivalSkipsWhenNoIntradayPrice(t *testing.T) {
	candidates := newFakeCandidateRepo()
	pickedCandidate(candidates, "7203", 1000)
	snapshots := &fakeSnapshotRepo{}
	intraday := &fakeIntradayRepo{quotes: map[string][]entity.IntradayQuote{}}

	s := newSurvivalStrategy(candidates, snapshots, intraday, jstClock(15, 1))
	runTicks(t, s, 1)

	assert.Empty(t, snapshots.rows)
	stored := candidates.byKey[candidates.key(testTradeDate, "7203")]
	assert.Equal(t, entity.CandidateStatusPicked, stored.Status)
}
