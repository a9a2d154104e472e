package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/config"
	"kabu-advisor/internal/executor/dto"
	"kabu-advisor/internal/executor/repository"
	"kabu-advisor/pkg/common"
	"kabu-advisor/pkg/logger"
	redisclient "kabu-advisor/pkg/redis"
	"kabu-advisor/pkg/utils"
)

// Reject reason codes. Human detail may follow the code in reject_reason.
const (
	RejectPriceBelowPrevClose = "price_below_prev_close"
	RejectDropFrom1500        = "drop_from_1500"
	RejectVolumeStalled       = "volume_stalled"
)

// SurvivalTestStrategy samples every live candidate once per tick. It is the
// only writer of QsCandidate.status.
type SurvivalTestStrategy struct {
	cfg        *config.Config
	log        *logger.Logger
	candidates repository.QsCandidateRepository
	snapshots  repository.QsSnapshotRepository
	intraday   repository.IntradayQuoteRepository
	market     repository.MarketDataRepository
	redis      *redisclient.Client
	nowFn      func() time.Time
}

func NewSurvivalTestStrategy(
	cfg *config.Config,
	log *logger.Logger,
	candidates repository.QsCandidateRepository,
	snapshots repository.QsSnapshotRepository,
	intraday repository.IntradayQuoteRepository,
	market repository.MarketDataRepository,
	redis *redisclient.Client,
) *SurvivalTestStrategy {
	return &SurvivalTestStrategy{
		cfg:        cfg,
		log:        log,
		candidates: candidates,
		snapshots:  snapshots,
		intraday:   intraday,
		market:     market,
		redis:      redis,
		nowFn:      utils.TimeNowJST,
	}
}

func (s *SurvivalTestStrategy) GetType() entity.TickType {
	return entity.TickTypeSurvivalTest
}

func (s *SurvivalTestStrategy) Execute(ctx context.Context, tick *entity.Tick) (string, error) {
	candidates, err := s.candidates.Get(ctx, dto.GetCandidatesParam{
		TradeDate: tick.TradeDate,
		Statuses:  []entity.CandidateStatus{entity.CandidateStatusPicked, entity.CandidateStatusAlive},
	})
	if err != nil {
		return FAILED, err
	}
	if len(candidates) == 0 {
		return SKIPPED, nil
	}

	sampled := 0
	for i := range candidates {
		ok, err := s.sample(ctx, &candidates[i])
		if err != nil {
			s.log.Warn("survival sample failed",
				logger.StringField("code", candidates[i].Code),
				logger.ErrorField(err))
			continue
		}
		if ok {
			sampled++
		}
	}

	s.log.Info("survival test finished",
		logger.StringField("trade_date", tick.TradeDate),
		logger.IntField("candidates", len(candidates)),
		logger.IntField("sampled", sampled))
	return SUCCESS, nil
}

// sample takes one survival sample for a candidate: appends the snapshot,
// evaluates the reject rules in fixed order and advances the state machine.
// Returns false when the intraday feed has no price yet.
func (s *SurvivalTestStrategy) sample(ctx context.Context, candidate *entity.QsCandidate) (bool, error) {
	quote, err := s.intraday.Latest(ctx, candidate.Code, candidate.TradeDate)
	if err != nil {
		return false, err
	}
	if quote == nil {
		return false, nil
	}
	now := s.nowFn()
	price := quote.Price

	prevSnap, err := s.snapshots.Latest(ctx, candidate.TradeDate, candidate.Code)
	if err != nil {
		return false, err
	}

	var deltaVolume *float64
	if quote.CumVolume != nil && prevSnap != nil && prevSnap.CumVolume != nil {
		delta := *quote.CumVolume - *prevSnap.CumVolume
		deltaVolume = &delta
	}

	base, err := s.snapshots.FirstBase(ctx, candidate.TradeDate, candidate.Code)
	if err != nil {
		return false, err
	}
	// The 15:00 base is captured once; the first sample at or after the
	// reference clock wins and later samples reuse it.
	if base == nil && clockAtOrAfter(now, s.cfg.Quickstart.BaseTime) {
		base = &price
	}
	var dropFrom1500 *float64
	if base != nil && *base > 0 {
		drop := price / *base - 1
		dropFrom1500 = &drop
	}

	snap := &entity.QsSurvivalSnapshot{
		TradeDate:     candidate.TradeDate,
		TsJST:         utils.TimestampJST(now),
		Code:          candidate.Code,
		Price:         price,
		CumVolume:     quote.CumVolume,
		DeltaVolume:   deltaVolume,
		BasePrice1500: base,
		DropFrom1500:  dropFrom1500,
	}
	if err := s.snapshots.Create(ctx, snap); err != nil {
		return false, err
	}

	candidate.LatestPrice = &price
	if candidate.DayHigh == nil || price > *candidate.DayHigh {
		candidate.DayHigh = &price
	}
	if *candidate.DayHigh > 0 {
		dist := (*candidate.DayHigh - price) / *candidate.DayHigh
		candidate.HighDistance = &dist
	}
	if quote.CumVolume != nil {
		prev, err := s.market.LastTwoQuotes(ctx, candidate.Code, candidate.TradeDate)
		if err != nil {
			return false, err
		}
		if len(prev) > 0 && prev[0].Volume != nil && *prev[0].Volume > 0 {
			ratio := *quote.CumVolume / *prev[0].Volume
			candidate.VolumeRatio = &ratio
		}
	}

	next := entity.CandidateStatusAlive
	rejectReason := s.rejectReason(candidate, price, dropFrom1500, deltaVolume)
	if rejectReason != nil {
		next = entity.CandidateStatusRejected
	}
	if !candidate.Status.CanTransitionTo(next) {
		return false, fmt.Errorf("illegal candidate transition %s -> %s for %s",
			candidate.Status, next, candidate.Code)
	}
	candidate.Status = next
	candidate.RejectReason = rejectReason
	if err := s.candidates.UpdateSurvival(ctx, candidate); err != nil {
		return false, err
	}

	s.cacheLastPrice(ctx, candidate.Code, price, snap.TsJST)
	return true, nil
}

// rejectReason applies the reject rules in fixed order; the first that fires
// names the rejection.
func (s *SurvivalTestStrategy) rejectReason(candidate *entity.QsCandidate, price float64, dropFrom1500, deltaVolume *float64) *string {
	if price < candidate.PrevClose {
		return utils.ToPointer(fmt.Sprintf("%s: price %.1f < prev close %.1f",
			RejectPriceBelowPrevClose, price, candidate.PrevClose))
	}
	if dropFrom1500 != nil && *dropFrom1500 <= s.cfg.Quickstart.SurvivalDropLimit {
		return utils.ToPointer(fmt.Sprintf("%s: drop %.2f%% exceeds limit %.2f%%",
			RejectDropFrom1500, *dropFrom1500*100, s.cfg.Quickstart.SurvivalDropLimit*100))
	}
	if deltaVolume != nil && *deltaVolume <= 0 {
		return utils.ToPointer(fmt.Sprintf("%s: delta volume %.0f", RejectVolumeStalled, *deltaVolume))
	}
	return nil
}

func (s *SurvivalTestStrategy) cacheLastPrice(ctx context.Context, code string, price float64, tsJST string) {
	payload, _ := json.Marshal(map[string]interface{}{"price": price, "ts_jst": tsJST})
	if err := s.redis.HSet(ctx, common.RedisKeyLastPrice, code, string(payload)).Err(); err != nil {
		s.log.Warn("failed to cache last price",
			logger.StringField("code", code),
			logger.ErrorField(err))
	}
}

// clockAtOrAfter reports whether t's JST wall clock is at or past "HH:MM".
func clockAtOrAfter(t time.Time, clock string) bool {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return false
	}
	jst := t.In(utils.GetJSTLocation())
	return jst.Hour()*60+jst.Minute() >= parsed.Hour()*60+parsed.Minute()
}
