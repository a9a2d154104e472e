package strategy

import (
	"context"
	"sort"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/config"
	"kabu-advisor/internal/executor/repository"
	"kabu-advisor/pkg/logger"
)

// CandidateScanStrategy runs the gap-up selector once per trade day. It only
// reads already-ingested quotes; it never fetches from upstream.
type CandidateScanStrategy struct {
	cfg        *config.Config
	log        *logger.Logger
	stocks     repository.StocksRepository
	marketData repository.MarketDataRepository
	intraday   repository.IntradayQuoteRepository
	candidates repository.QsCandidateRepository
}

func NewCandidateScanStrategy(
	cfg *config.Config,
	log *logger.Logger,
	stocks repository.StocksRepository,
	marketData repository.MarketDataRepository,
	intraday repository.IntradayQuoteRepository,
	candidates repository.QsCandidateRepository,
) *CandidateScanStrategy {
	return &CandidateScanStrategy{
		cfg:        cfg,
		log:        log,
		stocks:     stocks,
		marketData: marketData,
		intraday:   intraday,
		candidates: candidates,
	}
}

func (s *CandidateScanStrategy) GetType() entity.TickType {
	return entity.TickTypeCandidateScan
}

// scanRow pairs a screened candidate with its ranking tie-break input.
type scanRow struct {
	candidate  entity.QsCandidate
	prevVolume float64
}

func (s *CandidateScanStrategy) Execute(ctx context.Context, tick *entity.Tick) (string, error) {
	stocks, err := s.stocks.GetAll(ctx)
	if err != nil {
		return FAILED, err
	}

	var rows []scanRow
	for _, stock := range stocks {
		row, err := s.screen(ctx, stock.Code, tick.TradeDate)
		if err != nil {
			s.log.Warn("candidate screen failed",
				logger.StringField("code", stock.Code),
				logger.ErrorField(err))
			continue
		}
		if row != nil {
			rows = append(rows, *row)
		}
	}

	// Rank by gap rate descending; higher prior-day volume wins ties.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].candidate.GapUpRate != rows[j].candidate.GapUpRate {
			return rows[i].candidate.GapUpRate > rows[j].candidate.GapUpRate
		}
		return rows[i].prevVolume > rows[j].prevVolume
	})
	if len(rows) > s.cfg.Quickstart.CandidateLimit {
		rows = rows[:s.cfg.Quickstart.CandidateLimit]
	}

	candidates := make([]entity.QsCandidate, 0, len(rows))
	for _, r := range rows {
		candidates = append(candidates, r.candidate)
	}
	if err := s.candidates.Upsert(ctx, candidates); err != nil {
		return FAILED, err
	}

	s.log.Info("candidate scan finished",
		logger.StringField("trade_date", tick.TradeDate),
		logger.IntField("picked", len(candidates)))
	if len(candidates) == 0 {
		return SKIPPED, nil
	}
	return SUCCESS, nil
}

// screen evaluates one security against the gap-up filters. A nil row with nil
// error means the security simply does not qualify today.
func (s *CandidateScanStrategy) screen(ctx context.Context, code, tradeDate string) (*scanRow, error) {
	today, err := s.marketData.QuoteOn(ctx, code, tradeDate)
	if err != nil {
		return nil, err
	}
	if today == nil || today.Open == nil {
		return nil, nil // no opening print yet
	}

	prev, err := s.marketData.LastTwoQuotes(ctx, code, tradeDate)
	if err != nil {
		return nil, err
	}
	if len(prev) == 0 || prev[0].Close == nil || *prev[0].Close == 0 {
		return nil, nil
	}
	prevClose := *prev[0].Close

	gapUpRate := *today.Open/prevClose - 1
	if gapUpRate < s.cfg.Quickstart.GapUpRateMin {
		return nil, nil
	}

	var prevVolume float64
	if prev[0].Volume != nil {
		prevVolume = *prev[0].Volume
	}
	var volumeRatio *float64
	if today.Volume != nil && prevVolume > 0 {
		ratio := *today.Volume / prevVolume
		if ratio < s.cfg.Quickstart.VolumeRatioMin {
			return nil, nil
		}
		volumeRatio = &ratio
	}

	var highDistance *float64
	latest, err := s.intraday.Latest(ctx, code, tradeDate)
	if err != nil {
		return nil, err
	}
	if latest != nil && today.High != nil && *today.High > 0 {
		dist := (*today.High - latest.Price) / *today.High
		if dist > s.cfg.Quickstart.HighDistanceMax {
			return nil, nil
		}
		highDistance = &dist
	}

	candidate := entity.QsCandidate{
		TradeDate:    tradeDate,
		Code:         code,
		GapUpRate:    gapUpRate,
		PrevClose:    prevClose,
		DayOpen:      *today.Open,
		DayHigh:      today.High,
		VolumeRatio:  volumeRatio,
		HighDistance: highDistance,
		Status:       entity.CandidateStatusPicked,
	}
	if latest != nil {
		candidate.LatestPrice = &latest.Price
	}
	return &scanRow{candidate: candidate, prevVolume: prevVolume}, nil
}
