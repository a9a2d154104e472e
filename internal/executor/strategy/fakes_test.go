package strategy

import (
	"context"
	"errors"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/dto"
	"kabu-advisor/internal/rules"
	"kabu-advisor/pkg/apperrors"
)

type fakeStocksRepo struct {
	stocks []entity.Stock
	err    error
}

func (f *fakeStocksRepo) GetAll(_ context.Context) ([]entity.Stock, error) {
	return f.stocks, f.err
}

func (f *fakeStocksRepo) GetByCode(_ context.Context, code string) (*entity.Stock, error) {
	for i := range f.stocks {
		if f.stocks[i].Code == code {
			return &f.stocks[i], nil
		}
	}
	return nil, errors.New("not found")
}

type fakeMarketDataRepo struct {
	todayQuotes map[string]*entity.DailyQuote
	prevQuotes  map[string][]entity.DailyQuote
}

func (f *fakeMarketDataRepo) Snapshot(_ context.Context, _ dto.SnapshotParam) (*rules.Snapshot, error) {
	return &rules.Snapshot{}, nil
}

func (f *fakeMarketDataRepo) QuoteOn(_ context.Context, code, _ string) (*entity.DailyQuote, error) {
	return f.todayQuotes[code], nil
}

func (f *fakeMarketDataRepo) LastTwoQuotes(_ context.Context, code, _ string) ([]entity.DailyQuote, error) {
	return f.prevQuotes[code], nil
}

// fakeIntradayRepo serves one queued price list per security, consumed in order.
type fakeIntradayRepo struct {
	quotes map[string][]entity.IntradayQuote
}

func (f *fakeIntradayRepo) Latest(_ context.Context, code, _ string) (*entity.IntradayQuote, error) {
	queue := f.quotes[code]
	if len(queue) == 0 {
		return nil, nil
	}
	quote := queue[0]
	if len(queue) > 1 {
		f.quotes[code] = queue[1:]
	}
	return &quote, nil
}

type fakeCandidateRepo struct {
	byKey    map[string]*entity.QsCandidate
	upserted [][]entity.QsCandidate
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{byKey: map[string]*entity.QsCandidate{}}
}

func (f *fakeCandidateRepo) key(tradeDate, code string) string {
	return tradeDate + "/" + code
}

func (f *fakeCandidateRepo) Upsert(_ context.Context, candidates []entity.QsCandidate) error {
	f.upserted = append(f.upserted, candidates)
	for i := range candidates {
		c := candidates[i]
		k := f.key(c.TradeDate, c.Code)
		if existing, ok := f.byKey[k]; ok {
			existing.GapUpRate = c.GapUpRate
			existing.PrevClose = c.PrevClose
			existing.DayOpen = c.DayOpen
			existing.VolumeRatio = c.VolumeRatio
			existing.HighDistance = c.HighDistance
			continue
		}
		f.byKey[k] = &c
	}
	return nil
}

func (f *fakeCandidateRepo) Get(_ context.Context, param dto.GetCandidatesParam) ([]entity.QsCandidate, error) {
	var out []entity.QsCandidate
	for _, c := range f.byKey {
		if c.TradeDate != param.TradeDate {
			continue
		}
		if len(param.Statuses) > 0 {
			match := false
			for _, st := range param.Statuses {
				if c.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCandidateRepo) UpdateSurvival(_ context.Context, candidate *entity.QsCandidate) error {
	k := f.key(candidate.TradeDate, candidate.Code)
	existing, ok := f.byKey[k]
	if !ok {
		return errors.New("candidate not found")
	}
	existing.DayHigh = candidate.DayHigh
	existing.LatestPrice = candidate.LatestPrice
	existing.VolumeRatio = candidate.VolumeRatio
	existing.HighDistance = candidate.HighDistance
	existing.Status = candidate.Status
	existing.RejectReason = candidate.RejectReason
	return nil
}

type fakeSnapshotRepo struct {
	rows   []entity.QsSurvivalSnapshot
	nextID int64
}

func (f *fakeSnapshotRepo) Create(_ context.Context, snapshot *entity.QsSurvivalSnapshot) error {
	f.nextID++
	snapshot.ID = f.nextID
	f.rows = append(f.rows, *snapshot)
	return nil
}

func (f *fakeSnapshotRepo) Latest(_ context.Context, tradeDate, code string) (*entity.QsSurvivalSnapshot, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].TradeDate == tradeDate && f.rows[i].Code == code {
			clone := f.rows[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeSnapshotRepo) FirstBase(_ context.Context, tradeDate, code string) (*float64, error) {
	for _, row := range f.rows {
		if row.TradeDate == tradeDate && row.Code == code && row.BasePrice1500 != nil {
			base := *row.BasePrice1500
			return &base, nil
		}
	}
	return nil, nil
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
		}
	}
	return nil
}

type fakePositionRepo struct {
	positions []*entity.QsPosition
	nextID    int64
}

func (f *fakePositionRepo) Create(_ context.Context, position *entity.QsPosition) error {
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
			p.ExitReason = position.ExitReason
			p.ExitPrice = position.ExitPrice
			return nil
		}
	}
	return apperrors.NewConstraintViolation("qs_positions", "", "position is not open")
}

// fakePositionManager records resolution calls and marks signals confirmed in
// the signal repo, mirroring what the real manager does.
type fakePositionManager struct {
	signals *fakeSignalRepo
	entries []entity.QsOrderSignal
	exits   []entity.QsOrderSignal
}

func (f *fakePositionManager) ConfirmEntry(ctx context.Context, signal *entity.QsOrderSignal) (*entity.QsPosition, error) {
	f.entries = append(f.entries, *signal)
	signal.Status = entity.SignalStatusConfirmed
	if f.signals != nil {
		_ = f.signals.UpdateStatus(ctx, signal.ID, entity.SignalStatusConfirmed)
	}
	return &entity.QsPosition{Code: signal.Code, EntryPrice: signal.Price, State: entity.PositionStateOpen}, nil
}

func (f *fakePositionManager) ConfirmExit(ctx context.Context, signal *entity.QsOrderSignal, position *entity.QsPosition) error {
	f.exits = append(f.exits, *signal)
	signal.Status = entity.SignalStatusConfirmed
	if f.signals != nil {
		_ = f.signals.UpdateStatus(ctx, signal.ID, entity.SignalStatusConfirmed)
	}
	position.State = entity.PositionStateClosed
	return nil
}
