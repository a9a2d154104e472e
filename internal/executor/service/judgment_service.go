package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/executor/config"
	"kabu-advisor/internal/executor/dto"
	"kabu-advisor/internal/executor/repository"
	"kabu-advisor/internal/rules"
	"kabu-advisor/pkg/apperrors"
	"kabu-advisor/pkg/logger"
	"kabu-advisor/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// JudgmentService runs the end-of-day multi-strategy batch.
type JudgmentService interface {
	RunBatch(ctx context.Context, tradeDate string) (*entity.BatchRun, error)
}

type judgmentService struct {
	cfg          *config.Config
	log          *logger.Logger
	orchestrator *rules.Orchestrator
	batchRuns    repository.BatchRunRepository
	judgments    repository.JudgmentRepository
	stocks       repository.StocksRepository
	marketData   repository.MarketDataRepository
	nowFn        func() time.Time
}

func NewJudgmentService(
	cfg *config.Config,
	log *logger.Logger,
	orchestrator *rules.Orchestrator,
	batchRuns repository.BatchRunRepository,
	judgments repository.JudgmentRepository,
	stocks repository.StocksRepository,
	marketData repository.MarketDataRepository,
) JudgmentService {
	return &judgmentService{
		cfg:          cfg,
		log:          log,
		orchestrator: orchestrator,
		batchRuns:    batchRuns,
		judgments:    judgments,
		stocks:       stocks,
		marketData:   marketData,
		nowFn:        utils.TimeNowJST,
	}
}

// RunBatch evaluates every security in the universe with every strategy and
// records the results under a fresh ledger row. Per-security failures are
// counted and skipped; only failures that invalidate the whole run flip the
// ledger to status=error.
func (s *judgmentService) RunBatch(ctx context.Context, tradeDate string) (*entity.BatchRun, error) {
	s.warnAbandonedRuns(ctx)

	run := &entity.BatchRun{
		StartedAt: utils.TimestampJST(s.nowFn()),
		Status:    entity.RunStatusRunning,
	}
	if err := s.batchRuns.Create(ctx, run); err != nil {
		return nil, apperrors.NewCatastrophic("create batch run", err)
	}

	stocks, err := s.stocks.GetAll(ctx)
	if err != nil {
		s.finish(ctx, run, 0, 0, entity.RunStatusError, fmt.Sprintf("enumerate universe: %v", err))
		return run, apperrors.NewCatastrophic("enumerate universe", err)
	}
	// One judgment per (security, strategy) pair is the unit of work.
	target := len(stocks) * len(s.orchestrator.Strategies())
	if err := s.batchRuns.UpdateTarget(ctx, run.ID, target); err != nil {
		s.finish(ctx, run, 0, 0, entity.RunStatusError, fmt.Sprintf("update target count: %v", err))
		return run, apperrors.NewCatastrophic("update target count", err)
	}
	run.TargetCount = target

	var successCount, errorCount atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Judgment.Concurrency)
	for _, stock := range stocks {
		stock := stock
		g.Go(func() error {
			ok, failed := s.judgeStock(gctx, run.ID, stock, tradeDate)
			successCount.Add(int64(ok))
			errorCount.Add(int64(failed))
			return nil
		})
	}
	_ = g.Wait()

	message := fmt.Sprintf("judged %d of %d (%d errors)", successCount.Load(), target, errorCount.Load())
	s.finish(ctx, run, int(successCount.Load()), int(errorCount.Load()), entity.RunStatusSuccess, message)

	s.log.Info("batch run finished",
		logger.Field("run_id", run.ID),
		logger.IntField("target", run.TargetCount),
		logger.IntField("success", run.SuccessCount),
		logger.IntField("errors", run.ErrorCount))
	return run, nil
}

// judgeStock evaluates one security with every strategy, sharing a single
// snapshot load, and returns per-pair success/error counts. One strategy's
// failure never blocks the others.
func (s *judgmentService) judgeStock(ctx context.Context, runID int64, stock entity.Stock, tradeDate string) (successes, failures int) {
	strategies := s.orchestrator.Strategies()

	snap, err := s.marketData.Snapshot(ctx, dto.SnapshotParam{
		Code:      stock.Code,
		DateFrom:  s.snapshotFrom(tradeDate),
		DateTo:    tradeDate,
		NewsLimit: s.cfg.Judgment.NewsLimit,
	})
	if err != nil {
		s.log.Warn("snapshot load failed",
			logger.StringField("code", stock.Code),
			logger.ErrorField(err))
		return 0, len(strategies)
	}

	for _, strategyName := range strategies {
		if err := s.judgePair(ctx, runID, stock, strategyName, tradeDate, snap); err != nil {
			failures++
			s.log.Warn("evaluation failed",
				logger.StringField("code", stock.Code),
				logger.StringField("strategy", strategyName),
				logger.ErrorField(err))
			continue
		}
		successes++
	}
	return successes, failures
}

func (s *judgmentService) judgePair(ctx context.Context, runID int64, stock entity.Stock, strategyName, tradeDate string, snap *rules.Snapshot) error {
	j, err := s.orchestrator.Evaluate(strategyName, stock.Code, stock.Name, tradeDate, *snap)
	if err != nil {
		return err
	}
	rulesJSON, err := json.Marshal(j.Outcomes)
	if err != nil {
		return fmt.Errorf("marshal rule outcomes: %w", err)
	}
	row := &entity.Judgment{
		BatchRunID: runID,
		Code:       j.Code,
		Strategy:   j.Strategy,
		Signal:     j.Signal,
		Score:      j.Score,
		Price:      j.Price,
		AsOf:       j.AsOf,
		TopReason:  j.TopReason(),
		RulesJSON:  rulesJSON,
	}
	if err := s.judgments.Create(ctx, row); err != nil {
		return fmt.Errorf("persist judgment: %w", err)
	}
	return nil
}

func (s *judgmentService) snapshotFrom(tradeDate string) string {
	to, err := time.Parse("2006-01-02", tradeDate)
	if err != nil {
		to = s.nowFn()
	}
	return to.AddDate(0, 0, -s.cfg.Judgment.LookbackDays).Format("2006-01-02")
}

// warnAbandonedRuns surfaces runs stuck at status=running from a previous
// crash. They are reported, never retried or mutated here.
func (s *judgmentService) warnAbandonedRuns(ctx context.Context) {
	runs, err := s.batchRuns.FindRunning(ctx)
	if err != nil {
		s.log.Warn("failed to check for abandoned runs", logger.ErrorField(err))
		return
	}
	for _, r := range runs {
		s.log.Warn("abandoned batch run detected",
			logger.Field("run_id", r.ID),
			logger.StringField("started_at", r.StartedAt))
	}
}

func (s *judgmentService) finish(ctx context.Context, run *entity.BatchRun, success, errors int, status entity.RunStatus, message string) {
	run.FinishedAt = utils.ToPointer(utils.TimestampJST(s.nowFn()))
	run.Status = status
	run.SuccessCount = success
	run.ErrorCount = errors
	run.Message = message
	if err := s.batchRuns.Finish(ctx, run); err != nil {
		s.log.Error("failed to finish batch run",
			logger.Field("run_id", run.ID),
			logger.ErrorField(err))
	}
}
