package service

import (
	"context"
	"encoding/json"

	"kabu-advisor/internal/entity"
	"kabu-advisor/internal/scheduler/config"
	"kabu-advisor/pkg/common"
	"kabu-advisor/pkg/logger"
	redisclient "kabu-advisor/pkg/redis"
	"kabu-advisor/pkg/utils"

	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// TickPublisher emits discrete pipeline ticks onto the Redis streams on the
// configured JST cron schedules. It holds no pipeline state: the executor owns
// all semantics, the publisher owns only the clock.
type TickPublisher struct {
	cfg   *config.Config
	log   *logger.Logger
	redis *redisclient.Client
	cron  *cron.Cron
}

func NewTickPublisher(cfg *config.Config, log *logger.Logger, redis *redisclient.Client) *TickPublisher {
	return &TickPublisher{
		cfg:   cfg,
		log:   log,
		redis: redis,
		cron:  cron.New(cron.WithLocation(utils.GetJSTLocation())),
	}
}

// Start registers the schedules and runs the cron loop until ctx is done.
func (p *TickPublisher) Start(ctx context.Context) error {
	entries := []struct {
		spec     string
		tickType entity.TickType
		stream   string
	}{
		{p.cfg.Schedules.JudgmentBatch, entity.TickTypeJudgmentBatch, common.RedisStreamJudgmentBatch},
		{p.cfg.Schedules.CandidateScan, entity.TickTypeCandidateScan, common.RedisStreamQuickstartTick},
		{p.cfg.Schedules.SurvivalTest, entity.TickTypeSurvivalTest, common.RedisStreamQuickstartTick},
		{p.cfg.Schedules.EntrySignal, entity.TickTypeEntrySignal, common.RedisStreamQuickstartTick},
		{p.cfg.Schedules.ExitSignal, entity.TickTypeExitSignal, common.RedisStreamQuickstartTick},
	}
	for _, e := range entries {
		e := e
		if _, err := p.cron.AddFunc(e.spec, func() {
			p.Publish(ctx, e.tickType, e.stream)
		}); err != nil {
			return err
		}
		p.log.Info("schedule registered",
			logger.StringField("tick_type", string(e.tickType)),
			logger.StringField("spec", e.spec))
	}

	p.cron.Start()
	<-ctx.Done()
	stopCtx := p.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

// Publish emits one tick onto a stream. The stream is capped approximately at
// the configured max length so a stalled consumer cannot grow it unbounded.
func (p *TickPublisher) Publish(ctx context.Context, tickType entity.TickType, stream string) {
	now := utils.TimeNowJST()
	tick := entity.Tick{
		Type:        tickType,
		TradeDate:   utils.TradeDate(now),
		PublishedAt: utils.TimestampJST(now),
	}
	payload, err := json.Marshal(tick)
	if err != nil {
		p.log.Error("failed to marshal tick", logger.ErrorField(err))
		return
	}

	maxLen := p.cfg.Redis.StreamMaxLen
	if maxLen <= 0 {
		maxLen = 1000
	}
	err = p.redis.XAdd(ctx, &goredis.XAddArgs{
		Stream: stream,
		MaxLen: maxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(payload)},
	}).Err()
	if err != nil {
		p.log.Error("failed to publish tick",
			logger.StringField("tick_type", string(tickType)),
			logger.StringField("stream", stream),
			logger.ErrorField(err))
		return
	}
	p.log.Info("tick published",
		logger.StringField("tick_type", string(tickType)),
		logger.StringField("trade_date", tick.TradeDate))
}
